package models

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Users          int64 `json:"users"`
	Posts          int64 `json:"posts"`
	Drafts         int64 `json:"drafts"`
	Comments       int64 `json:"comments"`
	Categories     int64 `json:"categories"`
	Communities    int64 `json:"communities"`
	PendingReports int64 `json:"pending_reports"`
	BannedEmails   int64 `json:"banned_emails"`
}
