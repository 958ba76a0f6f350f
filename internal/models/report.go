package models

import "time"

// ReportType is the kind of content a report targets.
type ReportType string

const (
	ReportTypeUser    ReportType = "user"
	ReportTypeBlog    ReportType = "blog"
	ReportTypeComment ReportType = "comment"
)

// Valid reports whether t is a reportable type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeUser, ReportTypeBlog, ReportTypeComment:
		return true
	}
	return false
}

// ResolveAction is how an administrator closes a report.
type ResolveAction string

const (
	ResolveReject ResolveAction = "reject"
	ResolveDelete ResolveAction = "delete"
	ResolveWarn   ResolveAction = "warn"
)

// Valid reports whether a is a known resolution.
func (a ResolveAction) Valid() bool {
	switch a {
	case ResolveReject, ResolveDelete, ResolveWarn:
		return true
	}
	return false
}

// Report is a pending moderation case. Every resolution removes the row.
type Report struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ReporterID     uint       `gorm:"not null;index" json:"reporter_id"`
	Type           ReportType `gorm:"type:varchar(20);not null" json:"type"`
	ReportedUserID uint       `gorm:"not null;index" json:"reported_user_id"`
	RefID          uint       `gorm:"not null;index" json:"ref_id"`
	ParentRefID    *uint      `json:"parent_ref_id,omitempty"`
	PostRefID      *uint      `gorm:"index" json:"post_ref_id,omitempty"`
	Link           string     `json:"link,omitempty"`
	Content        string     `gorm:"type:text" json:"content"`
	Reason         string     `gorm:"type:text;not null" json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}
