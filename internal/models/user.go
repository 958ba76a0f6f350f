package models

import "time"

// User is an account that can author posts and comments.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Fullname   string    `json:"fullname"`
	Bio        string    `gorm:"type:text" json:"bio"`
	ProfileImg string    `json:"profile_img"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	Warned     bool      `gorm:"not null;default:false" json:"warned"`
	TotalPosts int       `gorm:"not null;default:0" json:"total_posts"`
	TotalReads int       `gorm:"not null;default:0" json:"total_reads"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AlertType names the kind of content an alert is about.
type AlertType string

const (
	AlertTypePost    AlertType = "post"
	AlertTypeComment AlertType = "comment"
	AlertTypeReply   AlertType = "reply"
	AlertTypeWarning AlertType = "warning"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePost, AlertTypeComment, AlertTypeReply, AlertTypeWarning:
		return true
	}
	return false
}

// AlertAction is what moderation did.
type AlertAction string

const (
	AlertActionDeleted AlertAction = "deleted"
	AlertActionWarned  AlertAction = "warned"
)

// Alert is a moderation message shown to the affected user. Alerts are
// ordered by ID.
type Alert struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	Type      AlertType   `gorm:"type:varchar(20);not null" json:"type"`
	Action    AlertAction `gorm:"type:varchar(20);not null" json:"action"`
	Content   string      `gorm:"type:text" json:"content"`
	Reason    string      `gorm:"type:text" json:"reason"`
	Img       string      `json:"img,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName keeps alerts namespaced under users.
func (Alert) TableName() string {
	return "user_alerts"
}

// BannedEmail blocks account creation for an email permanently.
type BannedEmail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCounter names a per-user counter column.
type UserCounter string

const (
	UserCounterPosts UserCounter = "total_posts"
	UserCounterReads UserCounter = "total_reads"
)
