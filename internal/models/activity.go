package models

import "time"

// ActivityType is the kind of record an activity entry refers to.
type ActivityType string

const (
	ActivityTypeUser    ActivityType = "user"
	ActivityTypePost    ActivityType = "post"
	ActivityTypeComment ActivityType = "comment"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeUser, ActivityTypePost, ActivityTypeComment:
		return true
	}
	return false
}

// ActivityAction is the lifecycle event being recorded.
type ActivityAction string

const (
	ActivityJoined    ActivityAction = "joined"
	ActivityPublished ActivityAction = "published"
	ActivityUpdated   ActivityAction = "updated"
	ActivityCommented ActivityAction = "commented"
	ActivityReplied   ActivityAction = "replied"
	ActivityDeleted   ActivityAction = "deleted"
)

// Valid reports whether a is a known activity action.
func (a ActivityAction) Valid() bool {
	switch a {
	case ActivityJoined, ActivityPublished, ActivityUpdated, ActivityCommented, ActivityReplied, ActivityDeleted:
		return true
	}
	return false
}

// Activity is an append-only audit entry. Rows are only ever removed by
// cascades.
type Activity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ActorID     uint           `gorm:"not null;index" json:"actor_id"`
	Type        ActivityType   `gorm:"type:varchar(20);not null;index:idx_activity_ref" json:"type"`
	Action      ActivityAction `gorm:"type:varchar(20);not null" json:"action"`
	Link        string         `json:"link,omitempty"`
	Content     string         `gorm:"type:text" json:"content,omitempty"`
	RefID       uint           `gorm:"index:idx_activity_ref" json:"ref_id"`
	ParentRefID *uint          `json:"parent_ref_id,omitempty"`
	PostRefID   *uint          `gorm:"index" json:"post_ref_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName pins the table name used in SQL migrations.
func (Activity) TableName() string {
	return "activities"
}
