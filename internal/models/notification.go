package models

import "time"

// NotificationType is the peer-to-peer event a notification describes.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationReply   NotificationType = "reply"
	NotificationKick    NotificationType = "kick"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationReply, NotificationKick:
		return true
	}
	return false
}

// Notification is delivered to RecipientID about something ActorID did.
//
// CommentID is the comment that caused the notification. For replies,
// RepliedOnCommentID is the parent comment. ReplyID is set on the parent's
// comment notification once its author replies; it is cleared, not
// deleted, when that reply goes away.
type Notification struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	Type               NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	RecipientID        uint             `gorm:"not null;index" json:"recipient_id"`
	ActorID            uint             `gorm:"not null;index" json:"actor_id"`
	PostID             *uint            `gorm:"index" json:"post_id,omitempty"`
	CommentID          *uint            `gorm:"index" json:"comment_id,omitempty"`
	RepliedOnCommentID *uint            `gorm:"index" json:"replied_on_comment_id,omitempty"`
	ReplyID            *uint            `gorm:"index" json:"reply_id,omitempty"`
	CommunityID        *uint            `gorm:"index" json:"community_id,omitempty"`
	Seen               bool             `gorm:"not null;default:false" json:"seen"`
	CreatedAt          time.Time        `json:"created_at"`
}
