package models

import "time"

// Community is a member group with its own lightweight posts.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Banner      string    `json:"banner"`
	Image       string    `json:"image"`
	Interests   []string  `gorm:"serializer:json;type:text" json:"interests"`
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`
	MemberCount int64     `gorm:"-" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommunityMember maps users to communities they joined.
type CommunityMember struct {
	CommunityID uint      `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommunityPost is a short post inside a community.
type CommunityPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"not null;index" json:"community_id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Text        string    `gorm:"type:text" json:"text"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MembershipAction is a change to community membership.
type MembershipAction string

const (
	MembershipJoin  MembershipAction = "join"
	MembershipLeave MembershipAction = "leave"
	MembershipKick  MembershipAction = "kick"
)

// Valid reports whether a is a known membership action.
func (a MembershipAction) Valid() bool {
	switch a {
	case MembershipJoin, MembershipLeave, MembershipKick:
		return true
	}
	return false
}
