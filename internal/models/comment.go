package models

import "time"

// Comment belongs to a post. Replies point at their parent; the children of
// a comment are the comments whose ParentID names it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Children  int64     `gorm:"-" json:"children"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsReply reports whether c hangs under another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
