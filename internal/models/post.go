// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is a long-form article. Counter columns are derived state maintained
// by the service layer and re-derivable by the reconciler.
type Post struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Slug                string     `gorm:"uniqueIndex;not null" json:"slug"`
	Title               string     `gorm:"not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	Banner              string     `json:"banner"`
	Content             string     `gorm:"type:text" json:"content"`
	AuthorID            uint       `gorm:"not null;index" json:"author_id"`
	Author              *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CategoryID          *uint      `gorm:"index" json:"category_id,omitempty"`
	Category            *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Draft               bool       `gorm:"not null;default:false;index" json:"draft"`
	Published           bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	TotalReads          int        `gorm:"not null;default:0" json:"total_reads"`
	TotalLikes          int        `gorm:"not null;default:0" json:"total_likes"`
	TotalComments       int        `gorm:"not null;default:0" json:"total_comments"`
	TotalParentComments int        `gorm:"not null;default:0" json:"total_parent_comments"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"-" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostState is the part of a post that drives aggregate counters.
type PostState struct {
	Draft      bool
	CategoryID *uint
}

// State returns the counter-relevant state of p.
func (p *Post) State() PostState {
	return PostState{Draft: p.Draft, CategoryID: p.CategoryID}
}

// PostCounter names a per-post counter column.
type PostCounter string

const (
	PostCounterReads          PostCounter = "total_reads"
	PostCounterLikes          PostCounter = "total_likes"
	PostCounterComments       PostCounter = "total_comments"
	PostCounterParentComments PostCounter = "total_parent_comments"
)

// Valid reports whether c is a known counter column.
func (c PostCounter) Valid() bool {
	switch c {
	case PostCounterReads, PostCounterLikes, PostCounterComments, PostCounterParentComments:
		return true
	}
	return false
}

// PostLike records one user's like on a post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
