package service

import (
	"context"

	"scribe/internal/models"
	"scribe/internal/repository"
)

// Counters applies single-row increments to derived counters. There is no
// read-modify-write: every call is one UPDATE col = col + delta.
type Counters struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
}

func NewCounters(r Repos) *Counters {
	return &Counters{posts: r.Posts, users: r.Users, categories: r.Categories}
}

// AdjustCategoryCount moves a category's post_count. A nil category is a
// no-op.
func (c *Counters) AdjustCategoryCount(ctx context.Context, categoryID *uint, delta int) error {
	if categoryID == nil || delta == 0 {
		return nil
	}
	return c.categories.AdjustPostCount(ctx, *categoryID, delta)
}

func (c *Counters) AdjustUserPostCount(ctx context.Context, userID uint, delta int) error {
	return c.users.AdjustCounters(ctx, userID, map[models.UserCounter]int{models.UserCounterPosts: delta})
}

func (c *Counters) AdjustUserReads(ctx context.Context, userID uint, delta int) error {
	return c.users.AdjustCounters(ctx, userID, map[models.UserCounter]int{models.UserCounterReads: delta})
}

// AdjustPostActivity moves one of a post's activity counters.
func (c *Counters) AdjustPostActivity(ctx context.Context, postID uint, field models.PostCounter, delta int) error {
	if !field.Valid() {
		return models.NewValidationError("unknown post counter " + string(field))
	}
	return c.posts.AdjustCounters(ctx, postID, map[models.PostCounter]int{field: delta})
}

// AdjustComments removes or adds comments in one statement: comments moves
// by total and parent_comments by topLevel.
func (c *Counters) AdjustComments(ctx context.Context, postID uint, total, topLevel int) error {
	return c.posts.AdjustCounters(ctx, postID, map[models.PostCounter]int{
		models.PostCounterComments:       total,
		models.PostCounterParentComments: topLevel,
	})
}

// ApplyDraftTransition moves category and author counters for a change of
// draft state or category. A new post is treated as coming from draft.
//
//	draft   -> live    +1 new category, +1 author
//	live    -> draft   -1 old category, -1 author
//	live    -> live    -1 old, +1 new when the category changed
//	draft   -> draft   nothing
func (c *Counters) ApplyDraftTransition(ctx context.Context, authorID uint, old, next models.PostState) error {
	switch {
	case old.Draft && !next.Draft:
		if err := c.AdjustCategoryCount(ctx, next.CategoryID, 1); err != nil {
			return err
		}
		return c.AdjustUserPostCount(ctx, authorID, 1)
	case !old.Draft && next.Draft:
		if err := c.AdjustCategoryCount(ctx, old.CategoryID, -1); err != nil {
			return err
		}
		return c.AdjustUserPostCount(ctx, authorID, -1)
	case !old.Draft && !next.Draft && !sameCategory(old.CategoryID, next.CategoryID):
		if err := c.AdjustCategoryCount(ctx, old.CategoryID, -1); err != nil {
			return err
		}
		return c.AdjustCategoryCount(ctx, next.CategoryID, 1)
	}
	return nil
}

func sameCategory(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
