package repository

import (
	"context"

	"scribe/internal/cache"
	"scribe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines persistence operations for posts and likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	// UpdateContent writes the editable fields and draft state of post, but
	// only while the stored draft flag and category still equal expected.
	// It reports whether the row matched.
	UpdateContent(ctx context.Context, post *models.Post, expected models.PostState) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	AdjustCounters(ctx context.Context, id uint, deltas map[models.PostCounter]int) error
	ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool) ([]models.Post, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Count(ctx context.Context, draft bool) (int64, error)

	// AddLike inserts a like and reports whether it was new.
	AddLike(ctx context.Context, postID, userID uint) (bool, error)
	// RemoveLike deletes a like and reports whether it existed.
	RemoveLike(ctx context.Context, postID, userID uint) (bool, error)
	HasLiked(ctx context.Context, postID, userID uint) (bool, error)
	LikedPostIDs(ctx context.Context, userID uint) ([]uint, error)
	DeleteLikesForPost(ctx context.Context, postID uint) (int64, error)

	RecountComments(ctx context.Context) (int64, error)
	RecountLikes(ctx context.Context) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return wrapErr(err, "Post", post.Slug)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, wrapErr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "fullname", "profile_img")
		}).
		Preload("Category").
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		return nil, wrapErr(err, "Post", slug)
	}
	return &post, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post, expected models.PostState) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND draft = ?", post.ID, expected.Draft)
	if expected.CategoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *expected.CategoryID)
	}
	res := q.Select("title", "description", "banner", "content", "category_id", "draft", "published", "published_at", "updated_at").
		Updates(post)
	if res.Error != nil {
		return false, wrapErr(res.Error, "Post", post.ID)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidatePost(ctx, post.Slug)
	return true, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, r.db, &models.Post{}, id)
}

func (r *postRepository) AdjustCounters(ctx context.Context, id uint, deltas map[models.PostCounter]int) error {
	cols := make(map[string]int, len(deltas))
	for c, d := range deltas {
		if !c.Valid() {
			return models.NewValidationError("unknown post counter " + string(c))
		}
		cols[string(c)] = d
	}
	_, err := increment(ctx, r.db, &models.Post{}, id, cols)
	return err
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "fullname", "profile_img")
		}).
		Where("draft = ?", false).
		Order("published_at DESC, id DESC").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID)
	if !includeDrafts {
		q = q.Where("draft = ?", false)
	}
	if err := q.Order("id").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *postRepository) Count(ctx context.Context, draft bool) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Where("draft = ?", draft).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID uint) (bool, error) {
	like := models.PostLike{PostID: postID, UserID: userID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID uint) (bool, error) {
	n, err := deleteWhere(ctx, r.db, &models.PostLike{}, "post_id = ? AND user_id = ?", postID, userID)
	return n > 0, err
}

func (r *postRepository) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.PostLike{}).Where("user_id = ?", userID).Order("post_id").Pluck("post_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) DeleteLikesForPost(ctx context.Context, postID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.PostLike{}, "post_id = ?", postID)
}

func (r *postRepository) RecountComments(ctx context.Context) (int64, error) {
	const all = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)"
	const top = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.parent_id IS NULL)"
	res := r.db.WithContext(ctx).Exec(
		"UPDATE posts SET total_comments = " + all + ", total_parent_comments = " + top +
			" WHERE total_comments <> " + all + " OR total_parent_comments <> " + top,
	)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postRepository) RecountLikes(ctx context.Context) (int64, error) {
	const sub = "(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id)"
	res := r.db.WithContext(ctx).Exec("UPDATE posts SET total_likes = " + sub + " WHERE total_likes <> " + sub)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
