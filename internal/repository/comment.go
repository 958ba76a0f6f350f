package repository

import (
	"context"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments. A comment's
// children are the rows whose parent_id names it.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]models.Comment, error)
	ChildIDs(ctx context.Context, parentID uint) ([]uint, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Comment, error)
	// Delete removes one comment and reports whether this call removed it.
	Delete(ctx context.Context, id uint) (bool, error)
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	// DeleteSet removes the given ids from one post, returning how many rows
	// went and how many of those were top-level.
	DeleteSet(ctx context.Context, postID uint, ids []uint) (removed, topLevel int64, err error)
	Count(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "fullname", "profile_img")
	})
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, wrapErr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) withChildCounts(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	var rows []struct {
		ParentID uint
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS n").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ParentID] = row.N
	}
	for i := range comments {
		comments[i].Children = counts[comments[i].ID]
	}
	return nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	err := withAuthor(readDB(r.db).WithContext(ctx)).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("id DESC").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, r.withChildCounts(ctx, comments)
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	err := withAuthor(readDB(r.db).WithContext(ctx)).
		Where("parent_id = ?", parentID).
		Order("id").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, r.withChildCounts(ctx, comments)
}

func (r *commentRepository) ChildIDs(ctx context.Context, parentID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_id = ?", parentID).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, r.db, &models.Comment{}, id)
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Comment{}, "post_id = ?", postID)
}

func (r *commentRepository) DeleteSet(ctx context.Context, postID uint, ids []uint) (int64, int64, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	top, err := deleteWhere(ctx, r.db, &models.Comment{}, "post_id = ? AND id IN ? AND parent_id IS NULL", postID, ids)
	if err != nil {
		return 0, 0, err
	}
	replies, err := deleteWhere(ctx, r.db, &models.Comment{}, "post_id = ? AND id IN ? AND parent_id IS NOT NULL", postID, ids)
	if err != nil {
		return top, top, err
	}
	return top + replies, top, nil
}

func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
