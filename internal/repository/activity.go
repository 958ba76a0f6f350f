package repository

import (
	"context"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// ActivityFilter narrows an activity listing. Zero values match everything.
type ActivityFilter struct {
	ActorID uint
	Type    models.ActivityType
	Limit   int
	Offset  int
}

// ActivityRepository stores the append-only audit log.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	DeleteByRef(ctx context.Context, typ models.ActivityType, refID uint) (int64, error)
	// DeleteByPost removes entries for the post itself and for anything
	// that happened under it.
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	DeleteByActor(ctx context.Context, actorID uint) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Activity{})
	if filter.ActorID != 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	var list []models.Activity
	if err := q.Order("id DESC").Limit(clampLimit(filter.Limit)).Offset(filter.Offset).Find(&list).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *activityRepository) DeleteByRef(ctx context.Context, typ models.ActivityType, refID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Activity{}, "type = ? AND ref_id = ?", typ, refID)
}

func (r *activityRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Activity{},
		"(type = ? AND ref_id = ?) OR post_ref_id = ?", models.ActivityTypePost, postID, postID)
}

func (r *activityRepository) DeleteByActor(ctx context.Context, actorID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Activity{}, "actor_id = ?", actorID)
}
