package repository

import (
	"context"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error)
	HasUnseen(ctx context.Context, recipientID uint) (bool, error)
	MarkAllSeen(ctx context.Context, recipientID uint) (int64, error)
	// SetReplyPointer records that the recipient of the notification about
	// commentID answered it with replyID.
	SetReplyPointer(ctx context.Context, commentID, recipientID, replyID uint) error
	// ClearReplyPointer unsets reply_id wherever it names replyID.
	ClearReplyPointer(ctx context.Context, replyID uint) (int64, error)
	DeleteByComment(ctx context.Context, commentID uint) (int64, error)
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	DeleteByCommunity(ctx context.Context, communityID uint) (int64, error)
	// DeleteLike removes the like notification actorID produced on postID.
	DeleteLike(ctx context.Context, postID, actorID uint) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).
		Order("id DESC").Limit(clampLimit(limit)).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *notificationRepository) HasUnseen(ctx context.Context, recipientID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND seen = ? AND actor_id <> ?", recipientID, false, recipientID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *notificationRepository) MarkAllSeen(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND seen = ?", recipientID, false).
		UpdateColumn("seen", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) SetReplyPointer(ctx context.Context, commentID, recipientID, replyID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("comment_id = ? AND recipient_id = ?", commentID, recipientID).
		UpdateColumn("reply_id", replyID).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ClearReplyPointer(ctx context.Context, replyID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("reply_id = ?", replyID).
		UpdateColumn("reply_id", gorm.Expr("NULL"))
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) DeleteByComment(ctx context.Context, commentID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Notification{},
		"comment_id = ? OR replied_on_comment_id = ?", commentID, commentID)
}

func (r *notificationRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Notification{}, "post_id = ?", postID)
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Notification{}, "actor_id = ? OR recipient_id = ?", userID, userID)
}

func (r *notificationRepository) DeleteLike(ctx context.Context, postID, actorID uint) ([]models.Notification, error) {
	var list []models.Notification
	q := r.db.WithContext(ctx).Where("type = ? AND post_id = ? AND actor_id = ?", models.NotificationLike, postID, actorID)
	if err := q.Find(&list).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	if _, err := deleteWhere(ctx, r.db, &models.Notification{}, "id IN ?", ids); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) DeleteByCommunity(ctx context.Context, communityID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Notification{}, "community_id = ?", communityID)
}
