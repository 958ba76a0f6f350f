package repository

import (
	"context"
	"testing"

	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint) *uint { return &v }

func TestNotificationRepository_ReplyPointer(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := &models.Notification{Type: models.NotificationComment, RecipientID: 1, ActorID: 2, PostID: uptr(10), CommentID: uptr(20)}
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, repo.SetReplyPointer(ctx, 20, 1, 21))
	var got models.Notification
	testutil.Reload(t, db, &got, n.ID)
	require.NotNil(t, got.ReplyID)
	assert.Equal(t, uint(21), *got.ReplyID)

	cleared, err := repo.ClearReplyPointer(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	got = models.Notification{}
	testutil.Reload(t, db, &got, n.ID)
	assert.Nil(t, got.ReplyID, "the notification survives with its pointer unset")
}

func TestNotificationRepository_Unseen(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationLike, RecipientID: 1, ActorID: 1, PostID: uptr(3)}))
	unseen, err := repo.HasUnseen(ctx, 1)
	require.NoError(t, err)
	assert.False(t, unseen, "self-actions do not count")

	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationLike, RecipientID: 1, ActorID: 2, PostID: uptr(3)}))
	unseen, err = repo.HasUnseen(ctx, 1)
	require.NoError(t, err)
	assert.True(t, unseen)

	_, err = repo.MarkAllSeen(ctx, 1)
	require.NoError(t, err)
	unseen, err = repo.HasUnseen(ctx, 1)
	require.NoError(t, err)
	assert.False(t, unseen)
}

func TestNotificationRepository_Deletes(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationLike, RecipientID: 1, ActorID: 2, PostID: uptr(3)}))
	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationReply, RecipientID: 1, ActorID: 2, PostID: uptr(3), CommentID: uptr(8), RepliedOnCommentID: uptr(7)}))
	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationKick, RecipientID: 5, ActorID: 6, CommunityID: uptr(1)}))

	likes, err := repo.DeleteLike(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	n, err := repo.DeleteByComment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByUser(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, testutil.CountRows(t, db, &models.Notification{}, ""))
}
