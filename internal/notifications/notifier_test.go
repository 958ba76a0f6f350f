package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"scribe/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.NotificationCreated(context.Background(), &models.Notification{RecipientID: 1}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.AlertCreated(context.Background(), &models.Alert{UserID: 1}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_PublishesEnvelopes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel(7))
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	postID := uint(3)
	require.NoError(t, n.NotificationCreated(ctx, &models.Notification{
		Type:        models.NotificationLike,
		RecipientID: 7,
		ActorID:     2,
		PostID:      &postID,
	}))
	require.NoError(t, n.AlertCreated(ctx, &models.Alert{UserID: 7, Type: models.AlertTypeWarning, Action: models.AlertActionWarned}))

	ch := sub.Channel()
	var kinds []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			var ev Event
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
			kinds = append(kinds, ev.Kind)
			if ev.Kind == EventNotificationCreated {
				require.NotNil(t, ev.Notification)
				assert.Equal(t, models.NotificationLike, ev.Notification.Type)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for published event")
		}
	}
	assert.Equal(t, []string{EventNotificationCreated, EventAlertCreated}, kinds)
}
