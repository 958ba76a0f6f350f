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

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func TestHub_DeliverReachesEveryConnectionOfUser(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Deliver(1, []byte("hello"))

	assert.Equal(t, "hello", string(receive(t, a)))
	assert.Equal(t, "hello", string(receive(t, b)))
	assert.Empty(t, other.Send)
	assert.Equal(t, 2, hub.Connections(1))
}

func TestHub_PerUserLimit(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(6, nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.Connections(3))

	_, open := <-c.Send
	assert.False(t, open)

	// Delivering to a user with no connections is a no-op.
	hub.Deliver(3, []byte("late"))
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	hub.Unregister(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("after close")) })
}

func TestHub_ShutdownRefusesRegistrations(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, err := hub.Register(9, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)

	_, err = hub.Register(9, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestParseUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		channel string
		id      uint
		ok      bool
	}{
		{UserChannel(12), 12, true},
		{"notifications:user:0", 0, false},
		{"notifications:user:abc", 0, false},
		{"notifications:broadcast", 0, false},
	}
	for _, tt := range tests {
		id, ok := parseUserChannel(tt.channel)
		assert.Equal(t, tt.ok, ok, tt.channel)
		assert.Equal(t, tt.id, id, tt.channel)
	}
}

func TestHub_RunRelaysPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	n := NewNotifier(rdb)
	require.NoError(t, hub.Run(ctx, n))

	c, err := hub.Register(7, nil)
	require.NoError(t, err)

	require.NoError(t, n.AlertCreated(ctx, &models.Alert{UserID: 7, Type: models.AlertTypeWarning, Action: models.AlertActionWarned}))

	var ev Event
	require.NoError(t, json.Unmarshal(receive(t, c), &ev))
	assert.Equal(t, EventAlertCreated, ev.Kind)
	require.NotNil(t, ev.Alert)
	assert.Equal(t, uint(7), ev.Alert.UserID)
}

func TestHub_RunWithoutRedis(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewHub().Run(context.Background(), NewNotifier(nil)))
}
