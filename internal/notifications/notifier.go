// Package notifications publishes user-facing events to Redis channels and
// relays them to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"scribe/internal/models"

	"github.com/redis/go-redis/v9"
)

// Event names carried in Event.Kind.
const (
	EventNotificationCreated = "notification.created"
	EventNotificationRemoved = "notification.removed"
	EventAlertCreated        = "alert.created"
)

// Event is the JSON envelope published on a user channel.
type Event struct {
	Kind         string               `json:"kind"`
	Notification *models.Notification `json:"notification,omitempty"`
	Alert        *models.Alert        `json:"alert,omitempty"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

func (n *Notifier) publishEvent(ctx context.Context, userID uint, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	return n.PublishUser(ctx, userID, string(b))
}

// NotificationCreated tells the recipient about a new notification.
func (n *Notifier) NotificationCreated(ctx context.Context, notif *models.Notification) error {
	return n.publishEvent(ctx, notif.RecipientID, Event{Kind: EventNotificationCreated, Notification: notif})
}

// NotificationRemoved tells the recipient a notification was withdrawn.
func (n *Notifier) NotificationRemoved(ctx context.Context, notif *models.Notification) error {
	return n.publishEvent(ctx, notif.RecipientID, Event{Kind: EventNotificationRemoved, Notification: notif})
}

// AlertCreated tells a user that moderation acted on their content.
func (n *Notifier) AlertCreated(ctx context.Context, alert *models.Alert) error {
	return n.publishEvent(ctx, alert.UserID, Event{Kind: EventAlertCreated, Alert: alert})
}

const userChannelPrefix = "notifications:user:"

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Subscribe listens on every user channel and calls onMessage for each
// message until ctx is done. The subscription is confirmed before
// Subscribe returns.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to user channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("notification subscriber panicked",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
	return nil
}
