package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

// Registration limits.
var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
	ErrHubClosed  = errors.New("notification hub is shut down")
)

// Hub fans events published by a Notifier out to the websocket
// connections of their recipient.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID. conn may be nil for clients that
// are only read through Send.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	return client, nil
}

// Unregister removes client and closes its Send channel. Calling it twice
// is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.total--
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Connections reports how many streams userID has open.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Deliver sends payload to every connection of userID.
func (h *Hub) Deliver(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(payload)
	}
}

// Run subscribes to every user channel and delivers messages until ctx is
// done. Without redis there is nothing to relay and Run returns at once.
func (h *Hub) Run(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(channel, payload string) {
		userID, ok := parseUserChannel(channel)
		if !ok {
			slog.Warn("ignoring message on unexpected channel", slog.String("channel", channel))
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Shutdown closes every client's Send channel, which makes its WritePump
// send a close frame, and refuses new registrations.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.conns {
		for c := range clients {
			close(c.Send)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}
