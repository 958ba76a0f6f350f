package server

import (
	"context"
	"log/slog"

	"scribe/internal/middleware"
	"scribe/internal/notifications"
	"scribe/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StartRealtime relays published notification events to connected
// streams until ctx is done. It is a no-op without redis.
func (s *Server) StartRealtime(ctx context.Context) error {
	return s.hub.Run(ctx, notifications.NewNotifier(s.redis))
}

// streamAuth authenticates a websocket upgrade. Browsers cannot set headers
// on upgrade requests, so the token may also arrive as ?token=.
func (s *Server) streamAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	if c.Get(fiber.HeaderAuthorization) == "" {
		if token := c.Query("token"); token != "" {
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
	}
	return s.auth.Required(c)
}

// NotificationStream pushes the caller's notification and alert events
// over a websocket. Clients only receive; anything they send is ignored.
func (s *Server) NotificationStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification stream rejected",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
