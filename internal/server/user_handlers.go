package server

import (
	"log/slog"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, _ := actor(c)
	user, err := s.engine.Users.Get(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// ListUserPosts handles GET /api/users/:id/posts. Authors also see their
// own drafts.
func (s *Server) ListUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := actor(c)
	posts, err := s.engine.Posts.ListByAuthor(c.UserContext(), authorID, viewerID)
	if err != nil {
		return fail(c, err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(posts)
}

// ListNotifications handles GET /api/notifications. Listing marks the page
// as seen.
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, _ := actor(c)
	page := parsePagination(c, 10)
	list, err := s.engine.Notifications.List(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return c.JSON(list)
}

// HasNewNotifications handles GET /api/notifications/new
func (s *Server) HasNewNotifications(c *fiber.Ctx) error {
	userID, _ := actor(c)
	ok, err := s.engine.Notifications.HasNew(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"new_notification_available": ok})
}

// ListAlerts handles GET /api/me/alerts
func (s *Server) ListAlerts(c *fiber.Ctx) error {
	userID, _ := actor(c)
	alerts, err := s.engine.Notifications.ListAlerts(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return c.JSON(alerts)
}

// ClearAlerts handles DELETE /api/me/alerts
func (s *Server) ClearAlerts(c *fiber.Ctx) error {
	userID, _ := actor(c)
	n, err := s.engine.Notifications.ClearAlerts(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"cleared": n})
}

// ListActivities handles GET /api/admin/activities
func (s *Server) ListActivities(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	filter := repository.ActivityFilter{
		ActorID: uint(c.QueryInt("actor_id", 0)),
		Type:    models.ActivityType(c.Query("type")),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	list, err := s.engine.Activity.List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetStats handles GET /api/admin/stats
func (s *Server) GetStats(c *fiber.Ctx) error {
	stats, err := s.engine.Stats.Get(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

// Reconcile handles POST /api/admin/reconcile
func (s *Server) Reconcile(c *fiber.Ctx) error {
	res, err := s.engine.Reconcile.Run(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"repaired": res, "total": res.Total()})
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := actor(c)
	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

type featureFlagRequest struct {
	Value string `json:"value" validate:"required"`
}

// SetFeatureFlag handles PUT /api/admin/feature-flags/:name. Overrides last
// until restart.
func (s *Server) SetFeatureFlag(c *fiber.Ctx) error {
	var req featureFlagRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	name := c.Params("name")
	if err := s.featureFlags.Set(name, req.Value); err != nil {
		return fail(c, models.NewValidationError(err.Error()))
	}
	middleware.Logger.InfoContext(c.UserContext(), "feature flag updated",
		slog.String("flag", name), slog.String("value", req.Value))
	return s.GetFeatureFlags(c)
}
