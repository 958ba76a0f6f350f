// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/featureflags"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/notifications"
	"scribe/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// httpMetrics registers the request collectors once per process.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("scribe-api")
})

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	app          *fiber.App
	engine       *service.Engine
	auth         *middleware.Auth
	limiter      *middleware.RateLimiter
	featureFlags *featureflags.Manager
	prom         *fiberprometheus.FiberPrometheus
	hub          *notifications.Hub
}

// NewServer wires handlers over an engine built by the caller. redisClient
// may be nil.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, engine *service.Engine, flags *featureflags.Manager) *Server {
	policy := middleware.FailOpen
	if !cfg.RateLimitFailOpen {
		policy = middleware.FailClosed
	}
	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		engine:       engine,
		limiter:      middleware.NewRateLimiter(redisClient, cfg.Env, policy),
		featureFlags: flags,
		prom:         httpMetrics(),
		hub:          notifications.NewHub(),
	}
	s.auth = middleware.NewAuth(cfg.JWTSecret, engine.Repos.Users.IsAdmin)
	return s
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "scribe",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry
	// CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
	}))

	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	required := s.auth.Required
	optional := s.auth.Optional

	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Limit("signup", 3, 10*time.Minute), s.Signup)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.Login)

	api.Get("/categories", s.ListCategories)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", required, s.limiter.Limit("save_post", 30, time.Minute), s.SavePost)
	posts.Post("/check", required, s.limiter.Limit("check_post", 10, time.Minute), s.CheckPost)
	// Specific /:id/:resource routes before the generic /:slug route.
	posts.Post("/:id/like", required, s.LikePost)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", required, s.limiter.Limit("add_comment", 20, time.Minute), s.AddComment)
	posts.Delete("/:id", required, s.DeletePost)
	posts.Get("/:slug", optional, s.GetPost)

	api.Get("/users/:id/posts", optional, s.ListUserPosts)

	comments := api.Group("/comments")
	comments.Get("/:id/replies", s.ListReplies)
	comments.Delete("/:id", required, s.DeleteComment)

	communities := api.Group("/communities")
	communities.Get("/:slug", s.GetCommunity)
	communities.Get("/:id/posts", s.ListCommunityPosts)
	communities.Get("/:id/members", s.ListCommunityMembers)
	communities.Post("/", required, s.CreateCommunity)
	communities.Post("/:id/membership", required, s.UpdateMembership)
	communities.Post("/:id/posts", required, s.CreateCommunityPost)
	communities.Delete("/:id", required, s.DeleteCommunity)
	api.Delete("/community-posts/:id", required, s.DeleteCommunityPost)

	api.Post("/reports", required, s.limiter.Limit("report", 10, time.Minute), s.ReportContent)

	notifications := api.Group("/notifications", required)
	notifications.Get("/", s.ListNotifications)
	notifications.Get("/new", s.HasNewNotifications)

	api.Get("/ws", s.streamAuth, s.NotificationStream())

	me := api.Group("/me", required)
	me.Get("/", s.GetMe)
	me.Get("/alerts", s.ListAlerts)
	me.Delete("/alerts", s.ClearAlerts)

	admin := api.Group("/admin", required, s.auth.AdminOnly)
	admin.Post("/categories", s.CreateCategory)
	admin.Put("/categories/:id", s.RenameCategory)
	admin.Delete("/categories/:id", s.DeleteCategory)
	admin.Get("/reports", s.ListReports)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Post("/users/:id/warn", s.WarnUser)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Post("/users/:id/promote-admin", s.PromoteToAdmin)
	admin.Get("/activities", s.ListActivities)
	admin.Get("/stats", s.GetStats)
	admin.Post("/reconcile", s.Reconcile)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Put("/feature-flags/:name", s.SetFeatureFlag)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck reports database and redis health. Redis is optional;
// without it the service runs uncached.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{"database": dbStatus, "redis": redisStatus},
		"time":   time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and waits for background cascades
// before the caller closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	_ = s.hub.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.engine.Cascade.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		middleware.Logger.Warn("background cascades still running at shutdown")
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
