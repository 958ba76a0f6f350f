// Package bootstrap connects the runtime dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scribe/internal/cache"
	"scribe/internal/config"
	"scribe/internal/database"
	"scribe/internal/featureflags"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/moderation"
	"scribe/internal/notifications"
	"scribe/internal/observability"
	"scribe/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE before anything else.
	ApplySchema bool
	// SkipRedis leaves the cache and notifier disabled.
	SkipRedis bool
}

// Runtime is everything a process needs to serve requests.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Flags  *featureflags.Manager
	Engine *service.Engine

	// release closes connections InitRuntime opened.
	release func()
}

// InitRuntime connects to the database and Redis and builds the engine.
// Redis is optional: when it is unreachable the runtime runs uncached.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := observability.RegisterDatabaseMetrics(db); err != nil {
		middleware.Logger.Warn("database metrics unavailable", slog.String("error", err.Error()))
	}

	var rdb *redis.Client
	if !opts.SkipRedis {
		rdb = cache.InitRedis(cfg.RedisURL)
	}

	rt := &Runtime{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Flags:  featureflags.NewManager(cfg.FeatureFlags),
	}
	rt.Engine = NewEngine(cfg, db, rdb, rt.Flags)
	rt.release = func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if err := ensureDevRootAdmin(ctx, cfg, rt.Engine); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	return rt, nil
}

// NewEngine assembles the engine. The classifier is only wired when an API
// key is configured.
func NewEngine(cfg *config.Config, db *gorm.DB, rdb *redis.Client, flags *featureflags.Manager) *service.Engine {
	opts := service.Options{Flags: flags}
	if rdb != nil {
		opts.Notifier = notifications.NewNotifier(rdb)
	}
	if cfg.ClassifierAPIKey != "" {
		opts.Classifier = moderation.NewOpenAIClassifier(cfg.ClassifierAPIKey, cfg.ClassifierModel, cfg.ClassifierBaseURL)
	} else if flags.On(featureflags.PublishClassifier) {
		middleware.Logger.Warn("publish_classifier is on but CLASSIFIER_API_KEY is empty; publishing is not gated")
	}
	return service.NewEngine(db, opts)
}

// Close waits for background cascades and releases the connections
// InitRuntime opened. A Runtime assembled by hand keeps its connections.
func (rt *Runtime) Close() {
	if rt.Engine != nil {
		rt.Engine.Cascade.Wait()
	}
	if rt.release != nil {
		rt.release()
	}
}

// ensureDevRootAdmin makes sure a development administrator exists so a
// fresh database is usable without the CLI.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, engine *service.Engine) error {
	if cfg == nil || engine == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}
	if cfg.DevRootPassword == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@scribe.local"
	}

	root, err := engine.Repos.Users.GetByEmail(ctx, email)
	switch {
	case models.IsCode(err, models.CodeNotFound):
		root, err = engine.Users.Register(ctx, service.RegisterInput{
			Fullname: "Scribe Root",
			Email:    email,
			Password: cfg.DevRootPassword,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case cfg.DevRootForceCredentials:
		if err := engine.Users.SetPassword(ctx, root.ID, cfg.DevRootPassword); err != nil {
			return err
		}
	}

	if err := engine.Users.SetAdmin(ctx, root.ID, true); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development root admin ready", slog.String("email", email))
	return nil
}
