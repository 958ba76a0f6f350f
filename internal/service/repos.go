// Package service holds the engine that keeps posts, comments, categories,
// users and their derived counters consistent across cascades.
//
// No service method opens a cross-record transaction. Multi-step cascades
// are ordered sequences of independently committed writes, each keyed by
// the row it acts on, so a repeated or interrupted cascade never applies a
// counter delta twice.
package service

import (
	"context"
	"log/slog"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Repos bundles the repositories the services write through.
type Repos struct {
	Users         repository.UserRepository
	Posts         repository.PostRepository
	Comments      repository.CommentRepository
	Categories    repository.CategoryRepository
	Communities   repository.CommunityRepository
	Activities    repository.ActivityRepository
	Notifications repository.NotificationRepository
	Reports       repository.ReportRepository
}

// NewRepos builds every repository over db.
func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:         repository.NewUserRepository(db),
		Posts:         repository.NewPostRepository(db),
		Comments:      repository.NewCommentRepository(db),
		Categories:    repository.NewCategoryRepository(db),
		Communities:   repository.NewCommunityRepository(db),
		Activities:    repository.NewActivityRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Reports:       repository.NewReportRepository(db),
	}
}

// stepFailed records a best-effort cascade step that failed. The cascade
// carries on with its remaining steps.
func stepFailed(ctx context.Context, cascade, step string, err error) {
	if err == nil {
		return
	}
	observability.CascadeStepFailures.WithLabelValues(cascade, step).Inc()
	observability.AddEvent(ctx, "cascade.step_failed",
		attribute.String("cascade", cascade),
		attribute.String("step", step),
		attribute.String("error", err.Error()),
	)
	middleware.Logger.WarnContext(ctx, "cascade step failed",
		slog.String("cascade", cascade),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

func isNotFound(err error) bool {
	return models.IsCode(err, models.CodeNotFound)
}

func uintPtr(v uint) *uint {
	return &v
}
