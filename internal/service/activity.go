package service

import (
	"context"
	"log/slog"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/repository"
)

// ActivityEntry is one audit record to append.
type ActivityEntry struct {
	ActorID     uint
	Type        models.ActivityType
	Action      models.ActivityAction
	Link        string
	Content     string
	RefID       uint
	ParentRefID *uint
	PostRefID   *uint
}

// ActivityLogger appends to the audit trail. Writes never fail the
// operation that triggered them.
type ActivityLogger struct {
	repo repository.ActivityRepository
}

func NewActivityLogger(repo repository.ActivityRepository) *ActivityLogger {
	return &ActivityLogger{repo: repo}
}

func (l *ActivityLogger) Log(ctx context.Context, e ActivityEntry) {
	if !e.Type.Valid() || !e.Action.Valid() {
		middleware.Logger.ErrorContext(ctx, "refusing malformed activity",
			slog.String("type", string(e.Type)), slog.String("action", string(e.Action)))
		return
	}
	err := l.repo.Create(ctx, &models.Activity{
		ActorID:     e.ActorID,
		Type:        e.Type,
		Action:      e.Action,
		Link:        e.Link,
		Content:     e.Content,
		RefID:       e.RefID,
		ParentRefID: e.ParentRefID,
		PostRefID:   e.PostRefID,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "activity write failed",
			slog.String("type", string(e.Type)),
			slog.String("action", string(e.Action)),
			slog.Any("ref_id", e.RefID),
			slog.String("error", err.Error()),
		)
	}
}

func (l *ActivityLogger) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, models.NewValidationError("unknown activity type")
	}
	return l.repo.List(ctx, filter)
}

func postLink(slug string) string {
	return "/blog/" + slug
}
