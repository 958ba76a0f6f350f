package service

import (
	"context"
	"log/slog"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/notifications"
	"scribe/internal/repository"
)

// NotificationService stores notifications and alerts and pushes them to
// the user's realtime channel.
type NotificationService struct {
	repo     repository.NotificationRepository
	users    repository.UserRepository
	notifier *notifications.Notifier
}

func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, notifier *notifications.Notifier) *NotificationService {
	return &NotificationService{repo: repo, users: users, notifier: notifier}
}

// Send stores n. Failures are logged; a missing notification never undoes
// the action that caused it.
func (s *NotificationService) Send(ctx context.Context, n *models.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "notification write failed",
			slog.String("type", string(n.Type)), slog.String("error", err.Error()))
		return
	}
	if err := s.notifier.NotificationCreated(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed", slog.String("error", err.Error()))
	}
}

// Withdraw tells recipients that notifications were removed.
func (s *NotificationService) Withdraw(ctx context.Context, list []models.Notification) {
	for i := range list {
		if err := s.notifier.NotificationRemoved(ctx, &list[i]); err != nil {
			middleware.Logger.WarnContext(ctx, "notification publish failed", slog.String("error", err.Error()))
		}
	}
}

// Alert appends an alert to a user's alert list.
func (s *NotificationService) Alert(ctx context.Context, alert *models.Alert) error {
	if !alert.Type.Valid() {
		return models.NewValidationError("unknown alert type")
	}
	if err := s.users.AddAlert(ctx, alert); err != nil {
		return err
	}
	if err := s.notifier.AlertCreated(ctx, alert); err != nil {
		middleware.Logger.WarnContext(ctx, "alert publish failed", slog.String("error", err.Error()))
	}
	return nil
}

// List returns a page of the user's notifications and marks them seen.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	list, err := s.repo.ListForRecipient(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.MarkAllSeen(ctx, userID); err != nil {
		middleware.Logger.WarnContext(ctx, "mark seen failed", slog.String("error", err.Error()))
	}
	return list, nil
}

func (s *NotificationService) HasNew(ctx context.Context, userID uint) (bool, error) {
	return s.repo.HasUnseen(ctx, userID)
}

func (s *NotificationService) ListAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	return s.users.ListAlerts(ctx, userID)
}

func (s *NotificationService) ClearAlerts(ctx context.Context, userID uint) (int64, error) {
	return s.users.ClearAlerts(ctx, userID)
}
