package service

import (
	"context"

	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/validation"
)

// ModerationContext accompanies an administrator's removal of someone
// else's content.
type ModerationContext struct {
	Reason string
	Warn   bool
	// ReportID is resolved (deleted) once the removal is applied.
	ReportID uint
}

func (m *ModerationContext) validate() error {
	if m == nil {
		return nil
	}
	reason, err := validation.ValidateReason(m.Reason)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	m.Reason = reason
	return nil
}

// sanctions applies the side effects moderation attaches to a removal.
type sanctions struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	notify  *NotificationService
}

// warn sets the sticky warned flag and alerts the user the first time.
func (s *sanctions) warn(ctx context.Context, userID uint, reason string) (bool, error) {
	changed, err := s.users.MarkWarned(ctx, userID)
	if err != nil || !changed {
		return false, err
	}
	err = s.notify.Alert(ctx, &models.Alert{
		UserID: userID,
		Type:   models.AlertTypeWarning,
		Action: models.AlertActionWarned,
		Reason: reason,
	})
	return true, err
}

// apply alerts the content owner, optionally warns them and resolves the
// linked report. Each effect is independent.
func (s *sanctions) apply(ctx context.Context, cascade string, ownerID uint, typ models.AlertType, content, img string, m *ModerationContext) {
	if m == nil {
		return
	}
	stepFailed(ctx, cascade, "alert", s.notify.Alert(ctx, &models.Alert{
		UserID:  ownerID,
		Type:    typ,
		Action:  models.AlertActionDeleted,
		Content: content,
		Reason:  m.Reason,
		Img:     img,
	}))
	if m.Warn {
		_, err := s.warn(ctx, ownerID, m.Reason)
		stepFailed(ctx, cascade, "warn", err)
	}
	if m.ReportID != 0 {
		_, err := s.reports.Delete(ctx, m.ReportID)
		stepFailed(ctx, cascade, "resolve_report", err)
	}
}
