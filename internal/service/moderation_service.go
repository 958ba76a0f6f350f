package service

import (
	"context"

	"scribe/internal/models"
	"scribe/internal/validation"
)

type ReportInput struct {
	Type       models.ReportType
	TargetID   uint
	Reason     string
	ReporterID uint
}

type ResolveReportInput struct {
	ReportID uint
	ActorID  uint
	Action   models.ResolveAction
	Reason   string
	Warn     bool
}

// ModerationService handles reports, warnings and report resolution.
type ModerationService struct {
	repos     Repos
	comments  *CommentService
	cascade   *CascadeService
	sanctions *sanctions
}

func NewModerationService(r Repos, comments *CommentService, cascade *CascadeService, notify *NotificationService) *ModerationService {
	return &ModerationService{
		repos:     r,
		comments:  comments,
		cascade:   cascade,
		sanctions: &sanctions{users: r.Users, reports: r.Reports, notify: notify},
	}
}

// WarnUser flags a user as warned and alerts them. Warning an already
// warned user changes nothing.
func (s *ModerationService) WarnUser(ctx context.Context, userID uint, reason string) error {
	reason, err := validation.ValidateReason(reason)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		return err
	}
	_, err = s.sanctions.warn(ctx, userID, reason)
	return err
}

// ReportContent files a pending report against a user, post or comment.
// The same target may be reported any number of times.
func (s *ModerationService) ReportContent(ctx context.Context, in ReportInput) (*models.Report, error) {
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Report type must be user, blog or comment")
	}
	reason, err := validation.ValidateReason(in.Reason)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	report := &models.Report{ReporterID: in.ReporterID, Type: in.Type, RefID: in.TargetID, Reason: reason}
	switch in.Type {
	case models.ReportTypeUser:
		user, err := s.repos.Users.GetByID(ctx, in.TargetID)
		if err != nil {
			return nil, err
		}
		report.ReportedUserID = user.ID
		report.Content = user.Username
		report.Link = "/user/" + user.Username
	case models.ReportTypeBlog:
		post, err := s.repos.Posts.GetByID(ctx, in.TargetID)
		if err != nil {
			return nil, err
		}
		report.ReportedUserID = post.AuthorID
		report.Content = post.Title
		report.Link = postLink(post.Slug)
		report.PostRefID = uintPtr(post.ID)
	case models.ReportTypeComment:
		comment, err := s.repos.Comments.GetByID(ctx, in.TargetID)
		if err != nil {
			return nil, err
		}
		report.ReportedUserID = comment.AuthorID
		report.Content = comment.Body
		report.ParentRefID = comment.ParentID
		report.PostRefID = uintPtr(comment.PostID)
		if post, err := s.repos.Posts.GetByID(ctx, comment.PostID); err == nil {
			report.Link = postLink(post.Slug)
		}
	}
	if report.ReportedUserID == in.ReporterID {
		return nil, models.NewValidationError("You cannot report yourself")
	}

	if err := s.repos.Reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ModerationService) ListReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return s.repos.Reports.List(ctx, limit, offset)
}

// ResolveReport closes a report. Reject only drops the report. Delete
// removes the reported content with moderation side effects; for a user
// report it bans the user. Warn warns the reported user.
func (s *ModerationService) ResolveReport(ctx context.Context, in ResolveReportInput) error {
	if !in.Action.Valid() {
		return models.NewValidationError("Action must be reject, delete or warn")
	}
	if in.Action == models.ResolveReject {
		_, err := s.repos.Reports.Delete(ctx, in.ReportID)
		return err
	}

	report, err := s.repos.Reports.GetByID(ctx, in.ReportID)
	if err != nil {
		return err
	}
	reason := in.Reason
	if reason == "" {
		reason = report.Reason
	}

	switch in.Action {
	case models.ResolveWarn:
		if err := s.WarnUser(ctx, report.ReportedUserID, reason); err != nil && !isNotFound(err) {
			return err
		}
	case models.ResolveDelete:
		m := &ModerationContext{Reason: reason, Warn: in.Warn, ReportID: report.ID}
		switch report.Type {
		case models.ReportTypeBlog:
			err = s.cascade.DeletePost(ctx, DeletePostInput{PostID: report.RefID, ActorID: in.ActorID, IsAdmin: true, Moderation: m})
		case models.ReportTypeComment:
			err = s.comments.DeleteComment(ctx, DeleteCommentInput{CommentID: report.RefID, ActorID: in.ActorID, IsAdmin: true, Moderation: m})
		case models.ReportTypeUser:
			err = s.cascade.BanUser(ctx, report.RefID, in.ActorID)
		}
		if err != nil {
			return err
		}
	}

	_, err = s.repos.Reports.Delete(ctx, report.ID)
	return err
}
