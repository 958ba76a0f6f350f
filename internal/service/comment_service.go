package service

import (
	"context"
	"strings"

	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
	"scribe/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Body     string
	ParentID *uint
}

type DeleteCommentInput struct {
	CommentID  uint
	ActorID    uint
	IsAdmin    bool
	Moderation *ModerationContext
}

// CommentService manages comment threads. A thread is deleted leaves
// first through an explicit worklist, never by recursion.
type CommentService struct {
	comments   repository.CommentRepository
	posts      repository.PostRepository
	activities repository.ActivityRepository
	notifRepo  repository.NotificationRepository
	reports    repository.ReportRepository
	counters   *Counters
	activity   *ActivityLogger
	notify     *NotificationService
	sanctions  *sanctions
}

func NewCommentService(r Repos, counters *Counters, activity *ActivityLogger, notify *NotificationService) *CommentService {
	return &CommentService{
		comments:   r.Comments,
		posts:      r.Posts,
		activities: r.Activities,
		notifRepo:  r.Notifications,
		reports:    r.Reports,
		counters:   counters,
		activity:   activity,
		notify:     notify,
		sanctions:  &sanctions{users: r.Users, reports: r.Reports, notify: notify},
	}
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, models.NewValidationError("Write something to leave a comment")
	}
	if len(body) > validation.MaxCommentLen {
		return nil, models.NewValidationError("Comment too long")
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.Draft {
		return nil, models.NewValidationError("Drafts cannot be commented on")
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: in.AuthorID, Body: body, ParentID: in.ParentID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	top := 0
	if parent == nil {
		top = 1
	}
	stepFailed(ctx, "add_comment", "counters", s.counters.AdjustComments(ctx, post.ID, 1, top))

	n := &models.Notification{
		ActorID:   in.AuthorID,
		PostID:    uintPtr(post.ID),
		CommentID: uintPtr(comment.ID),
	}
	action := models.ActivityCommented
	if parent == nil {
		n.Type = models.NotificationComment
		n.RecipientID = post.AuthorID
	} else {
		n.Type = models.NotificationReply
		n.RecipientID = parent.AuthorID
		n.RepliedOnCommentID = uintPtr(parent.ID)
		action = models.ActivityReplied
		// The replier's own notification about the parent now points at
		// their answer.
		stepFailed(ctx, "add_comment", "reply_pointer", s.notifRepo.SetReplyPointer(ctx, parent.ID, in.AuthorID, comment.ID))
	}
	s.notify.Send(ctx, n)

	s.activity.Log(ctx, ActivityEntry{
		ActorID:     in.AuthorID,
		Type:        models.ActivityTypeComment,
		Action:      action,
		Link:        postLink(post.Slug),
		Content:     body,
		RefID:       comment.ID,
		ParentRefID: in.ParentID,
		PostRefID:   uintPtr(post.ID),
	})
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	return s.comments.ListTopLevel(ctx, postID, limit, offset)
}

func (s *CommentService) ListReplies(ctx context.Context, commentID uint, limit, offset int) ([]models.Comment, error) {
	return s.comments.ListReplies(ctx, commentID, limit, offset)
}

// DeleteComment removes a comment and its whole reply subtree. A comment
// that is already gone is a successful no-op.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (err error) {
	done := observability.ObserveCascade("delete_comment")
	defer func() { done(err) }()

	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	post, err := s.posts.GetByID(ctx, comment.PostID)
	if err != nil && !isNotFound(err) {
		return err
	}
	allowed := in.IsAdmin || in.ActorID == comment.AuthorID || (post != nil && post.AuthorID == in.ActorID)
	if !allowed {
		return models.NewForbiddenError("You can't delete this comment")
	}
	if in.Moderation != nil {
		if !in.IsAdmin {
			return models.NewForbiddenError("Only administrators can moderate comments")
		}
		if err := in.Moderation.validate(); err != nil {
			return err
		}
	}

	span, ctx := observability.NewSpan(ctx, "cascade.delete_comment", attribute.Int64("comment_id", int64(comment.ID)))
	defer span.End()

	alertType := models.AlertTypeComment
	if comment.IsReply() {
		alertType = models.AlertTypeReply
	}
	s.sanctions.apply(ctx, "delete_comment", comment.AuthorID, alertType, comment.Body, "", in.Moderation)

	removed, top := s.removeSubtree(ctx, "delete_comment", comment)
	span.AddAttributes(attribute.Int64("removed", removed), attribute.Int64("top_level", top))
	return nil
}

// collectSubtree lists root and every transitive reply, parents before
// children. Lookups that fail drop that branch.
func (s *CommentService) collectSubtree(ctx context.Context, cascade string, rootID uint) []uint {
	order := []uint{rootID}
	for i := 0; i < len(order); i++ {
		kids, err := s.comments.ChildIDs(ctx, order[i])
		if err != nil {
			stepFailed(ctx, cascade, "child_ids", err)
			continue
		}
		order = append(order, kids...)
	}
	return order
}

// purgeReferences removes the audit entries, notifications and reports
// that name a comment, and unsets reply pointers at it.
func (s *CommentService) purgeReferences(ctx context.Context, cascade string, id uint) {
	_, err := s.activities.DeleteByRef(ctx, models.ActivityTypeComment, id)
	stepFailed(ctx, cascade, "activities", err)
	_, err = s.notifRepo.DeleteByComment(ctx, id)
	stepFailed(ctx, cascade, "notifications", err)
	_, err = s.notifRepo.ClearReplyPointer(ctx, id)
	stepFailed(ctx, cascade, "reply_pointer", err)
	_, err = s.reports.DeleteByRef(ctx, models.ReportTypeComment, id)
	stepFailed(ctx, cascade, "reports", err)
}

// removeSubtree deletes root's subtree leaves first. Only rows this call
// actually removed move the post's counters.
func (s *CommentService) removeSubtree(ctx context.Context, cascade string, root *models.Comment) (removed, topLevel int64) {
	order := s.collectSubtree(ctx, cascade, root.ID)
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		s.purgeReferences(ctx, cascade, id)

		ok, err := s.comments.Delete(ctx, id)
		if err != nil {
			stepFailed(ctx, cascade, "delete", err)
			continue
		}
		if !ok {
			continue
		}
		top := 0
		if id == root.ID && !root.IsReply() {
			top = 1
		}
		removed++
		topLevel += int64(top)
		stepFailed(ctx, cascade, "counters", s.counters.AdjustComments(ctx, root.PostID, -1, -top))
	}
	return removed, topLevel
}
