package service

import (
	"context"
	"log/slog"
	"sync"

	"scribe/internal/cache"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// CategoryDeletedReason is the alert reason every author receives when a
// category removal takes their posts with it.
const CategoryDeletedReason = "The admin deleted this blog category, which resulted in the deletion of all blogs associated with it."

type DeletePostInput struct {
	PostID     uint
	ActorID    uint
	IsAdmin    bool
	Moderation *ModerationContext
}

// CascadeService fans deletions of posts, categories, communities and
// users out to everything that depends on them.
type CascadeService struct {
	repos     Repos
	counters  *Counters
	comments  *CommentService
	activity  *ActivityLogger
	notify    *NotificationService
	sanctions *sanctions

	bg sync.WaitGroup
}

func NewCascadeService(r Repos, counters *Counters, comments *CommentService, activity *ActivityLogger, notify *NotificationService) *CascadeService {
	return &CascadeService{
		repos:     r,
		counters:  counters,
		comments:  comments,
		activity:  activity,
		notify:    notify,
		sanctions: &sanctions{users: r.Users, reports: r.Reports, notify: notify},
	}
}

// Wait blocks until background purges started by earlier cascades finish.
func (s *CascadeService) Wait() {
	s.bg.Wait()
}

// DeletePost removes a post and everything hanging off it. The author may
// delete their own post; an administrator deleting someone else's post
// must give a reason.
func (s *CascadeService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	post, err := s.repos.Posts.GetByID(ctx, in.PostID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if post.AuthorID != in.ActorID && !in.IsAdmin {
		return models.NewForbiddenError("You can't delete this post")
	}
	if in.Moderation != nil && !in.IsAdmin {
		return models.NewForbiddenError("Only administrators can moderate posts")
	}
	if in.Moderation == nil && in.IsAdmin && post.AuthorID != in.ActorID {
		return models.NewValidationError("A reason is required to delete another user's post")
	}
	if err := in.Moderation.validate(); err != nil {
		return err
	}

	done := observability.ObserveCascade("delete_post")
	defer func() { done(err) }()

	s.sanctions.apply(ctx, "delete_post", post.AuthorID, models.AlertTypePost, post.Title, post.Banner, in.Moderation)
	s.deletePost(ctx, "delete_post", post, in.ActorID)
	return nil
}

// deletePost runs the post cascade without authorization or moderation.
func (s *CascadeService) deletePost(ctx context.Context, cascade string, post *models.Post, actorID uint) {
	span, ctx := observability.NewSpan(ctx, "cascade.delete_post", attribute.Int64("post_id", int64(post.ID)))
	defer span.End()

	r := s.repos
	_, err := r.Activities.DeleteByPost(ctx, post.ID)
	stepFailed(ctx, cascade, "activities", err)
	_, err = r.Notifications.DeleteByPost(ctx, post.ID)
	stepFailed(ctx, cascade, "notifications", err)
	_, err = r.Posts.DeleteLikesForPost(ctx, post.ID)
	stepFailed(ctx, cascade, "likes", err)
	_, err = r.Reports.DeleteByPost(ctx, post.ID)
	stepFailed(ctx, cascade, "reports", err)
	n, err := r.Comments.DeleteByPost(ctx, post.ID)
	stepFailed(ctx, cascade, "comments", err)
	span.AddAttributes(attribute.Int64("comments_removed", n))

	removed, err := r.Posts.Delete(ctx, post.ID)
	cache.InvalidatePost(ctx, post.Slug)
	if err != nil {
		stepFailed(ctx, cascade, "post", err)
		span.SetError(err)
		return
	}
	if !removed {
		return
	}
	if !post.Draft {
		stepFailed(ctx, cascade, "author_count", s.counters.AdjustUserPostCount(ctx, post.AuthorID, -1))
		stepFailed(ctx, cascade, "category_count", s.counters.AdjustCategoryCount(ctx, post.CategoryID, -1))
	}
	s.activity.Log(ctx, ActivityEntry{
		ActorID: actorID,
		Type:    models.ActivityTypePost,
		Action:  models.ActivityDeleted,
		Content: post.Title,
		RefID:   post.ID,
	})
}

// DeleteCategory deletes every post filed under the category, alerts each
// author, then removes the category. Drafts are deleted too; only live
// posts move counters.
func (s *CascadeService) DeleteCategory(ctx context.Context, categoryID, actorID uint) (err error) {
	category, err := s.repos.Categories.GetByID(ctx, categoryID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	done := observability.ObserveCascade("delete_category")
	defer func() { done(err) }()

	posts, err := s.repos.Posts.ListByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	for i := range posts {
		p := &posts[i]
		s.deletePost(ctx, "delete_category", p, actorID)
		stepFailed(ctx, "delete_category", "alert", s.notify.Alert(ctx, &models.Alert{
			UserID:  p.AuthorID,
			Type:    models.AlertTypePost,
			Action:  models.AlertActionDeleted,
			Content: p.Title,
			Reason:  CategoryDeletedReason,
			Img:     p.Banner,
		}))
	}

	if _, err := s.repos.Categories.Delete(ctx, category.ID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "category deleted",
		slog.String("category", category.Name), slog.Int("posts", len(posts)))
	return nil
}

// DeleteCommunity removes a community and its memberships, then purges its
// posts in the background. The community admin or a platform
// administrator may do this.
func (s *CascadeService) DeleteCommunity(ctx context.Context, communityID, actorID uint, isAdmin bool) error {
	community, err := s.repos.Communities.GetByID(ctx, communityID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if community.AdminID != actorID && !isAdmin {
		return models.NewForbiddenError("Only the community admin can delete it")
	}
	return s.deleteCommunity(ctx, "delete_community", community)
}

func (s *CascadeService) deleteCommunity(ctx context.Context, cascade string, community *models.Community) error {
	removed, err := s.repos.Communities.Delete(ctx, community.ID)
	if err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.CommunityKey(community.Slug))
	_, err = s.repos.Communities.DeleteMembers(ctx, community.ID)
	stepFailed(ctx, cascade, "members", err)
	_, err = s.repos.Notifications.DeleteByCommunity(ctx, community.ID)
	stepFailed(ctx, cascade, "notifications", err)
	if !removed {
		return nil
	}

	s.bg.Add(1)
	go func(ctx context.Context, id uint) {
		defer s.bg.Done()
		done := observability.ObserveCascade("purge_community_posts")
		n, err := s.repos.Communities.DeletePostsByCommunity(ctx, id)
		done(err)
		if err != nil {
			stepFailed(ctx, cascade, "community_posts", err)
			return
		}
		middleware.Logger.InfoContext(ctx, "community posts purged",
			slog.Any("community_id", id), slog.Int64("posts", n))
	}(context.WithoutCancel(ctx), community.ID)
	return nil
}

// BanUser erases a user's content and account and blocks their email from
// signing up again. Administrators cannot be banned.
func (s *CascadeService) BanUser(ctx context.Context, userID, actorID uint) (err error) {
	r := s.repos
	user, err := r.Users.GetByID(ctx, userID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return models.NewForbiddenError("Administrators cannot be banned")
	}
	if user.ID == actorID {
		return models.NewForbiddenError("You cannot ban yourself")
	}

	done := observability.ObserveCascade("ban_user")
	defer func() { done(err) }()

	span, ctx := observability.NewSpan(ctx, "cascade.ban_user", attribute.Int64("user_id", int64(user.ID)))
	defer span.End()

	// The email goes on the ban list first so a partial cascade never
	// leaves a window for re-registration.
	if err := r.Users.BanEmail(ctx, user.Email); err != nil {
		span.SetError(err)
		return err
	}

	posts, err := r.Posts.ListByAuthor(ctx, user.ID, true)
	stepFailed(ctx, "ban_user", "list_posts", err)
	for i := range posts {
		s.deletePost(ctx, "ban_user", &posts[i], actorID)
	}

	s.removeAuthoredComments(ctx, user.ID)
	s.reverseLikes(ctx, user.ID)

	_, err = r.Activities.DeleteByActor(ctx, user.ID)
	stepFailed(ctx, "ban_user", "activities", err)
	_, err = r.Notifications.DeleteByUser(ctx, user.ID)
	stepFailed(ctx, "ban_user", "notifications", err)
	_, err = r.Reports.DeleteByUser(ctx, user.ID)
	stepFailed(ctx, "ban_user", "reports", err)
	_, err = r.Users.ClearAlerts(ctx, user.ID)
	stepFailed(ctx, "ban_user", "alerts", err)

	owned, err := r.Communities.ListAdministeredBy(ctx, user.ID)
	stepFailed(ctx, "ban_user", "list_communities", err)
	for i := range owned {
		stepFailed(ctx, "ban_user", "community", s.deleteCommunity(ctx, "ban_user", &owned[i]))
	}
	_, err = r.Communities.DeleteMembershipsOf(ctx, user.ID)
	stepFailed(ctx, "ban_user", "memberships", err)
	_, err = r.Communities.DeletePostsByAuthor(ctx, user.ID, 0)
	stepFailed(ctx, "ban_user", "community_posts", err)

	if _, err := r.Users.Delete(ctx, user.ID); err != nil {
		span.SetError(err)
		return err
	}
	middleware.Logger.InfoContext(ctx, "user banned", slog.Any("user_id", user.ID), slog.Any("by", actorID))
	return nil
}

// removeAuthoredComments deletes every comment by userID on other users'
// posts together with the replies under it. Removals are grouped per post
// so each post's counters move once by the exact number of rows removed.
func (s *CascadeService) removeAuthoredComments(ctx context.Context, userID uint) {
	authored, err := s.repos.Comments.ListByAuthor(ctx, userID)
	if err != nil {
		stepFailed(ctx, "ban_user", "list_comments", err)
		return
	}

	byPost := make(map[uint][]uint)
	var postOrder []uint
	seen := make(map[uint]bool)
	for _, c := range authored {
		if seen[c.ID] {
			continue
		}
		if _, ok := byPost[c.PostID]; !ok {
			postOrder = append(postOrder, c.PostID)
		}
		for _, id := range s.comments.collectSubtree(ctx, "ban_user", c.ID) {
			if !seen[id] {
				seen[id] = true
				byPost[c.PostID] = append(byPost[c.PostID], id)
			}
		}
	}

	for _, postID := range postOrder {
		ids := byPost[postID]
		for _, id := range ids {
			s.comments.purgeReferences(ctx, "ban_user", id)
		}
		removed, top, err := s.repos.Comments.DeleteSet(ctx, postID, ids)
		stepFailed(ctx, "ban_user", "comments", err)
		if removed > 0 {
			stepFailed(ctx, "ban_user", "comment_counters",
				s.counters.AdjustComments(ctx, postID, -int(removed), -int(top)))
		}
	}
}

func (s *CascadeService) reverseLikes(ctx context.Context, userID uint) {
	liked, err := s.repos.Posts.LikedPostIDs(ctx, userID)
	if err != nil {
		stepFailed(ctx, "ban_user", "list_likes", err)
		return
	}
	for _, postID := range liked {
		removed, err := s.repos.Posts.RemoveLike(ctx, postID, userID)
		if err != nil {
			stepFailed(ctx, "ban_user", "like", err)
			continue
		}
		if removed {
			stepFailed(ctx, "ban_user", "like_counter",
				s.counters.AdjustPostActivity(ctx, postID, models.PostCounterLikes, -1))
		}
	}
}
