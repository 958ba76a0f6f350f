package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"scribe/internal/cache"
	"scribe/internal/featureflags"
	"scribe/internal/models"
	"scribe/internal/moderation"
	"scribe/internal/repository"
	"scribe/internal/validation"

	"github.com/google/uuid"
)

// PostInput creates a post when ID is zero and updates it otherwise.
type PostInput struct {
	ID          uint
	AuthorID    uint
	Title       string
	Description string
	Banner      string
	Content     string
	CategoryID  *uint
	Draft       bool
}

type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	notifRepo  repository.NotificationRepository
	counters   *Counters
	activity   *ActivityLogger
	notify     *NotificationService
	classifier moderation.Classifier
	flags      *featureflags.Manager
}

func NewPostService(
	r Repos,
	counters *Counters,
	activity *ActivityLogger,
	notify *NotificationService,
	classifier moderation.Classifier,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		posts:      r.Posts,
		categories: r.Categories,
		notifRepo:  r.Notifications,
		counters:   counters,
		activity:   activity,
		notify:     notify,
		classifier: classifier,
		flags:      flags,
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func newSlug(title string) string {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > 60 {
		base = strings.TrimRight(base[:60], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func (s *PostService) validate(ctx context.Context, in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return models.NewValidationError("You must provide a title")
	}
	if len(in.Title) > validation.MaxTitleLen {
		return models.NewValidationError("Title too long")
	}
	if len(in.Content) > validation.MaxContentLen {
		return models.NewValidationError("Content too long")
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if isNotFound(err) {
				return models.NewValidationError("Unknown category")
			}
			return err
		}
	}
	if in.Draft {
		return nil
	}
	if in.Description == "" || len(in.Description) > validation.MaxDescriptionLen {
		return models.NewValidationError(fmt.Sprintf("You must provide a description under %d characters", validation.MaxDescriptionLen))
	}
	if in.CategoryID == nil {
		return models.NewValidationError("You must choose a category before publishing")
	}
	if strings.TrimSpace(in.Banner) == "" {
		return models.NewValidationError("You must provide a banner to publish")
	}
	if !moderation.HasContent(in.Content) {
		return models.NewValidationError("There must be some content to publish")
	}
	return nil
}

// Check asks the classifier about a submission. Without a classifier every
// submission passes.
func (s *PostService) Check(ctx context.Context, sub moderation.Submission) (*moderation.Verdict, error) {
	if s.classifier == nil {
		return &moderation.Verdict{Safe: true, Reason: "Classifier disabled"}, nil
	}
	return s.classifier.Classify(ctx, sub)
}

// gate runs the classifier before publishing when the flag is on. Nothing
// has been written when it fails.
func (s *PostService) gate(ctx context.Context, in PostInput) error {
	if in.Draft || s.classifier == nil || !s.flags.Enabled(featureflags.PublishClassifier, in.AuthorID) {
		return nil
	}
	v, err := s.classifier.Classify(ctx, moderation.Submission{Title: in.Title, Description: in.Description, Content: in.Content})
	if err != nil {
		return err
	}
	if !v.Safe {
		return models.NewValidationError("Content review rejected this post: " + v.Reason)
	}
	return nil
}

// CreateOrUpdatePost saves a post and moves category and author counters
// according to its draft transition.
func (s *PostService) CreateOrUpdatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	content, err := moderation.SanitizeContent(in.Content)
	if err != nil {
		return nil, models.NewValidationError("Malformed content")
	}
	in.Content = content
	if err := s.gate(ctx, in); err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return s.create(ctx, in)
	}
	return s.update(ctx, in)
}

func (s *PostService) create(ctx context.Context, in PostInput) (*models.Post, error) {
	post := &models.Post{
		Slug:        newSlug(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Banner:      in.Banner,
		Content:     in.Content,
		AuthorID:    in.AuthorID,
		CategoryID:  in.CategoryID,
		Draft:       in.Draft,
	}
	if !in.Draft {
		now := time.Now()
		post.Published = true
		post.PublishedAt = &now
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	stepFailed(ctx, "save_post", "counters",
		s.counters.ApplyDraftTransition(ctx, post.AuthorID, models.PostState{Draft: true}, post.State()))
	if !post.Draft {
		s.logPublish(ctx, post, models.ActivityPublished)
	}
	return post, nil
}

// saveAttempts bounds how often update re-reads a post whose draft state
// or category changed underneath it.
const saveAttempts = 3

// update writes only if the draft flag and category are still what was
// read, so two racing saves cannot both apply the same counter transition.
// A lost race re-reads and computes the transition from the new state.
func (s *PostService) update(ctx context.Context, in PostInput) (*models.Post, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		post, err := s.posts.GetByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if post.AuthorID != in.AuthorID {
			return nil, models.NewForbiddenError("You can only edit your own posts")
		}

		old := post.State()
		post.Title = in.Title
		post.Description = in.Description
		post.Banner = in.Banner
		post.Content = in.Content
		post.CategoryID = in.CategoryID
		post.Draft = in.Draft

		action := models.ActivityUpdated
		if post.Draft {
			post.Published = false
		} else {
			post.Published = true
			if post.PublishedAt == nil {
				now := time.Now()
				post.PublishedAt = &now
				action = models.ActivityPublished
			}
		}

		saved, err := s.posts.UpdateContent(ctx, post, old)
		if err != nil {
			return nil, err
		}
		if !saved {
			continue
		}
		stepFailed(ctx, "save_post", "counters", s.counters.ApplyDraftTransition(ctx, post.AuthorID, old, post.State()))
		if !post.Draft {
			s.logPublish(ctx, post, action)
		}
		return post, nil
	}
	return nil, models.NewConflictError("The post changed while saving, please try again")
}

func (s *PostService) logPublish(ctx context.Context, post *models.Post, action models.ActivityAction) {
	s.activity.Log(ctx, ActivityEntry{
		ActorID: post.AuthorID,
		Type:    models.ActivityTypePost,
		Action:  action,
		Link:    postLink(post.Slug),
		Content: post.Title,
		RefID:   post.ID,
	})
}

// GetPost reads a post by slug. Drafts are visible to their author only.
// A read by anyone else counts toward the post's and author's reads.
func (s *PostService) GetPost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(slug), &post, cache.PostTTL, func() error {
		p, err := s.posts.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if post.Draft && post.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Post", slug)
	}

	if !post.Draft && post.AuthorID != viewerID {
		stepFailed(ctx, "read_post", "post_reads", s.counters.AdjustPostActivity(ctx, post.ID, models.PostCounterReads, 1))
		stepFailed(ctx, "read_post", "author_reads", s.counters.AdjustUserReads(ctx, post.AuthorID, 1))
		post.TotalReads++
	}
	if viewerID != 0 {
		liked, err := s.posts.HasLiked(ctx, post.ID, viewerID)
		if err != nil {
			return nil, err
		}
		post.Liked = liked
	}
	return &post, nil
}

func (s *PostService) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.posts.ListPublished(ctx, limit, offset)
}

// ListByAuthor lists an author's posts. Drafts are included only when the
// viewer is the author.
func (s *PostService) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]models.Post, error) {
	return s.posts.ListByAuthor(ctx, authorID, authorID == viewerID)
}

// LikePost toggles userID's like on a post and reports the new state.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (bool, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}
	if post.Draft {
		return false, models.NewValidationError("Drafts cannot be liked")
	}

	liked, err := s.posts.HasLiked(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if liked {
		removed, err := s.posts.RemoveLike(ctx, postID, userID)
		if err != nil {
			return true, err
		}
		if removed {
			stepFailed(ctx, "like_post", "counters", s.counters.AdjustPostActivity(ctx, postID, models.PostCounterLikes, -1))
			gone, err := s.notifRepo.DeleteLike(ctx, postID, userID)
			stepFailed(ctx, "like_post", "notification", err)
			s.notify.Withdraw(ctx, gone)
		}
		return false, nil
	}

	added, err := s.posts.AddLike(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if added {
		stepFailed(ctx, "like_post", "counters", s.counters.AdjustPostActivity(ctx, postID, models.PostCounterLikes, 1))
		s.notify.Send(ctx, &models.Notification{
			Type:        models.NotificationLike,
			RecipientID: post.AuthorID,
			ActorID:     userID,
			PostID:      uintPtr(postID),
		})
	}
	return true, nil
}
