package service

import (
	"context"
	"strings"

	"scribe/internal/cache"
	"scribe/internal/models"
	"scribe/internal/repository"

	"github.com/google/uuid"
)

type CreateCommunityInput struct {
	AdminID     uint
	Name        string
	Description string
	Banner      string
	Image       string
	Interests   []string
}

type CommunityPostInput struct {
	CommunityID uint
	AuthorID    uint
	Text        string
	Image       string
}

type CommunityService struct {
	communities repository.CommunityRepository
	cascade     *CascadeService
	notify      *NotificationService
}

func NewCommunityService(communities repository.CommunityRepository, cascade *CascadeService, notify *NotificationService) *CommunityService {
	return &CommunityService{communities: communities, cascade: cascade, notify: notify}
}

// Create makes a community whose creator is its admin and first member.
func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 3 {
		return nil, models.NewValidationError("Community name must be at least 3 characters")
	}
	c := &models.Community{
		Slug:        uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Banner:      in.Banner,
		Image:       in.Image,
		Interests:   in.Interests,
		AdminID:     in.AdminID,
	}
	if err := s.communities.Create(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.communities.AddMember(ctx, c.ID, in.AdminID); err != nil {
		return nil, err
	}
	c.MemberCount = 1
	return c, nil
}

func (s *CommunityService) Get(ctx context.Context, slug string) (*models.Community, error) {
	var c models.Community
	err := cache.Aside(ctx, cache.CommunityKey(slug), &c, cache.CommunityTTL, func() error {
		found, err := s.communities.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		c = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Membership applies a join, leave or kick. targetID is only read for
// kicks.
func (s *CommunityService) Membership(ctx context.Context, communityID, actorID uint, action models.MembershipAction, targetID uint) error {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	defer cache.Invalidate(ctx, cache.CommunityKey(community.Slug))

	switch action {
	case models.MembershipJoin:
		_, err = s.communities.AddMember(ctx, communityID, actorID)
		return err
	case models.MembershipLeave:
		if community.AdminID == actorID {
			return models.NewValidationError("The admin cannot leave their community")
		}
		_, err = s.communities.RemoveMember(ctx, communityID, actorID)
		return err
	case models.MembershipKick:
		return s.kick(ctx, community, actorID, targetID)
	}
	return models.NewValidationError("Action must be join, leave or kick")
}

func (s *CommunityService) kick(ctx context.Context, community *models.Community, actorID, memberID uint) error {
	if community.AdminID != actorID {
		return models.NewForbiddenError("Only the community admin can remove members")
	}
	if memberID == actorID {
		return models.NewValidationError("The admin cannot remove themselves")
	}
	removed, err := s.communities.RemoveMember(ctx, community.ID, memberID)
	if err != nil || !removed {
		return err
	}
	_, err = s.communities.DeletePostsByAuthor(ctx, memberID, community.ID)
	stepFailed(ctx, "kick_member", "community_posts", err)
	s.notify.Send(ctx, &models.Notification{
		Type:        models.NotificationKick,
		RecipientID: memberID,
		ActorID:     actorID,
		CommunityID: uintPtr(community.ID),
	})
	return nil
}

// CreatePost publishes a short post to a community the author belongs to.
func (s *CommunityService) CreatePost(ctx context.Context, in CommunityPostInput) (*models.CommunityPost, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && in.Image == "" {
		return nil, models.NewValidationError("A community post needs text or an image")
	}
	member, err := s.communities.IsMember(ctx, in.CommunityID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, models.NewForbiddenError("Join the community to post in it")
	}
	p := &models.CommunityPost{CommunityID: in.CommunityID, AuthorID: in.AuthorID, Text: text, Image: in.Image}
	if err := s.communities.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListMembers pages through a community's members, oldest first.
func (s *CommunityService) ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityMember, error) {
	if _, err := s.communities.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.communities.ListMembers(ctx, communityID, limit, offset)
}

func (s *CommunityService) ListPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityPost, error) {
	return s.communities.ListPosts(ctx, communityID, limit, offset)
}

// DeletePost removes a community post. Its author, the community admin or
// a platform administrator may do so; a missing post is a no-op.
func (s *CommunityService) DeletePost(ctx context.Context, postID, actorID uint, isAdmin bool) error {
	p, err := s.communities.GetPost(ctx, postID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.AuthorID != actorID && !isAdmin {
		community, err := s.communities.GetByID(ctx, p.CommunityID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if community == nil || community.AdminID != actorID {
			return models.NewForbiddenError("You can't delete this post")
		}
	}
	_, err = s.communities.DeletePost(ctx, postID)
	return err
}

// Delete removes the community; its posts are purged in the background.
func (s *CommunityService) Delete(ctx context.Context, communityID, actorID uint, isAdmin bool) error {
	return s.cascade.DeleteCommunity(ctx, communityID, actorID, isAdmin)
}
