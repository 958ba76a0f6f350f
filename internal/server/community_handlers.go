package server

import (
	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommunityRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Banner      string   `json:"banner"`
	Image       string   `json:"image"`
	Interests   []string `json:"interests" validate:"max=10"`
}

type membershipRequest struct {
	Action   string `json:"action" validate:"required,oneof=join leave kick"`
	MemberID uint   `json:"member_id"`
}

type communityPostRequest struct {
	Text  string `json:"text" validate:"required,max=5000"`
	Image string `json:"image"`
}

// GetCommunity handles GET /api/communities/:slug
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	community, err := s.engine.Communities.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(community)
}

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	userID, _ := actor(c)
	var req createCommunityRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	community, err := s.engine.Communities.Create(c.UserContext(), service.CreateCommunityInput{
		AdminID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Banner:      req.Banner,
		Image:       req.Image,
		Interests:   req.Interests,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// UpdateMembership handles POST /api/communities/:id/membership
func (s *Server) UpdateMembership(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	var req membershipRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	err = s.engine.Communities.Membership(c.UserContext(), communityID, userID,
		models.MembershipAction(req.Action), req.MemberID)
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCommunityMembers handles GET /api/communities/:id/members
func (s *Server) ListCommunityMembers(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	members, err := s.engine.Communities.ListMembers(c.UserContext(), communityID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if members == nil {
		members = []models.CommunityMember{}
	}
	return c.JSON(members)
}

// ListCommunityPosts handles GET /api/communities/:id/posts
func (s *Server) ListCommunityPosts(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, err := s.engine.Communities.ListPosts(c.UserContext(), communityID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// CreateCommunityPost handles POST /api/communities/:id/posts
func (s *Server) CreateCommunityPost(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	var req communityPostRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	post, err := s.engine.Communities.CreatePost(c.UserContext(), service.CommunityPostInput{
		CommunityID: communityID,
		AuthorID:    userID,
		Text:        req.Text,
		Image:       req.Image,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeleteCommunityPost handles DELETE /api/community-posts/:id
func (s *Server) DeleteCommunityPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, admin := actor(c)
	if err := s.engine.Communities.DeletePost(c.UserContext(), postID, userID, admin); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCommunity handles DELETE /api/communities/:id. Posts are purged in
// the background, so the response does not wait for them.
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, admin := actor(c)
	if err := s.engine.Communities.Delete(c.UserContext(), communityID, userID, admin); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}
