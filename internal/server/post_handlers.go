package server

import (
	"scribe/internal/models"
	"scribe/internal/moderation"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

type savePostRequest struct {
	ID          uint   `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=200"`
	Banner      string `json:"banner"`
	Content     string `json:"content"`
	CategoryID  *uint  `json:"category_id"`
	Draft       bool   `json:"draft"`
}

type checkPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// deletePostRequest is optional; administrators removing someone else's
// post send a reason.
type deletePostRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	Warn   bool   `json:"warn"`
}

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.engine.Posts.ListPublished(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:slug
func (s *Server) GetPost(c *fiber.Ctx) error {
	viewerID, _ := actor(c)
	post, err := s.engine.Posts.GetPost(c.UserContext(), c.Params("slug"), viewerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// SavePost handles POST /api/posts. A body with an id updates that post.
func (s *Server) SavePost(c *fiber.Ctx) error {
	userID, _ := actor(c)
	var req savePostRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	post, err := s.engine.Posts.CreateOrUpdatePost(c.UserContext(), service.PostInput{
		ID:          req.ID,
		AuthorID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Banner:      req.Banner,
		Content:     req.Content,
		CategoryID:  req.CategoryID,
		Draft:       req.Draft,
	})
	if err != nil {
		return fail(c, err)
	}
	status := fiber.StatusOK
	if req.ID == 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(post)
}

// CheckPost handles POST /api/posts/check
func (s *Server) CheckPost(c *fiber.Ctx) error {
	var req checkPostRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	verdict, err := s.engine.Posts.Check(c.UserContext(), moderation.Submission{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(verdict)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, admin := actor(c)

	var req deletePostRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return nil
		}
	}
	in := service.DeletePostInput{PostID: postID, ActorID: userID, IsAdmin: admin}
	if req.Reason != "" {
		in.Moderation = &service.ModerationContext{Reason: req.Reason, Warn: req.Warn}
	}
	if err := s.engine.Cascade.DeletePost(c.UserContext(), in); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like and toggles the like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	liked, err := s.engine.Posts.LikePost(c.UserContext(), postID, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// ListCategories handles GET /api/categories
func (s *Server) ListCategories(c *fiber.Ctx) error {
	list, err := s.engine.Categories.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []models.Category{}
	}
	return c.JSON(list)
}
