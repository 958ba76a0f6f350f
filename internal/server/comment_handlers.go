package server

import (
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addCommentRequest struct {
	Body     string `json:"comment" validate:"required,max=10000"`
	ParentID *uint  `json:"replying_to"`
}

type deleteCommentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	Warn   bool   `json:"warn"`
}

// ListComments handles GET /api/posts/:id/comments
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 10)
	list, err := s.engine.Comments.ListComments(c.UserContext(), postID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	var req addCommentRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	comment, err := s.engine.Comments.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   postID,
		AuthorID: userID,
		Body:     req.Body,
		ParentID: req.ParentID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListReplies handles GET /api/comments/:id/replies
func (s *Server) ListReplies(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 5)
	list, err := s.engine.Comments.ListReplies(c.UserContext(), commentID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, admin := actor(c)

	var req deleteCommentRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return nil
		}
	}
	in := service.DeleteCommentInput{CommentID: commentID, ActorID: userID, IsAdmin: admin}
	if req.Reason != "" {
		in.Moderation = &service.ModerationContext{Reason: req.Reason, Warn: req.Warn}
	}
	if err := s.engine.Comments.DeleteComment(c.UserContext(), in); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
