package server

import (
	"github.com/gofiber/fiber/v2"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=40"`
}

// CreateCategory handles POST /api/admin/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	category, err := s.engine.Categories.Create(c.UserContext(), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// RenameCategory handles PUT /api/admin/categories/:id
func (s *Server) RenameCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	category, err := s.engine.Categories.Rename(c.UserContext(), id, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/admin/categories/:id. Every post in the
// category goes with it.
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	if err := s.engine.Categories.Delete(c.UserContext(), id, userID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
