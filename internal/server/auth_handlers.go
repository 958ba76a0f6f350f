package server

import (
	"time"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tokenTTL = 7 * 24 * time.Hour

type signupRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	user, err := s.engine.Users.Register(c.UserContext(), service.RegisterInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	user, err := s.engine.Users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, user)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := middleware.IssueToken(s.config.JWTSecret, user.ID, tokenTTL)
	if err != nil {
		return fail(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(fiber.Map{"token": token, "user": user})
}
