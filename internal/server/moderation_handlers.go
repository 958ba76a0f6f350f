package server

import (
	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reportRequest struct {
	Type     string `json:"type" validate:"required,oneof=user blog comment"`
	TargetID uint   `json:"target_id" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

type resolveReportRequest struct {
	Action string `json:"action" validate:"required,oneof=reject delete warn"`
	Reason string `json:"reason" validate:"max=500"`
	Warn   bool   `json:"warn"`
}

type warnRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ReportContent handles POST /api/reports
func (s *Server) ReportContent(c *fiber.Ctx) error {
	userID, _ := actor(c)
	var req reportRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	report, err := s.engine.Moderation.ReportContent(c.UserContext(), service.ReportInput{
		Type:       models.ReportType(req.Type),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		ReporterID: userID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/admin/reports
func (s *Server) ListReports(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	reports, err := s.engine.Moderation.ListReports(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reports)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	var req resolveReportRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	err = s.engine.Moderation.ResolveReport(c.UserContext(), service.ResolveReportInput{
		ReportID: reportID,
		ActorID:  userID,
		Action:   models.ResolveAction(req.Action),
		Reason:   req.Reason,
		Warn:     req.Warn,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// WarnUser handles POST /api/admin/users/:id/warn
func (s *Server) WarnUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req warnRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	if err := s.engine.Moderation.WarnUser(c.UserContext(), targetID, req.Reason); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BanUser handles POST /api/admin/users/:id/ban
func (s *Server) BanUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := actor(c)
	if err := s.engine.Cascade.BanUser(c.UserContext(), targetID, userID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote-admin
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.engine.Users.SetAdmin(c.UserContext(), targetID, true); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": targetID, "admin": true})
}
