package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err, "Failed to create report")
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) BlockUser(c *fiber.Ctx) error {
	blockerID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil || req.BlockedID == uuid.Nil {
		return badRequest(c, "blocked_id is required")
	}

	if err := h.moderationService.BlockUser(c.UserContext(), blockerID, req.BlockedID); err != nil {
		return respondError(c, err, "Failed to block user")
	}
	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *ModerationHandler) UnblockUser(c *fiber.Ctx) error {
	blockerID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	blockedID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.moderationService.UnblockUser(c.UserContext(), blockerID, blockedID); err != nil {
		return respondError(c, err, "Failed to unblock user")
	}
	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

func (h *ModerationHandler) ListBlocked(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ids, err := h.moderationService.GetBlockedIDs(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch blocked users")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return c.JSON(fiber.Map{"blocked_ids": ids})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	status := c.Query("status", "")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	reports, total, err := h.moderationService.ListReports(c.UserContext(), status, limit, offset)
	if err != nil {
		return respondError(c, err, "Failed to fetch reports")
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *ModerationHandler) ActionReport(c *fiber.Ctx) error {
	reportID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.moderationService.ActionReport(c.UserContext(), reportID, &req); err != nil {
		return respondError(c, err, "Failed to update report")
	}
	return c.JSON(fiber.Map{"message": "Report updated successfully"})
}
