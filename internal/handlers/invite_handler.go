package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// Submit sends an invite from the caller. Re-sending an active invite
// returns the current state with 200; a new invite or match returns 201.
func (h *InviteHandler) Submit(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.SubmitInviteRequest
	if err := c.BodyParser(&req); err != nil || req.ToUserID == uuid.Nil {
		return badRequest(c, "to_user_id is required")
	}

	res, err := h.inviteService.SubmitInvite(c.UserContext(), userID, userID, req.ToUserID)
	if err != nil {
		return respondError(c, err, "Failed to send invite")
	}

	status := fiber.StatusOK
	if res.Quota != nil {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

func (h *InviteHandler) Respond(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	inviteID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid invite ID")
	}

	var req dto.RespondInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	decision := services.Decision(req.Decision)
	if !decision.Valid() {
		return badRequest(c, "decision must be accept or reject")
	}

	res, err := h.inviteService.RespondToInvite(c.UserContext(), userID, inviteID, decision)
	if err != nil {
		return respondError(c, err, "Failed to respond to invite")
	}

	slog.Info("invite answered",
		"invite_id", inviteID.String(),
		"user_id", userID.String(),
		"action", string(decision),
	)
	return c.JSON(res)
}

func (h *InviteHandler) ListReceived(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	invites, err := h.inviteService.ListReceived(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch invites")
	}
	return c.JSON(fiber.Map{"invites": invites})
}

func (h *InviteHandler) ListMatches(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	matches, err := h.inviteService.ListMatches(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch matches")
	}
	return c.JSON(fiber.Map{"matches": matches})
}
