package handlers

import (
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DiscoveryHandler struct {
	discoveryService *services.DiscoveryService
}

func NewDiscoveryHandler(discoveryService *services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

// Next returns one weighted-random candidate. An exhausted pool is a normal
// 200 with exhausted=true.
func (h *DiscoveryHandler) Next(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	cand, err := h.discoveryService.GetNextCandidate(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to find a candidate")
	}

	return c.JSON(fiber.Map{
		"candidate": cand,
		"exhausted": cand == nil,
	})
}

// All returns every eligible candidate, heaviest first.
func (h *DiscoveryHandler) All(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	cands, err := h.discoveryService.ListAllCandidates(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to list candidates")
	}
	if cands == nil {
		cands = []services.ScoredCandidate{}
	}

	return c.JSON(fiber.Map{
		"candidates": cands,
		"total":      len(cands),
	})
}

func (h *DiscoveryHandler) Skip(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.SkipRequest
	if err := c.BodyParser(&req); err != nil || req.SkippedUserID == uuid.Nil {
		return badRequest(c, "skipped_user_id is required")
	}

	if err := h.discoveryService.RecordSkip(c.UserContext(), userID, req.SkippedUserID); err != nil {
		return respondError(c, err, "Failed to record skip")
	}
	return c.JSON(fiber.Map{"skipped": true})
}
