package handlers

import (
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	quota          *services.QuotaGuard
}

func NewProfileHandler(profileService *services.ProfileService, quota *services.QuotaGuard) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, quota: quota}
}

// GetProfile returns the caller's profile and preferences.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.profileService.Get(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch profile")
	}
	prefs, err := h.profileService.GetPreferences(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch preferences")
	}

	return c.JSON(fiber.Map{
		"profile":     profile,
		"preferences": prefs,
	})
}

func (h *ProfileHandler) UpsertProfile(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.UpsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.Upsert(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err, "Failed to save profile")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) UpsertPreferences(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.UpsertPreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	prefs, err := h.profileService.UpsertPreferences(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err, "Failed to save preferences")
	}
	return c.JSON(prefs)
}

// GetQuota reports today's invite allowance.
func (h *ProfileHandler) GetQuota(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	status, err := h.quota.Status(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch quota")
	}
	return c.JSON(status)
}
