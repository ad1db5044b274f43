package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings returns all settings as a typed key/value map (public).
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.All(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch settings")
	}
	return c.JSON(settings)
}

// GetEvent returns the event countdown (public).
func (h *SettingsHandler) GetEvent(c *fiber.Ctx) error {
	status, err := h.settingsService.EventStatus(c.UserContext(), time.Now())
	if err != nil {
		return respondError(c, err, "Failed to fetch event")
	}
	return c.JSON(status)
}

// SetSetting creates or updates a key (admin only).
func (h *SettingsHandler) SetSetting(c *fiber.Ctx) error {
	key := c.Params("key")

	var req dto.UpsertSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	setting, err := h.settingsService.Set(c.UserContext(), key, &req)
	if err != nil {
		return respondError(c, err, "Failed to save setting")
	}
	return c.JSON(setting)
}

func (h *SettingsHandler) DeleteSetting(c *fiber.Ctx) error {
	if err := h.settingsService.Delete(c.UserContext(), c.Params("key")); err != nil {
		return respondError(c, err, "Failed to delete setting")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
