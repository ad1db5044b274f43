package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	expectedAuth        string
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, expectedAuth string) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		expectedAuth:        expectedAuth,
	}
}

// HandleRevenueCat checks the shared Authorization secret and applies the event.
func (h *WebhookHandler) HandleRevenueCat(c *fiber.Ctx) error {
	if h.expectedAuth == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Code: "not_found", Message: "Webhooks not configured",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.expectedAuth)) != 1 {
		return unauthorized(c)
	}

	var webhook dto.RevenueCatWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return badRequest(c, "Invalid webhook payload")
	}

	if err := h.subscriptionService.HandleWebhookEvent(c.UserContext(), &webhook.Event); err != nil {
		slog.Error("webhook processing failed", "action", webhook.Event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Code: "internal", Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "action", webhook.Event.Type)
	return c.JSON(fiber.Map{"received": true})
}
