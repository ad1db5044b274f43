package handlers

import (
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Conversations(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	convs, err := h.chatService.Conversations(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch conversations")
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// ListMessages pages backwards with ?before=<RFC3339>&limit=N.
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	matchID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid match ID")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return badRequest(c, "before must be an RFC3339 timestamp")
		}
		before = &t
	}

	msgs, err := h.chatService.List(c.UserContext(), userID, matchID, limit, before)
	if err != nil {
		return respondError(c, err, "Failed to fetch messages")
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	matchID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid match ID")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, err := h.chatService.SendMessage(c.UserContext(), userID, matchID, req.Content)
	if err != nil {
		return respondError(c, err, "Failed to send message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
