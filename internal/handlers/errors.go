package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps service errors to HTTP responses. Anything unrecognised is
// logged and answered with 500 and fallback as the message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.QuotaExceededResponse{
			ErrorResponse: dto.ErrorResponse{
				Error: true, Code: "quota_exceeded", Message: "Daily invite limit reached. Try again tomorrow.",
			},
			Remaining: 0,
			Limit:     services.MaxDailyInvites,
		})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "forbidden", Message: "You are not allowed to do that",
		})
	case errors.Is(err, services.ErrIneligible):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "ineligible", Message: "You can only invite people shown in discovery",
		})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Code: "invalid_state", Message: "Invite has already been answered",
		})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Code: "not_found", Message: "Not found",
		})
	case errors.Is(err, services.ErrImmutableField),
		errors.Is(err, services.ErrAlreadyBlocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Code: "conflict", Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrSelfInvite),
		errors.Is(err, services.ErrSelfSkip),
		errors.Is(err, services.ErrSelfBlock),
		errors.Is(err, services.ErrSelfReport):
		return badRequest(c, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
	}

	slog.Error(fallback,
		"error", err,
		"action", c.Method()+" "+c.Route().Path,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"user_id", c.Locals("user_id"),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Code: "internal", Message: fallback,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "invalid_input", Message: message,
	})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, err := identity.GetUserID(c)
	return userID, err == nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Code: "unauthorized", Message: "Unauthorized",
	})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
