package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger is implemented by the exclusion cache backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionChecker is implemented by the NATS client.
type ConnectionChecker interface {
	Connected() bool
}

type HealthHandler struct {
	db        *gorm.DB
	cache     Pinger
	messaging ConnectionChecker
}

// NewHealthHandler accepts nil cache or messaging; they report "disabled".
func NewHealthHandler(db *gorm.DB, cache Pinger, messaging ConnectionChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, messaging: messaging}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
			status = "degraded"
		}
	}

	msgStatus := "disabled"
	if h.messaging != nil {
		msgStatus = "ok"
		if !h.messaging.Connected() {
			msgStatus = "disconnected"
			status = "degraded"
		}
	}

	code := fiber.StatusOK
	if dbStatus != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Cache:     cacheStatus,
		Messaging: msgStatus,
	})
}
