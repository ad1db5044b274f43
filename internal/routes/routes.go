package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health     *handlers.HealthHandler
	Profile    *handlers.ProfileHandler
	Discovery  *handlers.DiscoveryHandler
	Invite     *handlers.InviteHandler
	Chat       *handlers.ChatHandler
	Moderation *handlers.ModerationHandler
	Settings   *handlers.SettingsHandler
	Webhook    *handlers.WebhookHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	// General API rate limiter, per IP
	if cfg.RateLimitPerMinute > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:               cfg.RateLimitPerMinute,
			Expiration:        1 * time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		}))
	}

	// Public
	api.Get("/health", h.Health.Check)
	api.Get("/settings", h.Settings.GetSettings)
	api.Get("/event", h.Settings.GetEvent)

	// Webhooks authenticate with a shared secret, not a JWT
	api.Post("/webhooks/revenuecat", h.Webhook.HandleRevenueCat)

	// Admin (admin token or JWT of a listed admin)
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/reports", h.Moderation.ListReports)
	admin.Put("/reports/:id", h.Moderation.ActionReport)
	admin.Put("/settings/:key", h.Settings.SetSetting)
	admin.Delete("/settings/:key", h.Settings.DeleteSetting)

	// Protected routes (JWT required) - middleware applied per route so it
	// never runs for the public and admin endpoints above
	jwt := middleware.JWTProtected(cfg)

	api.Get("/profile", jwt, h.Profile.GetProfile)
	api.Put("/profile", jwt, h.Profile.UpsertProfile)
	api.Put("/preferences", jwt, h.Profile.UpsertPreferences)
	api.Get("/quota", jwt, h.Profile.GetQuota)

	api.Get("/discover/next", jwt, h.Discovery.Next)
	api.Get("/discover/all", jwt, h.Discovery.All)
	api.Post("/discover/skip", jwt, h.Discovery.Skip)

	api.Post("/invites", jwt, h.Invite.Submit)
	api.Get("/invites/received", jwt, h.Invite.ListReceived)
	api.Post("/invites/:id/respond", jwt, h.Invite.Respond)
	api.Get("/matches", jwt, h.Invite.ListMatches)

	api.Get("/chats", jwt, h.Chat.Conversations)
	api.Get("/matches/:id/messages", jwt, h.Chat.ListMessages)
	api.Post("/matches/:id/messages", jwt, h.Chat.SendMessage)

	api.Post("/reports", jwt, h.Moderation.CreateReport)
	api.Get("/blocks", jwt, h.Moderation.ListBlocked)
	api.Post("/blocks", jwt, h.Moderation.BlockUser)
	api.Delete("/blocks/:id", jwt, h.Moderation.UnblockUser)
}
