package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/messaging"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	logging.SetLevel(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	// Exclusion cache: Redis when configured and reachable, in-process otherwise
	var exclCache interface {
		services.ExclusionCache
		handlers.Pinger
	}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Warn("redis unavailable, using in-process exclusion cache", "addr", cfg.RedisAddr, "error", err)
			redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		exclCache = cache.NewRedisExclusionCache(redisClient, cfg.ExclusionCacheTTL)
		slog.Info("exclusion cache using redis", "addr", cfg.RedisAddr)
	} else {
		exclCache = cache.NewMemoryExclusionCache(cfg.ExclusionCacheTTL)
	}

	// Realtime notifications
	var notifier services.Notifier = services.NopNotifier{}
	var natsClient *messaging.NATSClient
	if cfg.NATSURL != "" {
		nc, err := messaging.NewNATSClient(messaging.DefaultNATSConfig(cfg.NATSURL))
		if err != nil {
			slog.Warn("nats unavailable, realtime notifications disabled", "error", err)
		} else {
			natsClient = nc
			notifier = messaging.NewNotifier(nc)
		}
	}

	// Services
	exclusion := services.NewExclusionBuilder(database.DB, exclCache)
	quota := services.NewQuotaGuard(database.DB)
	moderationService := services.NewModerationService(database.DB, exclusion)
	profileService := services.NewProfileService(database.DB, moderationService)
	discoveryService := services.NewDiscoveryService(database.DB, exclusion, services.NewCandidateResolver(database.DB), cfg.StoreRetries)
	inviteService := services.NewInviteService(database.DB, quota, exclusion, notifier, cfg.StoreRetries)
	chatService := services.NewChatService(database.DB, moderationService, notifier)
	subscriptionService := services.NewSubscriptionService(database.DB)
	settingsService := services.NewSettingsService(database.DB)

	// Handlers
	var msgHealth handlers.ConnectionChecker
	if natsClient != nil {
		msgHealth = natsClient
	}
	h := routes.Handlers{
		Health:     handlers.NewHealthHandler(database.DB, exclCache, msgHealth),
		Profile:    handlers.NewProfileHandler(profileService, quota),
		Discovery:  handlers.NewDiscoveryHandler(discoveryService),
		Invite:     handlers.NewInviteHandler(inviteService),
		Chat:       handlers.NewChatHandler(chatService),
		Moderation: handlers.NewModerationHandler(moderationService),
		Settings:   handlers.NewSettingsHandler(settingsService),
		Webhook:    handlers.NewWebhookHandler(subscriptionService, cfg.RevenueCatWebhookAuth),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if natsClient != nil {
		natsClient.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Warn("redis close error", "error", err)
		}
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Warn("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "action", c.Method()+" "+c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
