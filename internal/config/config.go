package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"promdate_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Transient store errors are retried this many times for operations that
	// re-read their state on every attempt.
	StoreRetries int `env:"STORE_RETRIES" envDefault:"3"`

	// JWT (issued by the identity provider, verified here)
	JWTSecret string `env:"JWT_SECRET"`

	// Redis caches exclusion sets. Empty address falls back to an in-process cache.
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	ExclusionCacheTTL time.Duration `env:"EXCLUSION_CACHE_TTL" envDefault:"30s"`

	// NATS carries match/invite/chat notifications. Empty URL disables publishing.
	NATSURL string `env:"NATS_URL"`

	// Admin
	AdminUserIDs string `env:"ADMIN_USER_IDS"`
	AdminToken   string `env:"ADMIN_TOKEN"`

	// RevenueCat webhook shared secret (Authorization header)
	RevenueCatWebhookAuth string `env:"REVENUECAT_WEBHOOK_AUTH"`

	// Observability
	SentryDSN    string        `env:"SENTRY_DSN"`
	AppEnv       string        `env:"APP_ENV" envDefault:"development"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogRetention time.Duration `env:"LOG_RETENTION" envDefault:"720h"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// Requests per minute per client on /api; 0 disables the limiter.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
}

func Load() *Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		// Fields that parsed are still populated; the checks below cover the rest.
		slog.Warn("config: failed to parse environment", "error", err)
	}
	if cfg.ExclusionCacheTTL <= 0 {
		cfg.ExclusionCacheTTL = 30 * time.Second
	}
	if cfg.StoreRetries < 0 {
		cfg.StoreRetries = 0
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = 30 * 24 * time.Hour
	}
	return &cfg
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
