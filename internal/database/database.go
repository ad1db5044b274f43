package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Preferences{},
		&models.Invite{},
		&models.Match{},
		&models.PairLock{},
		&models.Skip{},
		&models.Block{},
		&models.Report{},
		&models.Message{},
		&models.Subscription{},
		&models.Setting{},
		&models.SystemLog{},
	}
}

// Indexes that struct tags cannot express. Both statements are valid on
// PostgreSQL and SQLite.
var rawIndexes = []string{
	// At most one active (pending or accepted) invite per ordered pair.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invites_active_pair
		ON invites (from_user_id, to_user_id)
		WHERE status IN ('pending', 'accepted')`,
	`CREATE INDEX IF NOT EXISTS idx_invites_to_pending
		ON invites (to_user_id, created_at)
		WHERE status = 'pending'`,
}

// Migrate creates or updates the schema on db.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
