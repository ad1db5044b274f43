package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Skip is append-only: once recorded, the skipped user is never offered again.
type Skip struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_skips_pair,priority:1" json:"user_id"`
	SkippedUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_skips_pair,priority:2" json:"skipped_user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Skip) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Skip) TableName() string {
	return "skipped_profiles"
}
