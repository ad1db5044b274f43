package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Report struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID     uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ReportedUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"reported_user_id"`
	Reason         string    `gorm:"not null;size:500" json:"reason"`
	Status         string    `gorm:"not null;default:'pending';size:50;index" json:"status"` // pending, reviewed, actioned, dismissed
	AdminNote      string    `gorm:"size:1000" json:"admin_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Report) TableName() string {
	return "reports"
}
