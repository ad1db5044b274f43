package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Active invites (pending or accepted) are unique per ordered pair; see
// database.Migrate for the partial index.
func (s InviteStatus) Active() bool {
	return s == InvitePending || s == InviteAccepted
}

// Invite is a directional expression of interest.
type Invite struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID uuid.UUID    `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"to_user_id"`
	Status     InviteStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Invite) TableName() string {
	return "invites"
}
