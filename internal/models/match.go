package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Match is the symmetric record created once both users invited each other.
// User1ID always sorts before User2ID.
type Match struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	User1ID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:1" json:"user1_id"`
	User2ID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:2;index" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Match) TableName() string {
	return "matches"
}

func (m *Match) HasUser(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) OtherUser(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case m.User1ID:
		return m.User2ID, true
	case m.User2ID:
		return m.User1ID, true
	}
	return uuid.Nil, false
}

// CanonicalPair orders two ids by their string form, smaller first.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if b.String() < a.String() {
		return b, a
	}
	return a, b
}

// PairLock is a per-pair row locked by every invite/match transaction so that
// writes for one unordered pair are serialized without a global lock.
type PairLock struct {
	User1ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	User2ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func (PairLock) TableName() string {
	return "pair_locks"
}
