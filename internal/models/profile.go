package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gender is the designated attribute used to partition the candidate pool.
// It has exactly two values, so Opposite is total.
type Gender string

const (
	GenderBoy  Gender = "boy"
	GenderGirl Gender = "girl"
)

func (g Gender) Valid() bool {
	return g == GenderBoy || g == GenderGirl
}

func (g Gender) Opposite() Gender {
	if g == GenderBoy {
		return GenderGirl
	}
	return GenderBoy
}

// CohortYear is the ordinal study year.
type CohortYear string

var ValidCohortYears = map[CohortYear]bool{
	"1st": true, "2nd": true, "3rd": true, "4th": true,
}

const MaxInterests = 5

// Profile is the one-per-user public card plus the invite quota counters.
// Gender and Organization never change after creation.
type Profile struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName     string                      `gorm:"size:100;not null" json:"display_name"`
	Gender          Gender                      `gorm:"size:10;not null;index:idx_profiles_pool,priority:2" json:"gender"`
	Organization    string                      `gorm:"size:255;not null;index:idx_profiles_pool,priority:1" json:"organization"`
	CohortYear      CohortYear                  `gorm:"size:10;not null" json:"cohort_year"`
	Track           string                      `gorm:"size:100;not null" json:"track"`
	BioPrompt       *string                     `gorm:"size:500" json:"bio_prompt,omitempty"`
	Interests       datatypes.JSONSlice[string] `json:"interests"`
	InviteQuotaUsed int                         `gorm:"not null;default:0" json:"-"`
	QuotaResetDate  time.Time                   `json:"-"`
	IsPrivileged    bool                        `gorm:"not null;default:false" json:"is_privileged"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Profile) TableName() string {
	return "profiles"
}

// Values for Preferences.PreferredCohort and Preferences.PreferredTrack.
const (
	PreferSame      = "same"
	PreferDifferent = "different"
	PreferAny       = "any"
)

// Preferences only bias candidate weights; they never filter anyone out.
type Preferences struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PreferredCohort string    `gorm:"size:10;not null;default:'any'" json:"preferred_cohort"` // same, any
	PreferredTrack  string    `gorm:"size:10;not null;default:'any'" json:"preferred_track"`  // same, different, any
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Preferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Preferences) TableName() string {
	return "user_preferences"
}
