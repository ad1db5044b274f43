package testutil

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultOrganization is used by CreateProfile unless overridden.
const DefaultOrganization = "Springfield High"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *gorm.DB
	t  *testing.T
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *gorm.DB {
	return f.db
}

// CreateProfile creates a profile in DefaultOrganization, 2nd year, track
// "science", with no interests. opts adjust it before insert.
func (f *Fixtures) CreateProfile(name string, gender models.Gender, opts ...func(*models.Profile)) *models.Profile {
	f.t.Helper()

	p := &models.Profile{
		UserID:         uuid.New(),
		DisplayName:    name,
		Gender:         gender,
		Organization:   DefaultOrganization,
		CohortYear:     "2nd",
		Track:          "science",
		Interests:      datatypes.JSONSlice[string]{},
		QuotaResetDate: time.Now().UTC().Truncate(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := f.db.Create(p).Error; err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

func WithOrganization(org string) func(*models.Profile) {
	return func(p *models.Profile) { p.Organization = org }
}

func WithCohort(c models.CohortYear) func(*models.Profile) {
	return func(p *models.Profile) { p.CohortYear = c }
}

func WithTrack(track string) func(*models.Profile) {
	return func(p *models.Profile) { p.Track = track }
}

func WithInterests(interests ...string) func(*models.Profile) {
	return func(p *models.Profile) { p.Interests = interests }
}

func WithQuota(used int, resetDate time.Time) func(*models.Profile) {
	return func(p *models.Profile) {
		p.InviteQuotaUsed = used
		p.QuotaResetDate = resetDate
	}
}

func Privileged() func(*models.Profile) {
	return func(p *models.Profile) { p.IsPrivileged = true }
}

func (f *Fixtures) SetPreferences(userID uuid.UUID, cohort, track string) *models.Preferences {
	f.t.Helper()

	prefs := &models.Preferences{UserID: userID, PreferredCohort: cohort, PreferredTrack: track}
	if err := f.db.Create(prefs).Error; err != nil {
		f.t.Fatalf("failed to create test preferences: %v", err)
	}
	return prefs
}

func (f *Fixtures) CreateInvite(from, to uuid.UUID, status models.InviteStatus) *models.Invite {
	f.t.Helper()

	inv := &models.Invite{FromUserID: from, ToUserID: to, Status: status}
	if err := f.db.Create(inv).Error; err != nil {
		f.t.Fatalf("failed to create test invite: %v", err)
	}
	return inv
}

func (f *Fixtures) CreateMatch(a, b uuid.UUID) *models.Match {
	f.t.Helper()

	u1, u2 := models.CanonicalPair(a, b)
	m := &models.Match{User1ID: u1, User2ID: u2}
	if err := f.db.Create(m).Error; err != nil {
		f.t.Fatalf("failed to create test match: %v", err)
	}
	return m
}

func (f *Fixtures) CreateSkip(userID, skippedID uuid.UUID) {
	f.t.Helper()

	if err := f.db.Create(&models.Skip{UserID: userID, SkippedUserID: skippedID}).Error; err != nil {
		f.t.Fatalf("failed to create test skip: %v", err)
	}
}

func (f *Fixtures) CreateBlock(blockerID, blockedID uuid.UUID) {
	f.t.Helper()

	if err := f.db.Create(&models.Block{BlockerID: blockerID, BlockedID: blockedID}).Error; err != nil {
		f.t.Fatalf("failed to create test block: %v", err)
	}
}

// ReloadProfile reads the profile back from the database.
func (f *Fixtures) ReloadProfile(userID uuid.UUID) *models.Profile {
	f.t.Helper()

	var p models.Profile
	if err := f.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		f.t.Fatalf("failed to reload profile: %v", err)
	}
	return &p
}

// Count returns the number of rows of model matching the optional condition.
func (f *Fixtures) Count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()

	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		f.t.Fatalf("failed to count: %v", err)
	}
	return n
}
