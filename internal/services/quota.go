package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxDailyInvites is the outbound invite allowance per UTC day for
// non-privileged users.
const MaxDailyInvites = 5

// QuotaStatus is the quota as the UI shows it. Remaining is -1 for privileged users.
type QuotaStatus struct {
	Approved   bool      `json:"-"`
	Privileged bool      `json:"privileged"`
	Used       int       `json:"used"`
	Remaining  int       `json:"remaining"`
	Limit      int       `json:"limit"`
	ResetsOn   time.Time `json:"resets_on"`
}

// QuotaGuard owns Profile.InviteQuotaUsed and Profile.QuotaResetDate. Callers
// hold the profile row lock while calling Check and Consume.
type QuotaGuard struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQuotaGuard(db *gorm.DB) *QuotaGuard {
	return &QuotaGuard{db: db, now: time.Now}
}

// WithClock replaces the time source. Tests use it to cross day boundaries.
func (g *QuotaGuard) WithClock(now func() time.Time) *QuotaGuard {
	g.now = now
	return g
}

func (g *QuotaGuard) today() time.Time {
	return g.now().UTC().Truncate(24 * time.Hour)
}

// Check applies the lazy daily reset to p, persisting it through tx when it
// changes anything, and reports whether one more invite is allowed.
func (g *QuotaGuard) Check(tx *gorm.DB, p *models.Profile) (QuotaStatus, error) {
	today := g.today()
	if today.After(p.QuotaResetDate.UTC().Truncate(24 * time.Hour)) {
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"invite_quota_used": 0,
				"quota_reset_date":  today,
			}).Error; err != nil {
			return QuotaStatus{}, fmt.Errorf("reset quota: %w", err)
		}
		p.InviteQuotaUsed = 0
		p.QuotaResetDate = today
	}
	return g.status(p), nil
}

func (g *QuotaGuard) status(p *models.Profile) QuotaStatus {
	st := QuotaStatus{
		Privileged: p.IsPrivileged,
		Used:       p.InviteQuotaUsed,
		Limit:      MaxDailyInvites,
		ResetsOn:   p.QuotaResetDate.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1),
	}
	if p.IsPrivileged {
		st.Approved = true
		st.Remaining = -1
		return st
	}
	st.Remaining = MaxDailyInvites - p.InviteQuotaUsed
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	st.Approved = st.Remaining > 0
	return st
}

// Consume records one invite against p inside tx. Privileged profiles are not
// counted. The increment is conditional so the counter can never pass the limit.
func (g *QuotaGuard) Consume(tx *gorm.DB, p *models.Profile) error {
	if p.IsPrivileged {
		return nil
	}
	res := tx.Model(&models.Profile{}).
		Where("id = ? AND invite_quota_used < ?", p.ID, MaxDailyInvites).
		Update("invite_quota_used", gorm.Expr("invite_quota_used + 1"))
	if res.Error != nil {
		return fmt.Errorf("consume quota: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrQuotaExceeded
	}
	p.InviteQuotaUsed++
	return nil
}

// Status returns userID's quota after applying the lazy reset.
func (g *QuotaGuard) Status(ctx context.Context, userID uuid.UUID) (*QuotaStatus, error) {
	var st QuotaStatus
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, userID)
		if err != nil {
			return err
		}
		st, err = g.Check(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func findProfile(db *gorm.DB, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}
