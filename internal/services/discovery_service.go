package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiscoveryService picks candidates for a user and records skips.
type DiscoveryService struct {
	db       *gorm.DB
	excl     *ExclusionBuilder
	resolver *CandidateResolver
	rnd      RandomSource
	retries  int
}

func NewDiscoveryService(db *gorm.DB, excl *ExclusionBuilder, resolver *CandidateResolver, retries int) *DiscoveryService {
	return &DiscoveryService{
		db:       db,
		excl:     excl,
		resolver: resolver,
		rnd:      globalRand{},
		retries:  retries,
	}
}

// WithRandom replaces the randomness source used by GetNextCandidate.
func (s *DiscoveryService) WithRandom(rnd RandomSource) *DiscoveryService {
	s.rnd = rnd
	return s
}

// GetNextCandidate draws one eligible candidate weighted by preference score.
// A nil candidate with a nil error means the pool is exhausted.
func (s *DiscoveryService) GetNextCandidate(ctx context.Context, userID uuid.UUID) (*ScoredCandidate, error) {
	start := time.Now()
	scored, err := s.scored(ctx, userID)
	if err != nil {
		return nil, err
	}
	pick := PickWeighted(scored, s.rnd)
	metrics.OperationLatency.WithLabelValues("next_candidate").Observe(time.Since(start).Seconds())
	return pick, nil
}

// ListAllCandidates returns every eligible candidate, heaviest first.
func (s *DiscoveryService) ListAllCandidates(ctx context.Context, userID uuid.UUID) ([]ScoredCandidate, error) {
	scored, err := s.scored(ctx, userID)
	if err != nil {
		return nil, err
	}
	return SortByWeight(scored), nil
}

func (s *DiscoveryService) scored(ctx context.Context, userID uuid.UUID) ([]ScoredCandidate, error) {
	var scored []ScoredCandidate
	err := withRetry(ctx, s.retries, "discover", func() error {
		db := s.db.WithContext(ctx)
		acting, err := findProfile(db, userID)
		if err != nil {
			return err
		}
		prefs, err := findPreferences(db, userID)
		if err != nil {
			return err
		}
		excluded, err := s.excl.Build(ctx, userID)
		if err != nil {
			return err
		}
		pool, err := s.resolver.Resolve(ctx, acting, excluded)
		if err != nil {
			return err
		}
		scored = ScoreCandidates(pool, acting, prefs)
		return nil
	})
	return scored, err
}

// RecordSkip hides skippedID from userID permanently. Skipping twice is a no-op.
func (s *DiscoveryService) RecordSkip(ctx context.Context, userID, skippedID uuid.UUID) error {
	if userID == skippedID {
		return ErrSelfSkip
	}
	err := withRetry(ctx, s.retries, "record_skip", func() error {
		db := s.db.WithContext(ctx)
		if _, err := findProfile(db, skippedID); err != nil {
			return err
		}
		skip := models.Skip{UserID: userID, SkippedUserID: skippedID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&skip).Error; err != nil {
			return fmt.Errorf("record skip: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.excl.Invalidate(ctx, userID)
	return nil
}

// findPreferences returns nil when the user never saved preferences.
func findPreferences(db *gorm.DB, userID uuid.UUID) (*models.Preferences, error) {
	var prefs models.Preferences
	err := db.Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return &prefs, nil
}
