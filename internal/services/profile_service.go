package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileService struct {
	db         *gorm.DB
	moderation *ModerationService
}

func NewProfileService(db *gorm.DB, moderation *ModerationService) *ProfileService {
	return &ProfileService{db: db, moderation: moderation}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return findProfile(s.db.WithContext(ctx), userID)
}

// GetPreferences returns nil, nil when none were saved.
func (s *ProfileService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	return findPreferences(s.db.WithContext(ctx), userID)
}

// Upsert creates the profile on first call. Later calls update the editable
// fields; gender and organization must be omitted or unchanged.
func (s *ProfileService) Upsert(ctx context.Context, userID uuid.UUID, req *dto.UpsertProfileRequest) (*models.Profile, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: display_name must be 1-100 characters", ErrInvalidInput)
	}
	cohort := models.CohortYear(req.CohortYear)
	if !models.ValidCohortYears[cohort] {
		return nil, fmt.Errorf("%w: cohort_year must be 1st, 2nd, 3rd or 4th", ErrInvalidInput)
	}
	track := strings.TrimSpace(req.Track)
	if track == "" || len(track) > 100 {
		return nil, fmt.Errorf("%w: track must be 1-100 characters", ErrInvalidInput)
	}
	interests, err := NormalizeInterests(req.Interests)
	if err != nil {
		return nil, err
	}
	var bio *string
	if req.BioPrompt != nil {
		b := strings.TrimSpace(*req.BioPrompt)
		if len(b) > 500 {
			return nil, fmt.Errorf("%w: bio_prompt too long (max 500 characters)", ErrInvalidInput)
		}
		if b != "" {
			bio = &b
		}
	}
	for _, text := range []string{name, derefString(bio)} {
		if ok, reason := s.moderation.FilterContent(text); !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, s.moderation.GetRejectionMessage(reason))
		}
	}

	var out *models.Profile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockProfile(tx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if existing == nil {
			gender := models.Gender(req.Gender)
			if !gender.Valid() {
				return fmt.Errorf("%w: gender must be boy or girl", ErrInvalidInput)
			}
			org := strings.TrimSpace(req.Organization)
			if org == "" || len(org) > 255 {
				return fmt.Errorf("%w: organization must be 1-255 characters", ErrInvalidInput)
			}
			p := &models.Profile{
				UserID:       userID,
				DisplayName:  name,
				Gender:       gender,
				Organization: org,
				CohortYear:   cohort,
				Track:        track,
				BioPrompt:    bio,
				Interests:    interests,
			}
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
			out = p
			return nil
		}

		if req.Gender != "" && models.Gender(req.Gender) != existing.Gender {
			return ErrImmutableField
		}
		if org := strings.TrimSpace(req.Organization); org != "" && org != existing.Organization {
			return ErrImmutableField
		}
		if err := tx.Model(existing).Updates(map[string]interface{}{
			"display_name": name,
			"cohort_year":  cohort,
			"track":        track,
			"bio_prompt":   bio,
			"interests":    datatypes.JSONSlice[string](interests),
		}).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		existing.DisplayName = name
		existing.CohortYear = cohort
		existing.Track = track
		existing.BioPrompt = bio
		existing.Interests = interests
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProfileService) UpsertPreferences(ctx context.Context, userID uuid.UUID, req *dto.UpsertPreferencesRequest) (*models.Preferences, error) {
	cohort := req.PreferredCohort
	if cohort == "" {
		cohort = models.PreferAny
	}
	if cohort != models.PreferSame && cohort != models.PreferAny {
		return nil, fmt.Errorf("%w: preferred_cohort must be same or any", ErrInvalidInput)
	}
	track := req.PreferredTrack
	if track == "" {
		track = models.PreferAny
	}
	if track != models.PreferSame && track != models.PreferDifferent && track != models.PreferAny {
		return nil, fmt.Errorf("%w: preferred_track must be same, different or any", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	if _, err := findProfile(db, userID); err != nil {
		return nil, err
	}

	prefs := models.Preferences{UserID: userID, PreferredCohort: cohort, PreferredTrack: track}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"preferred_cohort", "preferred_track", "updated_at"}),
	}).Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return findPreferences(db, userID)
}

// NormalizeInterests trims, lower-cases and de-duplicates interests, keeping
// first-seen order, and enforces the size limit.
func NormalizeInterests(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) > models.MaxInterests {
		return nil, fmt.Errorf("%w: at most %d interests", ErrInvalidInput, models.MaxInterests)
	}
	return out, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
