package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"gorm.io/gorm"
)

type CandidateResolver struct {
	db *gorm.DB
}

func NewCandidateResolver(db *gorm.DB) *CandidateResolver {
	return &CandidateResolver{db: db}
}

// Resolve returns profiles of the opposite gender in the same organization
// whose user id is not in excluded. An empty pool is not an error.
func (r *CandidateResolver) Resolve(ctx context.Context, acting *models.Profile, excluded ExclusionSet) ([]models.Profile, error) {
	q := r.db.WithContext(ctx).
		Where("gender = ? AND organization = ?", acting.Gender.Opposite(), acting.Organization)
	if ids := excluded.IDs(); len(ids) > 0 {
		q = q.Where("user_id NOT IN ?", ids)
	}

	var pool []models.Profile
	if err := q.Order("user_id").Find(&pool).Error; err != nil {
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}
	metrics.CandidatePoolSize.Observe(float64(len(pool)))
	return pool, nil
}
