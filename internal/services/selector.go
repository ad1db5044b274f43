package services

import (
	"math/rand/v2"
	"sort"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
)

// RandomSource supplies uniform values in [0, 1). *rand.Rand satisfies it, so
// tests can pass a seeded generator.
type RandomSource interface {
	Float64() float64
}

// globalRand uses the concurrency-safe top-level generator.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// ScoredCandidate is an eligible profile with its preference weight.
type ScoredCandidate struct {
	Profile         models.Profile `json:"profile"`
	Weight          float64        `json:"weight"`
	SharedInterests []string       `json:"shared_interests"`
}

// ScoreCandidates weights every profile in pool.
func ScoreCandidates(pool []models.Profile, acting *models.Profile, prefs *models.Preferences) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(pool))
	for i := range pool {
		scored[i] = ScoredCandidate{
			Profile:         pool[i],
			Weight:          Weight(&pool[i], acting, prefs),
			SharedInterests: SharedInterests(acting.Interests, pool[i].Interests),
		}
	}
	return scored
}

// PickWeighted draws one candidate with probability proportional to its weight.
// It returns nil only for an empty list; if floating-point drift walks past the
// end, the last candidate is returned.
func PickWeighted(cands []ScoredCandidate, rnd RandomSource) *ScoredCandidate {
	if len(cands) == 0 {
		return nil
	}
	total := 0.0
	for _, c := range cands {
		total += c.Weight
	}
	r := rnd.Float64() * total

	running := 0.0
	for i := range cands {
		running += cands[i].Weight
		if running > r {
			return &cands[i]
		}
	}
	return &cands[len(cands)-1]
}

// SortByWeight returns a copy of cands ordered by descending weight, ties broken
// by ascending user id.
func SortByWeight(cands []ScoredCandidate) []ScoredCandidate {
	sorted := make([]ScoredCandidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight > sorted[j].Weight
		}
		return sorted[i].Profile.UserID.String() < sorted[j].Profile.UserID.String()
	})
	return sorted
}
