package services

import (
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
)

// Weight contributions. Every candidate starts at baseWeight, so the minimum is 1.
const (
	baseWeight           = 1.0
	sameCohortWeight     = 2.0
	sameTrackWeight      = 2.0
	differentTrackWeight = 1.0
	sharedInterestWeight = 1.5
)

// Weight scores candidate for the acting profile. Preferences may be nil; the
// shared-interest term applies either way.
func Weight(candidate, acting *models.Profile, prefs *models.Preferences) float64 {
	w := baseWeight

	if prefs != nil {
		if prefs.PreferredCohort == models.PreferSame && candidate.CohortYear == acting.CohortYear {
			w += sameCohortWeight
		}
		switch prefs.PreferredTrack {
		case models.PreferSame:
			if candidate.Track == acting.Track {
				w += sameTrackWeight
			}
		case models.PreferDifferent:
			if candidate.Track != acting.Track {
				w += differentTrackWeight
			}
		}
	}

	w += sharedInterestWeight * float64(len(SharedInterests(acting.Interests, candidate.Interests)))
	return w
}

// SharedInterests returns the set intersection of a and b in a's order.
func SharedInterests(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	var shared []string
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		shared = append(shared, s)
	}
	return shared
}
