package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/testutil"
)

func TestCandidateResolver_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := NewCandidateResolver(env.db)

	me := env.fx.CreateProfile("Alex", models.GenderBoy)
	girl1 := env.fx.CreateProfile("Bea", models.GenderGirl)
	girl2 := env.fx.CreateProfile("Cleo", models.GenderGirl)
	env.fx.CreateProfile("Dan", models.GenderBoy)
	env.fx.CreateProfile("Eve", models.GenderGirl, testutil.WithOrganization("Shelbyville High"))

	pool, err := r.Resolve(ctx, me, ExclusionSet{me.UserID: {}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("Resolve() returned %d profiles, want 2", len(pool))
	}
	for _, p := range pool {
		if p.Gender != models.GenderGirl || p.Organization != me.Organization {
			t.Errorf("ineligible profile %s in pool", p.DisplayName)
		}
	}

	pool, err = r.Resolve(ctx, me, ExclusionSet{me.UserID: {}, girl1.UserID: {}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(pool) != 1 || pool[0].UserID != girl2.UserID {
		t.Errorf("excluded profile still in pool: %v", pool)
	}
}

func TestCandidateResolver_EmptyPoolIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	me := env.fx.CreateProfile("Alex", models.GenderGirl)

	pool, err := NewCandidateResolver(env.db).Resolve(context.Background(), me, ExclusionSet{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(pool) != 0 {
		t.Errorf("Resolve() = %d profiles, want 0", len(pool))
	}
}
