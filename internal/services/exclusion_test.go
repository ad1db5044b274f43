package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
)

// interleavingCache runs beforeSet once, after a rebuild has read the store
// but before the rebuilt set is written back.
type interleavingCache struct {
	*cache.MemoryExclusionCache
	beforeSet func()
}

func (c *interleavingCache) Set(ctx context.Context, userID uuid.UUID, version int64, ids []uuid.UUID) {
	if f := c.beforeSet; f != nil {
		c.beforeSet = nil
		f()
	}
	c.MemoryExclusionCache.Set(ctx, userID, version, ids)
}

// ctxRecordingCache remembers the context error seen by Invalidate.
type ctxRecordingCache struct {
	*cache.MemoryExclusionCache
	invalidateErr error
	invalidated   bool
}

func (c *ctxRecordingCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	c.invalidated = true
	c.invalidateErr = ctx.Err()
	c.MemoryExclusionCache.Invalidate(ctx, userIDs...)
}

func TestExclusionBuilder_EmptyIsSelfOnly(t *testing.T) {
	env := newTestEnv(t)
	me := uuid.New()

	set, err := env.exclusion.Build(context.Background(), me)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(set) != 1 || !set.Contains(me) {
		t.Errorf("Build() = %v, want only self", set.IDs())
	}
}

func TestExclusionBuilder_UnionOfAllSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := uuid.New()

	invitedByMe := uuid.New()
	invitedMe := uuid.New()
	rejected := uuid.New()
	matched := uuid.New()
	skipped := uuid.New()
	blockedByMe := uuid.New()
	blockedMe := uuid.New()
	stranger := uuid.New()

	env.fx.CreateInvite(me, invitedByMe, models.InvitePending)
	env.fx.CreateInvite(invitedMe, me, models.InvitePending)
	env.fx.CreateInvite(me, rejected, models.InviteRejected)
	env.fx.CreateMatch(me, matched)
	env.fx.CreateSkip(me, skipped)
	env.fx.CreateBlock(me, blockedByMe)
	env.fx.CreateBlock(blockedMe, me)
	// Unrelated rows must not leak in.
	env.fx.CreateSkip(stranger, me)
	env.fx.CreateInvite(stranger, uuid.New(), models.InvitePending)

	set, err := env.exclusion.Build(ctx, me)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	for name, id := range map[string]uuid.UUID{
		"self":          me,
		"invited by me": invitedByMe,
		"invited me":    invitedMe,
		"rejected":      rejected,
		"matched":       matched,
		"skipped":       skipped,
		"blocked by me": blockedByMe,
		"blocked me":    blockedMe,
	} {
		if !set.Contains(id) {
			t.Errorf("exclusion set missing %s", name)
		}
	}
	if set.Contains(stranger) {
		t.Error("exclusion set contains a user who only skipped me")
	}
	if len(set) != 8 {
		t.Errorf("exclusion set has %d ids, want 8", len(set))
	}
}

func TestExclusionBuilder_CacheAndInvalidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me, other := uuid.New(), uuid.New()

	if _, err := env.exclusion.Build(ctx, me); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// Written behind the cache's back: still served from cache.
	env.fx.CreateSkip(me, other)
	set, _ := env.exclusion.Build(ctx, me)
	if set.Contains(other) {
		t.Fatal("expected cached set without the new skip")
	}

	env.exclusion.Invalidate(ctx, me)
	set, _ = env.exclusion.Build(ctx, me)
	if !set.Contains(other) {
		t.Error("rebuilt set is missing the skip after invalidation")
	}
}

func TestExclusionBuilder_NilCache(t *testing.T) {
	env := newTestEnv(t)
	b := NewExclusionBuilder(env.db, nil)
	me, other := uuid.New(), uuid.New()
	env.fx.CreateSkip(me, other)

	set, err := b.Build(context.Background(), me)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !set.Contains(other) {
		t.Error("expected skip in uncached set")
	}
	b.Invalidate(context.Background(), me)
}

func TestExclusionBuilder_SkipDuringRebuildIsNotLost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.fx.CreateProfile("Alex", models.GenderBoy)
	other := env.fx.CreateProfile("Bea", models.GenderGirl)

	c := &interleavingCache{MemoryExclusionCache: cache.NewMemoryExclusionCache(time.Minute)}
	b := NewExclusionBuilder(env.db, c)
	discovery := NewDiscoveryService(env.db, b, NewCandidateResolver(env.db), 0)

	c.beforeSet = func() {
		if err := discovery.RecordSkip(ctx, me.UserID, other.UserID); err != nil {
			t.Errorf("RecordSkip() error: %v", err)
		}
	}
	set, err := b.Build(ctx, me.UserID)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if set.Contains(other.UserID) {
		t.Fatal("first build already saw the skip; the interleaving did not happen")
	}

	set, err = b.Build(ctx, me.UserID)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !set.Contains(other.UserID) {
		t.Error("skip committed during a rebuild is missing from the next build")
	}
}

func TestExclusionBuilder_InvalidateIgnoresCancellation(t *testing.T) {
	env := newTestEnv(t)
	c := &ctxRecordingCache{MemoryExclusionCache: cache.NewMemoryExclusionCache(time.Minute)}
	b := NewExclusionBuilder(env.db, c)
	me := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Invalidate(ctx, me)

	if !c.invalidated {
		t.Fatal("Invalidate did not reach the cache")
	}
	if c.invalidateErr != nil {
		t.Errorf("cache saw a cancelled context: %v", c.invalidateErr)
	}
}
