package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryExclusionCache_RoundTrip(t *testing.T) {
	c := NewMemoryExclusionCache(time.Minute)
	ctx := context.Background()
	user := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	_, ver, ok := c.Get(ctx, user)
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, user, ver, ids)
	got, _, ok := c.Get(ctx, user)
	if !ok || len(got) != 2 || got[0] != ids[0] || got[1] != ids[1] {
		t.Fatalf("Get() = %v, %v; want %v", got, ok, ids)
	}

	// Mutating either side must not leak into the cache.
	ids[0] = uuid.Nil
	got[1] = uuid.Nil
	again, _, _ := c.Get(ctx, user)
	if again[0] == uuid.Nil || again[1] == uuid.Nil {
		t.Error("cached slice shares memory with caller")
	}
}

func TestMemoryExclusionCache_Invalidate(t *testing.T) {
	c := NewMemoryExclusionCache(time.Minute)
	ctx := context.Background()
	a, b, other := uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{a, b, other} {
		c.Set(ctx, id, 0, []uuid.UUID{id})
	}

	c.Invalidate(ctx, a, b)

	for _, id := range []uuid.UUID{a, b} {
		if _, _, ok := c.Get(ctx, id); ok {
			t.Errorf("entry %s survived invalidation", id)
		}
	}
	if _, _, ok := c.Get(ctx, other); !ok {
		t.Error("unrelated entry was invalidated")
	}
}

func TestMemoryExclusionCache_Expires(t *testing.T) {
	c := NewMemoryExclusionCache(20 * time.Millisecond)
	ctx := context.Background()
	user := uuid.New()

	c.Set(ctx, user, 0, []uuid.UUID{user})
	time.Sleep(40 * time.Millisecond)
	if _, _, ok := c.Get(ctx, user); ok {
		t.Error("entry still present after TTL")
	}
}

func TestMemoryExclusionCache_StaleWriteDropped(t *testing.T) {
	c := NewMemoryExclusionCache(time.Minute)
	ctx := context.Background()
	user, skipped := uuid.New(), uuid.New()

	// A reader misses and starts rebuilding from an old snapshot.
	_, ver, _ := c.Get(ctx, user)
	// Meanwhile a write commits and invalidates.
	c.Invalidate(ctx, user)
	// The reader finishes and tries to store the old set.
	c.Set(ctx, user, ver, []uuid.UUID{user})

	_, next, ok := c.Get(ctx, user)
	if ok {
		t.Fatal("stale set was stored after invalidation")
	}
	if next != ver+1 {
		t.Errorf("version = %d, want %d", next, ver+1)
	}

	c.Set(ctx, user, next, []uuid.UUID{user, skipped})
	got, _, ok := c.Get(ctx, user)
	if !ok || len(got) != 2 {
		t.Errorf("Get() after fresh rebuild = %v, %v; want 2 ids", got, ok)
	}
}
