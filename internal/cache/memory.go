package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryExclusionCache keeps exclusion sets in process memory with the same
// TTL and versioning semantics as the Redis backend.
type MemoryExclusionCache struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryExclusionCache(ttl time.Duration) *MemoryExclusionCache {
	return &MemoryExclusionCache{c: gocache.New(ttl, 2*ttl)}
}

func versionKey(userID uuid.UUID) string {
	return VersionKeyPrefix + userID.String()
}

// version must be called with mu held.
func (m *MemoryExclusionCache) version(userID uuid.UUID) int64 {
	if v, ok := m.c.Get(versionKey(userID)); ok {
		return v.(int64)
	}
	return 0
}

func (m *MemoryExclusionCache) Get(_ context.Context, userID uuid.UUID) ([]uuid.UUID, int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.version(userID)
	v, ok := m.c.Get(userID.String())
	if !ok {
		return nil, ver, false
	}
	ids := v.([]uuid.UUID)
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, ver, true
}

// Set stores ids only if no invalidation happened since the Get that
// returned version.
func (m *MemoryExclusionCache) Set(_ context.Context, userID uuid.UUID, version int64, ids []uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version != m.version(userID) {
		return
	}
	stored := make([]uuid.UUID, len(ids))
	copy(stored, ids)
	m.c.SetDefault(userID.String(), stored)
}

func (m *MemoryExclusionCache) Invalidate(_ context.Context, userIDs ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range userIDs {
		m.c.Delete(id.String())
		m.c.Set(versionKey(id), m.version(id)+1, versionTTL)
	}
}

func (m *MemoryExclusionCache) Ping(context.Context) error {
	return nil
}
