// Package cache stores per-user exclusion sets so discovery does not rebuild
// them from five tables on every request. Two backends exist: Redis for
// multi-instance deployments and an in-process cache for single instances
// and tests.
//
// Redis layout:
//
//	Key:   excl:<user_id>
//	Value: SET of excluded user ids
//	TTL:   EXCLUSION_CACHE_TTL
//
//	Key:   exclver:<user_id>
//	Value: integer bumped by every invalidation
//	TTL:   24h, refreshed on bump
//
// A rebuilt set is written back only if the version still matches the one
// read before the rebuild, so a slow reader cannot resurrect a set that an
// invalidation already dropped.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for exclusion sets.
	KeyPrefix = "excl:"
	// VersionKeyPrefix is the Redis key prefix for set versions.
	VersionKeyPrefix = "exclver:"

	versionTTL = 24 * time.Hour
)

var errStaleVersion = errors.New("exclusion set invalidated during rebuild")

// RedisExclusionCache fails open: Redis errors are logged and reported as misses.
type RedisExclusionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisExclusionCache(client *redis.Client, ttl time.Duration) *RedisExclusionCache {
	return &RedisExclusionCache{client: client, ttl: ttl}
}

func key(userID uuid.UUID) string {
	return KeyPrefix + userID.String()
}

// Get returns the cached set and the version to pass to Set after a rebuild.
// A negative version means Redis could not be read and Set will be skipped.
func (c *RedisExclusionCache) Get(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, int64, bool) {
	var members *redis.StringSliceCmd
	var ver *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		members = pipe.SMembers(ctx, key(userID))
		ver = pipe.Get(ctx, versionKey(userID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("exclusion cache read failed", "user_id", userID.String(), "error", err)
		return nil, -1, false
	}

	version, err := ver.Int64()
	if errors.Is(err, redis.Nil) {
		version = 0
	} else if err != nil {
		slog.Warn("exclusion cache version corrupt", "user_id", userID.String(), "error", err)
		return nil, -1, false
	}

	if len(members.Val()) == 0 {
		return nil, version, false
	}
	ids := make([]uuid.UUID, 0, len(members.Val()))
	for _, m := range members.Val() {
		id, err := uuid.Parse(m)
		if err != nil {
			slog.Warn("exclusion cache entry corrupt", "user_id", userID.String(), "error", err)
			return nil, version, false
		}
		ids = append(ids, id)
	}
	return ids, version, true
}

// Set replaces the stored set unless the version moved since Get. An empty
// set is not stored since a missing key already means "rebuild".
func (c *RedisExclusionCache) Set(ctx context.Context, userID uuid.UUID, version int64, ids []uuid.UUID) {
	if len(ids) == 0 || version < 0 {
		return
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id.String()
	}
	k, vk := key(userID), versionKey(userID)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			pipe.SAdd(ctx, k, members...)
			pipe.Expire(ctx, k, c.ttl)
			return nil
		})
		return err
	}, vk)

	switch {
	case err == nil:
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		slog.Debug("exclusion cache write skipped", "user_id", userID.String(), "reason", "invalidated")
	default:
		slog.Warn("exclusion cache write failed", "user_id", userID.String(), "error", err)
	}
}

// Invalidate drops the sets and bumps their versions in one transaction.
func (c *RedisExclusionCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Del(ctx, key(id))
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), versionTTL)
		}
		return nil
	})
	if err != nil {
		slog.Warn("exclusion cache invalidation failed", "error", err)
	}
}

// Ping reports whether Redis is reachable. Used by the health check.
func (c *RedisExclusionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
