package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExclusionSet holds every user id that must never be offered to its owner.
type ExclusionSet map[uuid.UUID]struct{}

func (s ExclusionSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s ExclusionSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

func (s ExclusionSet) add(ids ...uuid.UUID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// ExclusionCache stores built exclusion sets. Implementations treat backend
// failures as misses.
//
// Get also returns the entry's version. Set must drop the write when an
// Invalidate for that user ran after the Get that produced version, so a set
// built from a snapshot older than the latest write is never stored.
type ExclusionCache interface {
	Get(ctx context.Context, userID uuid.UUID) (ids []uuid.UUID, version int64, ok bool)
	Set(ctx context.Context, userID uuid.UUID, version int64, ids []uuid.UUID)
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

type ExclusionBuilder struct {
	db    *gorm.DB
	cache ExclusionCache
}

// NewExclusionBuilder accepts a nil cache, in which case every call hits the store.
func NewExclusionBuilder(db *gorm.DB, cache ExclusionCache) *ExclusionBuilder {
	return &ExclusionBuilder{db: db, cache: cache}
}

// Build returns self plus everyone userID has an invite with (either
// direction, any status), is matched with, has skipped, has blocked, or is
// blocked by.
func (b *ExclusionBuilder) Build(ctx context.Context, userID uuid.UUID) (ExclusionSet, error) {
	var version int64
	if b.cache != nil {
		ids, ver, ok := b.cache.Get(ctx, userID)
		if ok {
			metrics.ExclusionCacheLookups.WithLabelValues("hit").Inc()
			set := ExclusionSet{}
			set.add(ids...)
			set.add(userID)
			return set, nil
		}
		metrics.ExclusionCacheLookups.WithLabelValues("miss").Inc()
		version = ver
	}

	set, err := b.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Set(ctx, userID, version, set.IDs())
	}
	return set, nil
}

func (b *ExclusionBuilder) load(ctx context.Context, userID uuid.UUID) (ExclusionSet, error) {
	db := b.db.WithContext(ctx)
	set := ExclusionSet{}
	set.add(userID)

	var invites []models.Invite
	if err := db.Select("from_user_id", "to_user_id").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("load invites: %w", err)
	}
	for _, inv := range invites {
		set.add(inv.FromUserID, inv.ToUserID)
	}

	var matches []models.Match
	if err := db.Select("user1_id", "user2_id").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	for _, m := range matches {
		set.add(m.User1ID, m.User2ID)
	}

	var skipped []uuid.UUID
	if err := db.Model(&models.Skip{}).
		Where("user_id = ?", userID).
		Pluck("skipped_user_id", &skipped).Error; err != nil {
		return nil, fmt.Errorf("load skips: %w", err)
	}
	set.add(skipped...)

	var blocks []models.Block
	if err := db.Select("blocker_id", "blocked_id").
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	for _, bl := range blocks {
		set.add(bl.BlockerID, bl.BlockedID)
	}

	return set, nil
}

// Invalidate drops cached sets after any write that can change them. It runs
// after the write has committed, so it ignores cancellation of ctx.
func (b *ExclusionBuilder) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if b.cache != nil {
		b.cache.Invalidate(context.WithoutCancel(ctx), userIDs...)
	}
}
