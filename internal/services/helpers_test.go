package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/testutil"
	"gorm.io/gorm"
)

// recordingNotifier keeps every event it receives.
type recordingNotifier struct {
	mu       sync.Mutex
	invites  []models.Invite
	matches  []models.Match
	messages []models.Message
}

func (n *recordingNotifier) InviteReceived(_ context.Context, inv *models.Invite) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invites = append(n.invites, *inv)
}

func (n *recordingNotifier) MatchCreated(_ context.Context, m *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, *m)
}

func (n *recordingNotifier) MessageCreated(_ context.Context, msg *models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, *msg)
}

type testEnv struct {
	db         *gorm.DB
	fx         *testutil.Fixtures
	notifier   *recordingNotifier
	exclusion  *ExclusionBuilder
	quota      *QuotaGuard
	invites    *InviteService
	discovery  *DiscoveryService
	moderation *ModerationService
	chat       *ChatService
	profiles   *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, testutil.NewDB(t))
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	n := &recordingNotifier{}
	excl := NewExclusionBuilder(db, cache.NewMemoryExclusionCache(time.Minute))
	quota := NewQuotaGuard(db)
	mod := NewModerationService(db, excl)
	return &testEnv{
		db:         db,
		fx:         testutil.NewFixtures(t, db),
		notifier:   n,
		exclusion:  excl,
		quota:      quota,
		invites:    NewInviteService(db, quota, excl, n, 2),
		discovery:  NewDiscoveryService(db, excl, NewCandidateResolver(db), 2),
		moderation: mod,
		chat:       NewChatService(db, mod, n),
		profiles:   NewProfileService(db, mod),
	}
}

// fixedRand always returns v.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }
