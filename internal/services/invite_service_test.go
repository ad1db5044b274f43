package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/testutil"
	"github.com/google/uuid"
)

func TestSubmitInvite_PendingThenMutualMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	res, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite(a→b) error: %v", err)
	}
	if res.IsMatch || res.Invite.Status != models.InvitePending {
		t.Fatalf("first invite = %+v, want pending without match", res)
	}
	if res.Quota == nil || res.Quota.Remaining != MaxDailyInvites-1 {
		t.Errorf("quota after first invite = %+v, want %d remaining", res.Quota, MaxDailyInvites-1)
	}

	res, err = env.invites.SubmitInvite(ctx, b.UserID, b.UserID, a.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite(b→a) error: %v", err)
	}
	if !res.IsMatch || res.Match == nil {
		t.Fatalf("reciprocal invite = %+v, want match", res)
	}
	if !res.Match.HasUser(a.UserID) || !res.Match.HasUser(b.UserID) {
		t.Errorf("match %+v does not involve both users", res.Match)
	}

	if n := env.fx.Count(&models.Match{}, ""); n != 1 {
		t.Errorf("matches = %d, want 1", n)
	}
	if n := env.fx.Count(&models.Invite{}, "status = ?", models.InviteAccepted); n != 2 {
		t.Errorf("accepted invites = %d, want 2", n)
	}
	if n := env.fx.Count(&models.Invite{}, "status = ?", models.InvitePending); n != 0 {
		t.Errorf("pending invites = %d, want 0", n)
	}

	if len(env.notifier.invites) != 1 || env.notifier.invites[0].ToUserID != b.UserID {
		t.Errorf("invite notifications = %+v, want one to b", env.notifier.invites)
	}
	if len(env.notifier.matches) != 1 {
		t.Errorf("match notifications = %d, want 1", len(env.notifier.matches))
	}
}

func TestSubmitInvite_RepeatIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	first, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite() error: %v", err)
	}
	second, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("repeated SubmitInvite() error: %v", err)
	}

	if second.Invite.ID != first.Invite.ID {
		t.Errorf("repeat returned invite %s, want %s", second.Invite.ID, first.Invite.ID)
	}
	if second.IsMatch {
		t.Error("repeat reported a match")
	}
	if n := env.fx.Count(&models.Invite{}, ""); n != 1 {
		t.Errorf("invites = %d, want 1", n)
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != 1 {
		t.Errorf("quota used = %d, want 1", used)
	}
	if len(env.notifier.invites) != 1 {
		t.Errorf("invite notifications = %d, want 1", len(env.notifier.invites))
	}
}

func TestSubmitInvite_RepeatAfterMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	if _, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.invites.SubmitInvite(ctx, b.UserID, b.UserID, a.UserID); err != nil {
		t.Fatal(err)
	}

	res, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite() after match error: %v", err)
	}
	if !res.IsMatch || res.Match == nil {
		t.Errorf("repeat after match = %+v, want existing match", res)
	}
	if n := env.fx.Count(&models.Match{}, ""); n != 1 {
		t.Errorf("matches = %d, want 1", n)
	}
	if len(env.notifier.matches) != 1 {
		t.Errorf("match notifications = %d, want 1", len(env.notifier.matches))
	}
}

func TestSubmitInvite_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	c := env.fx.CreateProfile("Cleo", models.GenderGirl)
	env.fx.CreateBlock(c.UserID, a.UserID)
	boy := env.fx.CreateProfile("Ben", models.GenderBoy)
	elsewhere := env.fx.CreateProfile("Dana", models.GenderGirl, testutil.WithOrganization("Shelbyville High"))

	tests := []struct {
		name    string
		actor   uuid.UUID
		from    uuid.UUID
		to      uuid.UUID
		wantErr error
	}{
		{"actor is not sender", b.UserID, a.UserID, b.UserID, ErrUnauthorized},
		{"self invite", a.UserID, a.UserID, a.UserID, ErrSelfInvite},
		{"unknown target", a.UserID, a.UserID, uuid.New(), ErrNotFound},
		{"blocked by target", a.UserID, a.UserID, c.UserID, ErrUnauthorized},
		{"same gender", a.UserID, a.UserID, boy.UserID, ErrIneligible},
		{"other organization", a.UserID, a.UserID, elsewhere.UserID, ErrIneligible},
		{"other organization inviting back", elsewhere.UserID, elsewhere.UserID, a.UserID, ErrIneligible},
		{"unknown sender", uuid.Nil, uuid.Nil, b.UserID, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.invites.SubmitInvite(ctx, tt.actor, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitInvite() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := env.fx.Count(&models.Invite{}, ""); n != 0 {
		t.Errorf("invites = %d, want 0", n)
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != 0 {
		t.Errorf("quota used = %d, want 0", used)
	}
}

func TestSubmitInvite_QuotaExceeded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy, testutil.WithQuota(MaxDailyInvites, today()))
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	_, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("SubmitInvite() error = %v, want ErrQuotaExceeded", err)
	}
	if n := env.fx.Count(&models.Invite{}, ""); n != 0 {
		t.Errorf("invites = %d, want 0", n)
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != MaxDailyInvites {
		t.Errorf("quota used = %d, want unchanged %d", used, MaxDailyInvites)
	}
}

func TestSubmitInvite_MatchDoesNotConsumeQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy, testutil.WithQuota(MaxDailyInvites-1, today()))
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	env.fx.CreateInvite(b.UserID, a.UserID, models.InvitePending)

	res, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite() error: %v", err)
	}
	if !res.IsMatch {
		t.Fatalf("reciprocal invite = %+v, want match", res)
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != MaxDailyInvites-1 {
		t.Errorf("quota used = %d, want unchanged %d", used, MaxDailyInvites-1)
	}
	if res.Quota == nil || res.Quota.Remaining != 1 {
		t.Errorf("quota = %+v, want 1 remaining", res.Quota)
	}

	// The untouched slot still admits a fresh invite.
	c := env.fx.CreateProfile("Cleo", models.GenderGirl)
	if _, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, c.UserID); err != nil {
		t.Errorf("invite after match error: %v", err)
	}
}

func TestSubmitInvite_FiveThenDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)

	for i := 0; i < MaxDailyInvites; i++ {
		g := env.fx.CreateProfile("Girl", models.GenderGirl)
		if _, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, g.UserID); err != nil {
			t.Fatalf("invite %d error: %v", i+1, err)
		}
	}
	extra := env.fx.CreateProfile("Extra", models.GenderGirl)
	if _, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, extra.UserID); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("sixth invite error = %v, want ErrQuotaExceeded", err)
	}
}

func TestSubmitInvite_PrivilegedUnlimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy, testutil.Privileged())

	for i := 0; i < MaxDailyInvites+2; i++ {
		g := env.fx.CreateProfile("Girl", models.GenderGirl)
		res, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, g.UserID)
		if err != nil {
			t.Fatalf("invite %d error: %v", i+1, err)
		}
		if !res.Quota.Privileged || res.Quota.Remaining != -1 {
			t.Errorf("quota = %+v, want privileged", res.Quota)
		}
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != 0 {
		t.Errorf("privileged quota used = %d, want 0", used)
	}
}

func TestSubmitInvite_ReinviteAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	env.fx.CreateInvite(a.UserID, b.UserID, models.InviteRejected)

	res, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
	if err != nil {
		t.Fatalf("SubmitInvite() error: %v", err)
	}
	if res.Invite.Status != models.InvitePending {
		t.Errorf("status = %s, want pending", res.Invite.Status)
	}
	if n := env.fx.Count(&models.Invite{}, "from_user_id = ?", a.UserID); n != 2 {
		t.Errorf("invites from a = %d, want 2", n)
	}
}

// The SQLite test database serializes these calls on one connection, so this
// checks the outcome of interleaved calls. TestSubmitInvite_ParallelMutualInvitesPostgres
// covers truly parallel transactions.
func TestSubmitInvite_ConcurrentMutualInvites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	var wg sync.WaitGroup
	results := make([]*InviteResult, 2)
	errs := make([]error, 2)
	pairs := [][2]uuid.UUID{{a.UserID, b.UserID}, {b.UserID, a.UserID}}
	for i, p := range pairs {
		wg.Add(1)
		go func(i int, from, to uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = env.invites.SubmitInvite(ctx, from, from, to)
		}(i, p[0], p[1])
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("SubmitInvite #%d error: %v", i, err)
		}
	}
	matched := 0
	for _, r := range results {
		if r.IsMatch {
			matched++
		}
	}
	if matched != 1 {
		t.Errorf("isMatch reported by %d callers, want exactly 1 (the second to commit)", matched)
	}
	if n := env.fx.Count(&models.Match{}, ""); n != 1 {
		t.Errorf("matches = %d, want 1", n)
	}
	if n := env.fx.Count(&models.Invite{}, "status = ?", models.InviteAccepted); n != 2 {
		t.Errorf("accepted invites = %d, want 2", n)
	}
}

func TestSubmitInvite_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.invites.SubmitInvite(ctx, a.UserID, a.UserID, b.UserID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("SubmitInvite() error: %v", err)
		}
	}
	if got := env.fx.Count(&models.Invite{}, ""); got != 1 {
		t.Errorf("invites = %d, want 1", got)
	}
	if used := env.fx.ReloadProfile(a.UserID).InviteQuotaUsed; used != 1 {
		t.Errorf("quota used = %d, want 1", used)
	}
}

func TestRespondToInvite_Accept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl, testutil.WithQuota(MaxDailyInvites, today()))
	inv := env.fx.CreateInvite(a.UserID, b.UserID, models.InvitePending)

	res, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionAccept)
	if err != nil {
		t.Fatalf("RespondToInvite() error: %v", err)
	}
	if !res.IsMatch || res.Match == nil {
		t.Fatalf("accept = %+v, want match", res)
	}
	if n := env.fx.Count(&models.Invite{}, "status = ?", models.InviteAccepted); n != 2 {
		t.Errorf("accepted invites = %d, want 2", n)
	}
	if used := env.fx.ReloadProfile(b.UserID).InviteQuotaUsed; used != MaxDailyInvites {
		t.Errorf("accepting consumed quota: used = %d", used)
	}
	if len(env.notifier.matches) != 1 {
		t.Errorf("match notifications = %d, want 1", len(env.notifier.matches))
	}

	// Accepting again reports the existing match without a second one.
	again, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionAccept)
	if err != nil {
		t.Fatalf("second accept error: %v", err)
	}
	if !again.IsMatch || again.Match == nil || again.Match.ID != res.Match.ID {
		t.Errorf("second accept = %+v, want existing match %s", again, res.Match.ID)
	}
	if len(env.notifier.matches) != 1 {
		t.Errorf("match notifications after repeat = %d, want 1", len(env.notifier.matches))
	}
	if _, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionReject); !errors.Is(err, ErrInvalidState) {
		t.Errorf("reject after accept error = %v, want ErrInvalidState", err)
	}
}

func TestRespondToInvite_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	inv := env.fx.CreateInvite(a.UserID, b.UserID, models.InvitePending)

	res, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionReject)
	if err != nil {
		t.Fatalf("RespondToInvite() error: %v", err)
	}
	if res.IsMatch || res.Invite.Status != models.InviteRejected {
		t.Errorf("reject = %+v, want rejected without match", res)
	}
	if n := env.fx.Count(&models.Match{}, ""); n != 0 {
		t.Errorf("matches = %d, want 0", n)
	}
	if _, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionAccept); !errors.Is(err, ErrInvalidState) {
		t.Errorf("accept after reject error = %v, want ErrInvalidState", err)
	}
}

func TestRespondToInvite_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	inv := env.fx.CreateInvite(a.UserID, b.UserID, models.InvitePending)

	if _, err := env.invites.RespondToInvite(ctx, a.UserID, inv.ID, DecisionAccept); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("sender responding error = %v, want ErrUnauthorized", err)
	}
	if _, err := env.invites.RespondToInvite(ctx, b.UserID, uuid.New(), DecisionAccept); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown invite error = %v, want ErrNotFound", err)
	}
	if _, err := env.invites.RespondToInvite(ctx, b.UserID, inv.ID, Decision("maybe")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad decision error = %v, want ErrInvalidInput", err)
	}
}

func TestRespondToInvite_ConcurrentWithReciprocalSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	inv := env.fx.CreateInvite(a.UserID, b.UserID, models.InvitePending)

	var wg sync.WaitGroup
	var respondRes, submitRes *InviteResult
	var respondErr, submitErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		respondRes, respondErr = env.invites.RespondToInvite(ctx, b.UserID, inv.ID, DecisionAccept)
	}()
	go func() {
		defer wg.Done()
		submitRes, submitErr = env.invites.SubmitInvite(ctx, b.UserID, b.UserID, a.UserID)
	}()
	wg.Wait()

	if submitErr != nil {
		t.Fatalf("SubmitInvite() error: %v", submitErr)
	}
	if respondErr != nil {
		t.Fatalf("RespondToInvite() error: %v", respondErr)
	}
	if !respondRes.IsMatch || respondRes.Match == nil {
		t.Errorf("RespondToInvite() = %+v, want match", respondRes)
	}
	if n := env.fx.Count(&models.Match{}, ""); n != 1 {
		t.Errorf("matches = %d, want 1", n)
	}
	if submitRes.Match != nil && respondRes.Match != nil && submitRes.Match.ID != respondRes.Match.ID {
		t.Errorf("callers saw different matches: %s vs %s", submitRes.Match.ID, respondRes.Match.ID)
	}
}

func TestListReceivedAndMatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.fx.CreateProfile("Alex", models.GenderBoy)
	b := env.fx.CreateProfile("Bea", models.GenderGirl)
	c := env.fx.CreateProfile("Carl", models.GenderBoy)

	env.fx.CreateInvite(a.UserID, b.UserID, models.InvitePending)
	env.fx.CreateInvite(c.UserID, b.UserID, models.InviteRejected)
	env.fx.CreateMatch(b.UserID, c.UserID)

	received, err := env.invites.ListReceived(ctx, b.UserID)
	if err != nil {
		t.Fatalf("ListReceived() error: %v", err)
	}
	if len(received) != 1 || received[0].From.UserID != a.UserID {
		t.Errorf("ListReceived() = %+v, want one invite from a", received)
	}

	matches, err := env.invites.ListMatches(ctx, b.UserID)
	if err != nil {
		t.Fatalf("ListMatches() error: %v", err)
	}
	if len(matches) != 1 || matches[0].Partner.UserID != c.UserID {
		t.Errorf("ListMatches() = %+v, want partner c", matches)
	}

	none, err := env.invites.ListMatches(ctx, a.UserID)
	if err != nil {
		t.Fatalf("ListMatches() error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListMatches(a) = %d, want 0", len(none))
	}
}
