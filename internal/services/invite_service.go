package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// InviteResult is returned by both state machine entry points. Match is set
// whenever IsMatch is true, whether the match was created by this call or
// already existed.
type InviteResult struct {
	IsMatch bool           `json:"is_match"`
	Match   *models.Match  `json:"match,omitempty"`
	Invite  *models.Invite `json:"invite,omitempty"`
	Quota   *QuotaStatus   `json:"quota,omitempty"`

	matchCreated  bool
	inviteCreated bool
}

type InviteService struct {
	db       *gorm.DB
	quota    *QuotaGuard
	excl     *ExclusionBuilder
	notifier Notifier
	retries  int
}

func NewInviteService(db *gorm.DB, quota *QuotaGuard, excl *ExclusionBuilder, notifier Notifier, retries int) *InviteService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &InviteService{db: db, quota: quota, excl: excl, notifier: notifier, retries: retries}
}

// SubmitInvite records that fromID wants to go with toID. If toID already has
// a pending invite to fromID the pair is matched in the same transaction.
// Repeating an invite that is still active returns the current state without
// consuming quota.
func (s *InviteService) SubmitInvite(ctx context.Context, actorID, fromID, toID uuid.UUID) (*InviteResult, error) {
	if actorID != fromID {
		return nil, ErrUnauthorized
	}
	if fromID == toID {
		return nil, ErrSelfInvite
	}
	start := time.Now()

	var res *InviteResult
	err := withRetry(ctx, s.retries, "submit_invite", func() error {
		var err error
		res, err = s.submit(ctx, fromID, toID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			metrics.InvitesTotal.WithLabelValues("quota_exceeded").Inc()
		}
		return nil, err
	}

	switch {
	case res.matchCreated:
		metrics.InvitesTotal.WithLabelValues("match").Inc()
	case res.inviteCreated:
		metrics.InvitesTotal.WithLabelValues("pending").Inc()
	default:
		metrics.InvitesTotal.WithLabelValues("duplicate").Inc()
	}
	metrics.OperationLatency.WithLabelValues("submit_invite").Observe(time.Since(start).Seconds())

	s.afterCommit(ctx, res, fromID, toID)
	return res, nil
}

func (s *InviteService) submit(ctx context.Context, fromID, toID uuid.UUID) (*InviteResult, error) {
	res := &InviteResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := findProfile(tx, toID)
		if err != nil {
			return err
		}
		sender, err := findProfile(tx, fromID)
		if err != nil {
			return err
		}
		if !eligiblePair(sender, target) {
			return ErrIneligible
		}
		blocked, err := isBlocked(tx, fromID, toID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrUnauthorized
		}

		if err := lockPair(tx, fromID, toID); err != nil {
			return err
		}

		existing, err := activeInvite(tx, fromID, toID)
		if err != nil {
			return err
		}
		if existing != nil {
			res.Invite = existing
			if existing.Status == models.InviteAccepted {
				m, err := findMatch(tx, fromID, toID)
				if err != nil {
					return err
				}
				res.IsMatch = m != nil
				res.Match = m
			}
			return nil
		}

		actor, err := lockProfile(tx, fromID)
		if err != nil {
			return err
		}
		st, err := s.quota.Check(tx, actor)
		if err != nil {
			return err
		}
		if !st.Approved {
			return ErrQuotaExceeded
		}

		reciprocal, err := activeInvite(tx, toID, fromID)
		if err != nil {
			return err
		}

		inv := &models.Invite{FromUserID: fromID, ToUserID: toID, Status: models.InvitePending}
		if reciprocal != nil {
			inv.Status = models.InviteAccepted
		}
		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("create invite: %w", err)
		}
		res.Invite = inv
		res.inviteCreated = true

		if reciprocal != nil {
			if reciprocal.Status == models.InvitePending {
				if err := acceptInvite(tx, reciprocal); err != nil {
					return err
				}
			}
			m, created, err := ensureMatch(tx, fromID, toID)
			if err != nil {
				return err
			}
			res.IsMatch = true
			res.Match = m
			res.matchCreated = created
		}

		// Completing a match is not a new outbound invite.
		if inv.Status == models.InvitePending {
			if err := s.quota.Consume(tx, actor); err != nil {
				return err
			}
		}
		st = s.quota.status(actor)
		res.Quota = &st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RespondToInvite lets the recipient of a pending invite accept or reject it.
// Accepting creates the match; rejecting is terminal for that invite row.
// Accepting an invite whose match already exists returns that match.
func (s *InviteService) RespondToInvite(ctx context.Context, actorID, inviteID uuid.UUID, decision Decision) (*InviteResult, error) {
	if !decision.Valid() {
		return nil, ErrInvalidInput
	}

	var res *InviteResult
	err := withRetry(ctx, s.retries, "respond_invite", func() error {
		var err error
		res, err = s.respond(ctx, actorID, inviteID, decision)
		return err
	})
	if err != nil {
		return nil, err
	}

	if decision == DecisionReject {
		metrics.InvitesTotal.WithLabelValues("rejected").Inc()
	} else {
		metrics.InvitesTotal.WithLabelValues("accepted").Inc()
	}
	s.afterCommit(ctx, res, res.Invite.FromUserID, res.Invite.ToUserID)
	return res, nil
}

func (s *InviteService) respond(ctx context.Context, actorID, inviteID uuid.UUID, decision Decision) (*InviteResult, error) {
	res := &InviteResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := findInvite(tx, inviteID)
		if err != nil {
			return err
		}
		if inv.ToUserID != actorID {
			return ErrUnauthorized
		}

		if err := lockPair(tx, inv.FromUserID, inv.ToUserID); err != nil {
			return err
		}
		// Re-read under the pair lock; a racing call may have resolved it.
		inv, err = findInvite(tx, inviteID)
		if err != nil {
			return err
		}
		res.Invite = inv
		if inv.Status != models.InvitePending {
			// A reciprocal invite may have completed the match first.
			if decision == DecisionAccept && inv.Status == models.InviteAccepted {
				m, err := findMatch(tx, inv.FromUserID, inv.ToUserID)
				if err != nil {
					return err
				}
				if m != nil {
					res.IsMatch = true
					res.Match = m
					return nil
				}
			}
			return ErrInvalidState
		}

		if decision == DecisionReject {
			upd := tx.Model(&models.Invite{}).
				Where("id = ? AND status = ?", inv.ID, models.InvitePending).
				Update("status", models.InviteRejected)
			if upd.Error != nil {
				return fmt.Errorf("reject invite: %w", upd.Error)
			}
			if upd.RowsAffected == 0 {
				return ErrInvalidState
			}
			inv.Status = models.InviteRejected
			return nil
		}

		if err := acceptInvite(tx, inv); err != nil {
			return err
		}

		back, err := activeInvite(tx, inv.ToUserID, inv.FromUserID)
		if err != nil {
			return err
		}
		switch {
		case back == nil:
			back = &models.Invite{FromUserID: inv.ToUserID, ToUserID: inv.FromUserID, Status: models.InviteAccepted}
			if err := tx.Create(back).Error; err != nil {
				return fmt.Errorf("create reverse invite: %w", err)
			}
		case back.Status == models.InvitePending:
			if err := acceptInvite(tx, back); err != nil {
				return err
			}
		}

		m, created, err := ensureMatch(tx, inv.FromUserID, inv.ToUserID)
		if err != nil {
			return err
		}
		res.IsMatch = true
		res.Match = m
		res.matchCreated = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *InviteService) afterCommit(ctx context.Context, res *InviteResult, a, b uuid.UUID) {
	s.excl.Invalidate(ctx, a, b)

	if res.matchCreated {
		metrics.MatchesTotal.Inc()
		slog.Info("match created",
			"match_id", res.Match.ID.String(),
			"user_id", a.String(),
			"action", "match_created",
		)
		s.notifier.MatchCreated(ctx, res.Match)
		return
	}
	if res.inviteCreated && res.Invite.Status == models.InvitePending {
		s.notifier.InviteReceived(ctx, res.Invite)
	}
}

// ReceivedInvite is a pending invite with the sender's public profile.
type ReceivedInvite struct {
	Invite models.Invite  `json:"invite"`
	From   models.Profile `json:"from"`
}

// ListReceived returns pending invites addressed to userID, newest first.
func (s *InviteService) ListReceived(ctx context.Context, userID uuid.UUID) ([]ReceivedInvite, error) {
	db := s.db.WithContext(ctx)

	var invites []models.Invite
	if err := db.Where("to_user_id = ? AND status = ?", userID, models.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("list received invites: %w", err)
	}

	senders := make([]uuid.UUID, len(invites))
	for i, inv := range invites {
		senders[i] = inv.FromUserID
	}
	profiles, err := profilesByUser(db, senders)
	if err != nil {
		return nil, err
	}

	out := make([]ReceivedInvite, 0, len(invites))
	for _, inv := range invites {
		p, ok := profiles[inv.FromUserID]
		if !ok {
			continue
		}
		out = append(out, ReceivedInvite{Invite: inv, From: p})
	}
	return out, nil
}

// MatchView is a match from one participant's point of view.
type MatchView struct {
	Match   models.Match   `json:"match"`
	Partner models.Profile `json:"partner"`
}

// ListMatches returns matches involving userID, newest first.
func (s *InviteService) ListMatches(ctx context.Context, userID uuid.UUID) ([]MatchView, error) {
	db := s.db.WithContext(ctx)

	var matches []models.Match
	if err := db.Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matchViews(db, userID, matches)
}

func matchViews(db *gorm.DB, userID uuid.UUID, matches []models.Match) ([]MatchView, error) {
	partners := make([]uuid.UUID, 0, len(matches))
	for i := range matches {
		other, _ := matches[i].OtherUser(userID)
		partners = append(partners, other)
	}
	profiles, err := profilesByUser(db, partners)
	if err != nil {
		return nil, err
	}

	out := make([]MatchView, 0, len(matches))
	for i := range matches {
		other, _ := matches[i].OtherUser(userID)
		p, ok := profiles[other]
		if !ok {
			continue
		}
		out = append(out, MatchView{Match: matches[i], Partner: p})
	}
	return out, nil
}

// --- transaction helpers ---

// lockPair serializes every invite and match write for the unordered pair.
func lockPair(tx *gorm.DB, a, b uuid.UUID) error {
	u1, u2 := models.CanonicalPair(a, b)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PairLock{User1ID: u1, User2ID: u2}).Error; err != nil {
		return fmt.Errorf("create pair lock: %w", err)
	}
	var lock models.PairLock
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		First(&lock).Error; err != nil {
		return fmt.Errorf("lock pair: %w", err)
	}
	return nil
}

func lockProfile(tx *gorm.DB, userID uuid.UUID) (*models.Profile, error) {
	return findProfile(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func activeInvite(tx *gorm.DB, fromID, toID uuid.UUID) (*models.Invite, error) {
	var inv models.Invite
	err := tx.Where("from_user_id = ? AND to_user_id = ? AND status IN ?",
		fromID, toID, []models.InviteStatus{models.InvitePending, models.InviteAccepted}).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}
	return &inv, nil
}

func findInvite(tx *gorm.DB, id uuid.UUID) (*models.Invite, error) {
	var inv models.Invite
	if err := tx.Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load invite: %w", err)
	}
	return &inv, nil
}

func acceptInvite(tx *gorm.DB, inv *models.Invite) error {
	res := tx.Model(&models.Invite{}).
		Where("id = ? AND status = ?", inv.ID, models.InvitePending).
		Update("status", models.InviteAccepted)
	if res.Error != nil {
		return fmt.Errorf("accept invite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	inv.Status = models.InviteAccepted
	return nil
}

// ensureMatch inserts the canonical match row unless it exists and returns the
// stored row. created is false when another transaction got there first.
func ensureMatch(tx *gorm.DB, a, b uuid.UUID) (*models.Match, bool, error) {
	u1, u2 := models.CanonicalPair(a, b)
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Match{User1ID: u1, User2ID: u2})
	if res.Error != nil {
		return nil, false, fmt.Errorf("create match: %w", res.Error)
	}
	m, err := findMatch(tx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		return nil, false, fmt.Errorf("match for %s/%s missing after insert", u1, u2)
	}
	return m, res.RowsAffected == 1, nil
}

func findMatch(tx *gorm.DB, a, b uuid.UUID) (*models.Match, error) {
	u1, u2 := models.CanonicalPair(a, b)
	var m models.Match
	err := tx.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	return &m, nil
}

// eligiblePair holds when b could appear in a's candidate pool: same
// organization and opposite gender.
func eligiblePair(a, b *models.Profile) bool {
	return a.Organization == b.Organization && b.Gender == a.Gender.Opposite()
}

func isBlocked(tx *gorm.DB, a, b uuid.UUID) (bool, error) {
	var n int64
	if err := tx.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return n > 0, nil
}

func profilesByUser(db *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	out := make(map[uuid.UUID]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := db.Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}
