package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxMessageLength   = 1000
	defaultMessagePage = 50
	maxMessagePage     = 200
)

// ChatService stores messages between matched users.
type ChatService struct {
	db         *gorm.DB
	moderation *ModerationService
	notifier   Notifier
}

func NewChatService(db *gorm.DB, moderation *ModerationService, notifier Notifier) *ChatService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ChatService{db: db, moderation: moderation, notifier: notifier}
}

// SendMessage stores content from actorID in matchID. Banned words are masked
// rather than rejected.
func (s *ChatService) SendMessage(ctx context.Context, actorID, matchID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message too long (max %d characters)", ErrInvalidInput, MaxMessageLength)
	}

	db := s.db.WithContext(ctx)
	if _, err := s.participantMatch(db, actorID, matchID); err != nil {
		return nil, err
	}

	masked, filtered := s.moderation.MaskContent(content)
	if filtered {
		metrics.MessagesTotal.WithLabelValues("filtered").Inc()
	}

	msg := &models.Message{MatchID: matchID, SenderID: actorID, Content: masked}
	if err := db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues("sent").Inc()

	s.notifier.MessageCreated(ctx, msg)
	return msg, nil
}

// List returns up to limit messages of matchID older than before (when set),
// oldest first.
func (s *ChatService) List(ctx context.Context, actorID, matchID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}

	db := s.db.WithContext(ctx)
	if _, err := s.participantMatch(db, actorID, matchID); err != nil {
		return nil, err
	}

	q := db.Where("match_id = ?", matchID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var msgs []models.Message
	if err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Conversation is a match with its most recent message, if any.
type Conversation struct {
	MatchView
	LastMessage  *models.Message `json:"last_message,omitempty"`
	LastActivity time.Time       `json:"last_activity"`
}

// Conversations returns userID's matches ordered by most recent activity.
func (s *ChatService) Conversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	db := s.db.WithContext(ctx)

	var matches []models.Match
	if err := db.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	views, err := matchViews(db, userID, matches)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return []Conversation{}, nil
	}

	ids := make([]uuid.UUID, len(views))
	for i, v := range views {
		ids[i] = v.Match.ID
	}
	var latest []models.Message
	if err := db.Raw(`SELECT * FROM messages m
		WHERE m.match_id IN ?
		AND m.created_at = (SELECT MAX(created_at) FROM messages WHERE match_id = m.match_id)`, ids).
		Scan(&latest).Error; err != nil {
		return nil, fmt.Errorf("failed to load last messages: %w", err)
	}
	lastByMatch := make(map[uuid.UUID]models.Message, len(latest))
	for _, m := range latest {
		lastByMatch[m.MatchID] = m
	}

	out := make([]Conversation, len(views))
	for i, v := range views {
		c := Conversation{MatchView: v, LastActivity: v.Match.CreatedAt}
		if m, ok := lastByMatch[v.Match.ID]; ok {
			c.LastMessage = &m
			c.LastActivity = m.CreatedAt
		}
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

func (s *ChatService) participantMatch(db *gorm.DB, actorID, matchID uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := db.Where("id = ?", matchID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if !m.HasUser(actorID) {
		slog.Warn("chat access denied", "user_id", actorID.String(), "match_id", matchID.String())
		return nil, ErrUnauthorized
	}
	return &m, nil
}
