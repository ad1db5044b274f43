package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
)

// Notifier receives events after the writes that produced them have committed.
// Delivery is best effort; implementations log failures instead of returning them.
type Notifier interface {
	InviteReceived(ctx context.Context, inv *models.Invite)
	MatchCreated(ctx context.Context, m *models.Match)
	MessageCreated(ctx context.Context, msg *models.Message)
}

// NopNotifier drops every event. Used when no realtime channel is configured.
type NopNotifier struct{}

func (NopNotifier) InviteReceived(context.Context, *models.Invite)   {}
func (NopNotifier) MatchCreated(context.Context, *models.Match)      {}
func (NopNotifier) MessageCreated(context.Context, *models.Message) {}
