package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
)

// Publisher is the interface Notifier needs from a NATS connection.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON envelope published on every subject.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notifier publishes committed invite, match and chat events. Failures are
// logged and counted, never returned.
type Notifier struct {
	pub Publisher
}

func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{pub: pub}
}

func (n *Notifier) InviteReceived(_ context.Context, inv *models.Invite) {
	n.publish(SubjectInviteReceived+"."+inv.ToUserID.String(), "invite_received", inv)
}

// MatchCreated notifies both participants.
func (n *Notifier) MatchCreated(_ context.Context, m *models.Match) {
	n.publish(SubjectMatchCreated+"."+m.User1ID.String(), "match_created", m)
	n.publish(SubjectMatchCreated+"."+m.User2ID.String(), "match_created", m)
}

func (n *Notifier) MessageCreated(_ context.Context, msg *models.Message) {
	n.publish(SubjectChat+"."+msg.MatchID.String(), "message_created", msg)
}

func (n *Notifier) publish(subject, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		slog.Error("failed to encode event", "action", eventType, "error", err)
		return
	}
	if err := n.pub.Publish(subject, payload); err != nil {
		metrics.NotificationsFailed.WithLabelValues(eventType).Inc()
		slog.Warn("failed to publish event", "action", eventType, "subject", subject, "error", err)
	}
}
