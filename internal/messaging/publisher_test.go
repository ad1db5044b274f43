package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func TestNotifier_InviteReceived(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)
	inv := &models.Invite{ID: uuid.New(), FromUserID: uuid.New(), ToUserID: uuid.New(), Status: models.InvitePending}

	n.InviteReceived(context.Background(), inv)

	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	if want := SubjectInviteReceived + "." + inv.ToUserID.String(); pub.msgs[0].subject != want {
		t.Errorf("subject = %q, want %q", pub.msgs[0].subject, want)
	}

	var ev struct {
		Type string        `json:"type"`
		Data models.Invite `json:"data"`
	}
	if err := json.Unmarshal(pub.msgs[0].data, &ev); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if ev.Type != "invite_received" || ev.Data.ID != inv.ID {
		t.Errorf("event = %+v", ev)
	}
}

func TestNotifier_MatchCreatedNotifiesBoth(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)
	u1, u2 := models.CanonicalPair(uuid.New(), uuid.New())
	m := &models.Match{ID: uuid.New(), User1ID: u1, User2ID: u2}

	n.MatchCreated(context.Background(), m)

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
	got := map[string]bool{pub.msgs[0].subject: true, pub.msgs[1].subject: true}
	for _, id := range []uuid.UUID{u1, u2} {
		if !got[SubjectMatchCreated+"."+id.String()] {
			t.Errorf("no match event for %s", id)
		}
	}
}

func TestNotifier_MessageCreated(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)
	msg := &models.Message{ID: uuid.New(), MatchID: uuid.New(), SenderID: uuid.New(), Content: "hi"}

	n.MessageCreated(context.Background(), msg)

	if len(pub.msgs) != 1 || pub.msgs[0].subject != SubjectChat+"."+msg.MatchID.String() {
		t.Errorf("published %+v", pub.msgs)
	}
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	n := NewNotifier(pub)

	// Must not panic or block.
	n.InviteReceived(context.Background(), &models.Invite{ToUserID: uuid.New()})
	if len(pub.msgs) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.msgs))
	}
}
