package runtime

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingSink captures consumed events; failWith makes every attempt fail.
type recordingSink struct {
	mu       sync.Mutex
	events   []event.DomainEvent
	failWith error
}

func (s *recordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func testMessage(sender domain.Identity) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
}

func TestRouter_Delivers_To_Every_Connection_Of_A_Target(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry, 0)

	tab1 := &recordingSink{}
	tab2 := &recordingSink{}
	registry.Register("bob@example.com", "conn-1", tab1)
	registry.Register("bob@example.com", "conn-2", tab2)

	// When a message routes toward bob
	msg := testMessage("alice@example.com")
	report := router.Route(context.Background(), msg, "", []domain.Identity{"bob@example.com"})

	// Then both tabs received it
	req.Equal(1, tab1.count())
	req.Equal(1, tab2.count())
	req.Equal(2, report.Delivered())
	req.Zero(report.Failed())
	req.Empty(report.OfflineTargets())
}

func TestRouter_Skips_The_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry, 0)

	aliceTab := &recordingSink{}
	bobTab := &recordingSink{}
	registry.Register("alice@example.com", "conn-a", aliceTab)
	registry.Register("bob@example.com", "conn-b", bobTab)

	// When the sender appears in its own target list
	msg := testMessage("alice@example.com")
	router.Route(context.Background(), msg, "g1",
		[]domain.Identity{"alice@example.com", "bob@example.com"})

	// Then the sender is not re-delivered to itself
	req.Zero(aliceTab.count())
	req.Equal(1, bobTab.count())
}

func TestRouter_Offline_Target_Is_Not_An_Error(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry, 0)

	// When routing toward an identity with no live connection
	msg := testMessage("alice@example.com")
	report := router.Route(context.Background(), msg, "", []domain.Identity{"bob@example.com"})

	// Then the target is reported offline, with zero failures
	req.Zero(report.Delivered())
	req.Zero(report.Failed())
	req.Equal([]domain.Identity{"bob@example.com"}, report.OfflineTargets())
}

func TestRouter_One_Failing_Connection_Does_Not_Abort_The_Rest(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry, 0)

	broken := &recordingSink{failWith: fmt.Errorf("connection reset")}
	healthy := &recordingSink{}
	registry.Register("bob@example.com", "conn-broken", broken)
	registry.Register("bob@example.com", "conn-healthy", healthy)
	carolTab := &recordingSink{}
	registry.Register("carol@example.com", "conn-carol", carolTab)

	// When one of bob's connections fails during a group fan-out
	msg := testMessage("alice@example.com")
	report := router.Route(context.Background(), msg, "g1",
		[]domain.Identity{"bob@example.com", "carol@example.com"})

	// Then the other attempts still went through
	req.Equal(1, healthy.count())
	req.Equal(1, carolTab.count())
	req.Equal(2, report.Delivered())
	req.Equal(1, report.Failed())
}

func TestRouter_Notify_Includes_The_Acker(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry, 0)

	bobTab := &recordingSink{}
	registry.Register("bob@example.com", "conn-b", bobTab)

	// When a seen update is notified with bob among the targets
	evt := event.MessageSeen{MessageID: uuid.New(), By: "bob@example.com"}
	router.Notify(context.Background(), evt, []domain.Identity{"bob@example.com"})

	// Then bob's own tabs receive it too
	req.Equal(1, bobTab.count())
	req.Equal(evt, bobTab.events[0])
}
