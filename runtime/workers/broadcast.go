package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"context"
	"log/slog"
)

// Broadcast drains the dispatcher's event queue and fans each event out to
// every live connection in the registry, plus any permanent sinks (stats,
// projections). Presence is globally visible, so no scoping happens here.
//
// Delivery is best-effort with no ordering, durability, or retry
// guarantees. Broadcast is not a message broker.
type Broadcast struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   <-chan event.DomainEvent
	sinks    []contract.EventSink
}

func NewBroadcast(log *slog.Logger, registry contract.IRegistry, events <-chan event.DomainEvent) *Broadcast {
	return &Broadcast{log: log, registry: registry, events: events}
}

func (w *Broadcast) Add(sinks ...contract.EventSink) *Broadcast {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *Broadcast) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping broadcast")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event to every live sink. A failing sink is logged
// and skipped; it cannot block the others.
func (w *Broadcast) Fanout(ctx context.Context, evt event.DomainEvent) {
	for conn, sink := range w.registry.AllSinks() {
		if err := sink.Consume(ctx, evt); err != nil {
			w.log.Debug("Broadcast delivery failed", "connection", conn, "error", err)
		}
	}
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			w.log.Debug("Permanent sink rejected event", "error", err)
		}
	}
}
