package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"log/slog"
	"time"
)

// Router resolves recipients to live connections and delivers, best-effort
// and independently per connection. It never mutates the stored message
// record; it is purely a broadcast mechanism over an already persisted
// message.
type Router struct {
	log      *slog.Logger
	registry contract.IRegistry
	// sinkTimeout bounds each delivery attempt so one slow connection
	// cannot stall fan-out to the rest of a group. Zero disables the bound.
	sinkTimeout time.Duration
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *Router {
	return &Router{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Route delivers msg to every live connection of each target identity.
// The sender is not re-delivered to itself. Targets without live
// connections are recorded as offline, not errors: the message is already
// durable and will surface on the next history fetch. A transport failure
// on one connection never aborts the remaining attempts.
func (r *Router) Route(ctx context.Context, msg domain.Message, group domain.GroupID, targets []domain.Identity) domain.DeliveryReport {
	evt := event.MessageDelivered{Message: msg, Group: group}
	report := domain.DeliveryReport{MessageID: msg.ID}

	for _, target := range targets {
		if target == msg.Sender {
			continue
		}
		report.Targets = append(report.Targets, r.deliver(ctx, target, evt))
	}
	return report
}

// Notify fans a non-message event (seen updates) out to the targets' live
// connections, the acknowledging identity included so its other tabs stay
// in sync.
func (r *Router) Notify(ctx context.Context, evt event.DomainEvent, targets []domain.Identity) {
	for _, target := range targets {
		r.deliver(ctx, target, evt)
	}
}

func (r *Router) deliver(ctx context.Context, target domain.Identity, evt event.DomainEvent) domain.TargetReport {
	tr := domain.TargetReport{Identity: target}

	for connID, sink := range r.registry.Sinks(target) {
		err := r.consume(ctx, sink, evt)
		if err != nil {
			r.log.Debug("Delivery attempt failed",
				"target", target, "connection", connID, "error", err)
		}
		tr.Deliveries = append(tr.Deliveries, domain.Delivery{Connection: connID, Err: err})
	}
	if tr.Offline() {
		r.log.Debug("Target has no live connection", "target", target)
	}
	return tr
}

func (r *Router) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) error {
	if r.sinkTimeout <= 0 {
		return sink.Consume(ctx, evt)
	}
	sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, evt)
}
