// Package runtime hosts the presence and fan-out engine: connection
// bookkeeping, presence transitions, message routing, and seen tracking,
// driven by a single dispatcher.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/moderation"
	"chat-hub/observability"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher is the single entry point for transport-level events. Each
// event drives the registry, the presence tracker, the router, and the seen
// tracker synchronously and in that order, which keeps the shared-state
// boundary explicit. Presence events are queued on a buffered channel and
// broadcast to every live connection by the broadcast worker.
type Dispatcher struct {
	log *slog.Logger

	// connMu serializes connection lifecycle changes so the registry
	// mutation, the occupancy read, and the presence transition form one
	// atomic step. Without it a close of the last tab racing a reopen can
	// apply a stale zero count after the reopen's transition, leaving
	// presence Offline with a connection live.
	connMu sync.Mutex

	registry   contract.IRegistry
	presence   *PresenceTracker
	router     *Router
	seen       *SeenTracker
	membership contract.IMembershipProvider
	store      contract.IMessageStore
	moderator  *moderation.Moderator
	stats      *observability.HubStats
	events     chan event.DomainEvent
}

func NewDispatcher(
	log *slog.Logger,
	registry contract.IRegistry,
	presence *PresenceTracker,
	router *Router,
	seen *SeenTracker,
	membership contract.IMembershipProvider,
	store contract.IMessageStore,
	moderator *moderation.Moderator,
	stats *observability.HubStats,
	bufferSize int,
) *Dispatcher {
	return &Dispatcher{
		log:        log,
		registry:   registry,
		presence:   presence,
		router:     router,
		seen:       seen,
		membership: membership,
		store:      store,
		moderator:  moderator,
		stats:      stats,
		events:     make(chan event.DomainEvent, bufferSize),
	}
}

// Events exposes the queue drained by the broadcast worker.
func (d *Dispatcher) Events() <-chan event.DomainEvent { return d.events }

// ConnectionOpened registers a live connection and applies the presence
// transition rule. Only a crossing of the offline boundary queues a
// presence event.
func (d *Dispatcher) ConnectionOpened(identity domain.Identity, conn domain.ConnectionID, sink contract.EventSink) {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	d.registry.Register(identity, conn, sink)
	count := d.registry.ConnectionCount(identity)
	d.log.Debug("Connection opened", "identity", identity, "connection", conn, "tabs", count)

	if evt, changed := d.presence.ConnectionOpened(identity, count); changed {
		d.stats.PresenceTransition()
		d.publish(evt)
	}
}

// ConnectionClosed unregisters a connection. Unknown connections are
// ignored so duplicate or late disconnect events are harmless.
func (d *Dispatcher) ConnectionClosed(conn domain.ConnectionID) {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	identity, known := d.registry.Unregister(conn)
	if !known {
		return
	}
	count := d.registry.ConnectionCount(identity)
	d.log.Debug("Connection closed", "identity", identity, "connection", conn, "tabs", count)

	if evt, changed := d.presence.ConnectionClosed(identity, count); changed {
		d.stats.PresenceTransition()
		d.publish(evt)
	}
}

// Logout forces the identity Offline even while other tabs stay connected.
// The connections themselves remain registered and keep receiving events;
// a later disconnect of those tabs crosses no boundary and stays silent.
func (d *Dispatcher) Logout(identity domain.Identity) {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if evt, changed := d.presence.ForceOffline(identity); changed {
		d.log.Debug("Explicit logout", "identity", identity)
		d.stats.PresenceTransition()
		d.publish(evt)
	}
}

// Presence reads an identity's presence; unknown identities are Offline.
func (d *Dispatcher) Presence(identity domain.Identity) domain.Presence {
	return d.presence.Snapshot(identity)
}

// SendDirect persists the message and fans it out to the recipient's live
// connections. The send succeeds once persisted; live delivery stays
// best-effort and is only reported, never surfaced as a hard failure.
func (d *Dispatcher) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.Message, domain.DeliveryReport, error) {
	msg := d.buildMessage(cmd.Sender, cmd.Content, cmd.FileURL, cmd.FileName, cmd.CreatedAt)

	conversation := domain.DirectConversation(cmd.Sender, cmd.Recipient)
	stored := domain.StoredMessage{Message: msg, SeenBy: []domain.Identity{cmd.Sender}}
	if err := d.store.StoreMessage(conversation, stored); err != nil {
		return domain.Message{}, domain.DeliveryReport{}, err
	}
	d.seen.Track(msg.ID, "", cmd.Sender)

	report := d.router.Route(ctx, msg, "", []domain.Identity{cmd.Recipient})
	d.account(report)
	return msg, report, nil
}

// SendGroup resolves the group's current members through the membership
// collaborator, persists the message seeded with the sender's seen mark,
// and fans it out to every member but the sender.
func (d *Dispatcher) SendGroup(ctx context.Context, cmd domain.SendGroupCommand) (domain.Message, domain.DeliveryReport, error) {
	members, err := d.membership.Members(ctx, cmd.Group)
	if err != nil {
		return domain.Message{}, domain.DeliveryReport{}, err
	}

	msg := d.buildMessage(cmd.Sender, cmd.Content, cmd.FileURL, cmd.FileName, cmd.CreatedAt)

	stored := domain.StoredMessage{Message: msg, SeenBy: []domain.Identity{cmd.Sender}}
	if err := d.store.StoreMessage(domain.GroupConversation(cmd.Group), stored); err != nil {
		return domain.Message{}, domain.DeliveryReport{}, err
	}
	d.seen.Track(msg.ID, cmd.Group, cmd.Sender)

	report := d.router.Route(ctx, msg, cmd.Group, members)
	d.account(report)
	return msg, report, nil
}

// MarkSeen acknowledges one message, or every unacknowledged message of a
// group when the command is bulk. Repeated acknowledgments change nothing
// and notify nobody.
func (d *Dispatcher) MarkSeen(ctx context.Context, cmd domain.MarkSeenCommand) error {
	if cmd.Bulk() {
		return d.markGroupSeen(ctx, cmd.Group, cmd.Identity)
	}

	// The store is the durable record, so it is written first; the tracker
	// is only marked once the write landed. A store failure then leaves the
	// acknowledgment retryable instead of stranded in memory.
	if err := d.store.AddSeen(cmd.MessageID, cmd.Identity); err != nil {
		return err
	}
	if newly := d.seen.MarkSeen(cmd.MessageID, cmd.Identity); !newly {
		return nil
	}
	d.stats.SeenAck()

	group, ok := d.seen.GroupOf(cmd.MessageID)
	if !ok {
		return nil
	}
	members, err := d.membership.Members(ctx, group)
	if err != nil {
		return err
	}
	d.router.Notify(ctx, event.MessageSeen{
		MessageID: cmd.MessageID,
		Group:     group,
		By:        cmd.Identity,
		SeenByAll: d.seen.IsSeenByAll(cmd.MessageID, members),
	}, members)
	return nil
}

func (d *Dispatcher) markGroupSeen(ctx context.Context, group domain.GroupID, identity domain.Identity) error {
	// The store covers history from before this process started; the live
	// tracker is then brought in sync with whatever it marked.
	d.seen.MarkSeenBulk(group, identity)
	ids, err := d.store.MarkConversationSeen(domain.GroupConversation(group), identity)
	if err != nil {
		return err
	}
	d.seen.Absorb(group, identity, ids)
	if len(ids) == 0 {
		return nil
	}

	members, err := d.membership.Members(ctx, group)
	if err != nil {
		return err
	}
	for _, id := range ids {
		d.stats.SeenAck()
		d.router.Notify(ctx, event.MessageSeen{
			MessageID: id,
			Group:     group,
			By:        identity,
			SeenByAll: d.seen.IsSeenByAll(id, members),
		}, members)
	}
	return nil
}

func (d *Dispatcher) buildMessage(sender domain.Identity, content, fileURL, fileName string, createdAt time.Time) domain.Message {
	lang := ""
	if content != "" {
		lang = moderation.DetectLanguage(content)
		if d.moderator != nil {
			censored, found := d.moderator.Censor(content)
			if len(found) > 0 {
				d.log.Warn("Censored message content",
					"sender", sender, "lang", lang, "words", len(found))
			}
			content = censored
		}
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var kind domain.FileKind
	if fileName != "" {
		kind = domain.KindFromName(fileName)
	}
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   content,
		Lang:      lang,
		FileURL:   fileURL,
		FileName:  fileName,
		FileKind:  kind,
		CreatedAt: createdAt.UTC(),
	}
}

func (d *Dispatcher) account(report domain.DeliveryReport) {
	d.stats.MessageRouted(report.Delivered(), report.Failed(), len(report.OfflineTargets()))
}

// publish queues an event for the global broadcast worker. The queue is
// bounded; a full queue drops the event rather than blocking the caller.
func (d *Dispatcher) publish(evt event.DomainEvent) {
	select {
	case d.events <- evt:
	default:
		d.stats.EventDropped()
		d.log.Warn("Event queue full, dropping event", "event", evt.EventName())
	}
}
