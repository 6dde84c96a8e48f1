package runtime

import (
	"chat-hub/domain"
	"sync"

	"github.com/google/uuid"
)

// SeenTracker maintains, per message, the set of identities that have
// acknowledged viewing it. Sets only grow; adding an identity twice is a
// no-op. The tracker is the live authority for "seen by all"; durable seen
// records are the store's concern and are kept in sync by the dispatcher.
type SeenTracker struct {
	mu      sync.Mutex
	seen    map[uuid.UUID]map[domain.Identity]struct{}
	groupOf map[uuid.UUID]domain.GroupID
	byGroup map[domain.GroupID][]uuid.UUID
}

func NewSeenTracker() *SeenTracker {
	return &SeenTracker{
		seen:    make(map[uuid.UUID]map[domain.Identity]struct{}),
		groupOf: make(map[uuid.UUID]domain.GroupID),
		byGroup: make(map[domain.GroupID][]uuid.UUID),
	}
}

// Track creates the seen record for a freshly routed message. Group
// messages are seeded with the sender. Group is empty for direct messages.
func (t *SeenTracker) Track(id uuid.UUID, group domain.GroupID, initial ...domain.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.track(id, group, initial...)
}

// MarkSeen idempotently adds identity to the message's seen set, creating
// the record if the message predates this process. It reports whether the
// identity was newly added so the caller can decide on a re-broadcast.
func (t *SeenTracker) MarkSeen(id uuid.UUID, identity domain.Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.seen[id]
	if !ok {
		t.track(id, "")
		set = t.seen[id]
	}
	if _, already := set[identity]; already {
		return false
	}
	set[identity] = struct{}{}
	return true
}

// MarkSeenBulk adds identity to every tracked message of the group it has
// not acknowledged yet, returning the IDs newly marked. Safe to call on
// every conversation open; already acknowledged messages are skipped.
func (t *SeenTracker) MarkSeenBulk(group domain.GroupID, identity domain.Identity) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var newly []uuid.UUID
	for _, id := range t.byGroup[group] {
		set := t.seen[id]
		if _, already := set[identity]; already {
			continue
		}
		set[identity] = struct{}{}
		newly = append(newly, id)
	}
	return newly
}

// Absorb records acknowledgments discovered outside the tracker, typically
// IDs the store marked during a bulk seen of persisted history. Messages
// unknown to the tracker are adopted into the group's index.
func (t *SeenTracker) Absorb(group domain.GroupID, identity domain.Identity, ids []uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if _, ok := t.seen[id]; !ok {
			t.track(id, group)
		}
		t.seen[id][identity] = struct{}{}
	}
}

// SeenBy returns a snapshot of the identities that acknowledged the message.
func (t *SeenTracker) SeenBy(id uuid.UUID) []domain.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.seen[id]
	out := make([]domain.Identity, 0, len(set))
	for identity := range set {
		out = append(out, identity)
	}
	return out
}

// GroupOf resolves the group a tracked message belongs to.
func (t *SeenTracker) GroupOf(id uuid.UUID) (domain.GroupID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groupOf[id]
	return group, ok && group != ""
}

// IsSeenByAll recomputes against the member list current at evaluation
// time: every supplied member must have acknowledged the message. A member
// removed from the group contributes to neither side of the comparison, so
// a departure can flip a message to seen-by-all but never spuriously block
// it forever.
func (t *SeenTracker) IsSeenByAll(id uuid.UUID, members []domain.Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.seen[id]
	for _, member := range members {
		if _, ok := set[member]; !ok {
			return false
		}
	}
	return true
}

func (t *SeenTracker) track(id uuid.UUID, group domain.GroupID, initial ...domain.Identity) {
	if _, ok := t.seen[id]; ok {
		return
	}
	set := make(map[domain.Identity]struct{}, len(initial))
	for _, identity := range initial {
		set[identity] = struct{}{}
	}
	t.seen[id] = set
	t.groupOf[id] = group
	if group != "" {
		t.byGroup[group] = append(t.byGroup[group], id)
	}
}
