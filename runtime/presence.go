package runtime

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"sync"
	"time"
)

// PresenceTracker owns the per-identity online/offline state machine.
// State is derived from registry occupancy: an identity is Online exactly
// while it holds at least one live connection, except after an explicit
// logout which forces Offline regardless of remaining connections.
//
// Absent identities are implicitly Offline with no lastSeen. Once an
// identity has been seen its record persists across reconnects.
type PresenceTracker struct {
	mu    sync.Mutex
	state map[domain.Identity]*domain.Presence
	clock func() time.Time // injectable for tests, nil means time.Now
}

func NewPresenceTracker(clock func() time.Time) *PresenceTracker {
	if clock == nil {
		clock = time.Now
	}
	return &PresenceTracker{
		state: make(map[domain.Identity]*domain.Presence),
		clock: clock,
	}
}

// ConnectionOpened applies the transition rule after a registration left
// the identity with count live connections. It reports a presence event
// only when the offline boundary was crossed: a second tab opening while
// the first is still connected emits nothing.
func (t *PresenceTracker) ConnectionOpened(identity domain.Identity, count int) (event.PresenceChanged, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.record(identity)
	if p.Online || count < 1 {
		return event.PresenceChanged{}, false
	}
	p.Online = true
	p.LastSeen = nil
	return t.changed(p), true
}

// ConnectionClosed applies the transition rule after an unregistration left
// the identity with count live connections. Closing any connection but the
// last emits nothing; closing the last sets lastSeen. An identity already
// forced Offline by logout crosses no boundary here, so late disconnects
// never produce a duplicate offline event.
func (t *PresenceTracker) ConnectionClosed(identity domain.Identity, count int) (event.PresenceChanged, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.record(identity)
	if !p.Online || count > 0 {
		return event.PresenceChanged{}, false
	}
	return t.goOffline(p), true
}

// ForceOffline handles explicit logout: the identity goes Offline even if
// other tabs remain connected. A no-op when already Offline.
func (t *PresenceTracker) ForceOffline(identity domain.Identity) (event.PresenceChanged, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.record(identity)
	if !p.Online {
		return event.PresenceChanged{}, false
	}
	return t.goOffline(p), true
}

// Snapshot reads the identity's presence. Unknown identities are implicitly
// Offline, never an error.
func (t *PresenceTracker) Snapshot(identity domain.Identity) domain.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.state[identity]; ok {
		return *p
	}
	return domain.Presence{Identity: identity}
}

func (t *PresenceTracker) record(identity domain.Identity) *domain.Presence {
	p, ok := t.state[identity]
	if !ok {
		p = &domain.Presence{Identity: identity}
		t.state[identity] = p
	}
	return p
}

func (t *PresenceTracker) goOffline(p *domain.Presence) event.PresenceChanged {
	now := t.clock().UTC()
	p.Online = false
	p.LastSeen = &now
	return t.changed(p)
}

func (t *PresenceTracker) changed(p *domain.Presence) event.PresenceChanged {
	return event.PresenceChanged{
		Identity: p.Identity,
		Online:   p.Online,
		LastSeen: p.LastSeen,
		At:       t.clock().UTC(),
	}
}
