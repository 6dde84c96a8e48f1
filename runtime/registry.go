package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"sync"
)

// Registry is the bidirectional index of live connections: identity to its
// set of connections, and connection back to its owning identity. It holds
// no business rules. Both indices are guarded by a single lock so no reader
// can observe them disagreeing.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[domain.Identity]map[domain.ConnectionID]contract.EventSink
	byConn     map[domain.ConnectionID]domain.Identity
}

func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[domain.Identity]map[domain.ConnectionID]contract.EventSink),
		byConn:     make(map[domain.ConnectionID]domain.Identity),
	}
}

// Register adds a connection to the identity's set. Registering an already
// known connection is a no-op. Never fails.
func (r *Registry) Register(identity domain.Identity, conn domain.ConnectionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.byConn[conn]; known {
		return
	}
	if _, ok := r.byIdentity[identity]; !ok {
		r.byIdentity[identity] = make(map[domain.ConnectionID]contract.EventSink)
	}
	r.byIdentity[identity][conn] = sink
	r.byConn[conn] = identity
}

// Unregister removes a connection, resolving its owner through the reverse
// index so disconnect events only need the connection handle. Unknown
// connections are ignored, which makes duplicate or late disconnects safe.
// It returns the owning identity when the connection was known.
func (r *Registry) Unregister(conn domain.ConnectionID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)

	if set, ok := r.byIdentity[identity]; ok {
		delete(set, conn)
		// No empty sets left behind, the map would otherwise grow forever.
		if len(set) == 0 {
			delete(r.byIdentity, identity)
		}
	}
	return identity, true
}

// LiveConnections returns a snapshot of the identity's connection handles.
func (r *Registry) LiveConnections(identity domain.Identity) []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byIdentity[identity]
	if !ok {
		return nil
	}
	conns := make([]domain.ConnectionID, 0, len(set))
	for id := range set {
		conns = append(conns, id)
	}
	return conns
}

func (r *Registry) ConnectionCount(identity domain.Identity) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity[identity])
}

// Sinks returns a snapshot of the identity's live sinks keyed by connection.
func (r *Registry) Sinks(identity domain.Identity) map[domain.ConnectionID]contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byIdentity[identity]
	if !ok {
		return nil
	}
	sinks := make(map[domain.ConnectionID]contract.EventSink, len(set))
	for id, sink := range set {
		sinks[id] = sink
	}
	return sinks
}

// AllSinks returns a snapshot of every live sink in the process, used for
// globally visible broadcasts such as presence changes.
func (r *Registry) AllSinks() map[domain.ConnectionID]contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make(map[domain.ConnectionID]contract.EventSink, len(r.byConn))
	for _, set := range r.byIdentity {
		for id, sink := range set {
			sinks[id] = sink
		}
	}
	return sinks
}
