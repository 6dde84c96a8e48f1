// Package observability aggregates hub counters for logs and the debug UI.
package observability

import (
	"runtime"
	"sync/atomic"
	"time"
)

// HubSnapshot is a point-in-time view of the hub counters, serialized as-is
// on the debug page.
type HubSnapshot struct {
	MessagesRouted      uint64 `json:"messages_routed"`
	Deliveries          uint64 `json:"deliveries"`
	DeliveryFailures    uint64 `json:"delivery_failures"`
	OfflineTargets      uint64 `json:"offline_targets"`
	PresenceTransitions uint64 `json:"presence_transitions"`
	SeenAcks            uint64 `json:"seen_acks"`
	EventsBroadcast     uint64 `json:"events_broadcast"`
	DroppedEvents       uint64 `json:"dropped_events"`
	LiveConnections     uint64 `json:"live_connections"`
	AllocMemMb          uint64 `json:"alloc_mem_mb"`
	NumGC               uint32 `json:"num_gc"`
	At                  string `json:"at"`
}

// HubStats collects fan-out and presence metrics with atomic counters so
// the hot delivery path never takes a lock for accounting.
type HubStats struct {
	messagesRouted      atomic.Uint64
	deliveries          atomic.Uint64
	deliveryFailures    atomic.Uint64
	offlineTargets      atomic.Uint64
	presenceTransitions atomic.Uint64
	seenAcks            atomic.Uint64
	eventsBroadcast     atomic.Uint64
	droppedEvents       atomic.Uint64
	liveConnections     atomic.Uint64
}

func NewHubStats() *HubStats { return &HubStats{} }

func (s *HubStats) MessageRouted(delivered, failed, offline int) {
	s.messagesRouted.Add(1)
	s.deliveries.Add(uint64(delivered))
	s.deliveryFailures.Add(uint64(failed))
	s.offlineTargets.Add(uint64(offline))
}

func (s *HubStats) PresenceTransition() { s.presenceTransitions.Add(1) }
func (s *HubStats) SeenAck()            { s.seenAcks.Add(1) }
func (s *HubStats) EventBroadcast()     { s.eventsBroadcast.Add(1) }
func (s *HubStats) EventDropped()       { s.droppedEvents.Add(1) }

// SetLiveConnections is a gauge refreshed by the stats worker.
func (s *HubStats) SetLiveConnections(n int) { s.liveConnections.Store(uint64(n)) }

func (s *HubStats) Snapshot() HubSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return HubSnapshot{
		MessagesRouted:      s.messagesRouted.Load(),
		Deliveries:          s.deliveries.Load(),
		DeliveryFailures:    s.deliveryFailures.Load(),
		OfflineTargets:      s.offlineTargets.Load(),
		PresenceTransitions: s.presenceTransitions.Load(),
		SeenAcks:            s.seenAcks.Load(),
		EventsBroadcast:     s.eventsBroadcast.Load(),
		DroppedEvents:       s.droppedEvents.Load(),
		LiveConnections:     s.liveConnections.Load(),
		AllocMemMb:          mem.Alloc / 1024 / 1024,
		NumGC:               mem.NumGC,
		At:                  time.Now().UTC().Format(time.RFC3339),
	}
}
