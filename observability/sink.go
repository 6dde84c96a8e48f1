package observability

import (
	"chat-hub/domain/event"
	"context"
)

// StatsSink counts the events flowing through the broadcast pipeline. It is
// registered as a permanent sink next to the live connections. Presence and
// seen transitions are counted at the dispatcher, where drops cannot skew
// them; this sink only measures what actually reached the broadcast fan-out.
type StatsSink struct {
	stats *HubStats
}

func NewStatsSink(stats *HubStats) *StatsSink {
	return &StatsSink{stats: stats}
}

func (s *StatsSink) Consume(_ context.Context, _ event.DomainEvent) error {
	s.stats.EventBroadcast()
	return nil
}
