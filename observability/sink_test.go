package observability

import (
	"chat-hub/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsSink_Counts_Broadcasts_Only(t *testing.T) {
	req := require.New(t)
	stats := NewHubStats()
	sink := NewStatsSink(stats)

	// Given a presence flip and a seen ack flowing through the broadcast
	req.NoError(sink.Consume(context.Background(), event.PresenceChanged{Identity: "alice@example.com", Online: true}))
	req.NoError(sink.Consume(context.Background(), event.MessageSeen{By: "bob@example.com"}))

	// Then only the broadcast gauge moves. Presence and seen transitions
	// are counted at the dispatcher and must not be counted twice here.
	snap := stats.Snapshot()
	req.Equal(uint64(2), snap.EventsBroadcast)
	req.Zero(snap.PresenceTransitions)
	req.Zero(snap.SeenAcks)
}
