// Package event defines the domain events the hub emits toward live
// connections.
package event

import (
	"chat-hub/domain"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventName() string
}

// PresenceChanged is broadcast to every live connection whenever an
// identity crosses the online/offline boundary. Presence is globally
// visible, so this event is never scoped to a conversation.
type PresenceChanged struct {
	Identity domain.Identity `json:"identity"`
	Online   bool            `json:"online"`
	LastSeen *time.Time      `json:"last_seen,omitempty"`
	At       time.Time       `json:"at"`
}

func (PresenceChanged) EventName() string { return "presenceChanged" }

// MessageDelivered carries a routed message to the live connections of its
// recipients. Group is empty for direct messages.
type MessageDelivered struct {
	Message domain.Message `json:"message"`
	Group   domain.GroupID `json:"group,omitempty"`
}

func (MessageDelivered) EventName() string { return "messageDelivered" }

// MessageSeen notifies a group that one member newly acknowledged a
// message. It is not emitted for repeated acknowledgments.
type MessageSeen struct {
	MessageID uuid.UUID       `json:"message_id"`
	Group     domain.GroupID  `json:"group,omitempty"`
	By        domain.Identity `json:"by"`
	SeenByAll bool            `json:"seen_by_all"`
}

func (MessageSeen) EventName() string { return "messageSeen" }
