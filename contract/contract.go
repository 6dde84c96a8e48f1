//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

// EventSink is the delivery side of one live connection. Consume must not
// block indefinitely: a slow connection may drop events, it must never
// stall the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need for
// manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IRegistry is the concurrent bidirectional index of live connections.
// Register and Unregister are atomic with respect to ConnectionCount: no
// caller may observe the forward and reverse indices disagreeing.
type IRegistry interface {
	Register(identity domain.Identity, conn domain.ConnectionID, sink EventSink)
	Unregister(conn domain.ConnectionID) (domain.Identity, bool)
	LiveConnections(identity domain.Identity) []domain.ConnectionID
	ConnectionCount(identity domain.Identity) int
	Sinks(identity domain.Identity) map[domain.ConnectionID]EventSink
	AllSinks() map[domain.ConnectionID]EventSink
}

// IMembershipProvider resolves a group's current member list. Callers must
// re-resolve at dispatch time; the core never caches membership.
type IMembershipProvider interface {
	Members(ctx context.Context, id domain.GroupID) ([]domain.Identity, error)
}

// IMessageStore is the durable persistence collaborator. The router never
// mutates stored records; the dispatcher persists before routing and keeps
// the seen record in sync with the live tracker.
type IMessageStore interface {
	StoreMessage(conversation string, msg domain.StoredMessage) error
	Messages(conversation string, cursor *string) ([]domain.StoredMessage, *string, error)
	AddSeen(messageID uuid.UUID, identity domain.Identity) error
	// MarkConversationSeen adds identity to the seen record of every message
	// of the conversation not already acknowledged by it, returning the IDs
	// newly marked. Safe to call repeatedly.
	MarkConversationSeen(conversation string, identity domain.Identity) ([]uuid.UUID, error)
}
