package domain

import (
	"time"

	"github.com/google/uuid"
)

// SendDirectCommand carries one message toward a single recipient.
type SendDirectCommand struct {
	Sender    Identity
	Recipient Identity
	Content   string
	FileURL   string
	FileName  string
	CreatedAt time.Time
}

// SendGroupCommand carries one message toward every current member of a
// group. The member list is resolved at dispatch time.
type SendGroupCommand struct {
	Sender    Identity
	Group     GroupID
	Content   string
	FileURL   string
	FileName  string
	CreatedAt time.Time
}

// MarkSeenCommand acknowledges either a single message (MessageID set) or,
// when Group is set instead, every message of that group the identity has
// not acknowledged yet.
type MarkSeenCommand struct {
	Identity  Identity
	MessageID uuid.UUID
	Group     GroupID
}

// Bulk reports whether the command targets a whole group conversation.
func (c MarkSeenCommand) Bulk() bool { return c.Group != "" }
