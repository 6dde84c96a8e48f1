package domain

import "github.com/google/uuid"

// Delivery is the outcome of one attempt against one live connection.
type Delivery struct {
	Connection ConnectionID
	Err        error
}

// TargetReport groups the delivery attempts for one recipient identity.
// A target with no deliveries had no live connections at routing time;
// that is not an error, the message stays visible through history.
type TargetReport struct {
	Identity   Identity
	Deliveries []Delivery
}

// Offline reports whether the target had zero live connections.
func (t TargetReport) Offline() bool { return len(t.Deliveries) == 0 }

// DeliveryReport aggregates the per-target outcomes of one fan-out.
// It exists for observability; correctness of "was this seen" belongs to
// the seen record, not to delivery success.
type DeliveryReport struct {
	MessageID uuid.UUID
	Targets   []TargetReport
}

// Delivered counts the attempts that reached a connection.
func (r DeliveryReport) Delivered() int {
	n := 0
	for _, t := range r.Targets {
		for _, d := range t.Deliveries {
			if d.Err == nil {
				n++
			}
		}
	}
	return n
}

// Failed counts the attempts rejected at the transport level.
func (r DeliveryReport) Failed() int {
	n := 0
	for _, t := range r.Targets {
		for _, d := range t.Deliveries {
			if d.Err != nil {
				n++
			}
		}
	}
	return n
}

// OfflineTargets lists the identities that had no live connection.
func (r DeliveryReport) OfflineTargets() []Identity {
	var ids []Identity
	for _, t := range r.Targets {
		if t.Offline() {
			ids = append(ids, t.Identity)
		}
	}
	return ids
}
