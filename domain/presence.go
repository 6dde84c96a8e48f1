package domain

import "time"

// Presence is derived state: Online holds exactly while the identity owns at
// least one live connection. LastSeen is set at the transition into Offline
// and cleared at the transition into Online. Nothing outside the tracker's
// transition rule may write these fields.
type Presence struct {
	Identity Identity   `json:"identity"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
