// Package domain contains core concepts of the chat system.
// This file defines identities and live connections.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Identity is the stable key representing one user account, independent of
// any particular connection. It is supplied by the authentication layer;
// this core never creates or destroys identities.
type Identity string

// ConnectionID identifies one live transport session (one browser tab,
// one device). Assigned by the transport layer, unique across the process.
type ConnectionID string

// Connection ties a transport session to its owning identity.
// A single identity may own any number of connections concurrently.
type Connection struct {
	ID        ConnectionID
	Identity  Identity
	CreatedAt time.Time
}
