// Package server declares the sentinel errors shared by the relay components.
package server

import "errors"

var (
	// ErrHandshakeFailed is returned for every rejected handshake. The cause is
	// only ever logged, never reported to the client.
	ErrHandshakeFailed = errors.New("chatrelay: handshake failed")

	ErrInvalidUsername = errors.New("chatrelay: invalid username")
	ErrUsernameTaken   = errors.New("chatrelay: username already in use")
	ErrConnClosed      = errors.New("chatrelay: connection closed")
	ErrMalformedEvent  = errors.New("chatrelay: malformed chat event")
	ErrHubShutdown     = errors.New("chatrelay: hub is shutting down")
)
