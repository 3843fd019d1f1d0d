// Package server implements a single-room WebSocket chat relay.
//
// Clients register a username over HTTP and receive a one-time secret. They
// then open a WebSocket and send `username:secret` as their first message.
// A successful handshake rotates the secret, registers the connection and
// announces the user; every text message that follows is broadcast as JSON to
// all connected clients, and the user is announced as gone when the
// connection ends.
//
// The implementation is organized into specialized files for configuration,
// credentials, the handshake, the connection registry, the broadcaster,
// sessions, the hub, transports, routing, and HTTP handlers.
package server
