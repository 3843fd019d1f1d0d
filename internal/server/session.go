// Package server runs the per-connection session: handshake, registration,
// receive loop and unconditional cleanup.
package server

import (
	"context"
	"log/slog"
	"sync/atomic"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-metrics"
)

// SessionState is a step of the connection lifecycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateDraining
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns one connection from accept to close. It is the only writer of
// the close frame and the only component that registers and deregisters the
// connection.
type Session struct {
	hub      *Hub
	conn     Conn
	id       ConnID
	username string
	state    atomic.Int32
	limiter  *rateLimiter
	logger   *slog.Logger
}

func newSession(h *Hub, conn Conn) *Session {
	return &Session{
		hub:     h,
		conn:    conn,
		limiter: newRateLimiter(h.cfg.RateLimit),
		logger:  h.logger.With(LabelAddr.L(conn.RemoteAddr())),
	}
}

// State reports where the session is in its lifecycle.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Username is empty until the handshake succeeds.
func (s *Session) Username() string {
	return s.username
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Run drives the session to completion. It returns once the connection is
// closed; cancelling ctx ends the receive loop and goes through the same
// draining path as a client disconnect.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	if !s.authenticate(ctx) {
		return
	}

	s.activate(ctx)
	defer s.drain(ctx)

	s.receive(ctx)
}

func (s *Session) authenticate(ctx context.Context) bool {
	s.setState(StateAuthenticating)

	hctx, cancel := context.WithTimeout(ctx, s.hub.cfg.HandshakeTimeout)
	defer cancel()

	frame, err := s.conn.ReadMessage(hctx)
	if err != nil {
		reason, _ := readErrorReason(err)
		s.logger.Debug("Handshake not received", LabelReason.L(reason), LabelError.L(err))
		return false
	}
	if frame.Type != TextFrame || !utf8.Valid(frame.Data) {
		s.logger.Debug("Handshake rejected", LabelReason.L("not a text frame"))
		return false
	}

	username, err := s.hub.validator.Validate(string(frame.Data))
	if err != nil {
		s.logger.Info("Handshake rejected", LabelError.L(err))
		return false
	}

	s.username = username
	s.logger = s.logger.With(LabelUsername.L(username))
	return true
}

func (s *Session) activate(ctx context.Context) {
	s.id = s.hub.registry.Register(s.conn)
	s.logger = s.logger.With(LabelConnID.L(s.id))
	s.setState(StateActive)
	s.hub.reportActive()

	s.logger.Info("Client joined", "clients", s.hub.registry.Len())
	s.hub.broadcaster.Broadcast(context.WithoutCancel(ctx), Joined(s.username))
}

func (s *Session) receive(ctx context.Context) {
	for {
		frame, err := s.conn.ReadMessage(ctx)
		if err != nil {
			reason, unexpected := readErrorReason(err)
			if unexpected {
				s.logger.Warn("Receive loop stopped", LabelReason.L(reason), LabelError.L(err))
			} else {
				s.logger.Debug("Receive loop stopped", LabelReason.L(reason))
			}
			return
		}

		if !s.accept(frame) {
			continue
		}

		// A received message is delivered even if ctx is cancelled meanwhile.
		s.hub.broadcaster.Broadcast(context.WithoutCancel(ctx), Message(s.username, string(frame.Data)))
	}
}

// accept reports whether frame should be broadcast. Rejected frames are
// no-ops, not errors.
func (s *Session) accept(frame Frame) bool {
	var reason string
	switch {
	case frame.Type != TextFrame:
		reason = "non-text frame"
	case !utf8.Valid(frame.Data):
		reason = "invalid utf-8"
	case len(frame.Data) == 0:
		reason = "empty message"
	case !s.limiter.allow():
		reason = "rate limited"
		s.logger.Warn("Rate limit exceeded; discarding message",
			"burst", s.hub.cfg.RateLimit.Burst, "interval", s.hub.cfg.RateLimit.RefillInterval)
	default:
		return true
	}

	s.hub.msink.IncrCounterWithLabels(MetricFrameDroppedCount, 1, []metrics.Label{LabelReason.M(reason)})
	return false
}

// drain runs however the receive loop ended: Left is announced, then the
// registry slot and the credential entry are released.
func (s *Session) drain(ctx context.Context) {
	s.setState(StateDraining)

	s.hub.broadcaster.Broadcast(context.WithoutCancel(ctx), Left(s.username))
	s.hub.registry.Deregister(s.id)
	s.hub.store.TryRemove(s.username)
	s.hub.reportActive()

	s.logger.Info("Client left", "clients", s.hub.registry.Len())
}

func (s *Session) close() {
	s.setState(StateClosed)
	if err := s.conn.Close(websocket.CloseNormalClosure, "Closing"); err != nil {
		s.logger.Debug("Error closing connection", LabelError.L(err))
	}
}
