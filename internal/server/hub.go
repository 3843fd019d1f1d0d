// Package server coordinates the shared relay state (registry, credentials,
// validator, broadcaster) and the lifetime of every session via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-metrics"
)

// Hub owns the state shared by all sessions and tracks running sessions so
// they can be drained on shutdown.
type Hub struct {
	cfg         Config
	registry    *Registry
	store       CredentialStore
	validator   *Validator
	broadcaster *Broadcaster
	logger      *slog.Logger
	msink       metrics.MetricSink

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub creates a Hub using store for credentials. A nil logger falls back
// to slog.Default and a nil sink discards metrics.
func NewHub(cfg Config, store CredentialStore, logger *slog.Logger, msink metrics.MetricSink) *Hub {
	cfg = cfg.Sanitize()
	if logger == nil {
		logger = slog.Default()
	}
	if msink == nil {
		msink = &metrics.BlackholeSink{}
	}

	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:         cfg,
		registry:    registry,
		store:       store,
		validator:   NewValidator(store, msink),
		broadcaster: NewBroadcaster(registry, cfg.WriteTimeout, logger, msink),
		logger:      logger,
		msink:       msink,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Config returns the sanitized configuration the hub runs with.
func (h *Hub) Config() Config {
	return h.cfg
}

// Registry returns the connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Credentials returns the credential store shared with registration.
func (h *Hub) Credentials() CredentialStore {
	return h.store
}

// Logger returns the hub's logger.
func (h *Hub) Logger() *slog.Logger {
	return h.logger
}

// Serve runs a session for conn and blocks until it is closed. The session
// ends when ctx is done, when the hub shuts down, or when the client leaves.
// After Shutdown has started, conn is closed right away and ErrHubShutdown is
// returned.
func (h *Hub) Serve(ctx context.Context, conn Conn) error {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		h.msink.IncrCounter(MetricSessionRejectedCount, 1)
		_ = conn.Close(websocket.CloseGoingAway, "Server shutting down")
		return ErrHubShutdown
	}
	h.sessions.Add(1)
	h.mu.Unlock()
	defer h.sessions.Done()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(h.ctx, cancel)
	defer stop()

	newSession(h, conn).Run(sessionCtx)
	return nil
}

func (h *Hub) reportActive() {
	h.msink.SetGauge(MetricSessionActive, float32(h.registry.Len()))
}

// Shutdown cancels every session and waits for them to drain. It returns
// context.DeadlineExceeded if sessions are still running after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown...", "clients", h.registry.Len())

	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.cancel()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}
