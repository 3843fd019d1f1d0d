package server

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 2 * time.Second

// fakeConn is an in-memory Conn. Frames pushed with sendText are returned by
// ReadMessage; closing inbound with hangUp simulates the peer going away.
type fakeConn struct {
	addr     string
	inbound  chan Frame
	written  chan []byte
	closedCh chan struct{}

	mu        sync.Mutex
	writeErr  error
	closed    bool
	closeCode int
	hungUp    bool
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{
		addr:     addr,
		inbound:  make(chan Frame, 16),
		written:  make(chan []byte, 64),
		closedCh: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-c.inbound:
		if !ok {
			return Frame{}, io.EOF
		}
		return f, nil
	case <-c.closedCh:
		return Frame{}, ErrConnClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (c *fakeConn) WriteText(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}
	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.written <- append([]byte(nil), data...):
	default:
	}
	return nil
}

func (c *fakeConn) Close(code int, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	close(c.closedCh)
	return nil
}

func (c *fakeConn) RemoteAddr() string {
	return c.addr
}

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) isClosed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode
}

func (c *fakeConn) sendText(text string) {
	c.inbound <- Frame{Type: TextFrame, Data: []byte(text)}
}

func (c *fakeConn) sendFrame(f Frame) {
	c.inbound <- f
}

func (c *fakeConn) hangUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hungUp {
		c.hungUp = true
		close(c.inbound)
	}
}

// nextEvent waits for the next payload written to c and decodes it.
func nextEvent(t *testing.T, c *fakeConn) Event {
	t.Helper()
	select {
	case data := <-c.written:
		evt, err := DecodeEvent(data)
		require.NoError(t, err)
		return evt
	case <-time.After(eventTimeout):
		t.Fatalf("no event written to %s", c.addr)
		return Event{}
	}
}

// expectNoEvent fails if anything is written to c within d.
func expectNoEvent(t *testing.T, c *fakeConn, d time.Duration) {
	t.Helper()
	select {
	case data := <-c.written:
		t.Fatalf("unexpected payload written to %s: %s", c.addr, data)
	case <-time.After(d):
	}
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WriteTimeout = time.Second
	cfg.HandshakeTimeout = time.Second
	return cfg
}

func newTestHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	hub := NewHub(cfg, NewMemoryCredentialStore(), testLogger(), nil)
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
	})
	return hub
}

// serveAsync runs a session for conn and returns a channel closed when it ends.
func serveAsync(ctx context.Context, hub *Hub, conn Conn) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- hub.Serve(ctx, conn)
		close(done)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(eventTimeout):
		t.Fatal("session did not end in time")
	}
}

func mustRegister(t *testing.T, store CredentialStore, username string) string {
	t.Helper()
	secret, err := RegisterUser(store, username)
	require.NoError(t, err)
	return secret
}
