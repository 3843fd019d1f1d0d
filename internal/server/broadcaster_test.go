package server

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type panicConn struct{ *fakeConn }

func (panicConn) WriteText(context.Context, []byte) error {
	panic("transport exploded")
}

// stalledConn never completes a write until its context expires.
type stalledConn struct{ *fakeConn }

func (stalledConn) WriteText(ctx context.Context, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func registerFakes(registry *Registry, k int) []*fakeConn {
	conns := make([]*fakeConn, k)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("client-%d", i))
		registry.Register(conns[i])
	}
	return conns
}

func TestBroadcaster_FanOut(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conns := registerFakes(registry, 5)
	broadcaster := NewBroadcaster(registry, time.Second, testLogger(), nil)

	delivered := broadcaster.Broadcast(context.Background(), Message("alice", "hello"))

	req.Equal(5, delivered)
	for _, conn := range conns {
		select {
		case data := <-conn.written:
			req.JSONEq(`{"username":"alice","message":"hello"}`, string(data))
		default:
			req.Failf("missing delivery", "%s received nothing", conn.addr)
		}
	}
}

func TestBroadcaster_IsolatesFailedSend(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conns := registerFakes(registry, 4)
	conns[1].failWrites(errors.New("write: broken pipe"))
	broadcaster := NewBroadcaster(registry, time.Second, testLogger(), nil)

	delivered := broadcaster.Broadcast(context.Background(), Joined("bob"))

	req.Equal(3, delivered)
	for i, conn := range conns {
		if i == 1 {
			expectNoEvent(t, conn, 10*time.Millisecond)
			continue
		}
		req.Equal(Joined("bob"), nextEvent(t, conn))
	}
	req.Equal(4, registry.Len(), "failed recipients stay registered until their session ends")
}

func TestBroadcaster_RecoversFromPanickingConn(t *testing.T) {
	registry := NewRegistry()
	healthy := newFakeConn("healthy")
	registry.Register(healthy)
	registry.Register(panicConn{newFakeConn("panicky")})
	broadcaster := NewBroadcaster(registry, time.Second, testLogger(), nil)

	require.NotPanics(t, func() {
		require.Equal(t, 1, broadcaster.Broadcast(context.Background(), Left("carol")))
	})
	require.Equal(t, Left("carol"), nextEvent(t, healthy))
}

func TestBroadcaster_SlowRecipientBoundedByWriteTimeout(t *testing.T) {
	registry := NewRegistry()
	healthy := newFakeConn("healthy")
	registry.Register(healthy)
	registry.Register(stalledConn{newFakeConn("stalled")})
	broadcaster := NewBroadcaster(registry, 50*time.Millisecond, testLogger(), nil)

	start := time.Now()
	delivered := broadcaster.Broadcast(context.Background(), Message("dave", "ping"))

	require.Equal(t, 1, delivered)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, Message("dave", "ping"), nextEvent(t, healthy))
}

func TestBroadcaster_EmptyRegistry(t *testing.T) {
	broadcaster := NewBroadcaster(NewRegistry(), time.Second, testLogger(), nil)
	require.Zero(t, broadcaster.Broadcast(context.Background(), Joined("nobody")))
}

func TestBroadcaster_DropsUnencodableEvent(t *testing.T) {
	registry := NewRegistry()
	conn := newFakeConn("a")
	registry.Register(conn)
	broadcaster := NewBroadcaster(registry, time.Second, testLogger(), nil)

	require.Zero(t, broadcaster.Broadcast(context.Background(), Event{Username: "x"}))
	expectNoEvent(t, conn, 10*time.Millisecond)
}
