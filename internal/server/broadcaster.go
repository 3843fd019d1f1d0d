// Package server fans chat events out to every registered connection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-metrics"
)

// Broadcaster delivers one payload to every connection in a Registry
// snapshot. A failing recipient never affects the others or the caller, and
// never removes registry entries: that is left to the owning session.
type Broadcaster struct {
	registry     *Registry
	logger       *slog.Logger
	msink        metrics.MetricSink
	writeTimeout time.Duration
}

// NewBroadcaster creates a Broadcaster over registry. Every send is bounded
// by writeTimeout.
func NewBroadcaster(registry *Registry, writeTimeout time.Duration, logger *slog.Logger, msink metrics.MetricSink) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if msink == nil {
		msink = &metrics.BlackholeSink{}
	}
	return &Broadcaster{
		registry:     registry,
		logger:       logger,
		msink:        msink,
		writeTimeout: writeTimeout,
	}
}

// Broadcast encodes event once and sends it concurrently to every registered
// connection. It returns after every send has completed or failed, with the
// number of successful deliveries.
func (b *Broadcaster) Broadcast(ctx context.Context, event Event) int {
	payload, err := event.Encode()
	if err != nil {
		b.logger.Error("Dropping unencodable event", LabelEvent.L(event.Kind.String()), LabelError.L(err))
		return 0
	}

	conns := b.registry.Snapshot()
	b.msink.IncrCounterWithLabels(MetricBroadcastCount, 1, []metrics.Label{LabelEvent.M(event.Kind.String())})
	b.logger.Debug("Broadcasting event",
		LabelEvent.L(event.Kind.String()), LabelUsername.L(event.Username), "recipients", len(conns))

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for _, conn := range conns {
		wg.Add(1)
		go func(conn Conn) {
			defer wg.Done()
			if err := b.send(ctx, conn, payload); err != nil {
				b.msink.IncrCounter(MetricBroadcastSendErrorCount, 1)
				b.logger.Debug("Broadcast send failed", LabelAddr.L(conn.RemoteAddr()), LabelError.L(err))
				return
			}
			b.msink.IncrCounter(MetricBroadcastBytes, float32(len(payload)))
			delivered.Add(1)
		}(conn)
	}
	wg.Wait()

	return int(delivered.Load())
}

// send writes payload to one connection, converting a panicking transport
// into an error.
func (b *Broadcaster) send(ctx context.Context, conn Conn, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic in send: %v", r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()

	return conn.WriteText(sendCtx, payload)
}
