// Package server adapts gorilla WebSocket connections to the Conn contract used
// by sessions: discrete text messages, serialized writes, keep-alive pings and
// a normal-closure close.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one open duplex transport. A Session owns its Conn for the Conn's
// whole lifetime; other components may only call WriteText.
type Conn interface {
	// ReadMessage blocks until the next frame arrives, the peer closes, or ctx
	// is done.
	ReadMessage(ctx context.Context) (Frame, error)
	// WriteText sends one text message. It is safe for concurrent use.
	WriteText(ctx context.Context, data []byte) error
	// Close sends a close frame with code and releases the transport.
	Close(code int, reason string) error
	RemoteAddr() string
}

// ConnState is the lifecycle of a transport.
type ConnState int32

const (
	ConnOpen ConnState = iota
	ConnClosing
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnOpen:
		return "open"
	case ConnClosing:
		return "closing"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is the Conn implementation over a gorilla WebSocket connection.
type Client struct {
	conn         *websocket.Conn
	addr         string
	logger       *slog.Logger
	writeMu      sync.Mutex
	state        atomic.Int32
	interrupted  atomic.Bool
	done         chan struct{}
	writeTimeout time.Duration
	pongTimeout  time.Duration
	pingPeriod   time.Duration
}

var _ Conn = (*Client)(nil)

// NewClient wraps conn, applies the read limit and read deadline from cfg and
// starts the keep-alive pinger, which stops on Close.
func NewClient(conn *websocket.Conn, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		conn:         conn,
		addr:         conn.RemoteAddr().String(),
		logger:       logger,
		done:         make(chan struct{}),
		writeTimeout: cfg.WriteTimeout,
		pongTimeout:  cfg.PongTimeout,
		pingPeriod:   cfg.PingPeriod(),
	}

	conn.SetReadLimit(cfg.MaxMessageSize)
	c.setupReadConnection()
	go c.keepAlive()

	return c
}

// RemoteAddr returns the peer address captured at accept time.
func (c *Client) RemoteAddr() string {
	return c.addr
}

// State reports the current transport state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
		c.logger.Debug("Error setting initial read deadline", LabelAddr.L(c.addr), LabelError.L(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if c.interrupted.Load() {
			return nil
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
			c.logger.Debug("Error setting read deadline in pong handler", LabelAddr.L(c.addr), LabelError.L(err))
		}
		return nil
	})
}

// ReadMessage implements Conn. When ctx is done the pending read is released
// through an immediate deadline on the network connection and ctx's error is
// returned.
func (c *Client) ReadMessage(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if c.State() != ConnOpen {
		return Frame{}, ErrConnClosed
	}

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.interruptRead()
		close(interrupted)
	})

	messageType, data, err := c.conn.ReadMessage()
	if !stop() {
		<-interrupted
		// The frame won the race against ctx; undo the forced deadline so the
		// next read with a live context works.
		if err == nil {
			c.resumeRead()
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, ctxErr
		}
		return Frame{}, err
	}

	if messageType == websocket.TextMessage {
		return Frame{Type: TextFrame, Data: data}, nil
	}
	return Frame{Type: BinaryFrame, Data: data}, nil
}

func (c *Client) interruptRead() {
	c.interrupted.Store(true)
	if err := c.conn.NetConn().SetReadDeadline(time.Now()); err != nil {
		c.logger.Debug("Error interrupting read", LabelAddr.L(c.addr), LabelError.L(err))
	}
}

func (c *Client) resumeRead() {
	c.interrupted.Store(false)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
		c.logger.Debug("Error resetting read deadline", LabelAddr.L(c.addr), LabelError.L(err))
	}
}

// WriteText implements Conn. Writes are serialized and bounded by the write
// timeout or ctx's deadline, whichever comes first.
func (c *Client) WriteText(ctx context.Context, data []byte) error {
	if c.State() != ConnOpen {
		return ErrConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close implements Conn. Only the first call has an effect.
func (c *Client) Close(code int, reason string) error {
	if !c.state.CompareAndSwap(int32(ConnOpen), int32(ConnClosing)) {
		return nil
	}
	defer c.state.Store(int32(ConnClosed))
	close(c.done)

	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout)); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) && !isExpectedCloseError(err) {
			c.logger.Debug("Error writing close message", LabelAddr.L(c.addr), LabelError.L(err))
		}
	}

	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		return err
	}
	return nil
}

func (c *Client) keepAlive() {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if !c.handlePing() {
				return
			}
		}
	}
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
	if err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Debug("Error writing ping message", LabelAddr.L(c.addr), LabelError.L(err))
		}
		return false
	}
	return true
}

// readErrorReason classifies why a receive loop stopped and reports whether
// the cause is worth a warning rather than a debug line.
func readErrorReason(err error) (string, bool) {
	switch {
	case err == nil:
		return "none", false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled", false
	case errors.Is(err, websocket.ErrReadLimit):
		return "message too big", true
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived):
		return "client closed", false
	case isTimeout(err):
		return "read timeout", false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, ErrConnClosed), isExpectedCloseError(err):
		return "connection closed", false
	case websocket.IsUnexpectedCloseError(err, websocket.CloseMessageTooBig):
		return "unexpected close", true
	default:
		return "read error", true
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
