package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mjgo/server/internal/event"
)

// WebSocket close codes used by the server.
const (
	CloseNormal      = websocket.CloseNormalClosure // 1000: game_ended, replaced_by_reconnect
	ClosePolicy      = websocket.ClosePolicyViolation
	CloseInternal    = websocket.CloseInternalServerErr
	CloseAuthTimeout = 4001
)

// Connection is the transport capability the session layer consumes. Sends
// never block the caller; a slow client is disconnected by backpressure.
type Connection interface {
	ID() uint64
	Send(ev event.Event)
	Close(code int, reason string)
	RemoteAddr() string
}

// WSConn is a gorilla/websocket connection with a dedicated write pump.
// Reads happen in the server's per-connection readLoop; Send may be called
// from any goroutine.
type WSConn struct {
	id  uint64
	ws  *websocket.Conn
	out chan []byte
	log *zap.Logger

	closeOnce sync.Once
	closed    atomic.Bool
	closeCh   chan struct{}

	// Heartbeat bookkeeping read by the monitor.
	lastPing atomic.Int64 // unix seconds
}

const (
	writeTimeout = 10 * time.Second
	outQueueSize = 256
)

func newWSConn(ws *websocket.Conn, id uint64, log *zap.Logger) *WSConn {
	c := &WSConn{
		id:      id,
		ws:      ws,
		out:     make(chan []byte, outQueueSize),
		log:     log.With(zap.Uint64("conn", id)),
		closeCh: make(chan struct{}),
	}
	c.lastPing.Store(time.Now().Unix())
	go c.writeLoop()
	return c
}

func (c *WSConn) ID() uint64         { return c.id }
func (c *WSConn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// TouchPing records an application-level ping for the heartbeat monitor.
func (c *WSConn) TouchPing() { c.lastPing.Store(time.Now().Unix()) }

// LastPing is the unix second of the most recent ping.
func (c *WSConn) LastPing() int64 { return c.lastPing.Load() }

// Send encodes and enqueues one event. A full queue disconnects the client:
// blocking here would stall the game for the other three seats.
func (c *WSConn) Send(ev event.Event) {
	if c.closed.Load() {
		return
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		c.log.Error("事件編碼失敗", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	select {
	case c.out <- data:
	default:
		c.log.Warn("輸出佇列已滿，斷開慢速連線")
		c.Close(ClosePolicy, "slow_consumer")
	}
}

// Close sends a close frame with the given code and tears the socket down.
// Idempotent.
func (c *WSConn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		msg := websocket.FormatCloseMessage(code, reason)
		deadline := time.Now().Add(writeTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = c.ws.Close()
	})
}

func (c *WSConn) IsClosed() bool { return c.closed.Load() }

func (c *WSConn) writeLoop() {
	for {
		select {
		case data := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				if !c.closed.Load() {
					c.log.Debug("寫入錯誤", zap.Error(err))
				}
				c.Close(CloseInternal, "write_error")
				return
			}
		case <-c.closeCh:
			return
		}
	}
}
