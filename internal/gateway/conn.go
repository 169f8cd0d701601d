package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// conn is one client socket. It satisfies pvpchan.Subscriber: Send only enqueues and
// writeLoop owns every write to the socket.
type conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newConn(ws *websocket.Conn, buffer int, logger *zap.Logger) *conn {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	id := uuid.NewString()
	return &conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger.With(zap.String("conn_id", id)),
	}
}

func (c *conn) ID() string { return c.id }

// Send queues payload for the writer. A closed connection or a full queue drops it.
func (c *conn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *conn) close() { c.once.Do(func() { close(c.done) }) }

func (c *conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// writeLoop drains the send queue and pings the peer. Two failed pings in a row or any
// failed write close the socket, which also ends the reader.
func (c *conn) writeLoop(ctx context.Context, pingInterval, writeTimeout time.Duration) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	pingFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.logger.Warn("ws_write_error", zap.Error(err))
				c.close()
				_ = c.ws.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Ping(pctx)
			cancel()
			if err == nil {
				pingFailures = 0
				continue
			}
			pingFailures++
			c.logger.Debug("ws_ping_error", zap.Int("failures", pingFailures), zap.Error(err))
			if pingFailures >= 2 {
				c.close()
				_ = c.ws.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}
