package chossclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/choss/pkg/chessdto"
)

var ErrNotConnected = errors.New("websocket not connected")

type MessageCallback func(msg *chessdto.ServerMessage)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

// Conn is a protocol client over one WebSocket. There is no reconnect: game
// subscriptions live on the server side of a single socket.
type Conn struct {
	wsURL       string
	subprotocol string

	conn   *websocket.Conn
	connM  sync.RWMutex
	writeM sync.Mutex

	msgCbs []callbackEntry
	nextID int
	cbM    sync.RWMutex

	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

func NewConn(wsURL, subprotocol string) *Conn {
	return &Conn{
		wsURL:        wsURL,
		subprotocol:  subprotocol,
		pingInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (c *Conn) SetHeaderProvider(h HeaderProvider) { c.headerProvider = h }

func (c *Conn) SetPingInterval(d time.Duration) {
	if d > 0 {
		c.pingInterval = d
	}
}

func (c *Conn) Connect(ctx context.Context) error {
	c.connM.Lock()
	defer c.connM.Unlock()
	if c.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	}
	if c.subprotocol != "" {
		opts.Subprotocols = []string{c.subprotocol}
	}
	conn, _, err := websocket.Dial(dialCtx, c.wsURL, opts)
	if err != nil {
		return err
	}

	c.conn = conn
	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	c.wg.Add(2)
	go c.listen()
	go c.pingLoop()
	return nil
}

// Done is closed when the socket stops delivering messages.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) OnMessage(cb MessageCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextID++
	c.msgCbs = append(c.msgCbs, callbackEntry{id: c.nextID, callback: cb})
	return c.nextID
}

func (c *Conn) RemoveMessageCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.msgCbs {
		if cb.id == id {
			c.msgCbs = append(c.msgCbs[:i], c.msgCbs[i+1:]...)
			break
		}
	}
}

func (c *Conn) NewGame(ctx context.Context, user string) error {
	return c.Send(ctx, chessdto.ClientMessage{Type: chessdto.TypeNewGame, User: user})
}

func (c *Conn) JoinGame(ctx context.Context, id, user string) error {
	return c.Send(ctx, chessdto.ClientMessage{Type: chessdto.TypeJoinGame, ID: id, User: user})
}

func (c *Conn) PlayMove(ctx context.Context, id, user string, mv chessdto.Move) error {
	return c.Send(ctx, chessdto.ClientMessage{Type: chessdto.TypePlayMove, ID: id, User: user, Move: &mv})
}

// Send writes one client frame. Writes are serialized; a context without deadline gets 5s.
func (c *Conn) Send(ctx context.Context, msg chessdto.ClientMessage) error {
	c.connM.RLock()
	conn := c.conn
	c.connM.RUnlock()
	if conn == nil || c.isStopping() {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	c.writeM.Lock()
	defer c.writeM.Unlock()
	return wsjson.Write(ctx, conn, msg)
}

func (c *Conn) listen() {
	defer c.wg.Done()
	defer close(c.done)
	for {
		var msg chessdto.ServerMessage
		if err := wsjson.Read(c.rootCtx, c.conn, &msg); err != nil {
			return
		}

		c.cbM.RLock()
		callbacks := make([]callbackEntry, len(c.msgCbs))
		copy(callbacks, c.msgCbs)
		c.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(&msg)
			}
		}
	}
}

func (c *Conn) pingLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	consecutivePingFailures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err == nil {
				consecutivePingFailures = 0
				continue
			}
			consecutivePingFailures++
			if consecutivePingFailures >= 2 {
				_ = c.conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (c *Conn) Close(ctx context.Context) error {
	c.connM.RLock()
	conn := c.conn
	c.connM.RUnlock()
	if conn == nil {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stopCh) })
	_ = conn.Close(websocket.StatusNormalClosure, "close")

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		c.rootCancel()
		return nil
	}
}

func (c *Conn) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Conn) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headerProvider == nil {
		return hdr
	}
	for k, v := range c.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
