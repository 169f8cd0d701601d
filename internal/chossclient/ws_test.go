package chossclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/choss/pkg/chessdto"
)

func TestConnHooks(t *testing.T) {
	auth := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"choss"}})
		if err != nil {
			return
		}
		defer ws.CloseNow()
		ctx := ws.CloseRead(r.Context())
		if err := wsjson.Write(ctx, ws, chessdto.ServerMessage{Type: chessdto.TypeGameCreated, ID: "g1"}); err != nil {
			return
		}
		<-ctx.Done()
	}))
	defer ts.Close()

	c := NewConn("ws"+strings.TrimPrefix(ts.URL, "http"), "choss")
	c.SetHeaderProvider(func() map[string]string { return map[string]string{"Authorization": "Bearer s3cret"} })
	c.SetPingInterval(20 * time.Millisecond)

	var removed atomic.Int32
	got := make(chan chessdto.ServerMessage, 1)
	id := c.OnMessage(func(*chessdto.ServerMessage) { removed.Add(1) })
	c.OnMessage(func(msg *chessdto.ServerMessage) { got <- *msg })
	c.RemoveMessageCallback(id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if a := <-auth; a != "Bearer s3cret" {
		t.Fatalf("Authorization = %q", a)
	}
	select {
	case msg := <-got:
		if msg.Type != chessdto.TypeGameCreated || msg.ID != "g1" {
			t.Fatalf("msg = %+v", msg)
		}
	case <-ctx.Done():
		t.Fatalf("no message")
	}

	// A few ping rounds must not drop the connection.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-c.Done():
		t.Fatalf("connection closed by pings")
	default:
	}
	if removed.Load() != 0 {
		t.Fatalf("removed callback fired %d times", removed.Load())
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.NewGame(ctx, "alice"); err != ErrNotConnected {
		t.Fatalf("send after close err = %v", err)
	}
}
