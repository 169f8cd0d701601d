package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/choss/internal/obslog"
	"github.com/park285/choss/internal/pvpchess"
	"github.com/park285/choss/pkg/chessdto"
)

const (
	DefaultPath         = "/"
	DefaultSubprotocol  = "choss"
	DefaultSendBuffer   = 64
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 64 << 10
)

type Options struct {
	Path           string
	Subprotocol    string
	OriginPatterns []string
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Path) == "" {
		o.Path = DefaultPath
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	return o
}

// Server speaks the game protocol over WebSocket and hands every request to the manager.
type Server struct {
	mgr    *pvpchess.Manager
	opts   Options
	logger *zap.Logger
}

func NewServer(mgr *pvpchess.Manager, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = obslog.L()
	}
	return &Server{mgr: mgr, opts: opts.withDefaults(), logger: logger}
}

// Handler routes the socket endpoint. Panics in a handler are logged and answered with 500.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(s.opts.Path, s.ServeWS).Methods(http.MethodGet)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(r)
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:    []string{s.opts.Subprotocol},
		OriginPatterns:  s.opts.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_error", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	if s.opts.Subprotocol != "" && ws.Subprotocol() != s.opts.Subprotocol {
		s.logger.Warn("ws_subprotocol_mismatch",
			zap.String("remote", r.RemoteAddr),
			zap.String("want", s.opts.Subprotocol),
			zap.String("got", ws.Subprotocol()),
		)
		_ = ws.Close(websocket.StatusPolicyViolation, "subprotocol "+s.opts.Subprotocol+" required")
		return
	}
	ws.SetReadLimit(defaultReadLimit)

	c := newConn(ws, s.opts.SendBuffer, s.logger)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.logger.Info("ws_connect", zap.String("remote", r.RemoteAddr))
	go c.writeLoop(ctx, s.opts.PingInterval, s.opts.WriteTimeout)

	defer func() {
		c.close()
		games := s.mgr.Registry().UnsubscribeAll(c.ID())
		c.logger.Info("ws_disconnect", zap.Strings("games", games))
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !c.closed() && ctx.Err() == nil {
					c.logger.Debug("ws_read_error", zap.Error(err))
				}
			}
			return
		}
		s.dispatch(ctx, c, data)
	}
}

// dispatch handles one client frame. Failures are logged and nothing is sent back.
func (s *Server) dispatch(ctx context.Context, c *conn, data []byte) {
	msg, err := chessdto.DecodeClientMessage(data)
	if err != nil {
		c.logger.Warn("ws_malformed_message", zap.Int("bytes", len(data)), zap.Error(err))
		return
	}

	switch msg.Type {
	case chessdto.TypeNewGame:
		g, err := s.mgr.CreateGame(ctx, msg.User)
		if err != nil {
			return
		}
		payload, err := json.Marshal(chessdto.GameCreated(g.ID))
		if err != nil {
			c.logger.Error("ws_encode_error", zap.Error(err))
			return
		}
		if !c.Send(payload) {
			c.logger.Warn("ws_send_dropped", zap.String("game_id", g.ID), zap.String("type", chessdto.TypeGameCreated))
		}

	case chessdto.TypeJoinGame:
		if _, err := s.mgr.JoinGame(ctx, msg.ID, msg.User, c); err != nil && !expected(err) {
			c.logger.Error("ws_join_error", zap.String("game_id", msg.ID), zap.Error(err))
		}

	case chessdto.TypePlayMove:
		mv, err := pvpchess.MoveFromDTO(*msg.Move)
		if err != nil {
			c.logger.Warn("ws_malformed_message", zap.String("game_id", msg.ID), zap.Error(err))
			return
		}
		_, _ = s.mgr.PlayMove(ctx, msg.ID, msg.User, mv)
	}
}

func expected(err error) bool {
	return errors.Is(err, pvpchess.ErrGameNotFound) || errors.Is(err, pvpchess.ErrIllegalMove)
}
