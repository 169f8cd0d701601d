package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/domain"
	"github.com/park285/choss/internal/obslog"
	"github.com/park285/choss/internal/pvpchess"
	"github.com/park285/choss/pkg/chessdto"
)

const defaultArchiveLimit = 20

// Admin is a read-only HTTP API over the manager.
type Admin struct {
	mgr    *pvpchess.Manager
	srv    *fasthttp.Server
	logger *zap.Logger
}

func NewAdmin(mgr *pvpchess.Manager, logger *zap.Logger) *Admin {
	if logger == nil {
		logger = obslog.L()
	}
	a := &Admin{mgr: mgr, logger: logger}
	a.srv = &fasthttp.Server{
		Handler:      a.route,
		Name:         "choss-admin",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return a
}

func (a *Admin) Handler() fasthttp.RequestHandler { return a.route }

func (a *Admin) ListenAndServe(addr string) error { return a.srv.ListenAndServe(addr) }

func (a *Admin) Serve(ln net.Listener) error { return a.srv.Serve(ln) }

func (a *Admin) Shutdown(ctx context.Context) error { return a.srv.ShutdownWithContext(ctx) }

func (a *Admin) route(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		a.fail(ctx, fasthttp.StatusMethodNotAllowed, chessdto.DomainError{Code: "method_not_allowed"})
		return
	}
	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		a.writeJSON(ctx, fasthttp.StatusOK, chessdto.HealthResponse{Status: "ok", Games: a.mgr.Registry().Games()})
	case path == "/api/archive":
		a.archive(ctx)
	case strings.HasPrefix(path, "/api/games/"):
		rest := strings.Trim(strings.TrimPrefix(path, "/api/games/"), "/")
		if id, ok := strings.CutSuffix(rest, "/legal"); ok {
			a.legal(ctx, id)
			return
		}
		a.game(ctx, rest)
	default:
		a.fail(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: "not_found"})
	}
}

func (a *Admin) game(ctx *fasthttp.RequestCtx, id string) {
	g, err := a.mgr.LoadGame(ctx, id)
	if err != nil {
		a.loadFailed(ctx, id, err)
		return
	}
	dto, err := a.mgr.ToDTO(g)
	if err != nil {
		a.logger.Error("admin_game_encode_error", zap.String("game_id", id), zap.Error(err))
		a.fail(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: "internal", Message: err.Error()})
		return
	}
	a.writeJSON(ctx, fasthttp.StatusOK, dto)
}

func (a *Admin) legal(ctx *fasthttp.RequestCtx, id string) {
	args := ctx.QueryArgs()
	x, errX := args.GetUint("x")
	y, errY := args.GetUint("y")
	if errX != nil || errY != nil {
		a.fail(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: "bad_square", Message: "x and y are required"})
		return
	}
	sq := chess.Square{X: x, Y: y}
	moves, err := a.mgr.LegalMovesAt(ctx, id, sq)
	if err != nil {
		a.loadFailed(ctx, id, err)
		return
	}
	out := chessdto.LegalMovesResponse{Square: chessdto.Square{X: x, Y: y}, Moves: make([]chessdto.Move, 0, len(moves))}
	for _, m := range moves {
		dm, err := pvpchess.MoveToDTO(m)
		if err != nil {
			a.fail(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: "internal", Message: err.Error()})
			return
		}
		out.Moves = append(out.Moves, dm)
	}
	a.writeJSON(ctx, fasthttp.StatusOK, out)
}

func archivedGame(g *domain.ChessGame) chessdto.ArchivedGame {
	return chessdto.ArchivedGame{
		ID:        g.GameID,
		White:     g.WhiteID,
		Black:     g.BlackID,
		Result:    g.Result,
		Method:    g.ResultMethod,
		Moves:     g.MovesUCI,
		PGN:       g.PGN,
		EndedAt:   g.EndedAt.UnixMilli(),
		DurationS: int64(g.Duration / time.Second),
	}
}

func (a *Admin) archive(ctx *fasthttp.RequestCtx) {
	store := a.mgr.Archive()
	if store == nil {
		a.fail(ctx, fasthttp.StatusServiceUnavailable, chessdto.DomainError{Code: "archive_disabled"})
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	if limit <= 0 {
		limit = defaultArchiveLimit
	}
	games, err := store.Recent(ctx, limit)
	if err != nil {
		a.logger.Error("admin_archive_error", zap.Error(err))
		a.fail(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: "archive_error", Retryable: true})
		return
	}
	out := make([]chessdto.ArchivedGame, 0, len(games))
	for _, g := range games {
		out = append(out, archivedGame(g))
	}
	a.writeJSON(ctx, fasthttp.StatusOK, out)
}

func (a *Admin) loadFailed(ctx *fasthttp.RequestCtx, id string, err error) {
	if errors.Is(err, pvpchess.ErrGameNotFound) {
		a.fail(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: "game_not_found", Message: "no game " + id})
		return
	}
	a.logger.Error("admin_load_error", zap.String("game_id", id), zap.Error(err))
	a.fail(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: "internal", Retryable: true})
}

func (a *Admin) fail(ctx *fasthttp.RequestCtx, status int, body chessdto.DomainError) {
	a.writeJSON(ctx, status, body)
}

func (a *Admin) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("admin_encode_error", zap.Error(err))
		ctx.Error("encode error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
