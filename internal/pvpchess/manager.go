package pvpchess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/msgcat"
	"github.com/park285/choss/internal/obslog"
	"github.com/park285/choss/internal/pvp"
	"github.com/park285/choss/internal/pvpchan"
	"github.com/park285/choss/pkg/chessdto"
)

// Manager owns the authoritative game records. Operations on one game run one at a time;
// different games never contend.
type Manager struct {
	store    Store
	registry *pvpchan.Registry
	relay    *pvpchan.Relay
	archive  Archive
	seater   *pvp.Seater
	catalog  *msgcat.Catalog
	newID    func() string
	now      func() time.Time
	logger   *zap.Logger

	locks sync.Map // game id -> *sync.Mutex
}

type Option func(*Manager)

func WithSeater(s *pvp.Seater) Option { return func(m *Manager) { m.seater = s } }

// WithIDGenerator replaces uuid.NewString as the source of game ids.
func WithIDGenerator(f func() string) Option { return func(m *Manager) { m.newID = f } }

func WithClock(f func() time.Time) Option { return func(m *Manager) { m.now = f } }

// WithRelay mirrors every broadcast to other instances.
func WithRelay(r *pvpchan.Relay) Option { return func(m *Manager) { m.relay = r } }

func WithCatalog(c *msgcat.Catalog) Option { return func(m *Manager) { m.catalog = c } }

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = l } }

func NewManager(store Store, registry *pvpchan.Registry, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		registry: registry,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = obslog.L()
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.registry == nil {
		m.registry = pvpchan.NewRegistry(m.logger)
	}
	if m.seater == nil {
		m.seater = pvp.NewRandomSeater()
	}
	return m
}

// AttachRepository wires an archive for finished games.
func (m *Manager) AttachRepository(a Archive) {
	if m != nil {
		m.archive = a
	}
}

func (m *Manager) Registry() *pvpchan.Registry { return m.registry }

func (m *Manager) Archive() Archive { return m.archive }

func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	if m.archive != nil {
		errs = append(errs, m.archive.Close())
	}
	errs = append(errs, m.store.Close())
	return errors.Join(errs...)
}

// lockGame takes the per-game lock. A lock is only created for an id the store
// knows, so requests for unknown ids leave nothing in m.locks.
func (m *Manager) lockGame(ctx context.Context, id string) (func(), error) {
	v, ok := m.locks.Load(id)
	if !ok {
		g, err := m.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, ErrGameNotFound
		}
		v, _ = m.locks.LoadOrStore(id, &sync.Mutex{})
	}
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock, nil
}

// CreateGame registers a new game with the standard starting position and no seats.
func (m *Manager) CreateGame(ctx context.Context, user string) (*Game, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrInvalidArgs
	}
	now := m.now()
	for attempt := 0; attempt < 3; attempt++ {
		g := &Game{
			ID:        m.newID(),
			Creator:   user,
			Board:     chess.StandardPosition(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := m.store.Create(ctx, g)
		if errors.Is(err, ErrGameExists) {
			m.logger.Warn("game_id_collision", zap.String("game_id", g.ID))
			continue
		}
		if err != nil {
			m.logger.Error("game_create_error", zap.String("user", user), zap.Error(err))
			return nil, err
		}
		m.logger.Info("game_create", zap.String("game_id", g.ID), zap.String("creator", user))
		return g, nil
	}
	return nil, fmt.Errorf("create game: %w", ErrGameExists)
}

// JoinGame subscribes sub to the game, binds seats on the first join by a second
// distinct identity and pushes the record to every subscriber. sub may be nil.
func (m *Manager) JoinGame(ctx context.Context, id, user string, sub pvpchan.Subscriber) (*Game, error) {
	id, user = strings.TrimSpace(id), strings.TrimSpace(user)
	if id == "" || user == "" {
		return nil, ErrInvalidArgs
	}
	unlock, err := m.lockGame(ctx, id)
	if err != nil {
		return nil, m.joinFailed(id, user, err)
	}
	defer unlock()

	g, err := m.store.Load(ctx, id)
	if err == nil && g == nil {
		err = ErrGameNotFound
	}
	if err != nil {
		return nil, m.joinFailed(id, user, err)
	}

	if !g.Seated() && user != g.Creator {
		seats := m.seater.Assign(g.Creator, user)
		g, err = m.store.Update(ctx, id, func(cur *Game) error {
			if cur.Seated() {
				return nil
			}
			cur.WhiteID, cur.BlackID = seats.White, seats.Black
			cur.UpdatedAt = m.now()
			return nil
		})
		if err != nil {
			m.logger.Error("game_seat_error", zap.String("game_id", id), zap.Error(err))
			return nil, err
		}
		m.logger.Info("game_seats_bound",
			zap.String("game_id", id),
			zap.String("white", g.WhiteID),
			zap.String("black", g.BlackID),
		)
	}

	// Subscribe only once the record is final so a failed join leaves no subscription.
	if sub != nil {
		if _, err := m.registry.Subscribe(id, sub); err != nil {
			return nil, err
		}
	}
	m.logger.Info("game_join",
		zap.String("game_id", id),
		zap.String("user", user),
		zap.String("color", string(g.Seats().ColorOf(user))),
		zap.Int("subscribers", m.registry.Count(id)),
	)
	m.broadcast(ctx, g)
	return g, nil
}

func (m *Manager) joinFailed(id, user string, err error) error {
	if errors.Is(err, ErrGameNotFound) {
		m.logger.Info("game_join_unknown", zap.String("game_id", id), zap.String("user", user))
	} else {
		m.logger.Error("game_join_error", zap.String("game_id", id), zap.Error(err))
	}
	return err
}

// PlayMove admits mv through the rules engine and, when legal, stores and broadcasts the
// new position. Illegal moves leave the record untouched and return ErrIllegalMove.
func (m *Manager) PlayMove(ctx context.Context, id, user string, mv chess.Move) (*Game, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidArgs
	}
	g, st, err := m.playLocked(ctx, id, user, mv)
	if err != nil {
		return nil, err
	}
	if st.Over() {
		m.persistIfFinal(ctx, g, st)
	}
	return g, nil
}

func (m *Manager) playLocked(ctx context.Context, id, user string, mv chess.Move) (*Game, chess.Status, error) {
	var (
		g       *Game
		applied chess.Move
		st      chess.Status
	)
	unlock, err := m.lockGame(ctx, id)
	if err == nil {
		defer unlock()
		g, err = m.store.Update(ctx, id, func(cur *Game) error {
			resolved, ok, err := chess.ResolveMove(mv, cur.Board)
			if err != nil {
				return err
			}
			if !ok {
				return ErrIllegalMove
			}
			next, err := chess.ApplyMove(resolved, cur.Board)
			if err != nil {
				return err
			}
			status, err := chess.Evaluate(next)
			if err != nil {
				return err
			}
			cur.Board = next
			cur.UpdatedAt = m.now()
			applied, st = resolved, status
			return nil
		})
	}
	switch {
	case errors.Is(err, ErrGameNotFound):
		m.logger.Info("move_unknown_game", zap.String("game_id", id), zap.String("user", user))
		return nil, chess.Status{}, err
	case errors.Is(err, ErrIllegalMove):
		m.logger.Warn("move_rejected",
			zap.String("game_id", id),
			zap.String("user", user),
			zap.Stringer("move", mv),
		)
		return nil, chess.Status{}, err
	case err != nil:
		m.logger.Error("move_failed", zap.String("game_id", id), zap.String("user", user), zap.Error(err))
		return nil, chess.Status{}, err
	}

	m.logger.Info("move_applied",
		zap.String("game_id", id),
		zap.String("user", user),
		zap.Stringer("move", applied),
		zap.Int("ply", len(g.Board.History)),
		zap.Bool("capture", applied.IsCapture()),
		zap.String("turn", string(st.Turn)),
		zap.Bool("check", st.Check),
		zap.Bool("checkmate", st.Checkmate),
		zap.Bool("stalemate", st.Stalemate),
	)
	m.broadcast(ctx, g)
	return g, st, nil
}

// LoadGame returns the record or ErrGameNotFound.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	g, err := m.store.Load(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// LegalMovesAt lists the legal moves of the piece on sq.
func (m *Manager) LegalMovesAt(ctx context.Context, id string, sq chess.Square) ([]chess.Move, error) {
	g, err := m.LoadGame(ctx, id)
	if err != nil {
		return nil, err
	}
	piece, ok := g.Board.PieceAt(sq)
	if !ok {
		return []chess.Move{}, nil
	}
	return chess.LegalMoves(piece, g.Board)
}

// ToDTO renders g with its computed status.
func (m *Manager) ToDTO(g *Game) (*chessdto.Game, error) {
	if g == nil {
		return nil, ErrInvalidArgs
	}
	rec, err := gameRecord(g)
	if err != nil {
		return nil, err
	}
	st, err := chess.Evaluate(g.Board)
	if err != nil {
		return nil, err
	}
	status := StatusToDTO(st, m.catalog)
	rec.Status = &status
	return rec, nil
}

// broadcast pushes a game-update to local subscribers and, with a relay, to other instances.
// Encode failures are logged and nothing is sent.
func (m *Manager) broadcast(ctx context.Context, g *Game) {
	dto, err := m.ToDTO(g)
	if err != nil {
		m.logger.Error("broadcast_encode_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	payload, err := json.Marshal(chessdto.GameUpdate(dto))
	if err != nil {
		m.logger.Error("broadcast_encode_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	n := m.registry.Broadcast(g.ID, payload)
	m.logger.Debug("game_update_sent", zap.String("game_id", g.ID), zap.Int("delivered", n))
	if m.relay != nil {
		if err := m.relay.Publish(ctx, g.ID, payload); err != nil {
			m.logger.Warn("relay_publish_error", zap.String("game_id", g.ID), zap.Error(err))
		}
	}
}

// persistIfFinal archives a finished game when an archive is attached.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game, st chess.Status) {
	if m.archive == nil || g == nil || !st.Over() {
		return
	}
	res, err := BuildResult(g, st)
	if err != nil {
		m.logger.Error("game_result_build_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	if err := m.archive.SaveResult(ctx, res); err != nil {
		m.logger.Error("game_result_persist_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	m.logger.Info("game_result_persist",
		zap.String("game_id", g.ID),
		zap.String("result", res.Result),
		zap.String("method", res.ResultMethod),
	)
}
