package pvpchess

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/chess/notation"
	"github.com/park285/choss/internal/domain"
)

// Archive keeps results of finished games.
type Archive interface {
	SaveResult(ctx context.Context, g *domain.ChessGame) error
	Recent(ctx context.Context, limit int) ([]*domain.ChessGame, error)
	Close() error
}

// BuildResult turns a finished game into its archive record.
func BuildResult(g *Game, st chess.Status) (*domain.ChessGame, error) {
	rec, err := notation.Replay(g.Board.History)
	if err != nil {
		return nil, err
	}
	result := notation.Result(st)
	method := notation.Termination(st)
	ended := g.UpdatedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	duration := ended.Sub(g.CreatedAt)
	if duration < 0 {
		duration = 0
	}
	return &domain.ChessGame{
		GameID:       g.ID,
		Creator:      g.Creator,
		WhiteID:      g.WhiteID,
		BlackID:      g.BlackID,
		Result:       result,
		ResultMethod: method,
		MovesUCI:     rec.UCI,
		MovesSAN:     rec.SAN,
		PGN: notation.PGN(notation.Header{
			Date:        ended,
			White:       g.WhiteID,
			Black:       g.BlackID,
			Termination: method,
			Result:      result,
		}, rec),
		StartedAt: g.CreatedAt,
		EndedAt:   ended,
		Duration:  duration,
	}, nil
}

// memoryArchive is used when no database is configured.
type memoryArchive struct {
	mu    sync.RWMutex
	games map[string]*domain.ChessGame
}

func NewMemoryArchive() Archive {
	return &memoryArchive{games: make(map[string]*domain.ChessGame)}
}

func (a *memoryArchive) SaveResult(_ context.Context, g *domain.ChessGame) error {
	if g == nil || g.GameID == "" {
		return ErrInvalidArgs
	}
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	a.mu.Lock()
	a.games[g.GameID] = &cp
	a.mu.Unlock()
	return nil
}

func (a *memoryArchive) Recent(_ context.Context, limit int) ([]*domain.ChessGame, error) {
	a.mu.RLock()
	items := make([]*domain.ChessGame, 0, len(a.games))
	for _, g := range a.games {
		cp := *g
		items = append(items, &cp)
	}
	a.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].GameID > items[j].GameID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (a *memoryArchive) Close() error { return nil }
