package pvpchess

import (
	"errors"
	"time"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/pvp"
)

var (
	ErrInvalidArgs  = errors.New("invalid arguments")
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game id already taken")
	ErrIllegalMove  = errors.New("illegal move")
	ErrBadRecord    = errors.New("malformed game record")
)

// Game is the live record of one session. Seats stay empty until a second distinct
// identity joins; there is no terminal state.
type Game struct {
	ID        string
	Creator   string
	WhiteID   string
	BlackID   string
	Board     chess.Position
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Seated reports whether both seats are bound.
func (g *Game) Seated() bool { return g.WhiteID != "" && g.BlackID != "" }

func (g *Game) Seats() pvp.Seats { return pvp.Seats{White: g.WhiteID, Black: g.BlackID} }

// Clone returns a copy sharing no mutable state with g.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Board = g.Board.Clone()
	return &c
}
