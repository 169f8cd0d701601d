package chess

import "fmt"

// MoveType tags the variant of a Move.
type MoveType string

const (
	MoveStandard MoveType = "standard"
	MoveCastle   MoveType = "castle"
)

// RookMove is the rook half of a castle.
type RookMove struct {
	Piece Piece
	From  Square
	To    Square
}

// Move is a tagged union over MoveType.
//
//   - MoveStandard: Piece moves From -> To, removing Captures when set. Captures may stand
//     on a square other than To (en passant).
//   - MoveCastle: king Piece moves From -> To and Rook moves atomically with it.
//
// Rook is set only for castles and Captures only for standard moves.
type Move struct {
	Type     MoveType
	Piece    Piece
	From     Square
	To       Square
	Captures *Piece
	Rook     *RookMove
}

// Validate rejects variants the engine cannot consume.
func (m Move) Validate() error {
	switch m.Type {
	case MoveStandard:
		if m.Rook != nil {
			return fmt.Errorf("%w: standard move with rook", ErrInvalidMove)
		}
	case MoveCastle:
		if m.Rook == nil {
			return fmt.Errorf("%w: castle without rook", ErrInvalidMove)
		}
		if m.Captures != nil {
			return fmt.Errorf("%w: castle with capture", ErrInvalidMove)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMoveType, m.Type)
	}
	if !m.Piece.Kind.Valid() || !m.Piece.Side.Valid() {
		return fmt.Errorf("%w: piece %v", ErrInvalidMove, m.Piece)
	}
	return nil
}

func (m Move) IsCapture() bool { return m.Type == MoveStandard && m.Captures != nil }

func (m Move) String() string {
	switch m.Type {
	case MoveCastle:
		return fmt.Sprintf("castle %s %s->%s", m.Piece.Side, m.From, m.To)
	default:
		return fmt.Sprintf("%s %s %s->%s", m.Piece.Side, m.Piece.Kind, m.From, m.To)
	}
}

func (m Move) clone() Move {
	if m.Captures != nil {
		c := *m.Captures
		m.Captures = &c
	}
	if m.Rook != nil {
		r := *m.Rook
		m.Rook = &r
	}
	return m
}

func standardMove(p Piece, to Square, captures *Piece) Move {
	return Move{Type: MoveStandard, Piece: p, From: p.Square, To: to, Captures: captures}
}
