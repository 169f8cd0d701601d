package chess

import "fmt"

// Side identifies the owner of a piece and the side to move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) Valid() bool { return s == White || s == Black }

// PieceKind names a piece type.
type PieceKind string

const (
	King   PieceKind = "king"
	Queen  PieceKind = "queen"
	Bishop PieceKind = "bishop"
	Knight PieceKind = "knight"
	Rook   PieceKind = "rook"
	Pawn   PieceKind = "pawn"
)

func (k PieceKind) Valid() bool {
	switch k {
	case King, Queen, Bishop, Knight, Rook, Pawn:
		return true
	default:
		return false
	}
}

// Square is a (file, rank) pair, zero-based. Rank 0 is white's back rank.
type Square struct {
	X int
	Y int
}

func (s Square) Offset(dx, dy int) Square { return Square{X: s.X + dx, Y: s.Y + dy} }

func (s Square) String() string { return fmt.Sprintf("(%d,%d)", s.X, s.Y) }

// Piece is a value object. Two pieces are the same piece when they stand on the same square.
type Piece struct {
	Kind   PieceKind
	Square Square
	Side   Side
}

// At returns a copy of p standing on sq.
func (p Piece) At(sq Square) Piece {
	p.Square = sq
	return p
}

func (p Piece) String() string { return fmt.Sprintf("%s %s@%s", p.Side, p.Kind, p.Square) }
