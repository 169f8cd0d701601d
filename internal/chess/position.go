package chess

import "fmt"

// Position is an immutable board description. Every transition produces a new value;
// Pieces and History of an existing Position are never written to.
type Position struct {
	Width   int
	Height  int
	Pieces  []Piece
	Turn    Side
	History []Move
}

// StandardPosition returns the regular 8x8 starting setup with white to move.
func StandardPosition() Position {
	back := []PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	pieces := make([]Piece, 0, 32)
	for x, kind := range back {
		pieces = append(pieces,
			Piece{Kind: kind, Square: Square{X: x, Y: 0}, Side: White},
			Piece{Kind: Pawn, Square: Square{X: x, Y: 1}, Side: White},
			Piece{Kind: Pawn, Square: Square{X: x, Y: 6}, Side: Black},
			Piece{Kind: kind, Square: Square{X: x, Y: 7}, Side: Black},
		)
	}
	return Position{
		Width:   8,
		Height:  8,
		Pieces:  pieces,
		Turn:    White,
		History: []Move{},
	}
}

func (p Position) OnBoard(sq Square) bool {
	return sq.X >= 0 && sq.Y >= 0 && sq.X < p.Width && sq.Y < p.Height
}

// PieceAt returns the piece occupying sq, if any.
func (p Position) PieceAt(sq Square) (Piece, bool) {
	for _, pc := range p.Pieces {
		if pc.Square == sq {
			return pc, true
		}
	}
	return Piece{}, false
}

// King returns the king of side, or ErrNoKing when the position is corrupted.
func (p Position) King(side Side) (Piece, error) {
	for _, pc := range p.Pieces {
		if pc.Side == side && pc.Kind == King {
			return pc, nil
		}
	}
	return Piece{}, fmt.Errorf("%w: %s", ErrNoKing, side)
}

// PiecesOf returns the pieces of side in board order.
func (p Position) PiecesOf(side Side) []Piece {
	out := make([]Piece, 0, len(p.Pieces)/2+1)
	for _, pc := range p.Pieces {
		if pc.Side == side {
			out = append(out, pc)
		}
	}
	return out
}

// LastMove returns the most recent history entry.
func (p Position) LastMove() (Move, bool) {
	if len(p.History) == 0 {
		return Move{}, false
	}
	return p.History[len(p.History)-1], true
}

// Clone returns a deep copy sharing no slices or pointers with p.
func (p Position) Clone() Position {
	out := p
	out.Pieces = append([]Piece(nil), p.Pieces...)
	out.History = make([]Move, len(p.History))
	for i, m := range p.History {
		out.History[i] = m.clone()
	}
	return out
}

// withTurn returns a shallow copy with a different side to move. Slices are shared,
// which is safe because positions are never mutated in place.
func (p Position) withTurn(side Side) Position {
	p.Turn = side
	return p
}

// Validate checks the structural invariants of a decoded position.
func (p Position) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidPosition, p.Width, p.Height)
	}
	if !p.Turn.Valid() {
		return fmt.Errorf("%w: turn %q", ErrInvalidPosition, p.Turn)
	}
	seen := make(map[Square]struct{}, len(p.Pieces))
	kings := map[Side]int{}
	for _, pc := range p.Pieces {
		if !pc.Kind.Valid() || !pc.Side.Valid() {
			return fmt.Errorf("%w: piece %v", ErrInvalidPosition, pc)
		}
		if !p.OnBoard(pc.Square) {
			return fmt.Errorf("%w: piece off board %v", ErrInvalidPosition, pc)
		}
		if _, dup := seen[pc.Square]; dup {
			return fmt.Errorf("%w: two pieces on %s", ErrInvalidPosition, pc.Square)
		}
		seen[pc.Square] = struct{}{}
		if pc.Kind == King {
			kings[pc.Side]++
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: expected one king per side, got white=%d black=%d", ErrNoKing, kings[White], kings[Black])
	}
	for i, m := range p.History {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return nil
}
