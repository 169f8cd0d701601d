package chess

import "fmt"

type offset struct{ dx, dy int }

var (
	diagonalDirs = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	cardinalDirs = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	knightJumps  = []offset{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}, {2, 1}, {2, -1}, {-2, 1}, {-2, -1}}
	kingSteps    = []offset{{0, 1}, {0, -1}, {1, 1}, {1, -1}, {1, 0}, {-1, 1}, {-1, -1}, {-1, 0}}
)

// PseudoLegalMoves returns every move p's movement patterns allow, without checking
// whether the mover's own king is left in check.
func PseudoLegalMoves(p Piece, pos Position) ([]Move, error) {
	return generate(p, pos, true)
}

// LegalMoves filters PseudoLegalMoves by self-check exclusion. The filter applies only to
// the side to move; moves of the other side are returned unfiltered.
func LegalMoves(p Piece, pos Position) ([]Move, error) {
	moves, err := PseudoLegalMoves(p, pos)
	if err != nil || p.Side != pos.Turn {
		return moves, err
	}
	legal := moves[:0]
	for _, m := range moves {
		next, err := ApplyMove(m, pos)
		if err != nil {
			return nil, err
		}
		check, err := IsInCheck(pos.Turn, next)
		if err != nil {
			return nil, err
		}
		if !check {
			legal = append(legal, m)
		}
	}
	return legal, nil
}

// LegalMovesForSide unions LegalMoves over every piece of side.
func LegalMovesForSide(side Side, pos Position) ([]Move, error) {
	var out []Move
	for _, pc := range pos.PiecesOf(side) {
		moves, err := LegalMoves(pc, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, moves...)
	}
	return out, nil
}

// HasMoved reports whether any history entry landed on p's current square. A piece that
// returns to its origin square still counts as moved.
func HasMoved(p Piece, pos Position) bool {
	for _, m := range pos.History {
		switch m.Type {
		case MoveStandard:
			if m.To == p.Square {
				return true
			}
		case MoveCastle:
			if m.To == p.Square || (m.Rook != nil && m.Rook.To == p.Square) {
				return true
			}
		}
	}
	return false
}

// generate dispatches to the movement patterns of p.Kind. Castling is skipped when
// only attacked squares are of interest.
func generate(p Piece, pos Position, castling bool) ([]Move, error) {
	switch p.Kind {
	case Queen:
		return append(slide(p, pos, diagonalDirs), slide(p, pos, cardinalDirs)...), nil
	case Bishop:
		return slide(p, pos, diagonalDirs), nil
	case Rook:
		return slide(p, pos, cardinalDirs), nil
	case Knight:
		return leap(p, pos, knightJumps), nil
	case Pawn:
		return pawnMoves(p, pos), nil
	case King:
		moves := leap(p, pos, kingSteps)
		if !castling {
			return moves, nil
		}
		castles, err := castleMoves(p, pos)
		if err != nil {
			return nil, err
		}
		return append(moves, castles...), nil
	default:
		return nil, fmt.Errorf("%w: piece kind %q", ErrInvalidPosition, p.Kind)
	}
}

// slide walks each ray until it leaves the board or hits a piece; an enemy blocker is captured.
func slide(p Piece, pos Position, dirs []offset) []Move {
	var moves []Move
	for _, d := range dirs {
		for sq := p.Square.Offset(d.dx, d.dy); pos.OnBoard(sq); sq = sq.Offset(d.dx, d.dy) {
			if target, ok := pos.PieceAt(sq); ok {
				if target.Side != p.Side {
					moves = append(moves, standardMove(p, sq, &target))
				}
				break
			}
			moves = append(moves, standardMove(p, sq, nil))
		}
	}
	return moves
}

func leap(p Piece, pos Position, offsets []offset) []Move {
	var moves []Move
	for _, o := range offsets {
		sq := p.Square.Offset(o.dx, o.dy)
		if !pos.OnBoard(sq) {
			continue
		}
		if target, ok := pos.PieceAt(sq); ok {
			if target.Side != p.Side {
				moves = append(moves, standardMove(p, sq, &target))
			}
			continue
		}
		moves = append(moves, standardMove(p, sq, nil))
	}
	return moves
}

func pawnDirection(side Side) int {
	if side == White {
		return 1
	}
	return -1
}

func pawnMoves(p Piece, pos Position) []Move {
	var moves []Move
	dir := pawnDirection(p.Side)

	one := p.Square.Offset(0, dir)
	if pos.OnBoard(one) {
		if _, occupied := pos.PieceAt(one); !occupied {
			moves = append(moves, standardMove(p, one, nil))
			two := one.Offset(0, dir)
			if pos.OnBoard(two) && !HasMoved(p, pos) {
				if _, occupied := pos.PieceAt(two); !occupied {
					moves = append(moves, standardMove(p, two, nil))
				}
			}
		}
	}

	for _, dx := range [2]int{1, -1} {
		sq := p.Square.Offset(dx, dir)
		if !pos.OnBoard(sq) {
			continue
		}
		if target, ok := pos.PieceAt(sq); ok && target.Side != p.Side {
			moves = append(moves, standardMove(p, sq, &target))
		}
	}

	if m, ok := enPassant(p, pos, dir); ok {
		moves = append(moves, m)
	}
	return moves
}

// enPassant is available only on the ply right after an enemy pawn advanced two ranks
// to land beside p.
func enPassant(p Piece, pos Position, dir int) (Move, bool) {
	last, ok := pos.LastMove()
	if !ok || last.Type != MoveStandard {
		return Move{}, false
	}
	if last.Piece.Kind != Pawn || last.Piece.Side == p.Side {
		return Move{}, false
	}
	if abs(last.To.Y-last.From.Y) != 2 || last.To.Y != p.Square.Y || abs(last.To.X-p.Square.X) != 1 {
		return Move{}, false
	}
	victim, ok := pos.PieceAt(last.To)
	if !ok || victim.Side == p.Side || victim.Kind != Pawn {
		return Move{}, false
	}
	dest := Square{X: last.To.X, Y: p.Square.Y + dir}
	if !pos.OnBoard(dest) {
		return Move{}, false
	}
	if _, occupied := pos.PieceAt(dest); occupied {
		return Move{}, false
	}
	return standardMove(p, dest, &victim), true
}

// castleMoves derives castling from history: neither king nor rook may have moved, the
// squares between them must be empty, the king must not be in check, and the square the
// king crosses must not be attacked. Safety of the destination is left to the legality filter.
func castleMoves(king Piece, pos Position) ([]Move, error) {
	if HasMoved(king, pos) {
		return nil, nil
	}
	var (
		moves   []Move
		checked bool
	)
	for _, rook := range pos.Pieces {
		if rook.Side != king.Side || rook.Kind != Rook || rook.Square.Y != king.Square.Y {
			continue
		}
		dx := rook.Square.X - king.Square.X
		if abs(dx) < 3 || HasMoved(rook, pos) {
			continue
		}
		dir := sign(dx)
		if occupiedBetween(pos, king.Square, rook.Square, dir) {
			continue
		}
		if !checked {
			inCheck, err := IsInCheck(king.Side, pos)
			if err != nil {
				return nil, err
			}
			if inCheck {
				return nil, nil
			}
			checked = true
		}

		step := king.Square.Offset(dir, 0)
		probe, err := ApplyMove(standardMove(king, step, nil), pos)
		if err != nil {
			return nil, err
		}
		attacked, err := IsInCheck(king.Side, probe)
		if err != nil {
			return nil, err
		}
		if attacked {
			continue
		}
		moves = append(moves, Move{
			Type:  MoveCastle,
			Piece: king,
			From:  king.Square,
			To:    king.Square.Offset(2*dir, 0),
			Rook:  &RookMove{Piece: rook, From: rook.Square, To: step},
		})
	}
	return moves, nil
}

func occupiedBetween(pos Position, from, to Square, dir int) bool {
	for x := from.X + dir; x != to.X; x += dir {
		if _, ok := pos.PieceAt(Square{X: x, Y: from.Y}); ok {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
