package chess

import "fmt"

// IsInCheck reports whether any standard move of the opposite side lands on side's king.
// Attackers are generated against a copy with the turn flipped to them; castles never
// deliver check and are not generated here.
func IsInCheck(side Side, pos Position) (bool, error) {
	king, err := pos.King(side)
	if err != nil {
		return false, err
	}
	attacker := side.Opposite()
	view := pos.withTurn(attacker)
	for _, pc := range pos.Pieces {
		if pc.Side != attacker {
			continue
		}
		moves, err := generate(pc, view, false)
		if err != nil {
			return false, err
		}
		for _, m := range moves {
			switch m.Type {
			case MoveStandard:
				if m.To == king.Square {
					return true, nil
				}
			case MoveCastle:
			default:
				return false, fmt.Errorf("%w: %q", ErrUnknownMoveType, m.Type)
			}
		}
	}
	return false, nil
}

// IsCheckmate does not verify that side is the side to move; callers pass pos.Turn.
func IsCheckmate(side Side, pos Position) (bool, error) {
	check, err := IsInCheck(side, pos)
	if err != nil || !check {
		return false, err
	}
	movable, err := hasLegalMove(side, pos)
	if err != nil {
		return false, err
	}
	return !movable, nil
}

// IsStalemate does not verify that side is the side to move; callers pass pos.Turn.
func IsStalemate(side Side, pos Position) (bool, error) {
	mate, err := IsCheckmate(side, pos)
	if err != nil || mate {
		return false, err
	}
	movable, err := hasLegalMove(side, pos)
	if err != nil {
		return false, err
	}
	return !movable, nil
}

func hasLegalMove(side Side, pos Position) (bool, error) {
	for _, pc := range pos.PiecesOf(side) {
		moves, err := LegalMoves(pc, pos)
		if err != nil {
			return false, err
		}
		if len(moves) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ApplyMove returns the position after m. pos is left untouched. The caller guarantees m
// was produced by the generator for pos (see ResolveMove).
func ApplyMove(m Move, pos Position) (Position, error) {
	pieces := make([]Piece, 0, len(pos.Pieces))
	switch m.Type {
	case MoveStandard:
		for _, pc := range pos.Pieces {
			if pc.Square == m.Piece.Square {
				continue
			}
			if m.Captures != nil && pc.Square == m.Captures.Square {
				continue
			}
			pieces = append(pieces, pc)
		}
		pieces = append(pieces, m.Piece.At(m.To))
	case MoveCastle:
		if m.Rook == nil {
			return Position{}, fmt.Errorf("%w: castle without rook", ErrInvalidMove)
		}
		for _, pc := range pos.Pieces {
			if pc.Square == m.Piece.Square || pc.Square == m.Rook.Piece.Square {
				continue
			}
			pieces = append(pieces, pc)
		}
		pieces = append(pieces, m.Piece.At(m.To), m.Rook.Piece.At(m.Rook.To))
	default:
		return Position{}, fmt.Errorf("%w: %q", ErrUnknownMoveType, m.Type)
	}

	history := make([]Move, len(pos.History), len(pos.History)+1)
	copy(history, pos.History)
	history = append(history, m.clone())

	return Position{
		Width:   pos.Width,
		Height:  pos.Height,
		Pieces:  pieces,
		Turn:    pos.Turn.Opposite(),
		History: history,
	}, nil
}

// ResolveMove maps a submitted move onto the generator's own move. The declared piece must
// be the piece standing on its square and belong to the side to move, and one of its legal
// moves must share the submitted destination. Client-supplied captures and rook data are
// discarded in favour of the generated move.
func ResolveMove(m Move, pos Position) (Move, bool, error) {
	if err := m.Validate(); err != nil {
		return Move{}, false, err
	}
	occupant, ok := pos.PieceAt(m.Piece.Square)
	if !ok || occupant != m.Piece || occupant.Side != pos.Turn {
		return Move{}, false, nil
	}
	moves, err := LegalMoves(occupant, pos)
	if err != nil {
		return Move{}, false, err
	}
	for _, legal := range moves {
		if legal.To == m.To {
			return legal, true, nil
		}
	}
	return Move{}, false, nil
}

// IsValidMove is the admission gate for submitted moves.
func IsValidMove(m Move, pos Position) (bool, error) {
	_, ok, err := ResolveMove(m, pos)
	return ok, err
}

// Status holds the computed facts about the side to move.
type Status struct {
	Turn      Side
	Check     bool
	Checkmate bool
	Stalemate bool
}

func (s Status) Over() bool { return s.Checkmate || s.Stalemate }

// Evaluate computes check, checkmate and stalemate for pos.Turn.
func Evaluate(pos Position) (Status, error) {
	check, err := IsInCheck(pos.Turn, pos)
	if err != nil {
		return Status{}, err
	}
	movable, err := hasLegalMove(pos.Turn, pos)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Turn:      pos.Turn,
		Check:     check,
		Checkmate: check && !movable,
		Stalemate: !check && !movable,
	}, nil
}
