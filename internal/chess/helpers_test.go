package chess

import "testing"

// sq parses algebraic coordinates such as "e2".
func sq(t *testing.T, s string) Square {
	t.Helper()
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		t.Fatalf("bad square %q", s)
	}
	return Square{X: int(s[0] - 'a'), Y: int(s[1] - '1')}
}

// play applies moves written as from+to pairs ("e2e4") and fails on any illegal one.
func play(t *testing.T, pos Position, moves ...string) Position {
	t.Helper()
	for _, mv := range moves {
		from, to := sq(t, mv[:2]), sq(t, mv[2:4])
		piece, ok := pos.PieceAt(from)
		if !ok {
			t.Fatalf("%s: no piece on %s", mv, mv[:2])
		}
		resolved, ok, err := ResolveMove(Move{Type: MoveStandard, Piece: piece, From: from, To: to}, pos)
		if err != nil {
			t.Fatalf("%s: resolve: %v", mv, err)
		}
		if !ok {
			t.Fatalf("%s: illegal in this position", mv)
		}
		next, err := ApplyMove(resolved, pos)
		if err != nil {
			t.Fatalf("%s: apply: %v", mv, err)
		}
		pos = next
	}
	return pos
}

// setup builds an unplayed 8x8 position from "side kind square" triples.
func setup(t *testing.T, turn Side, placements ...string) Position {
	t.Helper()
	pos := Position{Width: 8, Height: 8, Turn: turn, History: []Move{}}
	for _, p := range placements {
		var side, kind, at string
		for i, f := range splitFields(p) {
			switch i {
			case 0:
				side = f
			case 1:
				kind = f
			case 2:
				at = f
			}
		}
		pos.Pieces = append(pos.Pieces, Piece{Kind: PieceKind(kind), Side: Side(side), Square: sq(t, at)})
	}
	if err := pos.Validate(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return pos
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return out
}

func destinations(moves []Move) map[Square]Move {
	out := make(map[Square]Move, len(moves))
	for _, m := range moves {
		out[m.To] = m
	}
	return out
}

func mustPiece(t *testing.T, pos Position, at string) Piece {
	t.Helper()
	p, ok := pos.PieceAt(sq(t, at))
	if !ok {
		t.Fatalf("no piece on %s", at)
	}
	return p
}

func mustLegal(t *testing.T, pos Position, at string) []Move {
	t.Helper()
	moves, err := LegalMoves(mustPiece(t, pos, at), pos)
	if err != nil {
		t.Fatalf("LegalMoves(%s): %v", at, err)
	}
	return moves
}
