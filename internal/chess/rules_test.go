package chess

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestFoolsMate(t *testing.T) {
	pos := play(t, StandardPosition(), "f2f3", "e7e5", "g2g4", "d8h4")

	if pos.Turn != White {
		t.Fatalf("turn = %s", pos.Turn)
	}
	check, err := IsInCheck(White, pos)
	if err != nil || !check {
		t.Fatalf("IsInCheck = %v, %v", check, err)
	}
	mate, err := IsCheckmate(White, pos)
	if err != nil || !mate {
		t.Fatalf("IsCheckmate = %v, %v", mate, err)
	}
	stale, err := IsStalemate(White, pos)
	if err != nil || stale {
		t.Fatalf("IsStalemate = %v, %v", stale, err)
	}
	moves, err := LegalMovesForSide(White, pos)
	if err != nil || len(moves) != 0 {
		t.Fatalf("white still has %d moves (err %v)", len(moves), err)
	}

	st, err := Evaluate(pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !st.Checkmate || !st.Check || st.Stalemate || !st.Over() {
		t.Fatalf("status = %+v", st)
	}
}

func TestStalemate(t *testing.T) {
	pos := setup(t, Black, "black king h8", "white queen g6", "white king f7")

	stale, err := IsStalemate(Black, pos)
	if err != nil || !stale {
		t.Fatalf("IsStalemate = %v, %v", stale, err)
	}
	mate, err := IsCheckmate(Black, pos)
	if err != nil || mate {
		t.Fatalf("IsCheckmate = %v, %v", mate, err)
	}
	st, err := Evaluate(pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if st.Check || st.Checkmate || !st.Stalemate {
		t.Fatalf("status = %+v", st)
	}
}

func TestCheckIsNotMateWhenKingCanEscape(t *testing.T) {
	pos := setup(t, White, "white king e1", "black rook e8", "black king a8")
	st, err := Evaluate(pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !st.Check || st.Checkmate || st.Stalemate {
		t.Fatalf("status = %+v", st)
	}
}

func TestMissingKingIsCorruption(t *testing.T) {
	pos := Position{
		Width: 8, Height: 8, Turn: White,
		Pieces: []Piece{{Kind: King, Side: White, Square: Square{X: 4, Y: 0}}},
	}
	if _, err := IsInCheck(Black, pos); !errors.Is(err, ErrNoKing) {
		t.Fatalf("IsInCheck err = %v, want ErrNoKing", err)
	}
	if _, err := Evaluate(pos.withTurn(Black)); !errors.Is(err, ErrNoKing) {
		t.Fatalf("Evaluate err = %v, want ErrNoKing", err)
	}
	if err := pos.Validate(); !errors.Is(err, ErrNoKing) {
		t.Fatalf("Validate err = %v, want ErrNoKing", err)
	}
}

func TestApplyMoveLeavesInputUntouched(t *testing.T) {
	pos := play(t, StandardPosition(), "e2e4", "d7d5")
	snapshot := pos.Clone()

	capture, ok := destinations(mustLegal(t, pos, "e4"))[sq(t, "d5")]
	if !ok {
		t.Fatalf("exd5 missing")
	}
	next, err := ApplyMove(capture, pos)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if !reflect.DeepEqual(pos, snapshot) {
		t.Fatalf("input position mutated")
	}
	if len(next.Pieces) != len(pos.Pieces)-1 {
		t.Fatalf("pieces = %d, want %d", len(next.Pieces), len(pos.Pieces)-1)
	}
	if len(next.History) != len(pos.History)+1 || next.Turn != Black {
		t.Fatalf("history=%d turn=%s", len(next.History), next.Turn)
	}
}

func TestApplyMoveRejectsUnknownType(t *testing.T) {
	pos := StandardPosition()
	_, err := ApplyMove(Move{Type: "teleport", Piece: mustPiece(t, pos, "e2")}, pos)
	if !errors.Is(err, ErrUnknownMoveType) {
		t.Fatalf("err = %v, want ErrUnknownMoveType", err)
	}
}

func TestResolveMove(t *testing.T) {
	pos := StandardPosition()
	pawn := mustPiece(t, pos, "e2")
	bogus := Piece{Kind: Queen, Side: Black, Square: sq(t, "e7")}

	cases := []struct {
		name string
		move Move
		ok   bool
	}{
		{"legal", Move{Type: MoveStandard, Piece: pawn, From: pawn.Square, To: sq(t, "e4")}, true},
		{"client captures ignored", Move{Type: MoveStandard, Piece: pawn, To: sq(t, "e3"), Captures: &bogus}, true},
		{"unreachable", Move{Type: MoveStandard, Piece: pawn, To: sq(t, "e5")}, false},
		{"wrong kind", Move{Type: MoveStandard, Piece: Piece{Kind: Queen, Side: White, Square: pawn.Square}, To: sq(t, "e3")}, false},
		{"empty square", Move{Type: MoveStandard, Piece: Piece{Kind: Pawn, Side: White, Square: sq(t, "e4")}, To: sq(t, "e5")}, false},
		{"off turn", Move{Type: MoveStandard, Piece: mustPiece(t, pos, "e7"), To: sq(t, "e5")}, false},
		{"side not to move", Move{Type: MoveStandard, Piece: mustPiece(t, pos, "g8"), From: sq(t, "g8"), To: sq(t, "f6")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, ok, err := ResolveMove(tc.move, pos)
			if err != nil {
				t.Fatalf("ResolveMove: %v", err)
			}
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && resolved.Captures != nil {
				t.Fatalf("resolved move kept client captures: %+v", resolved.Captures)
			}
			valid, err := IsValidMove(tc.move, pos)
			if err != nil || valid != tc.ok {
				t.Fatalf("IsValidMove = %v, %v", valid, err)
			}
		})
	}

	// g8f6 is in the knight's move list; only the turn rejects it.
	if _, ok := destinations(mustLegal(t, pos, "g8"))[sq(t, "f6")]; !ok {
		t.Fatalf("g8 cannot reach f6")
	}

	if _, _, err := ResolveMove(Move{Type: "teleport", Piece: pawn}, pos); !errors.Is(err, ErrUnknownMoveType) {
		t.Fatalf("unknown type err = %v", err)
	}
}

func TestCastleCannotBeForged(t *testing.T) {
	pos := setup(t, White, "white king e1", "white rook h1", "white knight g1", "black king a8")
	king := mustPiece(t, pos, "e1")
	forged := Move{
		Type:  MoveCastle,
		Piece: king,
		From:  king.Square,
		To:    sq(t, "g1"),
		Rook:  &RookMove{Piece: mustPiece(t, pos, "h1"), From: sq(t, "h1"), To: sq(t, "f1")},
	}
	ok, err := IsValidMove(forged, pos)
	if err != nil || ok {
		t.Fatalf("forged castle accepted: %v, %v", ok, err)
	}
}

// Random games must keep the per-ply invariants: one more history entry, the turn
// flips, no square is shared and both kings survive.
func TestRandomPlayoutInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 8; game++ {
		pos := StandardPosition()
		for ply := 0; ply < 80; ply++ {
			moves, err := LegalMovesForSide(pos.Turn, pos)
			if err != nil {
				t.Fatalf("game %d ply %d: %v", game, ply, err)
			}
			if len(moves) == 0 {
				st, err := Evaluate(pos)
				if err != nil || !st.Over() {
					t.Fatalf("no moves but status %+v (err %v)", st, err)
				}
				break
			}
			m := moves[rng.Intn(len(moves))]
			if ok, err := IsValidMove(m, pos); err != nil || !ok {
				t.Fatalf("generated move %v rejected: %v %v", m, ok, err)
			}
			next, err := ApplyMove(m, pos)
			if err != nil {
				t.Fatalf("ApplyMove(%v): %v", m, err)
			}
			if len(next.History) != len(pos.History)+1 {
				t.Fatalf("history did not grow by one")
			}
			if next.Turn != pos.Turn.Opposite() {
				t.Fatalf("turn did not flip")
			}
			if err := next.Validate(); err != nil {
				t.Fatalf("invalid position after %v: %v", m, err)
			}
			if check, err := IsInCheck(pos.Turn, next); err != nil || check {
				t.Fatalf("%v left own king in check", m)
			}
			pos = next
		}
	}
}
