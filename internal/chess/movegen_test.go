package chess

import (
	"errors"
	"testing"
)

func TestStandardPositionHasTwentyMoves(t *testing.T) {
	pos := StandardPosition()
	moves, err := LegalMovesForSide(White, pos)
	if err != nil {
		t.Fatalf("LegalMovesForSide: %v", err)
	}
	if len(moves) != 20 {
		t.Fatalf("white moves = %d, want 20", len(moves))
	}
	black, err := LegalMovesForSide(Black, pos)
	if err != nil {
		t.Fatalf("LegalMovesForSide(black): %v", err)
	}
	if len(black) != 20 {
		t.Fatalf("black pseudo moves = %d, want 20", len(black))
	}
}

func TestPawnMoves(t *testing.T) {
	pos := StandardPosition()
	got := destinations(mustLegal(t, pos, "e2"))
	if len(got) != 2 {
		t.Fatalf("e2 pawn moves = %v", got)
	}
	if _, ok := got[sq(t, "e4")]; !ok {
		t.Fatalf("double step missing")
	}

	pos = play(t, pos, "e2e4", "d7d5")
	got = destinations(mustLegal(t, pos, "e4"))
	if m, ok := got[sq(t, "d5")]; !ok || m.Captures == nil || m.Captures.Kind != Pawn {
		t.Fatalf("exd5 missing or without capture: %+v", got)
	}
	if _, ok := got[sq(t, "e6")]; ok {
		t.Fatalf("moved pawn offered a double step")
	}
}

func TestPawnBlockedAndEdge(t *testing.T) {
	pos := setup(t, White,
		"white king e1", "black king e8",
		"white pawn a7", "black knight a8",
		"white pawn h2", "black pawn h3",
	)
	if moves := mustLegal(t, pos, "a7"); len(moves) != 0 {
		t.Fatalf("blocked pawn on a7 has moves %v", moves)
	}
	if moves := mustLegal(t, pos, "h2"); len(moves) != 0 {
		t.Fatalf("blocked pawn on h2 has moves %v", moves)
	}

	top := setup(t, White, "white king e1", "black king e8", "white pawn b8")
	if moves := mustLegal(t, top, "b8"); len(moves) != 0 {
		t.Fatalf("pawn on last rank moved off board: %v", moves)
	}
}

func TestSlidingStopsAtBlockers(t *testing.T) {
	pos := setup(t, White,
		"white king h8", "black king h6",
		"white rook a1", "white pawn a3", "black knight d1",
	)
	got := destinations(mustLegal(t, pos, "a1"))
	want := []string{"a2", "b1", "c1", "d1"}
	if len(got) != len(want) {
		t.Fatalf("rook moves = %v, want %v", got, want)
	}
	for _, w := range want {
		if _, ok := got[sq(t, w)]; !ok {
			t.Fatalf("rook missing %s", w)
		}
	}
	if got[sq(t, "d1")].Captures == nil {
		t.Fatalf("rook to d1 should capture")
	}
}

func TestKnightFromCorner(t *testing.T) {
	pos := setup(t, White, "white king e1", "black king e8", "white knight a1")
	if n := len(mustLegal(t, pos, "a1")); n != 2 {
		t.Fatalf("knight moves from a1 = %d, want 2", n)
	}
}

func TestKingAvoidsAttackedSquares(t *testing.T) {
	pos := setup(t, Black, "white king a1", "white rook d2", "black king e8")
	got := destinations(mustLegal(t, pos, "e8"))
	for _, s := range []string{"d8", "d7"} {
		if _, ok := got[sq(t, s)]; ok {
			t.Fatalf("king offered attacked square %s", s)
		}
	}
	if _, ok := got[sq(t, "f7")]; !ok {
		t.Fatalf("king missing safe square f7: %v", got)
	}
}

func TestPinnedPieceCannotExposeKing(t *testing.T) {
	pos := setup(t, White, "white king e1", "white bishop e2", "black rook e8", "black king a8")
	if moves := mustLegal(t, pos, "e2"); len(moves) != 0 {
		t.Fatalf("pinned bishop has moves %v", moves)
	}
	pseudo, err := PseudoLegalMoves(mustPiece(t, pos, "e2"), pos)
	if err != nil {
		t.Fatalf("PseudoLegalMoves: %v", err)
	}
	if len(pseudo) == 0 {
		t.Fatalf("pseudo-legal generation should ignore the pin")
	}
}

func TestEnPassantOnlyOnImmediatePly(t *testing.T) {
	pos := play(t, StandardPosition(), "e2e4", "a7a6", "e4e5", "d7d5")
	ep, ok := destinations(mustLegal(t, pos, "e5"))[sq(t, "d6")]
	if !ok {
		t.Fatalf("en passant not offered")
	}
	if ep.Captures == nil || ep.Captures.Square != sq(t, "d5") {
		t.Fatalf("en passant captures %v, want pawn on d5", ep.Captures)
	}

	after, err := ApplyMove(ep, pos)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if _, ok := after.PieceAt(sq(t, "d5")); ok {
		t.Fatalf("captured pawn still on d5")
	}
	if p, ok := after.PieceAt(sq(t, "d6")); !ok || p.Kind != Pawn || p.Side != White {
		t.Fatalf("white pawn not on d6")
	}

	later := play(t, pos, "a2a3", "a6a5")
	if _, ok := destinations(mustLegal(t, later, "e5"))[sq(t, "d6")]; ok {
		t.Fatalf("en passant offered a ply too late")
	}
}

func TestEnPassantRequiresAdjacentFile(t *testing.T) {
	pos := play(t, StandardPosition(), "e2e4", "a7a6", "e4e5", "b7b5")
	for to := range destinations(mustLegal(t, pos, "e5")) {
		if to == sq(t, "b6") {
			t.Fatalf("en passant offered against a distant pawn")
		}
	}
}

func castleMove(moves []Move) (Move, bool) {
	for _, m := range moves {
		if m.Type == MoveCastle {
			return m, true
		}
	}
	return Move{}, false
}

func TestCastlingKingside(t *testing.T) {
	pos := play(t, StandardPosition(), "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5")
	m, ok := castleMove(mustLegal(t, pos, "e1"))
	if !ok {
		t.Fatalf("castle not offered")
	}
	if m.To != sq(t, "g1") || m.Rook == nil || m.Rook.From != sq(t, "h1") || m.Rook.To != sq(t, "f1") {
		t.Fatalf("unexpected castle %+v rook %+v", m, m.Rook)
	}

	after := play(t, pos, "e1g1")
	if k := mustPiece(t, after, "g1"); k.Kind != King {
		t.Fatalf("g1 holds %v", k)
	}
	if r := mustPiece(t, after, "f1"); r.Kind != Rook {
		t.Fatalf("f1 holds %v", r)
	}
	for _, s := range []string{"e1", "h1"} {
		if _, ok := after.PieceAt(sq(t, s)); ok {
			t.Fatalf("%s not vacated", s)
		}
	}
	if last, _ := after.LastMove(); last.Type != MoveCastle {
		t.Fatalf("history records %q", last.Type)
	}
}

func TestCastlingQueenside(t *testing.T) {
	pos := setup(t, White, "white king e1", "white rook a1", "black king e8")
	m, ok := castleMove(mustLegal(t, pos, "e1"))
	if !ok || m.To != sq(t, "c1") || m.Rook.To != sq(t, "d1") {
		t.Fatalf("queenside castle = %+v ok=%v", m, ok)
	}
}

func TestCastlingNeverAfterKingReturns(t *testing.T) {
	pos := play(t, StandardPosition(), "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5",
		"e1e2", "g8f6", "e2e1", "f6g8")
	if _, ok := castleMove(mustLegal(t, pos, "e1")); ok {
		t.Fatalf("castle offered after the king moved and returned")
	}
}

func TestCastlingNeverAfterRookReturns(t *testing.T) {
	pos := setup(t, White, "white king e1", "white rook h1", "black king e8")
	pos = play(t, pos, "h1h2", "e8d8", "h2h1", "d8e8")
	if _, ok := castleMove(mustLegal(t, pos, "e1")); ok {
		t.Fatalf("castle offered after the rook moved and returned")
	}
}

func TestCastlingBlocked(t *testing.T) {
	cases := []struct {
		name   string
		pieces []string
	}{
		{"piece between", []string{"white king e1", "white rook h1", "white knight g1", "black king a8"}},
		{"corridor attacked", []string{"white king e1", "white rook h1", "black rook f8", "black king a8"}},
		{"destination attacked", []string{"white king e1", "white rook h1", "black rook g8", "black king a8"}},
		{"in check", []string{"white king e1", "white rook h1", "black rook e8", "black king a8"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := setup(t, White, tc.pieces...)
			if m, ok := castleMove(mustLegal(t, pos, "e1")); ok {
				t.Fatalf("castle offered: %+v", m)
			}
		})
	}
}

func TestHasMoved(t *testing.T) {
	pos := play(t, StandardPosition(), "g1f3", "g8f6")
	if !HasMoved(mustPiece(t, pos, "f3"), pos) {
		t.Fatalf("knight on f3 should count as moved")
	}
	if HasMoved(mustPiece(t, pos, "b1"), pos) {
		t.Fatalf("knight on b1 has not moved")
	}
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	pos := StandardPosition()
	_, err := PseudoLegalMoves(Piece{Kind: "archbishop", Side: White, Square: Square{X: 3, Y: 3}}, pos)
	if !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("err = %v, want ErrInvalidPosition", err)
	}
}
