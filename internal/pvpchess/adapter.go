package pvpchess

import (
	"fmt"
	"time"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/msgcat"
	"github.com/park285/choss/pkg/chessdto"
)

func squareToDTO(sq chess.Square) chessdto.Square { return chessdto.Square{X: sq.X, Y: sq.Y} }

func squareFromDTO(sq chessdto.Square) chess.Square { return chess.Square{X: sq.X, Y: sq.Y} }

func pieceToDTO(p chess.Piece) chessdto.Piece {
	return chessdto.Piece{Name: string(p.Kind), Square: squareToDTO(p.Square), Side: string(p.Side)}
}

func pieceFromDTO(p chessdto.Piece) (chess.Piece, error) {
	out := chess.Piece{Kind: chess.PieceKind(p.Name), Square: squareFromDTO(p.Square), Side: chess.Side(p.Side)}
	if !out.Kind.Valid() || !out.Side.Valid() {
		return chess.Piece{}, fmt.Errorf("%w: piece %q/%q", chess.ErrInvalidMove, p.Name, p.Side)
	}
	return out, nil
}

// MoveToDTO converts an engine move to its wire form.
func MoveToDTO(m chess.Move) (chessdto.Move, error) {
	out := chessdto.Move{
		Type:  string(m.Type),
		Piece: pieceToDTO(m.Piece),
		From:  squareToDTO(m.From),
		To:    squareToDTO(m.To),
	}
	switch m.Type {
	case chess.MoveStandard:
		if m.Captures != nil {
			c := pieceToDTO(*m.Captures)
			out.Captures = &c
		}
	case chess.MoveCastle:
		if m.Rook == nil {
			return chessdto.Move{}, fmt.Errorf("%w: castle without rook", chess.ErrInvalidMove)
		}
		out.Rook = &chessdto.RookMove{
			Piece: pieceToDTO(m.Rook.Piece),
			From:  squareToDTO(m.Rook.From),
			To:    squareToDTO(m.Rook.To),
		}
	default:
		return chessdto.Move{}, fmt.Errorf("%w: %q", chess.ErrUnknownMoveType, m.Type)
	}
	return out, nil
}

// MoveFromDTO converts and validates a wire move. Unknown variants are rejected here.
func MoveFromDTO(m chessdto.Move) (chess.Move, error) {
	piece, err := pieceFromDTO(m.Piece)
	if err != nil {
		return chess.Move{}, err
	}
	out := chess.Move{
		Type:  chess.MoveType(m.Type),
		Piece: piece,
		From:  squareFromDTO(m.From),
		To:    squareFromDTO(m.To),
	}
	switch out.Type {
	case chess.MoveStandard:
		if m.Captures != nil {
			c, err := pieceFromDTO(*m.Captures)
			if err != nil {
				return chess.Move{}, err
			}
			out.Captures = &c
		}
	case chess.MoveCastle:
		if m.Rook != nil {
			rp, err := pieceFromDTO(m.Rook.Piece)
			if err != nil {
				return chess.Move{}, err
			}
			out.Rook = &chess.RookMove{Piece: rp, From: squareFromDTO(m.Rook.From), To: squareFromDTO(m.Rook.To)}
		}
	}
	if err := out.Validate(); err != nil {
		return chess.Move{}, err
	}
	return out, nil
}

// PositionToDTO converts a position to the wire board. Slices are never nil.
func PositionToDTO(pos chess.Position) (chessdto.Board, error) {
	board := chessdto.Board{
		Pieces: make([]chessdto.Piece, 0, len(pos.Pieces)),
		Turn:   string(pos.Turn),
		Width:  pos.Width,
		Height: pos.Height,
		Moves:  make([]chessdto.Move, 0, len(pos.History)),
	}
	for _, p := range pos.Pieces {
		board.Pieces = append(board.Pieces, pieceToDTO(p))
	}
	for _, m := range pos.History {
		dm, err := MoveToDTO(m)
		if err != nil {
			return chessdto.Board{}, err
		}
		board.Moves = append(board.Moves, dm)
	}
	return board, nil
}

// PositionFromDTO converts a wire board and checks its structural invariants.
func PositionFromDTO(b chessdto.Board) (chess.Position, error) {
	pos := chess.Position{
		Width:   b.Width,
		Height:  b.Height,
		Turn:    chess.Side(b.Turn),
		Pieces:  make([]chess.Piece, 0, len(b.Pieces)),
		History: make([]chess.Move, 0, len(b.Moves)),
	}
	for _, p := range b.Pieces {
		pc, err := pieceFromDTO(p)
		if err != nil {
			return chess.Position{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		pos.Pieces = append(pos.Pieces, pc)
	}
	for _, m := range b.Moves {
		mv, err := MoveFromDTO(m)
		if err != nil {
			return chess.Position{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		pos.History = append(pos.History, mv)
	}
	if err := pos.Validate(); err != nil {
		return chess.Position{}, err
	}
	return pos, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// gameRecord is the stored form of g: the wire record without computed status.
func gameRecord(g *Game) (*chessdto.Game, error) {
	board, err := PositionToDTO(g.Board)
	if err != nil {
		return nil, err
	}
	return &chessdto.Game{
		ID:        g.ID,
		Creator:   g.Creator,
		Board:     board,
		White:     optional(g.WhiteID),
		Black:     optional(g.BlackID),
		CreatedAt: g.CreatedAt.UnixMilli(),
		UpdatedAt: g.UpdatedAt.UnixMilli(),
	}, nil
}

func gameFromRecord(rec *chessdto.Game) (*Game, error) {
	if rec == nil || rec.ID == "" {
		return nil, ErrBadRecord
	}
	pos, err := PositionFromDTO(rec.Board)
	if err != nil {
		return nil, err
	}
	g := &Game{
		ID:      rec.ID,
		Creator: rec.Creator,
		Board:   pos,
	}
	if rec.White != nil {
		g.WhiteID = *rec.White
	}
	if rec.Black != nil {
		g.BlackID = *rec.Black
	}
	if rec.CreatedAt > 0 {
		g.CreatedAt = time.UnixMilli(rec.CreatedAt)
	}
	if rec.UpdatedAt > 0 {
		g.UpdatedAt = time.UnixMilli(rec.UpdatedAt)
	}
	return g, nil
}

// StatusToDTO renders st with a catalog summary. A nil catalog leaves Summary empty.
func StatusToDTO(st chess.Status, cat *msgcat.Catalog) chessdto.Status {
	return chessdto.Status{
		Turn:      string(st.Turn),
		Check:     st.Check,
		Checkmate: st.Checkmate,
		Stalemate: st.Stalemate,
		Summary:   summary(st, cat),
	}
}

func summary(st chess.Status, cat *msgcat.Catalog) string {
	data := map[string]string{"Turn": string(st.Turn), "Winner": string(st.Turn.Opposite())}
	switch {
	case st.Checkmate:
		return cat.RenderOr("status.checkmate", data, "")
	case st.Stalemate:
		return cat.RenderOr("status.stalemate", data, "")
	case st.Check:
		return cat.RenderOr("status.check", data, "")
	default:
		return cat.RenderOr("status.to_move", data, "")
	}
}
