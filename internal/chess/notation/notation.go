// Package notation renders engine moves as UCI, SAN and PGN text by replaying them on
// github.com/corentings/chess. Only the standard 8x8 board has a textual form.
package notation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/choss/internal/chess"
)

var (
	ErrBoardSize = errors.New("notation requires an 8x8 board")
	ErrBadUCI    = errors.New("malformed uci move")
)

func squareName(sq chess.Square) (string, error) {
	if sq.X < 0 || sq.X > 7 || sq.Y < 0 || sq.Y > 7 {
		return "", fmt.Errorf("%w: square %s", ErrBoardSize, sq)
	}
	return string([]byte{byte('a' + sq.X), byte('1' + sq.Y)}), nil
}

func parseSquare(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.Square{}, false
	}
	return chess.Square{X: int(s[0] - 'a'), Y: int(s[1] - '1')}, true
}

// UCI encodes m as origin and destination squares ("e2e4"). Castles use the king's squares.
func UCI(m chess.Move) (string, error) {
	switch m.Type {
	case chess.MoveStandard, chess.MoveCastle:
	default:
		return "", fmt.Errorf("%w: %q", chess.ErrUnknownMoveType, m.Type)
	}
	from, err := squareName(m.From)
	if err != nil {
		return "", err
	}
	to, err := squareName(m.To)
	if err != nil {
		return "", err
	}
	return from + to, nil
}

// ParseUCI splits "e2e4" into squares.
func ParseUCI(s string) (chess.Square, chess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 {
		return chess.Square{}, chess.Square{}, fmt.Errorf("%w: %q", ErrBadUCI, s)
	}
	from, ok1 := parseSquare(s[:2])
	to, ok2 := parseSquare(s[2:])
	if !ok1 || !ok2 {
		return chess.Square{}, chess.Square{}, fmt.Errorf("%w: %q", ErrBadUCI, s)
	}
	return from, to, nil
}

// FromUCI builds the submission for a UCI string: the piece standing on the origin
// square moving to the destination. Legality is not checked here.
func FromUCI(pos chess.Position, s string) (chess.Move, error) {
	from, to, err := ParseUCI(s)
	if err != nil {
		return chess.Move{}, err
	}
	piece, ok := pos.PieceAt(from)
	if !ok {
		return chess.Move{}, fmt.Errorf("%w: no piece on %s", ErrBadUCI, s[:2])
	}
	return chess.Move{Type: chess.MoveStandard, Piece: piece, From: from, To: to}, nil
}

// Record is a game's move list in both notations. SAN may be shorter than UCI when the
// reference engine rejects a move (a pawn reaching the last rank is never promoted here).
type Record struct {
	UCI []string
	SAN []string
}

// Complete reports whether every move has a SAN rendering.
func (r Record) Complete() bool { return len(r.SAN) == len(r.UCI) }

// Replay renders history. UCI is always complete; SAN stops at the first move the
// reference engine cannot follow.
func Replay(history []chess.Move) (Record, error) {
	rec := Record{UCI: make([]string, 0, len(history)), SAN: make([]string, 0, len(history))}
	for _, m := range history {
		uci, err := UCI(m)
		if err != nil {
			return Record{}, err
		}
		rec.UCI = append(rec.UCI, uci)
	}

	game := nchess.NewGame()
	for _, uci := range rec.UCI {
		pos := game.Position()
		mv, err := nchess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			break
		}
		if err := game.Move(mv, nil); err != nil {
			break
		}
		rec.SAN = append(rec.SAN, nchess.AlgebraicNotation{}.Encode(pos, mv))
	}
	return rec, nil
}

// Result maps the status of the side to move onto a PGN result token.
func Result(st chess.Status) string {
	switch {
	case st.Checkmate && st.Turn == chess.White:
		return "0-1"
	case st.Checkmate && st.Turn == chess.Black:
		return "1-0"
	case st.Stalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Termination names how a finished game ended.
func Termination(st chess.Status) string {
	switch {
	case st.Checkmate:
		return "checkmate"
	case st.Stalemate:
		return "stalemate"
	default:
		return ""
	}
}

// Header carries the PGN tag pairs.
type Header struct {
	Event       string
	Site        string
	Date        time.Time
	White       string
	Black       string
	Termination string
	Result      string
}

// PGN renders rec under h. Moves without SAN fall back to their UCI text.
func PGN(h Header, rec Record) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	result := h.Result
	if result == "" {
		result = "*"
	}
	event := h.Event
	if event == "" {
		event = "choss"
	}
	site := h.Site
	if site == "" {
		site = "?"
	}
	fmt.Fprintf(&b, "[Event \"%s\"]\n", sanitize(event))
	fmt.Fprintf(&b, "[Site \"%s\"]\n", sanitize(site))
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitize(h.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitize(h.Black))
	if strings.TrimSpace(h.Termination) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitize(h.Termination))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	moves := make([]string, len(rec.UCI))
	for i := range rec.UCI {
		if i < len(rec.SAN) {
			moves[i] = rec.SAN[i]
		} else {
			moves[i] = rec.UCI[i]
		}
	}
	for i := 0; i < len(moves); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, moves[i])
		if i+1 < len(moves) {
			b.WriteString(" ")
			b.WriteString(moves[i+1])
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
