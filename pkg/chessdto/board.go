package chessdto

import "encoding/json"

const (
	MoveStandard = "standard"
	MoveCastle   = "castle"
)

type Square struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Piece struct {
	Name   string `json:"name"`
	Square Square `json:"square"`
	Side   string `json:"side"`
}

type RookMove struct {
	Piece Piece  `json:"piece"`
	From  Square `json:"from"`
	To    Square `json:"to"`
}

// Move is the wire form of the move union. Standard moves always carry "captures"
// (null when nothing is taken); castles carry "rook" instead.
type Move struct {
	Type     string    `json:"type"`
	Piece    Piece     `json:"piece"`
	From     Square    `json:"from"`
	To       Square    `json:"to"`
	Captures *Piece    `json:"captures,omitempty"`
	Rook     *RookMove `json:"rook,omitempty"`
}

type standardWire struct {
	Type     string `json:"type"`
	Piece    Piece  `json:"piece"`
	From     Square `json:"from"`
	To       Square `json:"to"`
	Captures *Piece `json:"captures"`
}

func (m Move) MarshalJSON() ([]byte, error) {
	if m.Type == MoveStandard {
		return json.Marshal(standardWire{Type: m.Type, Piece: m.Piece, From: m.From, To: m.To, Captures: m.Captures})
	}
	type plain Move
	return json.Marshal(plain(m))
}

type Board struct {
	Pieces []Piece `json:"pieces"`
	Turn   string  `json:"turn"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Moves  []Move  `json:"moves"`
}
