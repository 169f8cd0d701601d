package chessdto

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Client -> server message types.
const (
	TypeNewGame  = "new-game"
	TypeJoinGame = "join-game"
	TypePlayMove = "play-move"
)

// Server -> client message types.
const (
	TypeGameCreated = "game-created"
	TypeGameUpdate  = "game-update"
)

// ClientMessage is the union of client requests; fields unused by Type are empty.
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	User string `json:"user"`
	Move *Move  `json:"move,omitempty"`
}

// ServerMessage is the union of server pushes.
type ServerMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Game *Game  `json:"game,omitempty"`
}

// DecodeClientMessage parses and shape-checks one client frame. Every failure wraps
// ErrMalformedMessage.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if strings.TrimSpace(msg.User) == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing user", ErrMalformedMessage)
	}
	switch msg.Type {
	case TypeNewGame:
	case TypeJoinGame:
		if strings.TrimSpace(msg.ID) == "" {
			return ClientMessage{}, fmt.Errorf("%w: missing id", ErrMalformedMessage)
		}
	case TypePlayMove:
		if strings.TrimSpace(msg.ID) == "" {
			return ClientMessage{}, fmt.Errorf("%w: missing id", ErrMalformedMessage)
		}
		if msg.Move == nil {
			return ClientMessage{}, fmt.Errorf("%w: missing move", ErrMalformedMessage)
		}
		switch msg.Move.Type {
		case MoveStandard:
			if msg.Move.Rook != nil {
				return ClientMessage{}, fmt.Errorf("%w: standard move with rook", ErrMalformedMessage)
			}
		case MoveCastle:
			if msg.Move.Rook == nil {
				return ClientMessage{}, fmt.Errorf("%w: castle without rook", ErrMalformedMessage)
			}
		default:
			return ClientMessage{}, fmt.Errorf("%w: move type %q", ErrMalformedMessage, msg.Move.Type)
		}
	default:
		return ClientMessage{}, fmt.Errorf("%w: type %q", ErrMalformedMessage, msg.Type)
	}
	return msg, nil
}

func GameCreated(id string) ServerMessage {
	return ServerMessage{Type: TypeGameCreated, ID: id}
}

func GameUpdate(g *Game) ServerMessage {
	return ServerMessage{Type: TypeGameUpdate, Game: g}
}
