package chess

import "errors"

var (
	// ErrNoKing reports a corrupted position: a side has no king when check is queried.
	ErrNoKing          = errors.New("invalid board, no king found")
	ErrUnknownMoveType = errors.New("unhandled move type")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidMove     = errors.New("invalid move")
)
