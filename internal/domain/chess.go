package domain

import "time"

// ChessGame is the archived result of a finished game.
type ChessGame struct {
	GameID       string
	Creator      string
	WhiteID      string
	BlackID      string
	Result       string
	ResultMethod string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}
