package pvpchess

import "context"

// Store keeps game records. Implementations must make Update atomic per game id:
// fn sees the latest stored value and its result is written only when fn returns nil.
type Store interface {
	// Create stores a new record; ErrGameExists when the id is taken.
	Create(ctx context.Context, g *Game) error
	// Load returns (nil, nil) for unknown ids.
	Load(ctx context.Context, id string) (*Game, error)
	// Update applies fn to a copy of the record and stores it. ErrGameNotFound for
	// unknown ids; an error from fn aborts without writing and is returned as is.
	Update(ctx context.Context, id string, fn func(*Game) error) (*Game, error)
	Close() error
}
