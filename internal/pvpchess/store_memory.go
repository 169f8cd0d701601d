package pvpchess

import (
	"context"
	"strings"
	"sync"
)

type memEntry struct {
	mu   sync.Mutex
	game *Game
}

// memoryStore is the single-process Store. Records are copied on every read and write.
type memoryStore struct {
	mu    sync.RWMutex
	games map[string]*memEntry
}

func NewMemoryStore() Store {
	return &memoryStore{games: make(map[string]*memEntry)}
}

func (s *memoryStore) Create(_ context.Context, g *Game) error {
	if g == nil || strings.TrimSpace(g.ID) == "" {
		return ErrInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return ErrGameExists
	}
	s.games[g.ID] = &memEntry{game: g.Clone()}
	return nil
}

func (s *memoryStore) entry(id string) *memEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

func (s *memoryStore) Load(_ context.Context, id string) (*Game, error) {
	e := s.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.Clone(), nil
}

func (s *memoryStore) Update(_ context.Context, id string, fn func(*Game) error) (*Game, error) {
	e := s.entry(id)
	if e == nil {
		return nil, ErrGameNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.game.Clone()
	if err := fn(cur); err != nil {
		return nil, err
	}
	e.game = cur
	return cur.Clone(), nil
}

func (s *memoryStore) Close() error { return nil }
