package pvpchan

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/choss/internal/obslog"
)

// Registry maps game ids to their subscribers in registration order.
type Registry struct {
	mu     sync.RWMutex
	games  map[string][]Subscriber
	bySub  map[string]map[string]struct{}
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = obslog.L()
	}
	return &Registry{
		games:  make(map[string][]Subscriber),
		bySub:  make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// Subscribe appends sub to gameID's list. A subscriber already present keeps its
// position; the return value reports whether it was added.
func (r *Registry) Subscribe(gameID string, sub Subscriber) (bool, error) {
	if strings.TrimSpace(gameID) == "" || sub == nil {
		return false, ErrInvalidArgs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.games[gameID] {
		if s.ID() == sub.ID() {
			return false, nil
		}
	}
	r.games[gameID] = append(r.games[gameID], sub)
	idx := r.bySub[sub.ID()]
	if idx == nil {
		idx = make(map[string]struct{})
		r.bySub[sub.ID()] = idx
	}
	idx[gameID] = struct{}{}
	return true, nil
}

func (r *Registry) Unsubscribe(gameID, subID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(gameID, subID)
}

// UnsubscribeAll drops subID from every game and returns the affected game ids.
func (r *Registry) UnsubscribeAll(subID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for gameID := range r.bySub[subID] {
		out = append(out, gameID)
	}
	for _, gameID := range out {
		r.removeLocked(gameID, subID)
	}
	return out
}

func (r *Registry) removeLocked(gameID, subID string) {
	list := r.games[gameID]
	for i, s := range list {
		if s.ID() != subID {
			continue
		}
		next := make([]Subscriber, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(r.games, gameID)
		} else {
			r.games[gameID] = next
		}
		break
	}
	if idx := r.bySub[subID]; idx != nil {
		delete(idx, gameID)
		if len(idx) == 0 {
			delete(r.bySub, subID)
		}
	}
}

// Subscribers returns a snapshot of gameID's subscribers.
func (r *Registry) Subscribers(gameID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Subscriber(nil), r.games[gameID]...)
}

func (r *Registry) Count(gameID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games[gameID])
}

// Games returns the number of games with at least one subscriber.
func (r *Registry) Games() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Broadcast sends payload to gameID's subscribers in registration order and returns
// the number of accepted sends. Dropped sends are logged and skipped.
func (r *Registry) Broadcast(gameID string, payload []byte) int {
	delivered := 0
	for _, s := range r.Subscribers(gameID) {
		if s.Send(payload) {
			delivered++
			continue
		}
		r.logger.Warn("broadcast_dropped", zap.String("game_id", gameID), zap.String("subscriber", s.ID()))
	}
	return delivered
}
