package pvp

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Seater decides seat order with one fair coin flip per call. Safe for concurrent use.
type Seater struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeater returns a deterministic Seater; equal seeds give equal flip sequences.
func NewSeater(seed int64) *Seater {
	return &Seater{rng: rand.New(rand.NewSource(seed))}
}

// NewRandomSeater seeds from crypto/rand, falling back to the clock.
func NewRandomSeater() *Seater {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewSeater(seed)
}

// Assign seats creator and joiner. Heads puts the creator on white.
func (s *Seater) Assign(creator, joiner string) Seats {
	s.mu.Lock()
	heads := s.rng.Intn(2) == 0
	s.mu.Unlock()
	if heads {
		return Seats{White: creator, Black: joiner}
	}
	return Seats{White: joiner, Black: creator}
}

func (s *Seater) SetSeed(seed int64) {
	s.mu.Lock()
	s.rng = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}
