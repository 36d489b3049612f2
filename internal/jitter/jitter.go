// Package jitter supplies the random variation used for synthetic prices,
// mileages and market baselines.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields values in [0, 1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a goroutine-safe Source. A zero seed uses the clock.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Fixed always returns the same value. Useful in tests.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Factor maps a draw from src onto [1-spread, 1+spread).
func Factor(src Source, spread float64) float64 {
	return 1 + (src.Float64()*2-1)*spread
}

// Apply scales base by a Factor and rounds to the nearest integer.
func Apply(src Source, base int, spread float64) int {
	v := float64(base) * Factor(src, spread)
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
