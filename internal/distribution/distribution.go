// Package distribution holds the per-time-step probability mass
// function over state digests and the entropy/sum
// queries defined over it.
package distribution

import (
	"math"
	"sync"

	"github.com/go-markov/chain/internal/digest"
)

// Dist maps a state digest to its probability mass at one time step.
type Dist map[digest.Digest]float64

// Clone returns a shallow copy of d, safe to mutate independently.
func (d Dist) Clone() Dist {
	out := make(Dist, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sum returns the total probability mass in d.
func (d Dist) Sum() float64 {
	var total float64
	for _, p := range d {
		total += p
	}
	return total
}

// Entropy returns the Shannon entropy of d in bits:
// H = |Σ p·log2(p)| over nonzero p, taking the absolute value to
// neutralize the sign introduced by log2 of values in (0,1). Entropy is
// 0 on the empty support and on single-atom distributions, which falls
// out of the formula directly (a single atom with p=1 contributes
// 1·log2(1) = 0).
func (d Dist) Entropy() float64 {
	var h float64
	for _, p := range d {
		if p > 0 {
			h += p * math.Log2(p)
		}
	}
	return math.Abs(h)
}

// Store is the append-only, time-indexed history of distributions: a
// map from simulated time to the distribution recorded at that time.
// Entries are never deleted.
type Store struct {
	mu      sync.RWMutex
	history map[uint64]Dist
	latest  uint64
	hasAny  bool
}

// NewStore creates a Store seeded with the distribution at time 0.
func NewStore(initial Dist) *Store {
	return &Store{
		history: map[uint64]Dist{0: initial},
		latest:  0,
		hasAny:  true,
	}
}

// Publish records dist as the distribution at time t. Callers are
// responsible for only ever publishing t = Time()+1 (the engine's
// Stepper is the sole writer).
func (s *Store) Publish(t uint64, dist Dist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[t] = dist
	if !s.hasAny || t > s.latest {
		s.latest = t
		s.hasAny = true
	}
}

// At returns the distribution recorded at time t, or false if none was
// ever published for that time.
func (s *Store) At(t uint64) (Dist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.history[t]
	return d, ok
}

// StateProbability returns the probability of state digest sd at time
// t, or 0.0 if t is unrecorded or sd has no mass at t.
func (s *Store) StateProbability(sd digest.Digest, t uint64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.history[t]
	if !ok {
		return 0.0
	}
	return d[sd]
}

// Time returns the largest time present in the store (0 if only the
// initial distribution exists).
func (s *Store) Time() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// All returns a snapshot of the full distribution history.
func (s *Store) All() map[uint64]Dist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]Dist, len(s.history))
	for t, d := range s.history {
		out[t] = d.Clone()
	}
	return out
}
