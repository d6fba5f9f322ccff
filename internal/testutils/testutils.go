// Package testutils provides deterministic chain fixtures shared across
// the module's test suites: a one-dimensional random walk and an
// n-cycle, plus a counting generator for asserting "exactly once"
// cache behavior. These components are intended for internal use
// within the project's test suites and are not part of the public API.
package testutils

import (
	"sync/atomic"

	"github.com/go-markov/chain/internal/cache"
)

// RandomWalkGenerator returns a successor generator for the classic
// symmetric, reflecting-nowhere 1-D random walk over the integers:
// from state n, it steps to n+1 ("right") or n-1 ("left"), each with
// probability 0.5. The transition label is the step direction.
func RandomWalkGenerator() cache.Generator[int, string] {
	return func(n int) ([]cache.Successor[int, string], error) {
		return []cache.Successor[int, string]{
			{State: n + 1, Transition: "right", Probability: 0.5},
			{State: n - 1, Transition: "left", Probability: 0.5},
		}, nil
	}
}

// NCycle is a directed cycle of n states {0, ..., n-1}, where state i
// transitions to (i+1)%n with probability 1.0. It's a minimal fixture
// with a known, finite reachable set and a known uniform steady state
// (the cycle's transition matrix is doubly stochastic), used by the
// full-traversal and steady-state scenarios.
type NCycle struct {
	N int
}

// Generator returns the successor generator for this cycle.
func (c NCycle) Generator() cache.Generator[int, string] {
	n := c.N
	return func(i int) ([]cache.Successor[int, string], error) {
		return []cache.Successor[int, string]{
			{State: (i + 1) % n, Transition: "advance", Probability: 1.0},
		}, nil
	}
}

// CountingGenerator wraps a generator with an atomic call counter, for
// tests that assert memoization prevents redundant evaluation of a
// state already seen.
type CountingGenerator[S comparable, T any] struct {
	Calls atomic.Int64
	gen   cache.Generator[S, T]
}

// NewCountingGenerator wraps gen, counting every invocation.
func NewCountingGenerator[S comparable, T any](gen cache.Generator[S, T]) *CountingGenerator[S, T] {
	return &CountingGenerator[S, T]{gen: gen}
}

// Generator returns the countable successor generator.
func (c *CountingGenerator[S, T]) Generator() cache.Generator[S, T] {
	return func(s S) ([]cache.Successor[S, T], error) {
		c.Calls.Add(1)
		return c.gen(s)
	}
}
