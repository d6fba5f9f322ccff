// Package cache implements the memoized, batch-parallel wrapper around
// the user-supplied successor generator: single-call
// lookups, a lock-free-read parallel batch evaluation with a serial
// cache-insert phase afterward, an explicit cache bypass, and clear.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-markov/chain/internal/concurrency"
)

// Successor is one outgoing transition from a source state: the
// successor state, its transition label, and the probability mass on
// that edge.
type Successor[S, T any] struct {
	State       S
	Transition  T
	Probability float64
}

// Generator is the user-supplied, pure, deterministic state-transition
// function. It must be safe to invoke concurrently from multiple
// goroutines.
type Generator[S, T any] func(s S) ([]Successor[S, T], error)

// Memo wraps a Generator with a cache keyed by S equality (not by
// digest, to avoid ambiguity from hash collisions in the function's
// domain).
//
// ConcurrencyLimit bounds CallMany's parallel fan-out; zero uses
// concurrency.DefaultLimit().
type Memo[S comparable, T any] struct {
	gen              Generator[S, T]
	concurrencyLimit int
	onCacheEvent     func(hit bool)

	mu    sync.RWMutex
	cache map[S][]Successor[S, T]
}

// New creates a Memo wrapping gen. concurrencyLimit <= 0 uses the
// package default.
func New[S comparable, T any](gen Generator[S, T], concurrencyLimit int) *Memo[S, T] {
	return &Memo[S, T]{
		gen:              gen,
		concurrencyLimit: concurrency.Limit(concurrencyLimit),
		cache:            make(map[S][]Successor[S, T]),
	}
}

// SetCacheObserver registers a callback invoked once per Call with
// whether the lookup was a cache hit, and once per CallMany input with
// hit=false (CallMany always invokes the generator). Intended for optional
// instrumentation (see infrastructure/metrics); nil disables it.
func (m *Memo[S, T]) SetCacheObserver(fn func(hit bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCacheEvent = fn
}

// Call returns the successor list for s, computing and caching it on a
// miss. The returned slice is a clone of the cached one so callers may
// freely mutate it.
func (m *Memo[S, T]) Call(s S) ([]Successor[S, T], error) {
	if hit, ok := m.lookup(s); ok {
		m.reportCacheEvent(true)
		return hit, nil
	}
	m.reportCacheEvent(false)
	result, err := m.gen(s)
	if err != nil {
		return nil, err
	}
	m.insert(s, result)
	return clone(result), nil
}

func (m *Memo[S, T]) reportCacheEvent(hit bool) {
	m.mu.RLock()
	fn := m.onCacheEvent
	m.mu.RUnlock()
	if fn != nil {
		fn(hit)
	}
}

// Bypass invokes the underlying generator directly, skipping both the
// cache read and the cache write. Call never re-invokes the user
// function for a state it has cached; Bypass does, and so does
// CallMany, which does not read the cache.
func (m *Memo[S, T]) Bypass(s S) ([]Successor[S, T], error) {
	return m.gen(s)
}

// Clear empties the cache.
func (m *Memo[S, T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[S][]Successor[S, T])
}

// CallMany evaluates the generator for every state in inputs in
// parallel, ignoring the cache for reads so the parallel phase stays
// lock-free, then inserts every (input, output) pair
// into the cache in a serial pass once the parallel phase completes.
// Because the generator is required to be pure and deterministic,
// recomputation under a concurrent cache miss is accepted as idempotent
// wasted work rather than guarded against. Each input is reported to the
// cache observer as a miss.
//
// CallMany returns one successor list per input, in the same order as
// inputs, or the first error encountered (via errgroup, which cancels
// the group's context on first error).
func (m *Memo[S, T]) CallMany(ctx context.Context, inputs []S) ([][]Successor[S, T], error) {
	results := make([][]Successor[S, T], len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrencyLimit)

	for i, s := range inputs {
		i, s := i, s
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out, err := m.gen(s)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range inputs {
		m.insert(s, results[i])
		m.reportCacheEvent(false)
	}

	return results, nil
}

func (m *Memo[S, T]) lookup(s S) ([]Successor[S, T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hit, ok := m.cache[s]
	if !ok {
		return nil, false
	}
	return clone(hit), true
}

func (m *Memo[S, T]) insert(s S, result []Successor[S, T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache[s]; !ok {
		m.cache[s] = result
	}
}

func clone[S, T any](in []Successor[S, T]) []Successor[S, T] {
	out := make([]Successor[S, T], len(in))
	copy(out, in)
	return out
}
