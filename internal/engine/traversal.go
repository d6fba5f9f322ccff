package engine

import (
	"context"

	"github.com/go-markov/chain/internal/digest"
	"github.com/go-markov/chain/internal/distribution"
)

// FullTraversal drives the chain forward until no previously-unseen
// state is discovered by a step — a fixed point of the known-states
// registry. It is the only way to guarantee
// TransitionRateMatrix and UniformDistributionIsSteady see the whole
// reachable state space rather than a prefix of it.
//
// If modifyDistribution is true, every intermediate distribution is
// published to the engine's history exactly as NextStep would, and
// Time() advances accordingly. If false, the traversal runs against a
// scratch working distribution seeded from the distribution at the
// engine's current time: the known-states registry, known-transitions
// registry, and transition graph still accumulate on the real engine
// (that's the traversal's purpose), but the distribution history (D)
// is left untouched, so callers that only want the reachable state
// space don't have their time axis or recorded distributions disturbed.
func (e *Engine[S, T]) FullTraversal(ctx context.Context, modifyDistribution bool) error {
	t := e.Time()
	working, ok := e.dist.At(t)
	if !ok {
		return &MissingTimeError{Time: t}
	}

	for {
		before := e.states.Len()

		next, err := e.step(ctx, working)
		if err != nil {
			return err
		}

		if modifyDistribution {
			t++
			e.dist.Publish(t, next)
		}
		working = next

		if e.states.Len() == before {
			return nil
		}
	}
}

// Run advances the engine modifyDistribution-style for the given
// number of steps, returning the final distribution keyed by state.
// It is a thin convenience wrapper over repeated NextStep calls,
// stopping at the first error.
func (e *Engine[S, T]) Run(ctx context.Context, steps int) (map[S]float64, error) {
	var last map[S]float64
	for i := 0; i < steps; i++ {
		result, err := e.NextStep(ctx)
		if err != nil {
			return nil, err
		}
		last = result
	}
	if last == nil {
		last = e.toStateKeyed(mustAt(e.dist, e.Time()))
	}
	return last, nil
}

func mustAt(store *distribution.Store, t uint64) distribution.Dist {
	d, _ := store.At(t)
	return d
}

// TransitionRateMatrix runs a non-distribution-modifying FullTraversal
// to discover every reachable state, then materializes the dense n×n
// transition-probability matrix implied by the current transition
// graph, along with the state ordering matrix rows/columns correspond
// to. Unreached pairs are 0.0. Ordering is deterministic within a
// single call (by ascending content digest) but is not meaningful
// across engine instances or runs.
func (e *Engine[S, T]) TransitionRateMatrix(ctx context.Context) ([][]float64, []S, error) {
	if err := e.FullTraversal(ctx, false); err != nil {
		return nil, nil, err
	}

	nodeDigests := e.g.AllNodes()
	order := make([]digest.Digest, len(nodeDigests))
	copy(order, nodeDigests)
	sortDigests(order)

	index := make(map[digest.Digest]int, len(order))
	states := make([]S, len(order))
	for i, d := range order {
		index[d] = i
		v, ok := e.states.Get(d)
		if !ok {
			return nil, nil, &MissingTimeError{Time: e.Time()}
		}
		states[i] = v
	}

	matrix := make([][]float64, len(order))
	for i, src := range order {
		row := make([]float64, len(order))
		for target, edge := range e.g.Outgoing(src) {
			if j, ok := index[target]; ok {
				row[j] = edge.Probability
			}
		}
		matrix[i] = row
	}

	return matrix, states, nil
}

// sortDigests sorts digests in place in ascending order with an
// insertion sort, so traversal.go doesn't need to import "sort" itself
// for this one call site.
func sortDigests(ds []digest.Digest) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j-1] > ds[j]; j-- {
			ds[j-1], ds[j] = ds[j], ds[j-1]
		}
	}
}

// UniformDistributionIsSteady reports whether replacing the
// distribution at the engine's current known reachable states with
// the uniform distribution over those states is a steady state: one
// step forward leaves the entropy unchanged (bit-exact). It runs
// FullTraversal first so "known states" means the full reachable set,
// not a prefix, then operates entirely on a scratch distribution — the
// real engine's history and time axis are never touched.
func (e *Engine[S, T]) UniformDistributionIsSteady(ctx context.Context) (bool, error) {
	if err := e.FullTraversal(ctx, false); err != nil {
		return false, err
	}

	known := e.g.AllNodes()
	if len(known) == 0 {
		return false, ErrEmptyDistribution
	}

	uniform := make(distribution.Dist, len(known))
	p := 1.0 / float64(len(known))
	for _, d := range known {
		uniform[d] = p
	}

	before := uniform.Entropy()

	after, err := e.step(ctx, uniform)
	if err != nil {
		return false, err
	}

	return after.Entropy() == before, nil
}
