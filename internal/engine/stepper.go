package engine

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-markov/chain/internal/digest"
	"github.com/go-markov/chain/internal/distribution"
	"github.com/go-markov/chain/internal/graph"
)

// roundSum rounds a probability sum to 10 decimal places before
// comparing it against 1.0, absorbing floating-point arithmetic noise
// in row-stochasticity checks.
func roundSum(sum float64) float64 {
	const scale = 1e10
	return math.Round(sum*scale) / scale
}

// source pairs a known state with its probability mass at the current
// time step — the snapshot step 1 of the stepper algorithm operates on.
type source[S any] struct {
	digest digest.Digest
	state  S
	p      float64
}

// NextStep advances the distribution by one tick and returns the new
// distribution, keyed by state. It implements an eight-step algorithm:
//
//  1. snapshot the current distribution
//  2. batch-compute successors in parallel
//  3. validate row-stochasticity in parallel
//  4. fold successor contributions into the next distribution
//  5. publish the next distribution
//  6. intern newly observed states/transitions
//  7. update the transition graph
//  8. return the new distribution
//
// No partial step is ever published: if row-stochasticity validation
// fails, the distribution is left unchanged and the returned error
// identifies the offending source; the registries may gain the states
// freshly observed during the failed attempt (accepted since they are
// reachable in principle) but the graph gains no new edges.
func (e *Engine[S, T]) NextStep(ctx context.Context) (map[S]float64, error) {
	t0 := e.Time()
	nextT := t0 + 1
	e.notifyBefore(nextT)

	current, ok := e.dist.At(t0)
	if !ok {
		err := &MissingTimeError{Time: t0}
		e.notifyAfter(nextT, err)
		return nil, err
	}

	result, err := e.step(ctx, current)
	e.notifyAfter(nextT, err)
	if err != nil {
		return nil, err
	}

	e.dist.Publish(nextT, result)
	return e.toStateKeyed(result), nil
}

// step runs the eight-step algorithm's steps 1–4, 6, and 7 against an
// arbitrary input distribution, interning any newly observed states and
// transitions and updating the transition graph as a side effect. It
// never touches e.dist directly — callers decide whether and where to
// publish the returned distribution, which is what lets FullTraversal
// reuse the same algorithm without polluting the recorded history.
func (e *Engine[S, T]) step(ctx context.Context, current distribution.Dist) (distribution.Dist, error) {
	// Step 1: snapshot.
	sources := make([]source[S], 0, len(current))
	for sd, p := range current {
		st, ok := e.states.Get(sd)
		if !ok {
			continue
		}
		sources = append(sources, source[S]{digest: sd, state: st, p: p})
	}

	// Step 2: batch-compute successors in parallel.
	states := make([]S, len(sources))
	for i, src := range sources {
		states[i] = src.state
	}
	successorLists, err := e.memo.CallMany(ctx, states)
	if err != nil {
		return nil, err
	}

	// Step 3: validate row-stochasticity in parallel.
	if err := e.validateRows(ctx, sources, successorLists); err != nil {
		return nil, err
	}

	// Step 4: fold into next distribution, mutex-guarded.
	next, err := e.fold(ctx, sources, successorLists)
	if err != nil {
		return nil, err
	}

	// Step 6: intern newly observed states/transitions (serial).
	// Step 7: update the graph (serial).
	for i, src := range sources {
		for _, succ := range successorLists[i] {
			sd := digest.Hash(succ.State)
			td := digest.Hash(succ.Transition)
			e.states.Intern(sd, succ.State)
			e.transitions.Intern(td, succ.Transition)
			e.g.UpsertEdge(src.digest, sd, graph.Edge{Transition: td, Probability: succ.Probability})
		}
	}

	return next, nil
}

func (e *Engine[S, T]) validateRows(ctx context.Context, sources []source[S], lists [][]Successor[S, T]) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrencyLimit)

	for i := range sources {
		i := i
		g.Go(func() error {
			var sum float64
			for _, succ := range lists[i] {
				sum += succ.Probability
			}
			if rounded := roundSum(sum); rounded != 1.0 {
				return &NonStochasticRowError{Source: sources[i].digest, Sum: rounded}
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine[S, T]) fold(ctx context.Context, sources []source[S], lists [][]Successor[S, T]) (distribution.Dist, error) {
	next := make(distribution.Dist)
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrencyLimit)

	for i := range sources {
		i := i
		g.Go(func() error {
			src := sources[i]
			contributions := make(map[digest.Digest]float64, len(lists[i]))
			for _, succ := range lists[i] {
				sd := digest.Hash(succ.State)
				contributions[sd] += src.p * succ.Probability
			}
			mu.Lock()
			for sd, contribution := range contributions {
				next[sd] += contribution
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}
