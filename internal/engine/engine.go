// Package engine implements the cached Markov-chain engine: the
// stepper that advances a probability distribution one tick by
// invoking the memoized generator in parallel, validating row
// stochasticity, and folding successor mass into the next distribution;
// and the reachability/analysis algorithms built on top of it.
package engine

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-markov/chain/internal/cache"
	"github.com/go-markov/chain/internal/concurrency"
	"github.com/go-markov/chain/internal/digest"
	"github.com/go-markov/chain/internal/distribution"
	"github.com/go-markov/chain/internal/engineopts"
	"github.com/go-markov/chain/internal/graph"
)

// Successor is a re-export of cache.Successor so callers constructing
// generators don't need to import the cache package directly.
type Successor[S, T any] = cache.Successor[S, T]

// Generator is the user-supplied state-transition function: given a
// state, it returns the finite set of successor states, each tagged
// with a transition label and a transition probability. It must be
// pure, deterministic, and safe to call concurrently.
type Generator[S, T any] = cache.Generator[S, T]

// StepObserver receives lifecycle notifications around NextStep, for
// optional instrumentation (metrics, tracing). A nil observer (the
// zero value of Engine's observer field) performs no instrumentation.
type StepObserver interface {
	// BeforeStep is called with the time step about to be computed
	// (t0+1, where t0 is the engine's time before the call).
	BeforeStep(t uint64)
	// AfterStep is called once the step completes, successfully or not.
	AfterStep(t uint64, err error)
	// CacheEvent is called once per source state evaluated during a
	// step, reporting whether the memoized generator served it from
	// cache or invoked the user function.
	CacheEvent(hit bool)
}

// Engine is the cached Markov-chain engine. S is the user's state type,
// T the transition-label type; both must be comparable so they can key
// native Go maps — comparability gives equality and hashability for
// free, and values are passed by value throughout so no explicit Clone
// method is needed for the common case of value-typed S/T.
type Engine[S comparable, T comparable] struct {
	states      *digest.Registry[S]
	transitions *digest.Registry[T]
	g           *graph.Graph
	dist        *distribution.Store
	memo        *cache.Memo[S, T]

	initial          distribution.Dist
	concurrencyLimit int
	tolerance        float64

	observersMu sync.RWMutex
	observers   []StepObserver
}

// New creates an Engine whose initial distribution places probability
// 1.0 on initialState, using gen as the successor generator. Time 0 is
// registered with that single atom.
func New[S comparable, T comparable](initialState S, gen Generator[S, T], opts engineopts.Options) (*Engine[S, T], error) {
	return NewWithDistribution(map[S]float64{initialState: 1.0}, gen, opts)
}

// NewWithDistribution creates an Engine whose initial distribution is
// dist, a map from state to probability whose values must sum to 1.0
// within the configured tolerance. All states in dist are interned and
// added as nodes to the transition graph with no edges.
//
// An unnormalized dist is rejected rather than silently renormalized —
// the caller must normalize upstream.
func NewWithDistribution[S comparable, T comparable](dist map[S]float64, gen Generator[S, T], opts engineopts.Options) (*Engine[S, T], error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("markov: invalid options: %w", err)
	}
	if len(dist) == 0 {
		return nil, ErrEmptyDistribution
	}

	tolerance := opts.Tolerance()
	var sum float64
	for _, p := range dist {
		sum += p
	}
	if math.Abs(sum-1.0) > tolerance {
		return nil, &UnnormalizedDistributionError{Sum: sum}
	}

	e := &Engine[S, T]{
		states:           digest.NewRegistry[S](),
		transitions:      digest.NewRegistry[T](),
		g:                graph.New(),
		concurrencyLimit: concurrency.Limit(opts.ConcurrencyLimit),
		tolerance:        tolerance,
	}
	e.memo = cache.New(gen, e.concurrencyLimit)
	e.memo.SetCacheObserver(e.notifyCache)

	initial := make(distribution.Dist, len(dist))
	for s, p := range dist {
		d := digest.Hash(s)
		e.states.Intern(d, s)
		e.g.AddNode(d)
		initial[d] = p
	}
	e.initial = initial
	e.dist = distribution.NewStore(initial)

	return e, nil
}

// AddObserver registers an observer to be notified around future
// NextStep calls.
func (e *Engine[S, T]) AddObserver(o StepObserver) {
	e.observersMu.Lock()
	defer e.observersMu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine[S, T]) notifyBefore(t uint64) {
	e.observersMu.RLock()
	defer e.observersMu.RUnlock()
	for _, o := range e.observers {
		o.BeforeStep(t)
	}
}

func (e *Engine[S, T]) notifyAfter(t uint64, err error) {
	e.observersMu.RLock()
	defer e.observersMu.RUnlock()
	for _, o := range e.observers {
		o.AfterStep(t, err)
	}
}

func (e *Engine[S, T]) notifyCache(hit bool) {
	e.observersMu.RLock()
	defer e.observersMu.RUnlock()
	for _, o := range e.observers {
		o.CacheEvent(hit)
	}
}

// Time returns the largest time step present in the distribution
// history (0 if only the initial distribution exists).
func (e *Engine[S, T]) Time() uint64 { return e.dist.Time() }

// InitialDistribution returns the distribution at time 0, keyed by
// state.
func (e *Engine[S, T]) InitialDistribution() map[S]float64 {
	return e.toStateKeyed(e.initial)
}

// ProbabilityDistribution returns the distribution recorded at time t,
// keyed by state, or a MissingTimeError if t has no recorded
// distribution.
func (e *Engine[S, T]) ProbabilityDistribution(t uint64) (map[S]float64, error) {
	d, ok := e.dist.At(t)
	if !ok {
		return nil, &MissingTimeError{Time: t}
	}
	return e.toStateKeyed(d), nil
}

// ProbabilityDistributions returns a snapshot of the full distribution
// history, keyed by time then state.
func (e *Engine[S, T]) ProbabilityDistributions() map[uint64]map[S]float64 {
	all := e.dist.All()
	out := make(map[uint64]map[S]float64, len(all))
	for t, d := range all {
		out[t] = e.toStateKeyed(d)
	}
	return out
}

// StateProbability returns the probability of s at time t, or 0.0 if
// absent (from the distribution, or because s was never observed).
func (e *Engine[S, T]) StateProbability(s S, t uint64) float64 {
	return e.dist.StateProbability(digest.Hash(s), t)
}

// Entropy returns the Shannon entropy, in bits, of the distribution at
// time t. Returns a MissingTimeError if t has no recorded distribution.
func (e *Engine[S, T]) Entropy(t uint64) (float64, error) {
	d, ok := e.dist.At(t)
	if !ok {
		return 0, &MissingTimeError{Time: t}
	}
	return d.Entropy(), nil
}

// KnownStates returns every state discovered so far, in unspecified
// order.
func (e *Engine[S, T]) KnownStates() []S { return e.states.Values() }

// KnownTransitions returns every transition label discovered so far, in
// unspecified order.
func (e *Engine[S, T]) KnownTransitions() []T { return e.transitions.Values() }

// ValueEdge is one edge of a materialized value graph: the source and
// target states (not digests) plus the transition label and
// probability on that edge.
type ValueEdge[S, T any] struct {
	Source, Target S
	Transition     T
	Probability    float64
}

// ValueGraph is the externally-visible, value-typed view of the
// engine's internal digest-indexed transition graph: node weights are
// cloned state values, edge weights are (transition, probability)
// pairs. It is materialized on demand from the internal graph plus the
// two interning registries.
type ValueGraph[S, T any] struct {
	Nodes []S
	Edges []ValueEdge[S, T]
}

// StateTransitionGraph materializes the value graph view described
// above.
func (e *Engine[S, T]) StateTransitionGraph() ValueGraph[S, T] {
	nodeDigests := e.g.AllNodes()
	nodes := make([]S, 0, len(nodeDigests))
	for _, d := range nodeDigests {
		if v, ok := e.states.Get(d); ok {
			nodes = append(nodes, v)
		}
	}

	rawEdges := e.g.AllEdges()
	edges := make([]ValueEdge[S, T], 0, len(rawEdges))
	for _, re := range rawEdges {
		src, ok1 := e.states.Get(re.Source)
		tgt, ok2 := e.states.Get(re.Target)
		tr, ok3 := e.transitions.Get(re.Edge.Transition)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		edges = append(edges, ValueEdge[S, T]{
			Source:      src,
			Target:      tgt,
			Transition:  tr,
			Probability: re.Edge.Probability,
		})
	}
	return ValueGraph[S, T]{Nodes: nodes, Edges: edges}
}

// String renders a human-readable summary of the engine's current
// state: time, entropy, and known-state/transition counts. This is a
// debugging aid (a fmt.Stringer), not a serialization format.
func (e *Engine[S, T]) String() string {
	t := e.Time()
	h, _ := e.Entropy(t)
	return fmt.Sprintf(
		"Engine{time=%d entropy=%.6f known_states=%d known_transitions=%d nodes=%d edges=%d}",
		t, h, e.states.Len(), e.transitions.Len(), e.g.NodeCount(), e.g.EdgeCount(),
	)
}

func (e *Engine[S, T]) toStateKeyed(d distribution.Dist) map[S]float64 {
	out := make(map[S]float64, len(d))
	for sd, p := range d {
		if v, ok := e.states.Get(sd); ok {
			out[v] = p
		}
	}
	return out
}

// sortedDigests returns d's digests in ascending order. Nothing in the
// package calls it; TransitionRateMatrix orders its states with
// sortDigests in traversal.go.
func sortedDigests(d distribution.Dist) []digest.Digest {
	out := make([]digest.Digest, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
