// Package markov is the public facade over the chain engine: it
// re-exports the types and constructors external callers need so they
// never have to import internal/* directly. Collapsed into a plain
// sub-package of this single-module repo since the engine has no
// independent versioning story of its own to justify a nested module.
package markov

import (
	"context"

	"github.com/go-markov/chain/internal/engine"
	"github.com/go-markov/chain/internal/engineopts"
	"github.com/go-markov/chain/rules"
)

// Engine is the cached Markov-chain engine. S is the state type, T the
// transition-label type; both must be comparable.
type Engine[S comparable, T comparable] = engine.Engine[S, T]

// Successor is one outgoing transition a Generator returns for a state.
type Successor[S, T any] = engine.Successor[S, T]

// Generator is the user-supplied, pure, deterministic successor
// function a chain is built from.
type Generator[S, T any] = engine.Generator[S, T]

// StepObserver receives lifecycle notifications around NextStep, for
// optional instrumentation (see infrastructure/metrics, infrastructure/tracing).
type StepObserver = engine.StepObserver

// Options configures an Engine's concurrency limit and the tolerance
// for the initial distribution's sum. Row-stochasticity is checked by
// rounding to 10 decimal places and does not use Options.
type Options = engineopts.Options

// ValueEdge and ValueGraph are the value-typed (not digest-keyed) view
// of the engine's transition graph, as returned by
// (*Engine).StateTransitionGraph.
type ValueEdge[S, T any] = engine.ValueEdge[S, T]
type ValueGraph[S, T any] = engine.ValueGraph[S, T]

// Rule and the rule-composition entry points, re-exported so callers
// building a generator from rules don't need a second import.
type Rule[S any] = rules.Rule[S]
type EntityRule[S any] = rules.EntityRule[S]
type Set[S any] = rules.Set[S]

// Compose synthesizes a Generator from a rule set.
func Compose[S comparable](rs []Rule[S]) Generator[S, string] { return rules.Compose(rs) }

// ComposeEntities synthesizes a Generator from an entity rule set.
func ComposeEntities[S comparable](rs []EntityRule[S], set Set[S]) Generator[S, string] {
	return rules.ComposeEntities(rs, set)
}

// Merge combines a base rule set with an intervention rule set.
func Merge[S any](base, extra []Rule[S]) ([]Rule[S], error) { return rules.Merge(base, extra) }

// New creates an Engine whose initial distribution places probability
// 1.0 on initialState.
func New[S comparable, T comparable](initialState S, gen Generator[S, T], opts Options) (*Engine[S, T], error) {
	return engine.New(initialState, gen, opts)
}

// NewWithDistribution creates an Engine whose initial distribution is
// dist, which must sum to 1.0 within opts' configured tolerance.
func NewWithDistribution[S comparable, T comparable](dist map[S]float64, gen Generator[S, T], opts Options) (*Engine[S, T], error) {
	return engine.NewWithDistribution(dist, gen, opts)
}

// Run is a re-export of (*Engine).Run for call sites that prefer the
// free-function style; ctx is threaded through to every NextStep call.
func Run[S comparable, T comparable](ctx context.Context, e *Engine[S, T], steps int) (map[S]float64, error) {
	return e.Run(ctx, steps)
}
