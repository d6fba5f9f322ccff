// Package rules implements the rule-composition layer: synthesizing
// a single successor generator from an ordered collection of
// labeled, weighted rules, using a joint-non-firing-probability
// normalization policy.
//
// A Rule is a Bernoulli trial gated on its Condition: when the
// condition holds, the rule fires with probability proportional to its
// Weight, contributing its Action's result as a successor; when it
// doesn't fire (either because the condition is false, or by chance
// against the other rules' joint non-firing mass), probability mass
// accumulates on a "Nothing" self-loop.
package rules

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/go-markov/chain/internal/cache"
	"github.com/go-markov/chain/internal/digest"
)

// Rule is one candidate transition: when Condition(s) holds, it fires
// independently with probability Weight, producing Action(s) as a
// successor labeled Description.
type Rule[S any] struct {
	Description string
	Condition   func(S) bool
	Weight      float64
	Action      func(S) S
}

var validate = validator.New()

type weightCheck struct {
	Weight float64 `validate:"gte=0,lte=1"`
}

func validateWeight(w float64) error {
	if err := validate.Struct(weightCheck{Weight: w}); err != nil {
		return fmt.Errorf("rules: weight %v out of range [0,1]: %w", w, err)
	}
	return nil
}

type composedEntry[S any] struct {
	state  S
	weight float64
	desc   string
}

// Compose synthesizes a single successor generator from rs, following
// an eight-step algorithm:
//
//  1. Identify the applicable rules (Condition(s) true).
//  2. Evaluate each applicable rule's Action, keyed by successor digest.
//  3. Merge entries sharing a successor digest: sum weights, join
//     descriptions with " | " in encounter order.
//  4. Compute the joint non-firing probability across ALL applicable
//     rules, p_nothing = Π(1-w), not just the ones that survived
//     merging.
//  5. Normalize by W = p_nothing + Σ(merged weights).
//  6. Divide every merged weight by W.
//  7. Fold a "Nothing" self-loop of p_nothing/W into the output,
//     merging with any pre-existing self-loop entry.
//  8. Return the resulting successor list.
//
// The returned generator is pure and safe to call concurrently,
// provided every Rule's Condition and Action are themselves pure —
// the same contract the memoized generator's memoization relies on.
func Compose[S comparable](rs []Rule[S]) cache.Generator[S, string] {
	return func(s S) ([]cache.Successor[S, string], error) {
		entries := make(map[digest.Digest]*composedEntry[S])
		order := make([]digest.Digest, 0, len(rs))
		pNothing := 1.0

		for _, r := range rs {
			if !r.Condition(s) {
				continue
			}
			if err := validateWeight(r.Weight); err != nil {
				return nil, err
			}
			pNothing *= 1 - r.Weight

			successor := r.Action(s)
			d := digest.Hash(successor)
			if e, ok := entries[d]; ok {
				e.weight += r.Weight
				e.desc = e.desc + " | " + r.Description
				continue
			}
			entries[d] = &composedEntry[S]{state: successor, weight: r.Weight, desc: r.Description}
			order = append(order, d)
		}

		var sumW float64
		for _, e := range entries {
			sumW += e.weight
		}
		normalizer := pNothing + sumW
		if normalizer == 0 {
			return nil, fmt.Errorf("rules: normalization denominator is zero at state %v", s)
		}

		selfLoop := digest.Hash(s)
		out := make([]cache.Successor[S, string], 0, len(entries)+1)
		var sawSelfLoop bool
		var selfLoopDesc string
		var selfLoopP float64

		for _, d := range order {
			e := entries[d]
			p := e.weight / normalizer
			if d == selfLoop {
				sawSelfLoop = true
				selfLoopDesc = e.desc
				selfLoopP += p
				continue
			}
			out = append(out, cache.Successor[S, string]{State: e.state, Transition: e.desc, Probability: p})
		}

		if pNothing > 0 {
			nothingP := pNothing / normalizer
			if sawSelfLoop {
				selfLoopDesc += " | Nothing"
				selfLoopP += nothingP
			} else {
				sawSelfLoop = true
				selfLoopDesc = "Nothing"
				selfLoopP = nothingP
			}
		}
		if sawSelfLoop {
			out = append(out, cache.Successor[S, string]{State: s, Transition: selfLoopDesc, Probability: selfLoopP})
		}

		return out, nil
	}
}

// Merge composes a base rule set with an intervention rule set,
// rejecting the merge if any description collides between the two —
// an intervention is meant to add behavior, not silently shadow it.
// Descriptions within base or within extra are assumed already unique;
// Merge only guards the boundary between them.
func Merge[S any](base, extra []Rule[S]) ([]Rule[S], error) {
	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		seen[r.Description] = struct{}{}
	}
	for _, r := range extra {
		if _, collide := seen[r.Description]; collide {
			return nil, fmt.Errorf("rules: intervention rule %q collides with an existing rule description", r.Description)
		}
	}
	out := make([]Rule[S], 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out, nil
}
