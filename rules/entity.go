package rules

import (
	"fmt"
	"strings"

	"github.com/go-markov/chain/internal/cache"
	"github.com/go-markov/chain/internal/digest"
)

// EntityRule is one rule in the optional entity-composition variant of
// rule composition: it governs a single named entity within a larger
// state, firing independently of the other entity rules.
//
// Go maps are never comparable, so they cannot serve as the engine's
// state type S (the engine requires S comparable to key native maps
// for the interning registries and memoization cache). Where a state
// shaped as a map from entity name to entity data assumes a host
// language with structural map equality, this adapts the same
// idea to a comparable S plus a caller-supplied Set accessor: S is
// typically a small comparable struct, and Set returns the S with one
// named field replaced. Set replaces direct map indexing.
type EntityRule[S any] struct {
	Entity      string
	Description string
	Condition   func(S) bool
	Weight      float64
	Action      func(S) any
}

// Set replaces the named entity's value within s and returns the
// updated state. S is expected to be an immutable value type (a
// struct), so Set returns a modified copy rather than mutating s.
type Set[S any] func(s S, entity string, value any) S

// ComposeEntities synthesizes a successor generator from an entity rule set by
// enumerating its power set: for each of the 2^n subsets A of rules, it
// synthesizes a joint rule whose condition is the conjunction of A's
// members' conditions, whose weight is
// Π_{r∈A} w_r · Π_{r∉A} (1-w_r), and whose action applies exactly the
// entity updates named by A. Subsets whose conjunction fails, or whose
// joint weight is zero, are discarded; surviving subsets that land on
// the same resulting state are merged (weights summed, descriptions
// joined by " | "). The surviving weights are then divided by their sum,
// so the successor probabilities add up to 1 even when some rules'
// conditions fail; if no subset survives, the generator returns an
// error. This is an exact but exponential decomposition —
// there is no bound on rule count, so the caller is relied on to
// keep n small.
func ComposeEntities[S comparable](rules []EntityRule[S], set Set[S]) cache.Generator[S, string] {
	n := len(rules)
	return func(s S) ([]cache.Successor[S, string], error) {
		entries := make(map[digest.Digest]*composedEntry[S])
		order := make([]digest.Digest, 0, 1<<uint(n))

		for mask := 0; mask < (1 << uint(n)); mask++ {
			conjunctionHolds := true
			weight := 1.0
			var descs []string
			next := s

			for i, r := range rules {
				if mask&(1<<uint(i)) != 0 {
					if !r.Condition(s) {
						conjunctionHolds = false
						break
					}
					if err := validateWeight(r.Weight); err != nil {
						return nil, err
					}
					weight *= r.Weight
					next = set(next, r.Entity, r.Action(s))
					descs = append(descs, r.Description)
				} else {
					if err := validateWeight(r.Weight); err != nil {
						return nil, err
					}
					weight *= 1 - r.Weight
				}
			}

			if !conjunctionHolds || weight <= 0 {
				continue
			}

			desc := "Nothing"
			if len(descs) > 0 {
				desc = strings.Join(descs, " | ")
			}

			d := digest.Hash(next)
			if e, ok := entries[d]; ok {
				e.weight += weight
				if e.desc != desc {
					e.desc = e.desc + " | " + desc
				}
				continue
			}
			entries[d] = &composedEntry[S]{state: next, weight: weight, desc: desc}
			order = append(order, d)
		}

		var total float64
		for _, d := range order {
			total += entries[d].weight
		}
		if total == 0 {
			return nil, fmt.Errorf("rules: no entity-rule subset has nonzero weight at state %v", s)
		}

		out := make([]cache.Successor[S, string], 0, len(order))
		for _, d := range order {
			e := entries[d]
			out = append(out, cache.Successor[S, string]{State: e.state, Transition: e.desc, Probability: e.weight / total})
		}
		return out, nil
	}
}
