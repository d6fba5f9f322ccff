package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-markov/chain/rules"
)

// world is a small comparable struct standing in for a "map of
// entities" — Go maps can't be the engine's state type S because maps
// are never comparable, so entity rules operate through a Set
// accessor instead of direct indexing. Its fields are exported so that
// digest.Hash can gob-encode it.
type world struct {
	Temperature int
	Alarm       bool
}

func setWorld(w world, entity string, value any) world {
	switch entity {
	case "temperature":
		w.Temperature = value.(int)
	case "alarm":
		w.Alarm = value.(bool)
	}
	return w
}

func TestComposeEntities_IndependentEntitiesProduceCrossProduct(t *testing.T) {
	entityRules := []rules.EntityRule[world]{
		{
			Entity:      "temperature",
			Description: "heat",
			Condition:   func(w world) bool { return true },
			Weight:      0.5,
			Action:      func(w world) any { return w.Temperature + 1 },
		},
		{
			Entity:      "alarm",
			Description: "trip",
			Condition:   func(w world) bool { return true },
			Weight:      0.2,
			Action:      func(w world) any { return true },
		},
	}
	gen := rules.ComposeEntities(entityRules, setWorld)

	successors, err := gen(world{Temperature: 10, Alarm: false})
	require.NoError(t, err)
	// 2^2 = 4 subsets, all with nonzero weight and distinct resulting
	// states, so all four should survive un-merged.
	require.Len(t, successors, 4)

	var sum float64
	for _, s := range successors {
		sum += s.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestComposeEntities_ZeroWeightSubsetIsDiscarded(t *testing.T) {
	entityRules := []rules.EntityRule[world]{
		{
			Entity:      "temperature",
			Description: "heat",
			Condition:   func(w world) bool { return true },
			Weight:      1.0,
			Action:      func(w world) any { return w.Temperature + 1 },
		},
	}
	gen := rules.ComposeEntities(entityRules, setWorld)

	// Weight 1.0 means the "rule does not fire" subset has joint
	// weight (1-1.0) = 0 and must be discarded, leaving exactly one
	// surviving subset.
	successors, err := gen(world{Temperature: 10})
	require.NoError(t, err)
	require.Len(t, successors, 1)
	assert.Equal(t, 11, successors[0].State.Temperature)
	assert.Equal(t, 1.0, successors[0].Probability)
}

func TestComposeEntities_UnmetConditionDiscardsSubset(t *testing.T) {
	entityRules := []rules.EntityRule[world]{
		{
			Entity:      "alarm",
			Description: "trip",
			Condition:   func(w world) bool { return w.Temperature > 100 },
			Weight:      0.5,
			Action:      func(w world) any { return true },
		},
	}
	gen := rules.ComposeEntities(entityRules, setWorld)

	successors, err := gen(world{Temperature: 10})
	require.NoError(t, err)
	// The only subset including the rule fails its condition, so only
	// the all-rules-absent subset survives.
	require.Len(t, successors, 1)
	assert.False(t, successors[0].State.Alarm)
	assert.Equal(t, 1.0, successors[0].Probability)
}
