package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-markov/chain/rules"
)

// Rule composition with do-nothing.
func threeRules() []rules.Rule[int] {
	return []rules.Rule[int]{
		{
			Description: "forward",
			Condition:   func(int) bool { return true },
			Weight:      1.0,
			Action:      func(s int) int { return s + 1 },
		},
		{
			Description: "backward",
			Condition:   func(int) bool { return true },
			Weight:      1.0,
			Action:      func(s int) int { return s - 1 },
		},
		{
			Description: "return",
			Condition:   func(int) bool { return true },
			Weight:      0.1,
			Action:      func(int) int { return 0 },
		},
	}
}

func TestCompose_StateZeroHasThreeDistinctSuccessors(t *testing.T) {
	gen := rules.Compose(threeRules())

	successors, err := gen(0)
	require.NoError(t, err)
	require.Len(t, successors, 3)

	byState := make(map[int]float64, len(successors))
	for _, s := range successors {
		byState[s.State] += s.Probability
	}
	assert.Contains(t, byState, 1)
	assert.Contains(t, byState, -1)
	assert.Contains(t, byState, 0)

	assert.InDelta(t, 1.0/2.1, byState[1], 1e-9)
	assert.InDelta(t, 1.0/2.1, byState[-1], 1e-9)
	assert.InDelta(t, 0.1/2.1, byState[0], 1e-9)

	var sum float64
	for _, p := range byState {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCompose_DuplicateSuccessorsAreMerged(t *testing.T) {
	gen := rules.Compose(threeRules())

	// At state 1, "backward" (1->0) and "return" (1->0) collide.
	successors, err := gen(1)
	require.NoError(t, err)
	require.Len(t, successors, 2)

	var mergedDesc string
	var mergedP, forwardP float64
	for _, s := range successors {
		switch s.State {
		case 0:
			mergedDesc = s.Transition
			mergedP = s.Probability
		case 2:
			forwardP = s.Probability
		}
	}
	assert.Equal(t, "backward | return", mergedDesc)
	assert.InDelta(t, 1.1/2.1, mergedP, 1e-9)
	assert.InDelta(t, 1.0/2.1, forwardP, 1e-9)
}

func TestCompose_NoApplicableRulesIsAllNothing(t *testing.T) {
	gen := rules.Compose([]rules.Rule[int]{
		{
			Description: "never",
			Condition:   func(int) bool { return false },
			Weight:      0.5,
			Action:      func(s int) int { return s + 100 },
		},
	})

	successors, err := gen(7)
	require.NoError(t, err)
	require.Len(t, successors, 1)
	assert.Equal(t, 7, successors[0].State)
	assert.Equal(t, "Nothing", successors[0].Transition)
	assert.Equal(t, 1.0, successors[0].Probability)
}

func TestCompose_RejectsOutOfRangeWeight(t *testing.T) {
	gen := rules.Compose([]rules.Rule[int]{
		{
			Description: "bad",
			Condition:   func(int) bool { return true },
			Weight:      1.5,
			Action:      func(s int) int { return s },
		},
	})

	_, err := gen(0)
	assert.Error(t, err)
}

func TestMerge_RejectsCollidingDescriptions(t *testing.T) {
	base := []rules.Rule[int]{{Description: "forward", Condition: func(int) bool { return true }, Weight: 1.0, Action: func(s int) int { return s + 1 }}}
	extra := []rules.Rule[int]{{Description: "forward", Condition: func(int) bool { return true }, Weight: 0.5, Action: func(s int) int { return s }}}

	_, err := rules.Merge(base, extra)
	assert.Error(t, err)
}

func TestMerge_CombinesDisjointSets(t *testing.T) {
	base := []rules.Rule[int]{{Description: "forward", Condition: func(int) bool { return true }, Weight: 1.0, Action: func(s int) int { return s + 1 }}}
	extra := []rules.Rule[int]{{Description: "intervene", Condition: func(int) bool { return true }, Weight: 0.5, Action: func(s int) int { return 0 }}}

	merged, err := rules.Merge(base, extra)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}
