package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-markov/chain/internal/engine"
	"github.com/go-markov/chain/internal/engineopts"
	"github.com/go-markov/chain/internal/testutils"
)

// Scenario 3: full traversal over a 5-cycle discovers every reachable
// state and no more.
func TestFullTraversal_FiveCycleDiscoversAllStates(t *testing.T) {
	cycle := testutils.NCycle{N: 5}
	e, err := engine.New(0, cycle.Generator(), engineopts.Options{})
	require.NoError(t, err)

	require.NoError(t, e.FullTraversal(context.Background(), true))

	states := e.KnownStates()
	assert.Len(t, states, 5)
	for i := 0; i < 5; i++ {
		assert.Contains(t, states, i)
	}
}

func TestFullTraversal_NonModifyingLeavesDistributionHistoryAlone(t *testing.T) {
	cycle := testutils.NCycle{N: 5}
	e, err := engine.New(0, cycle.Generator(), engineopts.Options{})
	require.NoError(t, err)

	require.NoError(t, e.FullTraversal(context.Background(), false))

	// Time never advanced and only t=0 was ever recorded, but every
	// state was still discovered via the registries/graph.
	assert.Equal(t, uint64(0), e.Time())
	_, err = e.ProbabilityDistribution(1)
	assert.Error(t, err)

	assert.Len(t, e.KnownStates(), 5)
}

func TestFullTraversal_IsIdempotent(t *testing.T) {
	cycle := testutils.NCycle{N: 5}
	e, err := engine.New(0, cycle.Generator(), engineopts.Options{})
	require.NoError(t, err)

	require.NoError(t, e.FullTraversal(context.Background(), false))
	first := len(e.KnownStates())

	require.NoError(t, e.FullTraversal(context.Background(), false))
	assert.Equal(t, first, len(e.KnownStates()))
}

// Scenario 4: a cycle's uniform distribution is steady (doubly
// stochastic transition structure).
func TestUniformDistributionIsSteady_CycleIsSteady(t *testing.T) {
	cycle := testutils.NCycle{N: 5}
	e, err := engine.New(0, cycle.Generator(), engineopts.Options{})
	require.NoError(t, err)

	steady, err := e.UniformDistributionIsSteady(context.Background())
	require.NoError(t, err)
	assert.True(t, steady)
}

// Scenario 5: a skewed 3-state chain whose transition matrix is not
// doubly stochastic (column sums differ from 1), so the uniform
// distribution over its reachable states does not survive a step.
func TestUniformDistributionIsSteady_SkewedChainIsNotSteady(t *testing.T) {
	gen := func(n int) ([]engine.Successor[int, string], error) {
		switch n {
		case 0:
			return []engine.Successor[int, string]{{State: 1, Transition: "advance", Probability: 1.0}}, nil
		case 1:
			return []engine.Successor[int, string]{
				{State: 0, Transition: "back", Probability: 0.5},
				{State: 2, Transition: "advance", Probability: 0.5},
			}, nil
		default:
			return []engine.Successor[int, string]{{State: 0, Transition: "back", Probability: 1.0}}, nil
		}
	}
	e, err := engine.New(0, gen, engineopts.Options{})
	require.NoError(t, err)
	require.NoError(t, e.FullTraversal(context.Background(), false))

	steady, err := e.UniformDistributionIsSteady(context.Background())
	require.NoError(t, err)
	assert.False(t, steady)
}

func TestTransitionRateMatrix_FiveCycleIsPermutationMatrix(t *testing.T) {
	cycle := testutils.NCycle{N: 5}
	e, err := engine.New(0, cycle.Generator(), engineopts.Options{})
	require.NoError(t, err)

	matrix, states, err := e.TransitionRateMatrix(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 5)
	require.Len(t, matrix, 5)

	index := make(map[int]int, len(states))
	for i, s := range states {
		index[s] = i
	}

	for i := 0; i < 5; i++ {
		row := matrix[index[i]]
		var rowSum float64
		nonZero := 0
		for _, p := range row {
			if p != 0 {
				nonZero++
				rowSum += p
			}
		}
		assert.Equal(t, 1, nonZero, "cycle row must have exactly one outgoing edge")
		assert.InDelta(t, 1.0, rowSum, 1e-12)
		assert.Equal(t, 1.0, row[index[(i+1)%5]])
	}
}
