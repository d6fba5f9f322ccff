package cache_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-markov/chain/internal/cache"
)

func countingGenerator(calls *atomic.Int64) cache.Generator[int, string] {
	return func(s int) ([]cache.Successor[int, string], error) {
		calls.Add(1)
		return []cache.Successor[int, string]{
			{State: s + 1, Transition: "next", Probability: 0.5},
			{State: s - 1, Transition: "previous", Probability: 0.5},
		}, nil
	}
}

func TestCall_InvokesGeneratorExactlyOnce(t *testing.T) {
	var calls atomic.Int64
	m := cache.New(countingGenerator(&calls), 0)

	_, err := m.Call(5)
	require.NoError(t, err)
	_, err = m.Call(5)
	require.NoError(t, err)
	_, err = m.Call(5)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
}

func TestCall_ReturnsClonedSlice(t *testing.T) {
	var calls atomic.Int64
	m := cache.New(countingGenerator(&calls), 0)

	first, err := m.Call(1)
	require.NoError(t, err)
	first[0].Probability = 999

	second, err := m.Call(1)
	require.NoError(t, err)
	assert.NotEqual(t, 999.0, second[0].Probability, "mutating a returned slice must not corrupt the cache")
}

func TestBypass_SkipsCacheEntirely(t *testing.T) {
	var calls atomic.Int64
	m := cache.New(countingGenerator(&calls), 0)

	_, err := m.Call(1)
	require.NoError(t, err)
	_, err = m.Bypass(1)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestClear_ForcesRecompute(t *testing.T) {
	var calls atomic.Int64
	m := cache.New(countingGenerator(&calls), 0)

	_, err := m.Call(1)
	require.NoError(t, err)
	m.Clear()
	_, err = m.Call(1)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestCallMany_PopulatesCacheForSubsequentCall(t *testing.T) {
	var calls atomic.Int64
	m := cache.New(countingGenerator(&calls), 4)

	inputs := []int{0, 1, 2, 3, 4}
	results, err := m.CallMany(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	callsAfterBatch := calls.Load()
	assert.Equal(t, int64(len(inputs)), callsAfterBatch)

	for _, s := range inputs {
		_, err := m.Call(s)
		require.NoError(t, err)
	}
	assert.Equal(t, callsAfterBatch, calls.Load(), "values populated by CallMany must be served from cache")
}

func TestCallMany_PropagatesFirstError(t *testing.T) {
	gen := func(s int) ([]cache.Successor[int, string], error) {
		if s == 3 {
			return nil, fmt.Errorf("boom at %d", s)
		}
		return []cache.Successor[int, string]{{State: s, Transition: "t", Probability: 1.0}}, nil
	}
	m := cache.New[int, string](gen, 2)

	_, err := m.CallMany(context.Background(), []int{1, 2, 3, 4})
	assert.Error(t, err)
}
