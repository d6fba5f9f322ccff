package distribution_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-markov/chain/internal/digest"
	"github.com/go-markov/chain/internal/distribution"
)

func TestEntropy_SingleAtomIsZero(t *testing.T) {
	d := distribution.Dist{digest.Hash("a"): 1.0}
	assert.Equal(t, 0.0, d.Entropy())
}

func TestEntropy_EmptyIsZero(t *testing.T) {
	d := distribution.Dist{}
	assert.Equal(t, 0.0, d.Entropy())
}

func TestEntropy_TwoEqualAtomsIsOneBit(t *testing.T) {
	d := distribution.Dist{
		digest.Hash("a"): 0.5,
		digest.Hash("b"): 0.5,
	}
	assert.InDelta(t, 1.0, d.Entropy(), 1e-9)
}

func TestEntropy_FourEqualAtomsIsTwoBits(t *testing.T) {
	d := distribution.Dist{
		digest.Hash("a"): 0.25,
		digest.Hash("b"): 0.25,
		digest.Hash("c"): 0.25,
		digest.Hash("d"): 0.25,
	}
	assert.InDelta(t, 2.0, d.Entropy(), 1e-9)
}

func TestStore_TimeAndAt(t *testing.T) {
	initial := distribution.Dist{digest.Hash(0): 1.0}
	s := distribution.NewStore(initial)
	assert.Equal(t, uint64(0), s.Time())

	next := distribution.Dist{digest.Hash(1): 0.5, digest.Hash(-1): 0.5}
	s.Publish(1, next)
	assert.Equal(t, uint64(1), s.Time())

	got, ok := s.At(1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, got.Sum(), 1e-12)

	_, ok = s.At(2)
	assert.False(t, ok)
}

func TestStore_StateProbabilityMissing(t *testing.T) {
	s := distribution.NewStore(distribution.Dist{digest.Hash(0): 1.0})
	assert.Equal(t, 0.0, s.StateProbability(digest.Hash(99), 0))
	assert.Equal(t, 0.0, s.StateProbability(digest.Hash(0), 5))
}

func TestStore_Sum(t *testing.T) {
	s := distribution.NewStore(distribution.Dist{digest.Hash(0): 1.0})
	d, _ := s.At(0)
	assert.True(t, math.Abs(d.Sum()-1.0) < 1e-12)
}
