package utils

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) Int64N {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Int64N
}

func TestIsProbablePrime(t *testing.T) {
	primes := []int64{2, 3, 5, 1009, 7919, 9973, 104729}
	composites := []int64{-7, 0, 1, 4, 1001, 7917, 9999, 561, 1105} // 561, 1105 are Carmichael numbers
	for _, p := range primes {
		assert.True(t, IsProbablePrime(p, 1), "%d should be prime", p)
	}
	for _, c := range composites {
		assert.False(t, IsProbablePrime(c, 20), "%d should be composite", c)
	}
}

func TestRandomPrimeInRange(t *testing.T) {
	next := seeded(42)
	seen := map[int64]bool{}
	for i := 0; i < 200; i++ {
		p, err := RandomPrimeInRange(next, 1000, 10000, 16)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, int64(1000))
		assert.Less(t, p, int64(10000))
		assert.True(t, IsProbablePrime(p, 16))
		seen[p] = true
	}
	// 1061 primes in [1000,10000); 200 draws should rarely collide much
	assert.Greater(t, len(seen), 150)
}

func TestRandomPrimeExcluding(t *testing.T) {
	// 11 and 13 are the only primes in [10,14)
	next := seeded(1)
	for i := 0; i < 50; i++ {
		p, err := RandomPrimeExcluding(next, 10, 14, 10, 11)
		require.NoError(t, err)
		assert.Equal(t, int64(13), p)
	}

	_, err := RandomPrimeExcluding(next, 13, 14, 10, 13)
	assert.ErrorIs(t, err, ErrNoPrime)
}

func TestRandomPrimeInRangeEmpty(t *testing.T) {
	_, err := RandomPrimeInRange(seeded(3), 24, 29, 10)
	assert.ErrorIs(t, err, ErrNoPrime)

	_, err = RandomPrimeInRange(seeded(3), 100, 100, 10)
	assert.ErrorIs(t, err, ErrNoPrime)
}
