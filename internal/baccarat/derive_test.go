package baccarat

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func TestDeriveIsDeterministic(t *testing.T) {
	commitment := seed("player secret")
	entropy := seed("house entropy")

	a, err := Derive(commitment, entropy, 1)
	require.NoError(t, err)
	b, err := Derive(commitment, entropy, 1)
	require.NoError(t, err)

	assert.Equal(t, a.Cards(), b.Cards())
	assert.Equal(t, ShoeSeed(commitment, entropy, 1), ShoeSeed(commitment, entropy, 1))
}

func TestDeriveDependsOnEveryInput(t *testing.T) {
	base, err := Derive(seed("c"), seed("e"), 1)
	require.NoError(t, err)

	otherCommitment, err := Derive(seed("c2"), seed("e"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, base.Cards(), otherCommitment.Cards())

	otherEntropy, err := Derive(seed("c"), seed("e2"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, base.Cards(), otherEntropy.Cards())

	swapped, err := Derive(seed("e"), seed("c"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, base.Cards(), swapped.Cards())
}

func TestDeriveIsPermutation(t *testing.T) {
	for decks := MinDecks; decks <= MaxDecks; decks++ {
		shoe, err := Derive(seed("c"), seed("e"), decks)
		require.NoError(t, err)
		require.Equal(t, decks*CardsPerDeck, shoe.Len())
		require.Equal(t, 0, shoe.Position())

		counts := make(map[Card]int)
		for _, c := range shoe.Cards() {
			counts[c]++
		}
		require.Len(t, counts, CardsPerDeck)
		for c, n := range counts {
			assert.Equal(t, decks, n, "card %s", c)
		}
	}
}

func TestDeriveRejectsDeckCount(t *testing.T) {
	for _, decks := range []int{-1, 0, MaxDecks + 1} {
		_, err := Derive(seed("c"), seed("e"), decks)
		assert.ErrorIs(t, err, ErrInvalidDeckCount)
	}
}

func TestDeriveFirstCardSpread(t *testing.T) {
	const trials = 5200
	counts := make(map[Card]int)
	commitment := seed("spread")
	for i := 0; i < trials; i++ {
		var entropy [32]byte
		entropy[0] = byte(i)
		entropy[1] = byte(i >> 8)
		shoe, err := Derive(commitment, entropy, 1)
		require.NoError(t, err)
		first, err := shoe.Draw()
		require.NoError(t, err)
		counts[first]++
	}

	// 100 expected per card; the bounds sit roughly six standard deviations out.
	require.Len(t, counts, CardsPerDeck)
	for c, n := range counts {
		assert.Greater(t, n, 40, "card %s", c)
		assert.Less(t, n, 160, "card %s", c)
	}
}

func TestHashRNGIntnBounds(t *testing.T) {
	rng := newHashRNG(seed("bounds"))
	for _, n := range []uint64{1, 2, 3, 52, 416, 1 << 40} {
		for i := 0; i < 200; i++ {
			assert.Less(t, rng.Intn(n), n)
		}
	}
	assert.Equal(t, uint64(0), rng.Intn(0))
}

func TestHashRNGStreamIsReproducible(t *testing.T) {
	a := newHashRNG(seed("stream"))
	b := newHashRNG(seed("stream"))
	bufA := make([]byte, 100)
	bufB := make([]byte, 100)
	a.read(bufA[:7])
	a.read(bufA[7:])
	b.read(bufB)
	assert.Equal(t, bufA, bufB)
}
