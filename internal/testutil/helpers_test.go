package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainNames(t *testing.T) {
	names := ChainNames("c", 3)
	assert.Equal(t, []string{"c000000", "c000001", "c000002"}, names)
	assert.True(t, IsSorted(names))
}

func TestShuffledNames_Deterministic(t *testing.T) {
	a := ShuffledNames("u", 100, 7)
	b := ShuffledNames("u", 100, 7)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, ChainNames("u", 100), a)
	assert.False(t, IsSorted(a))
}
