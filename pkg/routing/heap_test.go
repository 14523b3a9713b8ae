package routing

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapOrdersByDist(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var h MinHeap
	var want []float64
	for i := 0; i < 200; i++ {
		d := rng.Float64() * 1000
		h.Push(uint32(i), d)
		want = append(want, d)
	}
	sort.Float64s(want)

	for i, w := range want {
		require.Equal(t, w, h.Pop().Dist, "pop %d", i)
	}
	assert.Zero(t, h.Len())
	assert.True(t, math.IsInf(h.PeekDist(), 1), "PeekDist on empty heap")
}

func TestMinHeapReset(t *testing.T) {
	var h MinHeap
	h.Push(1, 3)
	h.Push(2, 1)
	h.Reset()
	require.Zero(t, h.Len())
	h.Push(3, 5)
	assert.Equal(t, uint32(3), h.Pop().Node)
}
