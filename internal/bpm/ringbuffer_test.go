package bpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRingBufferEvictsOldest(t *testing.T) {
	r := newRingBuffer(3)
	r.push(1)
	r.push(2)
	r.push(3)
	r.push(4)

	out := r.copyInto(make([]float64, 0, 3))
	require.Len(t, out, 3)
	assert.Equal(t, []float64{2, 3, 4}, out)
}

func TestRingBufferCapacityInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(t, "capacity")
		pushes := rapid.IntRange(0, 256).Draw(t, "pushes")

		r := newRingBuffer(capacity)
		for i := 0; i < pushes; i++ {
			r.push(float64(i))
			assert.LessOrEqual(t, r.Len(), capacity)
		}
		if pushes >= capacity {
			assert.Equal(t, capacity, r.Len())
		}
	})
}
