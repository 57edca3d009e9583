package bpm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmootherRequiresDropToInitiallyLock(t *testing.T) {
	s := newSmoother(defaultSmootherConfig())
	now := time.Now()

	_, ok := s.gate(120, 0.5, false, now)
	assert.False(t, ok, "unlocked smoother must reject a non-drop estimate even with high confidence")
	assert.Equal(t, 0.0, s.reference())

	res, ok := s.gate(120, 0.5, true, now)
	require.True(t, ok)
	assert.Equal(t, 120.0, res.bpm)
	assert.Equal(t, 120.0, s.reference())
}

func TestSmootherAcceptsHarmonicsOfReference(t *testing.T) {
	s := newSmoother(defaultSmootherConfig())
	now := time.Now()
	_, ok := s.gate(120, 0.5, true, now)
	require.True(t, ok)

	cases := []struct {
		name   string
		bpm    float64
		accept bool
	}{
		{"within 10%", 125, true},
		{"double", 240, true},
		{"half", 60, true},
		{"triple", 360, true},
		{"unrelated", 180, false},
	}
	for _, c := range cases {
		now = now.Add(time.Second)
		_, ok := s.gate(c.bpm, 0.5, false, now)
		assert.Equal(t, c.accept, ok, "case %s", c.name)
	}
}

func TestSmootherSilenceResetsReference(t *testing.T) {
	s := newSmoother(defaultSmootherConfig())
	now := time.Now()
	_, ok := s.gate(120, 0.5, true, now)
	require.True(t, ok)
	assert.Equal(t, 120.0, s.reference())

	later := now.Add(11 * time.Second)
	_, ok = s.gate(125, 0.5, false, later)
	assert.False(t, ok, "reference must have been cleared by the silence reset before this estimate arrives")
	assert.Equal(t, 0.0, s.reference())
}

func TestSmootherHistoryBoundedAndMedian(t *testing.T) {
	s := newSmoother(defaultSmootherConfig())
	now := time.Now()
	bpms := []float64{120, 121, 119, 122, 118, 200}
	_, ok := s.gate(bpms[0], 0.5, true, now)
	require.True(t, ok)

	for _, bpm := range bpms[1:5] {
		now = now.Add(time.Second)
		_, ok := s.gate(bpm, 0.5, false, now)
		require.True(t, ok)
	}
	assert.Equal(t, 5, s.history.len())

	// A 6th accepted estimate evicts the oldest (120).
	now = now.Add(time.Second)
	res, ok := s.gate(121, 0.5, false, now)
	require.True(t, ok)
	assert.Equal(t, 5, s.history.len())
	assert.InDelta(t, 121.0, res.bpm, 1.0) // median of {121,119,122,118,121}
}

func TestSmootherAdaptiveGateRejectsLowEnergy(t *testing.T) {
	s := newSmoother(defaultSmootherConfig())
	now := time.Now()
	_, ok := s.gate(120, 0.5, true, now)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		_, ok := s.gate(120, 0.5, false, now)
		require.True(t, ok)
	}

	now = now.Add(time.Second)
	_, ok = s.gate(120, 0.01, false, now) // well below 0.9*history and below 0.03 floor
	assert.False(t, ok)
}
