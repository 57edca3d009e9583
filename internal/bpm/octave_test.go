package bpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectOctavePromotesHalfLagWhenRatioExceeded(t *testing.T) {
	// Bar-line click train: a beat impulse every 30 samples, boosted on
	// every other beat (period 60, the "bar line"). A naive search over a
	// range that only contains the bar-line lag would lock onto 60; C5's
	// half-lag check must recover something near the true beat period 30
	// once that neighbourhood's correlation is strong enough relative to
	// the bar-line correlation.
	const beatLag = 30
	const barLag = 2 * beatLag
	n := 3000
	v := make([]float64, n)
	for i := 0; i < n; i += beatLag {
		v[i] = 0.8
	}
	for i := 0; i < n; i += barLag {
		v[i] = 1.0
	}
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(n)
	for i := range v {
		v[i] -= mean
	}

	barCorr := correlationAt(v, barLag)
	halfLag, halfCorr := bestInNeighborhood(v, barLag/2)
	exhibitsAmbiguity := halfCorr > halfLagRatio*barCorr
	assert.True(t, exhibitsAmbiguity, "test signal must actually exhibit the ambiguity it claims to (half corr %.2f, bar corr %.2f)", halfCorr, barCorr)

	corrected := correctOctave(v, barLag, barCorr, 5)
	assert.Equal(t, halfLag, corrected)
	assert.InDelta(t, beatLag, corrected, 1)
}

func TestCorrectOctaveLeavesStrongFundamentalAlone(t *testing.T) {
	const lag = 50
	v := clickTrain(3000, lag)
	corr := correlationAt(v, lag)
	corrected := correctOctave(v, lag, corr, 5)
	assert.Equal(t, lag, corrected)
}

func TestCorrectOctaveRespectsMinLag(t *testing.T) {
	const lag = 20
	v := clickTrain(2000, lag)
	corr := correlationAt(v, lag)
	// half of 20 is 10, below minLag of 15: must not promote below the floor.
	corrected := correctOctave(v, lag, corr, 15)
	assert.Equal(t, lag, corrected)
}
