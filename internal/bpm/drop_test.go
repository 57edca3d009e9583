package bpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropDetectorFiresOnEnergySpike(t *testing.T) {
	d := defaultDropDetector()
	n := 100
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < (3*n)/4 {
			v[i] = 0.05
		} else {
			v[i] = 0.5
		}
	}
	assert.True(t, d.detect(v, 0.6))
}

func TestDropDetectorRequiresConfidence(t *testing.T) {
	d := defaultDropDetector()
	n := 100
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < (3*n)/4 {
			v[i] = 0.05
		} else {
			v[i] = 0.5
		}
	}
	assert.False(t, d.detect(v, 0.4))
}

func TestDropDetectorRequiresAbsoluteFloor(t *testing.T) {
	d := defaultDropDetector()
	n := 100
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < (3*n)/4 {
			v[i] = 0.0001
		} else {
			v[i] = 0.0003 // ratio exceeds 1.5x but absolute energy stays tiny
		}
	}
	assert.False(t, d.detect(v, 0.9))
}

func TestDropDetectorFlatSignalNoDrop(t *testing.T) {
	d := defaultDropDetector()
	v := make([]float64, 100)
	for i := range v {
		v[i] = 0.2
	}
	assert.False(t, d.detect(v, 0.9))
}
