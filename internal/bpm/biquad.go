package bpm

/*------------------------------------------------------------------
 *
 * Purpose:	Second-order section (biquad) filters used to build the
 *		band-pass pre-emphasis ahead of the tempo correlator.
 *
 * Description:	Coefficients follow the RBJ Audio-EQ-Cookbook formulas
 *		for a Butterworth (Q = 1/sqrt(2)) low-pass / high-pass
 *		section. Each section is a plain value type holding its
 *		own two-sample state (transposed Direct Form II), so a
 *		cascade is just a slice of sections processed in order.
 *		No polymorphism, no allocation on the hot path.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"math"
)

const sqrt2Inv = 0.70710678118654752440 // 1/sqrt(2), Butterworth Q

// biquadKind selects which RBJ formula a section's coefficients come from.
type biquadKind int

const (
	biquadLowPass biquadKind = iota
	biquadHighPass
)

// biquadSection is a single transposed Direct-Form-II second-order section.
type biquadSection struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64 // state reservoirs
}

func newBiquadSection(kind biquadKind, sampleRate, cutoffHz float64) (biquadSection, error) {
	nyquist := sampleRate / 2
	if cutoffHz <= 0 || cutoffHz >= nyquist {
		return biquadSection{}, fmt.Errorf("bpm: cutoff %.2f Hz is not below Nyquist (%.2f Hz)", cutoffHz, nyquist)
	}

	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * sqrt2Inv)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case biquadLowPass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	case biquadHighPass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	}
	a0 = 1 + alpha
	a1 = -2 * cosW0
	a2 = 1 - alpha

	return biquadSection{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}, nil
}

// process runs one sample through the section, mutating its state.
func (s *biquadSection) process(x float64) float64 {
	y := s.b0*x + s.z1
	s.z1 = s.b1*x - s.a1*y + s.z2
	s.z2 = s.b2*x - s.a2*y
	return y
}

// biquadChain is the 4th-order Butterworth band-pass built from two
// high-pass sections at lowCutoffHz followed by two low-pass sections at
// highCutoffHz, isolating drum-band frequencies (HP·HP·LP·LP).
type biquadChain struct {
	sections []biquadSection
}

func newBandPassChain(sampleRate, lowCutoffHz, highCutoffHz float64) (*biquadChain, error) {
	hp1, err := newBiquadSection(biquadHighPass, sampleRate, lowCutoffHz)
	if err != nil {
		return nil, err
	}
	hp2, err := newBiquadSection(biquadHighPass, sampleRate, lowCutoffHz)
	if err != nil {
		return nil, err
	}
	lp1, err := newBiquadSection(biquadLowPass, sampleRate, highCutoffHz)
	if err != nil {
		return nil, err
	}
	lp2, err := newBiquadSection(biquadLowPass, sampleRate, highCutoffHz)
	if err != nil {
		return nil, err
	}
	return &biquadChain{sections: []biquadSection{hp1, hp2, lp1, lp2}}, nil
}

func (c *biquadChain) process(x float64) float64 {
	out := x
	for i := range c.sections {
		out = c.sections[i].process(out)
	}
	return out
}
