package bpm

/*------------------------------------------------------------------
 *
 * Purpose:	C9, the analyser façade. One call per new sample batch,
 *		at most one AnalysisResult out. Composes C1-C8:
 *
 *		  input -> C1 -> C2(fine) -> C2(coarse)
 *		        -> (C3 -> C4 -> C5) on coarse
 *		        -> (C3 -> C4) on fine centred at coarse lag
 *		        -> C6 -> C7 -> C8 -> result?
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"time"
)

// AnalysisResult is the analyser's only externally visible output.
type AnalysisResult struct {
	BPM              float64
	Confidence       float64
	CoarseConfidence float64
	IsDrop           bool
	Energy           float64
	AverageEnergy    float64
	BeatOffset       time.Duration
}

// Analyser owns all buffers, filter state, history, and reference state
// exclusively; it exposes no shared references to its internals. A
// single call to Process runs to completion without blocking or
// yielding; an Analyser must not be shared across goroutines without
// external synchronisation.
type Analyser struct {
	cfg   Config
	rates rates

	filter *biquadChain
	buf    *multiRateBuffer
	drop   dropDetector
	smooth *smoother

	scratchCoarseRaw  []float64
	scratchCoarseCent []float64
	scratchFineRaw    []float64
	scratchFineCent   []float64
}

// New constructs an Analyser for cfg. Construction fails if a band-pass
// cutoff is at or above Nyquist.
func New(cfg Config) (*Analyser, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	r := deriveRates(cfg)

	filter, err := newBandPassChain(float64(cfg.InputRate), cfg.HighPassHz, cfg.LowPassHz)
	if err != nil {
		return nil, fmt.Errorf("bpm: construct filter: %w", err)
	}

	windowSamples := func(rate float64) int {
		return int(rate * cfg.WindowDuration.Seconds())
	}
	rawCap := windowSamples(r.fineRate)
	fineCap := rawCap
	coarseCap := windowSamples(r.coarseRate)

	a := &Analyser{
		cfg:    cfg,
		rates:  r,
		filter: filter,
		buf:    newMultiRateBuffer(filter, r.fineStep, r.coarseStep, rawCap, fineCap, coarseCap),
		drop:   cfg.Drop,
		smooth: newSmoother(cfg.Smoother),

		scratchCoarseRaw:  make([]float64, 0, coarseCap),
		scratchCoarseCent: make([]float64, 0, coarseCap),
		scratchFineRaw:    make([]float64, 0, fineCap),
		scratchFineCent:   make([]float64, 0, fineCap),
	}
	return a, nil
}

// Reset discards all accumulated buffers, filter state, and lock/history
// state, leaving the analyser configured for the same sample rate (spec
// §6 CaptureReset). A sample-rate change instead requires a new Analyser
// via New, since the filter coefficients and derived rates depend on it.
func (a *Analyser) Reset() {
	filter, _ := newBandPassChain(float64(a.cfg.InputRate), a.cfg.HighPassHz, a.cfg.LowPassHz)
	a.filter = filter
	a.buf = newMultiRateBuffer(filter, a.rates.fineStep, a.rates.coarseStep,
		a.buf.raw.capacity(), a.buf.fine.capacity(), a.buf.coarse.capacity())
	a.smooth = newSmoother(a.cfg.Smoother)
}

// ReferenceBPM returns the current reference tempo, 0 if unlocked.
func (a *Analyser) ReferenceBPM() float64 { return a.smooth.reference() }

// Process pushes one batch of mono samples in [-1, 1] through the full
// pipeline and returns at most one AnalysisResult. The second return
// value is false whenever any stage rejects the batch: not yet enough
// history, the noise gate, a failed correlation search, or the
// smoother/lock gate.
func (a *Analyser) Process(batch []float32) (AnalysisResult, bool) {
	a.buf.push(batch)

	if !a.buf.coarse.full() {
		return AnalysisResult{}, false
	}

	if meanOf(a.buf.raw) < a.cfg.NoiseGateFloor {
		return AnalysisResult{}, false
	}

	coarseNorm := normalizeWindow(a.buf.coarse, a.scratchCoarseRaw, a.scratchCoarseCent)
	a.scratchCoarseRaw, a.scratchCoarseCent = coarseNorm.raw, coarseNorm.centered
	if coarseNorm.energyMean <= a.cfg.CoarseEnergyFloor {
		return AnalysisResult{}, false
	}

	coarseResult, err := searchCorrelation(coarseNorm.centered, coarseNorm.energySum,
		a.rates.coarseMinLag, a.rates.coarseMaxLag, a.cfg.Thresholds.Coarse)
	if err != nil {
		return AnalysisResult{}, false
	}

	coarseLag := correctOctave(coarseNorm.centered, coarseResult.lag, coarseResult.maxCorr, a.rates.coarseMinLag)

	centerLagFine := coarseLag * a.rates.coarseStep
	minLagFine := centerLagFine - a.cfg.SearchRadius
	maxLagFine := centerLagFine + a.cfg.SearchRadius

	fineNorm := normalizeWindow(a.buf.fine, a.scratchFineRaw, a.scratchFineCent)
	a.scratchFineRaw, a.scratchFineCent = fineNorm.raw, fineNorm.centered

	fineResult, err := searchCorrelation(fineNorm.centered, fineNorm.energySum,
		minLagFine, maxLagFine, a.cfg.Thresholds.Fine)
	if err != nil {
		return AnalysisResult{}, false
	}

	safeMax := len(fineNorm.centered) - 1
	startLag := minLagFine
	if startLag < 1 {
		startLag = 1
	}
	endLag := maxLagFine
	if endLag > safeMax {
		endLag = safeMax
	}
	refinedLag := refineLag(fineNorm.centered, fineResult.lag, fineResult.maxCorr, startLag, endLag)

	bpmRaw := round1(a.rates.fineRate * 60 / refinedLag)

	isDrop := a.drop.detect(fineNorm.raw, fineResult.confidence)

	now := a.cfg.Clock()
	smoothed, ok := a.smooth.gate(bpmRaw, fineNorm.energyMean, isDrop, now)
	if !ok {
		return AnalysisResult{}, false
	}

	beatOffset := beatOffsetOf(fineNorm.raw, isDrop, a.rates.fineRate)

	return AnalysisResult{
		BPM:              smoothed.bpm,
		Confidence:       fineResult.confidence,
		CoarseConfidence: coarseResult.confidence,
		IsDrop:           isDrop,
		Energy:           fineNorm.energyMean,
		AverageEnergy:    smoothed.energyAverage,
		BeatOffset:       beatOffset,
	}, true
}

func meanOf(r *ringBuffer) float64 {
	if r.Len() == 0 {
		return 0
	}
	var sum float64
	n := len(r.data)
	for i := 0; i < r.len; i++ {
		sum += r.data[(r.head+i)%n]
	}
	return sum / float64(r.Len())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// beatOffsetOf locates the argmax of the peak-normalised fine window (for
// drops, restricted to the most recent 25%) and converts the distance from
// the end of the window into a duration.
func beatOffsetOf(v []float64, isDrop bool, fineRate float64) time.Duration {
	if len(v) == 0 {
		return 0
	}
	searchStart := 0
	if isDrop {
		searchStart = (len(v) * 3) / 4
	}

	maxVal := 0.0
	maxIdx := searchStart
	for i := searchStart; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			maxIdx = i
		}
	}

	samplesSincePeak := len(v) - 1 - maxIdx
	if samplesSincePeak < 0 {
		samplesSincePeak = 0
	}
	seconds := float64(samplesSincePeak) / fineRate
	return time.Duration(seconds * float64(time.Second))
}
