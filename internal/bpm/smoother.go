package bpm

import "time"

// smootherConfig collects the tunable thresholds for the smoother: all of
// them are knobs field-tuning will touch, so none are hard-coded deeper
// than this struct.
type smootherConfig struct {
	silenceReset      time.Duration
	adaptiveGateRatio float64
	adaptiveGateFloor float64
	historySize       int
}

func defaultSmootherConfig() smootherConfig {
	return smootherConfig{
		silenceReset:      10 * time.Second,
		adaptiveGateRatio: 0.9,
		adaptiveGateFloor: 0.03,
		historySize:       5,
	}
}

// smoother is C8: history + reference lock + adaptive gate + silence
// reset, composed behind a single gate(...) entry point.
type smoother struct {
	cfg     smootherConfig
	history *estimateHistory
	lock    *referenceLock
}

func newSmoother(cfg smootherConfig) *smoother {
	return &smoother{
		cfg:     cfg,
		history: newEstimateHistory(cfg.historySize),
		lock:    newReferenceLock(),
	}
}

// smoothedResult is what gate returns on acceptance.
type smoothedResult struct {
	bpm           float64
	energyAverage float64
}

// gate runs the full smoothing state machine for one candidate estimate
// and returns (result, true) if accepted, or (zero, false) if rejected.
// now is the caller-injected monotonic reading.
func (s *smoother) gate(bpm, energyMean float64, isDrop bool, now time.Time) (smoothedResult, bool) {
	if last, ok := s.history.last(); ok && now.Sub(last.timestamp) > s.cfg.silenceReset {
		s.history.clear()
		s.lock.reset()
	}

	// avgHistoryEnergy is computed once, before this estimate is pushed into
	// history: the adaptive gate checks the new energy against it, and the
	// same pre-push value is what the result reports as energyAverage.
	// Only bpm is smoothed post-push, over the history including this
	// sample's median.
	avgHistoryEnergy := s.history.meanEnergy()
	if s.history.len() > 0 {
		if energyMean < s.cfg.adaptiveGateRatio*avgHistoryEnergy && energyMean < s.cfg.adaptiveGateFloor {
			return smoothedResult{}, false
		}
	}

	if !s.lock.accept(bpm, isDrop) {
		return smoothedResult{}, false
	}

	s.history.push(historyEntry{bpm: bpm, energy: energyMean, timestamp: now})

	return smoothedResult{
		bpm:           s.history.medianBPM(bpm),
		energyAverage: avgHistoryEnergy,
	}, true
}

func (s *smoother) reference() float64 { return s.lock.reference }
