package bpm

import "time"

// BPMRange bounds the tempos the analyser will consider.
type BPMRange struct {
	Min float64
	Max float64
}

// ConfidenceThresholds are the minimum normalised correlation confidences
// required to accept a fine or coarse lag.
type ConfidenceThresholds struct {
	Fine   float64
	Coarse float64
}

// Config is the analyser's full, immutable-after-construction
// configuration. The octave-correction ratios (halfLagRatio,
// thirdLagRatio), the reference-lock harmonic tolerance
// (harmonicTolerance), the parabolic-fit guard and the decimation steps
// are package constants and are not set through Config.
type Config struct {
	InputRate      int
	WindowDuration time.Duration
	BPMRange       BPMRange
	Thresholds     ConfidenceThresholds

	// Band-pass pre-emphasis cutoffs.
	HighPassHz float64
	LowPassHz  float64

	// Fine search radius, in fine-rate samples, around the lag the coarse
	// stage hands off.
	SearchRadius int

	// Noise gate: batches are rejected outright when the mean of the raw
	// envelope buffer falls below this.
	NoiseGateFloor float64

	// Coarse-stage energy floor below which the coarse window is
	// considered too flat to search. Kept as a named knob rather than
	// relying on a division-by-near-zero producing a low confidence.
	CoarseEnergyFloor float64

	Drop     dropDetector
	Smoother smootherConfig

	// Clock supplies the monotonic time reading used for the silence
	// reset. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns sensible defaults for a given input sample rate:
// a 4s window, 60-310 BPM, fine/coarse confidence thresholds of 0.3/0.4,
// a 50-250 Hz band-pass, and a search radius of 50 samples.
func DefaultConfig(inputRate int) Config {
	return Config{
		InputRate:         inputRate,
		WindowDuration:    4 * time.Second,
		BPMRange:          BPMRange{Min: 60, Max: 310},
		Thresholds:        ConfidenceThresholds{Fine: 0.3, Coarse: 0.4},
		HighPassHz:        50,
		LowPassHz:         250,
		SearchRadius:      50,
		NoiseGateFloor:    0.005,
		CoarseEnergyFloor: 0.001,
		Drop:              defaultDropDetector(),
		Smoother:          defaultSmootherConfig(),
		Clock:             time.Now,
	}
}

// rates holds the sample rates and step sizes derived from a Config.
type rates struct {
	fineStep   int
	coarseStep int
	fineRate   float64
	coarseRate float64

	fineMinLag, fineMaxLag     int
	coarseMinLag, coarseMaxLag int
}

func deriveRates(cfg Config) rates {
	fineStep := 1
	if cfg.InputRate >= 44100 {
		fineStep = 4
	}
	coarseStep := 22

	fineRate := float64(cfg.InputRate) / float64(fineStep)
	coarseRate := fineRate / float64(coarseStep)

	lagBounds := func(rate float64) (int, int) {
		minLag := int(rate * 60 / cfg.BPMRange.Max)
		maxLag := int(rate * 60 / cfg.BPMRange.Min)
		return minLag, maxLag
	}

	fineMin, fineMax := lagBounds(fineRate)
	coarseMin, coarseMax := lagBounds(coarseRate)

	return rates{
		fineStep:     fineStep,
		coarseStep:   coarseStep,
		fineRate:     fineRate,
		coarseRate:   coarseRate,
		fineMinLag:   fineMin,
		fineMaxLag:   fineMax,
		coarseMinLag: coarseMin,
		coarseMaxLag: coarseMax,
	}
}
