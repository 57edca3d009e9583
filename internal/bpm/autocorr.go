package bpm

import "errors"

// errNoCorrelation and errLowConfidence are the two ways an autocorrelation
// search can fail to produce an estimate; both collapse to a silent "no
// estimate" for the batch at the façade level.
var (
	errNoCorrelation = errors.New("bpm: no positive correlation in lag range")
	errLowConfidence = errors.New("bpm: confidence below threshold")
)

type corrResult struct {
	lag        int
	confidence float64
	maxCorr    float64
}

// correlationAt computes r(lag) = sum_i v[i]*v[i+lag] for the centred
// window v. Shared by the search, the octave corrector, and the parabolic
// refiner so they all use the identical inner product.
func correlationAt(v []float64, lag int) float64 {
	if lag <= 0 || lag >= len(v) {
		return 0
	}
	var sum float64
	n := len(v) - lag
	for i := 0; i < n; i++ {
		sum += v[i] * v[i+lag]
	}
	return sum
}

// searchCorrelation performs an exhaustive lag search over [minLag, maxLag]
// clamped to the signal length, returning the best lag, its normalised
// confidence, and the raw correlation at that lag.
func searchCorrelation(v []float64, energySum float64, minLag, maxLag int, minConfidence float64) (corrResult, error) {
	safeMax := len(v) - 1
	start := minLag
	if start < 1 {
		start = 1
	}
	end := maxLag
	if end > safeMax {
		end = safeMax
	}

	bestLag := 0
	maxCorr := 0.0
	for lag := start; lag <= end; lag++ {
		corr := correlationAt(v, lag)
		if corr > maxCorr {
			maxCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return corrResult{}, errNoCorrelation
	}

	confidence := 0.0
	if energySum > 0 {
		confidence = maxCorr / energySum
	}
	if confidence < minConfidence {
		return corrResult{}, errLowConfidence
	}

	return corrResult{lag: bestLag, confidence: confidence, maxCorr: maxCorr}, nil
}
