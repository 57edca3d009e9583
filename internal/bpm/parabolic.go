package bpm

import "math"

// parabolicMinDenominator guards against dividing by a near-flat vertex.
const parabolicMinDenominator = 1e-4

// refineLag fits a quadratic through (lag-1, lag, lag+1) correlation
// samples and returns the vertex offset added to lag. If lag sits at the
// edge of the search range, or the fit is numerically degenerate, the
// integer lag is returned unchanged.
func refineLag(v []float64, lag int, corr float64, startLag, endLag int) float64 {
	refined := float64(lag)
	if lag <= startLag || lag >= endLag {
		return refined
	}

	prev := correlationAt(v, lag-1)
	next := correlationAt(v, lag+1)

	denominator := 2 * (prev - 2*corr + next)
	if math.Abs(denominator) <= parabolicMinDenominator {
		return refined
	}

	offset := (prev - next) / denominator
	return refined + offset
}
