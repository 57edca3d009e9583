package bpm

// dropDetector holds the configurable thresholds for C7.
type dropDetector struct {
	energyRatio     float64 // recent/history energy ratio that counts as a drop
	energyFloor     float64 // absolute floor on recent energy
	confidenceFloor float64 // fine confidence required before a drop can fire
}

func defaultDropDetector() dropDetector {
	return dropDetector{
		energyRatio:     1.5,
		energyFloor:     0.01,
		confidenceFloor: 0.5,
	}
}

// detect splits the peak-normalised fine window at 75% and compares the
// mean-square energy of the tail to the head. A drop requires the tail to
// exceed the threshold ratio AND an absolute floor AND fineConfidence to
// clear the detector's own confidence precondition.
func (d dropDetector) detect(v []float64, fineConfidence float64) bool {
	if fineConfidence <= d.confidenceFloor {
		return false
	}

	k := (3 * len(v)) / 4

	historyCount := k
	if historyCount < 1 {
		historyCount = 1
	}
	var historySumSq float64
	for i := 0; i < k && i < len(v); i++ {
		historySumSq += v[i] * v[i]
	}
	historyEnergy := historySumSq / float64(historyCount)

	recentCount := len(v) - k
	if recentCount < 1 {
		recentCount = 1
	}
	var recentSumSq float64
	for i := k; i < len(v); i++ {
		recentSumSq += v[i] * v[i]
	}
	recentEnergy := recentSumSq / float64(recentCount)

	return recentEnergy > d.energyRatio*historyEnergy && recentEnergy > d.energyFloor
}
