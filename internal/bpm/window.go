package bpm

// windowNorm holds the peak-normalised copy, its zero-mean centred copy,
// and the energy metrics computed over a ring buffer's contents.
type windowNorm struct {
	raw        []float64 // peak-normalised, in [-1, 1]
	centered   []float64 // raw minus its mean
	energySum  float64
	energyMean float64
}

// normalizeWindow copies buf's contents into rawOut/centeredOut (reusing
// their backing arrays) and computes peak normalisation, centering, and
// energy. rawOut and centeredOut are owned by the caller and must have
// enough capacity for buf.Len() elements; they are truncated/grown as
// needed via append semantics.
func normalizeWindow(buf *ringBuffer, rawOut, centeredOut []float64) windowNorm {
	raw := buf.copyInto(rawOut)

	max := 0.0
	for _, v := range raw {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for i := range raw {
			raw[i] /= max
		}
	}

	var mean float64
	if len(raw) > 0 {
		var sum float64
		for _, v := range raw {
			sum += v
		}
		mean = sum / float64(len(raw))
	}

	centered := centeredOut[:0]
	for _, v := range raw {
		centered = append(centered, v-mean)
	}

	var energySum float64
	for _, v := range centered {
		energySum += v * v
	}
	var energyMean float64
	if len(centered) > 0 {
		energyMean = energySum / float64(len(centered))
	}

	return windowNorm{
		raw:        raw,
		centered:   centered,
		energySum:  energySum,
		energyMean: energyMean,
	}
}
