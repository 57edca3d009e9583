package bpm

/*------------------------------------------------------------------
 *
 * Purpose:	Feed a single push of input samples into three ring
 *		buffers running at different rates: raw (for the noise
 *		gate), fine (filtered + rectified + decimated), and
 *		coarse (fine, further decimated).
 *
 *----------------------------------------------------------------*/

import "math"

type multiRateBuffer struct {
	filter *biquadChain

	fineStep   int
	coarseStep int

	raw    *ringBuffer
	fine   *ringBuffer
	coarse *ringBuffer

	scratchFineOut []float64 // fine-rate samples produced by this push only
}

func newMultiRateBuffer(filter *biquadChain, fineStep, coarseStep int, rawCap, fineCap, coarseCap int) *multiRateBuffer {
	return &multiRateBuffer{
		filter:     filter,
		fineStep:   fineStep,
		coarseStep: coarseStep,
		raw:        newRingBuffer(rawCap),
		fine:       newRingBuffer(fineCap),
		coarse:     newRingBuffer(coarseCap),
	}
}

// push decimates samples into the fine and raw buffers by averaging groups
// of fineStep input samples, then decimates the fine output produced by
// this call into the coarse buffer by averaging groups of coarseStep.
func (m *multiRateBuffer) push(samples []float32) {
	m.scratchFineOut = m.scratchFineOut[:0]

	for start := 0; start < len(samples); start += m.fineStep {
		end := start + m.fineStep
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[start:end]

		var sum float64
		for _, x := range chunk {
			y := m.filter.process(float64(x))
			sum += math.Abs(y)
		}
		fineVal := sum / float64(len(chunk))
		m.fine.push(fineVal)
		m.scratchFineOut = append(m.scratchFineOut, fineVal)

		var rawSum float64
		for _, x := range chunk {
			xf := float64(x)
			rawSum += xf * xf
		}
		m.raw.push(rawSum / float64(len(chunk)))
	}

	for start := 0; start < len(m.scratchFineOut); start += m.coarseStep {
		end := start + m.coarseStep
		if end > len(m.scratchFineOut) {
			end = len(m.scratchFineOut)
		}
		chunk := m.scratchFineOut[start:end]

		var sum float64
		for _, v := range chunk {
			sum += v
		}
		m.coarse.push(sum / float64(len(chunk)))
	}
}
