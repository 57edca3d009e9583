// Package capture turns a live or synthetic audio source into a stream of
// Messages consumed by the processing goroutine.
package capture

// Message is the sum type pushed on a Source's channel. Exactly one of the
// concrete types below is carried per value.
type Message interface {
	isMessage()
}

// Samples carries one batch of mono float32 samples at the source's current
// rate.
type Samples struct {
	Data []float32
}

// Reset signals that the underlying stream was interrupted and resumed
// (e.g. a device glitch); the caller should clear any tempo lock.
type Reset struct{}

// SampleRateChanged signals the device was reopened at a new rate. The
// caller must reconstruct its bpm.Analyser for the new rate before
// processing further Samples.
type SampleRateChanged struct {
	Rate int
}

func (Samples) isMessage()           {}
func (Reset) isMessage()             {}
func (SampleRateChanged) isMessage() {}
