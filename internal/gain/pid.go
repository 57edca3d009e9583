// Package gain implements a software input-gain regulator driven by a
// proportional-integral-derivative loop over the moving RMS of captured
// audio, multiplying samples in software so it works identically across
// capture backends rather than driving a hardware mixer control.
package gain

import (
	"math"
	"time"
)

// Controller holds PID loop state and gain limits. Zero value is not
// usable; construct with New.
type Controller struct {
	kp, ki, kd float64
	minGain    float64
	maxGain    float64

	integral  float64
	prevError float64
	gain      float64
	lastTick  time.Time
	clock     func() time.Time
	primed    bool
}

// Config holds the tunable PID gains and output bounds.
type Config struct {
	Kp, Ki, Kd  float64
	MinGain     float64
	MaxGain     float64
	InitialGain float64
	Clock       func() time.Time
}

// DefaultConfig returns conservative gains suitable for a slow-moving RMS
// setpoint loop (update once per processed batch, not per sample).
func DefaultConfig() Config {
	return Config{
		Kp:          0.6,
		Ki:          0.15,
		Kd:          0.05,
		MinGain:     0.1,
		MaxGain:     8.0,
		InitialGain: 1.0,
		Clock:       time.Now,
	}
}

// New builds a Controller from cfg.
func New(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		kp:      cfg.Kp,
		ki:      cfg.Ki,
		kd:      cfg.Kd,
		minGain: cfg.MinGain,
		maxGain: cfg.MaxGain,
		gain:    cfg.InitialGain,
		clock:   clock,
	}
}

// Gain returns the most recently computed gain multiplier.
func (c *Controller) Gain() float64 { return c.gain }

// Reset clears integral/derivative history without changing the current
// gain, so a subsequent Update doesn't see a derivative spike across a
// capture Reset.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
	c.primed = false
}

// Update computes the moving RMS of batch, steps the PID loop against
// setpoint, and returns the updated gain multiplier clamped to
// [minGain, maxGain].
func (c *Controller) Update(setpoint float64, batch []float32) float64 {
	now := c.clock()
	dt := c.stepDuration(now)
	c.lastTick = now

	rms := movingRMS(batch)
	errVal := setpoint - rms

	c.integral += errVal * dt
	derivative := 0.0
	if dt > 0 && c.primed {
		derivative = (errVal - c.prevError) / dt
	}
	c.prevError = errVal
	c.primed = true

	adjustment := c.kp*errVal + c.ki*c.integral + c.kd*derivative
	c.gain = clamp(c.gain+adjustment, c.minGain, c.maxGain)
	return c.gain
}

func (c *Controller) stepDuration(now time.Time) float64 {
	if c.lastTick.IsZero() {
		return 0
	}
	return now.Sub(c.lastTick).Seconds()
}

// Apply multiplies batch in place by the controller's current gain.
func (c *Controller) Apply(batch []float32) {
	g := float32(c.gain)
	for i, x := range batch {
		batch[i] = x * g
	}
}

func movingRMS(batch []float32) float64 {
	if len(batch) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range batch {
		v := float64(x)
		sumSq += v * v
	}
	mean := sumSq / float64(len(batch))
	return math.Sqrt(mean)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
