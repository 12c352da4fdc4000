// internal/input/calibrator.go
package input

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// CalibrationState is the phase of a Calibrator.
type CalibrationState int

const (
	// CalibrationIdle means Begin has not been called since the last Reset.
	CalibrationIdle CalibrationState = iota
	// CalibrationSampling means samples are being accumulated.
	CalibrationSampling
	// CalibrationDone means the offset is final.
	CalibrationDone
)

func (s CalibrationState) String() string {
	switch s {
	case CalibrationIdle:
		return "idle"
	case CalibrationSampling:
		return "sampling"
	case CalibrationDone:
		return "done"
	default:
		return "unknown"
	}
}

// Calibrator measures the resting bias of the movement axes. It averages the
// raw samples seen during a window of unscaled time. If the very first sample
// already exceeds the dead zone the player is holding the stick on purpose, so
// calibration is skipped and the offset stays zero.
type Calibrator struct {
	duration float64
	deadZone float64

	state   CalibrationState
	first   bool
	skipped bool
	elapsed float64
	sum     r2.Vec
	samples int
	offset  r2.Vec
}

// NewCalibrator creates an idle calibrator.
func NewCalibrator(duration, deadZone float64) *Calibrator {
	return &Calibrator{duration: duration, deadZone: deadZone}
}

// Begin discards any previous measurement and starts a new window.
func (c *Calibrator) Begin() {
	c.state = CalibrationSampling
	c.first = true
	c.skipped = false
	c.elapsed = 0
	c.sum = r2.Vec{}
	c.samples = 0
	c.offset = r2.Vec{}
}

// Complete ends calibration with a zero offset without sampling. Used when
// calibration is disabled by configuration.
func (c *Calibrator) Complete() {
	c.state = CalibrationDone
	c.offset = r2.Vec{}
}

// Reset returns the calibrator to idle with a zero offset.
func (c *Calibrator) Reset() {
	*c = Calibrator{duration: c.duration, deadZone: c.deadZone}
}

// Tick feeds one raw sample taken after unscaledDelta seconds of wall-clock
// time. It reports whether calibration is done after this sample.
func (c *Calibrator) Tick(unscaledDelta float64, raw r2.Vec) bool {
	if c.state != CalibrationSampling {
		return c.state == CalibrationDone
	}

	if c.first {
		c.first = false
		if r2.Norm(raw) > c.deadZone {
			c.skipped = true
			c.finish(r2.Vec{})
			return true
		}
	}

	c.sum = r2.Add(c.sum, raw)
	c.samples++
	if unscaledDelta > 0 {
		c.elapsed += unscaledDelta
	}

	// A non-positive window still takes exactly one sample.
	if c.duration <= 0 || c.elapsed >= c.duration {
		c.finish(r2.Scale(1/float64(c.samples), c.sum))
		return true
	}
	return false
}

func (c *Calibrator) finish(offset r2.Vec) {
	c.offset = offset
	c.state = CalibrationDone
}

// State returns the current phase.
func (c *Calibrator) State() CalibrationState { return c.state }

// Done reports whether the offset is final.
func (c *Calibrator) Done() bool { return c.state == CalibrationDone }

// Skipped reports whether the last window was skipped because input was held.
func (c *Calibrator) Skipped() bool { return c.skipped }

// Offset returns the measured bias. It is zero until calibration finishes.
func (c *Calibrator) Offset() r2.Vec { return c.offset }

// Samples returns how many samples contributed to the offset.
func (c *Calibrator) Samples() int { return c.samples }
