// internal/capsule/countdown.go
package capsule

import (
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// countdown is the pre-trial gate. It runs on unscaled time so pausing or
// slowing the game does not stretch it.
type countdown struct {
	// gating is true from BeginCountdown until movement is handed back.
	gating bool
	// ticking is true while digits are still being shown.
	ticking   bool
	remaining int
	timer     float64

	showingGo bool
	goTimer   float64
}

func (cd *countdown) cancel() {
	*cd = countdown{}
}

// BeginCountdown is the re-entry point between trials. It cancels every running
// phase, resets the flags and restarts the countdown and input calibration from
// scratch. Movement is enabled again once both have finished.
func (c *Controller) BeginCountdown() {
	c.cancelPhases()
	c.movementEnabled = false
	c.haltAll()
	c.desired = r2.Vec{}

	c.countdown = countdown{
		gating:    true,
		ticking:   c.cfg.CountdownFrom > 0,
		remaining: c.cfg.CountdownFrom,
	}
	if c.countdown.ticking {
		c.showCountdownText(strconv.Itoa(c.countdown.remaining))
	}
	c.beginCalibration()

	if c.cfg.LogEvents {
		c.logger.Debug("Countdown started.", zap.Int("from", c.cfg.CountdownFrom))
	}
}

// IsCountingDown reports whether the countdown gate is holding movement.
func (c *Controller) IsCountingDown() bool { return c.countdown.gating }

// CountdownRemaining returns the digit currently displayed.
func (c *Controller) CountdownRemaining() int { return c.countdown.remaining }

// CalibrationDone reports whether the input offset has been measured.
func (c *Controller) CalibrationDone() bool { return c.calibrator.Done() }

func (c *Controller) beginCalibration() {
	if !c.cfg.CalibrateInput {
		c.calibrator.Complete()
		return
	}
	c.calibrator.Begin()
}

func (c *Controller) tickCountdown(unscaled float64) {
	cd := &c.countdown

	if cd.showingGo {
		cd.goTimer += unscaled
		if cd.goTimer >= c.cfg.CountdownGoHold {
			cd.showingGo = false
			c.clearCountdownText()
		}
	}

	if !cd.gating {
		return
	}

	if cd.ticking {
		if c.cfg.CountdownInterval <= 0 {
			cd.remaining = 0
		} else {
			cd.timer += unscaled
			for cd.remaining > 0 && cd.timer >= c.cfg.CountdownInterval {
				cd.timer -= c.cfg.CountdownInterval
				cd.remaining--
				if cd.remaining > 0 {
					c.showCountdownText(strconv.Itoa(cd.remaining))
				}
			}
		}
		if cd.remaining <= 0 {
			cd.ticking = false
			if c.cfg.CountdownGoText != "" {
				c.showCountdownText(c.cfg.CountdownGoText)
				cd.showingGo = true
				cd.goTimer = 0
			} else {
				c.clearCountdownText()
			}
		}
	}

	if cd.ticking || !c.calibrator.Done() {
		return
	}

	cd.gating = false
	c.movementEnabled = true
	c.logger.Info("Countdown finished; movement enabled.",
		zap.Float64("offset_x", c.calibrator.Offset().X),
		zap.Float64("offset_y", c.calibrator.Offset().Y),
		zap.Bool("calibration_skipped", c.calibrator.Skipped()))
}

func (c *Controller) showCountdownText(s string) {
	if c.text != nil {
		c.text.SetText(s)
	}
}

func (c *Controller) clearCountdownText() {
	if c.text != nil {
		c.text.SetText("")
	}
}
