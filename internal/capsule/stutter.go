// internal/capsule/stutter.go
package capsule

import (
	"go.uber.org/zap"
)

// stutterCycle alternates immobilised and free phases while the capsule
// touches at least one stutter hazard.
type stutterCycle struct {
	touching    int
	running     bool
	immobilized bool
	timer       float64
}

// TouchingHazards returns the stutter reference count.
func (c *Controller) TouchingHazards() int { return c.stutter.touching }

// Immobilized reports whether the stutter cycle is in its stop phase.
func (c *Controller) Immobilized() bool { return c.stutter.immobilized }

// StutterRunning reports whether the stutter cycle is active.
func (c *Controller) StutterRunning() bool { return c.stutter.running }

func (c *Controller) stutterEnter() {
	c.stutter.touching++
	if c.cfg.LogEvents {
		c.logger.Debug("Stutter hazard entered.", zap.Int("count", c.stutter.touching))
	}
	if !c.cfg.StutterEnabled || c.stutter.running {
		return
	}
	c.stutter.running = true
	c.enterStop()
}

func (c *Controller) stutterExit() {
	if c.stutter.touching > 0 {
		c.stutter.touching--
	}
	if c.cfg.LogEvents {
		c.logger.Debug("Stutter hazard left.", zap.Int("count", c.stutter.touching))
	}
	if c.stutter.touching == 0 {
		c.stopStutter(false)
	}
}

// stopStutter ends the cycle and hands movement back immediately. resetCount
// also forgets the current contacts.
func (c *Controller) stopStutter(resetCount bool) {
	c.stutter.running = false
	c.stutter.immobilized = false
	c.stutter.timer = 0
	if resetCount {
		c.stutter.touching = 0
	}
}

// tickStutter advances the cycle on scaled frame time. Each phase lasts at
// least one tick even when its configured duration is not positive. The cycle
// is paused while a knockback episode owns the body.
func (c *Controller) tickStutter(dt float64) {
	if !c.stutter.running || c.knockback != nil {
		return
	}
	c.stutter.timer -= dt
	if c.stutter.timer > 0 {
		return
	}
	if c.stutter.immobilized {
		c.enterMove()
	} else {
		c.enterStop()
	}
}

func (c *Controller) enterStop() {
	c.stutter.immobilized = true
	c.stutter.timer = c.cfg.StopDuration
	// FixedUpdate applies the halt once a running knockback has finished.
	if c.knockback == nil {
		c.haltAll()
	}
}

func (c *Controller) enterMove() {
	c.stutter.immobilized = false
	c.stutter.timer = c.cfg.MoveDuration
}
