// internal/capsule/knockback.go
package capsule

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// KnockbackPhase is the state of a knockback episode.
type KnockbackPhase int

const (
	PhaseIdle KnockbackPhase = iota
	// PhaseImpulse follows the hit; tilt is clamped every step.
	PhaseImpulse
	// PhaseHold lets the body settle under physics.
	PhaseHold
	// PhaseStandUp rotates the body back upright.
	PhaseStandUp
)

func (p KnockbackPhase) String() string {
	switch p {
	case PhaseImpulse:
		return "impulse"
	case PhaseHold:
		return "hold"
	case PhaseStandUp:
		return "stand_up"
	default:
		return "idle"
	}
}

// knockbackSession lives from the hit until the capsule is upright again.
type knockbackSession struct {
	startTime float64
	phase     KnockbackPhase
	elapsed   float64
	hazard    schemas.EntityID

	originalOrientation quat.Number
	standFrom           quat.Number
	targetOrientation   quat.Number

	savedConstraints schemas.Constraints
	savedTrigger     bool

	blinkTimer float64
	rendered   bool
}

func (s *knockbackSession) enter(p KnockbackPhase) {
	s.phase = p
	s.elapsed = 0
}

// IsKnockbacking reports whether an episode is active.
func (c *Controller) IsKnockbacking() bool { return c.knockback != nil }

// KnockbackPhase returns the active phase, or PhaseIdle.
func (c *Controller) KnockbackPhase() KnockbackPhase {
	if c.knockback == nil {
		return PhaseIdle
	}
	return c.knockback.phase
}

// KnockbackCount returns how many episodes have started since the controller
// was created.
func (c *Controller) KnockbackCount() int { return c.knockbackCount }

// IgnoredColliders returns the colliders whose contact with the capsule is
// suppressed by the active episode.
func (c *Controller) IgnoredColliders() []schemas.EntityID {
	out := make([]schemas.EntityID, 0, len(c.ignored))
	for id := range c.ignored {
		out = append(out, id)
	}
	return out
}

// startKnockback opens an episode for a hit on hazard. While an episode is
// active further hits only add their colliders to the ignore set.
func (c *Controller) startKnockback(hazard schemas.EntityID) {
	if c.knockback != nil {
		c.ignoreHazard(hazard)
		return
	}
	kb := c.cfg.Knockback
	rot := c.body.Rotation()

	s := &knockbackSession{
		startTime:           c.fixedClock,
		phase:               PhaseImpulse,
		hazard:              hazard,
		originalOrientation: rot,
		savedConstraints:    c.body.Constraints(),
		rendered:            true,
	}
	c.knockback = s
	c.knockbackCount++

	c.ignoreHazard(hazard)

	if c.physics != nil {
		s.savedTrigger = c.physics.IsTrigger(c.collider)
		if kb.PassThrough {
			c.physics.SetTrigger(c.collider, true)
		}
	}

	// Only tipping about the lateral axis is allowed for the episode.
	c.body.SetConstraints(schemas.FreezeRotationY | schemas.FreezeRotationZ)

	back := r3.Scale(-1, geom.Horizontal(geom.Forward(rot)))
	if r3.Norm(back) < 1e-9 {
		back = r3.Scale(-1, geom.WorldForward)
	}
	back = r3.Unit(back)
	impulse := r3.Add(r3.Scale(kb.BackForce, back), r3.Scale(kb.UpForce, geom.WorldUp))
	c.body.AddImpulse(impulse)
	c.body.AddTorqueImpulse(r3.Scale(-kb.Torque, geom.Right(rot)))

	c.logger.Info("Knockback started.",
		zap.Uint64("hazard", uint64(hazard)),
		zap.Int("count", c.knockbackCount),
		zap.Float64("t", c.fixedClock))
}

func (c *Controller) tickKnockback(dt float64) {
	s := c.knockback
	kb := c.cfg.Knockback
	s.elapsed += dt

	switch s.phase {
	case PhaseImpulse:
		c.clampTilt()
		if s.elapsed >= kb.Duration {
			s.enter(PhaseHold)
		}
	case PhaseHold:
		if s.elapsed >= kb.HoldDuration {
			c.haltAll()
			s.standFrom = c.body.Rotation()
			s.targetOrientation = geom.Upright(s.standFrom)
			s.enter(PhaseStandUp)
		}
	case PhaseStandUp:
		c.haltAll()
		t := 1.0
		if kb.StandUpDuration > 0 {
			t = s.elapsed / kb.StandUpDuration
		}
		if t >= 1 {
			c.body.SetRotation(s.targetOrientation)
			c.endKnockback()
			return
		}
		c.body.SetRotation(geom.Slerp(s.standFrom, s.targetOrientation, t))
	}
}

// clampTilt snaps the pitch back to ±MaxTiltAngle and kills the spin when the
// body tips too far.
func (c *Controller) clampTilt() {
	out, clamped := geom.ClampPitch(c.body.Rotation(), c.cfg.Knockback.MaxTiltAngle)
	if !clamped {
		return
	}
	c.body.SetRotation(out)
	c.body.SetAngularVelocity(r3.Vec{})
}

func (c *Controller) endKnockback() {
	s := c.knockback
	if s == nil {
		return
	}
	c.restoreAfterKnockback(s)
	c.knockback = nil
	c.logger.Info("Knockback finished.", zap.Float64("duration", c.fixedClock-s.startTime))
}

// abortKnockback cancels an episode without finishing the stand-up.
func (c *Controller) abortKnockback() {
	s := c.knockback
	if s == nil {
		return
	}
	c.restoreAfterKnockback(s)
	c.knockback = nil
	if c.cfg.LogEvents {
		c.logger.Debug("Knockback cancelled.", zap.String("phase", s.phase.String()))
	}
}

func (c *Controller) restoreAfterKnockback(s *knockbackSession) {
	if c.physics != nil {
		c.physics.SetTrigger(c.collider, s.savedTrigger)
	}
	c.body.SetConstraints(s.savedConstraints)
	c.restoreCollisions()
	c.setRendered(true)
}

// ignoreHazard disables collision between the capsule and every collider of
// the hazard, children included.
func (c *Controller) ignoreHazard(hazard schemas.EntityID) {
	if c.physics == nil || hazard == schemas.NoEntity {
		return
	}
	ids := []schemas.EntityID{hazard}
	if c.scene != nil {
		ids = append(ids, c.scene.Descendants(hazard)...)
	}
	for _, id := range ids {
		if _, done := c.ignored[id]; done || !c.physics.IsCollider(id) {
			continue
		}
		c.physics.IgnoreCollision(c.collider, id, true)
		c.ignored[id] = struct{}{}
	}
}

func (c *Controller) restoreCollisions() {
	for id := range c.ignored {
		if c.physics != nil {
			c.physics.IgnoreCollision(c.collider, id, false)
		}
		delete(c.ignored, id)
	}
}

func (c *Controller) tickBlink(dt float64) {
	s := c.knockback
	if s == nil || c.renderer == nil || c.cfg.Knockback.BlinkInterval <= 0 {
		return
	}
	s.blinkTimer += dt
	for s.blinkTimer >= c.cfg.Knockback.BlinkInterval {
		s.blinkTimer -= c.cfg.Knockback.BlinkInterval
		s.rendered = !s.rendered
		c.renderer.SetRendered(c.body.ID(), s.rendered)
	}
}
