// internal/physics/body.go
package physics

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// body implements schemas.Body on top of its entity's transform.
type body struct {
	w           *World
	id          schemas.EntityID
	mass        float64
	inertia     float64
	kinematic   bool
	gravity     bool
	sleeping    bool
	constraints schemas.Constraints
	vel         r3.Vec
	angVel      r3.Vec
}

func newBody(w *World, id schemas.EntityID, spec BodySpec) *body {
	b := &body{
		w:           w,
		id:          id,
		mass:        spec.Mass,
		inertia:     spec.Inertia,
		kinematic:   spec.Kinematic,
		gravity:     spec.UseGravity,
		constraints: spec.Constraints,
	}
	if b.mass <= 0 {
		b.mass = 1
	}
	if b.inertia <= 0 {
		b.inertia = 1
	}
	return b
}

func (b *body) ID() schemas.EntityID { return b.id }

func (b *body) Position() r3.Vec { return b.w.Position(b.id) }

func (b *body) SetPosition(p r3.Vec) { b.w.SetPosition(b.id, p) }

// MovePosition is applied at once. The world has no render interpolation, so
// the result matches SetPosition apart from waking the body.
func (b *body) MovePosition(p r3.Vec) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.sleeping = false
	b.w.setPositionLocked(b.id, p)
}

func (b *body) Rotation() quat.Number { return b.w.Rotation(b.id) }

func (b *body) SetRotation(q quat.Number) { b.w.SetRotation(b.id, q) }

func (b *body) Velocity() r3.Vec {
	b.w.mu.RLock()
	defer b.w.mu.RUnlock()
	return b.vel
}

func (b *body) SetVelocity(v r3.Vec) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.vel = maskLinear(v, b.constraints)
	if b.vel != (r3.Vec{}) {
		b.sleeping = false
	}
}

func (b *body) AngularVelocity() r3.Vec {
	b.w.mu.RLock()
	defer b.w.mu.RUnlock()
	return b.angVel
}

func (b *body) SetAngularVelocity(v r3.Vec) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.angVel = maskAngular(v, b.constraints)
	if b.angVel != (r3.Vec{}) {
		b.sleeping = false
	}
}

// AddImpulse changes the velocity by impulse/mass. Kinematic bodies ignore it.
func (b *body) AddImpulse(impulse r3.Vec) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	if b.kinematic {
		return
	}
	b.vel = maskLinear(r3.Add(b.vel, r3.Scale(1/b.mass, impulse)), b.constraints)
	b.sleeping = false
}

func (b *body) AddTorqueImpulse(torque r3.Vec) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	if b.kinematic {
		return
	}
	b.angVel = maskAngular(r3.Add(b.angVel, r3.Scale(1/b.inertia, torque)), b.constraints)
	b.sleeping = false
}

func (b *body) IsKinematic() bool {
	b.w.mu.RLock()
	defer b.w.mu.RUnlock()
	return b.kinematic
}

func (b *body) SetKinematic(kinematic bool) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.kinematic = kinematic
	b.sleeping = false
}

// Sleep zeroes the velocities and parks the body until it is woken.
func (b *body) Sleep() {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.vel = r3.Vec{}
	b.angVel = r3.Vec{}
	b.sleeping = true
}

// Sleeping reports whether the body is parked.
func (b *body) Sleeping() bool {
	b.w.mu.RLock()
	defer b.w.mu.RUnlock()
	return b.sleeping
}

func (b *body) Constraints() schemas.Constraints {
	b.w.mu.RLock()
	defer b.w.mu.RUnlock()
	return b.constraints
}

func (b *body) SetConstraints(c schemas.Constraints) {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	b.constraints = c
	b.vel = maskLinear(b.vel, c)
	b.angVel = maskAngular(b.angVel, c)
}

// integrate advances the body by dt. The caller holds the world lock.
func (b *body) integrate(e *entity, dt float64, cfg Config) {
	if b.kinematic || b.sleeping {
		return
	}
	if b.gravity {
		b.vel = maskLinear(r3.Add(b.vel, r3.Scale(dt, cfg.Gravity)), b.constraints)
	}
	if b.vel != (r3.Vec{}) {
		b.w.setPositionLocked(b.id, r3.Add(e.pos, r3.Scale(dt, b.vel)))
	}
	if b.angVel != (r3.Vec{}) {
		e.rot = integrateRotation(e.rot, b.angVel, dt)
	}
	if b.gravity && cfg.FloorEnabled {
		rest := b.w.restHeightLocked(e)
		if e.pos.Y-rest < cfg.FloorY {
			b.w.setPositionLocked(b.id, r3.Vec{X: e.pos.X, Y: cfg.FloorY + rest, Z: e.pos.Z})
			if b.vel.Y < 0 {
				b.vel.Y = 0
			}
		}
	}
}

// restHeightLocked is the distance from the body origin down to the lowest
// collider it carries, its children's colliders included.
func (w *World) restHeightLocked(e *entity) float64 {
	rest := restHeight(e.collider)
	for _, id := range w.descendantsLocked(e.id) {
		child := w.entities[id]
		if child.collider == nil || child.body != nil {
			continue
		}
		if h := e.pos.Y - child.pos.Y + restHeight(child.collider); h > rest {
			rest = h
		}
	}
	return rest
}

// integrateRotation applies q' = q + dt/2 * w * q and renormalises.
func integrateRotation(q quat.Number, w r3.Vec, dt float64) quat.Number {
	spin := quat.Mul(quat.Number{Imag: w.X, Jmag: w.Y, Kmag: w.Z}, q)
	return geom.Normalize(quat.Add(q, quat.Scale(dt/2, spin)))
}

// restHeight is the distance from the entity origin to the bottom of its
// collider.
func restHeight(c *ColliderSpec) float64 {
	if c == nil {
		return 0
	}
	switch c.Shape {
	case ShapeSphere:
		return c.Radius - c.Offset.Y
	case ShapeBox:
		return c.HalfExtents.Y - c.Offset.Y
	}
	return 0
}

func maskLinear(v r3.Vec, c schemas.Constraints) r3.Vec {
	if c&schemas.FreezePositionX != 0 {
		v.X = 0
	}
	if c&schemas.FreezePositionY != 0 {
		v.Y = 0
	}
	if c&schemas.FreezePositionZ != 0 {
		v.Z = 0
	}
	return v
}

func maskAngular(v r3.Vec, c schemas.Constraints) r3.Vec {
	if c&schemas.FreezeRotationX != 0 {
		v.X = 0
	}
	if c&schemas.FreezeRotationY != 0 {
		v.Y = 0
	}
	if c&schemas.FreezeRotationZ != 0 {
		v.Z = 0
	}
	return v
}
