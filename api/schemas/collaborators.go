package schemas

import (
	"errors"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrAxisNotConfigured is returned by an InputSource asked for an axis name it
// does not know. Callers recover from it and treat the axis as zero.
var ErrAxisNotConfigured = errors.New("input axis not configured")

// -- Host Collaborator Interfaces --
//
// The simulation core never integrates bodies, detects overlaps or polls devices
// itself. Those duties belong to the hosting engine and are reached through the
// interfaces below.

// Body is a rigid body owned by the physics collaborator. Positions are in
// world space; orientations are unit quaternions.
type Body interface {
	// ID returns the entity the body is attached to.
	ID() EntityID

	Position() r3.Vec
	// SetPosition writes the pose immediately, bypassing interpolation.
	SetPosition(p r3.Vec)
	// MovePosition requests a solver-friendly move to p for the current step.
	MovePosition(p r3.Vec)

	Rotation() quat.Number
	SetRotation(q quat.Number)

	Velocity() r3.Vec
	SetVelocity(v r3.Vec)
	AngularVelocity() r3.Vec
	SetAngularVelocity(w r3.Vec)

	// AddImpulse applies an instantaneous change in momentum.
	AddImpulse(impulse r3.Vec)
	// AddTorqueImpulse applies an instantaneous change in angular momentum.
	AddTorqueImpulse(torque r3.Vec)

	IsKinematic() bool
	SetKinematic(kinematic bool)
	// Sleep puts the body to rest until something wakes it.
	Sleep()

	Constraints() Constraints
	SetConstraints(c Constraints)
}

// PhysicsWorld exposes the solver-level services the behaviours need.
type PhysicsWorld interface {
	// Body returns the body attached to id. ok is false for unknown or destroyed
	// entities.
	Body(id EntityID) (b Body, ok bool)
	// AttachedBody resolves the body a collider belongs to.
	AttachedBody(collider EntityID) (EntityID, bool)
	// IsCollider reports whether id carries a collider.
	IsCollider(id EntityID) bool
	// IsTrigger reports whether the collider only reports overlaps.
	IsTrigger(collider EntityID) bool
	// SetTrigger toggles the collider between solid and overlap-only.
	SetTrigger(collider EntityID, trigger bool)
	// IgnoreCollision disables (or restores) contact between two colliders.
	IgnoreCollision(a, b EntityID, ignore bool)
}

// SceneGraph exposes the transform hierarchy and entity categories.
type SceneGraph interface {
	Exists(id EntityID) bool
	Name(id EntityID) string
	// Find returns the first live entity with the given name.
	Find(name string) (EntityID, bool)
	// FindByCategory returns every live entity carrying all bits of c.
	FindByCategory(c Category) []EntityID
	Category(id EntityID) Category
	Parent(id EntityID) (EntityID, bool)
	// Descendants returns every entity below id, depth first, excluding id.
	Descendants(id EntityID) []EntityID
	// IsDescendantOf reports whether id sits at or below ancestor.
	IsDescendantOf(id, ancestor EntityID) bool

	// Position and Rotation read the world transform of any entity.
	Position(id EntityID) r3.Vec
	SetPosition(id EntityID, p r3.Vec)
	Rotation(id EntityID) quat.Number
}

// InputSource samples named input axes and buttons from the device layer.
type InputSource interface {
	// Axis returns the raw value of a named axis in [-1, 1], or
	// ErrAxisNotConfigured when the name is unknown.
	Axis(name string) (float64, error)
	// ButtonDown reports whether the named button went down this frame.
	ButtonDown(name string) bool
}

// SceneLoader is the scene-lifecycle collaborator.
type SceneLoader interface {
	// LoadScene tears down every scene-scoped object and rebuilds the named scene.
	LoadScene(name string)
	CurrentScene() string
}

// TextDisplay is a plain UI text setter.
type TextDisplay interface {
	SetText(text string)
}

// PanelDisplay toggles the visibility of a UI panel.
type PanelDisplay interface {
	SetVisible(visible bool)
}

// Renderer toggles whether an entity is drawn. Used for the knockback blink.
type Renderer interface {
	SetRendered(id EntityID, rendered bool)
}
