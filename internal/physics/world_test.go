// internal/physics/world_test.go
package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// Compile-time checks.
var (
	_ schemas.PhysicsWorld = (*World)(nil)
	_ schemas.SceneGraph   = (*World)(nil)
	_ schemas.Renderer     = (*World)(nil)
	_ schemas.Body         = (*body)(nil)
)

type recorder struct {
	events []string
}

func (r *recorder) OnContactBegin(other schemas.EntityID) { r.add("contact+", other) }
func (r *recorder) OnContactEnd(other schemas.EntityID)   { r.add("contact-", other) }
func (r *recorder) OnOverlapBegin(other schemas.EntityID) { r.add("overlap+", other) }
func (r *recorder) OnOverlapEnd(other schemas.EntityID)   { r.add("overlap-", other) }

func (r *recorder) add(kind string, other schemas.EntityID) {
	r.events = append(r.events, kind+":"+string(rune('0'+int(other))))
}

func noGravity() Config {
	return Config{}
}

func sphere(r float64) *ColliderSpec { return &ColliderSpec{Shape: ShapeSphere, Radius: r} }

func TestSceneGraph(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))

	root := w.Spawn(EntitySpec{Name: "Terrain", Category: schemas.CategoryTerrain, Position: r3.Vec{Z: 10}})
	a := w.Spawn(EntitySpec{Name: "A", Parent: root, Category: schemas.CategoryHazard | schemas.CategoryCountTarget, Position: r3.Vec{Z: 12}})
	b := w.Spawn(EntitySpec{Name: "B", Parent: a, Category: schemas.CategoryHazard, Position: r3.Vec{Z: 13}})
	loose := w.Spawn(EntitySpec{Name: "Loose", Category: schemas.CategoryHazard})

	id, ok := w.Find("B")
	require.True(t, ok)
	assert.Equal(t, b, id)
	_, ok = w.Find("missing")
	assert.False(t, ok)

	assert.Equal(t, []schemas.EntityID{a, b, loose}, w.FindByCategory(schemas.CategoryHazard))
	assert.Equal(t, []schemas.EntityID{a}, w.FindByCategory(schemas.CategoryHazard|schemas.CategoryCountTarget))
	assert.Equal(t, []schemas.EntityID{a, b}, w.Descendants(root))

	parent, ok := w.Parent(b)
	require.True(t, ok)
	assert.Equal(t, a, parent)
	_, ok = w.Parent(root)
	assert.False(t, ok)

	assert.True(t, w.IsDescendantOf(b, root))
	assert.True(t, w.IsDescendantOf(root, root))
	assert.False(t, w.IsDescendantOf(loose, root))

	t.Run("SetPosition carries descendants", func(t *testing.T) {
		w.SetPosition(root, r3.Vec{Z: 8})
		assert.Equal(t, r3.Vec{Z: 8}, w.Position(root))
		assert.Equal(t, r3.Vec{Z: 10}, w.Position(a))
		assert.Equal(t, r3.Vec{Z: 11}, w.Position(b))
		assert.Equal(t, r3.Vec{}, w.Position(loose))
	})

	t.Run("Destroy removes the subtree", func(t *testing.T) {
		w.Destroy(a)
		assert.False(t, w.Exists(a))
		assert.False(t, w.Exists(b))
		assert.True(t, w.Exists(root))
		assert.Empty(t, w.Descendants(root))
		assert.Equal(t, "", w.Name(a))
		assert.Equal(t, schemas.CategoryNone, w.Category(b))
	})
}

func TestBodyIntegration(t *testing.T) {
	w := New(Config{Gravity: r3.Vec{Y: -8}, FloorEnabled: true}, zaptest.NewLogger(t))
	id := w.Spawn(EntitySpec{
		Name:     "Ball",
		Position: r3.Vec{Y: 3},
		Collider: sphere(0.5),
		Body:     &BodySpec{Mass: 2, UseGravity: true},
	})
	b, ok := w.Body(id)
	require.True(t, ok)

	w.Step(0.25)
	assert.Equal(t, r3.Vec{Y: -2}, b.Velocity())
	assert.Equal(t, r3.Vec{Y: 2.5}, b.Position())

	b.AddImpulse(r3.Vec{X: 4})
	assert.Equal(t, r3.Vec{X: 2, Y: -2}, b.Velocity(), "impulse is divided by mass")

	for i := 0; i < 8; i++ {
		w.Step(0.25)
	}
	assert.Equal(t, 0.5, b.Position().Y, "floor holds the sphere at its radius")
	assert.Equal(t, 0.0, b.Velocity().Y)
	assert.Greater(t, b.Position().X, 0.0)
	assert.Equal(t, 2.25, w.Time())
}

func TestBodyKinematicAndSleep(t *testing.T) {
	w := New(Config{Gravity: r3.Vec{Y: -8}}, zaptest.NewLogger(t))
	id := w.Spawn(EntitySpec{Name: "K", Position: r3.Vec{Y: 1}, Body: &BodySpec{Kinematic: true, UseGravity: true}})
	b, _ := w.Body(id)

	b.AddImpulse(r3.Vec{X: 1})
	w.Step(0.5)
	assert.Equal(t, r3.Vec{Y: 1}, b.Position(), "kinematic bodies are not integrated")
	assert.Equal(t, r3.Vec{}, b.Velocity())

	b.SetKinematic(false)
	b.SetVelocity(r3.Vec{Z: 2})
	b.Sleep()
	assert.Equal(t, r3.Vec{}, b.Velocity())
	w.Step(0.5)
	assert.Equal(t, r3.Vec{Y: 1}, b.Position(), "sleeping bodies stay put")

	b.MovePosition(r3.Vec{Z: 3})
	assert.Equal(t, r3.Vec{Z: 3}, b.Position())
	assert.False(t, b.(*body).Sleeping())
}

func TestConstraints(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	id := w.Spawn(EntitySpec{Name: "C", Body: &BodySpec{Constraints: schemas.FreezePositionY | schemas.FreezeRotationY | schemas.FreezeRotationZ}})
	b, _ := w.Body(id)

	b.AddImpulse(r3.Vec{X: 1, Y: 5, Z: 1})
	assert.Equal(t, r3.Vec{X: 1, Z: 1}, b.Velocity())
	b.AddTorqueImpulse(r3.Vec{X: 2, Y: 3, Z: 4})
	assert.Equal(t, r3.Vec{X: 2}, b.AngularVelocity())

	b.SetConstraints(schemas.FreezeAll)
	assert.Equal(t, r3.Vec{}, b.Velocity())
	assert.Equal(t, r3.Vec{}, b.AngularVelocity())
	assert.Equal(t, schemas.FreezeAll, b.Constraints())
}

func TestAngularIntegrationPitchesForward(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	id := w.Spawn(EntitySpec{Name: "Spin", Body: &BodySpec{}})
	b, _ := w.Body(id)

	b.SetAngularVelocity(r3.Vec{X: 0.5})
	for i := 0; i < 100; i++ {
		w.Step(0.01)
	}
	assert.InDelta(t, 0.5*180/3.141592653589793, geom.Pitch(b.Rotation()), 0.5)
}

func TestContactEvents(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	mover := w.Spawn(EntitySpec{Name: "Mover", Position: r3.Vec{Z: -3}, Collider: sphere(0.5), Body: &BodySpec{}})
	hazard := w.Spawn(EntitySpec{Name: "Hazard", Collider: sphere(1)})
	rec := &recorder{}
	w.Subscribe(mover, rec)

	b, _ := w.Body(mover)
	b.SetVelocity(r3.Vec{Z: 1})

	w.Step(1)
	assert.Empty(t, rec.events)
	w.Step(1)
	assert.Equal(t, []string{"contact+:2"}, rec.events, "distance 1 is inside the combined radius")
	assert.True(t, w.Touching(mover, hazard))

	w.Step(1)
	w.Step(1)
	assert.Len(t, rec.events, 1, "still inside at z=1")
	w.Step(1)
	assert.Equal(t, []string{"contact+:2", "contact-:2"}, rec.events)
}

func TestStaticPairsAreNotReported(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	a := w.Spawn(EntitySpec{Name: "A", Collider: sphere(1)})
	w.Spawn(EntitySpec{Name: "B", Collider: sphere(1)})
	rec := &recorder{}
	w.Subscribe(a, rec)
	w.Step(0.1)
	assert.Empty(t, rec.events)
}

func TestTriggerAndIgnore(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	capsule := w.Spawn(EntitySpec{Name: "Capsule", Body: &BodySpec{}})
	shell := w.Spawn(EntitySpec{Name: "Shell", Parent: capsule, Collider: &ColliderSpec{Shape: ShapeBox, HalfExtents: r3.Vec{X: 0.5, Y: 1, Z: 0.5}}})
	hazard := w.Spawn(EntitySpec{Name: "Hazard", Position: r3.Vec{Z: 1}, Collider: sphere(0.75)})

	owner := &recorder{}
	target := &recorder{}
	w.Subscribe(capsule, owner)
	w.Subscribe(hazard, target)

	attached, ok := w.AttachedBody(shell)
	require.True(t, ok)
	assert.Equal(t, capsule, attached)
	assert.True(t, w.IsCollider(shell))
	assert.False(t, w.IsCollider(capsule))

	w.Step(0)
	assert.Equal(t, []string{"contact+:3"}, owner.events, "the body owner hears its collider")
	assert.Equal(t, []string{"contact+:2"}, target.events)

	w.SetTrigger(shell, true)
	assert.True(t, w.IsTrigger(shell))
	w.Step(0)
	assert.Equal(t, []string{"contact+:3", "contact-:3", "overlap+:3"}, owner.events)

	w.IgnoreCollision(hazard, shell, true)
	assert.True(t, w.Ignored(shell, hazard))
	w.Step(0)
	assert.Equal(t, "overlap-:3", owner.events[len(owner.events)-1], "ignoring a touching pair ends it")
	assert.False(t, w.Touching(shell, hazard))

	w.IgnoreCollision(shell, hazard, false)
	w.SetTrigger(shell, false)
	w.Step(0)
	assert.Equal(t, "contact+:3", owner.events[len(owner.events)-1])
}

func TestDestroyDropsPairsSilently(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	mover := w.Spawn(EntitySpec{Name: "Mover", Collider: sphere(1), Body: &BodySpec{}})
	hazard := w.Spawn(EntitySpec{Name: "Hazard", Collider: sphere(1)})
	rec := &recorder{}
	w.Subscribe(mover, rec)

	w.Step(0)
	require.Len(t, rec.events, 1)
	w.Destroy(hazard)
	w.Step(0)
	assert.Len(t, rec.events, 1)
	_, ok := w.Body(hazard)
	assert.False(t, ok)
}

func TestRendered(t *testing.T) {
	w := New(noGravity(), zaptest.NewLogger(t))
	id := w.Spawn(EntitySpec{Name: "R"})
	assert.True(t, w.Rendered(id))
	w.SetRendered(id, false)
	assert.False(t, w.Rendered(id))
	assert.False(t, w.Rendered(99))
}
