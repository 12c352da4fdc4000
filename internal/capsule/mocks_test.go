// internal/capsule/mocks_test.go
package capsule

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// fakeBody implements schemas.Body and records what the controller did to it.
type fakeBody struct {
	id          schemas.EntityID
	pos         r3.Vec
	rot         quat.Number
	vel         r3.Vec
	ang         r3.Vec
	kinematic   bool
	sleeping    bool
	constraints schemas.Constraints

	impulses     []r3.Vec
	torques      []r3.Vec
	moves        int
	kinematicLog []bool
}

func newFakeBody(id schemas.EntityID) *fakeBody {
	return &fakeBody{id: id, rot: geom.Identity(), constraints: schemas.FreezeRotation}
}

func (b *fakeBody) ID() schemas.EntityID          { return b.id }
func (b *fakeBody) Position() r3.Vec              { return b.pos }
func (b *fakeBody) SetPosition(p r3.Vec)          { b.pos = p }
func (b *fakeBody) MovePosition(p r3.Vec)         { b.pos = p; b.moves++ }
func (b *fakeBody) Rotation() quat.Number         { return b.rot }
func (b *fakeBody) SetRotation(q quat.Number)     { b.rot = q }
func (b *fakeBody) Velocity() r3.Vec              { return b.vel }
func (b *fakeBody) SetVelocity(v r3.Vec)          { b.vel = v }
func (b *fakeBody) AngularVelocity() r3.Vec       { return b.ang }
func (b *fakeBody) SetAngularVelocity(w r3.Vec)   { b.ang = w }
func (b *fakeBody) AddImpulse(i r3.Vec)           { b.impulses = append(b.impulses, i); b.sleeping = false }
func (b *fakeBody) AddTorqueImpulse(t r3.Vec)     { b.torques = append(b.torques, t) }
func (b *fakeBody) IsKinematic() bool             { return b.kinematic }
func (b *fakeBody) Sleep()                        { b.sleeping = true }
func (b *fakeBody) Constraints() schemas.Constraints { return b.constraints }
func (b *fakeBody) SetConstraints(c schemas.Constraints) { b.constraints = c }
func (b *fakeBody) SetKinematic(k bool) {
	b.kinematic = k
	b.kinematicLog = append(b.kinematicLog, k)
}

type fakeEntity struct {
	name     string
	parent   schemas.EntityID
	category schemas.Category
	collider bool
	trigger  bool
}

type pair struct{ a, b schemas.EntityID }

// fakeWorld implements schemas.PhysicsWorld and schemas.SceneGraph.
type fakeWorld struct {
	entities map[schemas.EntityID]*fakeEntity
	bodies   map[schemas.EntityID]*fakeBody
	ignored  map[pair]bool
	order    []schemas.EntityID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		entities: make(map[schemas.EntityID]*fakeEntity),
		bodies:   make(map[schemas.EntityID]*fakeBody),
		ignored:  make(map[pair]bool),
	}
}

func (w *fakeWorld) add(id schemas.EntityID, name string, parent schemas.EntityID, cat schemas.Category, collider bool) {
	w.entities[id] = &fakeEntity{name: name, parent: parent, category: cat, collider: collider}
	w.order = append(w.order, id)
}

func (w *fakeWorld) Body(id schemas.EntityID) (schemas.Body, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return nil, false
	}
	return b, true
}
func (w *fakeWorld) AttachedBody(collider schemas.EntityID) (schemas.EntityID, bool) {
	for id := collider; id != schemas.NoEntity; id = w.entities[id].parent {
		if _, ok := w.bodies[id]; ok {
			return id, true
		}
		if w.entities[id] == nil {
			break
		}
	}
	return schemas.NoEntity, false
}
func (w *fakeWorld) IsCollider(id schemas.EntityID) bool {
	e := w.entities[id]
	return e != nil && e.collider
}
func (w *fakeWorld) IsTrigger(id schemas.EntityID) bool {
	e := w.entities[id]
	return e != nil && e.trigger
}
func (w *fakeWorld) SetTrigger(id schemas.EntityID, trigger bool) {
	if e := w.entities[id]; e != nil {
		e.trigger = trigger
	}
}
func (w *fakeWorld) IgnoreCollision(a, b schemas.EntityID, ignore bool) {
	if ignore {
		w.ignored[pair{a, b}] = true
		return
	}
	delete(w.ignored, pair{a, b})
}

func (w *fakeWorld) Exists(id schemas.EntityID) bool { return w.entities[id] != nil }
func (w *fakeWorld) Name(id schemas.EntityID) string {
	if e := w.entities[id]; e != nil {
		return e.name
	}
	return ""
}
func (w *fakeWorld) Find(name string) (schemas.EntityID, bool) {
	for _, id := range w.order {
		if w.entities[id].name == name {
			return id, true
		}
	}
	return schemas.NoEntity, false
}
func (w *fakeWorld) FindByCategory(c schemas.Category) []schemas.EntityID {
	var out []schemas.EntityID
	for _, id := range w.order {
		if w.entities[id].category.Has(c) {
			out = append(out, id)
		}
	}
	return out
}
func (w *fakeWorld) Category(id schemas.EntityID) schemas.Category {
	if e := w.entities[id]; e != nil {
		return e.category
	}
	return schemas.CategoryNone
}
func (w *fakeWorld) Parent(id schemas.EntityID) (schemas.EntityID, bool) {
	e := w.entities[id]
	if e == nil || e.parent == schemas.NoEntity {
		return schemas.NoEntity, false
	}
	return e.parent, true
}
func (w *fakeWorld) Descendants(id schemas.EntityID) []schemas.EntityID {
	var out []schemas.EntityID
	for _, child := range w.order {
		if child != id && w.IsDescendantOf(child, id) {
			out = append(out, child)
		}
	}
	return out
}
func (w *fakeWorld) IsDescendantOf(id, ancestor schemas.EntityID) bool {
	for cur := id; cur != schemas.NoEntity; {
		if cur == ancestor {
			return true
		}
		e := w.entities[cur]
		if e == nil {
			return false
		}
		cur = e.parent
	}
	return false
}
func (w *fakeWorld) Position(id schemas.EntityID) r3.Vec {
	if b, ok := w.bodies[id]; ok {
		return b.pos
	}
	return r3.Vec{}
}
func (w *fakeWorld) SetPosition(id schemas.EntityID, p r3.Vec) {
	if b, ok := w.bodies[id]; ok {
		b.pos = p
	}
}
func (w *fakeWorld) Rotation(id schemas.EntityID) quat.Number {
	if b, ok := w.bodies[id]; ok {
		return b.rot
	}
	return geom.Identity()
}

// fakeInput implements schemas.InputSource.
type fakeInput struct {
	x, y    float64
	missing bool
}

func (f *fakeInput) Axis(name string) (float64, error) {
	if f.missing {
		return 0, schemas.ErrAxisNotConfigured
	}
	switch name {
	case "Horizontal":
		return f.x, nil
	case "Vertical":
		return f.y, nil
	}
	return 0, schemas.ErrAxisNotConfigured
}
func (f *fakeInput) ButtonDown(string) bool { return false }

// fakeText implements schemas.TextDisplay.
type fakeText struct{ history []string }

func (t *fakeText) SetText(s string) { t.history = append(t.history, s) }
func (t *fakeText) last() string {
	if len(t.history) == 0 {
		return ""
	}
	return t.history[len(t.history)-1]
}

// fakeRenderer implements schemas.Renderer.
type fakeRenderer struct {
	rendered map[schemas.EntityID]bool
	toggles  int
}

func (r *fakeRenderer) SetRendered(id schemas.EntityID, rendered bool) {
	if r.rendered == nil {
		r.rendered = make(map[schemas.EntityID]bool)
	}
	r.rendered[id] = rendered
	r.toggles++
}
