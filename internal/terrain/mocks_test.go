// internal/terrain/mocks_test.go
package terrain

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

type fakeBody struct {
	id    schemas.EntityID
	pos   r3.Vec
	moves int
	sets  int
}

func (b *fakeBody) ID() schemas.EntityID                 { return b.id }
func (b *fakeBody) Position() r3.Vec                     { return b.pos }
func (b *fakeBody) SetPosition(p r3.Vec)                 { b.pos = p; b.sets++ }
func (b *fakeBody) MovePosition(p r3.Vec)                { b.pos = p; b.moves++ }
func (b *fakeBody) Rotation() quat.Number                { return quat.Number{Real: 1} }
func (b *fakeBody) SetRotation(quat.Number)              {}
func (b *fakeBody) Velocity() r3.Vec                     { return r3.Vec{} }
func (b *fakeBody) SetVelocity(r3.Vec)                   {}
func (b *fakeBody) AngularVelocity() r3.Vec              { return r3.Vec{} }
func (b *fakeBody) SetAngularVelocity(r3.Vec)            {}
func (b *fakeBody) AddImpulse(r3.Vec)                    {}
func (b *fakeBody) AddTorqueImpulse(r3.Vec)              {}
func (b *fakeBody) IsKinematic() bool                    { return false }
func (b *fakeBody) SetKinematic(bool)                    {}
func (b *fakeBody) Sleep()                               {}
func (b *fakeBody) Constraints() schemas.Constraints     { return 0 }
func (b *fakeBody) SetConstraints(schemas.Constraints)   {}

type node struct {
	name     string
	parent   schemas.EntityID
	category schemas.Category
	pos      r3.Vec
}

// fakeScene implements schemas.SceneGraph and schemas.PhysicsWorld. Entities
// with a body keep their position on the body.
type fakeScene struct {
	nodes  map[schemas.EntityID]*node
	bodies map[schemas.EntityID]*fakeBody
	order  []schemas.EntityID
}

func newFakeScene() *fakeScene {
	return &fakeScene{nodes: map[schemas.EntityID]*node{}, bodies: map[schemas.EntityID]*fakeBody{}}
}

func (s *fakeScene) add(id schemas.EntityID, name string, parent schemas.EntityID, cat schemas.Category, pos r3.Vec) {
	s.nodes[id] = &node{name: name, parent: parent, category: cat, pos: pos}
	s.order = append(s.order, id)
}

func (s *fakeScene) addBody(id schemas.EntityID, name string, parent schemas.EntityID, cat schemas.Category, pos r3.Vec) *fakeBody {
	s.add(id, name, parent, cat, pos)
	b := &fakeBody{id: id, pos: pos}
	s.bodies[id] = b
	return b
}

// destroy removes an entity and its body, leaving dangling references behind.
func (s *fakeScene) destroy(id schemas.EntityID) {
	delete(s.nodes, id)
	delete(s.bodies, id)
}

func (s *fakeScene) Exists(id schemas.EntityID) bool { return s.nodes[id] != nil }
func (s *fakeScene) Name(id schemas.EntityID) string {
	if n := s.nodes[id]; n != nil {
		return n.name
	}
	return ""
}
func (s *fakeScene) Find(name string) (schemas.EntityID, bool) {
	for _, id := range s.order {
		if n := s.nodes[id]; n != nil && n.name == name {
			return id, true
		}
	}
	return schemas.NoEntity, false
}
func (s *fakeScene) FindByCategory(c schemas.Category) []schemas.EntityID {
	var out []schemas.EntityID
	for _, id := range s.order {
		if n := s.nodes[id]; n != nil && n.category.Has(c) {
			out = append(out, id)
		}
	}
	return out
}
func (s *fakeScene) Category(id schemas.EntityID) schemas.Category {
	if n := s.nodes[id]; n != nil {
		return n.category
	}
	return schemas.CategoryNone
}
func (s *fakeScene) Parent(id schemas.EntityID) (schemas.EntityID, bool) {
	n := s.nodes[id]
	if n == nil || n.parent == schemas.NoEntity {
		return schemas.NoEntity, false
	}
	return n.parent, true
}
func (s *fakeScene) Descendants(id schemas.EntityID) []schemas.EntityID {
	var out []schemas.EntityID
	for _, other := range s.order {
		if other != id && s.IsDescendantOf(other, id) {
			out = append(out, other)
		}
	}
	return out
}
func (s *fakeScene) IsDescendantOf(id, ancestor schemas.EntityID) bool {
	for cur := id; cur != schemas.NoEntity; {
		if cur == ancestor {
			return true
		}
		n := s.nodes[cur]
		if n == nil {
			return false
		}
		cur = n.parent
	}
	return false
}
func (s *fakeScene) Position(id schemas.EntityID) r3.Vec {
	if b, ok := s.bodies[id]; ok {
		return b.pos
	}
	if n := s.nodes[id]; n != nil {
		return n.pos
	}
	return r3.Vec{}
}
func (s *fakeScene) SetPosition(id schemas.EntityID, p r3.Vec) {
	if b, ok := s.bodies[id]; ok {
		b.pos = p
		return
	}
	if n := s.nodes[id]; n != nil {
		n.pos = p
	}
}
func (s *fakeScene) Rotation(schemas.EntityID) quat.Number { return quat.Number{Real: 1} }

func (s *fakeScene) Body(id schemas.EntityID) (schemas.Body, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return nil, false
	}
	return b, true
}
func (s *fakeScene) AttachedBody(collider schemas.EntityID) (schemas.EntityID, bool) {
	for cur := collider; cur != schemas.NoEntity; {
		if _, ok := s.bodies[cur]; ok {
			return cur, true
		}
		n := s.nodes[cur]
		if n == nil {
			break
		}
		cur = n.parent
	}
	return schemas.NoEntity, false
}
func (s *fakeScene) IsCollider(id schemas.EntityID) bool      { return s.nodes[id] != nil }
func (s *fakeScene) IsTrigger(schemas.EntityID) bool          { return false }
func (s *fakeScene) SetTrigger(schemas.EntityID, bool)        {}
func (s *fakeScene) IgnoreCollision(_, _ schemas.EntityID, _ bool) {}
