// internal/physics/world.go
package physics

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// Config tunes the reference world.
type Config struct {
	Gravity r3.Vec `mapstructure:"-" yaml:"-"`
	// FloorEnabled clamps gravity bodies to FloorY so they can stand on the
	// track without a full contact solver.
	FloorEnabled bool    `mapstructure:"floor_enabled" yaml:"floor_enabled"`
	FloorY       float64 `mapstructure:"floor_y" yaml:"floor_y"`
	LogEvents    bool    `mapstructure:"log_events" yaml:"log_events"`
}

// DefaultConfig uses earth gravity and a floor at y=0.
func DefaultConfig() Config {
	return Config{
		Gravity:      r3.Vec{Y: -9.81},
		FloorEnabled: true,
	}
}

// Shape selects the collider geometry.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSphere
	// ShapeBox is an axis-aligned box. Rotation is ignored for overlap tests.
	ShapeBox
)

// ColliderSpec describes the collider carried by an entity.
type ColliderSpec struct {
	Shape       Shape
	Radius      float64
	HalfExtents r3.Vec
	Offset      r3.Vec
	Trigger     bool
}

// BodySpec describes the rigid body carried by an entity.
type BodySpec struct {
	Mass        float64
	Inertia     float64
	Kinematic   bool
	UseGravity  bool
	Constraints schemas.Constraints
}

// EntitySpec describes an entity to spawn.
type EntitySpec struct {
	Name     string
	Parent   schemas.EntityID
	Category schemas.Category
	Position r3.Vec
	Rotation quat.Number
	Collider *ColliderSpec
	Body     *BodySpec
}

// Listener receives the contact and overlap events of one entity.
type Listener interface {
	OnContactBegin(other schemas.EntityID)
	OnContactEnd(other schemas.EntityID)
	OnOverlapBegin(other schemas.EntityID)
	OnOverlapEnd(other schemas.EntityID)
}

type entity struct {
	id       schemas.EntityID
	name     string
	parent   schemas.EntityID
	children []schemas.EntityID
	category schemas.Category
	pos      r3.Vec
	rot      quat.Number
	collider *ColliderSpec
	body     *body
	rendered bool
}

type pairKey struct{ a, b schemas.EntityID }

func makePair(a, b schemas.EntityID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type pairKind int

const (
	kindContact pairKind = iota + 1
	kindOverlap
)

// World is a small deterministic rigid-body world. It integrates bodies,
// detects sphere and box overlaps and reports begin and end events. It does
// not resolve penetration apart from the optional floor plane.
//
// World implements schemas.PhysicsWorld, schemas.SceneGraph and
// schemas.Renderer. It is safe for concurrent reads, but a world is meant to
// be stepped from a single goroutine.
type World struct {
	mu        sync.RWMutex
	cfg       Config
	logger    *zap.Logger
	nextID    schemas.EntityID
	entities  map[schemas.EntityID]*entity
	order     []schemas.EntityID
	ignored   map[pairKey]bool
	touching  map[pairKey]pairKind
	listeners map[schemas.EntityID][]Listener
	time      float64
}

// New creates an empty world.
func New(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		cfg:       cfg,
		logger:    logger.Named("physics"),
		entities:  make(map[schemas.EntityID]*entity),
		ignored:   make(map[pairKey]bool),
		touching:  make(map[pairKey]pairKind),
		listeners: make(map[schemas.EntityID][]Listener),
	}
}

// Spawn creates an entity and returns its id. An unknown parent is ignored.
func (w *World) Spawn(spec EntitySpec) schemas.EntityID {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	rot := spec.Rotation
	if rot == (quat.Number{}) {
		rot = geom.Identity()
	}
	e := &entity{
		id:       w.nextID,
		name:     spec.Name,
		category: spec.Category,
		pos:      spec.Position,
		rot:      geom.Normalize(rot),
		rendered: true,
	}
	if spec.Collider != nil {
		c := *spec.Collider
		e.collider = &c
	}
	if spec.Body != nil {
		e.body = newBody(w, e.id, *spec.Body)
	}
	if parent, ok := w.entities[spec.Parent]; ok {
		e.parent = parent.id
		parent.children = append(parent.children, e.id)
	}
	w.entities[e.id] = e
	w.order = append(w.order, e.id)
	return e.id
}

// Destroy removes id and its descendants. Pairs involving them are dropped
// without end events.
func (w *World) Destroy(id schemas.EntityID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entities[id]
	if !ok {
		return
	}
	doomed := append([]schemas.EntityID{id}, w.descendantsLocked(id)...)
	if parent, ok := w.entities[e.parent]; ok {
		parent.children = removeID(parent.children, id)
	}
	gone := make(map[schemas.EntityID]bool, len(doomed))
	for _, d := range doomed {
		gone[d] = true
		delete(w.entities, d)
		delete(w.listeners, d)
	}
	for k := range w.touching {
		if gone[k.a] || gone[k.b] {
			delete(w.touching, k)
		}
	}
	for k := range w.ignored {
		if gone[k.a] || gone[k.b] {
			delete(w.ignored, k)
		}
	}
	kept := w.order[:0]
	for _, o := range w.order {
		if !gone[o] {
			kept = append(kept, o)
		}
	}
	w.order = kept
}

// Subscribe registers l for the events of id. Events of a collider are also
// delivered to the entity of the body it is attached to.
func (w *World) Subscribe(id schemas.EntityID, l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[id]; !ok {
		return
	}
	w.listeners[id] = append(w.listeners[id], l)
}

// Time returns the simulated seconds stepped so far.
func (w *World) Time() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.time
}

// Touching reports whether the colliders a and b currently touch.
func (w *World) Touching(a, b schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.touching[makePair(a, b)]
	return ok
}

// -- schemas.PhysicsWorld --

func (w *World) Body(id schemas.EntityID) (schemas.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok || e.body == nil {
		return nil, false
	}
	return e.body, true
}

// AttachedBody walks up from collider to the first entity carrying a body.
func (w *World) AttachedBody(collider schemas.EntityID) (schemas.EntityID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attachedBodyLocked(collider)
}

func (w *World) attachedBodyLocked(id schemas.EntityID) (schemas.EntityID, bool) {
	for e, ok := w.entities[id]; ok; e, ok = w.entities[e.parent] {
		if e.body != nil {
			return e.id, true
		}
	}
	return schemas.NoEntity, false
}

func (w *World) IsCollider(id schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return ok && e.collider != nil && e.collider.Shape != ShapeNone
}

func (w *World) IsTrigger(collider schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[collider]
	return ok && e.collider != nil && e.collider.Trigger
}

func (w *World) SetTrigger(collider schemas.EntityID, trigger bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[collider]; ok && e.collider != nil {
		e.collider.Trigger = trigger
	}
}

// IgnoreCollision toggles the pair. Ignoring a touching pair ends it at the
// next step.
func (w *World) IgnoreCollision(a, b schemas.EntityID, ignore bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := makePair(a, b)
	if ignore {
		w.ignored[k] = true
	} else {
		delete(w.ignored, k)
	}
}

// Ignored reports whether the pair is currently ignored.
func (w *World) Ignored(a, b schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ignored[makePair(a, b)]
}

// -- schemas.SceneGraph --

func (w *World) Exists(id schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entities[id]
	return ok
}

func (w *World) Name(id schemas.EntityID) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e, ok := w.entities[id]; ok {
		return e.name
	}
	return ""
}

func (w *World) Find(name string) (schemas.EntityID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, id := range w.order {
		if w.entities[id].name == name {
			return id, true
		}
	}
	return schemas.NoEntity, false
}

func (w *World) FindByCategory(c schemas.Category) []schemas.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []schemas.EntityID
	for _, id := range w.order {
		if w.entities[id].category.Has(c) {
			out = append(out, id)
		}
	}
	return out
}

func (w *World) Category(id schemas.EntityID) schemas.Category {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e, ok := w.entities[id]; ok {
		return e.category
	}
	return schemas.CategoryNone
}

func (w *World) Parent(id schemas.EntityID) (schemas.EntityID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok || e.parent == schemas.NoEntity {
		return schemas.NoEntity, false
	}
	return e.parent, true
}

func (w *World) Descendants(id schemas.EntityID) []schemas.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.descendantsLocked(id)
}

func (w *World) descendantsLocked(id schemas.EntityID) []schemas.EntityID {
	e, ok := w.entities[id]
	if !ok {
		return nil
	}
	var out []schemas.EntityID
	for _, c := range e.children {
		out = append(out, c)
		out = append(out, w.descendantsLocked(c)...)
	}
	return out
}

func (w *World) IsDescendantOf(id, ancestor schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for e, ok := w.entities[id]; ok; e, ok = w.entities[e.parent] {
		if e.id == ancestor {
			return true
		}
	}
	return false
}

func (w *World) Position(id schemas.EntityID) r3.Vec {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e, ok := w.entities[id]; ok {
		return e.pos
	}
	return r3.Vec{}
}

// SetPosition moves id and carries its descendants along.
func (w *World) SetPosition(id schemas.EntityID, p r3.Vec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setPositionLocked(id, p)
}

func (w *World) setPositionLocked(id schemas.EntityID, p r3.Vec) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	delta := r3.Sub(p, e.pos)
	e.pos = p
	for _, d := range w.descendantsLocked(id) {
		child := w.entities[d]
		child.pos = r3.Add(child.pos, delta)
	}
}

func (w *World) Rotation(id schemas.EntityID) quat.Number {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e, ok := w.entities[id]; ok {
		return e.rot
	}
	return geom.Identity()
}

// SetRotation writes the world rotation of id. Descendants keep their own
// rotation.
func (w *World) SetRotation(id schemas.EntityID, q quat.Number) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[id]; ok {
		e.rot = geom.Normalize(q)
	}
}

// -- schemas.Renderer --

func (w *World) SetRendered(id schemas.EntityID, rendered bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[id]; ok {
		e.rendered = rendered
	}
}

// Rendered reports whether id is drawn.
func (w *World) Rendered(id schemas.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return ok && e.rendered
}

func removeID(ids []schemas.EntityID, id schemas.EntityID) []schemas.EntityID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func sortPairs(keys []pairKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
}
