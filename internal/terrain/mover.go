// internal/terrain/mover.go
package terrain

import (
	"errors"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// ErrNoTerrain is returned by New when the terrain entity is missing.
var ErrNoTerrain = errors.New("terrain: terrain entity is required")

// Deps wires a Mover to its scene.
type Deps struct {
	Terrain schemas.EntityID
	// Goal is optional; Config.GoalName is used to find it otherwise.
	Goal schemas.EntityID
	// Extras are additional entities translated in lock-step with the terrain.
	Extras []schemas.EntityID

	Physics schemas.PhysicsWorld
	Scene   schemas.SceneGraph
}

// Mover scrolls a terrain platform along a fixed axis and carries its
// passengers, the goal marker and any linked targets with it.
type Mover struct {
	cfg    Config
	logger *zap.Logger

	terrain schemas.EntityID
	goal    schemas.EntityID
	extras  []schemas.EntityID
	physics schemas.PhysicsWorld
	scene   schemas.SceneGraph

	enabled     bool
	start       r3.Vec
	startCached bool
	linkedStart map[schemas.EntityID]r3.Vec

	passengers map[schemas.EntityID]*ride
	dead       []schemas.EntityID
}

// ride records where a passenger boarded so that a reset can put it back
// without accumulating the rounding of every carried step.
type ride struct {
	anchor r3.Vec // body pose at boarding
	base   r3.Vec // terrain pose at boarding
	last   r3.Vec // body pose after the mover last moved it

	// carried stays true while the mover is the only thing moving the body.
	carried bool
}

func newRide(pos, terrain r3.Vec) *ride {
	return &ride{anchor: pos, base: terrain, last: pos, carried: true}
}

// New builds a Mover. The scene graph is required since the terrain is moved
// through it.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Mover, error) {
	if deps.Scene == nil || deps.Terrain == schemas.NoEntity || !deps.Scene.Exists(deps.Terrain) {
		return nil, ErrNoTerrain
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	axis := cfg.Axis
	if r3.Norm(axis) == 0 {
		axis = r3.Vec{Z: 1}
	}
	cfg.Axis = r3.Unit(axis)

	return &Mover{
		cfg:         cfg,
		logger:      logger.Named("terrain"),
		terrain:     deps.Terrain,
		goal:        deps.Goal,
		extras:      append([]schemas.EntityID(nil), deps.Extras...),
		physics:     deps.Physics,
		scene:       deps.Scene,
		enabled:     cfg.Enabled,
		linkedStart: make(map[schemas.EntityID]r3.Vec),
		passengers:  make(map[schemas.EntityID]*ride),
	}, nil
}

// Start caches the starting position, resolves the goal marker and, when
// configured, registers the passengers already in the scene.
func (m *Mover) Start() {
	if m.goal == schemas.NoEntity && m.cfg.GoalName != "" {
		if id, ok := m.scene.Find(m.cfg.GoalName); ok {
			m.goal = id
		}
	}
	m.cacheStart()

	if !m.cfg.ScanAtStart {
		return
	}
	for _, owner := range m.scene.FindByCategory(schemas.CategoryPassenger) {
		if m.excluded(owner) || m.physics == nil {
			continue
		}
		if body, ok := m.physics.Body(owner); ok {
			m.passengers[owner] = newRide(body.Position(), m.start)
		}
	}
	if m.cfg.LogEvents {
		m.logger.Debug("Terrain started.", zap.Int("passengers", len(m.passengers)))
	}
}

func (m *Mover) cacheStart() {
	if m.startCached {
		return
	}
	m.start = m.scene.Position(m.terrain)
	m.startCached = true
	m.cacheLinked(m.goal)
	for _, id := range m.extras {
		m.cacheLinked(id)
	}
}

func (m *Mover) cacheLinked(id schemas.EntityID) {
	if id == schemas.NoEntity || !m.scene.Exists(id) {
		return
	}
	m.linkedStart[id] = m.targetPosition(id)
}

func (m *Mover) targetPosition(id schemas.EntityID) r3.Vec {
	if m.physics != nil {
		if body, ok := m.physics.Body(id); ok {
			return body.Position()
		}
	}
	return m.scene.Position(id)
}

// FixedUpdate translates the terrain and everything riding it by one step.
func (m *Mover) FixedUpdate(dt float64) {
	if !m.enabled {
		return
	}
	delta := r3.Scale(-m.cfg.Speed*dt, m.cfg.Axis)

	m.scene.SetPosition(m.terrain, r3.Add(m.scene.Position(m.terrain), delta))
	m.moveLinked(delta)
	m.movePassengers(delta)
}

// ResetToStart moves the terrain back to its cached starting position. Linked
// targets return to the poses cached with it. A passenger that only rode the
// terrain since boarding returns to its boarding pose; any other passenger
// gets the terrain's correction applied at once.
func (m *Mover) ResetToStart() {
	m.cacheStart()
	delta := r3.Sub(m.start, m.scene.Position(m.terrain))

	m.scene.SetPosition(m.terrain, m.start)
	m.restoreLinked(delta)
	m.restorePassengers(delta)

	if m.cfg.LogEvents {
		m.logger.Debug("Terrain reset to start.",
			zap.Float64s("delta", []float64{delta.X, delta.Y, delta.Z}))
	}
}

func (m *Mover) moveLinked(delta r3.Vec) {
	m.moveTarget(m.goal, delta, false)
	for _, id := range m.extras {
		m.moveTarget(id, delta, false)
	}
}

func (m *Mover) restoreLinked(delta r3.Vec) {
	m.restoreTarget(m.goal, delta)
	for _, id := range m.extras {
		m.restoreTarget(id, delta)
	}
}

func (m *Mover) restoreTarget(id schemas.EntityID, delta r3.Vec) {
	start, ok := m.linkedStart[id]
	if !ok {
		m.moveTarget(id, delta, true)
		return
	}
	if !m.scene.Exists(id) || m.scene.IsDescendantOf(id, m.terrain) {
		return
	}
	if m.physics != nil {
		if body, ok := m.physics.Body(id); ok {
			body.SetPosition(start)
			return
		}
	}
	m.scene.SetPosition(id, start)
}

// moveTarget translates a linked entity unless it already moves as a child of
// the terrain. Entities with a body are moved through it.
func (m *Mover) moveTarget(id schemas.EntityID, delta r3.Vec, immediate bool) {
	if id == schemas.NoEntity || !m.scene.Exists(id) {
		return
	}
	if m.scene.IsDescendantOf(id, m.terrain) {
		return
	}
	if m.physics != nil {
		if body, ok := m.physics.Body(id); ok {
			moveBody(body, delta, immediate)
			return
		}
	}
	m.scene.SetPosition(id, r3.Add(m.scene.Position(id), delta))
}

func (m *Mover) movePassengers(delta r3.Vec) {
	m.eachPassenger(func(body schemas.Body, r *ride) {
		if body.Position() != r.last {
			r.carried = false
		}
		moveBody(body, delta, false)
		r.last = body.Position()
	})
}

func (m *Mover) restorePassengers(delta r3.Vec) {
	m.eachPassenger(func(body schemas.Body, r *ride) {
		pos := body.Position()
		if r.carried && pos == r.last {
			target := r.anchor
			if r.base != m.start {
				target = r3.Add(r.anchor, r3.Sub(m.start, r.base))
			}
			body.SetPosition(target)
		} else {
			moveBody(body, delta, true)
		}
		*r = *newRide(body.Position(), m.start)
	})
}

// eachPassenger visits the live passengers that do not already follow the
// terrain as children, and forgets those whose body is gone.
func (m *Mover) eachPassenger(fn func(schemas.Body, *ride)) {
	m.dead = m.dead[:0]
	for id, r := range m.passengers {
		var body schemas.Body
		ok := m.physics != nil
		if ok {
			body, ok = m.physics.Body(id)
		}
		if !ok {
			m.dead = append(m.dead, id)
			continue
		}
		if m.scene.IsDescendantOf(id, m.terrain) {
			continue
		}
		fn(body, r)
	}
	for _, id := range m.dead {
		delete(m.passengers, id)
	}
}

func moveBody(body schemas.Body, delta r3.Vec, immediate bool) {
	next := r3.Add(body.Position(), delta)
	if immediate {
		body.SetPosition(next)
		return
	}
	body.MovePosition(next)
}

// OnOverlapBegin registers the body owning other as a passenger.
func (m *Mover) OnOverlapBegin(other schemas.EntityID) {
	id, ok := m.resolvePassenger(other)
	if !ok {
		return
	}
	if _, known := m.passengers[id]; known {
		return
	}
	body, ok := m.physics.Body(id)
	if !ok {
		return
	}
	m.passengers[id] = newRide(body.Position(), m.scene.Position(m.terrain))
	if m.cfg.LogEvents {
		m.logger.Debug("Passenger boarded.", zap.Uint64("body", uint64(id)), zap.String("name", m.scene.Name(id)))
	}
}

// OnOverlapEnd removes the body owning other from the passenger set.
func (m *Mover) OnOverlapEnd(other schemas.EntityID) {
	id, ok := m.resolvePassenger(other)
	if !ok {
		return
	}
	if _, known := m.passengers[id]; !known {
		return
	}
	delete(m.passengers, id)
	if m.cfg.LogEvents {
		m.logger.Debug("Passenger left.", zap.Uint64("body", uint64(id)), zap.String("name", m.scene.Name(id)))
	}
}

// resolvePassenger maps a collider to the body that should ride the terrain:
// the nearest passenger-category ancestor owns it, and the body is either the
// one attached to the collider or the owner's own.
func (m *Mover) resolvePassenger(collider schemas.EntityID) (schemas.EntityID, bool) {
	if m.physics == nil {
		return schemas.NoEntity, false
	}
	owner, ok := m.passengerOwner(collider)
	if !ok || m.excluded(owner) {
		return schemas.NoEntity, false
	}
	if id, ok := m.physics.AttachedBody(collider); ok {
		return id, true
	}
	if _, ok := m.physics.Body(owner); ok {
		return owner, true
	}
	return schemas.NoEntity, false
}

func (m *Mover) passengerOwner(id schemas.EntityID) (schemas.EntityID, bool) {
	for depth := 0; id != schemas.NoEntity && depth < 64; depth++ {
		if !m.scene.Exists(id) {
			return schemas.NoEntity, false
		}
		if m.scene.Category(id).Has(schemas.CategoryPassenger) {
			return id, true
		}
		parent, ok := m.scene.Parent(id)
		if !ok {
			break
		}
		id = parent
	}
	return schemas.NoEntity, false
}

func (m *Mover) excluded(owner schemas.EntityID) bool {
	return m.cfg.ExcludeCategories != schemas.CategoryNone &&
		m.scene.Category(owner).Any(m.cfg.ExcludeCategories)
}

// SetMovementEnabled turns scrolling on or off.
func (m *Mover) SetMovementEnabled(enabled bool) {
	m.enabled = enabled
	if m.cfg.LogEvents {
		m.logger.Debug("Terrain movement toggled.", zap.Bool("enabled", enabled))
	}
}

// MovementEnabled reports the scrolling gate.
func (m *Mover) MovementEnabled() bool { return m.enabled }

// IsPassenger reports whether id is currently carried.
func (m *Mover) IsPassenger(id schemas.EntityID) bool {
	_, ok := m.passengers[id]
	return ok
}

// Passengers returns the carried bodies in no particular order.
func (m *Mover) Passengers() []schemas.EntityID {
	out := make([]schemas.EntityID, 0, len(m.passengers))
	for id := range m.passengers {
		out = append(out, id)
	}
	return out
}

// Goal returns the resolved goal marker, or schemas.NoEntity.
func (m *Mover) Goal() schemas.EntityID { return m.goal }

// Entity returns the terrain entity.
func (m *Mover) Entity() schemas.EntityID { return m.terrain }

// StartPosition returns the cached starting position.
func (m *Mover) StartPosition() r3.Vec { return m.start }
