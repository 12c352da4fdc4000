// internal/terrain/mover_test.go
package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

const (
	terrainID schemas.EntityID = 1
	propID    schemas.EntityID = 2
	goalID    schemas.EntityID = 3
	extraID   schemas.EntityID = 4
	playerID  schemas.EntityID = 5
	playerCol schemas.EntityID = 6
	sphereID  schemas.EntityID = 7
	crateID   schemas.EntityID = 8
	wallID    schemas.EntityID = 9
)

type fixture struct {
	scene  *fakeScene
	mover  *Mover
	prop   *fakeBody
	extra  *fakeBody
	player *fakeBody
	sphere *fakeBody
	crate  *fakeBody
}

func setupMover(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	s := newFakeScene()
	s.add(terrainID, "Terrain", schemas.NoEntity, schemas.CategoryTerrain, r3.Vec{})
	f := &fixture{scene: s}
	f.prop = s.addBody(propID, "Prop", terrainID, schemas.CategoryPassenger, r3.Vec{X: 2, Z: 5})
	s.add(goalID, "Goal", schemas.NoEntity, schemas.CategoryGoal, r3.Vec{Z: 40})
	f.extra = s.addBody(extraID, "Marker", schemas.NoEntity, schemas.CategoryDecoration, r3.Vec{X: 1, Z: 10})
	f.player = s.addBody(playerID, "Capsule", schemas.NoEntity, schemas.CategoryCapsule|schemas.CategoryPassenger, r3.Vec{Y: 1})
	s.add(playerCol, "CapsuleCollider", playerID, schemas.CategoryNone, r3.Vec{})
	f.sphere = s.addBody(sphereID, "Sphere", schemas.NoEntity, schemas.CategoryPassenger|schemas.CategoryCountTarget, r3.Vec{Z: 3})
	f.crate = s.addBody(crateID, "Crate", schemas.NoEntity, schemas.CategoryPassenger, r3.Vec{X: -1, Y: 0.5, Z: 2})
	s.add(wallID, "Wall", schemas.NoEntity, schemas.CategoryNone, r3.Vec{})

	cfg := DefaultConfig()
	cfg.Speed = 4
	cfg.ScanAtStart = false
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := New(cfg, Deps{
		Terrain: terrainID,
		Extras:  []schemas.EntityID{extraID, propID},
		Physics: s,
		Scene:   s,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	m.Start()
	f.mover = m
	return f
}

func TestNew_RequiresTerrain(t *testing.T) {
	s := newFakeScene()
	_, err := New(DefaultConfig(), Deps{Terrain: terrainID, Scene: s}, nil)
	assert.ErrorIs(t, err, ErrNoTerrain)
	_, err = New(DefaultConfig(), Deps{Terrain: terrainID}, nil)
	assert.ErrorIs(t, err, ErrNoTerrain)
}

func TestStart_FindsGoalByName(t *testing.T) {
	f := setupMover(t, nil)
	assert.Equal(t, goalID, f.mover.Goal())
}

func TestStart_ScanRegistersPassengers(t *testing.T) {
	f := setupMover(t, func(c *Config) { c.ScanAtStart = true })
	assert.True(t, f.mover.IsPassenger(playerID))
	assert.True(t, f.mover.IsPassenger(crateID))
	assert.False(t, f.mover.IsPassenger(sphereID), "count targets are excluded")
}

func TestFixedUpdate_TranslatesPlatformAndPassengers(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerCol)
	require.True(t, f.mover.IsPassenger(playerID))

	f.mover.FixedUpdate(0.25)

	step := r3.Vec{Z: -1}
	assert.Equal(t, step, f.scene.Position(terrainID))
	assert.Equal(t, r3.Add(r3.Vec{Y: 1}, step), f.player.pos)
	assert.Equal(t, 1, f.player.moves, "passengers move through the solver")
	assert.Equal(t, r3.Vec{Z: 39}, f.scene.Position(goalID))
	assert.Equal(t, r3.Vec{X: 1, Z: 9}, f.extra.pos)

	// Children of the terrain already follow it.
	assert.Equal(t, r3.Vec{X: 2, Z: 5}, f.prop.pos)
	// Bodies that never boarded stay put.
	assert.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 2}, f.crate.pos)
}

func TestFixedUpdate_ExitedPassengerIsNotCarried(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerCol)
	f.mover.OnOverlapBegin(crateID)
	f.mover.OnOverlapEnd(playerCol)

	f.mover.FixedUpdate(0.25)

	assert.Equal(t, r3.Vec{Y: 1}, f.player.pos)
	assert.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 1}, f.crate.pos)
	assert.ElementsMatch(t, []schemas.EntityID{crateID}, f.mover.Passengers())
}

func TestOverlap_Filtering(t *testing.T) {
	f := setupMover(t, nil)

	f.mover.OnOverlapBegin(sphereID)
	f.mover.OnOverlapBegin(wallID)
	f.mover.OnOverlapBegin(schemas.EntityID(999))
	assert.Empty(t, f.mover.Passengers())

	f.mover.OnOverlapBegin(playerCol)
	f.mover.OnOverlapBegin(playerID)
	assert.ElementsMatch(t, []schemas.EntityID{playerID}, f.mover.Passengers())

	f.mover.OnOverlapEnd(wallID)
	assert.Len(t, f.mover.Passengers(), 1)
}

func TestFixedUpdate_DisabledDoesNothing(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerID)
	f.mover.SetMovementEnabled(false)

	f.mover.FixedUpdate(0.25)

	assert.False(t, f.mover.MovementEnabled())
	assert.Equal(t, r3.Vec{}, f.scene.Position(terrainID))
	assert.Equal(t, r3.Vec{Y: 1}, f.player.pos)
}

func TestFixedUpdate_DropsDestroyedPassengers(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerID)
	f.mover.OnOverlapBegin(crateID)
	f.scene.destroy(crateID)

	f.mover.FixedUpdate(0.25)

	assert.ElementsMatch(t, []schemas.EntityID{playerID}, f.mover.Passengers())
	assert.Equal(t, r3.Vec{Y: 1, Z: -1}, f.player.pos)
}

func TestResetToStart_RestoresExactLayout(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerCol)
	f.mover.OnOverlapBegin(crateID)

	for i := 0; i < 12; i++ {
		f.mover.FixedUpdate(0.125)
	}
	require.Equal(t, r3.Vec{Z: -6}, f.scene.Position(terrainID))

	f.mover.ResetToStart()

	assert.Equal(t, r3.Vec{}, f.scene.Position(terrainID))
	assert.Equal(t, r3.Vec{Y: 1}, f.player.pos)
	assert.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 2}, f.crate.pos)
	assert.Equal(t, r3.Vec{Z: 40}, f.scene.Position(goalID))
	assert.Equal(t, r3.Vec{X: 1, Z: 10}, f.extra.pos)
	assert.Equal(t, 1, f.player.sets, "the correction is applied immediately")
	assert.Equal(t, r3.Vec{}, f.mover.StartPosition())
}

func TestResetToStart_RestoresPosesAfterFractionalSteps(t *testing.T) {
	s := newFakeScene()
	s.add(terrainID, "Terrain", schemas.NoEntity, schemas.CategoryTerrain, r3.Vec{Z: 0.3})
	s.add(goalID, "Goal", schemas.NoEntity, schemas.CategoryGoal, r3.Vec{Z: 40.1})
	extra := s.addBody(extraID, "Marker", schemas.NoEntity, schemas.CategoryDecoration, r3.Vec{X: 0.7, Z: 10.3})
	crate := s.addBody(crateID, "Crate", schemas.NoEntity, schemas.CategoryPassenger, r3.Vec{X: -1, Y: 0.5, Z: 1.7})

	cfg := DefaultConfig()
	cfg.Speed = 3.3
	cfg.ScanAtStart = true
	m, err := New(cfg, Deps{Terrain: terrainID, Extras: []schemas.EntityID{extraID}, Physics: s, Scene: s}, zaptest.NewLogger(t))
	require.NoError(t, err)
	m.Start()
	require.True(t, m.IsPassenger(crateID))

	for i := 0; i < 137; i++ {
		m.FixedUpdate(0.02)
	}
	require.NotEqual(t, r3.Vec{Z: 0.3}, s.Position(terrainID))

	m.ResetToStart()

	require.Equal(t, r3.Vec{Z: 0.3}, s.Position(terrainID))
	require.Equal(t, r3.Vec{Z: 40.1}, s.Position(goalID))
	require.Equal(t, r3.Vec{X: 0.7, Z: 10.3}, extra.pos)
	require.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 1.7}, crate.pos)

	// A second lap starts from the restored poses.
	for i := 0; i < 61; i++ {
		m.FixedUpdate(0.02)
	}
	m.ResetToStart()
	assert.Equal(t, r3.Vec{Z: 40.1}, s.Position(goalID))
	assert.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 1.7}, crate.pos)
}

func TestResetToStart_PushedPassengerKeepsItsOffset(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(crateID)

	f.mover.FixedUpdate(0.25)
	require.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 1}, f.crate.pos)
	f.crate.pos = r3.Vec{X: -1, Y: 0.5, Z: 1.5}
	f.mover.FixedUpdate(0.25)

	f.mover.ResetToStart()

	assert.Equal(t, r3.Vec{}, f.scene.Position(terrainID))
	assert.Equal(t, r3.Vec{X: -1, Y: 0.5, Z: 2.5}, f.crate.pos)
}

func TestResetToStart_WithoutMovementIsNoop(t *testing.T) {
	f := setupMover(t, nil)
	f.mover.OnOverlapBegin(playerID)
	f.mover.ResetToStart()
	assert.Equal(t, r3.Vec{Y: 1}, f.player.pos)
	assert.Equal(t, r3.Vec{Z: 40}, f.scene.Position(goalID))
}

func TestCustomAxis(t *testing.T) {
	f := setupMover(t, func(c *Config) { c.Axis = r3.Vec{X: 2} })
	f.mover.FixedUpdate(0.5)
	assert.Equal(t, r3.Vec{X: -2}, f.scene.Position(terrainID))
}
