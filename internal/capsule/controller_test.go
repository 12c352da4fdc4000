// internal/capsule/controller_test.go
package capsule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

const (
	capsuleID schemas.EntityID = 1
	hazardID  schemas.EntityID = 10
	hazardKid schemas.EntityID = 11
	spikeID   schemas.EntityID = 20
	plainID   schemas.EntityID = 30
)

type harness struct {
	c        *Controller
	body     *fakeBody
	world    *fakeWorld
	input    *fakeInput
	text     *fakeText
	renderer *fakeRenderer
}

// frame is one Update with equal scaled and unscaled time.
func frame(dt float64) schemas.FrameTime { return schemas.FrameTime{Delta: dt, Unscaled: dt} }

func setupController(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StartWithCountdown = false
	cfg.CalibrateInput = false
	if mutate != nil {
		mutate(&cfg)
	}

	w := newFakeWorld()
	body := newFakeBody(capsuleID)
	body.pos = r3.Vec{Y: 1}
	w.bodies[capsuleID] = body
	w.add(capsuleID, "Capsule", schemas.NoEntity, schemas.CategoryCapsule, true)
	w.add(hazardID, "Hazard", schemas.NoEntity, schemas.CategoryHazard, true)
	w.add(hazardKid, "HazardSpike", hazardID, schemas.CategoryNone, true)
	w.add(spikeID, "SpikeZone", schemas.NoEntity, schemas.CategorySpike, true)
	w.add(plainID, "Rock", schemas.NoEntity, schemas.CategoryNone, true)

	in := &fakeInput{}
	text := &fakeText{}
	rend := &fakeRenderer{}
	c, err := New(cfg, Deps{
		Body:          body,
		Physics:       w,
		Scene:         w,
		Input:         in,
		Renderer:      rend,
		CountdownText: text,
	}, zap.NewNop())
	require.NoError(t, err)
	c.Start()
	return &harness{c: c, body: body, world: w, input: in, text: text, renderer: rend}
}

func TestNew_RequiresBody(t *testing.T) {
	_, err := New(DefaultConfig(), Deps{}, nil)
	assert.ErrorIs(t, err, ErrNoBody)
}

func TestMovement_ConstantSpeedAlongInput(t *testing.T) {
	h := setupController(t, nil)
	h.input.y = 1

	h.c.Update(frame(0.02))
	h.c.FixedUpdate(0.02)

	assert.InDelta(t, 0.1, h.body.pos.Z, 1e-12)
	assert.Equal(t, 1.0, h.body.pos.Y, "vertical coordinate is held")
	assert.Equal(t, r3.Vec{Z: 5}, h.c.CommandedVelocity())

	// Diagonal input is normalised: speed stays constant.
	h.input.x, h.input.y = 1, 1
	h.c.Update(frame(0.02))
	h.c.FixedUpdate(0.02)
	assert.InDelta(t, 5.0, r3.Norm(h.c.CommandedVelocity()), 1e-12)
}

func TestMovement_BelowDeadZoneIsHardStop(t *testing.T) {
	h := setupController(t, nil)
	inputs := []r2.Vec{{}, {X: 0.1}, {X: 0.19, Y: 0.05}, {X: -0.1, Y: 0.1}}
	for _, in := range inputs {
		h.input.x, h.input.y = in.X, in.Y
		h.body.vel = r3.Vec{X: 3, Y: -2, Z: 4}
		h.body.ang = r3.Vec{X: 1}

		h.c.Update(frame(0.02))
		h.c.FixedUpdate(0.02)

		assert.Equal(t, r3.Vec{}, h.c.CommandedVelocity(), "input %+v", in)
		assert.Equal(t, r3.Vec{Y: -2}, h.body.vel, "horizontal velocity zeroed, vertical kept")
		assert.Equal(t, r3.Vec{}, h.body.ang)
	}
	assert.Equal(t, 0, h.body.moves)
}

func TestMovement_DisabledForcesZeroVelocity(t *testing.T) {
	h := setupController(t, nil)
	h.c.SetMovementEnabled(false)
	h.input.y = 1

	for i := 0; i < 3; i++ {
		h.body.vel = r3.Vec{Z: 2, Y: 1}
		h.c.Update(frame(0.02))
		h.c.FixedUpdate(0.02)
		assert.Equal(t, r3.Vec{}, h.body.vel)
	}
	assert.Equal(t, 0.0, h.body.pos.Z)
	assert.False(t, h.c.CanMove())
}

func TestMovement_UnconfiguredAxesReadAsZero(t *testing.T) {
	h := setupController(t, nil)
	h.input.missing = true
	h.c.Update(frame(0.02))
	h.c.FixedUpdate(0.02)
	assert.Equal(t, r2.Vec{}, h.c.Desired())
}

func TestCountdown_GatesMovementOnUnscaledTime(t *testing.T) {
	h := setupController(t, func(c *Config) {
		c.StartWithCountdown = true
		c.CalibrateInput = true
		c.CalibrationDuration = 0.5
	})
	assert.True(t, h.c.IsCountingDown())
	assert.False(t, h.c.MovementEnabled())
	assert.Equal(t, "3", h.text.last())
	h.text.history = nil

	// Paused game: scaled delta is zero, the countdown still runs.
	paused := schemas.FrameTime{Delta: 0, Unscaled: 0.25}
	for i := 0; i < 11; i++ {
		h.c.Update(paused)
	}
	assert.True(t, h.c.IsCountingDown(), "2.75s elapsed")
	assert.Equal(t, "1", h.text.last())

	h.c.Update(paused)
	assert.False(t, h.c.IsCountingDown())
	assert.True(t, h.c.MovementEnabled())
	assert.Equal(t, "GO", h.text.last())
	assert.Equal(t, []string{"2", "1", "GO"}, h.text.history)

	h.c.Update(paused)
	h.c.Update(paused)
	assert.Equal(t, "", h.text.last(), "go text cleared after hold")
}

func TestCountdown_WaitsForCalibration(t *testing.T) {
	h := setupController(t, func(c *Config) {
		c.StartWithCountdown = true
		c.CountdownFrom = 1
		c.CountdownInterval = 0.25
		c.CalibrateInput = true
		c.CalibrationDuration = 1.0
	})
	h.c.Update(frame(0.25))
	assert.True(t, h.c.IsCountingDown(), "countdown done, calibration still sampling")
	assert.False(t, h.c.CalibrationDone())

	h.c.Update(frame(0.25))
	h.c.Update(frame(0.25))
	h.c.Update(frame(0.25))
	assert.True(t, h.c.CalibrationDone())
	assert.True(t, h.c.MovementEnabled())
}

func TestCalibration_RemovesDrift(t *testing.T) {
	h := setupController(t, func(c *Config) {
		c.CalibrateInput = true
		c.CalibrationDuration = 0.5
	})
	h.input.x, h.input.y = 0.15, 0.1
	for i := 0; i < 4; i++ {
		h.c.Update(frame(0.125))
	}
	require.True(t, h.c.CalibrationDone())
	assert.InDelta(t, 0.15, h.c.State().CalibrationOffset.X, 1e-12)
	assert.InDelta(t, 0.1, h.c.State().CalibrationOffset.Y, 1e-12)

	// The resting bias no longer moves the capsule.
	h.c.Update(frame(0.02))
	h.c.FixedUpdate(0.02)
	assert.Equal(t, r2.Vec{}, h.c.Desired())
	assert.Equal(t, 0.0, h.body.pos.X)

	// A held input at calibration start is not calibrated away.
	h.input.x, h.input.y = 0, 0.9
	h.c.BeginCountdown()
	h.c.Update(frame(0.125))
	assert.True(t, h.c.CalibrationDone())
	assert.Equal(t, r2.Vec{}, h.c.State().CalibrationOffset)
}

func TestTeleport_DynamicBody(t *testing.T) {
	h := setupController(t, nil)
	h.body.vel = r3.Vec{Z: 3}
	h.body.ang = r3.Vec{X: 2}

	target := geom.Pose{Position: r3.Vec{X: 2, Y: 1.5, Z: -4}, Rotation: geom.FromEuler(geom.Euler{Yaw: 90})}
	h.c.TeleportTo(target)

	assert.Equal(t, target.Position, h.body.pos)
	assert.Equal(t, r3.Vec{}, h.body.vel)
	assert.Equal(t, r3.Vec{}, h.body.ang)
	assert.False(t, h.body.kinematic, "kinematic flag restored")
	assert.Equal(t, []bool{true, false}, h.body.kinematicLog)
	assert.True(t, h.body.sleeping)
	assert.Equal(t, 1.5, h.c.State().FixedY)
}

func TestTeleport_KinematicBodyStaysAwake(t *testing.T) {
	h := setupController(t, nil)
	h.body.kinematic = true
	h.c.TeleportTo(geom.Pose{Position: r3.Vec{Z: 1}, Rotation: geom.Identity()})
	assert.True(t, h.body.kinematic)
	assert.False(t, h.body.sleeping)
}

func TestResetForCondition(t *testing.T) {
	h := setupController(t, nil)
	h.c.OnContactBegin(hazardKid)
	h.c.OnOverlapBegin(spikeID)
	require.True(t, h.c.IsKnockbacking())
	require.True(t, h.c.StutterRunning())

	h.c.SetConditionDurations(0.3, 0.1)
	h.c.ResetForCondition()

	assert.False(t, h.c.IsKnockbacking())
	assert.False(t, h.c.StutterRunning())
	assert.Equal(t, 0, h.c.TouchingHazards())
	assert.False(t, h.c.MovementEnabled())
	assert.Equal(t, schemas.FreezeRotation, h.body.constraints)
	assert.False(t, h.world.IsTrigger(capsuleID))
	assert.Empty(t, h.world.ignored)
	assert.Equal(t, r3.Vec{}, h.body.vel)
	stop, move := h.c.ConditionDurations()
	assert.Equal(t, 0.3, stop)
	assert.Equal(t, 0.1, move)
}
