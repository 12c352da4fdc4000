// internal/capsule/controller.go
package capsule

import (
	"errors"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
	"github.com/xkilldash9x/stutter-cli/internal/input"
)

// ErrNoBody is returned by New when no rigid body is supplied.
var ErrNoBody = errors.New("capsule: rigid body is required")

// Deps are the host collaborators a Controller talks to. Only Body is required;
// every other dependency disables the feature that needs it when nil.
type Deps struct {
	Body schemas.Body
	// Collider is the capsule's own collider. Defaults to Body.ID().
	Collider schemas.EntityID

	Physics  schemas.PhysicsWorld
	Scene    schemas.SceneGraph
	Input    schemas.InputSource
	Renderer schemas.Renderer

	// CountdownText receives the countdown digits.
	CountdownText schemas.TextDisplay
}

// MovementState is a read-only snapshot of the controller.
type MovementState struct {
	Position          r3.Vec
	FixedY            float64
	CalibrationOffset r2.Vec
	MovementEnabled   bool
	IsKnockbacking    bool
	IsCountingDown    bool
	Immobilized       bool
}

// Controller drives the player capsule. The host calls Update once per frame,
// FixedUpdate once per physics step, and forwards the capsule's contact and
// overlap callbacks. All timed phases are explicit state machines advanced by
// those calls.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	body     schemas.Body
	collider schemas.EntityID
	physics  schemas.PhysicsWorld
	scene    schemas.SceneGraph
	renderer schemas.Renderer
	text     schemas.TextDisplay

	reader     *input.Reader
	processor  input.Processor
	calibrator *input.Calibrator

	fixedY            float64
	movementEnabled   bool
	desired           r2.Vec
	commandedVelocity r3.Vec
	fixedClock        float64

	countdown countdown

	knockback      *knockbackSession
	knockbackCount int
	ignored        map[schemas.EntityID]struct{}

	stutter stutterCycle

	baseConstraints schemas.Constraints
	baseTrigger     bool
}

// New creates a controller bound to deps.Body. Movement starts enabled; call
// Start once the scene is assembled.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Controller, error) {
	if deps.Body == nil {
		return nil, ErrNoBody
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	collider := deps.Collider
	if collider == schemas.NoEntity {
		collider = deps.Body.ID()
	}

	c := &Controller{
		cfg:      cfg,
		logger:   logger.Named("capsule"),
		body:     deps.Body,
		collider: collider,
		physics:  deps.Physics,
		scene:    deps.Scene,
		renderer: deps.Renderer,
		text:     deps.CountdownText,
		processor: input.Processor{
			DeadZone:       cfg.DeadZone,
			InvertVertical: cfg.InvertVertical,
			Mode:           cfg.AxisMode,
		},
		calibrator:      input.NewCalibrator(cfg.CalibrationDuration, cfg.DeadZone),
		movementEnabled: true,
		ignored:         make(map[schemas.EntityID]struct{}),
		fixedY:          deps.Body.Position().Y,
		baseConstraints: deps.Body.Constraints(),
	}
	c.reader = input.NewReader(deps.Input, c.logger, cfg.HorizontalAxis, cfg.VerticalAxis)
	if c.physics != nil {
		c.baseTrigger = c.physics.IsTrigger(collider)
	}
	if !cfg.CalibrateInput {
		c.calibrator.Complete()
	}
	return c, nil
}

// Start caches the resting height and begins the countdown (or plain input
// calibration when the countdown is disabled).
func (c *Controller) Start() {
	c.fixedY = c.body.Position().Y
	if c.cfg.StartWithCountdown {
		c.BeginCountdown()
		return
	}
	c.beginCalibration()
}

// Update advances the per-frame phases: countdown, calibration, stutter cycle and
// knockback blink, then samples input for the next physics step.
func (c *Controller) Update(ft schemas.FrameTime) {
	raw := c.reader.Sample()
	c.calibrator.Tick(ft.Unscaled, raw)
	c.tickCountdown(ft.Unscaled)
	c.tickStutter(ft.Delta)
	c.tickBlink(ft.Delta)

	if c.calibrator.Done() {
		c.desired = c.processor.Process(raw, c.calibrator.Offset())
	} else {
		c.desired = r2.Vec{}
	}
}

// FixedUpdate runs one physics step of movement. During knockback the body is
// left to the physics engine and only the knockback state machine advances.
func (c *Controller) FixedUpdate(dt float64) {
	c.fixedClock += dt

	if c.knockback != nil {
		c.commandedVelocity = r3.Vec{}
		c.tickKnockback(dt)
		return
	}

	if !c.movementEnabled || c.stutter.immobilized {
		c.commandedVelocity = r3.Vec{}
		c.haltAll()
		return
	}

	if c.processor.BelowDeadZone(c.desired) {
		// Hard stop, no deceleration ramp.
		c.commandedVelocity = r3.Vec{}
		c.haltHorizontal()
		return
	}

	dir := r2.Unit(c.desired)
	c.commandedVelocity = r3.Scale(c.cfg.Speed, r3.Vec{X: dir.X, Z: dir.Y})
	next := r3.Add(c.body.Position(), r3.Scale(dt, c.commandedVelocity))
	next.Y = c.fixedY
	c.body.MovePosition(next)
}

// SetConditionDurations installs the stutter timing of the current trial.
func (c *Controller) SetConditionDurations(stop, move float64) {
	c.cfg.StopDuration = stop
	c.cfg.MoveDuration = move
}

// ConditionDurations returns the installed stutter timing.
func (c *Controller) ConditionDurations() (stop, move float64) {
	return c.cfg.StopDuration, c.cfg.MoveDuration
}

// SetMovementEnabled sets the externally owned movement gate. Disabling it
// also zeroes the body's velocities.
func (c *Controller) SetMovementEnabled(enabled bool) {
	c.movementEnabled = enabled
	if !enabled {
		c.haltAll()
	}
}

// MovementEnabled reports the externally owned movement gate.
func (c *Controller) MovementEnabled() bool { return c.movementEnabled }

// CanMove reports whether the next physics step would act on input.
func (c *Controller) CanMove() bool {
	return c.movementEnabled && !c.stutter.immobilized && c.knockback == nil
}

// StartWithCountdown reports whether trials begin behind the countdown gate.
func (c *Controller) StartWithCountdown() bool { return c.cfg.StartWithCountdown }

// ResetForCondition cancels every running phase and returns the capsule to a
// clean, stationary state with movement disabled. The caller decides how
// movement is re-enabled.
func (c *Controller) ResetForCondition() {
	c.cancelPhases()
	c.movementEnabled = false

	c.body.SetConstraints(c.baseConstraints)
	if c.physics != nil {
		c.physics.SetTrigger(c.collider, c.baseTrigger)
	}
	c.setRendered(true)
	c.haltAll()
	c.desired = r2.Vec{}
	c.commandedVelocity = r3.Vec{}

	if c.cfg.LogEvents {
		c.logger.Debug("Capsule reset for condition.",
			zap.Float64("stop", c.cfg.StopDuration), zap.Float64("move", c.cfg.MoveDuration))
	}
}

// Halt zeroes linear and angular velocity.
func (c *Controller) Halt() { c.haltAll() }

// State returns a snapshot of the controller.
func (c *Controller) State() MovementState {
	return MovementState{
		Position:          c.body.Position(),
		FixedY:            c.fixedY,
		CalibrationOffset: c.calibrator.Offset(),
		MovementEnabled:   c.movementEnabled,
		IsKnockbacking:    c.knockback != nil,
		IsCountingDown:    c.countdown.gating,
		Immobilized:       c.stutter.immobilized,
	}
}

// Desired returns the processed input used by the next physics step.
func (c *Controller) Desired() r2.Vec { return c.desired }

// CommandedVelocity returns the velocity commanded by the last physics step.
func (c *Controller) CommandedVelocity() r3.Vec { return c.commandedVelocity }

// Entity returns the capsule's body entity.
func (c *Controller) Entity() schemas.EntityID { return c.body.ID() }

// Pose returns the capsule's current pose.
func (c *Controller) Pose() geom.Pose {
	return geom.Pose{Position: c.body.Position(), Rotation: c.body.Rotation()}
}

// cancelPhases stops every suspended phase and clears its handle before any
// new phase may start.
func (c *Controller) cancelPhases() {
	c.abortKnockback()
	c.stopStutter(true)
	c.countdown.cancel()
	c.clearCountdownText()
}

func (c *Controller) haltAll() {
	c.body.SetVelocity(r3.Vec{})
	c.body.SetAngularVelocity(r3.Vec{})
}

func (c *Controller) haltHorizontal() {
	v := c.body.Velocity()
	c.body.SetVelocity(r3.Vec{Y: v.Y})
	c.body.SetAngularVelocity(r3.Vec{})
}

func (c *Controller) setRendered(rendered bool) {
	if c.renderer != nil {
		c.renderer.SetRendered(c.body.ID(), rendered)
	}
}
