// internal/trial/host.go
package trial

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
)

// stepEpsilon absorbs rounding when the frame time is a multiple of the
// physics step.
const stepEpsilon = 1e-9

// Host plays the engine for one run. It owns the frame clock, loads scenes on
// request and calls the component callbacks in engine order: physics steps
// with their contact callbacks first, then the per-frame updates.
type Host struct {
	cfg     Config
	base    *zap.Logger
	logger  *zap.Logger
	session *sequence.Session
	input   *ScriptedInput

	scene      *Scene
	pending    string
	hasPending bool

	accumulator float64
	simTime     float64
	frames      int
	loads       int
	knockbacks  int
	goalWait    float64
}

// NewHost creates a host with no scene loaded. Call LoadScene, then Frame.
func NewHost(cfg Config, session *sequence.Session, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		cfg:     cfg,
		base:    logger,
		logger:  logger.Named("host"),
		session: session,
		input:   NewScriptedInput(cfg.axes()),
	}
}

// LoadScene queues name for loading at the start of the next frame. Loading
// from inside a callback therefore never tears down the caller.
func (h *Host) LoadScene(name string) {
	h.pending = name
	h.hasPending = true
}

// CurrentScene returns the name of the active scene, or the queued one when
// nothing has been activated yet.
func (h *Host) CurrentScene() string {
	if h.scene == nil {
		return h.pending
	}
	return h.scene.Name
}

// Scene returns the active scene, or nil before the first frame.
func (h *Host) Scene() *Scene { return h.scene }

// Input returns the scripted participant's input device.
func (h *Host) Input() *ScriptedInput { return h.input }

// SimTime returns the simulated seconds elapsed.
func (h *Host) SimTime() float64 { return h.simTime }

// Frames returns the number of frames run.
func (h *Host) Frames() int { return h.frames }

// Loads returns the number of scene loads performed.
func (h *Host) Loads() int { return h.loads }

// Knockbacks returns the knockback episodes of every scene loaded so far.
func (h *Host) Knockbacks() int {
	n := h.knockbacks
	if h.scene != nil && h.scene.Gameplay() {
		n += h.scene.Capsule.KnockbackCount()
	}
	return n
}

// Frame advances the simulation by dt seconds.
func (h *Host) Frame(dt float64) error {
	h.input.BeginFrame()
	if h.hasPending {
		if err := h.activate(h.pending); err != nil {
			return err
		}
	}
	h.frames++
	h.simTime += dt

	s := h.scene
	if s == nil || !s.Gameplay() {
		return nil
	}

	step := h.cfg.FixedStep
	h.accumulator += dt
	for h.accumulator+stepEpsilon >= step {
		h.accumulator -= step
		s.Capsule.FixedUpdate(step)
		s.Terrain.FixedUpdate(step)
		s.World.Step(step)
		if h.hasPending {
			// A callback asked for a new scene; the old one stops here.
			h.accumulator = 0
			return nil
		}
	}

	ft := schemas.FrameTime{Delta: dt, Unscaled: dt}
	s.Capsule.Update(ft)
	s.Sequencer.Update(ft)
	h.drive(s, dt)
	return nil
}

// drive plays the participant: after AdvanceDelay at the goal it presses the
// advance button.
func (h *Host) drive(s *Scene, dt float64) {
	button := h.cfg.Sequencer.AdvanceButton
	if button == "" || h.cfg.Sequencer.AutoAdvanceOnGoal || !s.Sequencer.WaitingForAdvance() {
		h.goalWait = 0
		return
	}
	h.goalWait += dt
	if h.goalWait >= h.cfg.AdvanceDelay {
		h.goalWait = 0
		h.input.Press(button)
	}
}

func (h *Host) activate(name string) error {
	h.hasPending = false
	h.pending = ""
	if h.scene != nil && h.scene.Gameplay() {
		h.knockbacks += h.scene.Capsule.KnockbackCount()
	}
	h.scene = nil
	h.accumulator = 0
	h.goalWait = 0

	var s *Scene
	if name != "" && name == h.cfg.Sequencer.MenuScene {
		s = newMenuScene(name, h.base)
	} else {
		// The scene must be current before its components start, since the
		// sequencer records results under the current scene name.
		h.scene = &Scene{Name: name}
		var err error
		s, err = buildScene(name, h.cfg, h.session, h, h.input, h.base)
		if err != nil {
			h.scene = nil
			return fmt.Errorf("failed to load scene %q: %w", name, err)
		}
	}
	h.scene = s
	h.loads++
	h.logger.Info("Scene loaded.", zap.String("scene", name), zap.Int("loads", h.loads))
	return nil
}
