// internal/trial/config.go
package trial

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/stutter-cli/internal/capsule"
	"github.com/xkilldash9x/stutter-cli/internal/input"
	"github.com/xkilldash9x/stutter-cli/internal/physics"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
	"github.com/xkilldash9x/stutter-cli/internal/terrain"
)

// DefaultScene is the gameplay scene built by the host.
const DefaultScene = "Trial"

// Config drives a headless run: the frame clock, the scripted participant and
// the tuning of every scene component.
type Config struct {
	Scene string
	// FrameRate is the number of Update calls per simulated second.
	FrameRate float64
	// FixedStep is the physics step in seconds.
	FixedStep float64
	// MaxSimTime aborts a run that has not completed after this many
	// simulated seconds.
	MaxSimTime float64

	// Forward and Lateral are the axis values the scripted participant holds.
	Forward float64
	Lateral float64
	// AdvanceDelay is how long the participant waits at the goal before
	// pressing the advance button.
	AdvanceDelay float64

	Layout    Layout
	Physics   physics.Config
	Capsule   capsule.Config
	Terrain   terrain.Config
	Sequencer sequence.Config
	Session   sequence.SessionConfig
}

// DefaultConfig runs the default track at 60 frames and 50 physics steps per
// second with the participant holding full forward.
func DefaultConfig() Config {
	return Config{
		Scene:        DefaultScene,
		FrameRate:    60,
		FixedStep:    0.02,
		MaxSimTime:   900,
		Forward:      1,
		AdvanceDelay: 0.5,
		Layout:       DefaultLayout(),
		Physics:      physics.DefaultConfig(),
		Capsule:      capsule.DefaultConfig(),
		Terrain:      terrain.DefaultConfig(),
		Sequencer:    sequence.DefaultConfig(),
		Session:      sequence.DefaultSessionConfig(),
	}
}

// ErrTimeLimit is returned when a run exceeds MaxSimTime.
var ErrTimeLimit = errors.New("trial: simulated time limit reached")

// Validate checks the settings the runner depends on.
func (c Config) Validate() error {
	if c.Scene == "" {
		return errors.New("trial: scene name is required")
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("trial: frame_rate must be positive, got %v", c.FrameRate)
	}
	if c.FixedStep <= 0 {
		return fmt.Errorf("trial: fixed_step must be positive, got %v", c.FixedStep)
	}
	if c.MaxSimTime <= 0 {
		return fmt.Errorf("trial: max_sim_time must be positive, got %v", c.MaxSimTime)
	}
	if c.Scene == c.Sequencer.MenuScene {
		return fmt.Errorf("trial: scene %q is also the menu scene", c.Scene)
	}
	return c.Layout.Validate()
}

func (c Config) axes() map[string]float64 {
	h, v := c.Capsule.HorizontalAxis, c.Capsule.VerticalAxis
	if h == "" {
		h = input.DefaultHorizontalAxis
	}
	if v == "" {
		v = input.DefaultVerticalAxis
	}
	return map[string]float64{h: c.Lateral, v: c.Forward}
}
