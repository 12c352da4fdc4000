// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/capsule"
	"github.com/xkilldash9x/stutter-cli/internal/input"
	"github.com/xkilldash9x/stutter-cli/internal/physics"
	"github.com/xkilldash9x/stutter-cli/internal/results"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
	"github.com/xkilldash9x/stutter-cli/internal/terrain"
	"github.com/xkilldash9x/stutter-cli/internal/trial"
)

// Interface defines the contract for accessing application configuration.
// Commands depend on it so tests can hand them a tailored config.
type Interface interface {
	Logger() LoggerConfig
	Capsule() CapsuleConfig
	Terrain() TerrainConfig
	Physics() PhysicsConfig
	Sequence() sequence.Config
	Session() sequence.SessionConfig
	Results() results.Config
	Simulation() SimulationConfig

	// Trial assembles the runner configuration from every section.
	Trial() (trial.Config, error)

	// Setters used by command line flags.
	SetSeed(seed int64)
	SetRandomSeed(random bool)
	SetResultsDir(dir string)
	SetSQLitePath(path string)
	SetReloadOnAdvance(reload bool)
	SetRuns(runs int)
	SetParallel(parallel int)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig           `mapstructure:"logger" yaml:"logger"`
	CapsuleCfg    CapsuleConfig          `mapstructure:"capsule" yaml:"capsule"`
	TerrainCfg    TerrainConfig          `mapstructure:"terrain" yaml:"terrain"`
	PhysicsCfg    PhysicsConfig          `mapstructure:"physics" yaml:"physics"`
	SequenceCfg   sequence.Config        `mapstructure:"sequence" yaml:"sequence"`
	SessionCfg    sequence.SessionConfig `mapstructure:"session" yaml:"session"`
	ResultsCfg    results.Config         `mapstructure:"results" yaml:"results"`
	SimulationCfg SimulationConfig       `mapstructure:"simulation" yaml:"simulation"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Capsule() CapsuleConfig { return c.CapsuleCfg }
func (c *Config) Terrain() TerrainConfig { return c.TerrainCfg }
func (c *Config) Physics() PhysicsConfig { return c.PhysicsCfg }
func (c *Config) Sequence() sequence.Config { return c.SequenceCfg }
func (c *Config) Session() sequence.SessionConfig { return c.SessionCfg }
func (c *Config) Results() results.Config { return c.ResultsCfg }
func (c *Config) Simulation() SimulationConfig { return c.SimulationCfg }
func (c *Config) SetSeed(seed int64) { c.SessionCfg.FixedSeed = seed }
func (c *Config) SetRandomSeed(random bool) { c.SessionCfg.UseRandomSeed = random }
func (c *Config) SetResultsDir(dir string) { c.ResultsCfg.Dir = dir }
func (c *Config) SetSQLitePath(path string) { c.ResultsCfg.SQLitePath = path }
func (c *Config) SetReloadOnAdvance(reload bool) { c.SequenceCfg.ReloadOnAdvance = reload }
func (c *Config) SetRuns(runs int) { c.SimulationCfg.Runs = runs }
func (c *Config) SetParallel(parallel int) { c.SimulationCfg.Parallel = parallel }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for the console log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// CapsuleConfig is the capsule tuning plus the fields that need parsing.
type CapsuleConfig struct {
	capsule.Config `mapstructure:",squash" yaml:",inline"`

	AxisMode            string   `mapstructure:"axis_mode" yaml:"axis_mode"`
	StutterCategories   []string `mapstructure:"stutter_categories" yaml:"stutter_categories"`
	KnockbackCategories []string `mapstructure:"knockback_categories" yaml:"knockback_categories"`
}

// Build resolves the parsed fields into a capsule.Config.
func (c CapsuleConfig) Build() (capsule.Config, error) {
	out := c.Config
	mode, err := input.ParseAxisMode(c.AxisMode)
	if err != nil {
		return capsule.Config{}, fmt.Errorf("capsule.axis_mode: %w", err)
	}
	out.AxisMode = mode
	if out.StutterCategories, err = parseCategories("capsule.stutter_categories", c.StutterCategories); err != nil {
		return capsule.Config{}, err
	}
	if out.Knockback.Categories, err = parseCategories("capsule.knockback_categories", c.KnockbackCategories); err != nil {
		return capsule.Config{}, err
	}
	return out, nil
}

// TerrainConfig configures the terrain mover.
type TerrainConfig struct {
	Speed             float64   `mapstructure:"speed" yaml:"speed"`
	Axis              []float64 `mapstructure:"axis" yaml:"axis"`
	Enabled           bool      `mapstructure:"enabled" yaml:"enabled"`
	ScanAtStart       bool      `mapstructure:"scan_at_start" yaml:"scan_at_start"`
	ExcludeCategories []string  `mapstructure:"exclude_categories" yaml:"exclude_categories"`
	GoalName          string    `mapstructure:"goal_name" yaml:"goal_name"`
	LogEvents         bool      `mapstructure:"log_events" yaml:"log_events"`
}

// Build resolves the section into a terrain.Config.
func (t TerrainConfig) Build() (terrain.Config, error) {
	axis, err := vec3("terrain.axis", t.Axis)
	if err != nil {
		return terrain.Config{}, err
	}
	exclude, err := parseCategories("terrain.exclude_categories", t.ExcludeCategories)
	if err != nil {
		return terrain.Config{}, err
	}
	return terrain.Config{
		Speed:             t.Speed,
		Axis:              axis,
		Enabled:           t.Enabled,
		ScanAtStart:       t.ScanAtStart,
		ExcludeCategories: exclude,
		GoalName:          t.GoalName,
		LogEvents:         t.LogEvents,
	}, nil
}

// PhysicsConfig configures the reference physics world.
type PhysicsConfig struct {
	Gravity      []float64 `mapstructure:"gravity" yaml:"gravity"`
	FloorEnabled bool      `mapstructure:"floor_enabled" yaml:"floor_enabled"`
	FloorY       float64   `mapstructure:"floor_y" yaml:"floor_y"`
	LogEvents    bool      `mapstructure:"log_events" yaml:"log_events"`
}

// Build resolves the section into a physics.Config.
func (p PhysicsConfig) Build() (physics.Config, error) {
	g, err := vec3("physics.gravity", p.Gravity)
	if err != nil {
		return physics.Config{}, err
	}
	return physics.Config{Gravity: g, FloorEnabled: p.FloorEnabled, FloorY: p.FloorY, LogEvents: p.LogEvents}, nil
}

// SimulationConfig configures the headless runner.
type SimulationConfig struct {
	Scene        string       `mapstructure:"scene" yaml:"scene"`
	FrameRate    float64      `mapstructure:"frame_rate" yaml:"frame_rate"`
	FixedStep    float64      `mapstructure:"fixed_step" yaml:"fixed_step"`
	MaxSimTime   float64      `mapstructure:"max_sim_time" yaml:"max_sim_time"`
	Forward      float64      `mapstructure:"forward" yaml:"forward"`
	Lateral      float64      `mapstructure:"lateral" yaml:"lateral"`
	AdvanceDelay float64      `mapstructure:"advance_delay" yaml:"advance_delay"`
	Runs         int          `mapstructure:"runs" yaml:"runs"`
	Parallel     int          `mapstructure:"parallel" yaml:"parallel"`
	Layout       trial.Layout `mapstructure:"layout" yaml:"layout"`
}

// Trial assembles the runner configuration.
func (c *Config) Trial() (trial.Config, error) {
	capsuleCfg, err := c.CapsuleCfg.Build()
	if err != nil {
		return trial.Config{}, err
	}
	terrainCfg, err := c.TerrainCfg.Build()
	if err != nil {
		return trial.Config{}, err
	}
	physicsCfg, err := c.PhysicsCfg.Build()
	if err != nil {
		return trial.Config{}, err
	}
	sim := c.SimulationCfg
	return trial.Config{
		Scene:        sim.Scene,
		FrameRate:    sim.FrameRate,
		FixedStep:    sim.FixedStep,
		MaxSimTime:   sim.MaxSimTime,
		Forward:      sim.Forward,
		Lateral:      sim.Lateral,
		AdvanceDelay: sim.AdvanceDelay,
		Layout:       sim.Layout,
		Physics:      physicsCfg,
		Capsule:      capsuleCfg,
		Terrain:      terrainCfg,
		Sequencer:    c.SequenceCfg,
		Session:      c.SessionCfg,
	}, nil
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "stutter-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Capsule --
	c := capsule.DefaultConfig()
	v.SetDefault("capsule.speed", c.Speed)
	v.SetDefault("capsule.dead_zone", c.DeadZone)
	v.SetDefault("capsule.horizontal_axis", c.HorizontalAxis)
	v.SetDefault("capsule.vertical_axis", c.VerticalAxis)
	v.SetDefault("capsule.invert_vertical", c.InvertVertical)
	v.SetDefault("capsule.axis_mode", c.AxisMode.String())
	v.SetDefault("capsule.calibrate_input", c.CalibrateInput)
	v.SetDefault("capsule.calibration_duration", c.CalibrationDuration)
	v.SetDefault("capsule.start_with_countdown", c.StartWithCountdown)
	v.SetDefault("capsule.countdown_from", c.CountdownFrom)
	v.SetDefault("capsule.countdown_interval", c.CountdownInterval)
	v.SetDefault("capsule.countdown_go_text", c.CountdownGoText)
	v.SetDefault("capsule.countdown_go_hold", c.CountdownGoHold)
	v.SetDefault("capsule.stutter_enabled", c.StutterEnabled)
	v.SetDefault("capsule.stutter_categories", categoryNames(c.StutterCategories))
	v.SetDefault("capsule.stop_duration", c.StopDuration)
	v.SetDefault("capsule.move_duration", c.MoveDuration)
	v.SetDefault("capsule.log_events", c.LogEvents)

	kb := c.Knockback
	v.SetDefault("capsule.knockback_categories", categoryNames(kb.Categories))
	v.SetDefault("capsule.knockback.enabled", kb.Enabled)
	v.SetDefault("capsule.knockback.back_force", kb.BackForce)
	v.SetDefault("capsule.knockback.up_force", kb.UpForce)
	v.SetDefault("capsule.knockback.torque", kb.Torque)
	v.SetDefault("capsule.knockback.duration", kb.Duration)
	v.SetDefault("capsule.knockback.hold_duration", kb.HoldDuration)
	v.SetDefault("capsule.knockback.stand_up_duration", kb.StandUpDuration)
	v.SetDefault("capsule.knockback.max_tilt_angle", kb.MaxTiltAngle)
	v.SetDefault("capsule.knockback.pass_through", kb.PassThrough)
	v.SetDefault("capsule.knockback.blink_interval", kb.BlinkInterval)

	// -- Terrain --
	t := terrain.DefaultConfig()
	v.SetDefault("terrain.speed", t.Speed)
	v.SetDefault("terrain.axis", []float64{t.Axis.X, t.Axis.Y, t.Axis.Z})
	v.SetDefault("terrain.enabled", t.Enabled)
	v.SetDefault("terrain.scan_at_start", t.ScanAtStart)
	v.SetDefault("terrain.exclude_categories", categoryNames(t.ExcludeCategories))
	v.SetDefault("terrain.goal_name", t.GoalName)
	v.SetDefault("terrain.log_events", t.LogEvents)

	// -- Physics --
	p := physics.DefaultConfig()
	v.SetDefault("physics.gravity", []float64{p.Gravity.X, p.Gravity.Y, p.Gravity.Z})
	v.SetDefault("physics.floor_enabled", p.FloorEnabled)
	v.SetDefault("physics.floor_y", p.FloorY)
	v.SetDefault("physics.log_events", p.LogEvents)

	// -- Sequence --
	s := sequence.DefaultConfig()
	v.SetDefault("sequence.next_scene", s.NextScene)
	v.SetDefault("sequence.menu_scene", s.MenuScene)
	v.SetDefault("sequence.reload_on_advance", s.ReloadOnAdvance)
	v.SetDefault("sequence.auto_advance_on_goal", s.AutoAdvanceOnGoal)
	v.SetDefault("sequence.auto_advance_delay", s.AutoAdvanceDelay)
	v.SetDefault("sequence.advance_button", s.AdvanceButton)
	v.SetDefault("sequence.goal_message", s.GoalMessage)
	v.SetDefault("sequence.log_events", s.LogEvents)

	// -- Session --
	ss := sequence.DefaultSessionConfig()
	v.SetDefault("session.values", ss.Values)
	v.SetDefault("session.shuffle", ss.Shuffle)
	v.SetDefault("session.use_random_seed", ss.UseRandomSeed)
	v.SetDefault("session.fixed_seed", ss.FixedSeed)

	// -- Results --
	r := results.DefaultConfig()
	v.SetDefault("results.dir", r.Dir)
	v.SetDefault("results.results_file", r.ResultsFile)
	v.SetDefault("results.count_file", r.CountFile)
	v.SetDefault("results.summary_file", r.SummaryFile)
	v.SetDefault("results.sqlite_path", "runs.db")

	// -- Simulation --
	tc := trial.DefaultConfig()
	v.SetDefault("simulation.scene", tc.Scene)
	v.SetDefault("simulation.frame_rate", tc.FrameRate)
	v.SetDefault("simulation.fixed_step", tc.FixedStep)
	v.SetDefault("simulation.max_sim_time", tc.MaxSimTime)
	v.SetDefault("simulation.forward", tc.Forward)
	v.SetDefault("simulation.lateral", tc.Lateral)
	v.SetDefault("simulation.advance_delay", tc.AdvanceDelay)
	v.SetDefault("simulation.runs", 1)
	v.SetDefault("simulation.parallel", 4)

	l := tc.Layout
	v.SetDefault("simulation.layout.track_length", l.TrackLength)
	v.SetDefault("simulation.layout.track_width", l.TrackWidth)
	v.SetDefault("simulation.layout.first_slot", l.FirstSlot)
	v.SetDefault("simulation.layout.slot_spacing", l.SlotSpacing)
	v.SetDefault("simulation.layout.lanes", l.Lanes)
	v.SetDefault("simulation.layout.sphere_radius", l.SphereRadius)
	v.SetDefault("simulation.layout.spike_every", l.SpikeEvery)
	v.SetDefault("simulation.layout.spike_depth", l.SpikeDepth)
	v.SetDefault("simulation.layout.crates", l.Crates)
	v.SetDefault("simulation.layout.capsule_mass", l.CapsuleMass)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for logical consistency.
func (c *Config) Validate() error {
	if c.CapsuleCfg.Speed < 0 {
		return errors.New("capsule.speed must not be negative")
	}
	if c.CapsuleCfg.DeadZone < 0 || c.CapsuleCfg.DeadZone >= 1 {
		return errors.New("capsule.dead_zone must be in [0, 1)")
	}
	if c.TerrainCfg.Speed < 0 {
		return errors.New("terrain.speed must not be negative")
	}
	if len(c.SessionCfg.Values) == 0 {
		return errors.New("session.values must list at least one duration")
	}
	for _, d := range c.SessionCfg.Values {
		if d < 0 {
			return fmt.Errorf("session.values must not be negative, got %v", d)
		}
	}
	if c.SimulationCfg.Runs <= 0 {
		return errors.New("simulation.runs must be a positive integer")
	}
	if c.SimulationCfg.Parallel <= 0 {
		return errors.New("simulation.parallel must be a positive integer")
	}
	tc, err := c.Trial()
	if err != nil {
		return err
	}
	if err := tc.Validate(); err != nil {
		return fmt.Errorf("simulation configuration invalid: %w", err)
	}
	return nil
}

func parseCategories(key string, names []string) (schemas.Category, error) {
	var unknown []string
	for _, n := range names {
		if schemas.ParseCategory(n) == schemas.CategoryNone {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return schemas.CategoryNone, fmt.Errorf("%s: unknown categories %s", key, strings.Join(unknown, ", "))
	}
	return schemas.ParseCategories(names), nil
}

func categoryNames(c schemas.Category) []string {
	if c == schemas.CategoryNone {
		return []string{}
	}
	return strings.Split(c.String(), "|")
}

func vec3(key string, v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("%s must have 3 components, got %d", key, len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
