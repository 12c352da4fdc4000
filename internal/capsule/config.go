// internal/capsule/config.go
package capsule

import (
	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/input"
)

// Config holds the tuning of one capsule controller.
type Config struct {
	// Movement
	Speed    float64 `mapstructure:"speed" yaml:"speed"`
	DeadZone float64 `mapstructure:"dead_zone" yaml:"dead_zone"`

	// Input
	HorizontalAxis string         `mapstructure:"horizontal_axis" yaml:"horizontal_axis"`
	VerticalAxis   string         `mapstructure:"vertical_axis" yaml:"vertical_axis"`
	InvertVertical bool           `mapstructure:"invert_vertical" yaml:"invert_vertical"`
	AxisMode       input.AxisMode `mapstructure:"-" yaml:"-"`

	// Calibration, measured on unscaled time.
	CalibrateInput      bool    `mapstructure:"calibrate_input" yaml:"calibrate_input"`
	CalibrationDuration float64 `mapstructure:"calibration_duration" yaml:"calibration_duration"`

	// Countdown gate, measured on unscaled time.
	StartWithCountdown bool    `mapstructure:"start_with_countdown" yaml:"start_with_countdown"`
	CountdownFrom      int     `mapstructure:"countdown_from" yaml:"countdown_from"`
	CountdownInterval  float64 `mapstructure:"countdown_interval" yaml:"countdown_interval"`
	CountdownGoText    string  `mapstructure:"countdown_go_text" yaml:"countdown_go_text"`
	CountdownGoHold    float64 `mapstructure:"countdown_go_hold" yaml:"countdown_go_hold"`

	// Stutter cycle. StopDuration and MoveDuration are overwritten by the
	// condition sequencer for each trial.
	StutterEnabled    bool             `mapstructure:"stutter_enabled" yaml:"stutter_enabled"`
	StutterCategories schemas.Category `mapstructure:"-" yaml:"-"`
	StopDuration      float64          `mapstructure:"stop_duration" yaml:"stop_duration"`
	MoveDuration      float64          `mapstructure:"move_duration" yaml:"move_duration"`

	Knockback KnockbackConfig `mapstructure:"knockback" yaml:"knockback"`

	LogEvents bool `mapstructure:"log_events" yaml:"log_events"`
}

// KnockbackConfig tunes the knockback episode.
type KnockbackConfig struct {
	Enabled    bool             `mapstructure:"enabled" yaml:"enabled"`
	Categories schemas.Category `mapstructure:"-" yaml:"-"`

	// Impulse applied backwards (against the capsule's facing) and upwards.
	BackForce float64 `mapstructure:"back_force" yaml:"back_force"`
	UpForce   float64 `mapstructure:"up_force" yaml:"up_force"`
	// Torque applied about the lateral axis; positive values tip the capsule backwards.
	Torque float64 `mapstructure:"torque" yaml:"torque"`

	Duration        float64 `mapstructure:"duration" yaml:"duration"`
	HoldDuration    float64 `mapstructure:"hold_duration" yaml:"hold_duration"`
	StandUpDuration float64 `mapstructure:"stand_up_duration" yaml:"stand_up_duration"`
	MaxTiltAngle    float64 `mapstructure:"max_tilt_angle" yaml:"max_tilt_angle"`

	// PassThrough makes the capsule collider overlap-only for the episode.
	PassThrough   bool    `mapstructure:"pass_through" yaml:"pass_through"`
	BlinkInterval float64 `mapstructure:"blink_interval" yaml:"blink_interval"`
}

// DefaultConfig returns the tuning used by the experiment scenes.
func DefaultConfig() Config {
	return Config{
		Speed:               5.0,
		DeadZone:            0.2,
		HorizontalAxis:      input.DefaultHorizontalAxis,
		VerticalAxis:        input.DefaultVerticalAxis,
		AxisMode:            input.AxisBoth,
		CalibrateInput:      true,
		CalibrationDuration: 0.5,
		StartWithCountdown:  true,
		CountdownFrom:       3,
		CountdownInterval:   1.0,
		CountdownGoText:     "GO",
		CountdownGoHold:     0.5,
		StutterEnabled:      true,
		StutterCategories:   schemas.CategoryHazard | schemas.CategorySpike,
		StopDuration:        0.5,
		MoveDuration:        0.5,
		Knockback: KnockbackConfig{
			Enabled:         true,
			Categories:      schemas.CategoryHazard,
			BackForce:       4.0,
			UpForce:         3.0,
			Torque:          6.0,
			Duration:        0.4,
			HoldDuration:    0.3,
			StandUpDuration: 0.5,
			MaxTiltAngle:    60.0,
			PassThrough:     true,
			BlinkInterval:   0.1,
		},
	}
}
