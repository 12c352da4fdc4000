// internal/input/processor.go
package input

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// AxisMode restricts movement to one input axis.
type AxisMode int

const (
	AxisBoth AxisMode = iota
	AxisHorizontalOnly
	AxisVerticalOnly
)

// ParseAxisMode converts a config string ("both", "horizontal", "vertical").
func ParseAxisMode(s string) (AxisMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "xz":
		return AxisBoth, nil
	case "horizontal", "x":
		return AxisHorizontalOnly, nil
	case "vertical", "z":
		return AxisVerticalOnly, nil
	default:
		return AxisBoth, fmt.Errorf("unknown axis mode %q", s)
	}
}

func (m AxisMode) String() string {
	switch m {
	case AxisHorizontalOnly:
		return "horizontal"
	case AxisVerticalOnly:
		return "vertical"
	default:
		return "both"
	}
}

// Processor turns raw axis samples into the desired movement input.
type Processor struct {
	DeadZone       float64
	InvertVertical bool
	Mode           AxisMode
}

// Process subtracts the calibration offset, clamps each axis to [-1, 1] and
// applies the dead zone per axis. Inversion and axis restriction are applied
// last.
func (p Processor) Process(raw, offset r2.Vec) r2.Vec {
	v := r2.Sub(raw, offset)
	v.X = clampUnit(v.X)
	v.Y = clampUnit(v.Y)

	// Second dead-zone pass after offset subtraction.
	if math.Abs(v.X) < p.DeadZone {
		v.X = 0
	}
	if math.Abs(v.Y) < p.DeadZone {
		v.Y = 0
	}

	if p.InvertVertical {
		v.Y = -v.Y
	}
	switch p.Mode {
	case AxisHorizontalOnly:
		v.Y = 0
	case AxisVerticalOnly:
		v.X = 0
	}
	return v
}

// BelowDeadZone reports whether v is too small to move the capsule.
func (p Processor) BelowDeadZone(v r2.Vec) bool {
	return r2.Norm(v) < p.DeadZone
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
