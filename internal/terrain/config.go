// internal/terrain/config.go
package terrain

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// Config tunes a Mover.
type Config struct {
	// Speed is the distance travelled per second, against Axis.
	Speed float64
	// Axis is the unit direction the terrain is scrolled against. The terrain
	// moves by -Speed*dt along it every physics step.
	Axis r3.Vec
	// Enabled is the initial value of the movement gate.
	Enabled bool
	// ScanAtStart registers every passenger-category body in the scene at Start.
	ScanAtStart bool
	// ExcludeCategories lists passenger owners that must never ride the terrain.
	ExcludeCategories schemas.Category
	// GoalName locates the goal marker when none is supplied directly.
	GoalName  string
	LogEvents bool
}

// DefaultConfig returns a forward-scrolling terrain at 5 units per second that
// never carries count targets.
func DefaultConfig() Config {
	return Config{
		Speed:             5.0,
		Axis:              r3.Vec{Z: 1},
		Enabled:           true,
		ScanAtStart:       true,
		ExcludeCategories: schemas.CategoryCountTarget,
		GoalName:          "Goal",
	}
}
