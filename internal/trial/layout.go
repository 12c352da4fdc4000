// internal/trial/layout.go
package trial

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/physics"
)

// Entity names the scene components look up.
const (
	NameCapsule       = "Capsule"
	NameCapsuleShell  = "CapsuleShell"
	NameTerrain       = "Terrain"
	NameGoal          = "Goal"
	NameSpawnPoint    = "SpawnPoint"
	NameSpheres       = "Spheres"
	NameConditionText = "ConditionText"
	NameGoalText      = "GoalText"
	NameGoalPanel     = "GoalPanel"
	NameCountdownText = "CountdownText"
)

// Layout describes the track of the gameplay scene. Obstacles are placed in
// slots SlotSpacing apart, cycling through Lanes; every SpikeEvery-th slot is
// a spike strip across the full width instead of a sphere.
type Layout struct {
	TrackLength  float64   `mapstructure:"track_length" yaml:"track_length"`
	TrackWidth   float64   `mapstructure:"track_width" yaml:"track_width"`
	FirstSlot    float64   `mapstructure:"first_slot" yaml:"first_slot"`
	SlotSpacing  float64   `mapstructure:"slot_spacing" yaml:"slot_spacing"`
	Lanes        []float64 `mapstructure:"lanes" yaml:"lanes"`
	SphereRadius float64   `mapstructure:"sphere_radius" yaml:"sphere_radius"`
	SpikeEvery   int       `mapstructure:"spike_every" yaml:"spike_every"`
	SpikeDepth   float64   `mapstructure:"spike_depth" yaml:"spike_depth"`
	Crates       int       `mapstructure:"crates" yaml:"crates"`
	CapsuleMass  float64   `mapstructure:"capsule_mass" yaml:"capsule_mass"`
}

// DefaultLayout is a 60 unit track with spheres in three lanes.
func DefaultLayout() Layout {
	return Layout{
		TrackLength:  60,
		TrackWidth:   6,
		FirstSlot:    10,
		SlotSpacing:  6,
		Lanes:        []float64{0, -1.5, 1.5},
		SphereRadius: 0.5,
		SpikeEvery:   4,
		SpikeDepth:   1,
		Crates:       2,
		CapsuleMass:  1,
	}
}

// Validate checks the layout can be built.
func (l Layout) Validate() error {
	switch {
	case l.TrackLength <= 0:
		return fmt.Errorf("layout: track_length must be positive, got %v", l.TrackLength)
	case l.TrackWidth <= 0:
		return fmt.Errorf("layout: track_width must be positive, got %v", l.TrackWidth)
	case l.SlotSpacing <= 0:
		return fmt.Errorf("layout: slot_spacing must be positive, got %v", l.SlotSpacing)
	case l.SphereRadius <= 0:
		return fmt.Errorf("layout: sphere_radius must be positive, got %v", l.SphereRadius)
	case l.SpikeEvery < 0 || l.Crates < 0:
		return fmt.Errorf("layout: spike_every and crates must not be negative")
	}
	return nil
}

// Placed holds the ids of a built track.
type Placed struct {
	Capsule schemas.EntityID
	Shell   schemas.EntityID
	Terrain schemas.EntityID
	Goal    schemas.EntityID
	Spawn   schemas.EntityID
	Spheres []schemas.EntityID
	Spikes  []schemas.EntityID
	Crates  []schemas.EntityID
}

const capsuleHalfHeight = 1.0

// Place spawns the track into w. The capsule stands on the floor at the
// origin facing +Z; the goal sits at the far end of the track.
func (l Layout) Place(w *physics.World) Placed {
	var p Placed

	p.Spawn = w.Spawn(physics.EntitySpec{
		Name:     NameSpawnPoint,
		Category: schemas.CategorySpawn,
		Position: r3.Vec{Y: capsuleHalfHeight},
	})

	p.Capsule = w.Spawn(physics.EntitySpec{
		Name:     NameCapsule,
		Category: schemas.CategoryCapsule,
		Position: r3.Vec{Y: capsuleHalfHeight},
		Body: &physics.BodySpec{
			Mass:        l.CapsuleMass,
			UseGravity:  true,
			Constraints: schemas.FreezeRotation,
		},
	})
	p.Shell = w.Spawn(physics.EntitySpec{
		Name:     NameCapsuleShell,
		Parent:   p.Capsule,
		Category: schemas.CategoryCapsule,
		Position: r3.Vec{Y: capsuleHalfHeight},
		Collider: &physics.ColliderSpec{Shape: physics.ShapeBox, HalfExtents: r3.Vec{X: 0.5, Y: capsuleHalfHeight, Z: 0.5}},
	})

	half := l.TrackLength / 2
	p.Terrain = w.Spawn(physics.EntitySpec{
		Name:     NameTerrain,
		Category: schemas.CategoryTerrain,
		Position: r3.Vec{Y: 0.1, Z: half},
		Collider: &physics.ColliderSpec{
			Shape:       physics.ShapeBox,
			HalfExtents: r3.Vec{X: l.TrackWidth / 2, Y: 0.25, Z: half},
			Trigger:     true,
		},
	})

	spheres := w.Spawn(physics.EntitySpec{Name: NameSpheres, Parent: p.Terrain})
	slot := 0
	for z := l.FirstSlot; z < l.TrackLength-l.SlotSpacing/2; z += l.SlotSpacing {
		slot++
		if l.SpikeEvery > 0 && slot%l.SpikeEvery == 0 {
			p.Spikes = append(p.Spikes, w.Spawn(physics.EntitySpec{
				Name:     fmt.Sprintf("Spikes%02d", len(p.Spikes)+1),
				Parent:   p.Terrain,
				Category: schemas.CategorySpike,
				Position: r3.Vec{Y: 0.25, Z: z},
				Collider: &physics.ColliderSpec{
					Shape:       physics.ShapeBox,
					HalfExtents: r3.Vec{X: l.TrackWidth / 2, Y: 0.25, Z: l.SpikeDepth / 2},
					Trigger:     true,
				},
			}))
			continue
		}
		x := 0.0
		if len(l.Lanes) > 0 {
			x = l.Lanes[(slot-1)%len(l.Lanes)]
		}
		p.Spheres = append(p.Spheres, w.Spawn(physics.EntitySpec{
			Name:     fmt.Sprintf("Sphere%02d", len(p.Spheres)+1),
			Parent:   spheres,
			Category: schemas.CategoryHazard | schemas.CategoryCountTarget,
			Position: r3.Vec{X: x, Y: l.SphereRadius, Z: z},
			Collider: &physics.ColliderSpec{Shape: physics.ShapeSphere, Radius: l.SphereRadius},
		}))
	}

	for i := 0; i < l.Crates; i++ {
		x := -l.TrackWidth/2 + 0.5
		if i%2 == 1 {
			x = -x
		}
		p.Crates = append(p.Crates, w.Spawn(physics.EntitySpec{
			Name:     fmt.Sprintf("Crate%02d", i+1),
			Category: schemas.CategoryPassenger,
			Position: r3.Vec{X: x, Y: 0.5, Z: l.FirstSlot + float64(i)*l.SlotSpacing + l.SlotSpacing/2},
			Collider: &physics.ColliderSpec{Shape: physics.ShapeBox, HalfExtents: r3.Vec{X: 0.4, Y: 0.5, Z: 0.4}},
			Body:     &physics.BodySpec{Mass: 2, UseGravity: true},
		}))
	}

	p.Goal = w.Spawn(physics.EntitySpec{
		Name:     NameGoal,
		Category: schemas.CategoryGoal,
		Position: r3.Vec{Y: 1, Z: l.TrackLength},
		Collider: &physics.ColliderSpec{
			Shape:       physics.ShapeBox,
			HalfExtents: r3.Vec{X: l.TrackWidth / 2, Y: 1, Z: 0.5},
			Trigger:     true,
		},
	})
	return p
}
