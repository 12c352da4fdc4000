package schemas

import (
	"strings"
	"time"
)

// -- Scene Entity Schemas --

// EntityID identifies an object in the hosted scene: a transform, a collider, a
// rigid body or any combination of those. Zero is never a valid entity.
type EntityID uint64

// NoEntity is the zero EntityID.
const NoEntity EntityID = 0

// Category is a capability bitmask attached to an entity when it is created.
// Components look categories up by identity through the SceneGraph rather than
// comparing string tags.
type Category uint32

const (
	CategoryNone Category = 0
	// CategoryCapsule marks the player-controlled body.
	CategoryCapsule Category = 1 << iota
	// CategoryHazard marks obstacles whose contact triggers knockback and stutter.
	CategoryHazard
	// CategoryPassenger marks bodies that may ride the moving terrain.
	CategoryPassenger
	// CategoryCountTarget marks objects counted by the hit counter.
	CategoryCountTarget
	// CategoryGoal marks the goal marker at the end of the track.
	CategoryGoal
	// CategoryTerrain marks the moving terrain itself.
	CategoryTerrain
	// CategorySpawn marks the capsule spawn point.
	CategorySpawn
	// CategoryDecoration marks objects that are never passengers (e.g. loose spheres).
	CategoryDecoration
	// CategorySpike marks immobilising zones that drive the stutter cycle.
	CategorySpike
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{CategoryCapsule, "capsule"},
	{CategoryHazard, "hazard"},
	{CategoryPassenger, "passenger"},
	{CategoryCountTarget, "count_target"},
	{CategoryGoal, "goal"},
	{CategoryTerrain, "terrain"},
	{CategorySpawn, "spawn"},
	{CategoryDecoration, "decoration"},
	{CategorySpike, "spike"},
}

// Has reports whether every bit of other is set on c.
func (c Category) Has(other Category) bool {
	return other != CategoryNone && c&other == other
}

// Any reports whether c shares at least one bit with other.
func (c Category) Any(other Category) bool {
	return c&other != 0
}

// String renders the category as a '|' separated list of names.
func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}
	var parts []string
	for _, n := range categoryNames {
		if c&n.c != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseCategory converts a name (as used in config files) to a Category.
// Unknown names map to CategoryNone.
func ParseCategory(name string) Category {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range categoryNames {
		if n.name == name {
			return n.c
		}
	}
	return CategoryNone
}

// ParseCategories folds a list of names into one mask.
func ParseCategories(names []string) Category {
	var c Category
	for _, n := range names {
		c |= ParseCategory(n)
	}
	return c
}

// Constraints is a bitmask of frozen rigid-body degrees of freedom, in world axes.
type Constraints uint8

const (
	ConstraintsNone Constraints = 0
	FreezePositionX Constraints = 1 << 0
	FreezePositionY Constraints = 1 << 1
	FreezePositionZ Constraints = 1 << 2
	FreezeRotationX Constraints = 1 << 3
	FreezeRotationY Constraints = 1 << 4
	FreezeRotationZ Constraints = 1 << 5

	FreezePosition = FreezePositionX | FreezePositionY | FreezePositionZ
	FreezeRotation = FreezeRotationX | FreezeRotationY | FreezeRotationZ
	FreezeAll      = FreezePosition | FreezeRotation
)

// FrameTime carries the timing of one per-frame update. Delta is scaled game
// time; Unscaled is wall-clock time and keeps advancing while the game is paused
// or slowed down.
type FrameTime struct {
	Delta    float64
	Unscaled float64
}

// -- Experiment Schemas --

// Condition is one (stopDuration, moveDuration) pair, in seconds, defining a
// trial's stutter-cycle timing.
type Condition struct {
	StopDuration float64 `json:"stop_duration" yaml:"stop_duration"`
	MoveDuration float64 `json:"move_duration" yaml:"move_duration"`
}

// ResultRecord is one completed condition.
type ResultRecord struct {
	SceneName      string    `json:"scene"`
	ConditionLabel string    `json:"condition"`
	HitCount       int       `json:"hits"`
	RecordedAt     time.Time `json:"recorded_at"`
}
