// internal/trial/scene.go
package trial

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/capsule"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
	"github.com/xkilldash9x/stutter-cli/internal/physics"
	"github.com/xkilldash9x/stutter-cli/internal/results"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
	"github.com/xkilldash9x/stutter-cli/internal/terrain"
)

// Scene is everything a scene load creates. Nothing in it survives the next
// load; the Session passed in does.
type Scene struct {
	Name   string
	World  *physics.World
	Placed Placed

	Capsule   *capsule.Controller
	Terrain   *terrain.Mover
	Counter   *results.HitCounter
	Sequencer *sequence.Sequencer

	ConditionText *Label
	GoalText      *Label
	CountdownText *Label
	GoalPanel     *Panel
}

// Gameplay reports whether the scene runs a trial. Menu scenes are empty.
func (s *Scene) Gameplay() bool { return s.Capsule != nil }

func newMenuScene(name string, logger *zap.Logger) *Scene {
	return &Scene{Name: name, World: physics.New(physics.DefaultConfig(), logger)}
}

// buildScene assembles the gameplay scene and runs its Awake and Start
// callbacks in host order.
func buildScene(name string, cfg Config, session *sequence.Session, loader schemas.SceneLoader,
	in schemas.InputSource, logger *zap.Logger) (*Scene, error) {

	world := physics.New(cfg.Physics, logger)
	s := &Scene{
		Name:          name,
		World:         world,
		Placed:        cfg.Layout.Place(world),
		ConditionText: newLabel(NameConditionText, logger),
		GoalText:      newLabel(NameGoalText, logger),
		CountdownText: newLabel(NameCountdownText, logger),
		GoalPanel:     newPanel(NameGoalPanel, logger),
	}

	body, ok := world.Body(s.Placed.Capsule)
	if !ok {
		return nil, fmt.Errorf("scene %s: capsule has no body", name)
	}
	ctrl, err := capsule.New(cfg.Capsule, capsule.Deps{
		Body:          body,
		Collider:      s.Placed.Shell,
		Physics:       world,
		Scene:         world,
		Input:         in,
		Renderer:      world,
		CountdownText: s.CountdownText,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	s.Capsule = ctrl

	mover, err := terrain.New(cfg.Terrain, terrain.Deps{
		Terrain: s.Placed.Terrain,
		Physics: world,
		Scene:   world,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	s.Terrain = mover

	s.Counter = results.NewHitCounter(world, schemas.NoEntity, logger)

	s.Sequencer = sequence.New(cfg.Sequencer, sequence.Deps{
		Session: session,
		Loader:  loader,
		Input:   in,
		Scene:   world,
		Locator: sceneLocator{s},
	}, logger)

	world.Subscribe(s.Placed.Capsule, ctrl)
	world.Subscribe(s.Placed.Capsule, physics.Funcs{
		ContactBegin: s.Counter.OnContactBegin,
		OverlapBegin: s.Counter.OnOverlapBegin,
	})
	world.Subscribe(s.Placed.Terrain, physics.Funcs{
		OverlapBegin: mover.OnOverlapBegin,
		OverlapEnd:   mover.OnOverlapEnd,
	})
	world.Subscribe(s.Placed.Goal, physics.Funcs{OverlapBegin: s.Sequencer.OnGoalOverlap})

	s.Sequencer.Awake()
	ctrl.Start()
	mover.Start()
	s.Sequencer.Start()
	// Report the overlaps present at load time.
	world.Step(0)
	return s, nil
}

// sceneLocator resolves the sequencer's collaborators from a scene.
type sceneLocator struct{ s *Scene }

func (l sceneLocator) Player() (sequence.Player, bool) {
	if l.s.Capsule == nil {
		return nil, false
	}
	return l.s.Capsule, true
}

func (l sceneLocator) Terrain() (sequence.Terrain, bool) {
	if l.s.Terrain == nil {
		return nil, false
	}
	return l.s.Terrain, true
}

func (l sceneLocator) SpawnPoint() (geom.Pose, bool) {
	id := l.s.Placed.Spawn
	if id == schemas.NoEntity || !l.s.World.Exists(id) {
		return geom.Pose{}, false
	}
	return geom.Pose{Position: l.s.World.Position(id), Rotation: l.s.World.Rotation(id)}, true
}

func (l sceneLocator) HitCounter() (sequence.HitSource, bool) {
	if l.s.Counter == nil {
		return nil, false
	}
	return l.s.Counter, true
}

func (l sceneLocator) ConditionText() (schemas.TextDisplay, bool) {
	return l.s.ConditionText, l.s.ConditionText != nil
}

func (l sceneLocator) GoalText() (schemas.TextDisplay, bool) {
	return l.s.GoalText, l.s.GoalText != nil
}

func (l sceneLocator) GoalPanel() (schemas.PanelDisplay, bool) {
	return l.s.GoalPanel, l.s.GoalPanel != nil
}
