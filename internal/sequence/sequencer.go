// internal/sequence/sequencer.go
package sequence

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// Player is the part of the capsule controller the sequencer drives.
type Player interface {
	Entity() schemas.EntityID
	Pose() geom.Pose
	ResetForCondition()
	SetConditionDurations(stop, move float64)
	StartWithCountdown() bool
	BeginCountdown()
	SetMovementEnabled(enabled bool)
	MovementEnabled() bool
	Halt()
	TeleportTo(pose geom.Pose)
}

// Terrain is the part of the terrain mover the sequencer drives.
type Terrain interface {
	SetMovementEnabled(enabled bool)
	ResetToStart()
}

// HitSource reports the hits scored during the current trial.
type HitSource interface {
	Count() int
	Reset()
}

// Locator finds the optional scene objects lazily. Every lookup may fail; the
// feature depending on it is then skipped.
type Locator interface {
	Player() (Player, bool)
	Terrain() (Terrain, bool)
	SpawnPoint() (geom.Pose, bool)
	HitCounter() (HitSource, bool)
	ConditionText() (schemas.TextDisplay, bool)
	GoalText() (schemas.TextDisplay, bool)
	GoalPanel() (schemas.PanelDisplay, bool)
}

// Config tunes a Sequencer.
type Config struct {
	// NextScene is loaded on advance; empty reloads the current scene.
	NextScene string `mapstructure:"next_scene" yaml:"next_scene"`
	// MenuScene is loaded once the sequence completes, when set.
	MenuScene string `mapstructure:"menu_scene" yaml:"menu_scene"`
	// ReloadOnAdvance resets a trial by reloading the scene. When false the
	// next condition is applied in place.
	ReloadOnAdvance   bool    `mapstructure:"reload_on_advance" yaml:"reload_on_advance"`
	AutoAdvanceOnGoal bool    `mapstructure:"auto_advance_on_goal" yaml:"auto_advance_on_goal"`
	AutoAdvanceDelay  float64 `mapstructure:"auto_advance_delay" yaml:"auto_advance_delay"`
	AdvanceButton     string  `mapstructure:"advance_button" yaml:"advance_button"`
	GoalMessage       string  `mapstructure:"goal_message" yaml:"goal_message"`
	LogEvents         bool    `mapstructure:"log_events" yaml:"log_events"`
}

// DefaultConfig waits for the submit button at the goal and applies the next
// condition in place.
func DefaultConfig() Config {
	return Config{
		AdvanceButton: "Submit",
		GoalMessage:   "Goal",
	}
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Session *Session
	Loader  schemas.SceneLoader
	Input   schemas.InputSource
	Scene   schemas.SceneGraph
	Locator Locator
}

// Sequencer applies the session's conditions to one scene. It lives as long
// as the scene; the Session it reads lives for the whole run.
type Sequencer struct {
	cfg     Config
	logger  *zap.Logger
	session *Session
	loader  schemas.SceneLoader
	input   schemas.InputSource
	scene   schemas.SceneGraph
	locator Locator

	player  Player
	terrain Terrain
	counter HitSource

	fixedSpawn       geom.Pose
	fixedSpawnCached bool
	fallbackSpawn    geom.Pose
	fallbackCached   bool

	waiting       bool
	autoAdvancing bool
	autoTimer     float64
	resumePending bool
}

// New creates a sequencer for the current scene. A nil Session gets a fresh
// default one.
func New(cfg Config, deps Deps, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Session == nil {
		deps.Session = NewSession(DefaultSessionConfig(), logger)
	}
	return &Sequencer{
		cfg:     cfg,
		logger:  logger.Named("sequence"),
		session: deps.Session,
		loader:  deps.Loader,
		input:   deps.Input,
		scene:   deps.Scene,
		locator: deps.Locator,
	}
}

// Awake initialises the session if needed, caches the spawn poses and hides
// the goal panel. It runs once, before Start.
func (s *Sequencer) Awake() {
	s.session.Init()
	s.resolvePlayer()
	s.resolveTerrain()
	s.cacheFixedSpawn()
	s.cacheFallbackSpawn()
	s.setGoalUI(false, "")
}

// Start applies the current condition.
func (s *Sequencer) Start() {
	s.ApplyCurrentCondition()
}

// Session returns the run state this sequencer works on.
func (s *Sequencer) Session() *Session { return s.session }

// WaitingForAdvance reports whether the goal was reached and the sequencer is
// waiting for the advance action.
func (s *Sequencer) WaitingForAdvance() bool { return s.waiting || s.autoAdvancing }

// Update is called once per frame. It resumes the terrain once the capsule may
// move, polls the advance button and runs the auto-advance timer.
func (s *Sequencer) Update(ft schemas.FrameTime) {
	s.tryResumeTerrain()

	if s.autoAdvancing {
		s.autoTimer -= ft.Delta
		if s.autoTimer <= 0 {
			s.autoAdvancing = false
			s.advanceFromGoal()
		}
		return
	}

	if s.waiting && s.input != nil && s.cfg.AdvanceButton != "" && s.input.ButtonDown(s.cfg.AdvanceButton) {
		s.waiting = false
		s.advanceFromGoal()
	}
}

// OnGoalOverlap is the goal marker's contact callback. Only the capsule
// reaches the goal.
func (s *Sequencer) OnGoalOverlap(other schemas.EntityID) {
	p, ok := s.resolvePlayer()
	if !ok {
		return
	}
	if other != p.Entity() && (s.scene == nil || !s.scene.IsDescendantOf(other, p.Entity())) {
		return
	}
	s.OnGoalReached()
}

// OnGoalReached freezes the trial and waits for the advance action, or starts
// the auto-advance timer. Repeated calls while waiting are ignored.
func (s *Sequencer) OnGoalReached() {
	if s.waiting || s.autoAdvancing || s.session.Completed() {
		return
	}
	if s.cfg.LogEvents {
		s.logger.Debug("Goal reached.", zap.Int("index", s.session.Index()))
	}
	s.setGoalUI(true, s.cfg.GoalMessage)
	s.setTerrainMove(false)
	s.resumePending = false

	if p, ok := s.resolvePlayer(); ok {
		p.SetMovementEnabled(false)
		p.Halt()
	}

	if s.cfg.AutoAdvanceOnGoal {
		s.autoAdvancing = true
		s.autoTimer = s.cfg.AutoAdvanceDelay
		if s.autoTimer <= 0 {
			s.autoAdvancing = false
			s.advanceFromGoal()
		}
		return
	}
	s.waiting = true
}

func (s *Sequencer) advanceFromGoal() {
	s.setGoalUI(false, "")
	hits := 0
	if c, ok := s.resolveCounter(); ok {
		hits = c.Count()
	}
	s.RecordAndAdvance(hits)
}

// RecordAndAdvance stores the outcome of the current condition and moves on.
// It is a no-op once the sequence is complete.
func (s *Sequencer) RecordAndAdvance(hits int) {
	if s.session.Completed() {
		return
	}
	rec, ok := s.session.Record(s.currentScene(), hits)
	if !ok {
		return
	}
	if s.cfg.LogEvents {
		s.logger.Debug("Condition recorded.",
			zap.String("condition", rec.ConditionLabel),
			zap.Int("hits", rec.HitCount))
	}
	s.Advance()
}

// Advance moves to the next condition, either by reloading the scene or by
// applying it in place. After the last condition the capsule is stopped and
// the menu scene is loaded when configured.
func (s *Sequencer) Advance() {
	if s.session.Completed() {
		return
	}
	s.waiting = false
	s.autoAdvancing = false

	if s.session.Advance() {
		s.finish()
		return
	}

	if s.cfg.ReloadOnAdvance && s.loader != nil {
		next := s.cfg.NextScene
		if next == "" {
			next = s.loader.CurrentScene()
		}
		s.loader.LoadScene(next)
		return
	}
	s.ApplyCurrentCondition()
}

func (s *Sequencer) finish() {
	s.resumePending = false
	s.setGoalUI(false, "")
	s.setTerrainMove(false)
	if p, ok := s.resolvePlayer(); ok {
		p.SetMovementEnabled(false)
	}
	if s.cfg.MenuScene != "" && s.loader != nil {
		s.loader.LoadScene(s.cfg.MenuScene)
	}
}

// ApplyCurrentCondition installs the current condition: the capsule is reset
// and given the new durations, the terrain is stopped and reset, the capsule
// is teleported to the spawn pose and then either starts the countdown or is
// released at once. The terrain resumes when the capsule can move.
func (s *Sequencer) ApplyCurrentCondition() {
	c, ok := s.session.Current()
	if !ok {
		return
	}
	if t, ok := s.locateConditionText(); ok {
		t.SetText(DisplayLabel(c))
	}

	p, ok := s.resolvePlayer()
	if !ok {
		s.logger.Warn("No capsule in scene; condition not applied.", zap.String("condition", Label(c)))
		return
	}

	p.ResetForCondition()
	s.setTerrainMove(false)
	if t, ok := s.resolveTerrain(); ok {
		t.ResetToStart()
	}
	p.SetConditionDurations(c.StopDuration, c.MoveDuration)
	if counter, ok := s.resolveCounter(); ok {
		counter.Reset()
	}

	p.TeleportTo(s.spawnPose(p))

	if p.StartWithCountdown() {
		p.BeginCountdown()
	} else {
		p.SetMovementEnabled(true)
	}

	s.logger.Info("Condition applied.",
		zap.Int("index", s.session.Index()+1),
		zap.Int("of", s.session.Len()),
		zap.Float64("stop", c.StopDuration),
		zap.Float64("move", c.MoveDuration))

	s.resumePending = true
	s.tryResumeTerrain()
}

func (s *Sequencer) tryResumeTerrain() {
	if !s.resumePending {
		return
	}
	p, ok := s.resolvePlayer()
	if ok && !p.MovementEnabled() {
		return
	}
	s.resumePending = false
	s.setTerrainMove(true)
}

// spawnPose picks the spawn cached at scene start, then the live spawn point,
// then the capsule's own first known pose.
func (s *Sequencer) spawnPose(p Player) geom.Pose {
	if s.fixedSpawnCached {
		return s.fixedSpawn
	}
	if s.locator != nil {
		if pose, ok := s.locator.SpawnPoint(); ok {
			return pose
		}
	}
	s.cacheFallbackSpawn()
	if s.fallbackCached {
		return s.fallbackSpawn
	}
	return p.Pose()
}

func (s *Sequencer) cacheFixedSpawn() {
	if s.fixedSpawnCached || s.locator == nil {
		return
	}
	if pose, ok := s.locator.SpawnPoint(); ok {
		s.fixedSpawn = pose
		s.fixedSpawnCached = true
	}
}

func (s *Sequencer) cacheFallbackSpawn() {
	if s.fallbackCached {
		return
	}
	if p, ok := s.resolvePlayer(); ok {
		s.fallbackSpawn = p.Pose()
		s.fallbackCached = true
	}
}

func (s *Sequencer) resolvePlayer() (Player, bool) {
	if s.player == nil && s.locator != nil {
		if p, ok := s.locator.Player(); ok {
			s.player = p
		}
	}
	return s.player, s.player != nil
}

func (s *Sequencer) resolveTerrain() (Terrain, bool) {
	if s.terrain == nil && s.locator != nil {
		if t, ok := s.locator.Terrain(); ok {
			s.terrain = t
		}
	}
	return s.terrain, s.terrain != nil
}

func (s *Sequencer) resolveCounter() (HitSource, bool) {
	if s.counter == nil && s.locator != nil {
		if c, ok := s.locator.HitCounter(); ok {
			s.counter = c
		}
	}
	return s.counter, s.counter != nil
}

func (s *Sequencer) locateConditionText() (schemas.TextDisplay, bool) {
	if s.locator == nil {
		return nil, false
	}
	return s.locator.ConditionText()
}

func (s *Sequencer) setTerrainMove(enabled bool) {
	if t, ok := s.resolveTerrain(); ok {
		t.SetMovementEnabled(enabled)
	}
}

func (s *Sequencer) setGoalUI(visible bool, text string) {
	if s.locator == nil {
		return
	}
	if panel, ok := s.locator.GoalPanel(); ok {
		panel.SetVisible(visible)
	}
	if t, ok := s.locator.GoalText(); ok {
		t.SetText(text)
	}
}

func (s *Sequencer) currentScene() string {
	if s.loader == nil {
		return ""
	}
	return s.loader.CurrentScene()
}
