// internal/sequence/mocks_test.go
package sequence

import (
	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// fakePlayer records every call the sequencer makes, in order.
type fakePlayer struct {
	entity    schemas.EntityID
	pose      geom.Pose
	countdown bool
	enabled   bool

	applied    []schemas.Condition
	teleports  []geom.Pose
	calls      []string
	countdowns int
	halts      int
}

func (p *fakePlayer) Entity() schemas.EntityID { return p.entity }
func (p *fakePlayer) Pose() geom.Pose          { return p.pose }
func (p *fakePlayer) ResetForCondition() {
	p.enabled = false
	p.calls = append(p.calls, "reset")
}
func (p *fakePlayer) SetConditionDurations(stop, move float64) {
	p.applied = append(p.applied, schemas.Condition{StopDuration: stop, MoveDuration: move})
	p.calls = append(p.calls, "durations")
}
func (p *fakePlayer) StartWithCountdown() bool { return p.countdown }
func (p *fakePlayer) BeginCountdown() {
	p.enabled = false
	p.countdowns++
	p.calls = append(p.calls, "countdown")
}
func (p *fakePlayer) SetMovementEnabled(enabled bool) {
	p.enabled = enabled
	p.calls = append(p.calls, map[bool]string{true: "enable", false: "disable"}[enabled])
}
func (p *fakePlayer) MovementEnabled() bool { return p.enabled }
func (p *fakePlayer) Halt()                 { p.halts++ }
func (p *fakePlayer) TeleportTo(pose geom.Pose) {
	p.pose = pose
	p.teleports = append(p.teleports, pose)
	p.calls = append(p.calls, "teleport")
}

type fakeTerrain struct {
	enabled bool
	resets  int
	toggles []bool
}

func (t *fakeTerrain) SetMovementEnabled(enabled bool) {
	t.enabled = enabled
	t.toggles = append(t.toggles, enabled)
}
func (t *fakeTerrain) ResetToStart() { t.resets++ }

type fakeCounter struct {
	hits   int
	resets int
}

func (c *fakeCounter) Count() int { return c.hits }
func (c *fakeCounter) Reset()     { c.hits = 0; c.resets++ }

type fakeText struct{ text string }

func (t *fakeText) SetText(s string) { t.text = s }

type fakePanel struct{ visible bool }

func (p *fakePanel) SetVisible(v bool) { p.visible = v }

// fakeLocator hands out whatever the test put in it. Nil fields are absent.
type fakeLocator struct {
	player        *fakePlayer
	terrain       *fakeTerrain
	counter       *fakeCounter
	spawn         *geom.Pose
	conditionText *fakeText
	goalText      *fakeText
	goalPanel     *fakePanel

	playerLookups int
}

func (l *fakeLocator) Player() (Player, bool) {
	l.playerLookups++
	if l.player == nil {
		return nil, false
	}
	return l.player, true
}
func (l *fakeLocator) Terrain() (Terrain, bool) {
	if l.terrain == nil {
		return nil, false
	}
	return l.terrain, true
}
func (l *fakeLocator) SpawnPoint() (geom.Pose, bool) {
	if l.spawn == nil {
		return geom.Pose{}, false
	}
	return *l.spawn, true
}
func (l *fakeLocator) HitCounter() (HitSource, bool) {
	if l.counter == nil {
		return nil, false
	}
	return l.counter, true
}
func (l *fakeLocator) ConditionText() (schemas.TextDisplay, bool) {
	if l.conditionText == nil {
		return nil, false
	}
	return l.conditionText, true
}
func (l *fakeLocator) GoalText() (schemas.TextDisplay, bool) {
	if l.goalText == nil {
		return nil, false
	}
	return l.goalText, true
}
func (l *fakeLocator) GoalPanel() (schemas.PanelDisplay, bool) {
	if l.goalPanel == nil {
		return nil, false
	}
	return l.goalPanel, true
}

type fakeLoader struct {
	current string
	loads   []string
}

func (l *fakeLoader) LoadScene(name string) {
	l.loads = append(l.loads, name)
	l.current = name
}
func (l *fakeLoader) CurrentScene() string { return l.current }

type fakeButtons struct{ down map[string]bool }

func (b *fakeButtons) Axis(string) (float64, error) { return 0, schemas.ErrAxisNotConfigured }
func (b *fakeButtons) ButtonDown(name string) bool  { return b.down[name] }
