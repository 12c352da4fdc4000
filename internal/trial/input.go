// internal/trial/input.go
package trial

import (
	"sync"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// ScriptedInput is an InputSource driven by the runner instead of a device.
// Axes hold their value until changed; a pressed button reads as down for
// exactly one frame.
type ScriptedInput struct {
	mu      sync.Mutex
	axes    map[string]float64
	pressed map[string]bool
	next    map[string]bool
}

// NewScriptedInput knows the given axes, all at their initial values.
func NewScriptedInput(axes map[string]float64) *ScriptedInput {
	in := &ScriptedInput{
		axes:    make(map[string]float64, len(axes)),
		pressed: make(map[string]bool),
		next:    make(map[string]bool),
	}
	for name, v := range axes {
		in.axes[name] = v
	}
	return in
}

// Axis returns the held value, or ErrAxisNotConfigured for an unknown name.
func (in *ScriptedInput) Axis(name string) (float64, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.axes[name]
	if !ok {
		return 0, schemas.ErrAxisNotConfigured
	}
	return v, nil
}

// SetAxis holds name at v. The axis becomes known if it was not.
func (in *ScriptedInput) SetAxis(name string, v float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.axes[name] = v
}

// ButtonDown reports a press delivered for the current frame.
func (in *ScriptedInput) ButtonDown(name string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pressed[name]
}

// Press queues a press of name for the next frame.
func (in *ScriptedInput) Press(name string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.next[name] = true
}

// BeginFrame delivers the queued presses. Presses from the previous frame are
// released.
func (in *ScriptedInput) BeginFrame() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pressed, in.next = in.next, in.pressed
	for k := range in.next {
		delete(in.next, k)
	}
}
