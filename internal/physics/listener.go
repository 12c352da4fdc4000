// internal/physics/listener.go
package physics

import "github.com/xkilldash9x/stutter-cli/api/schemas"

// Funcs adapts plain callbacks to a Listener. Nil callbacks are skipped.
type Funcs struct {
	ContactBegin func(other schemas.EntityID)
	ContactEnd   func(other schemas.EntityID)
	OverlapBegin func(other schemas.EntityID)
	OverlapEnd   func(other schemas.EntityID)
}

func (f Funcs) OnContactBegin(other schemas.EntityID) {
	if f.ContactBegin != nil {
		f.ContactBegin(other)
	}
}

func (f Funcs) OnContactEnd(other schemas.EntityID) {
	if f.ContactEnd != nil {
		f.ContactEnd(other)
	}
}

func (f Funcs) OnOverlapBegin(other schemas.EntityID) {
	if f.OverlapBegin != nil {
		f.OverlapBegin(other)
	}
}

func (f Funcs) OnOverlapEnd(other schemas.EntityID) {
	if f.OverlapEnd != nil {
		f.OverlapEnd(other)
	}
}
