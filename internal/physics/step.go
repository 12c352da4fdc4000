// internal/physics/step.go
package physics

import (
	"gonum.org/v1/gonum/spatial/r3"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

type eventKind int

const (
	contactBegin eventKind = iota
	contactEnd
	overlapBegin
	overlapEnd
)

func (k eventKind) String() string {
	switch k {
	case contactBegin:
		return "contact_begin"
	case contactEnd:
		return "contact_end"
	case overlapBegin:
		return "overlap_begin"
	case overlapEnd:
		return "overlap_end"
	}
	return "unknown"
}

type event struct {
	kind   eventKind
	self   schemas.EntityID
	other  schemas.EntityID
	target Listener
}

// Step integrates every awake body by dt, then detects overlaps and reports
// the pairs that ended followed by the pairs that began. Listeners run after
// the world lock is released and may call back into the world.
func (w *World) Step(dt float64) {
	events := w.advance(dt)
	for _, ev := range events {
		switch ev.kind {
		case contactBegin:
			ev.target.OnContactBegin(ev.other)
		case contactEnd:
			ev.target.OnContactEnd(ev.other)
		case overlapBegin:
			ev.target.OnOverlapBegin(ev.other)
		case overlapEnd:
			ev.target.OnOverlapEnd(ev.other)
		}
	}
}

func (w *World) advance(dt float64) []event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dt > 0 {
		w.time += dt
		for _, id := range w.order {
			e := w.entities[id]
			if e.body != nil {
				e.body.integrate(e, dt, w.cfg)
			}
		}
	}

	current := w.detectLocked()

	var ended, began []pairKey
	for k, kind := range w.touching {
		if now, ok := current[k]; !ok || now != kind {
			ended = append(ended, k)
		}
	}
	for k, kind := range current {
		if was, ok := w.touching[k]; !ok || was != kind {
			began = append(began, k)
		}
	}
	sortPairs(ended)
	sortPairs(began)

	var events []event
	for _, k := range ended {
		kind := contactEnd
		if w.touching[k] == kindOverlap {
			kind = overlapEnd
		}
		events = w.appendPairEvents(events, kind, k)
	}
	for _, k := range began {
		kind := contactBegin
		if current[k] == kindOverlap {
			kind = overlapBegin
		}
		events = w.appendPairEvents(events, kind, k)
	}
	w.touching = current
	return events
}

func (w *World) appendPairEvents(events []event, kind eventKind, k pairKey) []event {
	if w.cfg.LogEvents {
		w.logger.Debug("Pair event.",
			zap.Stringer("kind", kind),
			zap.String("a", w.entities[k.a].name),
			zap.String("b", w.entities[k.b].name))
	}
	events = w.appendTargets(events, kind, k.a, k.b)
	return w.appendTargets(events, kind, k.b, k.a)
}

// appendTargets queues the event for the collider's own listeners and for the
// listeners of the body it is attached to.
func (w *World) appendTargets(events []event, kind eventKind, self, other schemas.EntityID) []event {
	for _, l := range w.listeners[self] {
		events = append(events, event{kind: kind, self: self, other: other, target: l})
	}
	if owner, ok := w.attachedBodyLocked(self); ok && owner != self {
		for _, l := range w.listeners[owner] {
			events = append(events, event{kind: kind, self: owner, other: other, target: l})
		}
	}
	return events
}

type liveCollider struct {
	e     *entity
	owner schemas.EntityID
	body  bool
}

func (w *World) detectLocked() map[pairKey]pairKind {
	var cols []liveCollider
	for _, id := range w.order {
		e := w.entities[id]
		if e.collider == nil || e.collider.Shape == ShapeNone {
			continue
		}
		owner, hasBody := w.attachedBodyLocked(id)
		cols = append(cols, liveCollider{e: e, owner: owner, body: hasBody})
	}

	out := make(map[pairKey]pairKind)
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			a, b := cols[i], cols[j]
			if !a.body && !b.body {
				continue
			}
			if a.body && b.body && a.owner == b.owner {
				continue
			}
			k := makePair(a.e.id, b.e.id)
			if w.ignored[k] {
				continue
			}
			if !overlaps(a.e, b.e) {
				continue
			}
			if a.e.collider.Trigger || b.e.collider.Trigger {
				out[k] = kindOverlap
			} else {
				out[k] = kindContact
			}
		}
	}
	return out
}

func center(e *entity) r3.Vec {
	return r3.Add(e.pos, e.collider.Offset)
}

func overlaps(a, b *entity) bool {
	ca, cb := a.collider, b.collider
	switch {
	case ca.Shape == ShapeSphere && cb.Shape == ShapeSphere:
		r := ca.Radius + cb.Radius
		return r3.Norm2(r3.Sub(center(a), center(b))) < r*r
	case ca.Shape == ShapeSphere && cb.Shape == ShapeBox:
		return sphereBox(center(a), ca.Radius, center(b), cb.HalfExtents)
	case ca.Shape == ShapeBox && cb.Shape == ShapeSphere:
		return sphereBox(center(b), cb.Radius, center(a), ca.HalfExtents)
	case ca.Shape == ShapeBox && cb.Shape == ShapeBox:
		d := r3.Sub(center(a), center(b))
		return abs(d.X) < ca.HalfExtents.X+cb.HalfExtents.X &&
			abs(d.Y) < ca.HalfExtents.Y+cb.HalfExtents.Y &&
			abs(d.Z) < ca.HalfExtents.Z+cb.HalfExtents.Z
	}
	return false
}

func sphereBox(c r3.Vec, radius float64, boxCenter, half r3.Vec) bool {
	closest := r3.Vec{
		X: clamp(c.X, boxCenter.X-half.X, boxCenter.X+half.X),
		Y: clamp(c.Y, boxCenter.Y-half.Y, boxCenter.Y+half.Y),
		Z: clamp(c.Z, boxCenter.Z-half.Z, boxCenter.Z+half.Z),
	}
	return r3.Norm2(r3.Sub(c, closest)) < radius*radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
