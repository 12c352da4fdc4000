// internal/results/counter.go
package results

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// HitCounter counts the distinct count targets touched during a trial. A
// target counts once no matter how often it is hit.
type HitCounter struct {
	mu     sync.Mutex
	scene  schemas.SceneGraph
	root   schemas.EntityID
	logger *zap.Logger
	hits   map[schemas.EntityID]struct{}
	order  []schemas.EntityID
}

// NewHitCounter counts hits on root and its descendants. With no root, any
// entity in the count-target category counts.
func NewHitCounter(scene schemas.SceneGraph, root schemas.EntityID, logger *zap.Logger) *HitCounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HitCounter{
		scene:  scene,
		root:   root,
		logger: logger.Named("hits"),
		hits:   make(map[schemas.EntityID]struct{}),
	}
}

// OnContactBegin registers a solid hit.
func (h *HitCounter) OnContactBegin(other schemas.EntityID) { h.register(other) }

// OnOverlapBegin registers a trigger hit.
func (h *HitCounter) OnOverlapBegin(other schemas.EntityID) { h.register(other) }

func (h *HitCounter) register(other schemas.EntityID) {
	if h.scene == nil || other == schemas.NoEntity || !h.scene.Exists(other) {
		return
	}
	if h.root != schemas.NoEntity {
		if !h.scene.IsDescendantOf(other, h.root) {
			return
		}
	} else if !h.scene.Category(other).Has(schemas.CategoryCountTarget) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, seen := h.hits[other]; seen {
		return
	}
	h.hits[other] = struct{}{}
	h.order = append(h.order, other)
	h.logger.Info("Target hit.", zap.String("name", h.scene.Name(other)), zap.Int("total", len(h.hits)))
}

// Count returns the number of distinct targets hit.
func (h *HitCounter) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hits)
}

// Hits returns the targets in the order they were first hit.
func (h *HitCounter) Hits() []schemas.EntityID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]schemas.EntityID(nil), h.order...)
}

// Reset forgets every hit.
func (h *HitCounter) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits = make(map[schemas.EntityID]struct{})
	h.order = nil
}
