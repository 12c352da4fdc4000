// internal/capsule/contacts.go
package capsule

import (
	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// OnContactBegin handles a solid contact between the capsule and other.
func (c *Controller) OnContactBegin(other schemas.EntityID) { c.hazardBegin(other) }

// OnContactEnd handles the end of a solid contact.
func (c *Controller) OnContactEnd(other schemas.EntityID) { c.hazardEnd(other) }

// OnOverlapBegin handles the capsule entering a trigger volume, or any overlap
// while the capsule itself is overlap-only.
func (c *Controller) OnOverlapBegin(other schemas.EntityID) { c.hazardBegin(other) }

// OnOverlapEnd handles the capsule leaving an overlap.
func (c *Controller) OnOverlapEnd(other schemas.EntityID) { c.hazardEnd(other) }

func (c *Controller) hazardBegin(other schemas.EntityID) {
	if _, ok := c.resolveCategory(other, c.cfg.StutterCategories); ok {
		c.stutterEnter()
	}
	if !c.cfg.Knockback.Enabled {
		return
	}
	if root, ok := c.resolveCategory(other, c.cfg.Knockback.Categories); ok {
		c.startKnockback(root)
	}
}

func (c *Controller) hazardEnd(other schemas.EntityID) {
	if _, ok := c.resolveCategory(other, c.cfg.StutterCategories); ok {
		c.stutterExit()
	}
}

// resolveCategory walks from other up through its ancestors and returns the
// nearest entity carrying any bit of mask.
func (c *Controller) resolveCategory(other schemas.EntityID, mask schemas.Category) (schemas.EntityID, bool) {
	if c.scene == nil || mask == schemas.CategoryNone {
		return schemas.NoEntity, false
	}
	id := other
	for depth := 0; id != schemas.NoEntity && depth < 64; depth++ {
		if !c.scene.Exists(id) {
			return schemas.NoEntity, false
		}
		if c.scene.Category(id).Any(mask) {
			return id, true
		}
		parent, ok := c.scene.Parent(id)
		if !ok {
			break
		}
		id = parent
	}
	return schemas.NoEntity, false
}
