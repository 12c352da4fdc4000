// internal/capsule/teleport.go
package capsule

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/stutter-cli/internal/geom"
)

// TeleportTo moves the capsule to pose. The body is made kinematic for the
// write so the solver does not fight it, velocities are cleared, and a dynamic
// body is put to sleep afterwards so no residual velocity carries over.
func (c *Controller) TeleportTo(pose geom.Pose) {
	from := c.body.Position()
	wasKinematic := c.body.IsKinematic()
	if !wasKinematic {
		c.body.SetKinematic(true)
	}

	c.body.SetVelocity(r3.Vec{})
	c.body.SetAngularVelocity(r3.Vec{})
	c.body.SetPosition(pose.Position)
	c.body.SetRotation(geom.Normalize(pose.Rotation))
	c.fixedY = pose.Position.Y

	c.body.SetKinematic(wasKinematic)
	if !wasKinematic {
		c.body.Sleep()
	}

	if c.cfg.LogEvents {
		c.logger.Debug("Capsule teleported.",
			zap.Float64s("from", []float64{from.X, from.Y, from.Z}),
			zap.Float64s("to", []float64{pose.Position.X, pose.Position.Y, pose.Position.Z}))
	}
}
