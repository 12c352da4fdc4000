// internal/geom/geom.go
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// World axes. Y is up, Z is the forward (track) axis and X is lateral.
var (
	WorldUp      = r3.Vec{Y: 1}
	WorldForward = r3.Vec{Z: 1}
	WorldRight   = r3.Vec{X: 1}
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Pose is a position plus orientation.
type Pose struct {
	Position r3.Vec
	Rotation quat.Number
}

// Identity returns the identity rotation.
func Identity() quat.Number {
	return quat.Number{Real: 1}
}

// AxisAngle builds a rotation of deg degrees about axis.
func AxisAngle(axis r3.Vec, deg float64) quat.Number {
	n := r3.Norm(axis)
	if n < 1e-12 {
		return Identity()
	}
	axis = r3.Scale(1/n, axis)
	half := deg * deg2rad / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// Normalize scales q to unit length. The zero quaternion maps to identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 {
		return Identity()
	}
	return quat.Scale(1/n, q)
}

// Rotate applies q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(Normalize(q)).Rotate(v)
}

// Forward is the body's local +Z expressed in world space.
func Forward(q quat.Number) r3.Vec { return Rotate(q, WorldForward) }

// Right is the body's local +X (the lateral axis) expressed in world space.
func Right(q quat.Number) r3.Vec { return Rotate(q, WorldRight) }

// Up is the body's local +Y expressed in world space.
func Up(q quat.Number) r3.Vec { return Rotate(q, WorldUp) }

// Euler holds yaw-pitch-roll angles in degrees, applied in Y, X, Z order.
// Positive pitch tips the forward axis downwards.
type Euler struct {
	Pitch float64 // about X
	Yaw   float64 // about Y
	Roll  float64 // about Z
}

// FromEuler composes yaw, then pitch, then roll.
func FromEuler(e Euler) quat.Number {
	qy := AxisAngle(WorldUp, e.Yaw)
	qx := AxisAngle(WorldRight, e.Pitch)
	qz := AxisAngle(WorldForward, e.Roll)
	return quat.Mul(quat.Mul(qy, qx), qz)
}

// ToEuler decomposes q into yaw, pitch and roll, each in (-180, 180].
// At the ±90° pitch singularity the roll is folded into the yaw.
func ToEuler(q quat.Number) Euler {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	r12 := 2 * (y*z - w*x)
	sinPitch := clamp(-r12, -1, 1)
	pitch := math.Asin(sinPitch)

	if math.Abs(sinPitch) > 1-1e-9 {
		r20 := 2 * (x*z - w*y)
		r00 := 1 - 2*(y*y+z*z)
		return Euler{
			Pitch: pitch * rad2deg,
			Yaw:   math.Atan2(-r20, r00) * rad2deg,
		}
	}

	r02 := 2 * (x*z + w*y)
	r22 := 1 - 2*(x*x+y*y)
	r10 := 2 * (x*y + w*z)
	r11 := 1 - 2*(x*x+z*z)
	return Euler{
		Pitch: pitch * rad2deg,
		Yaw:   math.Atan2(r02, r22) * rad2deg,
		Roll:  math.Atan2(r10, r11) * rad2deg,
	}
}

// Pitch returns the signed tilt of q about the lateral axis, in degrees.
func Pitch(q quat.Number) float64 {
	return ToEuler(q).Pitch
}

// ClampPitch limits the tilt of q to ±maxDeg while preserving its sign, yaw and
// roll. clamped is false when q was already within the limit.
func ClampPitch(q quat.Number, maxDeg float64) (out quat.Number, clamped bool) {
	maxDeg = math.Abs(maxDeg)
	e := ToEuler(q)
	if math.Abs(e.Pitch) <= maxDeg {
		return q, false
	}
	e.Pitch = math.Copysign(maxDeg, e.Pitch)
	return FromEuler(e), true
}

// Upright keeps the yaw of q and zeroes pitch and roll.
func Upright(q quat.Number) quat.Number {
	return FromEuler(Euler{Yaw: ToEuler(q).Yaw})
}

// Slerp interpolates along the shortest arc from a to b. t is clamped to [0, 1].
func Slerp(a, b quat.Number, t float64) quat.Number {
	t = clamp(t, 0, 1)
	a, b = Normalize(a), Normalize(b)

	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	// Nearly parallel: fall back to a normalised lerp.
	if dot > 0.9995 {
		return Normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}

	theta0 := math.Acos(dot)
	theta := theta0 * t
	sin0 := math.Sin(theta0)
	s0 := math.Cos(theta) - dot*math.Sin(theta)/sin0
	s1 := math.Sin(theta) / sin0
	return quat.Add(quat.Scale(s0, a), quat.Scale(s1, b))
}

// AngleBetween returns the angle in degrees separating two orientations.
func AngleBetween(a, b quat.Number) float64 {
	a, b = Normalize(a), Normalize(b)
	dot := math.Abs(a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag)
	return 2 * math.Acos(clamp(dot, -1, 1)) * rad2deg
}

// Horizontal drops the vertical component of v.
func Horizontal(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
