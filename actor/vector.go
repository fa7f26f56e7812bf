package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossSV returns s × v, the vector v rotated 90° counter clockwise and scaled by s.
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v[1], s * v[0]}
}

// CrossVS returns v × s.
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v[1], -s * v[0]}
}

// Perp returns v rotated by +90°.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// Rotate rotates v by angle radians.
func Rotate(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	if angle == 0 {
		return v
	}
	c, s := math.Cos(angle), math.Sin(angle)
	return mgl64.Vec2{c*v[0] - s*v[1], s*v[0] + c*v[1]}
}

// SafeNormalize returns v scaled to unit length, or the zero vector when v has no length.
// mgl64's Normalize divides by zero and would propagate NaN into the solver.
func SafeNormalize(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec2{}
	}
	return v.Mul(1.0 / l)
}

// SafeInverse returns 1/x, or 0 when x is zero or infinite.
func SafeInverse(x float64) float64 {
	if x == 0 || math.IsInf(x, 0) {
		return 0
	}
	return 1.0 / x
}

// Lerp interpolates between a and b.
func Lerp(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// ToWorldFrame transforms a local point into the frame given by position and angle.
func ToWorldFrame(local, position mgl64.Vec2, angle float64) mgl64.Vec2 {
	return Rotate(local, angle).Add(position)
}

// ToLocalFrame transforms a world point into the frame given by position and angle.
func ToLocalFrame(world, position mgl64.Vec2, angle float64) mgl64.Vec2 {
	return Rotate(world.Sub(position), -angle)
}
