package actor

import "github.com/go-gl/mathgl/mgl64"

// Ray is a segment cast from From to To. Hit fractions are in [0, 1] along it.
type Ray struct {
	From mgl64.Vec2
	To   mgl64.Vec2
}

// Direction returns the unnormalized To-From vector.
func (r Ray) Direction() mgl64.Vec2 {
	return r.To.Sub(r.From)
}

func (r Ray) Length() float64 {
	return r.Direction().Len()
}

// PointAt returns the point at the given fraction.
func (r Ray) PointAt(fraction float64) mgl64.Vec2 {
	return r.From.Add(r.Direction().Mul(fraction))
}

// Bounds returns the box enclosing the segment up to maxFraction.
func (r Ray) Bounds(maxFraction float64) AABB {
	out := EmptyAABB()
	out.ExtendPoint(r.From)
	out.ExtendPoint(r.PointAt(maxFraction))
	return out
}
