package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and a rotation in 2D space
type Transform struct {
	Position mgl64.Vec2
	Rotation float64
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{}
}

// Interpolate blends two transforms, alpha=0 returning t and alpha=1 returning next.
func (t Transform) Interpolate(next Transform, alpha float64) Transform {
	return Transform{
		Position: Lerp(t.Position, next.Position, alpha),
		Rotation: t.Rotation + (next.Rotation-t.Rotation)*alpha,
	}
}

// Apply transforms a local point into this frame.
func (t Transform) Apply(local mgl64.Vec2) mgl64.Vec2 {
	return ToWorldFrame(local, t.Position, t.Rotation)
}
