package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Line is an infinitely thin segment centered on its origin along the local x axis.
// Radius is a skin thickness used by the collision tests involving lines.
type Line struct {
	ShapeBase
	Length float64
	Radius float64
}

func NewLine(length float64, options ShapeOptions) *Line {
	l := &Line{ShapeBase: newShapeBase(options), Length: length}
	l.RecalculateStaticProperties()
	return l
}

func (l *Line) Type() ShapeType { return ShapeTypeLine }

// ComputeMomentOfInertia : I = L²/12 for a unit mass rod
func (l *Line) ComputeMomentOfInertia() float64 {
	return l.Length * l.Length / 12.0
}

func (l *Line) ComputeBoundingRadius() float64 {
	return l.Length/2.0 + l.Radius
}

func (l *Line) ComputeArea() float64 {
	return 0
}

// Endpoints returns the two world endpoints of the segment placed at position/angle.
func (l *Line) Endpoints(position mgl64.Vec2, angle float64) (mgl64.Vec2, mgl64.Vec2) {
	half := Rotate(mgl64.Vec2{l.Length / 2.0, 0}, angle)
	return position.Sub(half), position.Add(half)
}

func (l *Line) ComputeAABB(out *AABB, position mgl64.Vec2, angle float64) {
	a, b := l.Endpoints(position, angle)
	out.Min = mgl64.Vec2{math.Min(a.X(), b.X()) - l.Radius, math.Min(a.Y(), b.Y()) - l.Radius}
	out.Max = mgl64.Vec2{math.Max(a.X(), b.X()) + l.Radius, math.Max(a.Y(), b.Y()) + l.Radius}
}

func (l *Line) Support(direction mgl64.Vec2) mgl64.Vec2 {
	x := l.Length / 2.0
	if direction.X() < 0 {
		x = -x
	}
	return mgl64.Vec2{x, 0}.Add(SafeNormalize(direction).Mul(l.Radius))
}

func (l *Line) RecalculateStaticProperties() {
	l.recalculate(l)
}
