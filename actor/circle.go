package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Circle represents a circular collision shape
type Circle struct {
	ShapeBase
	Radius float64
}

func NewCircle(radius float64, options ShapeOptions) *Circle {
	c := &Circle{ShapeBase: newShapeBase(options), Radius: radius}
	c.RecalculateStaticProperties()
	return c
}

func (c *Circle) Type() ShapeType { return ShapeTypeCircle }

// ComputeMomentOfInertia : I = r²/2 for a unit mass disc
func (c *Circle) ComputeMomentOfInertia() float64 {
	return c.Radius * c.Radius / 2.0
}

func (c *Circle) ComputeBoundingRadius() float64 {
	return c.Radius
}

func (c *Circle) ComputeArea() float64 {
	return math.Pi * c.Radius * c.Radius
}

// ComputeAABB is not affected by rotation, only by position
func (c *Circle) ComputeAABB(out *AABB, position mgl64.Vec2, angle float64) {
	r := mgl64.Vec2{c.Radius, c.Radius}
	out.Min = position.Sub(r)
	out.Max = position.Add(r)
}

func (c *Circle) Support(direction mgl64.Vec2) mgl64.Vec2 {
	return SafeNormalize(direction).Mul(c.Radius)
}

func (c *Circle) RecalculateStaticProperties() {
	c.recalculate(c)
}
