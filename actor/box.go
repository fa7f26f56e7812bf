package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis aligned rectangle in local space, centered on its origin.
type Box struct {
	Convex
	Width  float64
	Height float64
}

func NewBox(width, height float64, options ShapeOptions) *Box {
	b := &Box{
		Convex: Convex{ShapeBase: newShapeBase(options)},
		Width:  width,
		Height: height,
	}
	b.UpdateGeometry()
	b.RecalculateStaticProperties()
	return b
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

// UpdateGeometry rebuilds the four corners from Width and Height.
func (b *Box) UpdateGeometry() {
	hw, hh := b.Width/2.0, b.Height/2.0
	b.Vertices = append(b.Vertices[:0],
		mgl64.Vec2{-hw, -hh},
		mgl64.Vec2{hw, -hh},
		mgl64.Vec2{hw, hh},
		mgl64.Vec2{-hw, hh},
	)
	b.Convex.UpdateGeometry()
}

// ComputeMomentOfInertia : I = (w² + h²)/12 for a unit mass rectangle
func (b *Box) ComputeMomentOfInertia() float64 {
	return (b.Width*b.Width + b.Height*b.Height) / 12.0
}

func (b *Box) ComputeBoundingRadius() float64 {
	return math.Sqrt(b.Width*b.Width+b.Height*b.Height) / 2.0
}

func (b *Box) ComputeArea() float64 {
	b.CenterOfMass = mgl64.Vec2{}
	return b.Width * b.Height
}

// ComputeAABB uses the rotated extents instead of transforming the corners
func (b *Box) ComputeAABB(out *AABB, position mgl64.Vec2, angle float64) {
	hw, hh := b.Width/2.0, b.Height/2.0
	c, s := math.Abs(math.Cos(angle)), math.Abs(math.Sin(angle))
	extents := mgl64.Vec2{hw*c + hh*s, hw*s + hh*c}
	out.Min = position.Sub(extents)
	out.Max = position.Add(extents)
}

func (b *Box) RecalculateStaticProperties() {
	b.recalculate(b)
}
