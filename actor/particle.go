package actor

import "github.com/go-gl/mathgl/mgl64"

// Particle is a dimensionless point
type Particle struct {
	ShapeBase
}

func NewParticle(options ShapeOptions) *Particle {
	p := &Particle{ShapeBase: newShapeBase(options)}
	p.RecalculateStaticProperties()
	return p
}

func (p *Particle) Type() ShapeType                 { return ShapeTypeParticle }
func (p *Particle) ComputeMomentOfInertia() float64 { return 0 }
func (p *Particle) ComputeBoundingRadius() float64  { return 0 }
func (p *Particle) ComputeArea() float64            { return 0 }

func (p *Particle) ComputeAABB(out *AABB, position mgl64.Vec2, angle float64) {
	out.Min = position
	out.Max = position
}

func (p *Particle) Support(direction mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{}
}

func (p *Particle) RecalculateStaticProperties() {
	p.recalculate(p)
}
