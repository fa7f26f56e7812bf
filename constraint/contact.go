package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactEquation is the non penetration row of one contact point.
// The contact points are offsets from the body centers, the normal points from A to B.
type ContactEquation struct {
	Equation

	ShapeA actor.Shape
	ShapeB actor.Shape

	ContactPointA mgl64.Vec2
	ContactPointB mgl64.Vec2
	Normal        mgl64.Vec2

	Restitution float64
	// FirstImpact is set when the bodies did not touch during the previous step,
	// restitution only applies then
	FirstImpact bool
	// Offset is the contact skin, the overlap the solver settles on
	Offset float64
}

// Init resets the equation. The contact only pushes, it never pulls.
func (c *ContactEquation) Init(bodyA, bodyB *actor.RigidBody) {
	*c = ContactEquation{}
	c.Equation.Init(bodyA, bodyB, 0, math.Inf(1))
}

// ComputeGq is the signed separation along the normal, negative while penetrating.
func (c *ContactEquation) ComputeGq() float64 {
	xi := c.BodyA.Position().Add(c.ContactPointA)
	xj := c.BodyB.Position().Add(c.ContactPointB)
	return c.Normal.Dot(xj.Sub(xi)) + c.Offset
}

// Penetration is the depth of the contact, positive while the shapes overlap.
func (c *ContactEquation) Penetration() float64 {
	return -(c.ComputeGq() - c.Offset)
}

func (c *ContactEquation) ComputeB(h float64) float64 {
	c.setJacobian(c.Normal, c.ContactPointA, c.ContactPointB)

	gq := c.ComputeGq()
	gw := c.ComputeGW()
	if c.FirstImpact && c.Restitution > 0 {
		// Bounce: target the reflected velocity instead of the position
		gq = 0
		gw = (1.0 / c.b) * (1 + c.Restitution) * gw
	}
	return c.computeB(gq, gw, h)
}

// ContactVelocity is the relative normal velocity at the contact point.
func (c *ContactEquation) ContactVelocity() float64 {
	c.setJacobian(c.Normal, c.ContactPointA, c.ContactPointB)
	return c.ComputeGW()
}
