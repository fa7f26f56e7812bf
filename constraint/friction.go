package constraint

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// FrictionMode selects how many friction rows a manifold produces.
type FrictionMode int

const (
	// FrictionPerManifold builds one row at the average of the manifold points
	FrictionPerManifold FrictionMode = iota
	// FrictionPerContact builds one row per contact point
	FrictionPerContact
)

// FrictionEquation is the tangential row of a contact. Its bounds are the slip force,
// estimated from the reduced mass of the pair instead of the solved normal force.
type FrictionEquation struct {
	Equation

	ShapeA actor.Shape
	ShapeB actor.Shape

	ContactPointA mgl64.Vec2
	ContactPointB mgl64.Vec2
	Tangent       mgl64.Vec2

	// ContactEquations are the normal rows this friction belongs to
	ContactEquations []*ContactEquation

	FrictionCoefficient float64
	// SlipShare is the fraction of the manifold slip force held by this row
	SlipShare float64
	// RelativeVelocity is the surface velocity along the tangent, a conveyor belt
	RelativeVelocity float64
}

func (f *FrictionEquation) Init(bodyA, bodyB *actor.RigidBody, slipForce float64) {
	contacts := f.ContactEquations[:0]
	*f = FrictionEquation{ContactEquations: contacts}
	f.Equation.Init(bodyA, bodyB, -slipForce, slipForce)
}

func (f *FrictionEquation) SetSlipForce(slipForce float64) {
	f.MinForce = -slipForce
	f.MaxForce = slipForce
}

func (f *FrictionEquation) SlipForce() float64 {
	return f.MaxForce
}

// ComputeGq is always zero, friction has no positional target.
func (f *FrictionEquation) ComputeGq() float64 {
	return 0
}

func (f *FrictionEquation) ComputeB(h float64) float64 {
	f.setJacobian(f.Tangent, f.ContactPointA, f.ContactPointB)
	gw := f.ComputeGW() + f.RelativeVelocity
	return f.computeB(0, gw, h)
}
