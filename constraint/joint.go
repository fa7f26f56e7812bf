package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint links two bodies with one or more equations, refreshed every step.
type Constraint interface {
	// Update refreshes the Jacobians from the current body transforms
	Update()
	Equations() []Row
	Bodies() (*actor.RigidBody, *actor.RigidBody)
	// CollideConnected reports whether the linked bodies still collide with each other
	CollideConnected() bool
}

// jointBase holds the fields shared by the joints.
type jointBase struct {
	bodyA            *actor.RigidBody
	bodyB            *actor.RigidBody
	collideConnected bool
	rows             []Row
}

func (j *jointBase) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.bodyA, j.bodyB
}

func (j *jointBase) CollideConnected() bool {
	return j.collideConnected
}

func (j *jointBase) Equations() []Row {
	return j.rows
}

// SetStiffness changes the SPOOK parameters of every equation of the joint.
func (j *jointBase) SetStiffness(stiffness, relaxation float64) {
	for _, row := range j.rows {
		eq := row.Base()
		eq.Stiffness = stiffness
		eq.Relaxation = relaxation
		eq.NeedsUpdate = true
	}
}

// anchors returns the world offsets of two local anchors.
func anchors(a, b *actor.RigidBody, localA, localB mgl64.Vec2) (mgl64.Vec2, mgl64.Vec2) {
	return actor.Rotate(localA, a.Angle()), actor.Rotate(localB, b.Angle())
}

// ==============================================
// Distance
// ==============================================

// distanceEquation keeps |xj+rj - xi-ri| equal to Distance.
type distanceEquation struct {
	Equation
	ri       mgl64.Vec2
	rj       mgl64.Vec2
	normal   mgl64.Vec2
	distance float64
}

func (e *distanceEquation) ComputeGq() float64 {
	d := e.BodyB.Position().Add(e.rj).Sub(e.BodyA.Position().Add(e.ri))
	return d.Len() - e.distance
}

func (e *distanceEquation) ComputeB(h float64) float64 {
	e.setJacobian(e.normal, e.ri, e.rj)
	return e.computeB(e.ComputeGq(), e.ComputeGW(), h)
}

// DistanceConstraint keeps two anchor points at a fixed distance, like a rigid rod.
type DistanceConstraint struct {
	jointBase
	LocalAnchorA mgl64.Vec2
	LocalAnchorB mgl64.Vec2
	Distance     float64

	equation distanceEquation
}

// NewDistanceConstraint links the anchors at their current distance. maxForce bounds
// the force in both directions, +Inf for a rigid rod.
func NewDistanceConstraint(bodyA, bodyB *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, maxForce float64, collideConnected bool) *DistanceConstraint {
	c := &DistanceConstraint{
		jointBase:    jointBase{bodyA: bodyA, bodyB: bodyB, collideConnected: collideConnected},
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
	}
	c.equation.Init(bodyA, bodyB, -maxForce, maxForce)
	c.rows = []Row{&c.equation}

	worldA := bodyA.ToWorldFrame(localAnchorA)
	worldB := bodyB.ToWorldFrame(localAnchorB)
	c.Distance = worldB.Sub(worldA).Len()

	c.Update()
	return c
}

func (c *DistanceConstraint) Update() {
	eq := &c.equation
	eq.ri, eq.rj = anchors(c.bodyA, c.bodyB, c.LocalAnchorA, c.LocalAnchorB)
	eq.distance = c.Distance

	d := c.bodyB.Position().Add(eq.rj).Sub(c.bodyA.Position().Add(eq.ri))
	eq.normal = actor.SafeNormalize(d)
}

// CurrentDistance is the distance between the two anchors.
func (c *DistanceConstraint) CurrentDistance() float64 {
	return c.bodyB.ToWorldFrame(c.LocalAnchorB).Sub(c.bodyA.ToWorldFrame(c.LocalAnchorA)).Len()
}

// ==============================================
// Revolute
// ==============================================

// pivotEquation keeps the two anchors together along one world axis.
type pivotEquation struct {
	Equation
	ri   mgl64.Vec2
	rj   mgl64.Vec2
	axis mgl64.Vec2
}

func (e *pivotEquation) ComputeGq() float64 {
	d := e.BodyB.Position().Add(e.rj).Sub(e.BodyA.Position().Add(e.ri))
	return d.Dot(e.axis)
}

func (e *pivotEquation) ComputeB(h float64) float64 {
	e.setJacobian(e.axis, e.ri, e.rj)
	return e.computeB(e.ComputeGq(), e.ComputeGW(), h)
}

// RevoluteConstraint pins two bodies at a shared pivot, leaving the relative rotation free.
type RevoluteConstraint struct {
	jointBase
	PivotA mgl64.Vec2
	PivotB mgl64.Vec2

	x pivotEquation
	y pivotEquation
}

// NewRevoluteConstraint joins the bodies at a world point.
func NewRevoluteConstraint(bodyA, bodyB *actor.RigidBody, worldPivot mgl64.Vec2, maxForce float64, collideConnected bool) *RevoluteConstraint {
	c := &RevoluteConstraint{
		jointBase: jointBase{bodyA: bodyA, bodyB: bodyB, collideConnected: collideConnected},
		PivotA:    bodyA.ToLocalFrame(worldPivot),
		PivotB:    bodyB.ToLocalFrame(worldPivot),
	}
	c.x.Init(bodyA, bodyB, -maxForce, maxForce)
	c.y.Init(bodyA, bodyB, -maxForce, maxForce)
	c.x.axis = mgl64.Vec2{1, 0}
	c.y.axis = mgl64.Vec2{0, 1}
	c.rows = []Row{&c.x, &c.y}

	c.Update()
	return c
}

func (c *RevoluteConstraint) Update() {
	ri, rj := anchors(c.bodyA, c.bodyB, c.PivotA, c.PivotB)
	c.x.ri, c.x.rj = ri, rj
	c.y.ri, c.y.rj = ri, rj
}

// Separation is the distance between the two pivots, zero when the joint holds.
func (c *RevoluteConstraint) Separation() float64 {
	return c.bodyB.ToWorldFrame(c.PivotB).Sub(c.bodyA.ToWorldFrame(c.PivotA)).Len()
}

// ==============================================
// Angle lock
// ==============================================

// angleEquation keeps angleB - Ratio·angleA equal to Angle.
type angleEquation struct {
	Equation
	ratio float64
	angle float64
}

func (e *angleEquation) ComputeGq() float64 {
	return e.BodyB.Angle() - e.ratio*e.BodyA.Angle() - e.angle
}

func (e *angleEquation) ComputeB(h float64) float64 {
	e.G = [6]float64{0, 0, -e.ratio, 0, 0, 1}
	return e.computeB(e.ComputeGq(), e.ComputeGW(), h)
}

// AngleLockConstraint locks the relative rotation of two bodies. With a Ratio other
// than 1 it behaves like a gear.
type AngleLockConstraint struct {
	jointBase
	Ratio float64
	Angle float64

	equation angleEquation
}

// NewAngleLockConstraint locks the current relative angle.
func NewAngleLockConstraint(bodyA, bodyB *actor.RigidBody, ratio, maxTorque float64, collideConnected bool) *AngleLockConstraint {
	c := &AngleLockConstraint{
		jointBase: jointBase{bodyA: bodyA, bodyB: bodyB, collideConnected: collideConnected},
		Ratio:     ratio,
		Angle:     bodyB.Angle() - ratio*bodyA.Angle(),
	}
	c.equation.Init(bodyA, bodyB, -maxTorque, maxTorque)
	c.rows = []Row{&c.equation}

	c.Update()
	return c
}

func (c *AngleLockConstraint) Update() {
	c.equation.ratio = c.Ratio
	c.equation.angle = c.Angle
}

// Violation is the current error of the lock, in radians.
func (c *AngleLockConstraint) Violation() float64 {
	return c.equation.ComputeGq()
}

// Unbounded is the force bound of rigid joints.
var Unbounded = math.Inf(1)
