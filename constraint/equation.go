package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultStiffness  = 1e6
	DefaultRelaxation = 4.0
)

// Row is one scalar constraint solved by the Gauss-Seidel loop.
type Row interface {
	Base() *Equation
	// ComputeGq returns the positional violation of the constraint
	ComputeGq() float64
	// ComputeB returns the right hand side of the SPOOK system for a step of h seconds
	ComputeB(h float64) float64
}

// Equation holds the state shared by every constraint row: the Jacobian
// G = [Gx_a, Gy_a, Gθ_a, Gx_b, Gy_b, Gθ_b], the force bounds and the SPOOK parameters.
type Equation struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	G [6]float64

	MinForce float64
	MaxForce float64

	Stiffness  float64
	Relaxation float64
	// NeedsUpdate forces the SPOOK coefficients to be recomputed on the next step
	NeedsUpdate bool
	Enabled     bool

	a        float64
	b        float64
	epsilon  float64
	timeStep float64

	// Solver scratch, valid during one solve
	rhs        float64
	invC       float64
	lambda     float64
	minForceDt float64
	maxForceDt float64
	force      float64
}

// Init resets the equation for a new pair of bodies.
func (e *Equation) Init(bodyA, bodyB *actor.RigidBody, minForce, maxForce float64) {
	*e = Equation{
		BodyA:       bodyA,
		BodyB:       bodyB,
		MinForce:    minForce,
		MaxForce:    maxForce,
		Stiffness:   DefaultStiffness,
		Relaxation:  DefaultRelaxation,
		NeedsUpdate: true,
		Enabled:     true,
	}
}

func (e *Equation) Base() *Equation {
	return e
}

// UpdateSpookParams caches a, b and epsilon for the step h. They only change with h,
// the stiffness or the relaxation.
func (e *Equation) UpdateSpookParams(h float64) {
	if !e.NeedsUpdate && e.timeStep == h {
		return
	}
	k, d := e.Stiffness, e.Relaxation

	e.a = 4.0 / (h * (1 + 4*d))
	e.b = (4.0 * d) / (1 + 4*d)
	e.epsilon = 4.0 / (h * h * k * (1 + 4*d))
	e.timeStep = h
	e.NeedsUpdate = false
}

// SpookParams returns the cached a, b and epsilon.
func (e *Equation) SpookParams() (a, b, epsilon float64) {
	return e.a, e.b, e.epsilon
}

// Lambda is the impulse accumulated by the last solve.
func (e *Equation) Lambda() float64 {
	return e.lambda
}

// Force is the constraint force applied during the last solve.
func (e *Equation) Force() float64 {
	return e.force
}

// computeB is the generic right hand side: B = -Gq·a - GW·b - h·GiMf.
func (e *Equation) computeB(gq, gw, h float64) float64 {
	return -gq*e.a - gw*e.b - h*e.ComputeGiMf()
}

// gmult computes G·[vA, wA, vB, wB].
func (e *Equation) gmult(vA mgl64.Vec2, wA float64, vB mgl64.Vec2, wB float64) float64 {
	G := &e.G
	return G[0]*vA[0] + G[1]*vA[1] + G[2]*wA + G[3]*vB[0] + G[4]*vB[1] + G[5]*wB
}

// ComputeGW is the relative velocity along the constraint.
func (e *Equation) ComputeGW() float64 {
	return e.gmult(e.BodyA.Velocity, e.BodyA.AngularVelocity, e.BodyB.Velocity, e.BodyB.AngularVelocity)
}

// ComputeGWlambda is the relative velocity correction accumulated by the solver.
func (e *Equation) ComputeGWlambda() float64 {
	return e.gmult(e.BodyA.VLambda, e.BodyA.WLambda, e.BodyB.VLambda, e.BodyB.WLambda)
}

// ComputeGiMf is the velocity change the external forces will produce along the constraint.
func (e *Equation) ComputeGiMf() float64 {
	a, b := e.BodyA, e.BodyB
	iMfA := mgl64.Vec2{a.Force[0] * a.InvMass[0], a.Force[1] * a.InvMass[1]}
	iMfB := mgl64.Vec2{b.Force[0] * b.InvMass[0], b.Force[1] * b.InvMass[1]}
	return e.gmult(iMfA, a.Torque*a.InvInertia, iMfB, b.Torque*b.InvInertia)
}

// ComputeGiMGt is the effective inverse mass along the constraint.
func (e *Equation) ComputeGiMGt() float64 {
	a, b := e.BodyA, e.BodyB
	G := &e.G
	return G[0]*G[0]*a.InvMass[0] + G[1]*G[1]*a.InvMass[1] + G[2]*G[2]*a.InvInertia +
		G[3]*G[3]*b.InvMass[0] + G[4]*G[4]*b.InvMass[1] + G[5]*G[5]*b.InvInertia
}

// ComputeInvC returns 1/(G·M⁻¹·Gᵗ + eps), zero on a degenerate row.
func (e *Equation) ComputeInvC(eps float64) float64 {
	c := e.ComputeGiMGt() + eps
	if c == 0 || math.IsInf(c, 0) || math.IsNaN(c) {
		return 0
	}
	return 1.0 / c
}

// UpdateWlambda scatters a lambda change into the bodies velocity corrections.
// Bodies with zero inverse mass are never written, several islands may share them.
func (e *Equation) UpdateWlambda(deltaLambda float64) {
	G := &e.G
	if a := e.BodyA; movable(a) {
		a.VLambda[0] += G[0] * a.InvMass[0] * deltaLambda
		a.VLambda[1] += G[1] * a.InvMass[1] * deltaLambda
		a.WLambda += G[2] * a.InvInertia * deltaLambda
	}
	if b := e.BodyB; movable(b) {
		b.VLambda[0] += G[3] * b.InvMass[0] * deltaLambda
		b.VLambda[1] += G[4] * b.InvMass[1] * deltaLambda
		b.WLambda += G[5] * b.InvInertia * deltaLambda
	}
}

func movable(rb *actor.RigidBody) bool {
	return rb.InvMass[0] != 0 || rb.InvMass[1] != 0 || rb.InvInertia != 0
}

// setJacobian fills G for a constraint acting along dir at the anchors ri and rj.
func (e *Equation) setJacobian(dir, ri, rj mgl64.Vec2) {
	e.G = [6]float64{
		-dir[0], -dir[1], -actor.Cross(ri, dir),
		dir[0], dir[1], actor.Cross(rj, dir),
	}
}
