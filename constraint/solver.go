package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultIterations = 8
	DefaultTolerance  = 1e-7
)

// Solver solves the equations of one step and adds the result to the body velocities.
type Solver interface {
	Solve(h float64, rows []Row, bodies []*actor.RigidBody) int
}

// GSSolver is a Gauss-Seidel solver over SPOOK equations.
type GSSolver struct {
	Iterations int
	// Tolerance stops the iterations once the summed lambda change per equation is below it
	Tolerance float64
}

func NewGSSolver() *GSSolver {
	return &GSSolver{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// Solve runs the iterations over rows and returns how many were performed. Only the
// velocity corrections of bodies are reset and applied, rows must not reach a movable
// body outside of it.
func (s *GSSolver) Solve(h float64, rows []Row, bodies []*actor.RigidBody) int {
	if len(rows) == 0 {
		return 0
	}

	// ========== 1. Prepare the equations ==========
	active := 0
	for _, row := range rows {
		eq := row.Base()
		if !eq.Enabled {
			continue
		}
		eq.UpdateSpookParams(h)
		eq.lambda = 0
		eq.rhs = row.ComputeB(h)
		eq.invC = eq.ComputeInvC(eq.epsilon)
		eq.minForceDt = eq.MinForce * h
		eq.maxForceDt = eq.MaxForce * h
		active++
	}
	if active == 0 {
		return 0
	}

	// ========== 2. Reset the velocity corrections ==========
	for _, body := range bodies {
		body.VLambda = mgl64.Vec2{}
		body.WLambda = 0
	}

	// ========== 3. Iterate ==========
	tolSquared := s.Tolerance * float64(active)
	tolSquared *= tolSquared

	iterations := 0
	for iterations < s.Iterations {
		iterations++
		deltaTotal := 0.0
		for _, row := range rows {
			eq := row.Base()
			if !eq.Enabled {
				continue
			}
			deltaTotal += math.Abs(iterateEquation(eq))
		}
		if deltaTotal*deltaTotal <= tolSquared {
			break
		}
	}

	// ========== 4. Apply the corrections ==========
	for _, body := range bodies {
		body.Velocity = body.Velocity.Add(body.VLambda)
		body.AngularVelocity += body.WLambda
	}
	for _, row := range rows {
		eq := row.Base()
		eq.force = eq.lambda / h
	}

	return iterations
}

// iterateEquation performs one projected Gauss-Seidel update and returns the lambda change.
func iterateEquation(eq *Equation) float64 {
	deltaLambda := eq.invC * (eq.rhs - eq.ComputeGWlambda() - eq.epsilon*eq.lambda)

	lambda := eq.lambda + deltaLambda
	if lambda < eq.minForceDt {
		deltaLambda = eq.minForceDt - eq.lambda
	} else if lambda > eq.maxForceDt {
		deltaLambda = eq.maxForceDt - eq.lambda
	}

	eq.lambda += deltaLambda
	eq.UpdateWlambda(deltaLambda)
	return deltaLambda
}
