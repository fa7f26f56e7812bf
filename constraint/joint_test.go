package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// simulate runs steps of gravity, joint solve and integration.
func simulate(steps int, c Constraint, bodies []*actor.RigidBody, force func(b *actor.RigidBody)) {
	solver := &GSSolver{Iterations: 20, Tolerance: 1e-9}
	for i := 0; i < steps; i++ {
		for _, b := range bodies {
			force(b)
		}
		c.Update()
		solver.Solve(h, c.Equations(), bodies)
		for _, b := range bodies {
			b.IntegrateVelocity(h)
			b.IntegratePosition(h, 1)
			b.ClearForces()
		}
	}
}

func gravity(b *actor.RigidBody) {
	b.ApplyForce(mgl64.Vec2{0, -10 * b.Mass}, mgl64.Vec2{})
}

func TestDistanceConstraint(t *testing.T) {
	anchor := createStaticBody()
	bob := createDynamicBody(mgl64.Vec2{2, 0}, mgl64.Vec2{})

	c := NewDistanceConstraint(anchor, bob, mgl64.Vec2{}, mgl64.Vec2{}, Unbounded, false)
	if !floatEqual(c.Distance, 2, 1e-12) {
		t.Fatalf("Distance = %v, want 2", c.Distance)
	}
	if c.CollideConnected() {
		t.Error("CollideConnected() = true")
	}
	if a, b := c.Bodies(); a != anchor || b != bob {
		t.Error("Bodies() returned the wrong bodies")
	}

	simulate(30, c, []*actor.RigidBody{anchor, bob}, gravity)

	if d := c.CurrentDistance(); !floatEqual(d, 2, 0.05) {
		t.Errorf("distance after swinging = %v, want about 2", d)
	}
	if bob.Position().Y() > -0.1 {
		t.Errorf("pendulum did not swing down: %v", bob.Position())
	}
}

func TestDistanceConstraint_MaxForce(t *testing.T) {
	anchor := createStaticBody()
	bob := createDynamicBody(mgl64.Vec2{0, -2}, mgl64.Vec2{})

	// The rope holds half the weight, the bob keeps falling
	c := NewDistanceConstraint(anchor, bob, mgl64.Vec2{}, mgl64.Vec2{}, 5, false)
	simulate(60, c, []*actor.RigidBody{anchor, bob}, gravity)

	if d := c.CurrentDistance(); d < 3 {
		t.Errorf("distance = %v, a weak rope should stretch", d)
	}
}

func TestRevoluteConstraint(t *testing.T) {
	anchor := createStaticBody()
	box := actor.NewRigidBody(actor.BodyTypeDynamic, 1, actor.NewBox(2, 1, actor.ShapeOptions{}))
	box.SetPosition(mgl64.Vec2{1, 0})

	c := NewRevoluteConstraint(anchor, box, mgl64.Vec2{0, 0}, Unbounded, true)
	if !c.CollideConnected() || len(c.Equations()) != 2 {
		t.Fatalf("revolute: collide %v, %d equations", c.CollideConnected(), len(c.Equations()))
	}
	if !floatEqual(c.PivotB.X(), -1, 1e-12) {
		t.Errorf("PivotB = %v, want (-1,0)", c.PivotB)
	}

	simulate(30, c, []*actor.RigidBody{anchor, box}, gravity)

	if s := c.Separation(); s > 0.05 {
		t.Errorf("pivot separation = %v", s)
	}
	if box.Angle() > -0.1 {
		t.Errorf("box did not rotate around the pivot: angle %v", box.Angle())
	}
}

func TestAngleLockConstraint(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{"lock", 1},
		{"gear", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createDynamicBody(mgl64.Vec2{-3, 0}, mgl64.Vec2{})
			b := createDynamicBody(mgl64.Vec2{3, 0}, mgl64.Vec2{})
			b.SetAngle(0.3)

			c := NewAngleLockConstraint(a, b, tt.ratio, Unbounded, true)
			if !floatEqual(c.Angle, 0.3, 1e-12) {
				t.Fatalf("Angle = %v, want 0.3", c.Angle)
			}

			simulate(60, c, []*actor.RigidBody{a, b}, func(body *actor.RigidBody) {
				if body == a {
					body.Torque += 1
				}
			})

			if math.Abs(a.Angle()) < 0.1 {
				t.Errorf("driving body did not turn: %v", a.Angle())
			}
			if v := c.Violation(); math.Abs(v) > 0.01 {
				t.Errorf("lock violation = %v", v)
			}
		})
	}
}

func TestJoint_SetStiffness(t *testing.T) {
	c := NewRevoluteConstraint(createStaticBody(), createDynamicBody(mgl64.Vec2{1, 0}, mgl64.Vec2{}), mgl64.Vec2{}, Unbounded, false)
	c.SetStiffness(1e4, 2)

	for _, row := range c.Equations() {
		eq := row.Base()
		if eq.Stiffness != 1e4 || eq.Relaxation != 2 || !eq.NeedsUpdate {
			t.Errorf("equation = %+v", eq)
		}
	}
}
