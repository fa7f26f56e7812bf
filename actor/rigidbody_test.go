package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// BodyType Tests
// =============================================================================

func TestBodyType_Constants(t *testing.T) {
	if BodyTypeDynamic == BodyTypeStatic || BodyTypeStatic == BodyTypeKinematic {
		t.Error("body type constants should be distinct")
	}
	if BodyTypeDynamic != 0 {
		t.Errorf("BodyTypeDynamic = %d, want 0", BodyTypeDynamic)
	}
}

// =============================================================================
// Mass aggregation
// =============================================================================

func TestRecalculateStaticProperties_ParallelAxis(t *testing.T) {
	circle := NewCircle(1, ShapeOptions{Position: mgl64.Vec2{2, 0}})
	box := NewBox(2, 2, ShapeOptions{Position: mgl64.Vec2{0, -1}})
	line := NewLine(3, ShapeOptions{})

	tests := []struct {
		name string
		mass float64
	}{
		{"unit mass", 1},
		{"heavy", 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := NewRigidBody(BodyTypeDynamic, tt.mass, circle, box, line)

			sum := 0.0
			for _, s := range body.Shapes {
				sum += s.Base().Inertia + s.Base().Position.LenSqr()
			}
			if !floatEqual(body.Inertia, tt.mass*sum, 1e-9) {
				t.Errorf("Inertia = %v, want %v", body.Inertia, tt.mass*sum)
			}
			if !floatEqual(body.InvInertia, 1/(tt.mass*sum), 1e-9) {
				t.Errorf("InvInertia = %v, want %v", body.InvInertia, 1/(tt.mass*sum))
			}
			if !floatEqual(body.BoundingRadius, 3, 1e-9) {
				t.Errorf("BoundingRadius = %v, want 3", body.BoundingRadius)
			}
		})
	}
}

func TestNonDynamicBodiesHaveInfiniteMass(t *testing.T) {
	for _, bodyType := range []BodyType{BodyTypeStatic, BodyTypeKinematic} {
		body := NewRigidBody(bodyType, 5, NewCircle(1, ShapeOptions{}))

		if !math.IsInf(body.Mass, 1) || !math.IsInf(body.Inertia, 1) {
			t.Errorf("type %d: mass/inertia = %v/%v, want +Inf", bodyType, body.Mass, body.Inertia)
		}
		if body.InvMass != (mgl64.Vec2{}) || body.InvInertia != 0 {
			t.Errorf("type %d: inverse mass should be zero", bodyType)
		}
	}
}

func TestSetBodyType_RestoresAssignedMass(t *testing.T) {
	body := NewRigidBody(BodyTypeStatic, 3, NewCircle(1, ShapeOptions{}))
	body.SetBodyType(BodyTypeDynamic)

	if body.Mass != 3 {
		t.Errorf("Mass = %v, want 3", body.Mass)
	}
	if !floatEqual(body.InvMass.X(), 1.0/3, 1e-12) {
		t.Errorf("InvMass = %v, want 1/3", body.InvMass)
	}
}

func TestUpdateInvMass_FixedAxes(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 2, NewBox(1, 1, ShapeOptions{}))
	body.FixedX = true
	body.FixedRotation = true
	body.UpdateInvMass()

	if body.InvMass != (mgl64.Vec2{0, 0.5}) {
		t.Errorf("InvMass = %v, want (0, 0.5)", body.InvMass)
	}
	if body.InvInertia != 0 {
		t.Errorf("InvInertia = %v, want 0", body.InvInertia)
	}
}

func TestAreaAndDensity(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 8, NewBox(2, 2, ShapeOptions{}))
	if body.Area() != 4 {
		t.Errorf("Area = %v, want 4", body.Area())
	}
	if body.Density() != 2 {
		t.Errorf("Density = %v, want 2", body.Density())
	}

	empty := NewRigidBody(BodyTypeDynamic, 1)
	if empty.Density() != 0 {
		t.Errorf("Density of shapeless body = %v, want 0", empty.Density())
	}
}

// =============================================================================
// AABB cache
// =============================================================================

func TestAABB_DirtyFlag(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 1, NewCircle(1, ShapeOptions{}))

	first := body.AABB()
	if !vec2Equal(first.Min, mgl64.Vec2{-1, -1}, 1e-12) {
		t.Fatalf("AABB = %+v", first)
	}

	body.SetPosition(mgl64.Vec2{5, 0})
	moved := body.AABB()
	if !vec2Equal(moved.Min, mgl64.Vec2{4, -1}, 1e-12) {
		t.Errorf("AABB after SetPosition = %+v, want min (4,-1)", moved)
	}

	// Mutating geometry without recalculation keeps the cached value
	body.Shapes[0].(*Circle).Radius = 2
	if cached := body.AABB(); cached != moved {
		t.Errorf("AABB changed without the dirty flag: %+v", cached)
	}
	body.MarkAABBDirty()
	if fresh := body.AABB(); !vec2Equal(fresh.Min, mgl64.Vec2{3, -2}, 1e-12) {
		t.Errorf("AABB after MarkAABBDirty = %+v", fresh)
	}
}

func TestAABB_NoShapes(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 1)
	aabb := body.AABB()
	if !aabb.IsEmpty() {
		t.Errorf("AABB = %+v, want empty", aabb)
	}
	other := AABB{Min: mgl64.Vec2{-1e9, -1e9}, Max: mgl64.Vec2{1e9, 1e9}}
	if aabb.Overlaps(other) {
		t.Error("empty AABB should never overlap")
	}
}

// =============================================================================
// Pooling
// =============================================================================

func TestReset_ClearsShapes(t *testing.T) {
	circle := NewCircle(1, ShapeOptions{})
	body := NewRigidBody(BodyTypeDynamic, 1, circle)
	body.SetPosition(mgl64.Vec2{3, 4})
	body.Velocity = mgl64.Vec2{1, 1}
	body.ID = 9

	body.Init(BodyTypeStatic, 0, NewBox(1, 1, ShapeOptions{}))

	if len(body.Shapes) != 1 || body.Shapes[0].Type() != ShapeTypeBox {
		t.Fatalf("Shapes = %v, want only the new box", body.Shapes)
	}
	if circle.Body() != nil {
		t.Error("old shape still points at the recycled body")
	}
	if body.Position() != (mgl64.Vec2{}) || body.Velocity != (mgl64.Vec2{}) || body.ID != 0 {
		t.Error("scalar state leaked through Init")
	}
	if body.Index != -1 {
		t.Errorf("Index = %d, want -1", body.Index)
	}
}

func TestRemoveShape(t *testing.T) {
	a := NewCircle(1, ShapeOptions{})
	b := NewCircle(1, ShapeOptions{Position: mgl64.Vec2{4, 0}})
	body := NewRigidBody(BodyTypeDynamic, 1, a, b)

	if !body.RemoveShape(b) {
		t.Fatal("RemoveShape returned false")
	}
	if body.BoundingRadius != 1 {
		t.Errorf("BoundingRadius = %v, want 1", body.BoundingRadius)
	}
	if body.RemoveShape(b) {
		t.Error("second RemoveShape should fail")
	}
}

// =============================================================================
// Forces and integration
// =============================================================================

func TestApplyForce_Torque(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 1, NewCircle(1, ShapeOptions{}))
	body.ApplyForce(mgl64.Vec2{0, 2}, mgl64.Vec2{1, 0})

	if body.Force != (mgl64.Vec2{0, 2}) || body.Torque != 2 {
		t.Errorf("Force/Torque = %v/%v, want (0,2)/2", body.Force, body.Torque)
	}

	static := NewRigidBody(BodyTypeStatic, 0, NewCircle(1, ShapeOptions{}))
	static.ApplyForce(mgl64.Vec2{1, 0}, mgl64.Vec2{})
	if static.Force != (mgl64.Vec2{}) {
		t.Error("static bodies ignore forces")
	}
}

func TestIntegrate(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 2, NewCircle(1, ShapeOptions{}))
	body.Force = mgl64.Vec2{4, 0}
	h := 0.5

	body.IntegrateVelocity(h)
	body.IntegratePosition(h, 1)

	if !vec2Equal(body.Velocity, mgl64.Vec2{1, 0}, 1e-12) {
		t.Errorf("Velocity = %v, want (1,0)", body.Velocity)
	}
	if !vec2Equal(body.Position(), mgl64.Vec2{0.5, 0}, 1e-12) {
		t.Errorf("Position = %v, want (0.5,0)", body.Position())
	}
	if body.PreviousPosition() != (mgl64.Vec2{}) {
		t.Errorf("PreviousPosition = %v, want origin", body.PreviousPosition())
	}
}

func TestIntegrate_KinematicIgnoresForces(t *testing.T) {
	body := NewRigidBody(BodyTypeKinematic, 0, NewBox(1, 1, ShapeOptions{}))
	body.Velocity = mgl64.Vec2{2, 0}
	body.Force = mgl64.Vec2{100, 0}

	body.IntegrateVelocity(1)
	body.IntegratePosition(1, 1)

	if body.Velocity != (mgl64.Vec2{2, 0}) || body.Position() != (mgl64.Vec2{2, 0}) {
		t.Errorf("velocity/position = %v/%v", body.Velocity, body.Position())
	}
}

func TestApplyDamping(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 1, NewCircle(1, ShapeOptions{}))
	body.LinearDamping = 1
	body.Velocity = mgl64.Vec2{1, 0}
	body.ApplyDamping(1)

	if !floatEqual(body.Velocity.X(), math.Exp(-1), 1e-12) {
		t.Errorf("Velocity = %v, want e^-1", body.Velocity)
	}
}

// =============================================================================
// Sleep
// =============================================================================

func TestSleepAndWake(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 4, NewCircle(1, ShapeOptions{}))
	body.Velocity = mgl64.Vec2{0.01, 0}
	body.Force = mgl64.Vec2{1, 1}

	body.Sleep()
	if body.SleepState != Asleep || body.InvMass != (mgl64.Vec2{}) || body.InvInertia != 0 {
		t.Fatalf("asleep body must have zero inverse mass: %+v", body.InvMass)
	}
	if body.Velocity != (mgl64.Vec2{}) || body.Force != (mgl64.Vec2{}) {
		t.Error("Sleep should zero velocity and force")
	}

	body.ApplyImpulse(mgl64.Vec2{4, 0}, mgl64.Vec2{})
	if body.SleepState != Awake {
		t.Fatalf("SleepState = %v, want Awake", body.SleepState)
	}
	if !floatEqual(body.InvMass.X(), 0.25, 1e-12) {
		t.Errorf("InvMass = %v, want 0.25", body.InvMass)
	}
	if !floatEqual(body.Velocity.X(), 1, 1e-12) {
		t.Errorf("Velocity = %v, want (1,0)", body.Velocity)
	}
}

func TestKineticEnergy(t *testing.T) {
	body := NewRigidBody(BodyTypeDynamic, 2, NewCircle(1, ShapeOptions{}))
	body.Velocity = mgl64.Vec2{3, 0}
	if ke := body.KineticEnergy(); !floatEqual(ke, 9, 1e-12) {
		t.Errorf("KineticEnergy = %v, want 9", ke)
	}
}

func TestPairKey_OrderIndependent(t *testing.T) {
	a := &RigidBody{ID: 3}
	b := &RigidBody{ID: 11}
	if PairKey(a, b) != PairKey(b, a) {
		t.Error("PairKey depends on argument order")
	}
	x, y := UnpackIDs(PairKey(b, a))
	if x != 3 || y != 11 {
		t.Errorf("UnpackIDs = %d,%d", x, y)
	}
}
