package main

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/akmonengine/feather2d/narrowphase"
	"github.com/go-gl/mathgl/mgl64"
)

const bouncyMaterial = 1

// CollisionDebugger instruments the collision of two bodies
type CollisionDebugger interface {
	DebugGJK(bodyA, bodyB *actor.RigidBody, overlap bool)
	DebugManifold(m *narrowphase.ContactManifold)
	DebugContactEquation(c *constraint.ContactEquation)
}

// SimpleDebugger prints the collision data
type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugGJK(bodyA, bodyB *actor.RigidBody, overlap bool) {
	fmt.Printf("🔍 GJK Debug:\n")
	fmt.Printf("   Body A pos: %v\n", bodyA.Position())
	fmt.Printf("   Body B pos: %v\n", bodyB.Position())
	fmt.Printf("   Overlap: %v\n", overlap)
}

func (d *SimpleDebugger) DebugManifold(m *narrowphase.ContactManifold) {
	fmt.Printf("🎯 Manifold Debug:\n")
	fmt.Printf("   Normal: %v\n", m.Normal)
	fmt.Printf("   Contact points: %d\n", m.Count)
	for i := 0; i < m.Count; i++ {
		point := m.Points[i]
		fmt.Printf("   Point %d: depth=%.6f\n", i, point.Depth)
		fmt.Printf("      rA (line): %v (len=%.3f)\n", point.RA, point.RA.Len())
		fmt.Printf("      rB (box):  %v (len=%.3f)\n", point.RB, point.RB.Len())
	}
}

func (d *SimpleDebugger) DebugContactEquation(c *constraint.ContactEquation) {
	fmt.Printf("⚙️  Contact Equation Debug:\n")
	fmt.Printf("   Normal: %v\n", c.Normal)
	fmt.Printf("   Restitution: %v\n", c.Restitution)
	fmt.Printf("   First impact: %v\n", c.FirstImpact)
	fmt.Printf("   Force: %v\n", c.Force())
}

// shapeOverlap runs GJK on the first shape of each body
func shapeOverlap(bodyA, bodyB *actor.RigidBody) bool {
	placed := func(body *actor.RigidBody) gjk.Placed {
		position, angle := body.ShapeWorldTransform(body.Shapes[0])
		return gjk.Placed{Shape: body.Shapes[0], Position: position, Angle: angle}
	}
	return gjk.Intersect(placed(bodyA), placed(bodyB))
}

// SetupScene creates the test scene with a ground line and a tilted box
func SetupScene() (*feather2d.World, *actor.RigidBody, *actor.RigidBody, CollisionDebugger) {
	world, err := feather2d.NewWorld(feather2d.DefaultOptions())
	if err != nil {
		panic(err)
	}

	// High restitution to test the bounces
	err = world.Materials().Add(constraint.ContactMaterial{
		MaterialA:   bouncyMaterial,
		MaterialB:   0,
		Friction:    0.3,
		Restitution: 0.8,
	})
	if err != nil {
		panic(err)
	}

	lineBody := actor.NewRigidBody(actor.BodyTypeStatic, 0, actor.NewLine(40, actor.ShapeOptions{}))
	if err := world.AddBody(lineBody); err != nil {
		panic(err)
	}

	boxBody := actor.NewRigidBody(actor.BodyTypeDynamic, 1.0,
		actor.NewBox(3, 3, actor.ShapeOptions{Material: bouncyMaterial}))
	boxBody.SetPosition(mgl64.Vec2{-5, 5})
	boxBody.SetAngle(70 * math.Pi / 180)
	if err := world.AddBody(boxBody); err != nil {
		panic(err)
	}

	return world, lineBody, boxBody, &SimpleDebugger{}
}

// TestBoxBounce steps the box falling on the ground and prints the collision data
func TestBoxBounce() {
	fmt.Println("🧪 Integration test: tilted box bouncing on a line")
	fmt.Println("==================================================")

	world, lineBody, boxBody, debugger := SetupScene()
	world.Events.Subscribe(feather2d.COLLISION_ENTER, func(event feather2d.Event) {
		fmt.Println("  💥 Collision enter")
	})
	world.Events.Subscribe(feather2d.ON_SLEEP, func(event feather2d.Event) {
		fmt.Println("  💤 Box asleep")
	})

	fmt.Printf("Initial state:\n")
	fmt.Printf("  Line: position %v\n", lineBody.Position())
	fmt.Printf("  Box: position %v, angle %.3f\n", boxBody.Position(), boxBody.Angle())
	fmt.Printf("  Gravity: %v\n", world.Options.Gravity)
	fmt.Println()

	const maxSteps int = 200
	narrow := narrowphase.New()

	for step := 0; step < maxSteps; step++ {
		fmt.Printf("--- STEP %d ---\n", step+1)
		fmt.Printf("Box BEFORE:\n")
		fmt.Printf("  Position: %v\n", boxBody.Position())
		fmt.Printf("  Velocity: %v\n", boxBody.Velocity)
		fmt.Printf("  Angular Velocity: %.3f\n", boxBody.AngularVelocity)

		overlap := shapeOverlap(lineBody, boxBody)
		debugger.DebugGJK(lineBody, boxBody, overlap)
		if overlap {
			narrow.DetectCollision(lineBody, boxBody, false, debugger.DebugManifold)
		} else {
			fmt.Printf("  No collision\n")
		}

		world.Step()
		for _, c := range world.Factory.ContactEquations {
			debugger.DebugContactEquation(c)
		}

		fmt.Printf("Box AFTER:\n")
		fmt.Printf("  Position: %v\n", boxBody.Position())
		fmt.Printf("  Velocity: %v\n", boxBody.Velocity)
		fmt.Printf("  Angle: %.3f (delta=%.6f)\n", boxBody.Angle(), boxBody.Angle()-boxBody.PreviousAngle())
		fmt.Println()
	}

	fmt.Println("Test done!")
}

func main() {
	TestBoxBounce()
}
