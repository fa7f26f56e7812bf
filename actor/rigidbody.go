package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic

	// BodyTypeKinematic bodies move with their velocity but ignore forces and contacts
	BodyTypeKinematic
)

// SleepState is the sleep state machine tag of a body
type SleepState int

const (
	Awake SleepState = iota
	// Sleepy bodies are below the speed threshold and accumulate idle time
	Sleepy
	Asleep
)

const (
	DefaultCCDIterations  = 10
	DefaultLinearDamping  = 0.1
	DefaultAngularDamping = 0.1
)

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// ID is reused after the body is removed, it keys the pair maps
	ID uint32
	// Index is the dense index of the body in its world, -1 while detached
	Index int

	BodyType   BodyType
	SleepState SleepState

	position         mgl64.Vec2
	angle            float64
	previousPosition mgl64.Vec2
	previousAngle    float64

	// Linear motion
	Velocity mgl64.Vec2
	// Angular motion
	AngularVelocity float64

	Force  mgl64.Vec2
	Torque float64

	// Velocity corrections accumulated by the solver during one step
	VLambda mgl64.Vec2
	WLambda float64

	Mass       float64
	Inertia    float64
	InvMass    mgl64.Vec2 // per axis, zero on a fixed axis
	InvInertia float64

	assignedMass float64

	FixedX        bool
	FixedY        bool
	FixedRotation bool

	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64

	// CCDSpeedThreshold enables continuous collision above this speed, negative disables it
	CCDSpeedThreshold float64
	CCDIterations     int

	AllowSleep bool
	// IdleTime is the time spent in the Sleepy state
	IdleTime float64

	// Collision shapes, owned by the body
	Shapes         []Shape
	BoundingRadius float64

	aabb      AABB
	aabbDirty bool

	// IntegratedFrame is the last host frame in which the body moved
	IntegratedFrame uint64
	// WrittenFrame is the last host frame in which the transform was written back
	WrittenFrame uint64

	UserData any
}

// NewRigidBody creates a new rigid body with the given properties
// mass is ignored for static and kinematic bodies
func NewRigidBody(bodyType BodyType, mass float64, shapes ...Shape) *RigidBody {
	rb := &RigidBody{}
	rb.Init(bodyType, mass, shapes...)
	return rb
}

// Init reinitializes every field of the body, so that a recycled body never carries
// state, shapes included, from its previous life.
func (rb *RigidBody) Init(bodyType BodyType, mass float64, shapes ...Shape) {
	rb.Reset()
	rb.BodyType = bodyType
	rb.assignedMass = mass
	for _, shape := range shapes {
		rb.attach(shape)
	}
	rb.RecalculateStaticProperties()
}

// Reset clears the body back to its zero configuration and detaches its shapes.
func (rb *RigidBody) Reset() {
	for _, shape := range rb.Shapes {
		shape.Base().body = nil
	}
	clear(rb.Shapes)

	*rb = RigidBody{
		Index:             -1,
		Shapes:            rb.Shapes[:0],
		LinearDamping:     DefaultLinearDamping,
		AngularDamping:    DefaultAngularDamping,
		GravityScale:      1,
		CCDSpeedThreshold: -1,
		CCDIterations:     DefaultCCDIterations,
		AllowSleep:        true,
		aabb:              EmptyAABB(),
		aabbDirty:         true,
	}
}

// AddShape attaches a shape and refreshes the mass properties.
func (rb *RigidBody) AddShape(shape Shape) {
	rb.attach(shape)
	rb.RecalculateStaticProperties()
}

// RemoveShape detaches a shape and refreshes the mass properties.
func (rb *RigidBody) RemoveShape(shape Shape) bool {
	for i, s := range rb.Shapes {
		if s == shape {
			shape.Base().body = nil
			rb.Shapes = append(rb.Shapes[:i], rb.Shapes[i+1:]...)
			rb.RecalculateStaticProperties()
			return true
		}
	}
	return false
}

func (rb *RigidBody) attach(shape Shape) {
	shape.Base().body = rb
	rb.Shapes = append(rb.Shapes, shape)
	rb.aabbDirty = true
}

// ========== TRANSFORM ==========

func (rb *RigidBody) Position() mgl64.Vec2 { return rb.position }
func (rb *RigidBody) Angle() float64       { return rb.angle }

// PreviousPosition is the position at the start of the last integration.
func (rb *RigidBody) PreviousPosition() mgl64.Vec2 { return rb.previousPosition }
func (rb *RigidBody) PreviousAngle() float64       { return rb.previousAngle }

func (rb *RigidBody) Transform() Transform {
	return Transform{Position: rb.position, Rotation: rb.angle}
}

func (rb *RigidBody) PreviousTransform() Transform {
	return Transform{Position: rb.previousPosition, Rotation: rb.previousAngle}
}

// SetPosition teleports the body. The previous position follows so that no
// interpolation or sweep happens across the jump.
func (rb *RigidBody) SetPosition(position mgl64.Vec2) {
	rb.position = position
	rb.previousPosition = position
	rb.aabbDirty = true
}

func (rb *RigidBody) SetAngle(angle float64) {
	rb.angle = angle
	rb.previousAngle = angle
	rb.aabbDirty = true
}

// MarkAABBDirty forces the cached AABB to be recomputed on next access.
func (rb *RigidBody) MarkAABBDirty() {
	rb.aabbDirty = true
}

// ShapeWorldTransform returns the world position and angle of one of the body shapes.
func (rb *RigidBody) ShapeWorldTransform(shape Shape) (mgl64.Vec2, float64) {
	base := shape.Base()
	return ToWorldFrame(base.Position, rb.position, rb.angle), rb.angle + base.Angle
}

func (rb *RigidBody) ToWorldFrame(local mgl64.Vec2) mgl64.Vec2 {
	return ToWorldFrame(local, rb.position, rb.angle)
}

func (rb *RigidBody) ToLocalFrame(world mgl64.Vec2) mgl64.Vec2 {
	return ToLocalFrame(world, rb.position, rb.angle)
}

// ========== BOUNDS ==========

// ComputeAABB writes the union of every shape AABB into out.
// A body without shapes yields EmptyAABB.
func (rb *RigidBody) ComputeAABB(out *AABB) {
	*out = EmptyAABB()
	var shapeAABB AABB
	for _, shape := range rb.Shapes {
		position, angle := rb.ShapeWorldTransform(shape)
		shape.ComputeAABB(&shapeAABB, position, angle)
		*out = out.Union(shapeAABB)
	}
}

// AABB returns the cached bounds, recomputed only when the dirty flag is set.
func (rb *RigidBody) AABB() AABB {
	if rb.aabbDirty {
		rb.ComputeAABB(&rb.aabb)
		rb.aabbDirty = false
	}
	return rb.aabb
}

// ========== MASS ==========

// RecalculateStaticProperties refreshes the bounding radius and the mass properties.
// It has to be called after any mutation of the shapes geometry or offsets.
func (rb *RigidBody) RecalculateStaticProperties() {
	rb.BoundingRadius = 0
	inertia := 0.0
	for _, shape := range rb.Shapes {
		base := shape.Base()
		offset := base.Position.Len()
		rb.BoundingRadius = math.Max(rb.BoundingRadius, offset+base.BoundingRadius)
		inertia += base.Inertia + offset*offset
	}

	if rb.BodyType == BodyTypeDynamic {
		rb.Mass = rb.assignedMass
		rb.Inertia = rb.assignedMass * inertia
	} else {
		rb.Mass = math.Inf(1)
		rb.Inertia = math.Inf(1)
	}

	rb.aabbDirty = true
	rb.UpdateInvMass()
}

// SetMass assigns the mass of a dynamic body.
func (rb *RigidBody) SetMass(mass float64) {
	rb.assignedMass = mass
	rb.RecalculateStaticProperties()
}

// SetBodyType changes the body type and refreshes the mass properties.
func (rb *RigidBody) SetBodyType(bodyType BodyType) {
	rb.BodyType = bodyType
	if bodyType != BodyTypeDynamic {
		rb.SleepState = Awake
	}
	rb.RecalculateStaticProperties()
}

// UpdateInvMass zeroes the inverse mass of non dynamic or sleeping bodies.
func (rb *RigidBody) UpdateInvMass() {
	if rb.BodyType != BodyTypeDynamic || rb.SleepState == Asleep {
		rb.InvMass = mgl64.Vec2{}
		rb.InvInertia = 0
		return
	}

	invMass := SafeInverse(rb.Mass)
	rb.InvMass = mgl64.Vec2{invMass, invMass}
	if rb.FixedX {
		rb.InvMass[0] = 0
	}
	if rb.FixedY {
		rb.InvMass[1] = 0
	}
	rb.InvInertia = SafeInverse(rb.Inertia)
	if rb.FixedRotation {
		rb.InvInertia = 0
	}
}

// InverseMass is the scalar inverse mass seen by the solver.
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType != BodyTypeDynamic || rb.SleepState == Asleep {
		return 0
	}
	return SafeInverse(rb.Mass)
}

// Area is the sum of the shape areas.
func (rb *RigidBody) Area() float64 {
	area := 0.0
	for _, shape := range rb.Shapes {
		area += shape.Base().Area
	}
	return area
}

// Density is mass per unit area, 0 for bodies without area.
func (rb *RigidBody) Density() float64 {
	return rb.Mass * SafeInverse(rb.Area())
}

// ========== FORCES ==========

// ApplyForce adds a force at a point relative to the center of mass.
func (rb *RigidBody) ApplyForce(force, relativePoint mgl64.Vec2) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.Force = rb.Force.Add(force)
	rb.Torque += Cross(relativePoint, force)
}

// ApplyImpulse changes the velocity instantly, waking the body up.
func (rb *RigidBody) ApplyImpulse(impulse, relativePoint mgl64.Vec2) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.WakeUp()

	rb.Velocity[0] += impulse[0] * rb.InvMass[0]
	rb.Velocity[1] += impulse[1] * rb.InvMass[1]
	rb.AngularVelocity += Cross(relativePoint, impulse) * rb.InvInertia
}

// ClearForces resets the accumulated force and torque
func (rb *RigidBody) ClearForces() {
	rb.Force = mgl64.Vec2{}
	rb.Torque = 0
}

// ApplyDamping attenuates the velocities exponentially over h seconds.
func (rb *RigidBody) ApplyDamping(h float64) {
	if rb.BodyType != BodyTypeDynamic || rb.SleepState == Asleep {
		return
	}
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.LinearDamping * h))
	rb.AngularVelocity *= math.Exp(-rb.AngularDamping * h)
}

// ========== INTEGRATION ==========

// IntegrateVelocity applies the accumulated force and torque (semi-implicit Euler).
// It also records the previous transform used for interpolation and sweeping.
func (rb *RigidBody) IntegrateVelocity(h float64) {
	if rb.BodyType == BodyTypeStatic || rb.SleepState == Asleep {
		return
	}

	rb.previousPosition = rb.position
	rb.previousAngle = rb.angle

	rb.Velocity[0] += rb.Force[0] * rb.InvMass[0] * h
	rb.Velocity[1] += rb.Force[1] * rb.InvMass[1] * h
	rb.AngularVelocity += rb.Torque * rb.InvInertia * h
}

// IntegratePosition advances the transform with the current velocity over fraction*h seconds.
func (rb *RigidBody) IntegratePosition(h, fraction float64) {
	if rb.BodyType == BodyTypeStatic || rb.SleepState == Asleep {
		return
	}

	rb.position = rb.previousPosition.Add(rb.Velocity.Mul(h * fraction))
	if !rb.FixedRotation {
		rb.angle = rb.previousAngle + rb.AngularVelocity*h*fraction
	}
	rb.aabbDirty = true
}

// MoveTo places the body without touching the previous transform, used while probing.
func (rb *RigidBody) MoveTo(position mgl64.Vec2, angle float64) {
	rb.position = position
	rb.angle = angle
	rb.aabbDirty = true
}

// ========== SLEEP ==========

func (rb *RigidBody) SpeedSquared() float64 {
	return rb.Velocity.LenSqr() + rb.AngularVelocity*rb.AngularVelocity
}

func (rb *RigidBody) KineticEnergy() float64 {
	if rb.BodyType != BodyTypeDynamic {
		return 0
	}
	return 0.5*rb.Mass*rb.Velocity.LenSqr() + 0.5*rb.Inertia*rb.AngularVelocity*rb.AngularVelocity
}

// Sleep freezes the body: velocities, forces and inverse mass are zeroed.
func (rb *RigidBody) Sleep() {
	if rb.BodyType != BodyTypeDynamic {
		return
	}
	rb.SleepState = Asleep
	rb.IdleTime = 0
	rb.Velocity = mgl64.Vec2{}
	rb.AngularVelocity = 0
	rb.VLambda = mgl64.Vec2{}
	rb.WLambda = 0
	rb.ClearForces()
	rb.UpdateInvMass()
}

// WakeUp returns the body to the Awake state and restores its inverse mass.
func (rb *RigidBody) WakeUp() {
	wasAsleep := rb.SleepState == Asleep
	rb.SleepState = Awake
	rb.IdleTime = 0
	if wasAsleep {
		rb.UpdateInvMass()
	}
}

func (rb *RigidBody) IsSleeping() bool {
	return rb.SleepState == Asleep
}
