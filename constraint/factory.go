package constraint

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/narrowphase"
	"github.com/go-gl/mathgl/mgl64"
)

const DefaultFrictionGravity = 10.0

// EquationFactory turns contact manifolds into pooled contact and friction equations.
// The equations of a step are only valid until the next Reset.
type EquationFactory struct {
	Materials *MaterialTable

	EnableFriction bool
	FrictionMode   FrictionMode
	// FrictionGravity scales the slip force estimate, usually the gravity magnitude
	FrictionGravity float64

	ContactEquations  []*ContactEquation
	FrictionEquations []*FrictionEquation

	contacts  *Pool[ContactEquation]
	frictions *Pool[FrictionEquation]

	// Body pairs in contact during the previous and the current step
	previous map[uint64]struct{}
	current  map[uint64]struct{}
}

func NewEquationFactory(materials *MaterialTable) *EquationFactory {
	if materials == nil {
		materials = NewMaterialTable()
	}
	return &EquationFactory{
		Materials:       materials,
		EnableFriction:  true,
		FrictionMode:    FrictionPerManifold,
		FrictionGravity: DefaultFrictionGravity,
		contacts:        NewPool[ContactEquation](nil),
		frictions: NewPool(func(f *FrictionEquation) {
			f.ContactEquations = f.ContactEquations[:0]
		}),
		previous: make(map[uint64]struct{}),
		current:  make(map[uint64]struct{}),
	}
}

// Reset recycles the equations of the previous step and rolls the contact history.
func (f *EquationFactory) Reset() {
	f.contacts.RecycleAll()
	f.frictions.RecycleAll()
	clear(f.ContactEquations)
	clear(f.FrictionEquations)
	f.ContactEquations = f.ContactEquations[:0]
	f.FrictionEquations = f.FrictionEquations[:0]

	f.previous, f.current = f.current, f.previous
	clear(f.current)
}

// WasTouching reports whether the bodies were in contact during the previous step.
func (f *EquationFactory) WasTouching(a, b *actor.RigidBody) bool {
	_, ok := f.previous[actor.PairKey(a, b)]
	return ok
}

// Forget drops a body from the contact history, after its removal from the world.
func (f *EquationFactory) Forget(body *actor.RigidBody) {
	for key := range f.previous {
		if a, b := actor.UnpackIDs(key); a == body.ID || b == body.ID {
			delete(f.previous, key)
		}
	}
	for key := range f.current {
		if a, b := actor.UnpackIDs(key); a == body.ID || b == body.ID {
			delete(f.current, key)
		}
	}
}

// LiveContact reports whether the equation belongs to the current step.
func (f *EquationFactory) LiveContact(c *ContactEquation) bool {
	return f.contacts.Live(c)
}

// AddManifold creates the equations of one manifold. Sensor manifolds and shapes without
// collision response produce nothing.
func (f *EquationFactory) AddManifold(m *narrowphase.ContactManifold) {
	if m.Sensor || m.Count == 0 {
		return
	}
	baseA, baseB := m.ShapeA.Base(), m.ShapeB.Base()
	if !baseA.CollisionResponse || !baseB.CollisionResponse {
		return
	}

	material := f.Materials.Lookup(baseA.Material, baseB.Material)
	key := actor.PairKey(m.BodyA, m.BodyB)
	_, touching := f.previous[key]
	f.current[key] = struct{}{}

	first := len(f.ContactEquations)
	for i := 0; i < m.Count; i++ {
		point := m.Points[i]

		c := f.contacts.Acquire()
		c.Init(m.BodyA, m.BodyB)
		c.ShapeA, c.ShapeB = m.ShapeA, m.ShapeB
		c.ContactPointA = point.RA
		c.ContactPointB = point.RB
		c.Normal = m.Normal
		c.Restitution = material.Restitution
		c.FirstImpact = !touching
		c.Offset = material.ContactSkinSize
		c.Stiffness = material.Stiffness
		c.Relaxation = material.Relaxation

		f.ContactEquations = append(f.ContactEquations, c)
	}

	if f.EnableFriction && material.Friction > 0 {
		f.addFriction(m, material, f.ContactEquations[first:])
	}
}

// slipForce estimates the largest friction force of a pair as μ·m·g, with m the reduced
// mass of the two bodies.
func (f *EquationFactory) slipForce(bodyA, bodyB *actor.RigidBody, coefficient float64) float64 {
	reducedMass := actor.SafeInverse(bodyA.InverseMass() + bodyB.InverseMass())
	return coefficient * reducedMass * f.FrictionGravity
}

func (f *EquationFactory) addFriction(m *narrowphase.ContactManifold, material ContactMaterial, contacts []*ContactEquation) {
	slipForce := f.slipForce(m.BodyA, m.BodyB, material.Friction)

	switch f.FrictionMode {
	case FrictionPerContact:
		// The manifold shares the slip force between its points
		share := 1.0 / float64(len(contacts))
		for _, c := range contacts {
			eq := f.newFriction(m, material, slipForce*share)
			eq.SlipShare = share
			eq.ContactPointA = c.ContactPointA
			eq.ContactPointB = c.ContactPointB
			eq.Tangent = actor.Perp(c.Normal)
			eq.ContactEquations = append(eq.ContactEquations, c)
		}
	default:
		eq := f.newFriction(m, material, slipForce)
		var pointA, pointB, normal mgl64.Vec2
		for _, c := range contacts {
			pointA = pointA.Add(c.ContactPointA)
			pointB = pointB.Add(c.ContactPointB)
			normal = normal.Add(c.Normal)
			eq.ContactEquations = append(eq.ContactEquations, c)
		}
		inv := 1.0 / float64(len(contacts))
		eq.ContactPointA = pointA.Mul(inv)
		eq.ContactPointB = pointB.Mul(inv)
		eq.Tangent = actor.Perp(actor.SafeNormalize(normal))
	}
}

func (f *EquationFactory) newFriction(m *narrowphase.ContactManifold, material ContactMaterial, slipForce float64) *FrictionEquation {
	eq := f.frictions.Acquire()
	eq.Init(m.BodyA, m.BodyB, slipForce)
	eq.ShapeA, eq.ShapeB = m.ShapeA, m.ShapeB
	eq.FrictionCoefficient = material.Friction
	eq.RelativeVelocity = material.SurfaceVelocity
	eq.Stiffness = material.FrictionStiffness
	eq.Relaxation = material.FrictionRelaxation
	eq.SlipShare = 1

	f.FrictionEquations = append(f.FrictionEquations, eq)
	return eq
}

// UpdateSlipForces recomputes the friction bounds from the current masses of the bodies.
// It must run after bodies woken by their contacts regain their mass.
func (f *EquationFactory) UpdateSlipForces() {
	for _, eq := range f.FrictionEquations {
		eq.SetSlipForce(f.slipForce(eq.BodyA, eq.BodyB, eq.FrictionCoefficient) * eq.SlipShare)
	}
}
