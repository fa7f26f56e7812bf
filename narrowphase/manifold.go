package narrowphase

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints is the most contact points a single shape pair can produce.
const MaxManifoldPoints = 2

// ContactPoint stores the contact on each body as an offset from the body center.
type ContactPoint struct {
	RA    mgl64.Vec2
	RB    mgl64.Vec2
	Depth float64
}

// ContactManifold is the contact data of one shape pair. It is reused across detections
// and must not be retained by consumers.
type ContactManifold struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	ShapeA actor.Shape
	ShapeB actor.Shape

	// Normal points from A to B
	Normal mgl64.Vec2
	Points [MaxManifoldPoints]ContactPoint
	Count  int

	// Sensor manifolds only report an overlap, they carry no points
	Sensor bool
}

func (m *ContactManifold) Reset() {
	*m = ContactManifold{}
}

// WorldPointA returns the i-th contact point on the surface of A.
func (m *ContactManifold) WorldPointA(i int) mgl64.Vec2 {
	return m.BodyA.Position().Add(m.Points[i].RA)
}

// WorldPointB returns the i-th contact point on the surface of B.
func (m *ContactManifold) WorldPointB(i int) mgl64.Vec2 {
	return m.BodyB.Position().Add(m.Points[i].RB)
}

// ManifoldConsumer receives every manifold with at least one point, or every sensor overlap.
type ManifoldConsumer func(m *ContactManifold)
