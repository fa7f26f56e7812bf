// Package narrowphase computes the exact contacts between the shapes of two bodies.
package narrowphase

import (
	"cmp"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// detector computes the contacts of a shape pair given in ascending type order.
// It registers its points through Narrowphase.register.
type detector func(n *Narrowphase, a, b gjk.Placed)

// detectors is indexed by the union of the two shape type tags.
var detectors [32]detector

func init() {
	p, c, l, b, cv := actor.ShapeTypeParticle, actor.ShapeTypeCircle, actor.ShapeTypeLine, actor.ShapeTypeBox, actor.ShapeTypeConvex

	detectors[c] = circleCircle
	detectors[p|c] = circleCircle
	detectors[p|l] = circleLine
	detectors[c|l] = circleLine
	detectors[p|b] = circleConvex
	detectors[c|b] = circleConvex
	detectors[p|cv] = circleConvex
	detectors[c|cv] = circleConvex
	detectors[l] = convexConvex
	detectors[l|b] = convexConvex
	detectors[l|cv] = convexConvex
	detectors[b] = convexConvex
	detectors[b|cv] = convexConvex
	detectors[cv] = convexConvex
}

// Narrowphase runs the shape pair detectors. It owns a single reusable manifold and
// scratch polygons, one instance must not be shared between goroutines.
type Narrowphase struct {
	manifold ContactManifold
	swapped  bool

	polyA polygon
	polyB polygon
}

func New() *Narrowphase {
	return &Narrowphase{}
}

// DetectCollision tests every shape of bodyA against every shape of bodyB.
// Each shape pair in contact is handed to the consumer (which may be nil). With bailEarly
// the test stops at the first overlapping pair without computing contact points.
// It reports whether any shape pair collided.
func (n *Narrowphase) DetectCollision(bodyA, bodyB *actor.RigidBody, bailEarly bool, consumer ManifoldConsumer) bool {
	collided := false

	for _, shapeA := range bodyA.Shapes {
		baseA := shapeA.Base()
		posA, angleA := bodyA.ShapeWorldTransform(shapeA)

		for _, shapeB := range bodyB.Shapes {
			baseB := shapeB.Base()
			if !baseA.CanCollideWith(baseB) {
				continue
			}

			posB, angleB := bodyB.ShapeWorldTransform(shapeB)
			if posB.Sub(posA).Len() >= baseA.BoundingRadius+baseB.BoundingRadius {
				continue
			}

			a := gjk.Placed{Shape: shapeA, Position: posA, Angle: angleA}
			b := gjk.Placed{Shape: shapeB, Position: posB, Angle: angleB}

			if bailEarly || baseA.Sensor || baseB.Sensor {
				if !gjk.Intersect(a, b) {
					continue
				}
				collided = true
				if bailEarly {
					return true
				}
				n.begin(bodyA, bodyB, shapeA, shapeB, false)
				n.manifold.Sensor = true
				if consumer != nil {
					consumer(&n.manifold)
				}
				continue
			}

			if n.detect(bodyA, bodyB, a, b) {
				collided = true
				if consumer != nil {
					consumer(&n.manifold)
				}
			}
		}
	}

	return collided
}

// detect dispatches a shape pair, swapping it into ascending type order when needed.
func (n *Narrowphase) detect(bodyA, bodyB *actor.RigidBody, a, b gjk.Placed) bool {
	typeA, typeB := a.Shape.Type(), b.Shape.Type()
	fn := detectors[typeA|typeB]
	if fn == nil {
		return false
	}

	n.begin(bodyA, bodyB, a.Shape, b.Shape, typeA > typeB)
	if n.swapped {
		a, b = b, a
	}
	fn(n, a, b)

	return n.manifold.Count > 0
}

func (n *Narrowphase) begin(bodyA, bodyB *actor.RigidBody, shapeA, shapeB actor.Shape, swapped bool) {
	n.manifold.Reset()
	n.manifold.BodyA = bodyA
	n.manifold.BodyB = bodyB
	n.manifold.ShapeA = shapeA
	n.manifold.ShapeB = shapeB
	n.swapped = swapped
}

// register stores one contact given in the detector order: normal from the first shape
// to the second, pointA on the first shape surface, pointB on the second one.
func (n *Narrowphase) register(normal, pointA, pointB mgl64.Vec2, depth float64) {
	m := &n.manifold
	if m.Count == MaxManifoldPoints {
		return
	}
	if n.swapped {
		normal = normal.Mul(-1)
		pointA, pointB = pointB, pointA
	}
	m.Normal = normal
	m.Points[m.Count] = ContactPoint{
		RA:    pointA.Sub(m.BodyA.Position()),
		RB:    pointB.Sub(m.BodyB.Position()),
		Depth: depth,
	}
	m.Count++
}

// firstLeads reports whether the first shape of the detector order comes first in the
// canonical pair order: lower body ID, then lower shape index. Detectors break their
// geometric ties with it so that swapping the bodies only flips the normal.
// Shapes with the same key, as bodies outside a world, keep the detector order.
func (n *Narrowphase) firstLeads() bool {
	m := &n.manifold
	order := compareShapes(m.BodyA, m.ShapeA, m.BodyB, m.ShapeB)
	if order == 0 {
		return true
	}
	if n.swapped {
		return order > 0
	}
	return order < 0
}

func compareShapes(bodyA *actor.RigidBody, shapeA actor.Shape, bodyB *actor.RigidBody, shapeB actor.Shape) int {
	if bodyA.ID != bodyB.ID {
		return cmp.Compare(bodyA.ID, bodyB.ID)
	}
	return cmp.Compare(shapeIndex(bodyA, shapeA), shapeIndex(bodyB, shapeB))
}

func shapeIndex(body *actor.RigidBody, shape actor.Shape) int {
	for i, s := range body.Shapes {
		if s == shape {
			return i
		}
	}
	return -1
}

// radiusOf returns the radius of the round shapes, 0 for particles.
func radiusOf(shape actor.Shape) float64 {
	if c, ok := shape.(*actor.Circle); ok {
		return c.Radius
	}
	return 0
}
