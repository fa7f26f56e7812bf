package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/narrowphase"
	"github.com/go-gl/mathgl/mgl64"
)

// RaycastOptions filters the shapes a ray can hit. Zero group and mask select the
// default collision group and mask.
type RaycastOptions struct {
	SkipBackFaces bool
	// SkipNonColliders ignores sensors and shapes without collision response
	SkipNonColliders bool
	// BailEarly returns the first hit found instead of the closest one
	BailEarly      bool
	CollisionGroup uint32
	CollisionMask  uint32
}

type RaycastResult struct {
	Body     *actor.RigidBody
	Shape    actor.Shape
	Fraction float64
	Normal   mgl64.Vec2
	Point    mgl64.Vec2
}

// raycastQuery is the state of one World.Raycast, visited by the broadphase.
type raycastQuery struct {
	ray     actor.Ray
	options RaycastOptions
	result  RaycastResult
	found   bool
}

// Raycast casts a segment from from to to and returns the closest shape hit.
func (w *World) Raycast(from, to mgl64.Vec2, options RaycastOptions) (RaycastResult, bool) {
	if options.CollisionGroup == 0 {
		options.CollisionGroup = actor.DefaultCollisionGroup
	}
	if options.CollisionMask == 0 {
		options.CollisionMask = actor.DefaultCollisionMask
	}

	q := &w.query
	q.ray = actor.Ray{From: from, To: to}
	q.options = options
	q.result = RaycastResult{Fraction: 1}
	q.found = false
	w.Broadphase.Raycast(q.ray, w.queryConsumer)

	result, found := q.result, q.found
	q.result = RaycastResult{}
	if !found {
		return RaycastResult{}, false
	}
	result.Point = q.ray.PointAt(result.Fraction)
	return result, true
}

func (q *raycastQuery) visit(body *actor.RigidBody, maxFraction float64) float64 {
	hitSomething := false
	for _, shape := range body.Shapes {
		base := shape.Base()
		if q.options.CollisionGroup&base.CollisionMask == 0 || base.CollisionGroup&q.options.CollisionMask == 0 {
			continue
		}
		if q.options.SkipNonColliders && (base.Sensor || !base.CollisionResponse) {
			continue
		}

		position, angle := body.ShapeWorldTransform(shape)
		hit, ok := narrowphase.RaycastShape(shape, position, angle, q.ray, q.options.SkipBackFaces)
		if !ok || hit.Fraction > maxFraction || (q.found && hit.Fraction >= q.result.Fraction) {
			continue
		}

		q.result = RaycastResult{Body: body, Shape: shape, Fraction: hit.Fraction, Normal: hit.Normal}
		q.found = true
		hitSomething = true
	}

	switch {
	case !hitSomething:
		return -1
	case q.options.BailEarly:
		return 0
	default:
		// A zero fraction would stop the cast, nothing can be closer anyway
		if q.result.Fraction == 0 {
			return 0
		}
		return q.result.Fraction
	}
}

// QueryAABB calls fn for every body whose bounds overlap aabb, until fn returns false.
func (w *World) QueryAABB(aabb actor.AABB, fn func(body *actor.RigidBody) bool) {
	w.Broadphase.QueryAABB(aabb, func(body *actor.RigidBody) bool {
		if !body.AABB().Overlaps(aabb) {
			return true
		}
		return fn(body)
	})
}
