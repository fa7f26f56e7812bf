package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/narrowphase"
)

// ccdProbe holds the body under continuous collision test. The broadphase raycast calls
// visit for every candidate, the closest shape hit is kept.
type ccdProbe struct {
	world *World

	body     *actor.RigidBody
	ray      actor.Ray
	hit      *actor.RigidBody
	fraction float64
}

// integrate moves a fast body to its time of impact with the first body crossed by the
// path of its center. It reports false when the body is slow or nothing is crossed, the
// caller then integrates the full step.
func (p *ccdProbe) integrate(body *actor.RigidBody, h float64) bool {
	threshold := body.CCDSpeedThreshold
	if threshold < 0 || body.BodyType != actor.BodyTypeDynamic || len(body.Shapes) == 0 {
		return false
	}
	if body.Velocity.LenSqr() < threshold*threshold {
		return false
	}

	start := body.PreviousPosition()
	p.body = body
	p.ray = actor.Ray{From: start, To: start.Add(body.Velocity.Mul(h))}
	p.hit = nil
	p.fraction = 1
	p.world.Broadphase.Raycast(p.ray, p.world.ccdConsumer)

	hit := p.hit
	if hit == nil {
		p.body = nil
		return false
	}

	// Bisection between a safe fraction and an overlapping one
	startAngle := body.PreviousAngle()
	deltaAngle := body.AngularVelocity * h
	if body.FixedRotation {
		deltaAngle = 0
	}
	tmin, tmax := 0.0, p.fraction
	tmid := tmax
	for range body.CCDIterations {
		tmid = (tmin + tmax) / 2
		body.MoveTo(start.Add(body.Velocity.Mul(h*tmid)), startAngle+deltaAngle*tmid)
		if p.overlaps(hit) {
			tmax = tmid
		} else {
			tmin = tmid
		}
	}

	body.IntegratePosition(h, tmid)
	p.body, p.hit = nil, nil
	return true
}

func (p *ccdProbe) overlaps(other *actor.RigidBody) bool {
	return p.body.AABB().Overlaps(other.AABB()) &&
		p.world.Narrowphase.DetectCollision(p.body, other, true, nil)
}

// visit is the broadphase raycast consumer.
func (p *ccdProbe) visit(other *actor.RigidBody, maxFraction float64) float64 {
	if !p.accept(other) {
		return -1
	}

	closest := -1.0
	for _, shape := range other.Shapes {
		if !p.collides(shape.Base()) {
			continue
		}
		position, angle := other.ShapeWorldTransform(shape)
		hit, ok := narrowphase.RaycastShape(shape, position, angle, p.ray, true)
		if !ok || hit.Fraction >= maxFraction || (closest >= 0 && hit.Fraction >= closest) {
			continue
		}
		closest = hit.Fraction
	}
	if closest < 0 {
		return -1
	}

	p.hit = other
	p.fraction = closest
	// A zero fraction would stop the cast, the ray starts on the surface
	return max(closest, 1e-12)
}

// accept filters the bodies the probe may collide with.
func (p *ccdProbe) accept(other *actor.RigidBody) bool {
	if other == p.body || len(other.Shapes) == 0 {
		return false
	}
	return !p.world.Broadphase.IgnoredPairs().Contains(p.body, other)
}

// collides reports whether a shape of the probed body responds to the given shape.
func (p *ccdProbe) collides(other *actor.ShapeBase) bool {
	if other.Sensor || !other.CollisionResponse {
		return false
	}
	for _, shape := range p.body.Shapes {
		base := shape.Base()
		if !base.Sensor && base.CollisionResponse && base.CanCollideWith(other) {
			return true
		}
	}
	return false
}
