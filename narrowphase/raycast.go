package narrowphase

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RayHit is the first intersection of a ray with a shape.
type RayHit struct {
	Fraction float64
	Normal   mgl64.Vec2
}

// RaycastShape intersects the ray with a shape placed at position/angle.
// Back faces are the faces whose normal points along the ray. Lines are two sided and
// particles are never hit.
func RaycastShape(shape actor.Shape, position mgl64.Vec2, angle float64, ray actor.Ray, skipBackFaces bool) (RayHit, bool) {
	switch s := shape.(type) {
	case *actor.Circle:
		return raycastCircle(s, position, ray, skipBackFaces)
	case *actor.Line:
		v1, v2 := s.Endpoints(position, angle)
		return raycastLine(v1, v2, ray)
	case *actor.Box:
		return raycastConvex(&s.Convex, position, angle, ray, skipBackFaces)
	case *actor.Convex:
		return raycastConvex(s, position, angle, ray, skipBackFaces)
	}
	return RayHit{}, false
}

func raycastCircle(c *actor.Circle, center mgl64.Vec2, ray actor.Ray, skipBackFaces bool) (RayHit, bool) {
	d := ray.Direction()
	f := ray.From.Sub(center)

	a := d.Dot(d)
	if a == 0 {
		return RayHit{}, false
	}
	b := 2 * f.Dot(d)
	cc := f.Dot(f) - c.Radius*c.Radius
	discriminant := b*b - 4*a*cc
	if discriminant < 0 {
		return RayHit{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	for i, t := range [2]float64{(-b - sqrtD) / (2 * a), (-b + sqrtD) / (2 * a)} {
		if t < 0 || t > 1 {
			continue
		}
		if i == 1 && skipBackFaces {
			break
		}
		normal := actor.SafeNormalize(ray.PointAt(t).Sub(center))
		return RayHit{Fraction: t, Normal: normal}, true
	}
	return RayHit{}, false
}

// raycastLine intersects the ray with the segment v1-v2. The normal faces the ray.
func raycastLine(v1, v2 mgl64.Vec2, ray actor.Ray) (RayHit, bool) {
	t, ok := intersectSegment(ray, v1, v2)
	if !ok {
		return RayHit{}, false
	}
	edge := v2.Sub(v1)
	normal := actor.SafeNormalize(mgl64.Vec2{edge.Y(), -edge.X()})
	if normal.Dot(ray.Direction()) > 0 {
		normal = normal.Mul(-1)
	}
	return RayHit{Fraction: t, Normal: normal}, true
}

func raycastConvex(c *actor.Convex, position mgl64.Vec2, angle float64, ray actor.Ray, skipBackFaces bool) (RayHit, bool) {
	best := RayHit{Fraction: math.Inf(1)}
	found := false
	n := len(c.Vertices)
	d := ray.Direction()

	for i := 0; i < n; i++ {
		normal := actor.Rotate(c.Normals[i], angle)
		if skipBackFaces && normal.Dot(d) > 0 {
			continue
		}
		v1 := actor.ToWorldFrame(c.Vertices[i], position, angle)
		v2 := actor.ToWorldFrame(c.Vertices[(i+1)%n], position, angle)
		t, ok := intersectSegment(ray, v1, v2)
		if ok && t < best.Fraction {
			best = RayHit{Fraction: t, Normal: normal}
			found = true
		}
	}
	return best, found
}

// intersectSegment returns the ray fraction where it crosses the segment v1-v2.
// Parallel segments never intersect.
func intersectSegment(ray actor.Ray, v1, v2 mgl64.Vec2) (float64, bool) {
	r := ray.Direction()
	s := v2.Sub(v1)
	denom := actor.Cross(r, s)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	qp := v1.Sub(ray.From)
	t := actor.Cross(qp, s) / denom
	u := actor.Cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
