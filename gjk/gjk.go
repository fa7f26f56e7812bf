// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for 2D overlap tests.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, a point, a segment
// then a triangle, converging toward the origin in a few iterations.
//
// Only the boolean answer is computed. Exact contact points come from the dedicated
// detectors of the narrowphase package.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const maxIterations = 32

// Simplex represents a set of 1-3 points in the Minkowski difference space.
// Size progression: 1 point → 2 points (segment) → 3 points (triangle)
type Simplex struct {
	Points [3]mgl64.Vec2
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// Placed is a shape at a world position and angle.
type Placed struct {
	Shape    actor.Shape
	Position mgl64.Vec2
	Angle    float64
}

// Support returns the furthest world point of the placed shape along a world direction.
func (p Placed) Support(direction mgl64.Vec2) mgl64.Vec2 {
	local := p.Shape.Support(actor.Rotate(direction, -p.Angle))
	return actor.ToWorldFrame(local, p.Position, p.Angle)
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a, b Placed, direction mgl64.Vec2) mgl64.Vec2 {
	return a.Support(direction).Sub(b.Support(direction.Mul(-1)))
}

// Intersect reports whether the two placed shapes overlap. Shapes that only touch are
// reported as separated.
func Intersect(a, b Placed) bool {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)
	simplex.Reset()

	return GJK(a, b, simplex)
}

// GJK performs the overlap test, the simplex is modified in place.
func GJK(a, b Placed, simplex *Simplex) bool {
	// Starting toward the other shape typically reduces iterations
	direction := b.Position.Sub(a.Position)
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec2{1, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		// The first support point sits on the origin: the shapes may only touch.
		direction = actor.Perp(b.Position.Sub(a.Position))
		if direction.LenSqr() < 1e-16 {
			direction = mgl64.Vec2{0, 1}
		}
	}

	for i := 0; i < maxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin, the origin cannot be enclosed
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin keeps the feature of the simplex closest to the origin and updates the
// search direction. Only a triangle can contain the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec2) bool {
	switch simplex.Count {
	case 2:
		line(simplex, direction)
		return false
	case 3:
		return triangle(simplex, direction)
	}
	return false
}

// towards returns the perpendicular of edge pointing to the side of target.
func towards(edge, target mgl64.Vec2) mgl64.Vec2 {
	perp := actor.Perp(edge)
	if perp.Dot(target) < 0 {
		return perp.Mul(-1)
	}
	return perp
}

// line handles the segment simplex (A the newest point, B the oldest).
func line(simplex *Simplex, direction *mgl64.Vec2) {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	// Degenerate segment, or origin behind A: keep A alone
	if ab.LenSqr() < 1e-12 || ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return
	}

	// When the origin lies on the segment line, any side is searched next
	*direction = towards(ab, ao)
}

// triangle handles the triangle simplex (A the newest point).
func triangle(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	// Collinear points: fall back to the AB segment
	if cross := actor.Cross(ab, ac); cross*cross < 1e-20 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		line(simplex, direction)
		return false
	}

	// Region AB, away from C
	abPerp := towards(ab, ac).Mul(-1)
	if abPerp.Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = abPerp
		return false
	}

	// Region AC, away from B
	acPerp := towards(ac, ab).Mul(-1)
	if acPerp.Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = acPerp
		return false
	}

	return true
}
