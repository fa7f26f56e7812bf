package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// EmptyAABB returns an inverted, infinite box: the identity of Union.
// It never overlaps nor contains anything.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl64.Vec2{math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
	}
}

// IsEmpty reports whether the box is inverted.
func (a AABB) IsEmpty() bool {
	return a.Min.X() > a.Max.X() || a.Min.Y() > a.Max.Y()
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Contains checks if other lies entirely inside a.
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Min.Y() <= other.Min.Y() &&
		other.Max.X() <= a.Max.X() && other.Max.Y() <= a.Max.Y()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Union returns the smallest box enclosing a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(a.Min.X(), b.Min.X()), math.Min(a.Min.Y(), b.Min.Y())},
		Max: mgl64.Vec2{math.Max(a.Max.X(), b.Max.X()), math.Max(a.Max.Y(), b.Max.Y())},
	}
}

// ExtendPoint grows the box to include point.
func (a *AABB) ExtendPoint(point mgl64.Vec2) {
	a.Min[0] = math.Min(a.Min[0], point[0])
	a.Min[1] = math.Min(a.Min[1], point[1])
	a.Max[0] = math.Max(a.Max[0], point[0])
	a.Max[1] = math.Max(a.Max[1], point[1])
}

// Expand returns the box padded by margin on every side.
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec2{margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Sweep returns the box extruded along displacement.
func (a AABB) Sweep(displacement mgl64.Vec2) AABB {
	out := a
	for i := 0; i < 2; i++ {
		if displacement[i] < 0 {
			out.Min[i] += displacement[i]
		} else {
			out.Max[i] += displacement[i]
		}
	}
	return out
}

// Area returns width*height.
func (a AABB) Area() float64 {
	if a.IsEmpty() {
		return 0
	}
	return (a.Max.X() - a.Min.X()) * (a.Max.Y() - a.Min.Y())
}

// Perimeter is the 2D surface area heuristic used by the dynamic tree.
func (a AABB) Perimeter() float64 {
	if a.IsEmpty() {
		return 0
	}
	return 2 * ((a.Max.X() - a.Min.X()) + (a.Max.Y() - a.Min.Y()))
}

func (a AABB) Center() mgl64.Vec2 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the half size.
func (a AABB) Extents() mgl64.Vec2 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// OverlapsRay returns the entry fraction of the ray into the box, or -1 when it misses.
// A ray starting inside the box returns 0.
func (a AABB) OverlapsRay(ray Ray) float64 {
	d := ray.Direction()
	tmin, tmax := 0.0, 1.0
	for i := 0; i < 2; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if ray.From[i] < a.Min[i] || ray.From[i] > a.Max[i] {
				return -1
			}
			continue
		}
		inv := 1.0 / d[i]
		t1 := (a.Min[i] - ray.From[i]) * inv
		t2 := (a.Max[i] - ray.From[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return -1
		}
	}
	return tmin
}
