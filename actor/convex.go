package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Convex is a convex polygon. Vertices are stored counter clockwise in local space.
type Convex struct {
	ShapeBase
	Vertices []mgl64.Vec2
	// Normals[i] is the outward normal of the edge Vertices[i] -> Vertices[i+1]
	Normals []mgl64.Vec2
	// Triangles index Vertices, computed once at construction
	Triangles [][3]int
	// CenterOfMass is refreshed by ComputeArea
	CenterOfMass mgl64.Vec2
}

// NewConvex builds a polygon from vertices. When ccw is false the winding is reversed.
func NewConvex(vertices []mgl64.Vec2, ccw bool, options ShapeOptions) (*Convex, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("convex with %d vertices: %w", len(vertices), ErrDegenerateShape)
	}

	c := &Convex{ShapeBase: newShapeBase(options)}
	c.Vertices = make([]mgl64.Vec2, len(vertices))
	if ccw {
		copy(c.Vertices, vertices)
	} else {
		for i, v := range vertices {
			c.Vertices[len(vertices)-1-i] = v
		}
	}
	c.UpdateGeometry()
	c.RecalculateStaticProperties()

	return c, nil
}

func (c *Convex) Type() ShapeType { return ShapeTypeConvex }

// UpdateGeometry recomputes the edge normals and the triangulation from Vertices.
func (c *Convex) UpdateGeometry() {
	n := len(c.Vertices)
	c.Normals = c.Normals[:0]
	for i := 0; i < n; i++ {
		edge := c.Vertices[(i+1)%n].Sub(c.Vertices[i])
		c.Normals = append(c.Normals, SafeNormalize(mgl64.Vec2{edge.Y(), -edge.X()}))
	}
	c.Triangles = triangulate(c.Vertices)
}

// ComputeArea sums the triangles and stores the local centroid as a side effect.
func (c *Convex) ComputeArea() float64 {
	area := 0.0
	centroid := mgl64.Vec2{}
	for _, tri := range c.Triangles {
		a, b, d := c.Vertices[tri[0]], c.Vertices[tri[1]], c.Vertices[tri[2]]
		triArea := Cross(b.Sub(a), d.Sub(a)) / 2.0
		area += triArea
		centroid = centroid.Add(a.Add(b).Add(d).Mul(triArea / 3.0))
	}
	if area != 0 {
		c.CenterOfMass = centroid.Mul(1.0 / area)
	}
	return area
}

// ComputeMomentOfInertia returns the polar moment per unit mass about the shape origin.
func (c *Convex) ComputeMomentOfInertia() float64 {
	denom, numer := 0.0, 0.0
	n := len(c.Vertices)
	for j, i := n-1, 0; i < n; j, i = i, i+1 {
		p0, p1 := c.Vertices[j], c.Vertices[i]
		a := math.Abs(Cross(p0, p1))
		b := p1.Dot(p1) + p1.Dot(p0) + p0.Dot(p0)
		denom += a
		numer += a * b
	}
	if denom == 0 {
		return 0
	}
	return numer / (6.0 * denom)
}

func (c *Convex) ComputeBoundingRadius() float64 {
	r2 := 0.0
	for _, v := range c.Vertices {
		r2 = math.Max(r2, v.LenSqr())
	}
	return math.Sqrt(r2)
}

func (c *Convex) ComputeAABB(out *AABB, position mgl64.Vec2, angle float64) {
	*out = EmptyAABB()
	for _, v := range c.Vertices {
		out.ExtendPoint(ToWorldFrame(v, position, angle))
	}
}

func (c *Convex) Support(direction mgl64.Vec2) mgl64.Vec2 {
	best := 0
	bestDot := math.Inf(-1)
	for i, v := range c.Vertices {
		if d := v.Dot(direction); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return c.Vertices[best]
}

func (c *Convex) RecalculateStaticProperties() {
	c.recalculate(c)
}

// WorldVertices writes the vertices and normals placed at position/angle into the given slices.
func (c *Convex) WorldVertices(position mgl64.Vec2, angle float64, vertices, normals []mgl64.Vec2) ([]mgl64.Vec2, []mgl64.Vec2) {
	vertices, normals = vertices[:0], normals[:0]
	for i, v := range c.Vertices {
		vertices = append(vertices, ToWorldFrame(v, position, angle))
		normals = append(normals, Rotate(c.Normals[i], angle))
	}
	return vertices, normals
}

// triangulate clips ears off the polygon. An ear is a convex corner whose triangle
// contains no other remaining vertex.
func triangulate(vertices []mgl64.Vec2) [][3]int {
	n := len(vertices)
	if n < 3 {
		return nil
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	triangles := make([][3]int, 0, n-2)
	for len(remaining) > 3 {
		clipped := false
		for k := range remaining {
			prev := remaining[(k+len(remaining)-1)%len(remaining)]
			cur := remaining[k]
			next := remaining[(k+1)%len(remaining)]

			a, b, d := vertices[prev], vertices[cur], vertices[next]
			if Cross(b.Sub(a), d.Sub(b)) < 0 {
				continue // reflex corner
			}

			ear := true
			for _, other := range remaining {
				if other == prev || other == cur || other == next {
					continue
				}
				if pointInTriangle(vertices[other], a, b, d) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}

			triangles = append(triangles, [3]int{prev, cur, next})
			remaining = append(remaining[:k], remaining[k+1:]...)
			clipped = true
			break
		}

		// Degenerate input, fall back to a fan over what is left
		if !clipped {
			for k := 1; k < len(remaining)-1; k++ {
				triangles = append(triangles, [3]int{remaining[0], remaining[k], remaining[k+1]})
			}
			return triangles
		}
	}

	return append(triangles, [3]int{remaining[0], remaining[1], remaining[2]})
}

// pointInTriangle is a strict barycentric hit test, points on an edge are outside.
func pointInTriangle(p, a, b, c mgl64.Vec2) bool {
	d1 := Cross(b.Sub(a), p.Sub(a))
	d2 := Cross(c.Sub(b), p.Sub(b))
	d3 := Cross(a.Sub(c), p.Sub(c))
	return d1 > 0 && d2 > 0 && d3 > 0
}
