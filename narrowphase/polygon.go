package narrowphase

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	linearSlop = 0.005
	// separations within this tolerance are a tie, broken by the canonical pair order
	referenceTolerance = 0.1 * linearSlop
)

// polygon is a world space convex outline with an optional rounding radius.
// A line is a two sided polygon of two vertices.
type polygon struct {
	vertices []mgl64.Vec2
	normals  []mgl64.Vec2
	radius   float64
}

func (n *Narrowphase) polygonOf(p gjk.Placed, out *polygon) {
	switch s := p.Shape.(type) {
	case *actor.Box:
		out.vertices, out.normals = s.WorldVertices(p.Position, p.Angle, out.vertices, out.normals)
		out.radius = 0
	case *actor.Convex:
		out.vertices, out.normals = s.WorldVertices(p.Position, p.Angle, out.vertices, out.normals)
		out.radius = 0
	case *actor.Line:
		v1, v2 := s.Endpoints(p.Position, p.Angle)
		edge := actor.SafeNormalize(v2.Sub(v1))
		normal := mgl64.Vec2{edge.Y(), -edge.X()}
		out.vertices = append(out.vertices[:0], v1, v2)
		out.normals = append(out.normals[:0], normal, normal.Mul(-1))
		out.radius = s.Radius
	default:
		out.vertices, out.normals = out.vertices[:0], out.normals[:0]
		out.radius = 0
	}
}

func (p *polygon) next(i int) int {
	if i+1 == len(p.vertices) {
		return 0
	}
	return i + 1
}

// findMaxSeparation returns the edge of poly1 whose normal best separates poly2.
func findMaxSeparation(poly1, poly2 *polygon) (int, float64) {
	bestIndex := 0
	maxSeparation := math.Inf(-1)
	for i, n := range poly1.normals {
		v1 := poly1.vertices[i]
		si := math.Inf(1)
		for _, v2 := range poly2.vertices {
			si = math.Min(si, n.Dot(v2.Sub(v1)))
		}
		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// convexConvex runs the two pass separating axis test, then clips the incident edge
// against the side planes of the reference edge.
func convexConvex(n *Narrowphase, a, b gjk.Placed) {
	n.polygonOf(a, &n.polyA)
	n.polygonOf(b, &n.polyB)
	polyA, polyB := &n.polyA, &n.polyB
	if len(polyA.vertices) < 2 || len(polyB.vertices) < 2 {
		return
	}

	totalRadius := polyA.radius + polyB.radius
	edgeA, separationA := findMaxSeparation(polyA, polyB)
	edgeB, separationB := findMaxSeparation(polyB, polyA)
	separation := math.Max(separationA, separationB)
	if separation >= totalRadius {
		return
	}

	// Rounded cores apart: the closest features may be two vertices
	if separation > referenceTolerance {
		if vertexVertex(n, polyA, polyB, edgeA, edgeB) {
			return
		}
	}

	var flip bool
	switch {
	case separationB > separationA+referenceTolerance:
		flip = true
	case separationA > separationB+referenceTolerance:
		flip = false
	default:
		flip = !n.firstLeads()
	}
	if flip {
		clipPolygons(n, polyB, polyA, edgeB, true)
	} else {
		clipPolygons(n, polyA, polyB, edgeA, false)
	}

	// Collinear rounded segments meet end to end, past the side planes
	if n.manifold.Count == 0 && totalRadius > 0 {
		vertexVertex(n, polyA, polyB, edgeA, edgeB)
	}
}

// vertexVertex handles the rounded shapes whose closest edges meet at vertices.
// It returns false when the edges overlap and clipping must run instead.
func vertexVertex(n *Narrowphase, polyA, polyB *polygon, edgeA, edgeB int) bool {
	v11, v12 := polyA.vertices[edgeA], polyA.vertices[polyA.next(edgeA)]
	v21, v22 := polyB.vertices[edgeB], polyB.vertices[polyB.next(edgeB)]

	result := segmentDistance(v11, v12, v21, v22)
	atVertex1 := result.fraction1 == 0 || result.fraction1 == 1
	atVertex2 := result.fraction2 == 0 || result.fraction2 == 1
	if !atVertex1 || !atVertex2 {
		return false
	}

	totalRadius := polyA.radius + polyB.radius
	distance := math.Sqrt(result.distanceSquared)
	if distance >= totalRadius || distance == 0 {
		return true
	}

	normal := result.closest2.Sub(result.closest1).Mul(1.0 / distance)
	n.register(normal,
		result.closest1.Add(normal.Mul(polyA.radius)),
		result.closest2.Sub(normal.Mul(polyB.radius)),
		totalRadius-distance)
	return true
}

// clipPolygons clips the incident edge of inc against the reference edge of ref. When
// flip is set ref is the second shape of the pair and the normal is reversed on output.
func clipPolygons(n *Narrowphase, ref, inc *polygon, edge int, flip bool) {
	normal := ref.normals[edge]
	v11, v12 := ref.vertices[edge], ref.vertices[ref.next(edge)]

	// Incident edge: the most anti-parallel to the reference normal
	incident := 0
	minDot := math.Inf(1)
	for i, incNormal := range inc.normals {
		if d := normal.Dot(incNormal); d < minDot {
			minDot = d
			incident = i
		}
	}
	incidentEdge := [2]mgl64.Vec2{inc.vertices[incident], inc.vertices[inc.next(incident)]}

	tangent := actor.SafeNormalize(v12.Sub(v11))
	clipped, count := clipSegmentToLine(incidentEdge, tangent.Mul(-1), -tangent.Dot(v11))
	if count < 2 {
		return
	}
	clipped, count = clipSegmentToLine(clipped, tangent, tangent.Dot(v12))
	if count < 2 {
		return
	}

	totalRadius := ref.radius + inc.radius
	for _, v := range clipped {
		s := normal.Dot(v.Sub(v11))
		if s >= totalRadius {
			continue
		}
		onRef := v.Sub(normal.Mul(s)).Add(normal.Mul(ref.radius))
		onInc := v.Sub(normal.Mul(inc.radius))
		if flip {
			n.register(normal.Mul(-1), onInc, onRef, totalRadius-s)
		} else {
			n.register(normal, onRef, onInc, totalRadius-s)
		}
	}
}

// clipSegmentToLine keeps the part of the segment behind the plane dot(normal, x) = offset.
func clipSegmentToLine(in [2]mgl64.Vec2, normal mgl64.Vec2, offset float64) ([2]mgl64.Vec2, int) {
	var out [2]mgl64.Vec2
	count := 0

	d0 := normal.Dot(in[0]) - offset
	d1 := normal.Dot(in[1]) - offset

	if d0 <= 0 {
		out[count] = in[0]
		count++
	}
	if d1 <= 0 {
		out[count] = in[1]
		count++
	}
	if d0*d1 < 0 && count < 2 {
		interp := d0 / (d0 - d1)
		out[count] = in[0].Add(in[1].Sub(in[0]).Mul(interp))
		count++
	}
	return out, count
}

type segmentDistanceResult struct {
	closest1        mgl64.Vec2
	closest2        mgl64.Vec2
	fraction1       float64
	fraction2       float64
	distanceSquared float64
}

// segmentDistance computes the closest points between segments p1-q1 and p2-q2.
func segmentDistance(p1, q1, p2, q2 mgl64.Vec2) segmentDistanceResult {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	dd1 := d1.Dot(d1)
	dd2 := d2.Dot(d2)
	rd1 := r.Dot(d1)
	rd2 := r.Dot(d2)

	const epsSqr = 1e-24
	var f1, f2 float64

	switch {
	case dd1 < epsSqr || dd2 < epsSqr:
		if dd1 >= epsSqr {
			f1 = clamp01(-rd1 / dd1)
		} else if dd2 >= epsSqr {
			f2 = clamp01(rd2 / dd2)
		}
	default:
		d12 := d1.Dot(d2)
		denom := dd1*dd2 - d12*d12
		if denom != 0 {
			f1 = clamp01((d12*rd2 - rd1*dd2) / denom)
		}
		f2 = (d12*f1 + rd2) / dd2
		if f2 < 0 {
			f2 = 0
			f1 = clamp01(-rd1 / dd1)
		} else if f2 > 1 {
			f2 = 1
			f1 = clamp01((d12 - rd1) / dd1)
		}
	}

	closest1 := p1.Add(d1.Mul(f1))
	closest2 := p2.Add(d2.Mul(f2))
	return segmentDistanceResult{
		closest1:        closest1,
		closest2:        closest2,
		fraction1:       f1,
		fraction2:       f2,
		distanceSquared: closest2.Sub(closest1).LenSqr(),
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
