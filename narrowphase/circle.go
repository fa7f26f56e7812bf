package narrowphase

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// circleCircle also handles particles, as circles of radius 0.
func circleCircle(n *Narrowphase, a, b gjk.Placed) {
	rA, rB := radiusOf(a.Shape), radiusOf(b.Shape)
	delta := b.Position.Sub(a.Position)
	distance := delta.Len()
	radiusSum := rA + rB
	if distance >= radiusSum {
		return
	}

	normal := actor.SafeNormalize(delta)
	if distance == 0 {
		// Coincident centers: push along x, away from the leading shape
		normal = mgl64.Vec2{1, 0}
		if !n.firstLeads() {
			normal = normal.Mul(-1)
		}
	}
	n.register(normal, a.Position.Add(normal.Mul(rA)), b.Position.Sub(normal.Mul(rB)), radiusSum-distance)
}

// circleLine works in the frame of the segment: x along it, y across. The center either
// faces the flat part of the segment or one of its two rounded end caps.
func circleLine(n *Narrowphase, a, b gjk.Placed) {
	line := b.Shape.(*actor.Line)
	rA := radiusOf(a.Shape)
	radiusSum := rA + line.Radius

	local := actor.ToLocalFrame(a.Position, b.Position, b.Angle)
	halfLength := line.Length / 2.0

	// Closest point of the segment, in local space
	closest := mgl64.Vec2{math.Max(-halfLength, math.Min(halfLength, local.X())), 0}
	delta := local.Sub(closest)
	distance := delta.Len()
	if distance >= radiusSum {
		return
	}

	var localNormal mgl64.Vec2
	switch {
	case distance > 0:
		// From the segment towards the center
		localNormal = delta.Mul(1.0 / distance)
	default:
		localNormal = mgl64.Vec2{0, 1}
	}

	// The contact normal points from the circle to the segment
	normal := actor.Rotate(localNormal, b.Angle).Mul(-1)
	pointOnLine := actor.ToWorldFrame(closest, b.Position, b.Angle).Sub(normal.Mul(line.Radius))
	pointOnCircle := a.Position.Add(normal.Mul(rA))
	n.register(normal, pointOnCircle, pointOnLine, radiusSum-distance)
}

// circleConvex finds the polygon edge of maximum separation from the center, then tests
// the Voronoi region of that edge: inside the polygon, facing the edge, or past one of
// its vertices.
func circleConvex(n *Narrowphase, a, b gjk.Placed) {
	n.polygonOf(b, &n.polyB)
	poly := &n.polyB
	center := a.Position
	rA := radiusOf(a.Shape)

	normalIndex := 0
	separation := math.Inf(-1)
	for i, v := range poly.vertices {
		s := poly.normals[i].Dot(center.Sub(v))
		if s > separation {
			separation = s
			normalIndex = i
		}
	}
	if separation >= rA {
		return
	}

	v1 := poly.vertices[normalIndex]
	v2 := poly.vertices[(normalIndex+1)%len(poly.vertices)]
	faceNormal := poly.normals[normalIndex]

	// Center inside the polygon
	if separation <= 0 {
		normal := faceNormal.Mul(-1)
		n.register(normal, center.Add(normal.Mul(rA)), center.Sub(faceNormal.Mul(separation)), rA-separation)
		return
	}

	u1 := center.Sub(v1).Dot(v2.Sub(v1))
	u2 := center.Sub(v2).Dot(v1.Sub(v2))
	switch {
	case u1 <= 0:
		circleVertex(n, center, rA, v1)
	case u2 <= 0:
		circleVertex(n, center, rA, v2)
	default:
		normal := faceNormal.Mul(-1)
		n.register(normal, center.Add(normal.Mul(rA)), center.Sub(faceNormal.Mul(separation)), rA-separation)
	}
}

func circleVertex(n *Narrowphase, center mgl64.Vec2, radius float64, vertex mgl64.Vec2) {
	delta := vertex.Sub(center)
	distance := delta.Len()
	if distance >= radius {
		return
	}
	normal := actor.SafeNormalize(delta)
	n.register(normal, center.Add(normal.Mul(radius)), vertex, radius-distance)
}
