package narrowphase

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// Helpers
// =============================================================================

func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func vec2Equal(a, b mgl64.Vec2, eps float64) bool {
	return floatEqual(a.X(), b.X(), eps) && floatEqual(a.Y(), b.Y(), eps)
}

func bodyAt(position mgl64.Vec2, angle float64, shapes ...actor.Shape) *actor.RigidBody {
	body := actor.NewRigidBody(actor.BodyTypeDynamic, 1, shapes...)
	body.SetPosition(position)
	body.SetAngle(angle)
	return body
}

type result struct {
	collided bool
	normal   mgl64.Vec2
	points   []ContactPoint
}

func detect(a, b *actor.RigidBody) result {
	n := New()
	var r result
	r.collided = n.DetectCollision(a, b, false, func(m *ContactManifold) {
		r.normal = m.Normal
		r.points = append(r.points, m.Points[:m.Count]...)
	})
	return r
}

func mustConvex(t *testing.T, vertices []mgl64.Vec2) *actor.Convex {
	t.Helper()
	c, err := actor.NewConvex(vertices, true, actor.ShapeOptions{})
	if err != nil {
		t.Fatalf("NewConvex: %v", err)
	}
	return c
}

// =============================================================================
// Scenarios
// =============================================================================

func TestCircleCircle(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     int
	}{
		{"separated", 2.5, 0},
		{"touching", 2, 0},
		{"overlapping", 1.9, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewCircle(1, actor.ShapeOptions{}))
			b := bodyAt(mgl64.Vec2{tt.distance, 0}, 0, actor.NewCircle(1, actor.ShapeOptions{}))

			r := detect(a, b)
			if len(r.points) != tt.want || r.collided != (tt.want > 0) {
				t.Fatalf("got %d points (collided %v), want %d", len(r.points), r.collided, tt.want)
			}
			if tt.want == 0 {
				return
			}
			if !vec2Equal(r.normal, mgl64.Vec2{1, 0}, 1e-12) {
				t.Errorf("normal = %v, want (1,0) from A to B", r.normal)
			}
			if !floatEqual(r.points[0].Depth, 0.1, 1e-12) {
				t.Errorf("depth = %v, want 0.1", r.points[0].Depth)
			}
			if !vec2Equal(r.points[0].RA, mgl64.Vec2{1, 0}, 1e-12) || !vec2Equal(r.points[0].RB, mgl64.Vec2{-1, 0}, 1e-12) {
				t.Errorf("RA/RB = %v/%v", r.points[0].RA, r.points[0].RB)
			}
		})
	}
}

func TestBoxBox(t *testing.T) {
	a := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}))
	b := bodyAt(mgl64.Vec2{1.5, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}))

	r := detect(a, b)
	if len(r.points) != 2 {
		t.Fatalf("got %d points, want 2", len(r.points))
	}
	if !vec2Equal(r.normal, mgl64.Vec2{1, 0}, 1e-12) {
		t.Errorf("normal = %v, want (1,0)", r.normal)
	}
	for i, p := range r.points {
		if !floatEqual(p.Depth, 0.5, 1e-12) {
			t.Errorf("point %d depth = %v, want 0.5", i, p.Depth)
		}
		// On the shared vertical edge band: A's face at x=1, B's face at x=0.5
		if !floatEqual(p.RA.X(), 1, 1e-12) || !floatEqual(p.RB.X(), -1, 1e-12) {
			t.Errorf("point %d RA/RB = %v/%v", i, p.RA, p.RB)
		}
		if !floatEqual(math.Abs(p.RA.Y()), 1, 1e-12) {
			t.Errorf("point %d RA.Y = %v, want ±1", i, p.RA.Y())
		}
	}
}

func TestCircleLine(t *testing.T) {
	tests := []struct {
		name      string
		center    mgl64.Vec2
		wantDepth float64
		wantNorm  mgl64.Vec2
	}{
		{"flat part", mgl64.Vec2{0.5, 0.5}, 0.5, mgl64.Vec2{0, -1}},
		{"below", mgl64.Vec2{-1, -0.75}, 0.25, mgl64.Vec2{0, 1}},
		{"end cap", mgl64.Vec2{2.3, 0.4}, 0.5, mgl64.Vec2{-0.6, -0.8}},
		{"beyond cap", mgl64.Vec2{3.1, 0}, 0, mgl64.Vec2{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circle := bodyAt(tt.center, 0, actor.NewCircle(1, actor.ShapeOptions{}))
			line := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewLine(4, actor.ShapeOptions{}))

			r := detect(circle, line)
			if tt.wantDepth == 0 {
				if r.collided {
					t.Errorf("unexpected contact %+v", r)
				}
				return
			}
			if len(r.points) != 1 {
				t.Fatalf("got %d points, want 1", len(r.points))
			}
			if !floatEqual(r.points[0].Depth, tt.wantDepth, 1e-9) {
				t.Errorf("depth = %v, want %v", r.points[0].Depth, tt.wantDepth)
			}
			if !vec2Equal(r.normal, tt.wantNorm, 1e-9) {
				t.Errorf("normal = %v, want %v", r.normal, tt.wantNorm)
			}
		})
	}
}

func TestCircleBox(t *testing.T) {
	tests := []struct {
		name      string
		center    mgl64.Vec2
		radius    float64
		wantDepth float64
		wantNorm  mgl64.Vec2
	}{
		{"face", mgl64.Vec2{0, 1.3}, 0.5, 0.2, mgl64.Vec2{0, -1}},
		{"vertex", mgl64.Vec2{1.3, 1.3}, 0.5, 0.5 - 0.3*math.Sqrt2, mgl64.Vec2{-math.Sqrt2 / 2, -math.Sqrt2 / 2}},
		{"inside", mgl64.Vec2{0.5, 0}, 0.25, 0.75, mgl64.Vec2{-1, 0}},
		{"vertex out of reach", mgl64.Vec2{1.4, 1.4}, 0.5, 0, mgl64.Vec2{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circle := bodyAt(tt.center, 0, actor.NewCircle(tt.radius, actor.ShapeOptions{}))
			box := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}))

			r := detect(circle, box)
			if tt.wantDepth == 0 {
				if r.collided {
					t.Errorf("unexpected contact %+v", r)
				}
				return
			}
			if len(r.points) != 1 {
				t.Fatalf("got %d points, want 1", len(r.points))
			}
			if !floatEqual(r.points[0].Depth, tt.wantDepth, 1e-9) {
				t.Errorf("depth = %v, want %v", r.points[0].Depth, tt.wantDepth)
			}
			if !vec2Equal(r.normal, tt.wantNorm, 1e-9) {
				t.Errorf("normal = %v, want %v", r.normal, tt.wantNorm)
			}
		})
	}
}

func TestParticle(t *testing.T) {
	box := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}))

	inside := bodyAt(mgl64.Vec2{0.5, 0}, 0, actor.NewParticle(actor.ShapeOptions{}))
	r := detect(inside, box)
	if len(r.points) != 1 || !floatEqual(r.points[0].Depth, 0.5, 1e-12) {
		t.Errorf("particle inside box: %+v", r)
	}

	outside := bodyAt(mgl64.Vec2{1.5, 0}, 0, actor.NewParticle(actor.ShapeOptions{}))
	if detect(outside, box).collided {
		t.Error("particle outside box reported a contact")
	}

	other := bodyAt(mgl64.Vec2{0.5, 0}, 0, actor.NewParticle(actor.ShapeOptions{}))
	if detect(inside, other).collided {
		t.Error("particles never collide with each other")
	}
}

func TestLineBox(t *testing.T) {
	ground := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewLine(10, actor.ShapeOptions{}))
	box := bodyAt(mgl64.Vec2{0, 0.9}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}))

	r := detect(ground, box)
	if len(r.points) != 2 {
		t.Fatalf("got %d points, want 2", len(r.points))
	}
	if !vec2Equal(r.normal, mgl64.Vec2{0, 1}, 1e-12) {
		t.Errorf("normal = %v, want (0,1)", r.normal)
	}
	for _, p := range r.points {
		if !floatEqual(p.Depth, 0.1, 1e-12) {
			t.Errorf("depth = %v, want 0.1", p.Depth)
		}
	}

	reversed := detect(box, ground)
	if !vec2Equal(reversed.normal, mgl64.Vec2{0, -1}, 1e-12) {
		t.Errorf("reversed normal = %v, want (0,-1)", reversed.normal)
	}
}

func TestRoundedLinesVertexVertex(t *testing.T) {
	lineA := actor.NewLine(2, actor.ShapeOptions{})
	lineA.Radius = 0.5
	lineA.RecalculateStaticProperties()
	lineB := actor.NewLine(2, actor.ShapeOptions{})
	lineB.Radius = 0.5
	lineB.RecalculateStaticProperties()

	// End to end, cores 0.8 apart
	a := bodyAt(mgl64.Vec2{0, 0}, 0, lineA)
	b := bodyAt(mgl64.Vec2{2.8, 0}, 0, lineB)

	r := detect(a, b)
	if len(r.points) != 1 {
		t.Fatalf("got %d points, want 1", len(r.points))
	}
	if !floatEqual(r.points[0].Depth, 0.2, 1e-9) {
		t.Errorf("depth = %v, want 0.2", r.points[0].Depth)
	}
	if !vec2Equal(r.normal, mgl64.Vec2{1, 0}, 1e-9) {
		t.Errorf("normal = %v, want (1,0)", r.normal)
	}
}

// =============================================================================
// Filtering and modes
// =============================================================================

func TestCollisionGroups(t *testing.T) {
	a := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewCircle(1, actor.ShapeOptions{CollisionGroup: 2, CollisionMask: 2}))
	b := bodyAt(mgl64.Vec2{1, 0}, 0, actor.NewCircle(1, actor.ShapeOptions{CollisionGroup: 4, CollisionMask: 0xFF}))

	if detect(a, b).collided || detect(b, a).collided {
		t.Error("groups must pass the masks both ways")
	}
}

func TestSensor(t *testing.T) {
	sensor := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewCircle(1, actor.ShapeOptions{Sensor: true}))
	b := bodyAt(mgl64.Vec2{1, 0}, 0, actor.NewBox(1, 1, actor.ShapeOptions{}))

	n := New()
	calls := 0
	collided := n.DetectCollision(sensor, b, false, func(m *ContactManifold) {
		calls++
		if !m.Sensor || m.Count != 0 {
			t.Errorf("sensor manifold = %+v", m)
		}
	})
	if !collided || calls != 1 {
		t.Errorf("collided = %v, calls = %d", collided, calls)
	}

	b.SetPosition(mgl64.Vec2{3, 0})
	if n.DetectCollision(sensor, b, false, nil) {
		t.Error("separated sensor reported an overlap")
	}
}

func TestBailEarly(t *testing.T) {
	a := bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{}), actor.NewCircle(1, actor.ShapeOptions{Position: mgl64.Vec2{0, 3}}))
	b := bodyAt(mgl64.Vec2{1.5, 0}, 0.3, actor.NewBox(2, 2, actor.ShapeOptions{}))

	calls := 0
	if !New().DetectCollision(a, b, true, func(*ContactManifold) { calls++ }) {
		t.Error("bailEarly missed the overlap")
	}
	if calls != 0 {
		t.Errorf("bailEarly called the consumer %d times", calls)
	}

	b.SetPosition(mgl64.Vec2{10, 0})
	if New().DetectCollision(a, b, true, nil) {
		t.Error("bailEarly reported separated bodies")
	}
}

func TestMultiShapeBody(t *testing.T) {
	a := bodyAt(mgl64.Vec2{0, 0}, 0,
		actor.NewCircle(0.5, actor.ShapeOptions{Position: mgl64.Vec2{-1, 0}}),
		actor.NewCircle(0.5, actor.ShapeOptions{Position: mgl64.Vec2{1, 0}}))
	b := bodyAt(mgl64.Vec2{0, 0.3}, 0, actor.NewLine(4, actor.ShapeOptions{}))

	manifolds := 0
	New().DetectCollision(a, b, false, func(m *ContactManifold) {
		manifolds++
		if !vec2Equal(m.Normal, mgl64.Vec2{0, 1}, 1e-12) {
			t.Errorf("normal = %v, want (0,1)", m.Normal)
		}
		if !floatEqual(m.WorldPointA(0).Y(), 0.5, 1e-12) {
			t.Errorf("world point on A = %v", m.WorldPointA(0))
		}
	})
	if manifolds != 2 {
		t.Errorf("manifolds = %d, want 2", manifolds)
	}
}

// =============================================================================
// Symmetry
// =============================================================================

func randomShape(t *testing.T, rng *rand.Rand) actor.Shape {
	switch rng.Intn(5) {
	case 0:
		return actor.NewParticle(actor.ShapeOptions{})
	case 1:
		return actor.NewCircle(0.3+rng.Float64(), actor.ShapeOptions{})
	case 2:
		return actor.NewLine(0.5+rng.Float64()*2, actor.ShapeOptions{})
	case 3:
		return actor.NewBox(0.5+rng.Float64()*2, 0.5+rng.Float64()*2, actor.ShapeOptions{})
	default:
		return mustConvex(t, []mgl64.Vec2{{-1, -0.5}, {1, -0.7}, {1.2, 0.4}, {0, 1}, {-0.9, 0.6}})
	}
}

func TestDetectCollision_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	collisions := 0

	for i := 0; i < 500; i++ {
		a := bodyAt(mgl64.Vec2{rng.Float64()*2 - 1, rng.Float64()*2 - 1}, rng.Float64()*6, randomShape(t, rng))
		b := bodyAt(mgl64.Vec2{rng.Float64()*2 - 1, rng.Float64()*2 - 1}, rng.Float64()*6, randomShape(t, rng))
		a.ID, b.ID = 1, 2

		ab := detect(a, b)
		ba := detect(b, a)
		if ab.collided != ba.collided {
			t.Fatalf("case %d (%v/%v): collided %v vs %v", i, a.Shapes[0].Type(), b.Shapes[0].Type(), ab.collided, ba.collided)
		}
		if !ab.collided {
			continue
		}
		collisions++
		if !vec2Equal(ab.normal, ba.normal.Mul(-1), 1e-9) {
			t.Errorf("case %d (%v/%v): normals %v and %v are not opposite",
				i, a.Shapes[0].Type(), b.Shapes[0].Type(), ab.normal, ba.normal)
		}
	}

	if collisions == 0 {
		t.Fatal("random scenes produced no collision")
	}
}

// Pairs whose two separating axes tie within the reference tolerance, or whose
// geometry gives no preferred direction. swapped is the normal of a against b once
// b has the lower ID.
func TestDetectCollision_SymmetricTies(t *testing.T) {
	tests := []struct {
		name    string
		a, b    func() *actor.RigidBody
		normal  mgl64.Vec2
		swapped mgl64.Vec2
	}{
		{
			name:    "aligned boxes",
			a:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{})) },
			b:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{1.5, 0.3}, 0, actor.NewBox(2, 2, actor.ShapeOptions{})) },
			normal:  mgl64.Vec2{1, 0},
			swapped: mgl64.Vec2{1, 0},
		},
		{
			name:    "boxes almost aligned",
			a:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{0, 0}, 0, actor.NewBox(2, 2, actor.ShapeOptions{})) },
			b:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{1.5, 0.3}, 0.0004, actor.NewBox(2, 2, actor.ShapeOptions{})) },
			normal:  mgl64.Vec2{1, 0},
			swapped: mgl64.Vec2{math.Cos(0.0004), math.Sin(0.0004)},
		},
		{
			name:    "coincident circles",
			a:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{1, 1}, 0, actor.NewCircle(0.5, actor.ShapeOptions{})) },
			b:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{1, 1}, 0, actor.NewCircle(0.7, actor.ShapeOptions{})) },
			normal:  mgl64.Vec2{1, 0},
			swapped: mgl64.Vec2{-1, 0},
		},
		{
			name:    "particle at the circle center",
			a:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{0, 2}, 0, actor.NewCircle(1, actor.ShapeOptions{})) },
			b:       func() *actor.RigidBody { return bodyAt(mgl64.Vec2{0, 2}, 0, actor.NewParticle(actor.ShapeOptions{})) },
			normal:  mgl64.Vec2{1, 0},
			swapped: mgl64.Vec2{-1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.a(), tt.b()
			a.ID, b.ID = 1, 2

			ab := detect(a, b)
			ba := detect(b, a)
			if !ab.collided || !ba.collided {
				t.Fatalf("collided %v vs %v, want both", ab.collided, ba.collided)
			}
			if !vec2Equal(ab.normal, tt.normal, 1e-6) {
				t.Errorf("normal = %v, want %v from the lower ID", ab.normal, tt.normal)
			}
			if !vec2Equal(ab.normal, ba.normal.Mul(-1), 1e-12) {
				t.Errorf("normals %v and %v are not opposite", ab.normal, ba.normal)
			}
			if len(ab.points) != len(ba.points) {
				t.Errorf("points %d vs %d", len(ab.points), len(ba.points))
			}

			// The tie now follows b
			a.ID, b.ID = 2, 1
			if swapped := detect(a, b); !vec2Equal(swapped.normal, tt.swapped, 1e-9) {
				t.Errorf("normal with swapped IDs = %v, want %v", swapped.normal, tt.swapped)
			}
		})
	}
}

func BenchmarkDetectCollision_BoxBox(b *testing.B) {
	a := bodyAt(mgl64.Vec2{0, 0}, 0.1, actor.NewBox(2, 2, actor.ShapeOptions{}))
	c := bodyAt(mgl64.Vec2{1.5, 0.2}, 0.4, actor.NewBox(2, 2, actor.ShapeOptions{}))
	n := New()

	for i := 0; i < b.N; i++ {
		n.DetectCollision(a, c, false, func(*ContactManifold) {})
	}
}
