package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABBOverlaps(t *testing.T) {
	unit := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"separated on x", AABB{Min: mgl64.Vec2{2, 0}, Max: mgl64.Vec2{3, 1}}, false},
		{"separated on y", AABB{Min: mgl64.Vec2{0, -3}, Max: mgl64.Vec2{1, -2}}, false},
		{"touching edge", AABB{Min: mgl64.Vec2{1, 0}, Max: mgl64.Vec2{2, 1}}, true},
		{"contained", AABB{Min: mgl64.Vec2{0.25, 0.25}, Max: mgl64.Vec2{0.5, 0.5}}, true},
		{"empty", EmptyAABB(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBUnionAndContains(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}
	b := AABB{Min: mgl64.Vec2{2, -1}, Max: mgl64.Vec2{3, 0.5}}
	u := a.Union(b)

	if u.Min != (mgl64.Vec2{0, -1}) || u.Max != (mgl64.Vec2{3, 1}) {
		t.Errorf("Union = %+v", u)
	}
	if !u.Contains(a) || !u.Contains(b) || a.Contains(u) {
		t.Error("Contains mismatch")
	}
	if EmptyAABB().Union(a) != a {
		t.Error("EmptyAABB is not the union identity")
	}
}

func TestAABBSweep(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}
	swept := a.Sweep(mgl64.Vec2{-2, 3})
	if swept.Min != (mgl64.Vec2{-2, 0}) || swept.Max != (mgl64.Vec2{1, 4}) {
		t.Errorf("Sweep = %+v", swept)
	}
}

func TestAABBPerimeter(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{2, 3}}
	if a.Perimeter() != 10 || a.Area() != 6 {
		t.Errorf("Perimeter/Area = %v/%v", a.Perimeter(), a.Area())
	}
	if EmptyAABB().Perimeter() != 0 {
		t.Error("empty perimeter should be 0")
	}
}

func TestAABBOverlapsRay(t *testing.T) {
	box := AABB{Min: mgl64.Vec2{1, -1}, Max: mgl64.Vec2{2, 1}}

	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"hit", Ray{From: mgl64.Vec2{0, 0}, To: mgl64.Vec2{4, 0}}, 0.25},
		{"miss", Ray{From: mgl64.Vec2{0, 2}, To: mgl64.Vec2{4, 2}}, -1},
		{"short", Ray{From: mgl64.Vec2{0, 0}, To: mgl64.Vec2{0.5, 0}}, -1},
		{"inside", Ray{From: mgl64.Vec2{1.5, 0}, To: mgl64.Vec2{4, 0}}, 0},
		{"vertical", Ray{From: mgl64.Vec2{1.5, 5}, To: mgl64.Vec2{1.5, -5}}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.OverlapsRay(tt.ray); !floatEqual(got, tt.want, 1e-12) {
				t.Errorf("OverlapsRay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeNormalize(t *testing.T) {
	if SafeNormalize(mgl64.Vec2{}) != (mgl64.Vec2{}) {
		t.Error("zero vector should normalize to zero, not NaN")
	}
	if n := SafeNormalize(mgl64.Vec2{3, 4}); !vec2Equal(n, mgl64.Vec2{0.6, 0.8}, 1e-12) {
		t.Errorf("SafeNormalize = %v", n)
	}
	if SafeInverse(0) != 0 {
		t.Error("SafeInverse(0) should be 0")
	}
}
