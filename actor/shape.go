package actor

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType is a bit tag identifying the concrete shape. Tags are powers of two so
// that the union of two tags identifies an unordered shape pair.
type ShapeType uint8

const (
	ShapeTypeParticle ShapeType = 1 << iota
	ShapeTypeCircle
	ShapeTypeLine
	ShapeTypeBox
	ShapeTypeConvex
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeParticle:
		return "particle"
	case ShapeTypeCircle:
		return "circle"
	case ShapeTypeLine:
		return "line"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeConvex:
		return "convex"
	}
	return "unknown"
}

const (
	DefaultCollisionGroup uint32 = 1
	DefaultCollisionMask  uint32 = 0xFFFFFFFF
)

var ErrDegenerateShape = errors.New("degenerate shape")

// Shape is the interface that all collision shapes must implement.
//
// The cached values in ShapeBase (Inertia, Area, BoundingRadius) are only refreshed by
// RecalculateStaticProperties. Mutating the geometry or the local offset of a shape
// without calling it leaves the caches stale, and the owning body must recompute its
// own mass properties afterwards.
//
// Shape inertia is per unit mass: a body of mass m owns m·Σ(Inertia + |offset|²)
// over its shapes, which equals the plain sum only for a unit mass.
type Shape interface {
	Type() ShapeType
	Base() *ShapeBase
	// ComputeMomentOfInertia returns the moment of inertia per unit mass about the shape origin
	ComputeMomentOfInertia() float64
	ComputeBoundingRadius() float64
	ComputeArea() float64
	// ComputeAABB calculates the world bounding box of the shape placed at position/angle
	ComputeAABB(out *AABB, position mgl64.Vec2, angle float64)
	// Support returns the furthest local point along a local direction
	Support(direction mgl64.Vec2) mgl64.Vec2
	RecalculateStaticProperties()
}

// ShapeOptions configures a shape at construction. Zero group and mask select the defaults.
type ShapeOptions struct {
	Position        mgl64.Vec2
	Angle           float64
	CollisionGroup  uint32
	CollisionMask   uint32
	Material        uint16
	Sensor          bool
	DisableResponse bool
}

// ShapeBase holds the state shared by every shape variant.
type ShapeBase struct {
	// Offset and rotation relative to the owning body
	Position mgl64.Vec2
	Angle    float64

	CollisionGroup uint32
	CollisionMask  uint32
	Material       uint16
	// Sensor shapes report overlaps but never produce contact equations
	Sensor bool
	// CollisionResponse false keeps contact events but skips the solver
	CollisionResponse bool

	Inertia        float64
	Area           float64
	BoundingRadius float64

	body *RigidBody
}

func newShapeBase(options ShapeOptions) ShapeBase {
	base := ShapeBase{
		Position:          options.Position,
		Angle:             options.Angle,
		CollisionGroup:    options.CollisionGroup,
		CollisionMask:     options.CollisionMask,
		Material:          options.Material,
		Sensor:            options.Sensor,
		CollisionResponse: !options.DisableResponse,
	}
	if base.CollisionGroup == 0 {
		base.CollisionGroup = DefaultCollisionGroup
	}
	if base.CollisionMask == 0 {
		base.CollisionMask = DefaultCollisionMask
	}
	return base
}

func (s *ShapeBase) Base() *ShapeBase {
	return s
}

// Body returns the owning body, nil while the shape is detached.
func (s *ShapeBase) Body() *RigidBody {
	return s.body
}

// CanCollideWith checks the group/mask filter in both directions.
func (s *ShapeBase) CanCollideWith(other *ShapeBase) bool {
	return s.CollisionGroup&other.CollisionMask != 0 && other.CollisionGroup&s.CollisionMask != 0
}

func (s *ShapeBase) recalculate(shape Shape) {
	s.Inertia = shape.ComputeMomentOfInertia()
	s.BoundingRadius = shape.ComputeBoundingRadius()
	s.Area = shape.ComputeArea()
}
