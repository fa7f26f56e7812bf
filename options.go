package feather2d

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/broadphase"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

const (
	DefaultFixedDeltaTime    = 1.0 / 60.0
	DefaultMaxSteps          = 4
	DefaultIdleTimeThreshold = 1.0
	DefaultSpeedThreshold    = 0.2
)

// BroadphaseKind selects the spatial index of a world.
type BroadphaseKind int

const (
	BroadphaseTree BroadphaseKind = iota
	BroadphaseBruteForce
	BroadphaseSweepAndPrune
	BroadphaseSpatialGrid
)

// Options configures a World. Start from DefaultOptions and override fields.
type Options struct {
	Gravity mgl64.Vec2

	// FixedDeltaTime is the duration of one physics step
	FixedDeltaTime float64
	// MaxSteps caps the steps run by one Execute call
	MaxSteps int

	Iterations int
	Tolerance  float64
	// UseIslands solves independent groups of bodies separately, spread over Workers
	UseIslands bool
	Workers    int

	EnableFriction bool
	FrictionMode   constraint.FrictionMode
	// FrictionGravity scales the friction slip force, zero uses the gravity magnitude
	FrictionGravity float64

	AllowSleep        bool
	IdleTimeThreshold float64
	SpeedThreshold    float64

	Broadphase BroadphaseKind
	// Padding and SweepFactor tune the dynamic tree
	Padding     float64
	SweepFactor float64
	// CellSize and NumCells tune the spatial grid
	CellSize float64
	NumCells int
}

func DefaultOptions() Options {
	return Options{
		Gravity:           mgl64.Vec2{0, -9.81},
		FixedDeltaTime:    DefaultFixedDeltaTime,
		MaxSteps:          DefaultMaxSteps,
		Iterations:        constraint.DefaultIterations,
		Tolerance:         constraint.DefaultTolerance,
		Workers:           DEFAULT_WORKERS,
		EnableFriction:    true,
		FrictionMode:      constraint.FrictionPerManifold,
		AllowSleep:        true,
		IdleTimeThreshold: DefaultIdleTimeThreshold,
		SpeedThreshold:    DefaultSpeedThreshold,
		Broadphase:        BroadphaseTree,
		Padding:           broadphase.DefaultTreePadding,
		SweepFactor:       broadphase.DefaultTreeSweepFactor,
		CellSize:          broadphase.DefaultCellSize,
		NumCells:          broadphase.DefaultNumCells,
	}
}

// Validate reports the first invalid field, wrapping ErrInvalidOptions.
func (o Options) Validate() error {
	switch {
	case !finite(o.Gravity.X()) || !finite(o.Gravity.Y()):
		return fmt.Errorf("gravity %v: %w", o.Gravity, ErrInvalidOptions)
	case !(o.FixedDeltaTime > 0) || !finite(o.FixedDeltaTime):
		return fmt.Errorf("fixed delta time %v: %w", o.FixedDeltaTime, ErrInvalidOptions)
	case o.MaxSteps < 1:
		return fmt.Errorf("max steps %d: %w", o.MaxSteps, ErrInvalidOptions)
	case o.Iterations < 1:
		return fmt.Errorf("solver iterations %d: %w", o.Iterations, ErrInvalidOptions)
	case o.Tolerance < 0:
		return fmt.Errorf("solver tolerance %v: %w", o.Tolerance, ErrInvalidOptions)
	case o.Workers < 0:
		return fmt.Errorf("workers %d: %w", o.Workers, ErrInvalidOptions)
	case o.FrictionGravity < 0:
		return fmt.Errorf("friction gravity %v: %w", o.FrictionGravity, ErrInvalidOptions)
	case o.FrictionMode != constraint.FrictionPerManifold && o.FrictionMode != constraint.FrictionPerContact:
		return fmt.Errorf("friction mode %d: %w", o.FrictionMode, ErrInvalidOptions)
	case o.IdleTimeThreshold < 0 || o.SpeedThreshold < 0:
		return fmt.Errorf("sleep thresholds %v/%v: %w", o.IdleTimeThreshold, o.SpeedThreshold, ErrInvalidOptions)
	case o.Padding < 0 || o.SweepFactor < 0:
		return fmt.Errorf("tree padding %v, sweep factor %v: %w", o.Padding, o.SweepFactor, ErrInvalidOptions)
	}

	switch o.Broadphase {
	case BroadphaseTree, BroadphaseBruteForce, BroadphaseSweepAndPrune:
	case BroadphaseSpatialGrid:
		if !(o.CellSize > 0) || o.NumCells < 1 {
			return fmt.Errorf("grid cell size %v, %d cells: %w", o.CellSize, o.NumCells, ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("broadphase %d: %w", o.Broadphase, ErrInvalidOptions)
	}
	return nil
}

func (o Options) newBroadphase() broadphase.Broadphase {
	switch o.Broadphase {
	case BroadphaseBruteForce:
		return broadphase.NewBruteForce()
	case BroadphaseSweepAndPrune:
		return broadphase.NewSweepAndPrune()
	case BroadphaseSpatialGrid:
		return broadphase.NewSpatialGrid(o.CellSize, o.NumCells)
	default:
		tree := broadphase.NewDynamicTree()
		tree.Padding = o.Padding
		tree.SweepFactor = o.SweepFactor
		return tree
	}
}

func (o Options) frictionGravity() float64 {
	if o.FrictionGravity > 0 {
		return o.FrictionGravity
	}
	if g := o.Gravity.Len(); g > 0 {
		return g
	}
	return constraint.DefaultFrictionGravity
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
