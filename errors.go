package feather2d

import (
	"errors"

	"github.com/akmonengine/feather2d/constraint"
)

var (
	ErrInvalidOptions     = errors.New("invalid world options")
	ErrDuplicateBody      = errors.New("body already added to a world")
	ErrBodyNotFound       = errors.New("body not found in the world")
	ErrInvalidMass        = errors.New("dynamic body needs a positive finite mass")
	ErrNilConstraint      = errors.New("nil constraint")
	ErrConstraintNotFound = errors.New("constraint not found in the world")

	ErrDuplicateMaterial = constraint.ErrDuplicateMaterial
	ErrMissingMaterial   = constraint.ErrMissingMaterial
)
