package constraint

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateMaterial = errors.New("contact material already registered")
	ErrMissingMaterial   = errors.New("contact material not registered")
)

const DefaultContactSkinSize = 0.005

// ContactMaterial describes how two materials interact when their shapes touch.
type ContactMaterial struct {
	MaterialA uint16
	MaterialB uint16

	Friction    float64
	Restitution float64

	Stiffness          float64
	Relaxation         float64
	FrictionStiffness  float64
	FrictionRelaxation float64

	// SurfaceVelocity drives the friction rows, positive along the tangent
	SurfaceVelocity float64
	ContactSkinSize float64
}

func DefaultContactMaterial() ContactMaterial {
	return ContactMaterial{
		Friction:           0.3,
		Restitution:        0,
		Stiffness:          DefaultStiffness,
		Relaxation:         DefaultRelaxation,
		FrictionStiffness:  DefaultStiffness,
		FrictionRelaxation: DefaultRelaxation,
		ContactSkinSize:    DefaultContactSkinSize,
	}
}

// withDefaults fills the unset SPOOK parameters, zero stiffness or relaxation being
// meaningless for a contact.
func (m ContactMaterial) withDefaults() ContactMaterial {
	if m.Stiffness == 0 {
		m.Stiffness = DefaultStiffness
	}
	if m.Relaxation == 0 {
		m.Relaxation = DefaultRelaxation
	}
	if m.FrictionStiffness == 0 {
		m.FrictionStiffness = DefaultStiffness
	}
	if m.FrictionRelaxation == 0 {
		m.FrictionRelaxation = DefaultRelaxation
	}
	return m
}

// MaterialKey packs two material ids into an order independent key.
func MaterialKey(a, b uint16) uint32 {
	if a > b {
		a, b = b, a
	}
	return uint32(a)<<16 | uint32(b)
}

// MaterialTable maps material pairs to their contact material.
type MaterialTable struct {
	// Default is returned by Lookup for unregistered pairs
	Default   ContactMaterial
	materials map[uint32]ContactMaterial
}

func NewMaterialTable() *MaterialTable {
	return &MaterialTable{
		Default:   DefaultContactMaterial(),
		materials: make(map[uint32]ContactMaterial),
	}
}

// Add registers the material of the pair (MaterialA, MaterialB).
func (t *MaterialTable) Add(material ContactMaterial) error {
	key := MaterialKey(material.MaterialA, material.MaterialB)
	if _, exists := t.materials[key]; exists {
		return fmt.Errorf("materials %d/%d: %w", material.MaterialA, material.MaterialB, ErrDuplicateMaterial)
	}
	t.materials[key] = material.withDefaults()
	return nil
}

// Set registers or replaces the material of the pair.
func (t *MaterialTable) Set(material ContactMaterial) {
	t.materials[MaterialKey(material.MaterialA, material.MaterialB)] = material.withDefaults()
}

func (t *MaterialTable) Remove(a, b uint16) {
	delete(t.materials, MaterialKey(a, b))
}

// Get returns the registered material of the pair.
func (t *MaterialTable) Get(a, b uint16) (ContactMaterial, error) {
	material, ok := t.materials[MaterialKey(a, b)]
	if !ok {
		return ContactMaterial{}, fmt.Errorf("materials %d/%d: %w", a, b, ErrMissingMaterial)
	}
	return material, nil
}

// Lookup returns the material of the pair, or the default one.
func (t *MaterialTable) Lookup(a, b uint16) ContactMaterial {
	if material, ok := t.materials[MaterialKey(a, b)]; ok {
		return material
	}
	return t.Default.withDefaults()
}

func (t *MaterialTable) Len() int {
	return len(t.materials)
}
