package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ForceGenerator applies forces to bodies at the start of every step.
type ForceGenerator interface {
	ApplyForce(h float64)
}

// ConstantForce pushes a body with a fixed world force at a local point, plus a torque.
type ConstantForce struct {
	Body       *actor.RigidBody
	Force      mgl64.Vec2
	LocalPoint mgl64.Vec2
	Torque     float64
}

func (f *ConstantForce) ApplyForce(h float64) {
	if f.Body.IsSleeping() {
		return
	}
	f.Body.ApplyForce(f.Force, actor.Rotate(f.LocalPoint, f.Body.Angle()))
	if f.Body.BodyType == actor.BodyTypeDynamic {
		f.Body.Torque += f.Torque
	}
}

// SpringForce is a damped linear spring between two local anchors.
type SpringForce struct {
	BodyA        *actor.RigidBody
	BodyB        *actor.RigidBody
	LocalAnchorA mgl64.Vec2
	LocalAnchorB mgl64.Vec2

	RestLength float64
	Stiffness  float64
	Damping    float64
}

// NewSpringForce creates a spring at rest in the current configuration of the bodies.
func NewSpringForce(bodyA, bodyB *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, stiffness, damping float64) *SpringForce {
	s := &SpringForce{
		BodyA:        bodyA,
		BodyB:        bodyB,
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		Stiffness:    stiffness,
		Damping:      damping,
	}
	s.RestLength = s.Length()
	return s
}

// Length is the current distance between the world anchors.
func (s *SpringForce) Length() float64 {
	return s.BodyB.ToWorldFrame(s.LocalAnchorB).Sub(s.BodyA.ToWorldFrame(s.LocalAnchorA)).Len()
}

func (s *SpringForce) ApplyForce(h float64) {
	a, b := s.BodyA, s.BodyB
	if a.IsSleeping() && b.IsSleeping() {
		return
	}

	ra := actor.Rotate(s.LocalAnchorA, a.Angle())
	rb := actor.Rotate(s.LocalAnchorB, b.Angle())
	d := b.Position().Add(rb).Sub(a.Position().Add(ra))
	length := d.Len()
	n := actor.SafeNormalize(d)

	// relative velocity of the anchors
	va := a.Velocity.Add(actor.CrossSV(a.AngularVelocity, ra))
	vb := b.Velocity.Add(actor.CrossSV(b.AngularVelocity, rb))
	rate := vb.Sub(va).Dot(n)

	f := n.Mul(-s.Stiffness*(length-s.RestLength) - s.Damping*rate)
	b.ApplyForce(f, rb)
	a.ApplyForce(f.Mul(-1), ra)
}

// TweenForce applies a force along Direction whose magnitude follows an eased curve over
// a duration. The force stops once the curve ends unless Loop is set.
type TweenForce struct {
	Body       *actor.RigidBody
	Direction  mgl64.Vec2
	LocalPoint mgl64.Vec2
	Loop       bool

	tween     *gween.Tween
	magnitude float64
	done      bool
}

// NewTweenForce creates a force ramping from the magnitude from to the magnitude to.
// A nil easing is linear.
func NewTweenForce(body *actor.RigidBody, direction mgl64.Vec2, from, to, duration float64, easing ease.TweenFunc) *TweenForce {
	if easing == nil {
		easing = ease.Linear
	}
	return &TweenForce{
		Body:      body,
		Direction: actor.SafeNormalize(direction),
		tween:     gween.New(float32(from), float32(to), float32(duration), easing),
		magnitude: from,
	}
}

// Magnitude is the force applied during the last step.
func (f *TweenForce) Magnitude() float64 { return f.magnitude }

func (f *TweenForce) Done() bool { return f.done }

func (f *TweenForce) ApplyForce(h float64) {
	if f.done || f.Body.IsSleeping() {
		return
	}

	value, finished := f.tween.Update(float32(h))
	f.magnitude = float64(value)
	if finished {
		if f.Loop {
			f.tween.Reset()
		} else {
			f.done = true
		}
	}
	f.Body.ApplyForce(f.Direction.Mul(f.magnitude), actor.Rotate(f.LocalPoint, f.Body.Angle()))
}
