// Package feather2d is a 2D rigid-body physics engine. A World runs fixed physics steps
// over its bodies and writes their interpolated transforms back to the host once per frame.
package feather2d

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/broadphase"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/narrowphase"
	"github.com/go-gl/mathgl/mgl64"
)

// TransformWriter receives the transform of every body that moved during a host frame.
type TransformWriter interface {
	WriteTransform(body *actor.RigidBody, transform actor.Transform, frame uint64)
}

type World struct {
	Options Options

	// List of all rigid bodies in the world, body.Index is the position in this list
	Bodies []*actor.RigidBody

	Broadphase  broadphase.Broadphase
	Narrowphase *narrowphase.Narrowphase
	Factory     *constraint.EquationFactory
	Solver      constraint.Solver

	Events Events
	// Writer is called by Execute, it may be nil
	Writer TransformWriter

	constraints     []constraint.Constraint
	forceGenerators []ForceGenerator
	rows            []constraint.Row

	nextID   uint32
	freeIDs  []uint32
	recycled []*actor.RigidBody

	accumulator float64
	alpha       float64
	frame       uint64
	steps       uint64
	time        float64

	// consumers bound once, the step does not allocate closures
	pairConsumer     broadphase.PairConsumer
	manifoldConsumer narrowphase.ManifoldConsumer
	ccd              ccdProbe
	ccdConsumer      broadphase.RaycastConsumer
	query            raycastQuery
	queryConsumer    broadphase.RaycastConsumer
}

// NewWorld validates the options and builds an empty world.
func NewWorld(options Options) (*World, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	options.Workers = max(DEFAULT_WORKERS, options.Workers)

	factory := constraint.NewEquationFactory(nil)
	factory.EnableFriction = options.EnableFriction
	factory.FrictionMode = options.FrictionMode
	factory.FrictionGravity = options.frictionGravity()

	gs := &constraint.GSSolver{Iterations: options.Iterations, Tolerance: options.Tolerance}
	var solver constraint.Solver = gs
	if options.UseIslands {
		solver = constraint.NewIslandSolver(gs, options.Workers)
	}

	w := &World{
		Options:     options,
		Broadphase:  options.newBroadphase(),
		Narrowphase: narrowphase.New(),
		Factory:     factory,
		Solver:      solver,
		Events:      NewEvents(),
		nextID:      1,
	}
	w.pairConsumer = w.collidePair
	w.manifoldConsumer = w.addManifold
	w.ccd.world = w
	w.ccdConsumer = w.ccd.visit
	w.queryConsumer = w.query.visit
	return w, nil
}

// Materials returns the contact material table used by the equation factory.
func (w *World) Materials() *constraint.MaterialTable {
	return w.Factory.Materials
}

// Time is the simulated time, a multiple of the fixed delta time.
func (w *World) Time() float64 { return w.time }

// Frame is the host frame counter, incremented by Execute.
func (w *World) Frame() uint64 { return w.frame }

// Alpha is the interpolation factor left by the last Execute, in [0, 1).
func (w *World) Alpha() float64 { return w.alpha }

// ========== BODIES ==========

// CreateBody builds a body from the recycled ones when possible and adds it to the world.
func (w *World) CreateBody(bodyType actor.BodyType, mass float64, shapes ...actor.Shape) (*actor.RigidBody, error) {
	if err := checkMass(bodyType, mass); err != nil {
		return nil, err
	}

	var body *actor.RigidBody
	if n := len(w.recycled); n > 0 {
		body = w.recycled[n-1]
		w.recycled[n-1] = nil
		w.recycled = w.recycled[:n-1]
		body.Init(bodyType, mass, shapes...)
	} else {
		body = actor.NewRigidBody(bodyType, mass, shapes...)
	}

	if err := w.AddBody(body); err != nil {
		return nil, err
	}
	return body, nil
}

// AddBody adds a rigid body to the world and gives it an ID and an index.
func (w *World) AddBody(body *actor.RigidBody) error {
	if body.Index >= 0 {
		return fmt.Errorf("body %d: %w", body.ID, ErrDuplicateBody)
	}
	if err := checkMass(body.BodyType, body.Mass); err != nil {
		return err
	}

	body.ID = w.allocateID()
	body.Index = len(w.Bodies)
	if err := w.Broadphase.Add(body); err != nil {
		w.freeIDs = append(w.freeIDs, body.ID)
		body.Index = -1
		return fmt.Errorf("body %d: %w", body.ID, err)
	}
	w.Bodies = append(w.Bodies, body)
	return nil
}

// RemoveBody removes a rigid body from the world, with the joints attached to it.
// Every pair map keyed by its ID forgets it before the ID is reused.
func (w *World) RemoveBody(body *actor.RigidBody) error {
	if !w.contains(body) {
		return fmt.Errorf("body %d: %w", body.ID, ErrBodyNotFound)
	}

	for i := len(w.constraints) - 1; i >= 0; i-- {
		a, b := w.constraints[i].Bodies()
		if a == body || b == body {
			w.removeConstraintAt(i)
		}
	}

	if err := w.Broadphase.Remove(body); err != nil {
		return fmt.Errorf("body %d: %w", body.ID, err)
	}
	w.Factory.Forget(body)
	w.Events.forget(body)

	last := len(w.Bodies) - 1
	w.Bodies[body.Index] = w.Bodies[last]
	w.Bodies[body.Index].Index = body.Index
	w.Bodies[last] = nil
	w.Bodies = w.Bodies[:last]

	w.freeIDs = append(w.freeIDs, body.ID)
	body.Index = -1
	body.ID = 0
	return nil
}

// DestroyBody removes the body and keeps it for a later CreateBody. The caller must not
// use the body afterwards.
func (w *World) DestroyBody(body *actor.RigidBody) error {
	if err := w.RemoveBody(body); err != nil {
		return err
	}
	body.Reset()
	w.recycled = append(w.recycled, body)
	return nil
}

func (w *World) contains(body *actor.RigidBody) bool {
	return body != nil && body.Index >= 0 && body.Index < len(w.Bodies) && w.Bodies[body.Index] == body
}

func (w *World) allocateID() uint32 {
	if n := len(w.freeIDs); n > 0 {
		id := w.freeIDs[n-1]
		w.freeIDs = w.freeIDs[:n-1]
		return id
	}
	id := w.nextID
	w.nextID++
	return id
}

func checkMass(bodyType actor.BodyType, mass float64) error {
	if bodyType == actor.BodyTypeDynamic && (!(mass > 0) || math.IsInf(mass, 0)) {
		return fmt.Errorf("mass %v: %w", mass, ErrInvalidMass)
	}
	return nil
}

// ========== CONSTRAINTS AND FORCES ==========

// AddConstraint registers a joint. Unless it collides its bodies, the pair is ignored by
// the broadphase.
func (w *World) AddConstraint(c constraint.Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	a, b := c.Bodies()
	if !w.contains(a) || !w.contains(b) {
		return fmt.Errorf("constraint bodies: %w", ErrBodyNotFound)
	}
	if !c.CollideConnected() {
		w.Broadphase.IgnoredPairs().Add(a, b)
	}
	w.constraints = append(w.constraints, c)
	return nil
}

func (w *World) RemoveConstraint(c constraint.Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	for i, existing := range w.constraints {
		if existing == c {
			w.removeConstraintAt(i)
			return nil
		}
	}
	return ErrConstraintNotFound
}

func (w *World) removeConstraintAt(i int) {
	c := w.constraints[i]
	if !c.CollideConnected() {
		a, b := c.Bodies()
		w.Broadphase.IgnoredPairs().Remove(a, b)
	}
	w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
}

func (w *World) Constraints() []constraint.Constraint {
	return w.constraints
}

func (w *World) AddForceGenerator(generator ForceGenerator) {
	w.forceGenerators = append(w.forceGenerators, generator)
}

// ========== FRAME ==========

// Execute advances the simulation by a host frame duration. It runs as many fixed steps as
// the accumulated time allows, up to MaxSteps, then writes the transforms of the bodies
// that moved. It returns the number of steps run.
func (w *World) Execute(frameDelta float64) int {
	w.frame++

	h := w.Options.FixedDeltaTime
	w.accumulator += max(frameDelta, 0)

	steps := 0
	for w.accumulator >= h && steps < w.Options.MaxSteps {
		w.Step()
		w.accumulator -= h
		steps++
	}
	// The remainder of a spiral of death is dropped
	if w.accumulator >= h {
		w.accumulator = math.Mod(w.accumulator, h)
	}
	w.alpha = w.accumulator / h

	w.WriteTransforms()
	return steps
}

// WriteTransforms hands the interpolated transform of every moving body to the Writer.
// A body is written at most once per frame.
func (w *World) WriteTransforms() {
	if w.Writer == nil {
		return
	}
	for _, body := range w.Bodies {
		if body.WrittenFrame == w.frame {
			continue
		}
		moved := body.IntegratedFrame == w.frame
		if !moved && (body.BodyType == actor.BodyTypeStatic || body.IsSleeping()) {
			continue
		}

		transform := body.Transform()
		if !body.IsSleeping() {
			transform = body.PreviousTransform().Interpolate(transform, w.alpha)
		}
		body.WrittenFrame = w.frame
		w.Writer.WriteTransform(body, transform, w.frame)
	}
}

// InterpolatedTransform blends the last two transforms of the body with the current alpha.
func (w *World) InterpolatedTransform(body *actor.RigidBody) actor.Transform {
	if body.IsSleeping() || body.BodyType == actor.BodyTypeStatic {
		return body.Transform()
	}
	return body.PreviousTransform().Interpolate(body.Transform(), w.alpha)
}

// ========== STEP ==========

// Step runs one fixed physics step.
func (w *World) Step() {
	h := w.Options.FixedDeltaTime

	// Phase 1: External forces and damping
	w.applyForces(h)
	w.applyDamping(h)

	// Phase 2: Broad phase, narrow phase and contact equations
	w.detectCollisions()
	w.wakeContacts()

	// Phase 3: Solver over contacts, friction and joints
	w.solve(h)

	// Phase 4: Integration, continuous for fast bodies
	w.integrate(h)

	// Phase 5: Sleep
	w.updateSleep(h)

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()

	w.steps++
	w.time = float64(w.steps) * h
}

func (w *World) applyForces(h float64) {
	for _, body := range w.Bodies {
		if body.BodyType != actor.BodyTypeDynamic || body.IsSleeping() {
			continue
		}
		body.ApplyForce(w.Options.Gravity.Mul(body.Mass*body.GravityScale), mgl64.Vec2{})
	}
	for _, generator := range w.forceGenerators {
		generator.ApplyForce(h)
	}
}

func (w *World) applyDamping(h float64) {
	for _, body := range w.Bodies {
		body.ApplyDamping(h)
	}
}

func (w *World) detectCollisions() {
	w.Factory.Reset()
	w.Broadphase.Update()
	w.Broadphase.QueryCollisionPairs(w.pairConsumer)
}

func (w *World) collidePair(a, b *actor.RigidBody) bool {
	w.Narrowphase.DetectCollision(a, b, false, w.manifoldConsumer)
	return true
}

func (w *World) addManifold(m *narrowphase.ContactManifold) {
	w.Events.recordContact(m.BodyA, m.BodyB, m.Sensor)
	w.Factory.AddManifold(m)
}

func (w *World) solve(h float64) {
	w.rows = w.rows[:0]
	for _, c := range w.Factory.ContactEquations {
		w.rows = append(w.rows, c)
	}
	for _, f := range w.Factory.FrictionEquations {
		w.rows = append(w.rows, f)
	}
	for _, c := range w.constraints {
		c.Update()
		w.rows = append(w.rows, c.Equations()...)
	}

	w.Solver.Solve(h, w.rows, w.Bodies)
	clear(w.rows)
}

func (w *World) integrate(h float64) {
	for _, body := range w.Bodies {
		if body.BodyType == actor.BodyTypeStatic || body.IsSleeping() {
			body.ClearForces()
			continue
		}

		body.IntegrateVelocity(h)
		if !w.ccd.integrate(body, h) {
			body.IntegratePosition(h, 1)
		}
		body.ClearForces()
		body.IntegratedFrame = w.frame
	}
}
