package ecs

import (
	"errors"
	"fmt"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

var ErrEntityNotFound = errors.New("entity not found")

// TransformData is the last transform written by the physics world, with the host frame
// it was written in.
type TransformData struct {
	Position mgl64.Vec2
	Rotation float64
	Frame    uint64
}

type BodyData struct {
	Body *actor.RigidBody
}

var (
	Transform = donburi.NewComponentType[TransformData]()
	Body      = donburi.NewComponentType[BodyData]()

	// PhysicsEventType carries every event raised by the physics world.
	PhysicsEventType = events.NewEventType[feather2d.Event]()
)

var physicsEvents = []feather2d.EventType{
	feather2d.TRIGGER_ENTER,
	feather2d.COLLISION_ENTER,
	feather2d.TRIGGER_STAY,
	feather2d.COLLISION_STAY,
	feather2d.TRIGGER_EXIT,
	feather2d.COLLISION_EXIT,
	feather2d.ON_SLEEP,
	feather2d.ON_WAKE,
}

// Store keeps the entities of a donburi world in sync with the bodies of a physics world.
type Store struct {
	world    donburi.World
	physics  *feather2d.World
	entities map[*actor.RigidBody]donburi.Entity
	bodies   *donburi.Query
}

// NewStore makes the store the transform writer of physics and forwards its events.
func NewStore(world donburi.World, physics *feather2d.World) *Store {
	s := &Store{
		world:    world,
		physics:  physics,
		entities: make(map[*actor.RigidBody]donburi.Entity),
		bodies:   donburi.NewQuery(filter.Contains(Transform, Body)),
	}
	physics.Writer = s
	for _, eventType := range physicsEvents {
		physics.Events.Subscribe(eventType, s.emit)
	}
	return s
}

func (s *Store) emit(event feather2d.Event) {
	PhysicsEventType.Publish(s.world, event)
}

// Spawn creates an entity for body, adding the body to the physics world if needed.
func (s *Store) Spawn(body *actor.RigidBody) (donburi.Entity, error) {
	if _, ok := s.entities[body]; ok {
		return 0, fmt.Errorf("body %d: %w", body.ID, feather2d.ErrDuplicateBody)
	}
	if body.Index < 0 {
		if err := s.physics.AddBody(body); err != nil {
			return 0, err
		}
	}

	entity := s.world.Create(Transform, Body)
	entry := s.world.Entry(entity)
	Body.SetValue(entry, BodyData{Body: body})
	Transform.SetValue(entry, TransformData{
		Position: body.Position(),
		Rotation: body.Angle(),
		Frame:    s.physics.Frame(),
	})
	s.entities[body] = entity
	return entity, nil
}

// Despawn removes the entity and its body from both worlds.
func (s *Store) Despawn(entity donburi.Entity) error {
	if !s.world.Valid(entity) {
		return ErrEntityNotFound
	}
	entry := s.world.Entry(entity)
	if !entry.HasComponent(Body) {
		return ErrEntityNotFound
	}

	body := Body.Get(entry).Body
	if err := s.physics.RemoveBody(body); err != nil && !errors.Is(err, feather2d.ErrBodyNotFound) {
		return err
	}
	delete(s.entities, body)
	s.world.Remove(entity)
	return nil
}

// Entity returns the entity spawned for body.
func (s *Store) Entity(body *actor.RigidBody) (donburi.Entity, bool) {
	entity, ok := s.entities[body]
	return entity, ok
}

func (s *Store) Len() int {
	return len(s.entities)
}

// WriteTransform implements feather2d.TransformWriter.
func (s *Store) WriteTransform(body *actor.RigidBody, transform actor.Transform, frame uint64) {
	entity, ok := s.entities[body]
	if !ok || !s.world.Valid(entity) {
		return
	}
	Transform.SetValue(s.world.Entry(entity), TransformData{
		Position: transform.Position,
		Rotation: transform.Rotation,
		Frame:    frame,
	})
}

// Update advances the physics world by a host frame, then delivers the physics events to
// the donburi subscribers. It returns the number of physics steps run.
func (s *Store) Update(frameDelta float64) int {
	steps := s.physics.Execute(frameDelta)
	PhysicsEventType.ProcessEvents(s.world)
	return steps
}

// EachDirty calls fn for every entity whose transform was written in the given frame.
func (s *Store) EachDirty(frame uint64, fn func(entry *donburi.Entry)) {
	s.bodies.Each(s.world, func(entry *donburi.Entry) {
		if Transform.Get(entry).Frame == frame {
			fn(entry)
		}
	})
}
