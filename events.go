package feather2d

import (
	"slices"

	"github.com/akmonengine/feather2d/actor"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events, raised by sensor shapes
type TriggerEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// activePair is a body pair in contact during one step. A pair is a trigger while all
// of its touching shape pairs involve a sensor.
type activePair struct {
	bodyA   *actor.RigidBody
	bodyB   *actor.RigidBody
	trigger bool
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection, keyed by actor.PairKey
	previousActivePairs map[uint64]activePair
	currentActivePairs  map[uint64]activePair
	// keys of the current pairs in detection order, for a deterministic event order
	currentOrder  []uint64
	previousOrder []uint64

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[uint64]activePair),
		currentActivePairs:  make(map[uint64]activePair),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact is called by the narrowphase for every touching shape pair of the step
func (e *Events) recordContact(bodyA, bodyB *actor.RigidBody, sensor bool) {
	key := actor.PairKey(bodyA, bodyB)
	pair, exists := e.currentActivePairs[key]
	if !exists {
		if bodyB.ID < bodyA.ID {
			bodyA, bodyB = bodyB, bodyA
		}
		e.currentActivePairs[key] = activePair{bodyA: bodyA, bodyB: bodyB, trigger: sensor}
		e.currentOrder = append(e.currentOrder, key)
		return
	}
	if pair.trigger && !sensor {
		pair.trigger = false
		e.currentActivePairs[key] = pair
	}
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
// Should be called once per step
func (e *Events) processCollisionEvents() {
	// Detect Enter and Stay events
	for _, key := range e.currentOrder {
		pair, ok := e.currentActivePairs[key]
		if !ok {
			continue
		}
		// Skip if both bodies are sleeping, to avoid spamming events
		if pair.bodyA.IsSleeping() && pair.bodyB.IsSleeping() {
			continue
		}

		if _, ok := e.previousActivePairs[key]; ok {
			// Pair was active before and still is, Stay
			if pair.trigger {
				e.buffer = append(e.buffer, TriggerStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			}
		} else {
			// New pair, Enter
			if pair.trigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			} else {
				e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			}
		}
	}

	// Detect Exit events
	for _, key := range e.previousOrder {
		pair, ok := e.previousActivePairs[key]
		if !ok {
			continue
		}
		if _, active := e.currentActivePairs[key]; active {
			continue
		}
		// Resting pairs leave the broadphase once they sleep, they did not separate
		if dormant(pair.bodyA, pair.bodyB) {
			continue
		}
		if pair.trigger {
			e.buffer = append(e.buffer, TriggerExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next step and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	e.previousOrder, e.currentOrder = e.currentOrder, e.previousOrder[:0]
	clear(e.currentActivePairs)
}

// dormant reports whether the broadphase stopped pairing the bodies because of sleep.
func dormant(a, b *actor.RigidBody) bool {
	resting := func(body *actor.RigidBody) bool {
		return body.IsSleeping() || body.BodyType == actor.BodyTypeStatic
	}
	return (a.IsSleeping() || b.IsSleeping()) && resting(a) && resting(b)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		if body.BodyType != actor.BodyTypeDynamic {
			continue
		}
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping()
			continue
		}

		if !trackedState && body.IsSleeping() {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping() {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// forget drops every pair and sleep state of a body removed from the world
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	for key, pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, key)
		}
	}
	for key, pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, key)
		}
	}
	e.previousOrder = slices.DeleteFunc(e.previousOrder, e.stale(e.previousActivePairs))
	e.currentOrder = slices.DeleteFunc(e.currentOrder, e.stale(e.currentActivePairs))
}

func (e *Events) stale(pairs map[uint64]activePair) func(key uint64) bool {
	return func(key uint64) bool {
		_, ok := pairs[key]
		return !ok
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}
