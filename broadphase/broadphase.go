// Package broadphase prunes the set of body pairs that need an exact collision test.
package broadphase

import (
	"errors"

	"github.com/akmonengine/feather2d/actor"
)

var (
	ErrBodyAlreadyAdded = errors.New("body already added to the broadphase")
	ErrBodyNotFound     = errors.New("body not found in the broadphase")
)

// PairFilter decides whether a candidate pair is reported to the consumer.
type PairFilter func(a, b *actor.RigidBody) bool

// PairConsumer receives candidate pairs. Returning false aborts the query.
type PairConsumer func(a, b *actor.RigidBody) bool

// AABBConsumer receives bodies overlapping a query box. Returning false aborts the query.
type AABBConsumer func(body *actor.RigidBody) bool

// RaycastConsumer receives bodies whose bounds are crossed by the ray, with the current
// maximum fraction. It returns 0 to stop the cast, a negative value to ignore the body, or
// a positive fraction that clips the ray for the remaining candidates.
type RaycastConsumer func(body *actor.RigidBody, maxFraction float64) float64

// Broadphase is a spatial index over the bodies AABB.
type Broadphase interface {
	Add(body *actor.RigidBody) error
	Remove(body *actor.RigidBody) error
	// Update refreshes the index after bodies moved, once per step
	Update()
	// QueryCollisionPairs reports each accepted overlapping pair exactly once
	QueryCollisionPairs(consumer PairConsumer)
	QueryAABB(aabb actor.AABB, consumer AABBConsumer)
	Raycast(ray actor.Ray, consumer RaycastConsumer)
	SetFilter(filter PairFilter)
	IgnoredPairs() *PairSet
	Len() int
}

// DefaultFilter accepts a pair when at least one body is dynamic, the bodies are not
// both asleep, a static body is not paired with a sleeping one, and their AABB overlap.
func DefaultFilter(a, b *actor.RigidBody) bool {
	if a.BodyType != actor.BodyTypeDynamic && b.BodyType != actor.BodyTypeDynamic {
		return false
	}
	if a.IsSleeping() && b.IsSleeping() {
		return false
	}
	if (a.BodyType == actor.BodyTypeStatic && b.IsSleeping()) || (b.BodyType == actor.BodyTypeStatic && a.IsSleeping()) {
		return false
	}
	return a.AABB().Overlaps(b.AABB())
}

// PairSet is a reference counted set of body pairs keyed by actor.PairKey.
// Several joints may ignore the same pair, it stays ignored until the last one is removed.
type PairSet struct {
	counts map[uint64]int
}

func NewPairSet() *PairSet {
	return &PairSet{counts: make(map[uint64]int)}
}

func (s *PairSet) Add(a, b *actor.RigidBody) {
	s.counts[actor.PairKey(a, b)]++
}

// Remove releases one reference on the pair.
func (s *PairSet) Remove(a, b *actor.RigidBody) {
	key := actor.PairKey(a, b)
	if s.counts[key] <= 1 {
		delete(s.counts, key)
		return
	}
	s.counts[key]--
}

func (s *PairSet) Contains(a, b *actor.RigidBody) bool {
	return s.counts[actor.PairKey(a, b)] > 0
}

// RemoveBody forgets every pair involving the given body ID.
func (s *PairSet) RemoveBody(id uint32) {
	for key := range s.counts {
		x, y := actor.UnpackIDs(key)
		if x == id || y == id {
			delete(s.counts, key)
		}
	}
}

func (s *PairSet) Len() int {
	return len(s.counts)
}

func (s *PairSet) Clear() {
	clear(s.counts)
}

// base holds the state shared by every broadphase implementation.
type base struct {
	filter  PairFilter
	ignored *PairSet
}

func newBase() base {
	return base{filter: DefaultFilter, ignored: NewPairSet()}
}

func (b *base) SetFilter(filter PairFilter) {
	if filter == nil {
		filter = DefaultFilter
	}
	b.filter = filter
}

func (b *base) IgnoredPairs() *PairSet {
	return b.ignored
}

func (b *base) accept(x, y *actor.RigidBody) bool {
	return b.filter(x, y) && !b.ignored.Contains(x, y)
}

// bodyList is a dense body slice with O(1) removal, used by the flat implementations.
type bodyList struct {
	bodies []*actor.RigidBody
	index  map[*actor.RigidBody]int
}

func newBodyList() bodyList {
	return bodyList{index: make(map[*actor.RigidBody]int)}
}

func (l *bodyList) add(body *actor.RigidBody) error {
	if _, ok := l.index[body]; ok {
		return ErrBodyAlreadyAdded
	}
	l.index[body] = len(l.bodies)
	l.bodies = append(l.bodies, body)
	return nil
}

func (l *bodyList) remove(body *actor.RigidBody) error {
	i, ok := l.index[body]
	if !ok {
		return ErrBodyNotFound
	}
	last := len(l.bodies) - 1
	l.bodies[i] = l.bodies[last]
	l.index[l.bodies[i]] = i
	l.bodies[last] = nil
	l.bodies = l.bodies[:last]
	delete(l.index, body)
	return nil
}

func (l *bodyList) Len() int {
	return len(l.bodies)
}

// raycastList tests every body of the list against the ray, clipping as hits come in.
func raycastList(bodies []*actor.RigidBody, ray actor.Ray, consumer RaycastConsumer) {
	maxFraction := 1.0
	for _, body := range bodies {
		clipped := actor.Ray{From: ray.From, To: ray.PointAt(maxFraction)}
		if body.AABB().OverlapsRay(clipped) < 0 {
			continue
		}
		value := consumer(body, maxFraction)
		if value == 0 {
			return
		}
		if value > 0 {
			maxFraction = value
		}
	}
}

func queryAABBList(bodies []*actor.RigidBody, aabb actor.AABB, consumer AABBConsumer) {
	for _, body := range bodies {
		if body.AABB().Overlaps(aabb) && !consumer(body) {
			return
		}
	}
}
