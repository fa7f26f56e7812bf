package broadphase

import "github.com/akmonengine/feather2d/actor"

// SweepAndPrune keeps the bodies sorted on the lower x bound of their AABB and sweeps
// them once per query. Bodies move little between steps, so the insertion sort runs in
// close to linear time.
type SweepAndPrune struct {
	base
	bodyList
	sorted []*actor.RigidBody
}

func NewSweepAndPrune() *SweepAndPrune {
	return &SweepAndPrune{base: newBase(), bodyList: newBodyList()}
}

func (s *SweepAndPrune) Add(body *actor.RigidBody) error {
	if err := s.add(body); err != nil {
		return err
	}
	s.sorted = append(s.sorted, body)
	return nil
}

func (s *SweepAndPrune) Remove(body *actor.RigidBody) error {
	if err := s.remove(body); err != nil {
		return err
	}
	for i, b := range s.sorted {
		if b == body {
			s.sorted = append(s.sorted[:i], s.sorted[i+1:]...)
			break
		}
	}
	s.ignored.RemoveBody(body.ID)
	return nil
}

// Update restores the sort order.
func (s *SweepAndPrune) Update() {
	insertionSortByMinX(s.sorted)
}

func insertionSortByMinX(bodies []*actor.RigidBody) {
	for i := 1; i < len(bodies); i++ {
		body := bodies[i]
		key := body.AABB().Min.X()
		j := i - 1
		for ; j >= 0 && bodies[j].AABB().Min.X() > key; j-- {
			bodies[j+1] = bodies[j]
		}
		bodies[j+1] = body
	}
}

func (s *SweepAndPrune) QueryCollisionPairs(consumer PairConsumer) {
	insertionSortByMinX(s.sorted)

	for i, x := range s.sorted {
		maxX := x.AABB().Max.X()
		for _, y := range s.sorted[i+1:] {
			if y.AABB().Min.X() > maxX {
				break
			}
			if s.accept(x, y) && !consumer(x, y) {
				return
			}
		}
	}
}

func (s *SweepAndPrune) QueryAABB(aabb actor.AABB, consumer AABBConsumer) {
	insertionSortByMinX(s.sorted)
	for _, body := range s.sorted {
		bounds := body.AABB()
		if bounds.Min.X() > aabb.Max.X() {
			return
		}
		if bounds.Overlaps(aabb) && !consumer(body) {
			return
		}
	}
}

func (s *SweepAndPrune) Raycast(ray actor.Ray, consumer RaycastConsumer) {
	raycastList(s.bodies, ray, consumer)
}
