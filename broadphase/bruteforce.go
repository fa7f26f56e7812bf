package broadphase

import "github.com/akmonengine/feather2d/actor"

// BruteForce tests every pair of bodies. It is the reference the other structures are
// checked against, and is competitive for a handful of bodies.
type BruteForce struct {
	base
	bodyList
}

func NewBruteForce() *BruteForce {
	return &BruteForce{base: newBase(), bodyList: newBodyList()}
}

func (b *BruteForce) Add(body *actor.RigidBody) error {
	return b.add(body)
}

func (b *BruteForce) Remove(body *actor.RigidBody) error {
	if err := b.remove(body); err != nil {
		return err
	}
	b.ignored.RemoveBody(body.ID)
	return nil
}

func (b *BruteForce) Update() {}

func (b *BruteForce) QueryCollisionPairs(consumer PairConsumer) {
	for i, x := range b.bodies {
		for _, y := range b.bodies[i+1:] {
			if b.accept(x, y) && !consumer(x, y) {
				return
			}
		}
	}
}

func (b *BruteForce) QueryAABB(aabb actor.AABB, consumer AABBConsumer) {
	queryAABBList(b.bodies, aabb, consumer)
}

func (b *BruteForce) Raycast(ray actor.Ray, consumer RaycastConsumer) {
	raycastList(b.bodies, ray, consumer)
}
