package broadphase

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	nullNode int32 = -1

	DefaultTreePadding     = 0.1
	DefaultTreeSweepFactor = 2.0
)

// treeNode is either a leaf holding a body or an internal node with two children.
// Free nodes reuse parent as the next link of the free list.
type treeNode struct {
	aabb   actor.AABB
	body   *actor.RigidBody
	parent int32
	child1 int32
	child2 int32
	// leaf = 0, free node = -1
	height int32
}

func (n *treeNode) isLeaf() bool {
	return n.child1 == nullNode
}

// DynamicTree is an AVL balanced bounding volume hierarchy over fattened body AABB.
// Leaves are padded and extruded along the body displacement so that a slowly moving
// body does not need to be reinserted every step.
//
// Pairs are reported with the lower body Index first, bodies sharing the tree must have
// distinct indices.
type DynamicTree struct {
	base

	Padding     float64
	SweepFactor float64

	root     int32
	nodes    []treeNode
	freeList int32

	// leaves in insertion order, for a deterministic pair order
	leaves    []int32
	leafIndex map[*actor.RigidBody]int
	// bodies without shapes, kept out of the hierarchy until they gain one
	parked map[*actor.RigidBody]struct{}

	stack []int32
}

func NewDynamicTree() *DynamicTree {
	return &DynamicTree{
		base:        newBase(),
		Padding:     DefaultTreePadding,
		SweepFactor: DefaultTreeSweepFactor,
		root:        nullNode,
		freeList:    nullNode,
		leafIndex:   make(map[*actor.RigidBody]int),
		parked:      make(map[*actor.RigidBody]struct{}),
	}
}

// ========== NODE POOL ==========

func (t *DynamicTree) allocateNode() int32 {
	if t.freeList == nullNode {
		t.nodes = append(t.nodes, treeNode{})
		t.freeList = int32(len(t.nodes) - 1)
		t.nodes[t.freeList].parent = nullNode
	}
	id := t.freeList
	t.freeList = t.nodes[id].parent
	t.nodes[id] = treeNode{parent: nullNode, child1: nullNode, child2: nullNode}
	return id
}

func (t *DynamicTree) freeNode(id int32) {
	t.nodes[id] = treeNode{parent: t.freeList, child1: nullNode, child2: nullNode, height: -1}
	t.freeList = id
}

// ========== MEMBERSHIP ==========

func (t *DynamicTree) Add(body *actor.RigidBody) error {
	if t.contains(body) {
		return ErrBodyAlreadyAdded
	}
	if len(body.Shapes) == 0 {
		t.parked[body] = struct{}{}
		return nil
	}
	t.createLeaf(body, body.AABB().Expand(t.Padding))
	return nil
}

func (t *DynamicTree) Remove(body *actor.RigidBody) error {
	if _, ok := t.parked[body]; ok {
		delete(t.parked, body)
		t.ignored.RemoveBody(body.ID)
		return nil
	}
	i, ok := t.leafIndex[body]
	if !ok {
		return ErrBodyNotFound
	}
	t.destroyLeaf(i)
	t.ignored.RemoveBody(body.ID)
	return nil
}

func (t *DynamicTree) Len() int {
	return len(t.leaves) + len(t.parked)
}

func (t *DynamicTree) contains(body *actor.RigidBody) bool {
	_, inTree := t.leafIndex[body]
	_, isParked := t.parked[body]
	return inTree || isParked
}

func (t *DynamicTree) createLeaf(body *actor.RigidBody, fat actor.AABB) {
	leaf := t.allocateNode()
	t.nodes[leaf].aabb = fat
	t.nodes[leaf].body = body
	t.insertLeaf(leaf)

	t.leafIndex[body] = len(t.leaves)
	t.leaves = append(t.leaves, leaf)
}

// destroyLeaf removes the i-th leaf, the last leaf takes its slot.
func (t *DynamicTree) destroyLeaf(i int) {
	leaf := t.leaves[i]
	body := t.nodes[leaf].body
	t.removeLeaf(leaf)
	t.freeNode(leaf)

	last := len(t.leaves) - 1
	t.leaves[i] = t.leaves[last]
	t.leafIndex[t.nodes[t.leaves[i]].body] = i
	t.leaves = t.leaves[:last]
	delete(t.leafIndex, body)
}

// Update reinserts every leaf whose body escaped its fat AABB, with a box extruded along
// the last displacement of the body. Bodies that lost or gained shapes move in or out of
// the parked set.
func (t *DynamicTree) Update() {
	for i := 0; i < len(t.leaves); {
		leaf := t.leaves[i]
		body := t.nodes[leaf].body
		if len(body.Shapes) == 0 {
			t.destroyLeaf(i)
			t.parked[body] = struct{}{}
			continue
		}
		i++

		aabb := body.AABB()
		if t.nodes[leaf].aabb.Contains(aabb) {
			continue
		}
		displacement := body.Position().Sub(body.PreviousPosition()).Mul(t.SweepFactor)
		t.removeLeaf(leaf)
		t.nodes[leaf].aabb = aabb.Expand(t.Padding).Sweep(displacement)
		t.insertLeaf(leaf)
	}

	for body := range t.parked {
		if len(body.Shapes) > 0 {
			delete(t.parked, body)
			t.createLeaf(body, body.AABB().Expand(t.Padding))
		}
	}
}

// FatAABB returns the stored box of a body leaf.
func (t *DynamicTree) FatAABB(body *actor.RigidBody) (actor.AABB, bool) {
	i, ok := t.leafIndex[body]
	if !ok {
		return actor.EmptyAABB(), false
	}
	return t.nodes[t.leaves[i]].aabb, true
}

// ========== STRUCTURE ==========

// insertLeaf descends from the root choosing the cheapest sibling by perimeter cost.
func (t *DynamicTree) insertLeaf(leaf int32) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		node := &t.nodes[index]
		area := node.aabb.Perimeter()
		combinedArea := node.aabb.Union(leafAABB).Perimeter()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea
		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		cost1 := t.descendCost(node.child1, leafAABB) + inheritanceCost
		cost2 := t.descendCost(node.child2, leafAABB) + inheritanceCost

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = node.child1
		} else {
			index = node.child2
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent
	t.replaceChild(oldParent, sibling, newParent)

	t.fixUpwards(newParent)
}

func (t *DynamicTree) descendCost(child int32, leafAABB actor.AABB) float64 {
	node := &t.nodes[child]
	merged := leafAABB.Union(node.aabb).Perimeter()
	if node.isLeaf() {
		return merged
	}
	return merged - node.aabb.Perimeter()
}

func (t *DynamicTree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	t.replaceChild(grandParent, parent, sibling)
	t.nodes[sibling].parent = grandParent
	t.nodes[leaf].parent = nullNode
	t.freeNode(parent)

	t.fixUpwards(grandParent)
}

// replaceChild swaps oldChild for newChild under parent, or at the root.
func (t *DynamicTree) replaceChild(parent, oldChild, newChild int32) {
	if parent == nullNode {
		t.root = newChild
		return
	}
	if t.nodes[parent].child1 == oldChild {
		t.nodes[parent].child1 = newChild
	} else {
		t.nodes[parent].child2 = newChild
	}
}

// fixUpwards refits and rebalances every ancestor from index to the root.
func (t *DynamicTree) fixUpwards(index int32) {
	for index != nullNode {
		t.refit(index)
		index = t.balance(index)
		index = t.nodes[index].parent
	}
}

func (t *DynamicTree) refit(index int32) {
	node := &t.nodes[index]
	c1, c2 := &t.nodes[node.child1], &t.nodes[node.child2]
	node.height = 1 + max(c1.height, c2.height)
	node.aabb = c1.aabb.Union(c2.aabb)
}

// balance rotates the subtree rooted at index until its children heights differ by at
// most one, and returns the new subtree root.
func (t *DynamicTree) balance(index int32) int32 {
	for {
		node := &t.nodes[index]
		if node.isLeaf() {
			return index
		}
		diff := t.nodes[node.child2].height - t.nodes[node.child1].height
		switch {
		case diff > 1:
			index = t.rotate(index, node.child2)
		case diff < -1:
			index = t.rotate(index, node.child1)
		default:
			return index
		}
	}
}

// rotate promotes the taller child up of a. The taller grandchild stays under up, the
// shorter one moves under a. a is rebalanced afterwards since a leaf inserted next to a
// tall subtree can leave it more than one level off.
func (t *DynamicTree) rotate(a, up int32) int32 {
	other := t.nodes[a].child1
	if other == up {
		other = t.nodes[a].child2
	}

	tall, short := t.nodes[up].child1, t.nodes[up].child2
	if t.nodes[short].height > t.nodes[tall].height {
		tall, short = short, tall
	}

	parent := t.nodes[a].parent
	t.nodes[up].parent = parent
	t.replaceChild(parent, a, up)

	t.nodes[up].child1 = a
	t.nodes[up].child2 = tall
	t.nodes[a].parent = up

	t.nodes[a].child1 = other
	t.nodes[a].child2 = short
	t.nodes[short].parent = a

	t.refit(a)
	t.balance(a)
	t.refit(up)
	return up
}

// Height returns the height of the tree, 0 for a single leaf and -1 when empty.
func (t *DynamicTree) Height() int {
	if t.root == nullNode {
		return -1
	}
	return int(t.nodes[t.root].height)
}

// Validate checks the structural invariants: parent links, unions and AVL balance.
func (t *DynamicTree) Validate() bool {
	if t.root == nullNode {
		return len(t.leaves) == 0
	}
	if t.nodes[t.root].parent != nullNode {
		return false
	}
	leaves := 0
	ok := t.validate(t.root, &leaves)
	return ok && leaves == len(t.leaves)
}

func (t *DynamicTree) validate(index int32, leaves *int) bool {
	node := &t.nodes[index]
	if node.isLeaf() {
		*leaves++
		return node.height == 0 && node.body != nil
	}
	c1, c2 := &t.nodes[node.child1], &t.nodes[node.child2]
	if c1.parent != index || c2.parent != index {
		return false
	}
	if node.height != 1+max(c1.height, c2.height) {
		return false
	}
	if d := c1.height - c2.height; d > 1 || d < -1 {
		return false
	}
	if node.aabb != c1.aabb.Union(c2.aabb) {
		return false
	}
	return t.validate(node.child1, leaves) && t.validate(node.child2, leaves)
}

// ========== QUERIES ==========

// QueryCollisionPairs walks from every leaf to the root. At each ancestor the subtree on
// the other side is searched for overlapping leaves, so every pair is met twice and
// reported once, from its lower Index body.
func (t *DynamicTree) QueryCollisionPairs(consumer PairConsumer) {
	for _, leaf := range t.leaves {
		body := t.nodes[leaf].body
		aabb := body.AABB()

		t.stack = t.stack[:0]
		for child, parent := leaf, t.nodes[leaf].parent; parent != nullNode; child, parent = parent, t.nodes[parent].parent {
			if t.nodes[parent].child1 == child {
				t.stack = append(t.stack, t.nodes[parent].child2)
			} else {
				t.stack = append(t.stack, t.nodes[parent].child1)
			}
		}

		for len(t.stack) > 0 {
			index := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]

			node := &t.nodes[index]
			if !node.aabb.Overlaps(aabb) {
				continue
			}
			if !node.isLeaf() {
				t.stack = append(t.stack, node.child1, node.child2)
				continue
			}
			other := node.body
			if body.Index >= other.Index || !t.accept(body, other) {
				continue
			}
			if !consumer(body, other) {
				return
			}
		}
	}
}

func (t *DynamicTree) QueryAABB(aabb actor.AABB, consumer AABBConsumer) {
	if t.root == nullNode {
		return
	}
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		index := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		node := &t.nodes[index]
		if !node.aabb.Overlaps(aabb) {
			continue
		}
		if !node.isLeaf() {
			t.stack = append(t.stack, node.child1, node.child2)
			continue
		}
		if node.body.AABB().Overlaps(aabb) && !consumer(node.body) {
			return
		}
	}
}

// Raycast visits the leaves crossed by the ray. Subtrees are culled by the ray bounds and
// by the separating axis perpendicular to the ray, |dot(v, p1 - c)| > dot(|v|, h).
// The bounds shrink whenever the consumer clips the ray.
func (t *DynamicTree) Raycast(ray actor.Ray, consumer RaycastConsumer) {
	if t.root == nullNode {
		return
	}

	p1 := ray.From
	v := actor.Perp(actor.SafeNormalize(ray.Direction()))
	absV := mgl64.Vec2{math.Abs(v.X()), math.Abs(v.Y())}

	maxFraction := 1.0
	segment := ray.Bounds(maxFraction)

	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		index := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		node := &t.nodes[index]
		if !node.aabb.Overlaps(segment) {
			continue
		}
		c, h := node.aabb.Center(), node.aabb.Extents()
		if math.Abs(v.Dot(p1.Sub(c)))-absV.Dot(h) > 0 {
			continue
		}

		if !node.isLeaf() {
			t.stack = append(t.stack, node.child1, node.child2)
			continue
		}

		value := consumer(node.body, maxFraction)
		if value == 0 {
			return
		}
		if value > 0 {
			maxFraction = value
			segment = ray.Bounds(maxFraction)
		}
	}
}
