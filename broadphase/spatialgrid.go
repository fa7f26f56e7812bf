package broadphase

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultCellSize = 2.0
	DefaultNumCells = 1024
	// maxCellSpan bounds the cells scanned per axis for very large bodies
	maxCellSpan = 64
)

// CellKey is the integer coordinates of a grid cell.
type CellKey struct {
	X, Y int
}

// Cell holds positions into the grid body list.
type Cell struct {
	bodyIndices []int
}

// SpatialGrid is a uniform grid hashed into a fixed number of buckets. It is rebuilt on
// every query, suited to scenes of similarly sized bodies.
type SpatialGrid struct {
	base
	bodyList

	cellSize float64
	cells    []Cell
	cellMask int

	// stamps deduplicate pairs found in several shared cells
	stamps []int
	stamp  int
	// oversized bodies are tested against everything instead of being rasterized
	oversized []int
}

// NewSpatialGrid creates a grid, numCells is rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		base:     newBase(),
		bodyList: newBodyList(),
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (sg *SpatialGrid) Add(body *actor.RigidBody) error {
	return sg.add(body)
}

func (sg *SpatialGrid) Remove(body *actor.RigidBody) error {
	if err := sg.remove(body); err != nil {
		return err
	}
	sg.ignored.RemoveBody(body.ID)
	return nil
}

// Update is a no-op, the grid is rebuilt by each pair query.
func (sg *SpatialGrid) Update() {}

func (sg *SpatialGrid) clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.oversized = sg.oversized[:0]
}

// cellRange returns the cells covered by aabb, ok is false for empty or oversized boxes.
func (sg *SpatialGrid) cellRange(aabb actor.AABB) (CellKey, CellKey, bool) {
	if aabb.IsEmpty() {
		return CellKey{}, CellKey{}, false
	}
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)
	if maxCell.X-minCell.X > maxCellSpan || maxCell.Y-minCell.Y > maxCellSpan {
		return minCell, maxCell, false
	}
	return minCell, maxCell, true
}

func (sg *SpatialGrid) rebuild() {
	sg.clear()
	for i, body := range sg.bodies {
		aabb := body.AABB()
		minCell, maxCell, ok := sg.cellRange(aabb)
		if !ok {
			if !aabb.IsEmpty() {
				sg.oversized = append(sg.oversized, i)
			}
			continue
		}
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				cellIdx := sg.hashCell(CellKey{x, y})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, i)
			}
		}
	}

	if cap(sg.stamps) < len(sg.bodies) {
		sg.stamps = make([]int, len(sg.bodies))
		sg.stamp = 0
	}
	sg.stamps = sg.stamps[:len(sg.bodies)]
}

// QueryCollisionPairs reports each pair once, from its lower list position.
func (sg *SpatialGrid) QueryCollisionPairs(consumer PairConsumer) {
	sg.rebuild()

	for bodyIdx, bodyA := range sg.bodies {
		sg.stamp++
		minCell, maxCell, ok := sg.cellRange(bodyA.AABB())
		if ok {
			for x := minCell.X; x <= maxCell.X; x++ {
				for y := minCell.Y; y <= maxCell.Y; y++ {
					cellIdx := sg.hashCell(CellKey{x, y})
					for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
						if !sg.visit(bodyIdx, otherIdx) {
							continue
						}
						if !consumer(bodyA, sg.bodies[otherIdx]) {
							return
						}
					}
				}
			}
		}

		// Oversized bodies are paired with everything, by both sides of the pair
		candidates := sg.oversized
		if !ok && !bodyA.AABB().IsEmpty() {
			candidates = sg.allIndices()
		}
		for _, otherIdx := range candidates {
			if !sg.visit(bodyIdx, otherIdx) {
				continue
			}
			if !consumer(bodyA, sg.bodies[otherIdx]) {
				return
			}
		}
	}
}

// visit stamps otherIdx and reports whether the pair is new and accepted.
func (sg *SpatialGrid) visit(bodyIdx, otherIdx int) bool {
	if otherIdx <= bodyIdx || sg.stamps[otherIdx] == sg.stamp {
		return false
	}
	sg.stamps[otherIdx] = sg.stamp
	return sg.accept(sg.bodies[bodyIdx], sg.bodies[otherIdx])
}

func (sg *SpatialGrid) allIndices() []int {
	indices := make([]int, len(sg.bodies))
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func (sg *SpatialGrid) QueryAABB(aabb actor.AABB, consumer AABBConsumer) {
	queryAABBList(sg.bodies, aabb, consumer)
}

func (sg *SpatialGrid) Raycast(ray actor.Ray, consumer RaycastConsumer) {
	raycastList(sg.bodies, ray, consumer)
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec2) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
	}
}

// hashCell maps a cell to a bucket index.
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}
