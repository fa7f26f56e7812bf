package constraint

import (
	"cmp"
	"slices"

	"github.com/akmonengine/feather2d/actor"
)

// Island is a connected set of awake dynamic bodies and the rows linking them.
type Island struct {
	ID         int
	Rows       []Row
	Bodies     []*actor.RigidBody
	Iterations int
}

type islandRow struct {
	island int
	row    Row
}

// IslandSolver splits the rows in islands with a union-find over the awake dynamic bodies
// and solves every island on its own. With Workers > 1 islands are solved concurrently.
// Bodies are identified by their Index in the bodies slice given to Solve.
type IslandSolver struct {
	Solver  *GSSolver
	Workers int

	parent  []int
	entries []islandRow
	islands []Island
	refs    []*Island
	seen    []int
}

func NewIslandSolver(solver *GSSolver, workers int) *IslandSolver {
	if solver == nil {
		solver = NewGSSolver()
	}
	return &IslandSolver{Solver: solver, Workers: workers}
}

// Solve returns the largest iteration count among the islands.
func (s *IslandSolver) Solve(h float64, rows []Row, bodies []*actor.RigidBody) int {
	s.partition(rows, bodies)
	if len(s.refs) == 0 {
		return 0
	}

	task(s.Workers, s.refs, func(island *Island) {
		island.Iterations = s.Solver.Solve(h, island.Rows, island.Bodies)
	})

	iterations := 0
	for _, island := range s.refs {
		iterations = max(iterations, island.Iterations)
	}
	return iterations
}

// Islands returns the islands built by the last Solve.
func (s *IslandSolver) Islands() []*Island {
	return s.refs
}

func (s *IslandSolver) partition(rows []Row, bodies []*actor.RigidBody) {
	n := len(bodies)
	s.parent = slices.Grow(s.parent[:0], n)[:n]
	for i := range s.parent {
		s.parent[i] = i
	}

	// ========== 1. Union the bodies linked by a row ==========
	for _, row := range rows {
		eq := row.Base()
		if !eq.Enabled {
			continue
		}
		if s.node(eq.BodyA, n) && s.node(eq.BodyB, n) {
			s.union(eq.BodyA.Index, eq.BodyB.Index)
		}
	}

	// ========== 2. Tag and sort the rows by island ==========
	s.entries = s.entries[:0]
	for _, row := range rows {
		eq := row.Base()
		if !eq.Enabled {
			continue
		}
		switch {
		case s.node(eq.BodyA, n):
			s.entries = append(s.entries, islandRow{island: s.find(eq.BodyA.Index), row: row})
		case s.node(eq.BodyB, n):
			s.entries = append(s.entries, islandRow{island: s.find(eq.BodyB.Index), row: row})
		}
		// Rows without a movable body change nothing
	}
	slices.SortStableFunc(s.entries, func(a, b islandRow) int {
		return cmp.Compare(a.island, b.island)
	})

	// ========== 3. Build the islands ==========
	s.seen = slices.Grow(s.seen[:0], n)[:n]
	for i := range s.seen {
		s.seen[i] = -1
	}

	count := 0
	for start := 0; start < len(s.entries); {
		id := s.entries[start].island
		end := start
		for end < len(s.entries) && s.entries[end].island == id {
			end++
		}

		if count == len(s.islands) {
			s.islands = append(s.islands, Island{})
		}
		island := &s.islands[count]
		island.ID = id
		island.Rows = island.Rows[:0]
		island.Bodies = island.Bodies[:0]
		island.Iterations = 0

		for _, entry := range s.entries[start:end] {
			island.Rows = append(island.Rows, entry.row)
			eq := entry.row.Base()
			island.Bodies = s.collect(island.Bodies, eq.BodyA, id, n)
			island.Bodies = s.collect(island.Bodies, eq.BodyB, id, n)
		}

		count++
		start = end
	}

	s.refs = s.refs[:0]
	for i := 0; i < count; i++ {
		s.refs = append(s.refs, &s.islands[i])
	}
}

// node reports whether the body takes part in the union-find.
func (s *IslandSolver) node(body *actor.RigidBody, n int) bool {
	return body.BodyType == actor.BodyTypeDynamic && !body.IsSleeping() && body.Index >= 0 && body.Index < n
}

func (s *IslandSolver) collect(bodies []*actor.RigidBody, body *actor.RigidBody, island, n int) []*actor.RigidBody {
	if !s.node(body, n) || s.seen[body.Index] == island {
		return bodies
	}
	s.seen[body.Index] = island
	return append(bodies, body)
}

func (s *IslandSolver) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

func (s *IslandSolver) union(a, b int) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		s.parent[rb] = ra
	} else {
		s.parent[ra] = rb
	}
}
