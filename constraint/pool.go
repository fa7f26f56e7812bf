package constraint

// Pool is an arena of reusable items. RecycleAll starts a new generation: every item
// acquired before becomes stale and is handed out again, reset, by later Acquire calls.
type Pool[T any] struct {
	items      []*T
	stamps     []uint64
	slots      map[*T]int
	used       int
	generation uint64
	reset      func(item *T)
}

// NewPool creates a pool. reset is called on every acquired item, a nil reset zeroes it.
func NewPool[T any](reset func(item *T)) *Pool[T] {
	return &Pool[T]{
		slots: make(map[*T]int),
		reset: reset,
	}
}

// Acquire returns a reset item owned by the current generation.
func (p *Pool[T]) Acquire() *T {
	if p.used == len(p.items) {
		item := new(T)
		p.slots[item] = len(p.items)
		p.items = append(p.items, item)
		p.stamps = append(p.stamps, 0)
	}

	item := p.items[p.used]
	p.stamps[p.used] = p.generation
	p.used++

	if p.reset != nil {
		p.reset(item)
	} else {
		var zero T
		*item = zero
	}
	return item
}

// RecycleAll releases every item of the current generation.
func (p *Pool[T]) RecycleAll() {
	p.used = 0
	p.generation++
}

// Live reports whether the item was acquired during the current generation.
func (p *Pool[T]) Live(item *T) bool {
	slot, ok := p.slots[item]
	return ok && slot < p.used && p.stamps[slot] == p.generation
}

// Len is the number of items in use.
func (p *Pool[T]) Len() int {
	return p.used
}

// Cap is the number of items allocated so far.
func (p *Pool[T]) Cap() int {
	return len(p.items)
}

func (p *Pool[T]) Generation() uint64 {
	return p.generation
}
