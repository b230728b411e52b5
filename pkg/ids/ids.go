// Package ids issues the integer identities of the topology graph.
package ids

import "sync/atomic"

// Allocator hands out identities from two independent counters: one shared by
// nodes and slots, one shared by every edge. Both are safe for concurrent use;
// ordering is only guaranteed within a counter.
type Allocator struct {
	vertices atomic.Int64
	edges    atomic.Int64
}

// New returns an allocator starting both counters at zero.
func New() *Allocator {
	return &Allocator{}
}

// NextID returns the next node/slot identity.
func (a *Allocator) NextID() int {
	return int(a.vertices.Add(1) - 1)
}

// NextEdgeID returns the next edge identity.
func (a *Allocator) NextEdgeID() int {
	return int(a.edges.Add(1) - 1)
}

// Restore makes next the following node/slot identity.
// It never moves the counter backwards.
func (a *Allocator) Restore(next int) {
	for {
		cur := a.vertices.Load()
		if int64(next) <= cur {
			return
		}
		if a.vertices.CompareAndSwap(cur, int64(next)) {
			return
		}
	}
}

// Reset puts both counters back to zero.
func (a *Allocator) Reset() {
	a.vertices.Store(0)
	a.edges.Store(0)
}

// Peek returns the identities the next calls would return, without consuming them.
func (a *Allocator) Peek() (id, edge int) {
	return int(a.vertices.Load()), int(a.edges.Load())
}
