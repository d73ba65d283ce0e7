// Package arena implements the fixed-capacity node store shared between
// reporting goroutines and the render goroutine.
//
// The store is a set of parallel arrays indexed by node slot: a parent link,
// two counters, a name, and a freelist link per slot. Reporting goroutines
// allocate, mutate and free slots with single atomic operations; the render
// goroutine is the only reader and copies the live prefix of the arrays with
// an optimistic consistency protocol (see snapshot.go). No per-node memory is
// allocated after the arena is built.
package arena

import (
	"fmt"
	"sync/atomic"
)

// Index identifies one slot in the arena. Index 0 is always the root.
type Index uint32

// Root is the slot reserved for the root node for the arena's lifetime.
const Root Index = 0

// parentSlot is the tri-state parent link packed into one atomic word.
// The two top values of the uint32 range are reserved as sentinels, so the
// usable index space is [0, slotRoot).
type parentSlot uint32

const (
	// slotUnused marks a slot that is on the freelist, was never used, or
	// was just retired. It doubles as the "not live" marker for snapshots.
	slotUnused parentSlot = 0xFFFFFFFF
	// slotRoot marks the root slot, which has no parent.
	slotRoot parentSlot = 0xFFFFFFFE
)

// freeNone terminates the freelist.
const freeNone uint32 = 0xFFFFFFFF

// The freelist head packs {generation, index} into one atomic word. The
// generation advances on every push, so a compare-and-swap taken against a
// stale head fails even when the same slot index has circulated back to the
// top in the meantime (the classic ABA hazard of a Treiber stack over
// recycled indices).
func packHead(gen, idx uint32) uint64 { return uint64(gen)<<32 | uint64(idx) }
func headGen(h uint64) uint32         { return uint32(h >> 32) }
func headIndex(h uint64) uint32       { return uint32(h) }

// MaxCapacity is the largest usable slot count; the two values above it are
// sentinel encodings.
const MaxCapacity = int(slotRoot)

// MaxNameLen is the byte length node names are truncated to at creation.
const MaxNameLen = 80

func (p parentSlot) isUnused() bool { return p == slotUnused }
func (p parentSlot) isRoot() bool   { return p == slotRoot }
func (p parentSlot) isChild() bool  { return p < slotRoot }
func (p parentSlot) index() Index   { return Index(p) }

// childOf encodes a real parent index. A child of the root stores index 0;
// slotRoot itself only ever appears in the root slot.
func childOf(parent Index) parentSlot { return parentSlot(parent) }

// Arena is the shared node store. All fields are sized once at construction.
type Arena struct {
	capacity uint32

	parents   []atomic.Uint32
	completed []atomic.Uint64
	total     []atomic.Uint64
	names     []atomic.Pointer[string]

	freeNext []atomic.Uint32
	freeHead atomic.Uint64 // {generation, index}, see packHead

	// nextUnused is the high-water mark: slots at or above it have never
	// been handed out and are not on the freelist.
	nextUnused atomic.Uint32
}

// New builds an arena with the given slot capacity and installs the root
// node at index 0. Capacity is clamped to [2, MaxCapacity].
func New(capacity int, rootName string, rootTotal int) *Arena {
	if capacity < 2 {
		capacity = 2
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	a := &Arena{
		capacity:  uint32(capacity),
		parents:   make([]atomic.Uint32, capacity),
		completed: make([]atomic.Uint64, capacity),
		total:     make([]atomic.Uint64, capacity),
		names:     make([]atomic.Pointer[string], capacity),
		freeNext:  make([]atomic.Uint32, capacity),
	}
	for i := range a.parents {
		a.parents[i].Store(uint32(slotUnused))
		a.freeNext[i].Store(freeNone)
	}
	a.freeHead.Store(packHead(0, freeNone))

	name := truncateName(rootName)
	a.names[Root].Store(&name)
	a.total[Root].Store(clampCount(rootTotal))
	a.parents[Root].Store(uint32(slotRoot))
	a.nextUnused.Store(1)
	return a
}

// Capacity reports the slot count the arena was built with.
func (a *Arena) Capacity() int { return int(a.capacity) }

// Alloc claims a slot for a new child of parent, initializes its counters
// and name, and publishes it. It never blocks and never allocates beyond the
// name string escaping to the heap. Returns false when the arena is full;
// callers degrade to a disabled handle rather than failing.
func (a *Arena) Alloc(parent Index, name string, estimatedTotal int) (Index, bool) {
	idx, ok := a.popFree()
	if !ok {
		n := a.nextUnused.Add(1)
		if n > a.capacity {
			// Roll the mark back so later frees can still grow into it.
			a.nextUnused.Add(^uint32(0))
			return 0, false
		}
		idx = Index(n - 1)
	}

	if got := parentSlot(a.parents[idx].Load()); !got.isUnused() {
		panic(fmt.Sprintf("arena: slot %d handed out while live (parent=%#x)", idx, got))
	}

	nm := truncateName(name)
	a.names[idx].Store(&nm)
	a.completed[idx].Store(0)
	a.total[idx].Store(clampCount(estimatedTotal))
	// Publish last: a reader that observes this parent link is guaranteed
	// to see the counters and name stored above.
	a.parents[idx].Store(uint32(childOf(parent)))
	return idx, true
}

// Free retires a live non-root slot: the parent is credited one completed
// unit, the slot is marked unused, then recycled through the freelist.
// The unused store must precede the freelist push, otherwise a concurrent
// Alloc could republish the slot while a reader still attributes it to the
// old node.
func (a *Arena) Free(idx Index) {
	p := parentSlot(a.parents[idx].Load())
	if p.isUnused() {
		panic(fmt.Sprintf("arena: double free of slot %d", idx))
	}
	if p.isRoot() {
		panic("arena: root slot is retired with the arena, not freed")
	}
	a.completed[p.index()].Add(1)
	a.parents[idx].Store(uint32(slotUnused))
	a.pushFree(idx)
}

// CompleteOne adds one completed unit to the node.
func (a *Arena) CompleteOne(idx Index) {
	a.completed[idx].Add(1)
}

// SetCompleted overwrites the node's completed count. Negative values clamp
// to zero.
func (a *Arena) SetCompleted(idx Index, n int) {
	a.completed[idx].Store(clampCount(n))
}

// SetEstimatedTotal overwrites the node's estimated total. Zero means
// unknown; negative values clamp to zero.
func (a *Arena) SetEstimatedTotal(idx Index, n int) {
	a.total[idx].Store(clampCount(n))
}

// popFree pops the freelist head. Classic lock-free stack pop: retried on
// CAS failure, never blocks. The generation carried in the head word makes
// the CAS fail if the list was popped and repushed behind our back, so a
// stale `next` can never be installed over a live chain.
func (a *Arena) popFree() (Index, bool) {
	for {
		head := a.freeHead.Load()
		idx := headIndex(head)
		if idx == freeNone {
			return 0, false
		}
		next := a.freeNext[idx].Load()
		if a.freeHead.CompareAndSwap(head, packHead(headGen(head), next)) {
			return Index(idx), true
		}
	}
}

// pushFree links idx back onto the freelist, advancing the generation.
func (a *Arena) pushFree(idx Index) {
	for {
		head := a.freeHead.Load()
		a.freeNext[idx].Store(headIndex(head))
		if a.freeHead.CompareAndSwap(head, packHead(headGen(head)+1, uint32(idx))) {
			return
		}
	}
}

func truncateName(s string) string {
	if len(s) > MaxNameLen {
		return s[:MaxNameLen]
	}
	return s
}

func clampCount(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
