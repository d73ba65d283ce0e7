package progview

import "progview/arena"

// Node is an opaque handle to one live arena slot. The zero Node is the
// disabled handle: every operation on it is a silent no-op. Handles are
// meant to be held by one goroutine lineage at a time; the counters
// themselves are atomic, so sharing one handle is safe but the completed
// count then interleaves arbitrarily.
type Node struct {
	c   *Context
	idx arena.Index
	ok  bool
}

// Start creates a child of n with the given display name and estimated
// total item count (0 = unknown). When the arena is full, or n itself is
// disabled, the child is a disabled handle and that subtree simply never
// appears — reporting calls keep working.
func (n Node) Start(name string, estimatedTotal int) Node {
	if !n.ok {
		return Node{}
	}
	idx, ok := n.c.arena.Alloc(n.idx, name, estimatedTotal)
	if !ok {
		return Node{}
	}
	return Node{c: n.c, idx: idx, ok: true}
}

// CompleteOne adds one completed unit to n. Equivalent to starting and
// immediately ending a trivial child, implemented as a single atomic add.
func (n Node) CompleteOne() {
	if n.ok {
		n.c.arena.CompleteOne(n.idx)
	}
}

// SetCompletedItems overwrites n's completed count.
func (n Node) SetCompletedItems(count int) {
	if n.ok {
		n.c.arena.SetCompleted(n.idx, count)
	}
}

// SetEstimatedTotalItems overwrites n's estimated total; 0 means unknown.
func (n Node) SetEstimatedTotalItems(count int) {
	if n.ok {
		n.c.arena.SetEstimatedTotal(n.idx, count)
	}
}

// End finishes n. A non-root node credits its parent with one completed
// unit and returns its slot to the arena; the handle must not be used
// afterwards. Ending the root instead shuts the whole context down: the
// render goroutine clears the display and exits, and End blocks until it
// has. Ending an already-ended root is a safe no-op.
func (n Node) End() {
	if !n.ok {
		return
	}
	if n.idx == arena.Root {
		n.c.finish()
		return
	}
	n.c.arena.Free(n.idx)
}
