package render

import "progview/arena"

// The arena stores only parent links, so adjacency has to be rebuilt per
// frame. buildTree fills the renderer's first-child/next-sibling arrays from
// a snapshot: each node is pushed onto the head of its parent's child list,
// then every list is reversed so siblings read in snapshot order (ascending
// arena slot order, which is the documented sibling tie-break).
func (r *Renderer) buildTree(snap *arena.Snapshot) {
	n := len(snap.Nodes)
	first := r.firstChild[:n]
	next := r.nextSibling[:n]
	for i := range first {
		first[i] = -1
		next[i] = -1
	}

	// Head insertion deliberately reverses arrival order; it keeps the
	// pass O(1) per node with no extra storage.
	for i := 1; i < n; i++ {
		p := snap.Nodes[i].Parent
		if p < 0 {
			continue
		}
		next[i] = first[p]
		first[p] = int32(i)
	}

	// Second pass restores snapshot order.
	for i := 0; i < n; i++ {
		first[i] = reverseList(next, first[i])
	}
}

// reverseList reverses a sibling chain in place and returns the new head.
func reverseList(next []int32, head int32) int32 {
	var prev int32 = -1
	for head != -1 {
		n := next[head]
		next[head] = prev
		prev = head
		head = n
	}
	return prev
}
