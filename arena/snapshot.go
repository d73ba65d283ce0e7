package arena

// Node is one consistent copy of a live slot. Parent is an index into the
// same Snapshot, or -1 for the root.
type Node struct {
	Parent    int
	Completed uint64
	Total     uint64
	Name      string
}

// Snapshot holds a compacted, self-consistent copy of the arena's live
// prefix. All backing storage is sized once and reused across frames.
type Snapshot struct {
	Nodes []Node

	// scratch, indexed by arena slot / copy order
	remap      []int32 // arena index -> copy index, -1 if not captured
	origParent []int32 // per copied node: arena index of parent, -1 for root
	fate       []int8  // per copied node: 0 unknown, 1 kept, 2 dropped
	final      []int32 // per copied node: compacted index, -1 if dropped
	copied     []Node
	walk       []int32
}

// NewSnapshot sizes a snapshot for an arena of the given capacity.
func NewSnapshot(capacity int) *Snapshot {
	return &Snapshot{
		Nodes:      make([]Node, 0, capacity),
		remap:      make([]int32, capacity),
		origParent: make([]int32, 0, capacity),
		fate:       make([]int8, capacity),
		final:      make([]int32, capacity),
		copied:     make([]Node, 0, capacity),
		walk:       make([]int32, 0, capacity),
	}
}

const (
	fateUnknown int8 = iota
	fateKept
	fateDropped
)

// Snapshot copies every live slot below the current high-water mark into s.
//
// Called only from the render goroutine; there is never more than one reader.
// Each slot is copied optimistically: the parent link is read before and
// after the counter/name copy, and the copy is discarded if the link changed
// in between (the slot was freed or reused mid-copy — it will be captured on
// a later frame). Counters are not part of the consistency witness: a torn
// counter pair is acceptable for a best-effort display, a torn parent link
// is not, because it corrupts tree shape.
func (a *Arena) Snapshot(s *Snapshot) {
	// A failed Alloc on a full arena bumps the high-water mark past
	// capacity before rolling it back; a read inside that window must not
	// walk off the arrays.
	end := a.nextUnused.Load()
	if end > a.capacity {
		end = a.capacity
	}

	s.copied = s.copied[:0]
	s.origParent = s.origParent[:0]
	// Clear the whole table, not just [0, end): a copied child can name a
	// parent slot allocated after end was read, and a stale entry from the
	// previous frame there would silently mis-attribute it.
	for i := range s.remap {
		s.remap[i] = -1
	}

	// Pass 1: optimistic per-slot copy.
	for i := uint32(0); i < end; i++ {
		for {
			begin := parentSlot(a.parents[i].Load())
			if begin.isUnused() {
				break
			}
			namep := a.names[i].Load()
			completed := a.completed[i].Load()
			total := a.total[i].Load()
			if parentSlot(a.parents[i].Load()) != begin {
				// Freed or recycled under us; re-examine the slot.
				continue
			}
			var name string
			if namep != nil {
				name = *namep
			}
			parent := int32(-1)
			if begin.isChild() {
				parent = int32(begin.index())
			}
			s.remap[i] = int32(len(s.copied))
			s.copied = append(s.copied, Node{Completed: completed, Total: total, Name: name})
			s.origParent = append(s.origParent, parent)
			break
		}
	}

	// Pass 2: resolve parent links through the remap table and drop any
	// node whose ancestry was not captured this pass. A live child cannot
	// outlive its parent (Free marks the slot unused before recycling it),
	// so a missing parent means this copy raced a free and is stale.
	for j := range s.copied {
		s.fate[j] = fateUnknown
	}
	for j := range s.copied {
		s.resolveFate(int32(j))
	}

	// Pass 3: compact the kept nodes, preserving copy order.
	s.Nodes = s.Nodes[:0]
	for j := range s.copied {
		if s.fate[j] != fateKept {
			s.final[j] = -1
			continue
		}
		s.final[j] = int32(len(s.Nodes))
		s.Nodes = append(s.Nodes, s.copied[j])
	}
	for j := range s.copied {
		if s.fate[j] != fateKept {
			continue
		}
		n := &s.Nodes[s.final[j]]
		if p := s.origParent[j]; p >= 0 {
			n.Parent = int(s.final[s.remap[p]])
		} else {
			n.Parent = -1
		}
	}
}

// resolveFate walks up the parent chain of copied node j until it hits a
// node with a known fate (or the root), then marks the whole path. The walk
// is bounded by the copy count: per-slot copies are taken at different
// instants, so heavy churn can stitch a transient cycle out of otherwise
// individually-consistent copies, and such a chain is dropped whole.
func (s *Snapshot) resolveFate(j int32) {
	s.walk = s.walk[:0]
	verdict := fateKept
	for s.fate[j] == fateUnknown {
		if len(s.walk) > len(s.copied) {
			verdict = fateDropped
			break
		}
		p := s.origParent[j]
		if p < 0 {
			break // root
		}
		pj := s.remap[p]
		if pj < 0 {
			verdict = fateDropped
			break
		}
		s.walk = append(s.walk, j)
		j = pj
	}
	if s.fate[j] == fateDropped {
		verdict = fateDropped
	} else if s.fate[j] == fateUnknown {
		s.fate[j] = verdict
	} else {
		verdict = s.fate[j]
	}
	for _, w := range s.walk {
		s.fate[w] = verdict
	}
}
