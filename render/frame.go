// Package render turns an arena snapshot into one terminal frame: it
// rebuilds child adjacency from the flat parent array, then walks the tree
// depth-first composing an indented, connector-drawn text block into a
// caller-provided buffer, bracketed by a synchronized-update pair and the
// cursor math that repaints over the previous frame.
package render

import (
	"strconv"

	"github.com/mattn/go-runewidth"

	"progview/arena"
)

// fallbackCols is used when terminal geometry is not known yet.
const fallbackCols = 80

// Renderer holds the per-frame scratch state. It is owned by the render
// goroutine; nothing here is safe for concurrent use.
type Renderer struct {
	firstChild  []int32
	nextSibling []int32
	// hasSibling[d] records, per ancestor depth, whether that ancestor has
	// a later sibling (draw a continuation bar) or not (draw blanks).
	hasSibling []bool
}

// New sizes a renderer for snapshots of at most capacity nodes.
func New(capacity int) *Renderer {
	return &Renderer{
		firstChild:  make([]int32, capacity),
		nextSibling: make([]int32, capacity),
		hasSibling:  make([]bool, capacity),
	}
}

// frameWriter appends into a fixed caller-supplied buffer. Writes past the
// end are dropped silently: an oversized frame truncates, it never grows
// the buffer and never panics.
type frameWriter struct {
	buf []byte
	n   int
}

func (w *frameWriter) writeString(s string) {
	w.n += copy(w.buf[w.n:], s)
}

func (w *frameWriter) writeByte(b byte) {
	if w.n < len(w.buf) {
		w.buf[w.n] = b
		w.n++
	}
}

// Frame composes one full redraw of snap into buf and reports the slice
// written plus the number of newlines emitted (the next frame's cursor
// repositioning distance). prevLines is the previous frame's newline count;
// cols and rows bound the drawing area (non-positive cols falls back to 80,
// non-positive rows leaves height unbounded).
func (r *Renderer) Frame(buf []byte, snap *arena.Snapshot, cols, rows, prevLines int) ([]byte, int) {
	w := frameWriter{buf: buf}
	writePreamble(&w, prevLines)

	lines := 0
	if len(snap.Nodes) > 0 {
		r.buildTree(snap)
		maxLines := -1
		if rows > 0 {
			maxLines = rows - 1
		}
		if cols <= 0 {
			cols = fallbackCols
		}
		lines = r.drawTree(&w, snap, cols, maxLines)
	}

	w.writeString(escSyncEnd)
	return w.buf[:w.n], lines
}

// Clear composes the frame that erases all progress output, written once at
// shutdown.
func Clear(buf []byte, prevLines int) []byte {
	w := frameWriter{buf: buf}
	writePreamble(&w, prevLines)
	w.writeString(escSyncEnd)
	return w.buf[:w.n]
}

// writePreamble repositions the cursor to the first line of the previous
// frame and erases everything below it.
func writePreamble(w *frameWriter, prevLines int) {
	w.writeString(escSyncBegin)
	if prevLines > 0 {
		w.writeByte('\r')
		for i := 0; i < prevLines; i++ {
			w.writeString(escUpOneLine)
		}
	}
	w.writeString(escEraseBelow)
}

// drawTree walks the reconstructed tree pre-order from the root and emits
// one line per node, depth-first into the first child then across siblings.
// Returns the number of newlines written.
func (r *Renderer) drawTree(w *frameWriter, snap *arena.Snapshot, cols, maxLines int) int {
	lines := 0

	// Root line carries no connector; skip it entirely when it has nothing
	// to say so a nameless, countless root does not waste a terminal row.
	root := snap.Nodes[0]
	if maxLines == 0 {
		return 0
	}
	if hasText(root) {
		budget := cols
		writeNodeText(w, root, &budget)
		w.writeByte('\n')
		lines++
	}

	var walk func(node int32, depth int) bool
	walk = func(node int32, depth int) bool {
		for node != -1 {
			if maxLines >= 0 && lines >= maxLines {
				return false
			}
			later := r.nextSibling[node] != -1
			budget := cols

			for d := 1; d < depth; d++ {
				if budget < connectorWidth {
					break
				}
				if r.hasSibling[d] {
					w.writeString(TreeLine)
				} else {
					w.writeString(treeBlank)
				}
				budget -= connectorWidth
			}
			if budget >= connectorWidth {
				if later {
					w.writeString(TreeTee)
				} else {
					w.writeString(TreeElbow)
				}
				budget -= connectorWidth
			}
			writeNodeText(w, snap.Nodes[node], &budget)
			w.writeByte('\n')
			lines++

			r.hasSibling[depth] = later
			if !walk(r.firstChild[node], depth+1) {
				return false
			}
			node = r.nextSibling[node]
		}
		return true
	}
	walk(r.firstChild[0], 1)
	return lines
}

// hasText reports whether the node renders anything at all: nodes with no
// counters and an empty name contribute structure but no text.
func hasText(n arena.Node) bool {
	return n.Total != 0 || n.Completed != 0 || n.Name != ""
}

// writeNodeText emits "[completed/total] name", "[completed] name" or just
// the name, truncated to the remaining column budget.
func writeNodeText(w *frameWriter, n arena.Node, budget *int) {
	if *budget <= 0 {
		return
	}
	var text string
	switch {
	case n.Total > 0:
		text = "[" + strconv.FormatUint(n.Completed, 10) + "/" + strconv.FormatUint(n.Total, 10) + "] " + n.Name
	case n.Completed > 0:
		text = "[" + strconv.FormatUint(n.Completed, 10) + "] " + n.Name
	default:
		text = n.Name
	}
	text = runewidth.Truncate(text, *budget, "")
	w.writeString(text)
	*budget -= runewidth.StringWidth(text)
}
