package render

// Named constants for the escape sequences a frame is built from. Using
// constants keeps the emitted vocabulary exact and avoids scattered string
// literals.
const (
	// Synchronized output (DEC private mode 2026). The terminal buffers
	// everything between the pair and flushes it atomically, so a frame
	// never appears half-drawn.
	escSyncBegin = "\x1b[?2026h"
	escSyncEnd   = "\x1b[?2026l"

	// escUpOneLine is reverse index (ESC M): cursor up one line, emitted
	// once per newline of the previous frame after a single carriage
	// return.
	escUpOneLine = "\x1bM"

	// escEraseBelow erases from the cursor to the end of the screen.
	escEraseBelow = "\x1b[J"
)

// Tree connectors use the DEC special graphics charset (ESC ( 0 selects it,
// ESC ( B restores US-ASCII) so the glyphs are locale-independent. Each
// connector occupies three terminal columns.
const (
	// TreeTee draws "├─ " before a node with a following sibling.
	TreeTee = "\x1b(0tq\x1b(B "
	// TreeLine draws "│  " for an ancestor that continues below.
	TreeLine = "\x1b(0x\x1b(B  "
	// TreeElbow draws "└─ " before the last node of a sibling list.
	TreeElbow = "\x1b(0mq\x1b(B "
	// treeBlank pads an ancestor column with no continuation.
	treeBlank = "   "

	connectorWidth = 3
)
