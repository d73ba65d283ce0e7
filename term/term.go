// Package term is the terminal collaborator: capability detection, geometry
// queries, resize signal wiring, and whole-frame writes. Every failure path
// degrades to "rendering disabled" — progress reporting must never become a
// reason the host program fails.
package term

import (
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// Terminal wraps the output handle and its last known geometry. After
// startup it is owned exclusively by the render goroutine; none of its
// methods are safe for concurrent use.
type Terminal struct {
	out   *os.File // nil once rendering is disabled
	rows  int
	cols  int
	fixed bool // geometry pinned, skip ioctl queries
}

// Open prepares f for frame output. When f is not a terminal the returned
// Terminal is permanently disabled: reporting stays valid, nothing is drawn.
func Open(f *os.File) *Terminal {
	if f == nil {
		return &Terminal{}
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return &Terminal{}
	}
	return &Terminal{out: f}
}

// NewFixed returns a terminal with pinned geometry writing to f, for hosts
// whose size cannot be queried (pipes in tests, dumb terminals forced on).
func NewFixed(f *os.File, cols, rows int) *Terminal {
	return &Terminal{out: f, cols: cols, rows: rows, fixed: true}
}

// Enabled reports whether frames will reach the terminal.
func (t *Terminal) Enabled() bool { return t.out != nil }

// Rows returns the last known row count, 0 if unknown.
func (t *Terminal) Rows() int { return t.rows }

// Cols returns the last known column count, 0 if unknown.
func (t *Terminal) Cols() int { return t.cols }

// SizeKnown reports whether a geometry query has succeeded yet.
func (t *Terminal) SizeKnown() bool { return t.cols > 0 && t.rows > 0 }

// RefreshSize re-queries the window size. A failing query disables
// rendering, the same degraded mode as an unusable terminal, rather than
// treating a cosmetic facility as fatal.
func (t *Terminal) RefreshSize() {
	if t.out == nil || t.fixed {
		return
	}
	ws, err := unix.IoctlGetWinsize(int(t.out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		t.out = nil
		return
	}
	t.rows = int(ws.Row)
	t.cols = int(ws.Col)
}

// Write sends one composed frame in a single write. A failed write disables
// rendering for the rest of the process; it is never retried.
func (t *Terminal) Write(frame []byte) {
	if t.out == nil || len(frame) == 0 {
		return
	}
	if _, err := t.out.Write(frame); err != nil {
		t.out = nil
	}
}

// NotifyResize routes the host's window-size-change signal to ch. The
// handler side only pokes the redraw event; the actual geometry query runs
// on the render goroutine via RefreshSize.
func NotifyResize(ch chan<- os.Signal) {
	signal.Notify(ch, unix.SIGWINCH)
}

// StopNotify unregisters ch from resize delivery.
func StopNotify(ch chan<- os.Signal) {
	signal.Stop(ch)
}
