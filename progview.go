// Package progview is a process-wide, non-blocking progress reporter.
// Worker goroutines report hierarchical task progress through Node handles
// into a fixed-capacity arena, while one background goroutine periodically
// redraws the hierarchy as an indented tree on the terminal. Reporting never
// blocks, never locks, and never fails: every degraded condition (full
// arena, missing terminal, failed write) silently turns the affected
// handles into no-ops.
package progview

import (
	"os"
	"sync/atomic"
	"time"

	"progview/arena"
	"progview/render"
	"progview/term"
)

// Defaults applied by Start for zero Options fields.
const (
	DefaultCapacity     = 128
	DefaultBufferLen    = 4096
	DefaultRefreshRate  = 80 * time.Millisecond
	DefaultInitialDelay = 500 * time.Millisecond

	// MinBufferLen is the smallest accepted draw buffer; anything shorter
	// is replaced. Frames larger than the buffer truncate silently.
	MinBufferLen = 200
)

// Options configures a Context at startup. The zero value is usable.
type Options struct {
	// Output receives frames; defaults to os.Stderr. Rendering is disabled
	// when it is not a terminal.
	Output *os.File

	// DrawBuffer is the scratch space frames are composed in. Shorter than
	// MinBufferLen (including nil) allocates a DefaultBufferLen buffer.
	DrawBuffer []byte

	// RefreshRate is the steady-state redraw interval.
	RefreshRate time.Duration

	// InitialDelay holds back the first frame so short-lived work never
	// flashes a progress tree.
	InitialDelay time.Duration

	// RootName labels the root node; empty is fine.
	RootName string

	// EstimatedTotal is the root's estimated total item count, 0 if
	// unknown.
	EstimatedTotal int

	// Capacity is the node slot count; allocation beyond it degrades to
	// disabled handles.
	Capacity int
}

func (o Options) withDefaults() Options {
	if o.Output == nil {
		o.Output = os.Stderr
	}
	if len(o.DrawBuffer) < MinBufferLen {
		o.DrawBuffer = make([]byte, DefaultBufferLen)
	}
	if o.RefreshRate <= 0 {
		o.RefreshRate = DefaultRefreshRate
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	return o
}

// Context owns the arena, the terminal and the render goroutine. Create one
// per process with Start; tear it down by ending the root node. All
// reporting operations take the context along implicitly through their Node
// handle, so two independent contexts in one process are possible but each
// assumes sole ownership of its output handle.
type Context struct {
	arena    *arena.Arena
	snap     *arena.Snapshot
	renderer *render.Renderer
	terminal *term.Terminal
	buf      []byte

	refreshRate  time.Duration
	initialDelay time.Duration

	shutdown atomic.Bool
	redraw   chan struct{} // cap 1: settable, self-resetting on receive
	winch    chan os.Signal
	done     chan struct{}

	// render goroutine only
	prevLines int
}

// Start builds a context and spawns its render goroutine. When the output
// is not a terminal the returned context is disabled: Root() hands out a
// disabled handle and every operation on it is a no-op.
func Start(opts Options) *Context {
	opts = opts.withDefaults()
	return startWith(opts, term.Open(opts.Output))
}

// startWith wires a context to an already-opened terminal; split out so
// tests can substitute a fixed-geometry terminal on a pipe.
func startWith(opts Options, t *term.Terminal) *Context {
	c := &Context{
		terminal:     t,
		done:         make(chan struct{}),
		refreshRate:  opts.RefreshRate,
		initialDelay: opts.InitialDelay,
	}
	if !t.Enabled() {
		close(c.done)
		return c
	}

	c.arena = arena.New(opts.Capacity, opts.RootName, opts.EstimatedTotal)
	c.snap = arena.NewSnapshot(c.arena.Capacity())
	c.renderer = render.New(c.arena.Capacity())
	c.buf = opts.DrawBuffer
	c.redraw = make(chan struct{}, 1)
	c.winch = make(chan os.Signal, 1)
	term.NotifyResize(c.winch)

	go c.renderLoop()
	return c
}

// Disabled reports whether this context will never draw anything.
func (c *Context) Disabled() bool { return c.arena == nil }

// Root returns the root node handle, or a disabled handle on a disabled
// context. Ending the root tears the whole context down.
func (c *Context) Root() Node {
	if c.Disabled() {
		return Node{}
	}
	return Node{c: c, idx: arena.Root, ok: true}
}

// signalRedraw sets the redraw event without blocking; a set event stays
// set until the render goroutine consumes it.
func (c *Context) signalRedraw() {
	select {
	case c.redraw <- struct{}{}:
	default:
	}
}

// finish is the root-end path: raise the shutdown flag, wake the render
// goroutine immediately, and wait for it to clear the display and exit.
// This is the one deliberate blocking point in the package, bounded by at
// most one render pass.
func (c *Context) finish() {
	if c.Disabled() {
		return
	}
	if c.shutdown.CompareAndSwap(false, true) {
		c.signalRedraw()
	}
	<-c.done
}
