package progview

import (
	"time"

	"progview/render"
	"progview/term"
)

// renderLoop is the body of the render goroutine, the sole snapshot reader
// and sole terminal writer. It waits out the initial delay, then alternates
// between drawing a frame and waiting for whichever comes first of the
// refresh interval, a resize signal, or shutdown.
func (c *Context) renderLoop() {
	defer close(c.done)
	defer term.StopNotify(c.winch)

	timer := time.NewTimer(c.initialDelay)
	defer timer.Stop()

	resized := false
	for {
		select {
		case <-timer.C:
		case <-c.redraw:
		case <-c.winch:
			resized = true
		}

		if c.shutdown.Load() {
			c.terminal.Write(render.Clear(c.buf, c.prevLines))
			return
		}

		if resized || !c.terminal.SizeKnown() {
			c.terminal.RefreshSize()
			resized = false
		}
		c.renderFrame()

		// Drain a stale expiry before re-arming, or the next wait returns
		// immediately.
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.refreshRate)
	}
}

// renderFrame takes one snapshot, composes it, and writes it in a single
// terminal write. A frame always completes once started; shutdown is only
// observed between frames.
func (c *Context) renderFrame() {
	if !c.terminal.Enabled() {
		return
	}
	c.arena.Snapshot(c.snap)
	frame, lines := c.renderer.Frame(c.buf, c.snap, c.terminal.Cols(), c.terminal.Rows(), c.prevLines)
	c.terminal.Write(frame)
	c.prevLines = lines
}
