// progview-demo simulates a parallel build so the progress tree can be
// watched live: N workers each compile a handful of files, reporting
// per-file progress under their own node.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"progview"
	"progview/util"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BE9FD"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
)

func main() {
	workers := flag.Int("workers", 4, "Concurrent workers")
	files := flag.Int("files", 6, "Files per worker")
	steps := flag.Int("steps", 20, "Units of work per file")
	maxDelay := flag.Int("max-delay", 30, "Max per-unit delay in milliseconds")
	flag.Parse()

	ctx := progview.Start(progview.Options{
		RootName:       "build",
		EstimatedTotal: *workers,
		InitialDelay:   100 * time.Millisecond,
	})
	root := ctx.Root()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < *workers; w++ {
		w := w
		g.Go(func() error {
			wn := root.Start(fmt.Sprintf("worker %d", w), *files)
			for f := 0; f < *files; f++ {
				fn := wn.Start(fmt.Sprintf("file%d.c", f), *steps)
				for s := 0; s < *steps; s++ {
					time.Sleep(time.Duration(rand.Intn(*maxDelay+1)) * time.Millisecond)
					fn.CompleteOne()
				}
				fn.End()
			}
			wn.End()
			return nil
		})
	}
	g.Wait()
	root.End()

	elapsed := time.Since(start)
	units := uint64(*workers * *files * *steps)
	fmt.Println(titleStyle.Render("build finished"))
	fmt.Printf("%s %s\n", dimStyle.Render("elapsed:"), elapsed.Round(time.Millisecond))
	fmt.Printf("%s %s\n", dimStyle.Render("rate:   "),
		okStyle.Render(fmt.Sprintf("%.0f units/s (%.0f%% of plan)",
			util.Rate(units, elapsed), util.Percent(units, units))))
	if ctx.Disabled() {
		fmt.Println(dimStyle.Render("(progress display was disabled: stderr is not a terminal)"))
	}
}
