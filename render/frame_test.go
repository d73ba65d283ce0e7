package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"progview/arena"
)

func snapshotOf(t *testing.T, build func(a *arena.Arena)) *arena.Snapshot {
	t.Helper()
	a := arena.New(64, "", 0)
	build(a)
	snap := arena.NewSnapshot(a.Capacity())
	a.Snapshot(snap)
	return snap
}

func frameOf(t *testing.T, snap *arena.Snapshot, cols, rows, prev int) ([]byte, int) {
	t.Helper()
	r := New(64)
	buf := make([]byte, 4096)
	out, lines := r.Frame(buf, snap, cols, rows, prev)
	got := make([]byte, len(out))
	copy(got, out)
	return got, lines
}

func TestFrameBuildCompile(t *testing.T) {
	a := arena.New(64, "build", 2)
	compile, _ := a.Alloc(arena.Root, "compile", 10)
	for i := 0; i < 10; i++ {
		a.CompleteOne(compile)
	}
	snap := arena.NewSnapshot(a.Capacity())
	a.Snapshot(snap)

	got, lines := frameOf(t, snap, 80, 24, 0)

	want := escSyncBegin + escEraseBelow +
		"[0/2] build\n" +
		TreeElbow + "[10/10] compile\n" +
		escSyncEnd
	if string(got) != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}
	if lines != 2 {
		t.Fatalf("lines = %d, want 2", lines)
	}
}

func TestFrameIdempotent(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		w, _ := a.Alloc(arena.Root, "worker", 3)
		a.Alloc(w, "step", 0)
	})
	first, n1 := frameOf(t, snap, 80, 24, 5)
	second, n2 := frameOf(t, snap, 80, 24, 5)
	if !bytes.Equal(first, second) || n1 != n2 {
		t.Fatalf("same snapshot rendered differently:\n%q\n%q", first, second)
	}
}

func TestFramePreamble(t *testing.T) {
	cases := []struct {
		name string
		prev int
		want string
	}{
		{"first_frame", 0, escSyncBegin + escEraseBelow},
		{"repaint_three", 3, escSyncBegin + "\r" + escUpOneLine + escUpOneLine + escUpOneLine + escEraseBelow},
	}
	snap := snapshotOf(t, func(a *arena.Arena) {})
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := frameOf(t, snap, 80, 24, c.prev)
			if !strings.HasPrefix(string(got), c.want) {
				t.Fatalf("frame prefix = %q, want %q", got, c.want)
			}
		})
	}
}

func TestClearFrame(t *testing.T) {
	buf := make([]byte, 256)
	got := Clear(buf, 2)
	want := escSyncBegin + "\r" + escUpOneLine + escUpOneLine + escEraseBelow + escSyncEnd
	if string(got) != want {
		t.Fatalf("clear frame = %q, want %q", got, want)
	}
}

func TestSiblingOrderAndConnectors(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		a.Alloc(arena.Root, "first", 0)
		a.Alloc(arena.Root, "second", 0)
		a.Alloc(arena.Root, "third", 0)
	})
	got, _ := frameOf(t, snap, 80, 24, 0)

	text := ansi.Strip(string(got))
	fi := strings.Index(text, "first")
	se := strings.Index(text, "second")
	th := strings.Index(text, "third")
	if fi < 0 || se < 0 || th < 0 || !(fi < se && se < th) {
		t.Fatalf("siblings out of creation order: %q", text)
	}

	lines := strings.Split(strings.TrimSuffix(stripEnds(string(got)), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], TreeTee) || !strings.HasPrefix(lines[1], TreeTee) {
		t.Fatalf("non-last siblings missing tee connector: %q", lines)
	}
	if !strings.HasPrefix(lines[2], TreeElbow) {
		t.Fatalf("last sibling missing elbow connector: %q", lines)
	}
}

func TestAncestorContinuationBar(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		w1, _ := a.Alloc(arena.Root, "w1", 0)
		a.Alloc(arena.Root, "w2", 0)
		a.Alloc(w1, "deep", 0)
	})
	got, _ := frameOf(t, snap, 80, 24, 0)

	// w1 has a later sibling, so its child's line starts with the vertical
	// continuation bar.
	want := TreeLine + TreeElbow + "deep\n"
	if !strings.Contains(string(got), want) {
		t.Fatalf("frame %q missing continuation line %q", got, want)
	}
}

func TestBlankPrefixForLastAncestor(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		w1, _ := a.Alloc(arena.Root, "only", 0)
		a.Alloc(w1, "deep", 0)
	})
	got, _ := frameOf(t, snap, 80, 24, 0)

	want := treeBlank + TreeElbow + "deep\n"
	if !strings.Contains(string(got), want) {
		t.Fatalf("frame %q missing blank-prefixed line %q", got, want)
	}
}

func TestCounterFormats(t *testing.T) {
	cases := []struct {
		name      string
		completed int
		total     int
		node      string
		want      string
	}{
		{"both", 3, 9, "n", "[3/9] n"},
		{"completed_only", 3, 0, "n", "[3] n"},
		{"name_only", 0, 0, "n", "n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			snap := snapshotOf(t, func(a *arena.Arena) {
				idx, _ := a.Alloc(arena.Root, c.node, c.total)
				a.SetCompleted(idx, c.completed)
			})
			got, _ := frameOf(t, snap, 80, 24, 0)
			want := TreeElbow + c.want + "\n"
			if !strings.Contains(string(got), want) {
				t.Fatalf("frame %q missing %q", got, want)
			}
		})
	}
}

func TestEmptyRootEmitsNoLine(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		a.Alloc(arena.Root, "child", 0)
	})
	_, lines := frameOf(t, snap, 80, 24, 0)
	if lines != 1 {
		t.Fatalf("lines = %d, want 1 (nameless countless root is omitted)", lines)
	}
}

func TestWidthTruncation(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		a.Alloc(arena.Root, "abcdefghijklmnopqrstuvwxyz", 0)
	})
	got, _ := frameOf(t, snap, 10, 24, 0)

	text := strings.TrimSuffix(ansi.Strip(string(got)), "\n")
	// Connector artifacts survive Strip as their raw glyph bytes; measure
	// the name tail only.
	if strings.Contains(text, "hijk") {
		t.Fatalf("name not truncated to column budget: %q", text)
	}
	if !strings.Contains(text, "abcd") {
		t.Fatalf("truncation removed too much: %q", text)
	}
}

func TestRowBound(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		for i := 0; i < 10; i++ {
			a.Alloc(arena.Root, "n", 0)
		}
	})
	_, lines := frameOf(t, snap, 80, 4, 0)
	if lines > 3 {
		t.Fatalf("emitted %d lines on a 4-row terminal", lines)
	}
}

func TestTinyBufferTruncatesSilently(t *testing.T) {
	snap := snapshotOf(t, func(a *arena.Arena) {
		for i := 0; i < 40; i++ {
			a.Alloc(arena.Root, "some-reasonably-long-step-name", 100)
		}
	})
	r := New(64)
	buf := make([]byte, 200)
	out, _ := r.Frame(buf, snap, 80, 0, 4)
	if len(out) > len(buf) {
		t.Fatalf("frame overran the caller's buffer: %d > %d", len(out), len(buf))
	}
}

// stripEnds removes the synchronized-update framing, leaving the tree body.
func stripEnds(frame string) string {
	frame = strings.TrimPrefix(frame, escSyncBegin)
	frame = strings.TrimPrefix(frame, escEraseBelow)
	return strings.TrimSuffix(frame, escSyncEnd)
}
