package window

import (
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/docreader/internal/doctree"
)

func makeChunks(n int) []doctree.Chunk {
	chunks := make([]doctree.Chunk, n)
	for i := range chunks {
		chunks[i] = doctree.Chunk{ID: fmt.Sprintf("chunk_%d", i), Index: i, Page: i + 1, Content: "x"}
	}
	return chunks
}

func assertBounds(t *testing.T, m *Manager, wantLo, wantHi int) {
	t.Helper()
	lo, hi, ok := m.Bounds()
	if !ok {
		t.Fatalf("expected non-empty window [%d,%d]", wantLo, wantHi)
	}
	if lo != wantLo || hi != wantHi {
		t.Fatalf("expected window [%d,%d], got [%d,%d]", wantLo, wantHi, lo, hi)
	}
}

func assertContiguous(t *testing.T, m *Manager) {
	t.Helper()
	res := m.Resident()
	for i := 1; i < len(res); i++ {
		if res[i].Index != res[i-1].Index+1 {
			t.Fatalf("expected contiguous window, got %d after %d", res[i].Index, res[i-1].Index)
		}
	}
}

func TestInitializeAndExpandDown(t *testing.T) {
	m := NewManager(makeChunks(100), Config{Radius: 5, MaxResident: 11})
	m.Initialize(20)
	assertBounds(t, m, 15, 25)

	d := m.ExpandDown()
	assertBounds(t, m, 20, 30)
	if d.Added != 5 || d.Trimmed != 5 {
		t.Errorf("expected added=5 trimmed=5, got %+v", d)
	}
	if m.Len() != 11 {
		t.Errorf("expected 11 resident chunks, got %d", m.Len())
	}
}

func TestExpandUpTrimsTail(t *testing.T) {
	m := NewManager(makeChunks(100), Config{Radius: 5, MaxResident: 11})
	m.Initialize(50)
	m.ExpandUp()
	assertBounds(t, m, 40, 50)
}

func TestInitializeNearEdges(t *testing.T) {
	m := NewManager(makeChunks(8), Config{Radius: 5, MaxResident: 50})
	m.Initialize(0)
	assertBounds(t, m, 0, 5)

	m.Initialize(7)
	assertBounds(t, m, 2, 7)
}

func TestInitializeFallsBackWhenAnchorOutOfRange(t *testing.T) {
	m := NewManager(makeChunks(30), Config{Radius: 5, MaxResident: 50})
	m.Initialize(500)
	assertBounds(t, m, 0, 10)
	if m.Anchor() != 0 {
		t.Errorf("expected anchor 0, got %d", m.Anchor())
	}
}

func TestInitializeRespectsCap(t *testing.T) {
	m := NewManager(makeChunks(100), Config{Radius: 10, MaxResident: 7})
	m.Initialize(50)
	if m.Len() != 7 {
		t.Fatalf("expected 7 resident chunks, got %d", m.Len())
	}
	lo, hi, _ := m.Bounds()
	if lo > 50 || hi < 50 {
		t.Errorf("expected anchor 50 inside [%d,%d]", lo, hi)
	}
}

func TestInitializeCapStaysInsideSequence(t *testing.T) {
	tests := []struct {
		anchor         int
		wantLo, wantHi int
	}{
		{anchor: 9, wantLo: 7, wantHi: 9},
		{anchor: 8, wantLo: 7, wantHi: 9},
		{anchor: 0, wantLo: 0, wantHi: 2},
		{anchor: 1, wantLo: 0, wantHi: 2},
		{anchor: 5, wantLo: 4, wantHi: 6},
	}
	for _, tc := range tests {
		m := NewManager(makeChunks(10), Config{Radius: 5, MaxResident: 3})
		m.Initialize(tc.anchor)
		assertBounds(t, m, tc.wantLo, tc.wantHi)
		if got := len(m.Resident()); got != 3 {
			t.Errorf("anchor %d: expected 3 resident chunks, got %d", tc.anchor, got)
		}
		if m.Anchor() != tc.anchor {
			t.Errorf("anchor %d: expected anchor kept, got %d", tc.anchor, m.Anchor())
		}
		assertContiguous(t, m)
	}

	m := NewManager(makeChunks(10), Config{Radius: 5, MaxResident: 3})
	if !m.Jump(9) {
		t.Fatal("expected jump to last chunk to succeed")
	}
	if res := m.Resident(); res[len(res)-1].Index != 9 {
		t.Errorf("expected window to end at chunk 9, got %d", res[len(res)-1].Index)
	}
}

func TestEmptySequence(t *testing.T) {
	m := NewManager(nil, DefaultConfig())
	m.Initialize(3)
	if _, _, ok := m.Bounds(); ok {
		t.Fatal("expected empty window")
	}
	if d := m.ExpandDown(); d.Changed() {
		t.Errorf("expected no-op, got %+v", d)
	}
	if d := m.ExpandUp(); d.Changed() {
		t.Errorf("expected no-op, got %+v", d)
	}
	if len(m.Resident()) != 0 {
		t.Errorf("expected no resident chunks")
	}
}

func TestBoundaryNoops(t *testing.T) {
	m := NewManager(makeChunks(6), Config{Radius: 5, MaxResident: 50})
	m.Initialize(2)
	assertBounds(t, m, 0, 5)
	if d := m.ExpandUp(); d.Changed() {
		t.Errorf("expected no-op at start, got %+v", d)
	}
	if d := m.ExpandDown(); d.Changed() {
		t.Errorf("expected no-op at end, got %+v", d)
	}
	if !m.AtStart() || !m.AtEnd() {
		t.Error("expected window to touch both ends")
	}
}

func TestRepeatedExpansionKeepsInvariants(t *testing.T) {
	m := NewManager(makeChunks(300), Config{Radius: 5, MaxResident: 50})
	m.Initialize(150)
	prevHi := 0
	for i := 0; i < 40; i++ {
		m.ExpandDown()
		_, hi, _ := m.Bounds()
		if hi < prevHi {
			t.Fatalf("expected hi to never decrease, got %d after %d", hi, prevHi)
		}
		prevHi = hi
		if m.Len() > 50 {
			t.Fatalf("expected at most 50 resident, got %d", m.Len())
		}
		assertContiguous(t, m)
	}
	if !m.AtEnd() {
		t.Error("expected window at end of sequence")
	}
	for i := 0; i < 80; i++ {
		m.ExpandUp()
		if m.Len() > 50 {
			t.Fatalf("expected at most 50 resident, got %d", m.Len())
		}
		assertContiguous(t, m)
	}
	assertBounds(t, m, 0, 49)
}

func TestJumpAndFocus(t *testing.T) {
	m := NewManager(makeChunks(100), Config{Radius: 5, MaxResident: 50})
	m.Initialize(0)
	if !m.Jump(70) {
		t.Fatal("expected jump to succeed")
	}
	assertBounds(t, m, 65, 75)
	if m.Anchor() != 70 {
		t.Errorf("expected anchor 70, got %d", m.Anchor())
	}
	if m.Jump(100) {
		t.Error("expected jump past end to fail")
	}
	assertBounds(t, m, 65, 75)

	if !m.Focus(72) || m.Anchor() != 72 {
		t.Errorf("expected focus on 72, got anchor %d", m.Anchor())
	}
	if m.Focus(10) {
		t.Error("expected focus outside window to be ignored")
	}
}

func TestTriggerThresholdsAndInterval(t *testing.T) {
	tr := NewTrigger(500 * time.Millisecond)
	base := time.Unix(1000, 0)

	if got := tr.OnScroll(0.5, base); got != None {
		t.Errorf("expected none in the middle, got %q", got)
	}
	if got := tr.OnScroll(0.95, base); got != Down {
		t.Errorf("expected down, got %q", got)
	}
	if got := tr.OnScroll(0.05, base.Add(100*time.Millisecond)); got != None {
		t.Errorf("expected debounced request, got %q", got)
	}
	if got := tr.OnScroll(0.05, base.Add(600*time.Millisecond)); got != Up {
		t.Errorf("expected up after interval, got %q", got)
	}
}

func TestTriggerThresholdsAreStrict(t *testing.T) {
	base := time.Unix(2000, 0)
	for _, f := range []float64{nearTop, nearBottom, 0.5} {
		tr := NewTrigger(time.Millisecond)
		if got := tr.OnScroll(f, base); got != None {
			t.Errorf("fraction %g: expected none, got %q", f, got)
		}
	}
	if got := NewTrigger(time.Millisecond).OnScroll(0.0999, base); got != Up {
		t.Errorf("expected up just below 0.1, got %q", got)
	}
	if got := NewTrigger(time.Millisecond).OnScroll(0.9001, base); got != Down {
		t.Errorf("expected down just above 0.9, got %q", got)
	}
}

func TestScroller(t *testing.T) {
	m := NewManager(makeChunks(100), Config{Radius: 5, MaxResident: 50})
	m.Initialize(20)
	s := NewScroller(m, NewTrigger(time.Second))
	now := time.Unix(0, 0)

	dir, d := s.Scroll(0.99, now)
	if dir != Down || d.Added != 5 {
		t.Fatalf("expected down with 5 added, got %q %+v", dir, d)
	}
	dir, d = s.Scroll(0.99, now.Add(10*time.Millisecond))
	if dir != None || d.Changed() {
		t.Errorf("expected debounced scroll, got %q %+v", dir, d)
	}
	assertBounds(t, m, 15, 30)
}
