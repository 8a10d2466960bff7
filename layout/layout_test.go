package layout

import (
	"strings"
	"testing"

	"typeset/introspect"
	"typeset/value"
)

func TestSizeAddSub(t *testing.T) {
	a := Size{X: 10, Y: 20}
	b := Size{X: 3, Y: 5}
	if got := a.Add(b); got.X != 13 || got.Y != 25 {
		t.Fatalf("Add: got %+v", got)
	}
	if got := a.Sub(b); got.X != 7 || got.Y != 15 {
		t.Fatalf("Sub: got %+v", got)
	}
	if got := b.Sub(a); got.X != 0 || got.Y != 0 {
		t.Fatalf("Sub should clamp at zero, got %+v", got)
	}
}

func TestRatioOf(t *testing.T) {
	r := Ratio(0.5)
	if got := r.Of(value.Length(100)); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestShapeSplitsOnSpacesAndSoftHyphen(t *testing.T) {
	words := Shape("hy"+string(softHyphen)+"phen ated", MonoMetrics{}, 10)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if len(words[0].Breakable) != 1 {
		t.Fatalf("expected one breakable point in first word, got %v", words[0].Breakable)
	}
}

func TestFlattenAndLineTextRoundTrip(t *testing.T) {
	words := Shape("the quick fox", MonoMetrics{}, 10)
	segs := Flatten(words, MonoMetrics{}, 10)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments (no hyphens), got %d", len(segs))
	}
	ln := Line{From: 0, To: 3}
	if got := LineText(segs, ln); got != "the quick fox" {
		t.Fatalf("expected round-trip text, got %q", got)
	}
}

func TestBreakParagraphWrapsAtWidth(t *testing.T) {
	words := Shape("one two three four five six seven eight", MonoMetrics{}, 10)
	segs := Flatten(words, MonoMetrics{}, 10)
	lines := BreakParagraph(segs, 10, 40)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	var rebuilt []string
	for _, ln := range lines {
		rebuilt = append(rebuilt, LineText(segs, ln))
	}
	if got := strings.Join(rebuilt, " "); got != "one two three four five six seven eight" {
		t.Fatalf("expected every word preserved across lines, got %q", got)
	}
}

func TestBreakParagraphSingleLineWhenItFits(t *testing.T) {
	words := Shape("short text", MonoMetrics{}, 10)
	segs := Flatten(words, MonoMetrics{}, 10)
	lines := BreakParagraph(segs, 10, 1000)
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
}

func TestBreakParagraphEmptyInput(t *testing.T) {
	if got := BreakParagraph(nil, 10, 100); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestFrameCollectResolvesAbsolutePositions(t *testing.T) {
	child := NewFrame(Size{X: 10, Y: 10})
	child.PushTag(Pt(1, 1), 42, introspect.Entry{})

	parent := NewFrame(Size{X: 50, Y: 50})
	parent.PushFrame(Pt(5, 5), child)

	entries := parent.Collect(2, Point{}, nil)
	if len(entries) != 1 {
		t.Fatalf("expected one collected entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Pos.Page != 2 {
		t.Fatalf("expected page 2, got %d", e.Pos.Page)
	}
	if e.Pos.X != 6 || e.Pos.Y != 6 {
		t.Fatalf("expected absolute position (6,6), got (%v,%v)", e.Pos.X, e.Pos.Y)
	}
}

func TestRegionsNextRepeatsLastBacklogEntry(t *testing.T) {
	r := Regions{Size: Size{X: 1, Y: 1}, Backlog: []Size{{X: 2, Y: 2}}}
	r = r.Next()
	if r.Size.X != 2 {
		t.Fatalf("expected first backlog region, got %+v", r.Size)
	}
	r2 := r.Next()
	if r2.Size.X != 2 {
		t.Fatalf("expected backlog region to repeat once exhausted, got %+v", r2.Size)
	}
}

func TestParallelizePreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	out, err := Parallelize(items, func(i int) (int, error) { return i * i, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 4, 9, 16, 25}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}
}
