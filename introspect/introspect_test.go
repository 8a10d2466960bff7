package introspect

import (
	"regexp"
	"testing"

	"typeset/content"
	"typeset/syntax"
)

func TestEmptyIntrospectorReturnsNoResults(t *testing.T) {
	var ix *Introspector
	if got := ix.Query(Elem(1, nil)); got != nil {
		t.Fatalf("expected nil query results from empty introspector, got %v", got)
	}
	if _, ok := ix.LocationToPage(Location(1)); ok {
		t.Fatal("expected no page for an unindexed location")
	}
}

func TestQueryByElemKind(t *testing.T) {
	headingKind := content.ElemKind(1)
	h1 := content.NewElem(headingKind, syntax.DetachedSpan)
	p1 := content.NewElem(content.ElemKind(2), syntax.DetachedSpan)

	ix := Build([]Entry{
		{Content: h1, Location: 10, Pos: Position{Page: 1}},
		{Content: p1, Location: 11, Pos: Position{Page: 1}},
	})

	got := ix.Query(Elem(headingKind, nil))
	if len(got) != 1 || got[0] != h1 {
		t.Fatalf("expected exactly the heading entry, got %v", got)
	}
}

func TestQueryByLabel(t *testing.T) {
	labeled := content.NewElem(content.ElemKind(1), syntax.DetachedSpan).WithLabel("fig:1")
	unlabeled := content.NewElem(content.ElemKind(1), syntax.DetachedSpan)

	ix := Build([]Entry{
		{Content: labeled, Location: 1},
		{Content: unlabeled, Location: 2},
	})

	got := ix.Query(Label("fig:1"))
	if len(got) != 1 || got[0] != labeled {
		t.Fatalf("expected exactly the labeled entry, got %v", got)
	}
}

func TestQueryByLocation(t *testing.T) {
	a := content.NewElem(content.ElemKind(1), syntax.DetachedSpan)
	b := content.NewElem(content.ElemKind(1), syntax.DetachedSpan)

	ix := Build([]Entry{
		{Content: a, Location: 100},
		{Content: b, Location: 200},
	})

	got := ix.Query(AtLocation(200))
	if len(got) != 1 || got[0] != b {
		t.Fatalf("expected exactly the entry at location 200, got %v", got)
	}
}

func TestQueryAndOr(t *testing.T) {
	kindA := content.ElemKind(5)
	labeled := content.NewElem(kindA, syntax.DetachedSpan).WithLabel("x")
	unlabeled := content.NewElem(kindA, syntax.DetachedSpan)
	other := content.NewElem(content.ElemKind(6), syntax.DetachedSpan).WithLabel("x")

	ix := Build([]Entry{
		{Content: labeled, Location: 1},
		{Content: unlabeled, Location: 2},
		{Content: other, Location: 3},
	})

	andSel := And(Elem(kindA, nil), Label("x"))
	got := ix.Query(andSel)
	if len(got) != 1 || got[0] != labeled {
		t.Fatalf("expected And to select only the labeled kindA entry, got %v", got)
	}

	orSel := Or(Elem(kindA, nil), Label("x"))
	got = ix.Query(orSel)
	if len(got) != 3 {
		t.Fatalf("expected Or to select all three entries, got %d", len(got))
	}
}

func TestQueryBeforeAfter(t *testing.T) {
	kind := content.ElemKind(7)
	first := content.NewElem(kind, syntax.DetachedSpan)
	marker := content.NewElem(content.ElemKind(8), syntax.DetachedSpan)
	last := content.NewElem(kind, syntax.DetachedSpan)

	ix := Build([]Entry{
		{Content: first, Location: 1},
		{Content: marker, Location: 2},
		{Content: last, Location: 3},
	})

	before := ix.Query(Before(Elem(kind, nil), Location(2), false))
	if len(before) != 1 || before[0] != first {
		t.Fatalf("expected Before(marker) to select only the first entry, got %v", before)
	}

	after := ix.Query(After(Elem(kind, nil), Location(2), false))
	if len(after) != 1 || after[0] != last {
		t.Fatalf("expected After(marker) to select only the last entry, got %v", after)
	}
}

func TestQueryRegexMatchesTextField(t *testing.T) {
	kind := content.Register("introspect-test-text", []content.FieldInfo{
		{Name: "text", ID: 1},
	}, content.CapFinalize)
	el := content.NewElem(kind.Kind, syntax.DetachedSpan).WithField("text", testVal{"hello world"})

	ix := Build([]Entry{{Content: el, Location: 1}})

	got := ix.Query(Regex(regexp.MustCompile(`hello`)))
	if len(got) != 1 {
		t.Fatalf("expected regex selector to match the text field, got %d results", len(got))
	}
}

// testVal is a minimal content.Val for exercising Regex selector matching
// without importing package value (which would be a needless dependency
// for this one field).
type testVal struct{ s string }

func (v testVal) Hash() uint64   { return 0 }
func (v testVal) String() string { return v.s }

func TestLocationToPageAndPosition(t *testing.T) {
	el := content.NewElem(content.ElemKind(1), syntax.DetachedSpan)
	ix := Build([]Entry{{Content: el, Location: 42, Pos: Position{Page: 3, X: 1.5, Y: 2.5}}})

	page, ok := ix.LocationToPage(42)
	if !ok || page != 3 {
		t.Fatalf("expected page 3, got %d (ok=%v)", page, ok)
	}
	pos, ok := ix.LocationToPosition(42)
	if !ok || pos.X != 1.5 || pos.Y != 2.5 {
		t.Fatalf("expected position {3 1.5 2.5}, got %+v (ok=%v)", pos, ok)
	}
}

func TestDeriveLocationDeterministic(t *testing.T) {
	a := DeriveLocation(10, 2, 99)
	b := DeriveLocation(10, 2, 99)
	if a != b {
		t.Fatalf("expected DeriveLocation to be deterministic, got %d then %d", a, b)
	}
}

func TestDeriveLocationDistinguishesSiblingIndex(t *testing.T) {
	a := DeriveLocation(10, 0, 99)
	b := DeriveLocation(10, 1, 99)
	if a == b {
		t.Fatal("expected different sibling indices to derive different locations")
	}
}

func TestCounterStepAndFinal(t *testing.T) {
	key := CounterKeyName("page")
	counter := NewCounter(key)

	var entries []Entry
	loc := Location(1)
	for i := 0; i < 3; i++ {
		entries = append(entries, Entry{Content: counter.Step(1), Location: loc})
		loc++
	}
	ix := Build(entries)

	final := counter.Final(ix)
	if len(final) != 1 || final[0] != 3 {
		t.Fatalf("expected counter to reach [3], got %v", final)
	}
}

func TestCounterAtStopsAtLocation(t *testing.T) {
	key := CounterKeyName("page")
	counter := NewCounter(key)

	entries := []Entry{
		{Content: counter.Step(1), Location: 1},
		{Content: counter.Step(1), Location: 2},
		{Content: counter.Step(1), Location: 3},
	}
	ix := Build(entries)

	at := counter.At(ix, 2)
	if len(at) != 1 || at[0] != 2 {
		t.Fatalf("expected counter.At(loc=2) to reach [2], got %v", at)
	}
}

func TestCounterSetOverridesState(t *testing.T) {
	key := CounterKeyName("chapter")
	counter := NewCounter(key)

	entries := []Entry{
		{Content: counter.Step(1), Location: 1},
		{Content: counter.Update(OpSet, []int64{5}), Location: 2},
		{Content: counter.Step(1), Location: 3},
	}
	ix := Build(entries)

	final := counter.Final(ix)
	if len(final) != 1 || final[0] != 6 {
		t.Fatalf("expected set-then-step to reach [6], got %v", final)
	}
}

func TestCounterKeysAreIndependent(t *testing.T) {
	pageCounter := NewCounter(CounterKeyName("page"))
	chapterCounter := NewCounter(CounterKeyName("chapter"))

	entries := []Entry{
		{Content: pageCounter.Step(1), Location: 1},
		{Content: chapterCounter.Step(1), Location: 2},
		{Content: pageCounter.Step(1), Location: 3},
	}
	ix := Build(entries)

	if got := pageCounter.Final(ix); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected page counter at [2], got %v", got)
	}
	if got := chapterCounter.Final(ix); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected chapter counter at [1], got %v", got)
	}
}

func TestSortKeysNatural(t *testing.T) {
	got := SortKeysNatural([]string{"item10", "item2", "item1"})
	want := []string{"item1", "item2", "item10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected natural order %v, got %v", want, got)
		}
	}
}
