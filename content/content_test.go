package content

import (
	"testing"

	"typeset/syntax"
)

type fakeVal struct {
	h uint64
	s string
}

func (f fakeVal) Hash() uint64  { return f.h }
func (f fakeVal) String() string { return f.s }

func testSpan(t *testing.T) syntax.Span {
	t.Helper()
	return syntax.DetachedSpan
}

func TestSequenceFlattensNestedSequences(t *testing.T) {
	leaf := NewElem(ElemKind(99), testSpan(t))
	inner := Sequence(leaf, leaf)
	outer := Sequence(inner, leaf)

	if !outer.IsSequence() {
		t.Fatal("expected outer to be a sequence")
	}
	if len(outer.Children) != 3 {
		t.Fatalf("expected sequence to flatten to 3 children, got %d", len(outer.Children))
	}
}

func TestStyledChainingMergesRatherThanNests(t *testing.T) {
	leaf := NewElem(ElemKind(1), testSpan(t))
	s1 := &fakeStyles{h: 1}
	s2 := &fakeStyles{h: 2}

	once := Styled(leaf, s1)
	twice := Styled(once, s2)

	if !twice.IsStyled() {
		t.Fatal("expected twice to be styled")
	}
	if twice.Inner != leaf {
		t.Fatal("expected chained Styled to wrap the original inner, not the intermediate wrapper")
	}
}

type fakeStyles struct{ h uint64 }

func (f *fakeStyles) Hash() uint64 { return f.h }
func (f *fakeStyles) Merge(other StyleSet) StyleSet {
	o := other.(*fakeStyles)
	return &fakeStyles{h: f.h ^ o.h}
}

func TestWithFieldIsCopyOnWrite(t *testing.T) {
	base := NewElem(ElemKind(2), testSpan(t))
	updated := base.WithField("size", fakeVal{h: 7, s: "7"})

	if _, ok := base.Field("size"); ok {
		t.Fatal("mutating via WithField must not affect the original node")
	}
	v, ok := updated.Field("size")
	if !ok || v.Hash() != 7 {
		t.Fatalf("expected updated node to carry the new field, got %v, %v", v, ok)
	}
}

func TestGuardedIsIdempotent(t *testing.T) {
	base := NewElem(ElemKind(3), testSpan(t))
	g := NthGuard(2)

	once := base.Guarded(g)
	twice := once.Guarded(g)

	if !once.HasGuard(g) {
		t.Fatal("expected guard to be recorded")
	}
	if len(twice.Guards) != 1 {
		t.Fatalf("expected re-applying the same guard to be a no-op, got %d guards", len(twice.Guards))
	}
}

func TestHashStableAndSensitiveToFields(t *testing.T) {
	a := NewElem(ElemKind(4), testSpan(t)).WithField("x", fakeVal{h: 1, s: "1"})
	b := NewElem(ElemKind(4), testSpan(t)).WithField("x", fakeVal{h: 1, s: "1"})
	c := NewElem(ElemKind(4), testSpan(t)).WithField("x", fakeVal{h: 2, s: "2"})

	if a.Hash() != b.Hash() {
		t.Fatal("expected structurally identical nodes to hash the same")
	}
	if a.Hash() == c.Hash() {
		t.Fatal("expected differing field values to change the hash")
	}
}

func TestRegisterAndLookupRoundTrip(t *testing.T) {
	def := Register("test.marker", []FieldInfo{{Name: "body", ID: 1}}, CapShow)
	got, ok := Lookup(def.Kind)
	if !ok || got.Name != "test.marker" {
		t.Fatalf("expected to look up the registered kind, got %v, %v", got, ok)
	}
	byName, ok := LookupByName("test.marker")
	if !ok || byName.Kind != def.Kind {
		t.Fatal("expected LookupByName to resolve back to the same kind")
	}
}

func TestFieldFallsBackToRegisteredDefault(t *testing.T) {
	def := Register("test.withdefault", []FieldInfo{{Name: "level", Default: fakeVal{h: 3, s: "3"}}}, 0)
	elem := NewElem(def.Kind, testSpan(t))

	v, ok := elem.Field("level")
	if !ok || v.Hash() != 3 {
		t.Fatalf("expected default field value, got %v, %v", v, ok)
	}
}
