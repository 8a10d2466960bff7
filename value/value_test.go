package value

import "testing"

func TestEqualCrossNumericKinds(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Fatal("expected Int(3) == Float(3.0)")
	}
	if Equal(Int(3), Float(3.5)) {
		t.Fatal("did not expect Int(3) == Float(3.5)")
	}
}

func TestHashStableAcrossCalls(t *testing.T) {
	d := NewDict()
	d.Set("a", Int(1))
	d.Set("b", Str("x"))
	v := DictOf(d)

	h1 := Hash(v)
	h2 := Hash(v)
	if h1 != h2 {
		t.Fatalf("hash not stable: %d != %d", h1, h2)
	}
}

func TestHashIndependentOfDictInsertionOrder(t *testing.T) {
	d1 := NewDict()
	d1.Set("a", Int(1))
	d1.Set("b", Int(2))

	d2 := NewDict()
	d2.Set("b", Int(2))
	d2.Set("a", Int(1))

	if Hash(DictOf(d1)) != Hash(DictOf(d2)) {
		t.Fatal("dict hash should not depend on insertion order")
	}
}

func TestDictCloneIsIndependent(t *testing.T) {
	d := NewDict()
	d.Set("a", Int(1))
	clone := d.Clone()
	clone.Set("b", Int(2))

	if _, ok := d.Get("b"); ok {
		t.Fatal("mutating the clone must not affect the original")
	}
	if clone.Len() != 2 {
		t.Fatalf("clone length = %d, want 2", clone.Len())
	}
}

func TestArrayEquality(t *testing.T) {
	a := ArrayOf([]Value{Int(1), Str("x")})
	b := ArrayOf([]Value{Int(1), Str("x")})
	c := ArrayOf([]Value{Int(1), Str("y")})
	if !Equal(a, b) {
		t.Fatal("expected equal arrays to compare equal")
	}
	if Equal(a, c) {
		t.Fatal("did not expect arrays with different elements to be equal")
	}
}

func TestNoneAndAutoAreDistinctKinds(t *testing.T) {
	if Equal(None(), Auto()) {
		t.Fatal("None and Auto must not be equal")
	}
	if !None().IsNone() || !Auto().IsAuto() {
		t.Fatal("IsNone/IsAuto misclassified their own constructors")
	}
}
