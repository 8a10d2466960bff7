package syntax

import "testing"

func TestDescendantCountInvariant(t *testing.T) {
	leafA := NewLeaf(KindText, "a")
	leafB := NewLeaf(KindText, "b")
	inner := NewInner(KindParagraph, []*GreenNode{leafA, leafB})

	var sum uint32
	for _, c := range inner.Children() {
		sum += c.DescendantCount()
	}
	if sum+1 != inner.DescendantCount() {
		t.Fatalf("descendant count invariant violated: sum(children)+1=%d, got %d", sum+1, inner.DescendantCount())
	}
}

func TestFullTextRoundTrips(t *testing.T) {
	text := "hello *world*"
	green := parseSourceFile(text)
	if got := green.FullText(); got != text {
		t.Fatalf("FullText() = %q, want %q", got, text)
	}
}

func TestReplaceChildSharesSiblings(t *testing.T) {
	a := NewLeaf(KindText, "a")
	b := NewLeaf(KindText, "b")
	c := NewLeaf(KindText, "c")
	parent := NewInner(KindParagraph, []*GreenNode{a, b, c})

	replacement := NewLeaf(KindText, "B")
	next := parent.ReplaceChild(1, replacement)

	if next.Children()[0] != a || next.Children()[2] != c {
		t.Fatal("ReplaceChild must keep untouched siblings identical (structural sharing)")
	}
	if next.Children()[1] != replacement {
		t.Fatal("ReplaceChild did not swap in the replacement")
	}
	if parent.Children()[1] != b {
		t.Fatal("ReplaceChild must not mutate the original node")
	}
}
