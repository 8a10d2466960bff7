package style

import (
	"regexp"
	"testing"

	"typeset/content"
	"typeset/syntax"
	"typeset/value"
)

func TestStyleMapSetIsCopyOnWrite(t *testing.T) {
	base := NewStyleMap()
	updated := base.Set(content.ElemKind(1), "size", value.Int(12))

	if _, ok := base.get(content.ElemKind(1), "size"); ok {
		t.Fatal("Set must not mutate the receiver")
	}
	v, ok := updated.get(content.ElemKind(1), "size")
	if !ok || v.String() != "12" {
		t.Fatalf("expected updated map to carry size=12, got %v, %v", v, ok)
	}
}

func TestChainGetWalksInnermostFirst(t *testing.T) {
	outer := NewStyleMap().Set(content.ElemKind(1), "size", value.Int(10))
	inner := NewStyleMap().Set(content.ElemKind(1), "size", value.Int(20))

	chain := Root().Push(outer).Push(inner)
	v, ok := chain.Get(content.ElemKind(1), "size")
	if !ok || v.String() != "20" {
		t.Fatalf("expected innermost override to win, got %v, %v", v, ok)
	}
}

func TestChainGetFallsThroughToOuter(t *testing.T) {
	outer := NewStyleMap().Set(content.ElemKind(1), "size", value.Int(10))
	inner := NewStyleMap() // no override

	chain := Root().Push(outer).Push(inner)
	v, ok := chain.Get(content.ElemKind(1), "size")
	if !ok || v.String() != "10" {
		t.Fatalf("expected fallthrough to outer map, got %v, %v", v, ok)
	}
}

func TestElemSelectorMatchesKindAndFields(t *testing.T) {
	c := content.NewElem(content.ElemKind(5), syntax.DetachedSpan).WithField("level", value.Int(2))

	sel := ElemSelector(content.ElemKind(5), map[string]value.Value{"level": value.Int(2)})
	if !sel.Matches(c) {
		t.Fatal("expected selector to match on kind and field")
	}

	mismatch := ElemSelector(content.ElemKind(5), map[string]value.Value{"level": value.Int(3)})
	if mismatch.Matches(c) {
		t.Fatal("did not expect selector to match a differing field value")
	}
}

func TestRealizeAppliesShowRuleThenBase(t *testing.T) {
	kind := content.ElemKind(42)
	r := NewRealizer()
	baseCalled := false
	r.Register(kind, ElementHooks{
		Show: func(c *content.Content, chain *Chain) (*content.Content, error) {
			baseCalled = true
			return c.WithField("shown", value.Bool(true)), nil
		},
	})

	recipe := &Recipe{
		Selector:  ElemSelector(kind, nil),
		Transform: FuncTransform(func(c *content.Content) (*content.Content, error) {
			return c.WithField("recipe", value.Bool(true)), nil
		}),
	}
	chain := Root().Push(NewStyleMap(), recipe)

	elem := content.NewElem(kind, syntax.DetachedSpan)
	out, err := r.Realize(elem, chain)
	if err != nil {
		t.Fatalf("Realize returned error: %v", err)
	}
	if _, ok := out.Field("recipe"); !ok {
		t.Fatal("expected recipe transform to have applied")
	}
	if !baseCalled {
		t.Fatal("expected base show to run after the recipe, per guard semantics")
	}
}

func TestRealizeRecipeAppliesAtMostOnce(t *testing.T) {
	kind := content.ElemKind(7)
	calls := 0
	recipe := &Recipe{
		Selector: ElemSelector(kind, nil),
		Transform: FuncTransform(func(c *content.Content) (*content.Content, error) {
			calls++
			return c, nil // identity transform: without guarding this would loop forever
		}),
	}
	chain := Root().Push(NewStyleMap(), recipe)

	r := NewRealizer()
	elem := content.NewElem(kind, syntax.DetachedSpan)
	if _, err := r.Realize(elem, chain); err != nil {
		t.Fatalf("Realize returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the recipe to apply exactly once (guard termination), got %d calls", calls)
	}
}

func TestCollapseSpacesDropsLeadingTrailingAndDuplicateSpaces(t *testing.T) {
	mkKind := func(s SpaceState) *content.Content {
		k := content.ElemKind(100 + int(s))
		return content.NewElem(k, syntax.DetachedSpan)
	}
	classify := func(c *content.Content) SpaceState {
		return SpaceState(int(c.Kind) - 100)
	}

	items := []*content.Content{
		mkKind(Space),
		mkKind(Supportive),
		mkKind(Space),
		mkKind(Space),
		mkKind(Supportive),
		mkKind(Space),
	}
	out := CollapseSpaces(items, classify)

	if len(out) != 3 {
		t.Fatalf("expected 3 surviving items, got %d", len(out))
	}
	if classify(out[0]) != Supportive || classify(out[1]) != Space || classify(out[2]) != Supportive {
		t.Fatalf("unexpected collapsed sequence: %+v", out)
	}
}

func TestCollapseSpacesDestructiveEatsPrecedingSpace(t *testing.T) {
	mk := func(s SpaceState) *content.Content {
		return content.NewElem(content.ElemKind(100+int(s)), syntax.DetachedSpan)
	}
	classify := func(c *content.Content) SpaceState { return SpaceState(int(c.Kind) - 100) }

	items := []*content.Content{mk(Supportive), mk(Space), mk(Destructive), mk(Supportive)}
	out := CollapseSpaces(items, classify)

	if len(out) != 3 {
		t.Fatalf("expected space before the destructive element to be eaten, got %d items", len(out))
	}
	if classify(out[1]) != Destructive {
		t.Fatalf("expected Destructive in position 1, got state %v", classify(out[1]))
	}
}

func TestApplyRegexRecipeSplitsMatchesAndPreservesRest(t *testing.T) {
	textVals := map[*content.Content]string{}
	textOf := func(c *content.Content) (string, bool) {
		s, ok := textVals[c]
		return s, ok
	}
	makeText := func(original *content.Content, text string) *content.Content {
		out := content.NewElem(content.ElemKind(1), original.Span())
		textVals[out] = text
		return out
	}

	leaf := content.NewElem(content.ElemKind(1), syntax.DetachedSpan)
	textVals[leaf] = "hello world"

	rec := &Recipe{
		Selector: RegexSelector(regexp.MustCompile(`o`)),
		Transform: FuncTransform(func(c *content.Content) (*content.Content, error) {
			return c.WithField("matched", value.Bool(true)), nil
		}),
	}

	out, err := ApplyRegexRecipe(leaf, rec, textOf, makeText)
	if err != nil {
		t.Fatalf("ApplyRegexRecipe returned error: %v", err)
	}
	if !out.IsSequence() {
		t.Fatal("expected a flattened sequence of split pieces")
	}
	if len(out.Children) != 5 {
		t.Fatalf(`expected 5 pieces ("hell","o"," w","o","rld"), got %d`, len(out.Children))
	}
}
