package eval

import (
	"testing"
	"time"

	"typeset/content"
	"typeset/diag"
	"typeset/fileid"
	"typeset/value"
	"typeset/world"
)

// evalSource interns vpath under the project root, registers text on a
// fresh MemWorld, and evaluates it through a fresh Engine — one throwaway
// fixture per test rather than a shared global.
func evalSource(t *testing.T, vpath, text string) (*value.Module, []*diag.SourceError) {
	t.Helper()
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), vpath)
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(id, text)
	e := NewEngine(w, nil, nil)
	return e.EvalFile(id)
}

func mustEval(t *testing.T, text string) *value.Module {
	t.Helper()
	mod, errs := evalSource(t, "/test.typ", text)
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	return mod
}

// asContent type-asserts a module's boxed value.Content interface back down
// to the concrete *content.Content the evaluator always produces, for tests
// that need to walk Children/Kind/Label/Field directly.
func asContent(t *testing.T, v value.Value) *content.Content {
	t.Helper()
	cv, ok := v.AsContent()
	if !ok {
		t.Fatal("value is not KindContent")
	}
	c, ok := cv.(*content.Content)
	if !ok {
		t.Fatalf("value.Content is not backed by *content.Content, got %T", cv)
	}
	return c
}

func TestEvalTextContent(t *testing.T) {
	mod := mustEval(t, "hello world")
	c := asContent(t, mod.Content)
	if got := c.String(); got == "" {
		t.Fatalf("expected non-empty rendered content, got %q", got)
	}
}

func TestEvalParagraphGroupingOnBlankLine(t *testing.T) {
	mod := mustEval(t, "first paragraph\n\nsecond paragraph")
	c := asContent(t, mod.Content)
	var pars int
	for _, child := range c.Children {
		if child != nil && child.Kind == kindParagraph.Kind {
			pars++
		}
	}
	if pars != 2 {
		t.Fatalf("expected 2 paragraphs split on the blank line, got %d", pars)
	}
}

func TestEvalNoParagraphSplitOnSingleNewline(t *testing.T) {
	mod := mustEval(t, "first line\nsecond line")
	c := asContent(t, mod.Content)
	var pars int
	for _, child := range c.Children {
		if child != nil && child.Kind == kindParagraph.Kind {
			pars++
		}
	}
	if pars > 1 {
		t.Fatalf("single newline should not start a new paragraph, got %d", pars)
	}
}

func TestEvalLetAndArithmetic(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let x = 1 + 2 * 3\n#let y = x")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	v, ok := mod.Scope["y"]
	if !ok {
		t.Fatal("expected binding y in module scope")
	}
	n, ok := v.AsInt()
	if !ok || n != 7 {
		t.Fatalf("expected y == 7, got %v (ok=%v)", v, ok)
	}
}

func TestEvalComparisonAndBoolOps(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let a = 1 < 2\n#let b = 2 <= 2\n#let c = (1 == 2) or (2 == 2)\n#let d = (1 < 2) and (2 < 1)")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	for name, want := range map[string]bool{"a": true, "b": true, "c": true, "d": false} {
		v, ok := mod.Scope[name]
		if !ok {
			t.Fatalf("expected binding %s", name)
		}
		b, ok := v.AsBool()
		if !ok || b != want {
			t.Fatalf("%s: got %v, want %v", name, v, want)
		}
	}
}

func TestEvalClosureCallAndCapture(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let base = 10\n#let add = (n) => base + n\n#let result = add(5)")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	v, ok := mod.Scope["result"]
	if !ok {
		t.Fatal("expected binding result")
	}
	n, ok := v.AsInt()
	if !ok || n != 15 {
		t.Fatalf("expected result == 15, got %v", v)
	}
}

func TestEvalClosureDefaultParam(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let greet = (name: \"world\") => name\n#let a = greet()\n#let b = greet(\"go\")")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	av, _ := mod.Scope["a"].AsStr()
	if av != "world" {
		t.Fatalf("expected default param to apply, got %q", av)
	}
	bv, _ := mod.Scope["b"].AsStr()
	if bv != "go" {
		t.Fatalf("expected explicit arg to override default, got %q", bv)
	}
}

func TestEvalClosureMissingRequiredArgErrors(t *testing.T) {
	_, errs := evalSource(t, "/test.typ", "#let needs = (a, b) => a\n#let v = needs(1)")
	if len(errs) == 0 {
		t.Fatal("expected an error for a missing required argument")
	}
}

func TestEvalForLoopRunsEachIteration(t *testing.T) {
	// The grammar has no assignment statement, only `let` — so there is no
	// way to accumulate across iterations from inside the loop body. This
	// only confirms the loop evaluates its body once per array element
	// without error.
	mod, errs := evalSource(t, "/test.typ", "#let items = (1, 2, 3)\n#for x in items {\n  x\n}")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	if _, ok := mod.Scope["items"]; !ok {
		t.Fatal("expected binding items")
	}
}

func TestEvalForLoopOverDict(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let d = (a: 1, b: 2)\n#let seen = 0\n#for (k, v) in d {\n  let seen = v\n}")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	if _, ok := mod.Scope["d"]; !ok {
		t.Fatal("expected binding d")
	}
}

func TestEvalWhileLoopFalseConditionSkipsBody(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let n = 3\n#while false {\n  n\n}")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	if _, ok := mod.Scope["n"]; !ok {
		t.Fatal("expected binding n")
	}
}

func TestEvalBreakOutsideLoopErrors(t *testing.T) {
	_, errs := evalSource(t, "/test.typ", "#break")
	if len(errs) == 0 {
		t.Fatal("expected an error for break outside a loop")
	}
}

func TestEvalContinueOutsideLoopErrors(t *testing.T) {
	_, errs := evalSource(t, "/test.typ", "#continue")
	if len(errs) == 0 {
		t.Fatal("expected an error for continue outside a loop")
	}
}

func TestEvalIfExpression(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let x = if 1 < 2 { \"yes\" } else { \"no\" }")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	s, ok := mod.Scope["x"].AsStr()
	if !ok || s != "yes" {
		t.Fatalf("expected x == \"yes\", got %v", mod.Scope["x"])
	}
}

func TestEvalDestructuringLet(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let (a, b) = (1, 2)")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	av, _ := mod.Scope["a"].AsInt()
	bv, _ := mod.Scope["b"].AsInt()
	if av != 1 || bv != 2 {
		t.Fatalf("expected a=1 b=2, got a=%v b=%v", mod.Scope["a"], mod.Scope["b"])
	}
}

func TestEvalStringUpperLowerMethodSugar(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let a = \"Hello\".upper()\n#let b = \"Hello\".lower()")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	av, _ := mod.Scope["a"].AsStr()
	bv, _ := mod.Scope["b"].AsStr()
	if av != "HELLO" {
		t.Fatalf("expected upper-cased string, got %q", av)
	}
	if bv != "hello" {
		t.Fatalf("expected lower-cased string, got %q", bv)
	}
}

func TestEvalSetRulePushesStyleMap(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#set text(size: 12pt)\nhello")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	if mod.Content.Kind() != value.KindContent {
		t.Fatalf("expected content-kind module result, got %v", mod.Content.Kind())
	}
}

func TestEvalShowRuleReplacesElement(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#show strong: (it) => \"X\"\n*bold*")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	if mod.Content.Kind() != value.KindContent {
		t.Fatalf("expected content-kind module result, got %v", mod.Content.Kind())
	}
}

func TestEvalLabelAttachesToPreviousElement(t *testing.T) {
	mod := mustEval(t, "= Heading <intro>")
	c := asContent(t, mod.Content)
	var found bool
	for _, child := range c.Children {
		if child != nil && child.Label == "intro" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the label to attach to the preceding heading")
	}
}

func TestEvalImportBindsModule(t *testing.T) {
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), "/lib.typ")
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(id, "#let answer = 42")
	main := fileid.Global().MustIntern(fileid.ProjectRoot(), "/main.typ")
	w.AddSource(main, "#import \"lib.typ\": answer\n#let doubled = answer * 2")

	e := NewEngine(w, nil, nil)
	mod, errs := e.EvalFile(main)
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	v, ok := mod.Scope["doubled"]
	if !ok {
		t.Fatal("expected binding doubled")
	}
	n, _ := v.AsInt()
	if n != 84 {
		t.Fatalf("expected doubled == 84, got %v", v)
	}
}

func TestEvalImportCyclePanics(t *testing.T) {
	idA := fileid.Global().MustIntern(fileid.ProjectRoot(), "/cycle_a.typ")
	idB := fileid.Global().MustIntern(fileid.ProjectRoot(), "/cycle_b.typ")
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(idA, "#import \"cycle_b.typ\"")
	w.AddSource(idB, "#import \"cycle_a.typ\"")

	e := NewEngine(w, nil, nil)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on cyclic import")
		}
	}()
	_, _ = e.EvalFile(idA)
}

func TestEvalIncludeSplicesContent(t *testing.T) {
	idLib := fileid.Global().MustIntern(fileid.ProjectRoot(), "/inc_lib.typ")
	idMain := fileid.Global().MustIntern(fileid.ProjectRoot(), "/inc_main.typ")
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(idLib, "included text")
	w.AddSource(idMain, "before #include \"inc_lib.typ\" after")

	e := NewEngine(w, nil, nil)
	mod, errs := e.EvalFile(idMain)
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	c := asContent(t, mod.Content)
	if c.String() == "" {
		t.Fatal("expected spliced content to render to non-empty text")
	}
}

func TestEvalReturnOutsideFunctionErrors(t *testing.T) {
	_, errs := evalSource(t, "/test.typ", "#return 1")
	if len(errs) == 0 {
		t.Fatal("expected an error for return outside a function")
	}
}

func TestEvalUndefinedIdentErrors(t *testing.T) {
	_, errs := evalSource(t, "/test.typ", "#missing")
	if len(errs) == 0 {
		t.Fatal("expected an error for an undefined identifier")
	}
}

func TestEvalContextExprDefersEvaluation(t *testing.T) {
	mod, errs := evalSource(t, "/test.typ", "#let c = context 1 + 1")
	if len(errs) > 0 {
		t.Fatalf("unexpected eval errors: %v", errs)
	}
	v, ok := mod.Scope["c"]
	if !ok {
		t.Fatal("expected binding c")
	}
	if v.Kind() != value.KindContent {
		t.Fatalf("expected context expr to produce a deferred content value, got %v", v.Kind())
	}
	_, ok = v.AsContent()
	if !ok {
		t.Fatal("expected a Content-backed value for the contextual element")
	}
}

func TestEvalTermItemSplitsOnColon(t *testing.T) {
	mod := mustEval(t, "/ Term: body text")
	c := asContent(t, mod.Content)
	var found bool
	for _, child := range c.Children {
		if child == nil {
			continue
		}
		if v, ok := child.Field("term"); ok && v != nil {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a term-item element with a split term field")
	}
}
