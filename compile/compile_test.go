package compile

import (
	"strings"
	"testing"
	"time"

	"typeset/diag"
	"typeset/fileid"
	"typeset/layout"
	"typeset/world"
)

func mustCompile(t *testing.T, text string) *layout.Document {
	t.Helper()
	doc, errs := compileDoc(t, text)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	return doc
}

// compileDoc interns a throwaway path, registers text on a fresh MemWorld,
// and runs it through Compile with the default layout options — the same
// throwaway-fixture-per-test shape eval_test.go's evalSource uses, one
// level up the pipeline.
func compileDoc(t *testing.T, text string) (*layout.Document, []string) {
	t.Helper()
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), "/test.typ")
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(id, text)
	doc, errs := Compile(w, id, nil, DefaultOptions())
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return doc, msgs
}

// frameText walks f and every nested group in document order, concatenating
// every ItemText run's text — the simplest way to assert on a scenario's
// rendered output without depending on exactly how it was split into runs
// and lines.
func frameText(f *layout.Frame) string {
	if f == nil {
		return ""
	}
	var sb strings.Builder
	for _, it := range f.Items {
		switch it.Kind {
		case layout.ItemText:
			sb.WriteString(it.Text.Text)
		case layout.ItemGroup:
			sb.WriteString(frameText(it.Group))
		}
	}
	return sb.String()
}

func documentText(doc *layout.Document) string {
	var sb strings.Builder
	for _, page := range doc.Pages {
		sb.WriteString(frameText(page))
	}
	return sb.String()
}

func TestCompileBoldSpanOnSinglePageNoWarnings(t *testing.T) {
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), "/test.typ")
	w := world.NewMemWorld(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	w.AddSource(id, "Hello *World*")
	sink := diag.NewSink(nil)
	doc, errs := Compile(w, id, sink, DefaultOptions())
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(doc.Pages))
	}
	if got := documentText(doc); got != "Hello World" {
		t.Fatalf("rendered text = %q, want %q", got, "Hello World")
	}
	if warnings := sink.Warnings(); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestCompileArithmeticExpression(t *testing.T) {
	doc, errs := compileDoc(t, "#let a = 1\n#let b = 2\n#(a+b)")
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(doc.Pages))
	}
	if got := documentText(doc); got != "3" {
		t.Fatalf("rendered text = %q, want %q", got, "3")
	}
}

// TestCompileForLoopOverRangeBuiltin reproduces the module's mandatory
// range()-backed for-loop scenario: a fresh World now seeds `range` as a
// Library builtin (world.NewLibrary), so `#for x in range(3) [#x ]`
// produces the same three-token sequence a user-defined range() closure
// would.
func TestCompileForLoopOverRangeBuiltin(t *testing.T) {
	doc, errs := compileDoc(t, "#for x in range(3) [#x ]")
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	got := documentText(doc)
	if got != "0 1 2 " {
		t.Fatalf("rendered text = %q, want %q", got, "0 1 2 ")
	}
}

func TestCompileBlankLineSeparatesParagraphs(t *testing.T) {
	doc := mustCompile(t, "A\n\nB")
	if len(doc.Pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(doc.Pages))
	}
	if got := documentText(doc); got != "AB" {
		t.Fatalf("rendered text = %q, want the concatenation %q", got, "AB")
	}
}

