package syntax

import (
	"testing"

	"typeset/fileid"
)

func testFile(t *testing.T) fileid.ID {
	t.Helper()
	return fileid.Global().MustIntern(fileid.ProjectRoot(), "/reparse-test.typ")
}

func TestReparseSpliceInPlace(t *testing.T) {
	file := testFile(t)
	text := "before\n#{\n  1 + 1\n}\nafter\n"
	src := Parse(file, text)

	start := uint32(len("before\n#{\n  1 + "))
	end := start + 1 // the "1" in "1 + 1"
	result := Reparse(src, EditRange{Start: start, End: end}, "9")

	wantText := text[:start] + "9" + text[end:]
	if result.Source.Text != wantText {
		t.Fatalf("reparsed text = %q, want %q", result.Source.Text, wantText)
	}
	if result.Source.Green.FullText() != wantText {
		t.Fatalf("reparsed tree FullText = %q, want %q", result.Source.Green.FullText(), wantText)
	}
}

func TestReparseFallsBackOnUncontainedEdit(t *testing.T) {
	file := testFile(t)
	text := "a *b* c\n"
	src := Parse(file, text)

	// an edit spanning the whole file is contained only by the Markup root,
	// which has no standalone reparse entry point, so this must fall back to
	// a full reparse.
	result := Reparse(src, EditRange{Start: 0, End: uint32(len(text))}, "completely different\n")
	if !result.Full {
		t.Fatal("expected a full reparse fallback for a whole-file edit")
	}
	if result.Source.Text != "completely different\n" {
		t.Fatalf("unexpected reparsed text: %q", result.Source.Text)
	}
}

func TestNumberingRangeContainsChildren(t *testing.T) {
	green := parseSourceFile("= Heading\npara one\npara two\n")
	numbering := Number(green, 0)
	root := Root(fileid.ID(0), green, numbering)
	root.Descendants(func(n *Node) bool {
		nr := n.NumberRange()
		if !numbering.Contains(nr) {
			t.Fatalf("node range %+v not contained in root range %+v", nr, numbering)
		}
		return true
	})
}
