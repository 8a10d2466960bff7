package syntax

import "testing"

func tokenize(text string) []token {
	l := newLexer(text)
	var toks []token
	for {
		tok := l.next()
		toks = append(toks, tok)
		if tok.kind == KindEnd {
			return toks
		}
	}
}

func TestLexerMarkupBasics(t *testing.T) {
	toks := tokenize("hello *world*\n")
	kinds := []Kind{}
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	want := []Kind{KindText, KindStrongDelim, KindText, KindStrongDelim, KindNewline, KindEnd}
	if len(kinds) != len(want) {
		t.Fatalf("kind count = %d, want %d (%v)", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d kind = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestLexerHashEnterAndExitCode(t *testing.T) {
	l := newLexer("#let x = 1")
	hash := l.next()
	if hash.kind != KindHash {
		t.Fatalf("expected Hash, got %s", hash.kind)
	}
	l.pushMode(ModeCode)
	let := l.next()
	if let.kind != KindLet {
		t.Fatalf("expected Let keyword, got %s (%q)", let.kind, let.text)
	}
}

func TestLexerReconstructsExactText(t *testing.T) {
	text := "= Heading\n- item one\n#let x = 1 + 2\n$ x + 1 $\n"
	toks := tokenize(text)
	var got string
	for _, tok := range toks {
		got += tok.text
	}
	if got != text {
		t.Fatalf("token texts concatenated = %q, want %q", got, text)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := newLexer(`#"a\"b"`)
	l.next() // hash
	l.pushMode(ModeCode)
	str := l.next()
	if str.kind != KindStr {
		t.Fatalf("expected Str, got %s", str.kind)
	}
	if str.text != `"a\"b"` {
		t.Fatalf("string token text = %q", str.text)
	}
}

func TestLexerNumericUnit(t *testing.T) {
	l := newLexer("1.5pt")
	l.mode = []Mode{ModeCode}
	tok := l.next()
	if tok.kind != KindNumeric {
		t.Fatalf("expected Numeric, got %s (%q)", tok.kind, tok.text)
	}
	if tok.text != "1.5pt" {
		t.Fatalf("numeric token text = %q", tok.text)
	}
}
