package syntax

import "testing"

func findKind(n *GreenNode, kind Kind) *GreenNode {
	if n.Kind() == kind {
		return n
	}
	for _, c := range n.Children() {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"= Heading\nbody *bold* and _em_\n",
		"- a\n- b\n+ c\n/ term: desc\n",
		"#let x = 1 + 2 * (3 - 4)\n",
		"#if x > 0 {\n  1\n} else {\n  2\n}\n",
		"#for x in (1, 2, 3) [item #x]\n",
		"$ x^2 + y $\n",
		"unterminated *bold",
		"#", // bare hash with nothing after it
		"#(a, b) => a + b",
	}
	for _, in := range inputs {
		green := parseSourceFile(in)
		if green == nil {
			t.Fatalf("parseSourceFile(%q) returned nil", in)
		}
		if got := green.FullText(); got != in {
			t.Errorf("FullText for %q round-tripped to %q", in, got)
		}
	}
}

func TestParseHeadingStructure(t *testing.T) {
	green := parseSourceFile("== Section\n")
	heading := findKind(green, KindHeading)
	if heading == nil {
		t.Fatal("expected a Heading node")
	}
	marker := heading.Children()[0]
	if marker.Kind() != KindMarkupHeadingMarker || marker.Text() != "==" {
		t.Fatalf("heading marker = %s(%q), want MarkupHeadingMarker(\"==\")", marker.Kind(), marker.Text())
	}
}

func TestParseLetBinding(t *testing.T) {
	green := parseSourceFile("#let x = 1\n")
	let := findKind(green, KindLetBinding)
	if let == nil {
		t.Fatal("expected a LetBinding node")
	}
	bin := findKind(let, KindBinary)
	if bin != nil {
		t.Fatal("did not expect a Binary node in `let x = 1`")
	}
}

func TestParseClosure(t *testing.T) {
	green := parseSourceFile("#(a, b) => a + b\n")
	closure := findKind(green, KindClosure)
	if closure == nil {
		t.Fatal("expected a Closure node")
	}
	params := findKind(closure, KindParamList)
	if params == nil {
		t.Fatal("expected a ParamList inside the closure")
	}
}

func TestParseFuncCallArgs(t *testing.T) {
	green := parseSourceFile("#foo(1, bar: 2, ..rest)\n")
	call := findKind(green, KindFuncCall)
	if call == nil {
		t.Fatal("expected a FuncCall node")
	}
	if findKind(call, KindNamedArg) == nil {
		t.Fatal("expected a NamedArg for bar: 2")
	}
	if findKind(call, KindSpreadArg) == nil {
		t.Fatal("expected a SpreadArg for ..rest")
	}
}

func TestParseContentBlockInsideCode(t *testing.T) {
	green := parseSourceFile("#for x in items [- #x]\n")
	block := findKind(green, KindContentBlock)
	if block == nil {
		t.Fatal("expected a ContentBlock inside the for body")
	}
}
