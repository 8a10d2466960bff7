package syntax

import (
	"fmt"
	"io"
	"strings"
)

// treeWriter renders a syntax tree as indented, human-readable text for
// debugging and golden-file tests — the same shape as a line-oriented debug
// dumper: one Line() call per node, indentation tracking depth, with a
// TextBlock() helper for leaves whose payload spans are easier to read on
// their own line than inlined into the header.
type treeWriter struct {
	w     io.Writer
	depth int
}

func (tw *treeWriter) Line(depth int, format string, args ...interface{}) {
	fmt.Fprint(tw.w, strings.Repeat("  ", depth))
	fmt.Fprintf(tw.w, format, args...)
	fmt.Fprintln(tw.w)
}

func (tw *treeWriter) TextBlock(depth int, label, value string) {
	tw.Line(depth, "%s: %q", label, value)
}

// Dump writes a readable rendering of a green tree to w, one node per line.
func Dump(w io.Writer, root *GreenNode) {
	tw := &treeWriter{w: w}
	dumpGreen(tw, root, 0)
}

func dumpGreen(tw *treeWriter, n *GreenNode, depth int) {
	if n.IsLeaf() {
		if msg, pos, ok := n.ErrorMessage(); ok {
			tw.Line(depth, "%s(%q) ERROR[%s]: %s", n.Kind(), n.Text(), errorPositionName(pos), msg)
			return
		}
		tw.TextBlock(depth, n.Kind().String(), n.Text())
		return
	}
	tw.Line(depth, "%s (%d nodes, %d bytes)", n.Kind(), n.DescendantCount(), n.Len())
	for _, c := range n.Children() {
		dumpGreen(tw, c, depth+1)
	}
}

func errorPositionName(p ErrorPosition) string {
	switch p {
	case ErrorAtStart:
		return "start"
	case ErrorAtEnd:
		return "end"
	default:
		return "full"
	}
}

// DumpString is a convenience wrapper over Dump for tests and REPL use.
func DumpString(root *GreenNode) string {
	var b strings.Builder
	Dump(&b, root)
	return b.String()
}
