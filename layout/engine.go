package layout

import (
	"fmt"

	"typeset/content"
	"typeset/diag"
	"typeset/introspect"
	"typeset/routines"
	"typeset/style"
	"typeset/value"
)

// Engine carries the state one compile's layout passes share: the element
// kinds it knows how to lay out, the routines callback bundle for
// re-realizing contextual content discovered mid-flow, a warning sink, and
// the Introspector built from the previous iteration (nil on the first
// pass). Mirrors the teacher's own single-struct-of-shared-state engine
// shape (convert.Converter) rather than threading a dozen parameters
// through every call.
type Engine struct {
	Routines    *routines.Routines
	Sink        *diag.Sink
	Metrics     Metrics
	Introspector *introspect.Introspector // results of the previous layout iteration; nil on pass 1

	locCounter uint64
}

func NewEngine(rt *routines.Routines, sink *diag.Sink, metrics Metrics) *Engine {
	if rt == nil {
		rt = routines.Empty()
	}
	if sink == nil {
		sink = diag.NewSink(nil)
	}
	if metrics == nil {
		metrics = MonoMetrics{}
	}
	return &Engine{Routines: rt, Sink: sink, Metrics: metrics}
}

// kind ids resolved lazily since eval's element registrations run in
// eval's own init(), which may not have executed before layout's init()
// depending on import order; resolving by name on first use sidesteps
// that ordering dependency entirely.
var textKind, parKind, headingKind, listItemKind, enumItemKind, termItemKind,
	strongKind, emphKind, linebreakKind, rawKind, equationKind, contextualKind content.ElemKind
var kindsResolved bool

func resolveKinds() {
	if kindsResolved {
		return
	}
	lookup := func(name string) content.ElemKind {
		if def, ok := content.LookupByName(name); ok {
			return def.Kind
		}
		return 0
	}
	textKind = lookup("text")
	parKind = lookup("par")
	headingKind = lookup("heading")
	listItemKind = lookup("list-item")
	enumItemKind = lookup("enum-item")
	termItemKind = lookup("term-item")
	strongKind = lookup("strong")
	emphKind = lookup("emph")
	linebreakKind = lookup("linebreak")
	rawKind = lookup("raw")
	equationKind = lookup("equation")
	contextualKind = lookup("contextual")
	kindsResolved = true
}

// textSize reads the text-size style property, defaulting to 11pt (the
// teacher's own default body size in its EPUB CSS output) when unset.
func textSize(chain *style.Chain, kind content.ElemKind) value.Length {
	if v, ok := chain.Get(kind, "text-size"); ok {
		if l, ok := v.AsLength(); ok {
			return l
		}
	}
	return value.Length(11)
}

// nextLocation derives a fresh per-run Location for content lacking a
// stable identity of its own (plain text runs); content carrying a Label
// or registered as CapLocatable gets a Location derived from its own
// content hash instead, so repeated layout passes over unchanged content
// agree on its Location (spec §4.G: "Location must be stable across
// iterations for unchanged content").
func (e *Engine) nextLocation(c *content.Content, siblingIndex int) introspect.Location {
	if c != nil {
		if def, ok := content.Lookup(c.Kind); c.Label != "" || (ok && def.Capabilities&content.CapLocatable != 0) {
			return introspect.DeriveLocation(0, siblingIndex, c.Hash())
		}
	}
	e.locCounter++
	return introspect.DeriveLocation(e.locCounter, siblingIndex, contentHash(c))
}

func contentHash(c *content.Content) uint64 {
	if c == nil {
		return 0
	}
	return c.Hash()
}

// Layout realizes and lays c into regions, returning one Frame per region
// it was broken across. c is expected to already be fully realized by
// style.Realizer — Layout only re-realizes content it discovers mid-flow
// (contextual content, via Routines.Realize), matching spec §4.G's
// iterative-layout note that realization and layout interleave rather than
// running as two wholly separate passes.
func (e *Engine) Layout(c *content.Content, chain *style.Chain, regions Regions) (Fragment, error) {
	resolveKinds()
	return e.layoutFlow([]*content.Content{c}, chain, regions, 0)
}

// layoutFlow lays a block-level sequence of content top-to-bottom,
// overflowing into successive regions as each fills, and returns one Frame
// per region touched.
func (e *Engine) layoutFlow(items []*content.Content, chain *style.Chain, regions Regions, siblingBase int) (Fragment, error) {
	var frag Fragment
	cur := NewFrame(regions.Size)
	var cursorY value.Length

	place := func(child *Frame, loc introspect.Location, entry introspect.Entry) {
		if cursorY+child.Size.Y > regions.Size.Y && len(cur.Items) > 0 {
			frag = append(frag, cur)
			regions = regions.Next()
			cur = NewFrame(regions.Size)
			cursorY = 0
		}
		cur.PushFrame(Pt(0, cursorY), child)
		if loc != 0 {
			cur.PushTag(Pt(0, cursorY), loc, entry)
		}
		cursorY += child.Size.Y
	}

	for i, item := range items {
		item = e.flatten(item, chain)
		child, loc, entry, err := e.layoutBlock(item, chain, regions.Size.X, siblingBase+i)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		place(child, loc, entry)
	}
	frag = append(frag, cur)
	return frag, nil
}

// flatten re-realizes contextual content discovered mid-flow via
// Routines.Realize, and unwraps Styled wrappers the earlier realization
// pass left in place (realization normally strips these, but content
// layout constructs internally — e.g. a list's synthesized items — may
// still carry one).
func (e *Engine) flatten(c *content.Content, chain *style.Chain) *content.Content {
	if c == nil {
		return c
	}
	if c.IsStyled() {
		return e.flatten(c.Inner, chain)
	}
	if c.Kind == contextualKind && e.Routines.Realize != nil {
		realized, errs := e.Routines.Realize(c, chain)
		for _, se := range errs {
			e.Sink.Warn(diag.Warning{Message: se.Message})
		}
		if realized != nil {
			return realized
		}
	}
	return c
}

// layoutBlock lays one block-level node into a single region of the given
// width, returning the Frame it produced, the introspect.Location it
// should be tagged under (0 if none), and the Entry to record for that
// location.
func (e *Engine) layoutBlock(c *content.Content, chain *style.Chain, width value.Length, siblingIdx int) (*Frame, introspect.Location, introspect.Entry, error) {
	if c == nil {
		return nil, 0, introspect.Entry{}, nil
	}
	if c.IsSequence() {
		var frames []*Frame
		var total value.Length
		for i, child := range c.Children {
			f, _, _, err := e.layoutBlock(child, chain, width, siblingIdx*1000+i)
			if err != nil {
				return nil, 0, introspect.Entry{}, err
			}
			if f == nil {
				continue
			}
			frames = append(frames, f)
			total += f.Size.Y
		}
		out := NewFrame(Size{X: width, Y: total})
		var y value.Length
		for _, f := range frames {
			out.PushFrame(Pt(0, y), f)
			y += f.Size.Y
		}
		return out, 0, introspect.Entry{}, nil
	}

	loc := e.nextLocation(c, siblingIdx)
	entry := introspect.Entry{Content: c}

	switch c.Kind {
	case parKind:
		body, _ := c.Field("body")
		text := fieldText(body)
		size := textSize(chain, parKind)
		words := Shape(collapseSpaces(text), e.Metrics, size)
		segs := Flatten(words, e.Metrics, size)
		lh := e.Metrics.LineHeight(size)
		lines := BreakParagraph(segs, size, width)
		f := NewFrame(Size{X: width, Y: value.Length(len(lines)) * lh})
		var y value.Length
		for _, ln := range lines {
			f.PushText(Pt(0, y), TextRun{Text: LineText(segs, ln), Size: size})
			y += lh
		}
		return f, loc, entry, nil

	case headingKind:
		body, _ := c.Field("body")
		text := fieldText(body)
		level, _ := asInt(fieldVal(c, "level"))
		size := textSize(chain, headingKind) + value.Length(4)/value.Length(maxInt(int(level), 1))
		lh := e.Metrics.LineHeight(size)
		f := NewFrame(Size{X: width, Y: lh})
		f.PushText(Pt(0, 0), TextRun{Text: text, Size: size})
		return f, loc, entry, nil

	case listItemKind, enumItemKind, termItemKind:
		body, _ := c.Field("body")
		inner := asContent(body)
		marker := listMarker(c)
		indent := value.Length(18)
		f, _, _, err := e.layoutBlock(inner, chain, width-indent, siblingIdx)
		if err != nil || f == nil {
			return nil, loc, entry, err
		}
		out := NewFrame(Size{X: width, Y: f.Size.Y})
		size := textSize(chain, c.Kind)
		out.PushText(Pt(0, 0), TextRun{Text: marker, Size: size})
		out.PushFrame(Pt(indent, 0), f)
		return out, loc, entry, nil

	case rawKind:
		text := fieldText(fieldVal(c, "text"))
		size := textSize(chain, rawKind)
		lh := e.Metrics.LineHeight(size)
		lines := splitLines(text)
		f := NewFrame(Size{X: width, Y: value.Length(len(lines)) * lh})
		for i, ln := range lines {
			f.PushText(Pt(0, value.Length(i)*lh), TextRun{Text: ln, Size: size, Font: "mono"})
		}
		return f, loc, entry, nil

	case equationKind:
		size := textSize(chain, equationKind)
		lh := e.Metrics.LineHeight(size)
		f := NewFrame(Size{X: width, Y: lh})
		body, _ := c.Field("body")
		f.PushText(Pt(0, 0), TextRun{Text: fieldText(body), Size: size})
		return f, loc, entry, nil

	case textKind, strongKind, emphKind, linebreakKind:
		// Inline-only kinds reaching layoutBlock directly (not nested under a
		// par) still need a Frame of their own — e.g. a bare `context`
		// producing loose text.
		text := fieldText(fieldVal(c, "text"))
		size := textSize(chain, c.Kind)
		lh := e.Metrics.LineHeight(size)
		f := NewFrame(Size{X: width, Y: lh})
		f.PushText(Pt(0, 0), TextRun{Text: text, Size: size})
		return f, loc, entry, nil

	default:
		e.Sink.Warn(diag.Warning{Message: fmt.Sprintf("layout: no layout rule for element kind %d, skipping", c.Kind)})
		return nil, 0, introspect.Entry{}, nil
	}
}

func listMarker(c *content.Content) string {
	switch c.Kind {
	case enumItemKind:
		n, _ := asInt(fieldVal(c, "number"))
		return fmt.Sprintf("%d.", n)
	case termItemKind:
		return fieldText(fieldVal(c, "term")) + ":"
	default:
		return "•"
	}
}

func fieldVal(c *content.Content, name string) content.Val {
	v, _ := c.Field(name)
	return v
}

func fieldText(v content.Val) string {
	if v == nil {
		return ""
	}
	if cc, ok := v.(*content.Content); ok {
		return content.PlainText(cc)
	}
	if sv, ok := v.(value.Value); ok {
		if s, ok := sv.AsStr(); ok {
			return s
		}
		if ct, ok := sv.AsContent(); ok {
			if cc, ok := ct.(*content.Content); ok {
				return content.PlainText(cc)
			}
		}
	}
	return v.String()
}

func asContent(v content.Val) *content.Content {
	if v == nil {
		return nil
	}
	if cc, ok := v.(*content.Content); ok {
		return cc
	}
	if sv, ok := v.(value.Value); ok {
		if ct, ok := sv.AsContent(); ok {
			if cc, ok := ct.(*content.Content); ok {
				return cc
			}
		}
	}
	return nil
}

func asInt(v content.Val) (int64, bool) {
	if sv, ok := v.(value.Value); ok {
		return sv.AsInt()
	}
	return 0, false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
