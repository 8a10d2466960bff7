package eval

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"typeset/content"
	"typeset/diag"
	"typeset/syntax"
	"typeset/value"
)

// EvalMarkup evaluates a full markup node (spec §4.E: "Markup: produces
// content; space-collapsing is delayed to realization"). Used both for a
// file's root Markup node and for a nested content block's inner sequence.
func (m *vm) EvalMarkup(n *syntax.Node) (*content.Content, []*diag.SourceError) {
	return m.evalBlockSequence(n.Children())
}

func isTrivia(n *syntax.Node) bool {
	k := n.Kind()
	return k.IsTrivia() || k == syntax.KindSemicolon
}

// evalBlockSequence walks a sequence of markup-level nodes (a file's root
// Markup, or a content block's interior), grouping inline runs into
// paragraphs at blank lines (spec supplement: the grammar produces no
// explicit Paragraph node, see DESIGN.md "paragraph grouping").
func (m *vm) evalBlockSequence(nodes []*syntax.Node) (*content.Content, []*diag.SourceError) {
	var out []*content.Content
	var buf []*content.Content
	var errs []*diag.SourceError
	enumCounter := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		body := content.Sequence(buf...)
		out = append(out, content.NewElem(kindParagraph.Kind, body.Span()).WithField("body", body))
		buf = nil
	}

	i := 0
	for i < len(nodes) {
		n := nodes[i]
		switch n.Kind() {
		case syntax.KindHeading, syntax.KindListItem, syntax.KindEnumItem, syntax.KindTermItem:
			flush()
			if n.Kind() != syntax.KindEnumItem {
				enumCounter = 0
			} else {
				enumCounter++
			}
			elem, es := m.evalMarkerLine(n, enumCounter)
			errs = append(errs, es...)
			if elem != nil {
				out = append(out, elem)
			}
		case syntax.KindHash:
			enumCounter = 0
			if i+1 < len(nodes) && nodes[i+1].Kind() != syntax.KindNewline {
				v, es := m.evalCodeConstructNode(nodes[i+1])
				errs = append(errs, es...)
				if c := m.valueToContent(v); c != nil && !isEmptyContent(c) {
					buf = append(buf, c)
				}
				i++
			}
		case syntax.KindLabel:
			enumCounter = 0
			label := strings.TrimSuffix(strings.TrimPrefix(n.Text(), "<"), ">")
			if len(buf) > 0 {
				buf[len(buf)-1] = buf[len(buf)-1].WithLabel(label)
			} else if len(out) > 0 {
				out[len(out)-1] = out[len(out)-1].WithLabel(label)
			}
		default:
			enumCounter = 0
			item, blank, es := m.evalInlineItem(n)
			errs = append(errs, es...)
			if blank {
				flush()
			} else if item != nil {
				buf = append(buf, item)
			}
		}
		i++
	}
	flush()
	return content.Sequence(out...), errs
}

// evalInlineList walks a flat run of inline-producing nodes (a delimited
// span's body, or a marker line's trailing content) with no paragraph
// grouping — the grammar never lets a blank line occur inside one of these.
func (m *vm) evalInlineList(nodes []*syntax.Node) (*content.Content, []*diag.SourceError) {
	var out []*content.Content
	var errs []*diag.SourceError
	i := 0
	for i < len(nodes) {
		n := nodes[i]
		switch {
		case n.Kind() == syntax.KindHash:
			if i+1 < len(nodes) && nodes[i+1].Kind() != syntax.KindNewline {
				v, es := m.evalCodeConstructNode(nodes[i+1])
				errs = append(errs, es...)
				if c := m.valueToContent(v); c != nil && !isEmptyContent(c) {
					out = append(out, c)
				}
				i++
			}
		case n.Kind() == syntax.KindLabel:
			label := strings.TrimSuffix(strings.TrimPrefix(n.Text(), "<"), ">")
			if len(out) > 0 {
				out[len(out)-1] = out[len(out)-1].WithLabel(label)
			}
		default:
			item, _, es := m.evalInlineItem(n)
			errs = append(errs, es...)
			if item != nil {
				out = append(out, item)
			}
		}
		i++
	}
	return content.Sequence(out...), errs
}

// evalInlineItem evaluates one non-Hash markup leaf/span into content.
// blank reports a blank-line Newline, which only evalBlockSequence acts on.
func (m *vm) evalInlineItem(n *syntax.Node) (c *content.Content, blank bool, errs []*diag.SourceError) {
	switch n.Kind() {
	case syntax.KindSpace:
		return content.NewElem(kindText.Kind, n.Span()).WithField("text", value.Str(" ")), false, nil
	case syntax.KindNewline:
		if strings.Count(n.Text(), "\n") >= 2 {
			return nil, true, nil
		}
		return content.NewElem(kindText.Kind, n.Span()).WithField("text", value.Str(" ")), false, nil
	case syntax.KindText:
		return content.NewElem(kindText.Kind, n.Span()).WithField("text", value.Str(n.Text())), false, nil
	case syntax.KindComment:
		return nil, false, nil
	case syntax.KindRaw:
		return content.NewElem(kindRaw.Kind, n.Span()).WithField("text", value.Str(stripRawFence(n.Text()))), false, nil
	case syntax.KindLinebreak:
		return content.NewElem(kindLinebreak.Kind, n.Span()), false, nil
	case syntax.KindStrong:
		body, es := m.evalInlineList(delimitedBody(n, syntax.KindStrongDelim))
		return content.NewElem(kindStrong.Kind, n.Span()).WithField("body", body), false, es
	case syntax.KindEmph:
		body, es := m.evalInlineList(delimitedBody(n, syntax.KindEmphDelim))
		return content.NewElem(kindEmph.Kind, n.Span()).WithField("body", body), false, es
	case syntax.KindMathBlock:
		return content.NewElem(kindMath.Kind, n.Span()).WithField("body", value.Str(stripMathDelims(n.Text()))), false, nil
	default:
		return nil, false, nil
	}
}

// delimitedBody strips the opening delimiter and, if present, the matching
// closing delimiter from a Strong/Emph node's children.
func delimitedBody(n *syntax.Node, delim syntax.Kind) []*syntax.Node {
	kids := n.Children()
	if len(kids) == 0 {
		return nil
	}
	kids = kids[1:]
	if len(kids) > 0 && kids[len(kids)-1].Kind() == delim {
		kids = kids[:len(kids)-1]
	}
	return kids
}

func stripRawFence(text string) string {
	n := 0
	for n < len(text) && text[n] == '`' {
		n++
	}
	if n == 0 {
		return text
	}
	inner := text[n:]
	if len(inner) >= n && strings.HasSuffix(inner, strings.Repeat("`", n)) {
		inner = inner[:len(inner)-n]
	}
	return inner
}

func stripMathDelims(text string) string {
	return strings.Trim(text, "$")
}

// evalMarkerLine builds a Heading/ListItem/EnumItem/TermItem element from
// its marker-line children: [marker, ...lineContent].
func (m *vm) evalMarkerLine(n *syntax.Node, enumIndex int) (*content.Content, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) == 0 {
		return nil, nil
	}
	marker := kids[0]
	body, errs := m.evalInlineList(kids[1:])

	switch n.Kind() {
	case syntax.KindHeading:
		level := len(strings.TrimSpace(marker.Text()))
		return content.NewElem(kindHeading.Kind, n.Span()).
			WithField("level", value.Int(int64(level))).
			WithField("body", body), errs
	case syntax.KindListItem:
		return content.NewElem(kindListItem.Kind, n.Span()).WithField("body", body), errs
	case syntax.KindEnumItem:
		return content.NewElem(kindEnumItem.Kind, n.Span()).
			WithField("number", value.Int(int64(enumIndex))).
			WithField("body", body), errs
	case syntax.KindTermItem:
		term, rest := splitTermBody(body)
		return content.NewElem(kindTermItem.Kind, n.Span()).
			WithField("term", value.Str(term)).
			WithField("body", rest), errs
	default:
		return nil, errs
	}
}

// splitTermBody pulls "term" text out of a term-item's body at its first
// colon (the grammar has no dedicated term/description separator token —
// '/' only marks the start of the line, spec supplement, see DESIGN.md).
func splitTermBody(body *content.Content) (string, *content.Content) {
	if !body.IsSequence() || len(body.Children) == 0 {
		return "", body
	}
	first := body.Children[0]
	if first.Kind != kindText.Kind {
		return "", body
	}
	raw, ok := first.Field("text")
	if !ok {
		return "", body
	}
	rv, ok := raw.(value.Value)
	if !ok {
		return "", body
	}
	text, _ := rv.AsStr()
	idx := strings.Index(text, ":")
	if idx < 0 {
		return "", body
	}
	term := strings.TrimSpace(text[:idx])
	rest := strings.TrimLeft(text[idx+1:], " \t")
	newFirst := first.WithField("text", value.Str(rest))
	children := append([]*content.Content{newFirst}, body.Children[1:]...)
	return term, content.Sequence(children...)
}

// valueToContent lowers a code-produced Value into content, the way a
// hash-embedded expression splices into the surrounding markup (spec
// §4.E: "Code blocks: produce values... side-effects push into the content
// buffer only in markup/math contexts").
func (m *vm) valueToContent(v value.Value) *content.Content {
	switch v.Kind() {
	case value.KindContent:
		c, _ := v.AsContent()
		cc, _ := c.(*content.Content)
		return cc
	case value.KindNone, value.KindAuto:
		return nil
	case value.KindStr:
		s, _ := v.AsStr()
		return content.NewElem(kindText.Kind, syntax.DetachedSpan).WithField("text", value.Str(s))
	default:
		return content.NewElem(kindText.Kind, syntax.DetachedSpan).WithField("text", value.Str(v.String()))
	}
}

func isEmptyContent(c *content.Content) bool {
	return c == nil || (c.IsSequence() && len(c.Children) == 0)
}

// --- code constructs & expressions ---

// evalCodeConstructNode dispatches one child of a CodeBlock (or a single
// hash-embedded construct) to its statement/expression handler.
func (m *vm) evalCodeConstructNode(n *syntax.Node) (value.Value, []*diag.SourceError) {
	switch n.Kind() {
	case syntax.KindLetBinding:
		return value.None(), m.evalLet(n)
	case syntax.KindSetRule:
		return value.None(), m.evalSetRule(n)
	case syntax.KindShowRule:
		return value.None(), m.evalShowRule(n)
	case syntax.KindIfExpr:
		return m.evalIf(n)
	case syntax.KindForLoop:
		return value.None(), m.evalFor(n)
	case syntax.KindWhileLoop:
		return value.None(), m.evalWhile(n)
	case syntax.KindImportStmt:
		return value.None(), m.evalImport(n)
	case syntax.KindIncludeStmt:
		return m.evalInclude(n)
	case syntax.KindBreakStmt:
		if m.inLoop == 0 {
			return value.None(), []*diag.SourceError{diag.Error(span(n), "break used outside of a loop")}
		}
		m.flow = flowBreak
		return value.None(), nil
	case syntax.KindContinueStmt:
		if m.inLoop == 0 {
			return value.None(), []*diag.SourceError{diag.Error(span(n), "continue used outside of a loop")}
		}
		m.flow = flowContinue
		return value.None(), nil
	case syntax.KindReturnStmt:
		return m.evalReturn(n)
	default:
		return m.evalExpr(n)
	}
}

func (m *vm) evalReturn(n *syntax.Node) (value.Value, []*diag.SourceError) {
	if !m.inFunc {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "return used outside of a function")}
	}
	var result value.Value = value.None()
	var errs []*diag.SourceError
	for _, c := range n.Children()[1:] {
		if isTrivia(c) {
			continue
		}
		result, errs = m.evalExpr(c)
		break
	}
	m.flow = flowReturn
	m.flowVal = result
	return result, errs
}

// evalExpr evaluates any expression-shaped node.
func (m *vm) evalExpr(n *syntax.Node) (value.Value, []*diag.SourceError) {
	switch n.Kind() {
	case syntax.KindInt:
		v, err := parseInt(n.Text())
		return v, errList(span(n), err)
	case syntax.KindFloat:
		v, err := parseFloat(n.Text())
		return v, errList(span(n), err)
	case syntax.KindNumeric:
		v, err := parseNumeric(n.Text())
		return v, errList(span(n), err)
	case syntax.KindStr:
		return value.Str(unquoteStr(n.Text())), nil
	case syntax.KindTrue:
		return value.Bool(true), nil
	case syntax.KindFalse:
		return value.Bool(false), nil
	case syntax.KindNone:
		return value.None(), nil
	case syntax.KindAuto:
		return value.Auto(), nil
	case syntax.KindLabel:
		return value.LabelOf(value.Label(strings.TrimSuffix(strings.TrimPrefix(n.Text(), "<"), ">"))), nil
	case syntax.KindIdent:
		if v, ok := m.scopes.Get(n.Text()); ok {
			return v, nil
		}
		return value.None(), []*diag.SourceError{diag.Error(span(n), "undefined name: %s", n.Text())}
	case syntax.KindBinary:
		return m.evalBinaryNode(n)
	case syntax.KindUnary:
		return m.evalUnaryNode(n)
	case syntax.KindFieldAccess:
		return m.evalFieldAccess(n)
	case syntax.KindFuncCall:
		return m.evalCall(n)
	case syntax.KindArray:
		return m.evalArray(n)
	case syntax.KindDict:
		return m.evalDict(n)
	case syntax.KindParenExpr:
		return m.evalParen(n)
	case syntax.KindClosure:
		return m.evalClosureExpr(n)
	case syntax.KindContextExpr:
		return m.evalContextExpr(n)
	case syntax.KindCodeBlock:
		return m.evalCodeBlock(n)
	case syntax.KindContentBlock:
		kids := n.Children()
		if len(kids) >= 2 {
			kids = kids[1 : len(kids)-1]
		}
		c, errs := m.evalBlockSequence(kids)
		return value.ContentOf(c), errs
	case syntax.KindError:
		return value.None(), []*diag.SourceError{diag.Error(span(n), "syntax error")}
	default:
		return value.None(), []*diag.SourceError{diag.Error(span(n), "cannot evaluate %s as an expression", n.Kind())}
	}
}

// evalCodeBlock evaluates a "{ ... }" code block's children in a fresh
// scope, threading flow (break/continue/return) out as soon as one fires
// and otherwise yielding its last construct's value (spec §4.E: code
// blocks produce values).
func (m *vm) evalCodeBlock(n *syntax.Node) (value.Value, []*diag.SourceError) {
	m.scopes.Push()
	defer m.scopes.Pop()

	var result value.Value = value.None()
	var errs []*diag.SourceError
	for _, c := range n.Children() {
		if isTrivia(c) || c.Kind() == syntax.KindLeftBrace || c.Kind() == syntax.KindRightBrace {
			continue
		}
		v, es := m.evalCodeConstructNode(c)
		errs = append(errs, es...)
		result = v
		if m.flow != flowNone {
			break
		}
	}
	return result, errs
}

func errList(sp syntax.Span, err error) []*diag.SourceError {
	if err == nil {
		return nil
	}
	return []*diag.SourceError{diag.At(sp, err)}
}

func (m *vm) evalBinaryNode(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) != 3 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed binary expression")}
	}
	l, errs := m.evalExpr(kids[0])
	r, es := m.evalExpr(kids[2])
	errs = append(errs, es...)
	if len(errs) > 0 {
		return value.None(), errs
	}
	v, err := applyBinary(kids[1].Text(), l, r)
	if err != nil {
		return value.None(), []*diag.SourceError{diag.At(span(kids[1]), err)}
	}
	return v, nil
}

func (m *vm) evalUnaryNode(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) != 2 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed unary expression")}
	}
	operand, errs := m.evalExpr(kids[1])
	if len(errs) > 0 {
		return value.None(), errs
	}
	v, err := applyUnary(kids[0].Text(), operand)
	if err != nil {
		return value.None(), []*diag.SourceError{diag.At(span(kids[0]), err)}
	}
	return v, nil
}

// localeCaser maps the locale-sensitive str methods evaluated directly
// rather than through generic field access (spec §4.E supplement: casing is
// BCP-47-aware, see DESIGN.md) to their golang.org/x/text/cases casers.
var localeCaser = map[string]func(language.Tag) cases.Caser{
	"upper": cases.Upper,
	"lower": cases.Lower,
}

// defaultLocaleTag is used when a casing call passes no explicit BCP-47 tag.
const defaultLocaleTag = "und"

func languageTag(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Und
	}
	return t
}

// evalCall evaluates a FuncCall node: [callee, Args]. A callee shaped as
// "ident.upper"/"ident.lower" on a string receiver is the language's only
// method-call sugar (spec supplement, see DESIGN.md); everything else
// resolves the callee to a Func value and calls it.
func (m *vm) evalCall(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) != 2 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed call")}
	}
	callee, argsNode := kids[0], kids[1]
	args, errs := m.evalArgs(argsNode)
	if len(errs) > 0 {
		return value.None(), errs
	}

	if callee.Kind() == syntax.KindFieldAccess {
		fieldKids := callee.Children()
		if len(fieldKids) == 3 {
			recv, es := m.evalExpr(fieldKids[0])
			errs = append(errs, es...)
			if len(errs) > 0 {
				return value.None(), errs
			}
			if recv.Kind() == value.KindStr {
				s, _ := recv.AsStr()
				if out, ok := localeCasedString(s, fieldKids[2].Text(), args); ok {
					return value.Str(out), nil
				}
			}
		}
	}

	fn, errs := m.evalExpr(callee)
	if len(errs) > 0 {
		return value.None(), errs
	}
	return m.callValue(fn, args, span(n))
}

func (m *vm) callValue(fn value.Value, args *value.Args, callSpan syntax.Span) (value.Value, []*diag.SourceError) {
	f, ok := fn.AsFunc()
	if !ok {
		return value.None(), []*diag.SourceError{diag.Error(callSpan, "cannot call a value of kind %s", fn.Kind())}
	}
	if f.Native != nil {
		v, err := f.Native(args)
		if err != nil {
			return value.None(), []*diag.SourceError{diag.At(callSpan, err)}
		}
		return v, nil
	}
	if f.Closure != nil {
		return m.callClosure(f.Closure, args, callSpan)
	}
	return value.None(), []*diag.SourceError{diag.Error(callSpan, "function %q has no implementation", f.Name)}
}

func (m *vm) evalFieldAccess(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) != 3 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed field access")}
	}
	base, errs := m.evalExpr(kids[0])
	if len(errs) > 0 {
		return value.None(), errs
	}
	name := kids[2].Text()
	return m.fieldOf(base, name, span(n))
}

func (m *vm) fieldOf(base value.Value, name string, sp syntax.Span) (value.Value, []*diag.SourceError) {
	switch base.Kind() {
	case value.KindDict:
		d, _ := base.AsDict()
		if v, ok := d.Get(name); ok {
			return v, nil
		}
		return value.None(), []*diag.SourceError{diag.Error(sp, "dictionary has no field %q", name)}
	case value.KindContent:
		c, _ := base.AsContent()
		cc, _ := c.(*content.Content)
		if cc == nil {
			break
		}
		fv, ok := cc.Field(name)
		if !ok {
			return value.None(), []*diag.SourceError{diag.Error(sp, "element has no field %q", name)}
		}
		return toValue(fv), nil
	}
	return value.None(), []*diag.SourceError{diag.Error(sp, "cannot access field %q on %s", name, base.Kind())}
}

// toValue converts a content.Val back into a value.Value at the boundary
// where eval reads a field it previously wrote (see content.Val's doc for
// why the two concrete cases below are the only ones that can occur here).
func toValue(v content.Val) value.Value {
	if vv, ok := v.(value.Value); ok {
		return vv
	}
	if cc, ok := v.(*content.Content); ok {
		return value.ContentOf(cc)
	}
	return value.Str(v.String())
}

func (m *vm) evalArray(n *syntax.Node) (value.Value, []*diag.SourceError) {
	var out []value.Value
	var errs []*diag.SourceError
	for _, c := range n.Children() {
		if isTrivia(c) || c.Kind() == syntax.KindLeftParen || c.Kind() == syntax.KindRightParen || c.Kind() == syntax.KindComma {
			continue
		}
		v, es := m.evalExpr(c)
		errs = append(errs, es...)
		out = append(out, v)
	}
	return value.ArrayOf(out), errs
}

func (m *vm) evalDict(n *syntax.Node) (value.Value, []*diag.SourceError) {
	d := value.NewDict()
	var errs []*diag.SourceError
	for _, c := range n.Children() {
		if c.Kind() != syntax.KindDictEntry {
			continue
		}
		entry := c.Children()
		if len(entry) != 3 {
			continue
		}
		v, es := m.evalExpr(entry[2])
		errs = append(errs, es...)
		d.Set(entry[0].Text(), v)
	}
	return value.DictOf(d), errs
}

func (m *vm) evalParen(n *syntax.Node) (value.Value, []*diag.SourceError) {
	for _, c := range n.Children() {
		if isTrivia(c) || c.Kind() == syntax.KindLeftParen || c.Kind() == syntax.KindRightParen {
			continue
		}
		return m.evalExpr(c)
	}
	return value.None(), nil
}

func (m *vm) evalContextExpr(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) != 2 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed context expression")}
	}
	closure := &value.Closure{Body: kids[1], Captures: m.scopes.Snapshot()}
	fn := value.FuncOf(&value.Func{Name: "context", Closure: closure})
	elem := content.NewElem(kindContextual.Kind, n.Span()).WithField("fn", fn)
	return value.ContentOf(elem), nil
}
