package eval

import (
	"typeset/diag"
	"typeset/syntax"
	"typeset/value"
)

// evalClosureExpr builds a value.Closure from a Closure node. The only shape
// parseParenForm actually produces from source is [ParamList, Arrow, body]
// — a closure always starts from a parenthesized parameter list (the
// KindFuncKw primary the grammar also defines is never reachable, since no
// lexer keyword maps to it; treated below as a defensive zero-param form).
func (m *vm) evalClosureExpr(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	var params []value.Param
	var body *syntax.Node
	var errs []*diag.SourceError
	seen := map[string]bool{}

	for _, c := range kids {
		switch c.Kind() {
		case syntax.KindParamList:
			params, errs = m.evalParamList(c, seen)
		case syntax.KindArrow, syntax.KindFuncKw:
			continue
		default:
			if isTrivia(c) {
				continue
			}
			body = c
		}
	}

	closure := &value.Closure{Params: params, Body: body, Captures: m.scopes.Snapshot()}
	return value.FuncOf(&value.Func{Closure: closure}), errs
}

// evalParamList reads a closure's parameter list — the same generic
// paren-interior shape parseParenForm builds for arrays/dicts: bare KindIdent
// entries for required parameters, KindDictEntry("name: default") entries
// for parameters with a default value. "..rest" sink parameters cannot be
// produced by this grammar (parseParenForm never handles KindDotDot), so
// value.Param.Sink never gets set here — a bootstrap-only limitation, see
// DESIGN.md.
func (m *vm) evalParamList(n *syntax.Node, seen map[string]bool) ([]value.Param, []*diag.SourceError) {
	var out []value.Param
	var errs []*diag.SourceError
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindIdent:
			name := c.Text()
			if seen[name] {
				errs = append(errs, diag.Error(span(c), "duplicate parameter %q", name))
				continue
			}
			seen[name] = true
			out = append(out, value.Param{Name: name, Default: value.None()})
		case syntax.KindDictEntry:
			kids := c.Children()
			if len(kids) < 3 {
				continue
			}
			name := kids[0].Text()
			if seen[name] {
				errs = append(errs, diag.Error(span(c), "duplicate parameter %q", name))
				continue
			}
			seen[name] = true
			def, es := m.evalExpr(kids[2])
			errs = append(errs, es...)
			out = append(out, value.Param{Name: name, Default: def})
		}
	}
	return out, errs
}

// callClosure binds args to params in a fresh scope, evaluates the body, and
// unwinds a pending `return` (spec §4.E flow semantics: return only
// propagates to the nearest enclosing function).
func (m *vm) callClosure(cl *value.Closure, args *value.Args, callSpan syntax.Span) (value.Value, []*diag.SourceError) {
	child := &vm{
		engine: m.engine,
		file:   m.file,
		scopes: NewScopes(),
		styles: m.styles,
		inFunc: true,
	}
	for name, v := range cl.Captures {
		child.scopes.Define(name, v)
	}

	var errs []*diag.SourceError
	pos := append([]value.Value(nil), args.Pos...)
	for _, p := range cl.Params {
		if v, ok := args.Named[p.Name]; ok {
			child.scopes.Define(p.Name, v)
			continue
		}
		if len(pos) > 0 {
			child.scopes.Define(p.Name, pos[0])
			pos = pos[1:]
			continue
		}
		if !p.Default.IsNone() {
			child.scopes.Define(p.Name, p.Default)
			continue
		}
		errs = append(errs, diag.Error(callSpan, "missing argument for parameter %q", p.Name))
	}

	if cl.Body == nil {
		return value.None(), errs
	}
	var result value.Value
	var bodyErrs []*diag.SourceError
	if cl.Body.Kind() == syntax.KindCodeBlock {
		result, bodyErrs = child.evalCodeBlock(cl.Body)
	} else {
		result, bodyErrs = child.evalExpr(cl.Body)
	}
	errs = append(errs, bodyErrs...)
	if child.flow == flowReturn {
		result = child.flowVal
	}
	return result, errs
}

// evalArgs evaluates a call's Args node into a value.Args.
func (m *vm) evalArgs(n *syntax.Node) (*value.Args, []*diag.SourceError) {
	out := &value.Args{Span: span(n), Named: map[string]value.Value{}, NamedSpans: map[string]syntax.Span{}}
	var errs []*diag.SourceError
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindNamedArg:
			kids := c.Children()
			if len(kids) < 3 {
				continue
			}
			name := kids[0].Text()
			v, es := m.evalExpr(kids[2])
			errs = append(errs, es...)
			out.Named[name] = v
			out.NamedSpans[name] = span(c)
		case syntax.KindSpreadArg:
			kids := c.Children()
			if len(kids) < 2 {
				continue
			}
			v, es := m.evalExpr(kids[1])
			errs = append(errs, es...)
			switch v.Kind() {
			case value.KindArray:
				arr, _ := v.AsArray()
				out.Pos = append(out.Pos, arr...)
				for range arr {
					out.PosSpans = append(out.PosSpans, span(c))
				}
			case value.KindDict:
				d, _ := v.AsDict()
				for _, k := range d.Keys() {
					val, _ := d.Get(k)
					out.Named[k] = val
					out.NamedSpans[k] = span(c)
				}
			}
		default:
			if isTrivia(c) || c.Kind() == syntax.KindLeftParen || c.Kind() == syntax.KindRightParen || c.Kind() == syntax.KindComma {
				continue
			}
			v, es := m.evalExpr(c)
			errs = append(errs, es...)
			out.Pos = append(out.Pos, v)
			out.PosSpans = append(out.PosSpans, span(c))
		}
	}
	return out, errs
}

// localeCasedString applies a method-sugar str transform (".upper()" /
// ".lower()"): the only field-access call forms that aren't a plain
// closure/native Func call, since the language has no real string methods —
// just these two BCP-47-aware casing builtins (spec supplement, see
// DESIGN.md).
func localeCasedString(s string, method string, args *value.Args) (string, bool) {
	caserFn, ok := localeCaser[method]
	if !ok {
		return "", false
	}
	tag := defaultLocaleTag
	if len(args.Pos) > 0 {
		if tagStr, ok := args.Pos[0].AsStr(); ok {
			tag = tagStr
		}
	}
	return caserFn(languageTag(tag)).String(s), true
}
