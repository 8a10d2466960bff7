package eval

import (
	"regexp"
	"strings"

	"typeset/content"
	"typeset/diag"
	"typeset/style"
	"typeset/syntax"
	"typeset/value"
)

// evalLet handles "let name = expr" and "let (a, b) = expr".
func (m *vm) evalLet(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	var target *syntax.Node
	var init *syntax.Node
	for i := 1; i < len(kids); i++ {
		c := kids[i]
		switch c.Kind() {
		case syntax.KindIdent, syntax.KindDestructuring:
			if target == nil {
				target = c
			}
		case syntax.KindEq:
			if i+1 < len(kids) {
				init = kids[i+1]
			}
		}
	}
	var v value.Value = value.None()
	var errs []*diag.SourceError
	if init != nil {
		v, errs = m.evalExpr(init)
	}
	if target == nil {
		return errs
	}
	if target.Kind() == syntax.KindIdent {
		m.scopes.Define(target.Text(), v)
		return errs
	}
	return append(errs, m.bindDestructuring(target, v)...)
}

// bindDestructuring binds each identifier in a "(a, b, c)" pattern against
// the positional elements of an array value (the grammar never produces
// nested or dict-shaped destructuring patterns, only a flat ident list).
func (m *vm) bindDestructuring(n *syntax.Node, v value.Value) []*diag.SourceError {
	arr, ok := v.AsArray()
	var errs []*diag.SourceError
	if !ok {
		errs = append(errs, diag.Error(span(n), "cannot destructure a value of kind %s", v.Kind()))
	}
	idx := 0
	for _, c := range n.Children() {
		if c.Kind() != syntax.KindIdent {
			continue
		}
		var val value.Value = value.None()
		if idx < len(arr) {
			val = arr[idx]
		}
		m.scopes.Define(c.Text(), val)
		idx++
	}
	return errs
}

// evalSetRule handles "set Elem(field: value, ...) [if cond]", pushing a
// partial StyleMap onto the current style chain (spec §4.F: set rules build
// partial StyleMaps).
func (m *vm) evalSetRule(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	if len(kids) < 2 {
		return nil
	}
	target := kids[1]
	var cond *syntax.Node
	for i := 2; i < len(kids); i++ {
		if kids[i].Kind() == syntax.KindIf && i+1 < len(kids) {
			cond = kids[i+1]
		}
	}
	if cond != nil {
		cv, errs := m.evalExpr(cond)
		if len(errs) > 0 {
			return errs
		}
		if b, ok := cv.AsBool(); ok && !b {
			return nil
		}
	}
	if target.Kind() != syntax.KindFuncCall {
		return []*diag.SourceError{diag.Error(span(target), "set rule target must be an element constructor call")}
	}
	fkids := target.Children()
	if len(fkids) != 2 {
		return nil
	}
	callee, argsNode := fkids[0], fkids[1]
	if callee.Kind() != syntax.KindIdent {
		return []*diag.SourceError{diag.Error(span(callee), "set rule target must name an element")}
	}
	def, ok := content.LookupByName(callee.Text())
	if !ok {
		return []*diag.SourceError{diag.Error(span(callee), "unknown element %q", callee.Text())}
	}
	args, errs := m.evalArgs(argsNode)
	if len(errs) > 0 {
		return errs
	}
	sm := style.NewStyleMap()
	for k, v := range args.Named {
		sm = sm.Set(def.Kind, k, v)
	}
	m.styles = m.styles.Push(sm)
	return nil
}

// evalShowRule handles "show [selector]: transform" (spec §4.F: show rules
// yield Recipes).
func (m *vm) evalShowRule(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	idx := 1
	var targetNode *syntax.Node
	if idx < len(kids) && kids[idx].Kind() != syntax.KindColon {
		targetNode = kids[idx]
		idx++
	}
	for idx < len(kids) && kids[idx].Kind() != syntax.KindColon {
		idx++
	}
	if idx >= len(kids) {
		return nil
	}
	idx++
	var transformNode *syntax.Node
	if idx < len(kids) {
		transformNode = kids[idx]
	}

	sel, errs := m.evalSelector(targetNode)
	if transformNode == nil {
		return errs
	}
	tv, es := m.evalExpr(transformNode)
	errs = append(errs, es...)
	if len(errs) > 0 {
		return errs
	}

	recipe := &style.Recipe{Selector: sel, Transform: m.buildTransform(tv)}
	m.styles = m.styles.Push(style.NewStyleMap(), recipe)
	return errs
}

func (m *vm) evalSelector(n *syntax.Node) (style.Selector, []*diag.SourceError) {
	if n == nil {
		return style.Auto(), nil
	}
	switch n.Kind() {
	case syntax.KindIdent:
		def, ok := content.LookupByName(n.Text())
		if !ok {
			return style.Auto(), []*diag.SourceError{diag.Error(span(n), "unknown element %q", n.Text())}
		}
		return style.ElemSelector(def.Kind, nil), nil
	case syntax.KindLabel:
		label := strings.TrimSuffix(strings.TrimPrefix(n.Text(), "<"), ">")
		return style.LabelSelector(label), nil
	case syntax.KindStr:
		pattern := regexp.QuoteMeta(unquoteStr(n.Text()))
		re, err := regexp.Compile(pattern)
		if err != nil {
			return style.Auto(), []*diag.SourceError{diag.At(span(n), err)}
		}
		return style.RegexSelector(re), nil
	default:
		v, errs := m.evalExpr(n)
		if len(errs) > 0 {
			return style.Auto(), errs
		}
		if v.Kind() == value.KindFunc {
			fn := v
			return style.CustomSelector(func(c *content.Content) bool {
				res, _ := m.callValue(fn, &value.Args{Pos: []value.Value{value.ContentOf(c)}}, syntax.DetachedSpan)
				b, _ := res.AsBool()
				return b
			}), nil
		}
		return style.Auto(), []*diag.SourceError{diag.Error(span(n), "unsupported show-rule selector")}
	}
}

// buildTransform lowers a show rule's evaluated right-hand side into a
// style.Transform: a Func becomes a content→content call with the matched
// node passed as its sole positional argument, anything else becomes a
// constant replacement.
func (m *vm) buildTransform(v value.Value) style.Transform {
	switch v.Kind() {
	case value.KindFunc:
		fn := v
		return style.FuncTransform(func(c *content.Content) (*content.Content, error) {
			args := &value.Args{Pos: []value.Value{value.ContentOf(c)}}
			res, errs := m.callValue(fn, args, syntax.DetachedSpan)
			if len(errs) > 0 {
				return nil, errs[0]
			}
			out := m.valueToContent(res)
			if out == nil {
				out = content.Sequence()
			}
			return out, nil
		})
	case value.KindStr:
		s, _ := v.AsStr()
		return style.SymbolTransform(s)
	default:
		fixed := m.valueToContent(v)
		return style.FuncTransform(func(*content.Content) (*content.Content, error) { return fixed, nil })
	}
}

// evalIf handles "if cond block [else block]" (spec: if-expressions produce
// a value, the block's own).
func (m *vm) evalIf(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) < 3 {
		return value.None(), []*diag.SourceError{diag.Error(span(n), "malformed if expression")}
	}
	cond, errs := m.evalExpr(kids[1])
	if len(errs) > 0 {
		return value.None(), errs
	}
	b, ok := cond.AsBool()
	if !ok {
		return value.None(), []*diag.SourceError{diag.Error(span(kids[1]), "condition must be a bool, found %s", cond.Kind())}
	}

	var thenNode, elseNode *syntax.Node
	seenThen := false
	for i := 2; i < len(kids); i++ {
		c := kids[i]
		if isTrivia(c) || c.Kind() == syntax.KindElse {
			continue
		}
		if !seenThen {
			thenNode = c
			seenThen = true
		} else {
			elseNode = c
		}
	}
	if b {
		if thenNode == nil {
			return value.None(), nil
		}
		return m.evalExpr(thenNode)
	}
	if elseNode == nil {
		return value.None(), nil
	}
	return m.evalExpr(elseNode)
}

// evalFor handles "for name in iterable block" and "for (k, v) in dict
// block", propagating break/continue. Each iteration's body is evaluated
// for its bindings and errors only: the values it produces are discarded,
// so a for loop adds no content to the surrounding markup.
func (m *vm) evalFor(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	var target *syntax.Node
	var iterExpr *syntax.Node
	var body *syntax.Node
	for i := 1; i < len(kids); i++ {
		c := kids[i]
		switch {
		case c.Kind() == syntax.KindIdent || c.Kind() == syntax.KindDestructuring:
			if target == nil {
				target = c
			}
		case c.Kind() == syntax.KindIn:
			if i+1 < len(kids) {
				iterExpr = kids[i+1]
			}
		case c.Kind() == syntax.KindCodeBlock || c.Kind() == syntax.KindContentBlock:
			body = c
		default:
			if !isTrivia(c) && c.Kind() != syntax.KindFor {
				if body == nil && iterExpr != nil && c != iterExpr {
					body = c
				}
			}
		}
	}
	if iterExpr == nil || body == nil {
		return []*diag.SourceError{diag.Error(span(n), "malformed for loop")}
	}
	iter, errs := m.evalExpr(iterExpr)
	if len(errs) > 0 {
		return errs
	}

	m.inLoop++
	defer func() { m.inLoop-- }()

	runBody := func(bind func()) []*diag.SourceError {
		m.scopes.Push()
		bind()
		_, berrs := m.evalExpr(body)
		m.scopes.Pop()
		if m.flow == flowBreak {
			m.flow = flowNone
		}
		return berrs
	}

	switch iter.Kind() {
	case value.KindArray:
		arr, _ := iter.AsArray()
		for _, item := range arr {
			errs = append(errs, runBody(func() { m.bindForTarget(target, item) })...)
			if m.flow == flowBreak {
				m.flow = flowNone
				break
			}
			if m.flow == flowReturn {
				break
			}
			if m.flow == flowContinue {
				m.flow = flowNone
			}
		}
	case value.KindDict:
		d, _ := iter.AsDict()
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			pair := value.ArrayOf([]value.Value{value.Str(k), v})
			errs = append(errs, runBody(func() { m.bindForTarget(target, pair) })...)
			if m.flow == flowBreak {
				m.flow = flowNone
				break
			}
			if m.flow == flowReturn {
				break
			}
			if m.flow == flowContinue {
				m.flow = flowNone
			}
		}
	case value.KindStr:
		s, _ := iter.AsStr()
		for _, r := range s {
			errs = append(errs, runBody(func() { m.bindForTarget(target, value.Str(string(r))) })...)
			if m.flow == flowBreak {
				m.flow = flowNone
				break
			}
			if m.flow == flowReturn {
				break
			}
			if m.flow == flowContinue {
				m.flow = flowNone
			}
		}
	default:
		errs = append(errs, diag.Error(span(iterExpr), "cannot iterate over %s", iter.Kind()))
	}
	return errs
}

func (m *vm) bindForTarget(target *syntax.Node, v value.Value) {
	if target == nil {
		return
	}
	if target.Kind() == syntax.KindIdent {
		m.scopes.Define(target.Text(), v)
		return
	}
	m.bindDestructuring(target, v)
}

// evalWhile handles "while cond block".
func (m *vm) evalWhile(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	if len(kids) < 3 {
		return []*diag.SourceError{diag.Error(span(n), "malformed while loop")}
	}
	cond := kids[1]
	var body *syntax.Node
	for i := 2; i < len(kids); i++ {
		if !isTrivia(kids[i]) {
			body = kids[i]
			break
		}
	}
	if body == nil {
		return []*diag.SourceError{diag.Error(span(n), "malformed while loop")}
	}

	m.inLoop++
	defer func() { m.inLoop-- }()

	var errs []*diag.SourceError
	for {
		cv, es := m.evalExpr(cond)
		errs = append(errs, es...)
		if len(es) > 0 {
			break
		}
		b, ok := cv.AsBool()
		if !ok {
			errs = append(errs, diag.Error(span(cond), "condition must be a bool, found %s", cv.Kind()))
			break
		}
		if !b {
			break
		}
		m.scopes.Push()
		_, berrs := m.evalExpr(body)
		m.scopes.Pop()
		errs = append(errs, berrs...)
		if m.flow == flowBreak {
			m.flow = flowNone
			break
		}
		if m.flow == flowReturn {
			break
		}
		if m.flow == flowContinue {
			m.flow = flowNone
		}
	}
	return errs
}

// evalImport handles "import path [: items]", memoizing the imported file
// through the Engine's module cache and either binding the whole module
// under its own name or destructuring named items into scope.
func (m *vm) evalImport(n *syntax.Node) []*diag.SourceError {
	kids := n.Children()
	if len(kids) < 2 {
		return nil
	}
	pathVal, errs := m.evalExpr(kids[1])
	if len(errs) > 0 {
		return errs
	}
	path, ok := pathVal.AsStr()
	if !ok {
		return []*diag.SourceError{diag.Error(span(kids[1]), "import path must be a string")}
	}
	file, ferr := m.resolveImportPath(path, span(kids[1]))
	if ferr != nil {
		return []*diag.SourceError{ferr}
	}
	mod, merrs := m.engine.EvalFile(file)
	if len(merrs) > 0 {
		return merrs
	}

	var items []*syntax.Node
	for _, c := range kids[2:] {
		if c.Kind() == syntax.KindImportItem {
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		if colonIdx := indexOfKind(kids, syntax.KindColon); colonIdx >= 0 {
			// "import path: " with nothing after is a no-op import for
			// side effects only — nothing to bind.
			return nil
		}
		base := moduleBindingName(path)
		m.scopes.Define(base, value.ModuleOf(mod))
		return nil
	}
	for _, item := range items {
		ikids := item.Children()
		if len(ikids) == 0 {
			continue
		}
		name := ikids[0].Text()
		v, ok := mod.Scope[name]
		if !ok {
			errs = append(errs, diag.Error(span(item), "module %q has no member %q", path, name))
			continue
		}
		bindAs := name
		for _, c := range ikids[1:] {
			if c.Kind() == syntax.KindIdent {
				bindAs = c.Text()
			}
		}
		m.scopes.Define(bindAs, v)
	}
	return errs
}

func indexOfKind(nodes []*syntax.Node, k syntax.Kind) int {
	for i, n := range nodes {
		if n.Kind() == k {
			return i
		}
	}
	return -1
}

func moduleBindingName(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// evalInclude handles "include path", splicing the included file's content
// value inline (spec §4.E: include is evaluated through the same memoized
// eval(file) path as import).
func (m *vm) evalInclude(n *syntax.Node) (value.Value, []*diag.SourceError) {
	kids := n.Children()
	if len(kids) < 2 {
		return value.None(), nil
	}
	pathVal, errs := m.evalExpr(kids[1])
	if len(errs) > 0 {
		return value.None(), errs
	}
	path, ok := pathVal.AsStr()
	if !ok {
		return value.None(), []*diag.SourceError{diag.Error(span(kids[1]), "include path must be a string")}
	}
	file, ferr := m.resolveImportPath(path, span(kids[1]))
	if ferr != nil {
		return value.None(), []*diag.SourceError{ferr}
	}
	mod, merrs := m.engine.EvalFile(file)
	if len(merrs) > 0 {
		return value.None(), merrs
	}
	return mod.Content, nil
}
