// Package eval implements the tree-walking evaluator (spec §4.E): the VM
// that turns a parsed syntax tree into content and values. Grounded on the
// teacher's Prepare-pipeline ordering discipline (content.Prepare's heavily
// commented "order of calls is important here" block in the teacher repo)
// applied here to statement-evaluation order, and on golang.org/x/text for
// the locale-sensitive string casing a handful of evaluator builtins need.
package eval

import (
	"sync"

	"go.uber.org/zap"

	"typeset/diag"
	"typeset/fileid"
	"typeset/routines"
	"typeset/style"
	"typeset/syntax"
	"typeset/value"
	"typeset/world"
)

// Engine is the immutable per-compile evaluation context (spec §4.E:
// "Immutable engine context: world, introspector, routines, traced sink,
// route"). One Engine evaluates every file in a single compile run; Route
// and the module cache are its only mutable state, both protected by a
// mutex since nothing else in the core pipeline runs concurrently with
// evaluation but tests may share an Engine across goroutines.
type Engine struct {
	World    world.World
	Routines *routines.Routines
	Sink     *diag.Sink

	mu      sync.Mutex
	route   map[fileid.ID]bool
	modules map[fileid.ID]*value.Module
}

// NewEngine constructs an Engine ready to evaluate files. A nil sink becomes
// a no-op sink, matching the teacher's css.NewParser(nil) convention.
func NewEngine(w world.World, rt *routines.Routines, sink *diag.Sink) *Engine {
	if rt == nil {
		rt = routines.Empty()
	}
	if sink == nil {
		sink = diag.NewSink(zap.NewNop())
	}
	return &Engine{
		World:    w,
		Routines: rt,
		Sink:     sink,
		route:    map[fileid.ID]bool{},
		modules:  map[fileid.ID]*value.Module{},
	}
}

// flowKind is the VM's propagating control-flow signal (spec §4.E: "flow
// (break/continue/return)").
type flowKind int

const (
	flowNone flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

// vm is the mutable per-evaluation state threaded through one file's
// statement walk (spec §4.E: "Mutable VM: scope chain, flow, inspection
// hook, styles"). A fresh vm is built per eval(file) call; closures carry
// their own frozen scope snapshot rather than sharing a vm across calls.
type vm struct {
	engine  *Engine
	file    fileid.ID
	scopes  *Scopes
	styles  *style.Chain
	flow    flowKind
	flowVal value.Value
	inFunc  bool // true while evaluating a closure body; gates `return`
	inLoop  int  // >0 while evaluating a for/while body; gates break/continue
}

// newVM opens a fresh evaluation scope for file, seeded with the World's
// builtin globals (spec §6: "library() -> &Library") so identifier lookup
// resolves built-ins like `range` the same way it resolves user bindings.
func newVM(e *Engine, file fileid.ID) *vm {
	m := &vm{engine: e, file: file, scopes: NewScopes(), styles: style.Root()}
	if e.World != nil {
		if lib := e.World.Library(); lib != nil {
			for name, v := range lib.Globals() {
				m.scopes.Define(name, v)
			}
		}
	}
	return m
}

func (m *vm) child() *vm {
	cp := *m
	return &cp
}

// span adapts a syntax.Node's Span to diag.Span at the one boundary eval
// needs it (SourceError construction).
func span(n *syntax.Node) syntax.Span {
	if n == nil {
		return syntax.DetachedSpan
	}
	return n.Span()
}
