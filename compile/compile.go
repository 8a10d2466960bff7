// Package compile wires eval, style, layout and introspect together
// behind the routines.Routines indirection and runs the top-level
// Compile(world, sink) -> (*Document, []SourceError) entry point (spec
// §5's package map: "compile | top-level | Compile(world, sink) ->
// (*Document, []SourceError), iterative layout fixed point"). Nothing
// else in the module imports compile — it is the one place allowed to
// import eval, style and layout all at once, which is exactly why the
// other three packages talk to each other only through Routines.
package compile

import (
	"typeset/content"
	"typeset/diag"
	"typeset/eval"
	"typeset/fileid"
	"typeset/layout"
	"typeset/routines"
	"typeset/style"
	"typeset/syntax"
	"typeset/value"
	"typeset/world"
)

// Options configures one compile run. Compile replaces a zero PageSize with
// DefaultOptions' A4-ish size (world.DefaultConfig's page geometry) and a nil
// Metrics with MonoMetrics; a zero Margin is used as is, so the zero value
// lays out with no margin.
type Options struct {
	PageSize layout.Size
	Margin   value.Length
	Metrics  layout.Metrics
}

func DefaultOptions() Options {
	return Options{
		PageSize: layout.Size{X: 595, Y: 842},
		Margin:   56,
		Metrics:  layout.MonoMetrics{},
	}
}

// Compile evaluates entry under w, realizes and lays out the resulting
// content, and returns the paginated Document. Errors accumulate in the
// returned slice rather than aborting early where the spec's own stages
// already tolerate partial failure (evaluation errors still let layout run
// over whatever content was produced); a nil Document paired with a
// non-empty error slice means the failure was unrecoverable (no source, no
// content at all).
func Compile(w world.World, entry fileid.ID, sink *diag.Sink, opts Options) (*layout.Document, []*diag.SourceError) {
	if sink == nil {
		sink = diag.NewSink(nil)
	}

	realizer := style.NewRealizer()

	rt := routines.Empty()
	evalEngine := eval.NewEngine(w, rt, sink)
	RegisterDefaultHooks(realizer, rt)

	rt.EvalModule = evalEngine.EvalFile
	rt.EvalContextual = evalEngine.EvalContextual
	rt.Realize = func(c *content.Content, chainAny any) (*content.Content, []*diag.SourceError) {
		chain, _ := chainAny.(*style.Chain)
		realized, err := RealizeTree(realizer, c, chain)
		if err != nil {
			return nil, []*diag.SourceError{diag.Error(c.Span(), "%s", err.Error())}
		}
		return realized, nil
	}
	rt.Locate = func(c *content.Content) (uint64, bool) {
		if c == nil || c.Location == 0 {
			return 0, false
		}
		return c.Location, true
	}

	mod, errs := evalEngine.EvalFile(entry)
	if mod == nil {
		return nil, errs
	}

	root, ok := mod.Content.AsContent()
	if !ok || root == nil {
		return nil, errs
	}
	rootContent, ok := root.(*content.Content)
	if !ok {
		return nil, append(errs, diag.Error(syntax.DetachedSpan, "compile: module content is not a content.Content"))
	}

	chain, _ := mod.Styles.(*style.Chain)
	realized, rerr := RealizeTree(realizer, rootContent, chain)
	if rerr != nil {
		errs = append(errs, diag.Error(rootContent.Span(), "%s", rerr.Error()))
	}
	if realized == nil {
		realized = rootContent
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = layout.MonoMetrics{}
	}
	pageSize := opts.PageSize
	if pageSize.X == 0 || pageSize.Y == 0 {
		pageSize = DefaultOptions().PageSize
	}
	margin := opts.Margin

	doc, err := layout.Paginate(realized, chain, rt, sink, metrics, pageSize, margin)
	if err != nil {
		errs = append(errs, diag.Error(rootContent.Span(), "layout: %s", err.Error()))
		return nil, errs
	}
	return doc, errs
}
