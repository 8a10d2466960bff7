// Package routines breaks the import cycles that would otherwise exist
// between eval, style, introspect and layout: each of those packages
// needs to call into at least one of the others (evaluation constructs
// recipes that style applies; style's realization of `context` content
// needs to re-run an eval closure; layout needs to re-realize contextual
// content discovered mid-flow), but none of them may import each other
// directly without forming a cycle. Routines is a plain struct of
// function fields assembled once by package compile and threaded through
// every stage's context — the indirection itself is the whole point, so,
// unlike everywhere else in this codebase, it is deliberately NOT wrapped
// behind an interface or given its own abstraction.
package routines

import (
	"typeset/content"
	"typeset/diag"
	"typeset/fileid"
	"typeset/value"
)

// Routines is populated once per compile (see compile.Compile) and
// passed by pointer to every stage that needs to call back into another.
type Routines struct {
	// EvalModule runs the memoized evaluator over file and returns its
	// module value. Called by eval itself for `import`/`include` (so the
	// recursion stays inside package eval, not a cycle) and by compile to
	// kick off the top-level file.
	EvalModule func(file fileid.ID) (*value.Module, []*diag.SourceError)

	// EvalContextual re-runs a deferred `context expr` closure with
	// introspection available, called from style's realization of
	// contextual content (spec §4.F step "context expr ... re-evaluates
	// during realization").
	EvalContextual func(closure *value.Closure, extra map[string]value.Value) (*content.Content, []*diag.SourceError)

	// Realize lowers c under chain via style's realization algorithm.
	// Called by layout when it encounters content it has not yet realized
	// (spec §4.G: "iterative layout" may surface new contextual content
	// that needs another realization pass).
	Realize func(c *content.Content, chain any) (*content.Content, []*diag.SourceError)

	// Locate resolves a content node's stable Location outside of layout.
	// compile wires it; no stage of the pipeline calls it yet.
	Locate func(c *content.Content) (uint64, bool)
}

// Empty returns a Routines with every field nil; stages that have not been
// wired yet (e.g. during incremental package construction and in unit
// tests that only exercise one stage) can check for nil before calling.
func Empty() *Routines { return &Routines{} }
