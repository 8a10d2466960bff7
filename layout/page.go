package layout

import (
	"typeset/content"
	"typeset/diag"
	"typeset/introspect"
	"typeset/routines"
	"typeset/style"
	"typeset/value"
)

// maxIterations caps the iterative-layout fixed point (spec §4.G:
// "layout is re-run, typically stabilizing within 5 iterations"); the
// loop stops early once two consecutive passes produce identical
// introspection results.
const maxIterations = 5

// Document is the fully paginated output: one Frame per physical page.
type Document struct {
	Pages        []*Frame
	Introspector *introspect.Introspector
}

// Paginate lays root into repeating pageSize regions (after margin is
// subtracted), iterating layout against its own growing Introspector until
// query-visible results stop changing or maxIterations is hit — instability
// past that point is reported as a warning, not an error (spec §4.G: "if
// results never stabilize, compilation still succeeds with a warning").
func Paginate(root *content.Content, chain *style.Chain, rt *routines.Routines, sink *diag.Sink, metrics Metrics, pageSize Size, margin value.Length) (*Document, error) {
	bodySize := Size{X: pageSize.X - 2*margin, Y: pageSize.Y - 2*margin}
	regions := Regions{Size: bodySize, Full: bodySize}

	var prevHash uint64
	var frag Fragment
	engine := NewEngine(rt, sink, metrics)

	for iter := 0; iter < maxIterations; iter++ {
		sink.Reset()
		var err error
		frag, err = engine.Layout(root, chain, regions)
		if err != nil {
			return nil, err
		}

		var entries []introspect.Entry
		for pageNo, f := range frag {
			entries = f.Collect(pageNo+1, Point{}, entries)
		}
		engine.Introspector = introspect.Build(entries)

		h := entriesHash(entries)
		if iter > 0 && h == prevHash {
			break
		}
		prevHash = h
		if iter == maxIterations-1 {
			sink.Warn(diag.Warning{Message: "layout: introspection results did not stabilize within the iteration budget"})
		}
	}

	pages := make([]*Frame, len(frag))
	for i, f := range frag {
		page := NewFrame(pageSize)
		page.PushFrame(Pt(margin, margin), f)
		pages[i] = page
	}
	return &Document{Pages: pages, Introspector: engine.Introspector}, nil
}

func entriesHash(entries []introspect.Entry) uint64 {
	var h uint64
	for _, e := range entries {
		h ^= uint64(e.Location)*1099511628211 + uint64(e.Pos.Page)
	}
	return h
}
