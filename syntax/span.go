package syntax

import (
	"fmt"

	"typeset/fileid"
)

// Span packs (FileId, node_number) into a single value (spec §3: "Span:
// packed (FileId, node_number)"). It is the unit of provenance threaded
// through values, content and diagnostics end to end.
type Span struct {
	File   fileid.ID
	Number uint32
}

// DetachedSpan is the sentinel for synthetic nodes manufactured by the
// evaluator or realizer (e.g. a placeholder inserted on error recovery).
var DetachedSpan = Span{}

func (s Span) Detached() bool { return s.File.Detached() }

func (s Span) String() string {
	if s.Detached() {
		return "<detached>"
	}
	return fmt.Sprintf("%s#%d", s.File, s.Number)
}
