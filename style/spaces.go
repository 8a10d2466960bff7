package style

import "typeset/content"

// SpaceState classifies a child for the space-collapsing pass (spec
// §4.F.1). Ported from the teacher's retrieval-pack reference
// crates/typst-realize/src/spaces.rs two-cursor state machine, expressed
// here over *content.Content instead of Rust's Pair/Content enum.
type SpaceState int

const (
	Invisible SpaceState = iota
	Destructive
	Supportive
	Space
)

// Classifier reports a node's SpaceState; supplied by the caller since the
// state depends on element kind, which style does not register directly
// (the standard element library does, out of this spec's scope — see
// ElementHooks).
type Classifier func(*content.Content) SpaceState

// CollapseSpaces rewrites items in place using a two-cursor pass: read
// advances over the original slice, write only advances when an item
// survives, so the result is built without extra allocation beyond the
// final slice truncation (spec §4.F.1: "done in place via a two-cursor
// buffer rewrite").
func CollapseSpaces(items []*content.Content, classify Classifier) []*content.Content {
	write := 0
	suppressSpaces := true // no Supportive seen yet, so leading spaces drop too

	for read := 0; read < len(items); read++ {
		item := items[read]
		state := classify(item)

		switch state {
		case Space:
			if suppressSpaces {
				continue // "discarded until a Supportive element appears" / no preceding Supportive
			}
			if write > 0 && classify(items[write-1]) == Space {
				continue // "adjacent Spaces collapse into one (first kept)"
			}
			items[write] = item
			write++
		case Destructive:
			if write > 0 && classify(items[write-1]) == Space {
				write-- // "a Destructive element discards an immediately preceding Space"
			}
			items[write] = item
			write++
			suppressSpaces = true
		case Supportive:
			items[write] = item
			write++
			suppressSpaces = false
		case Invisible:
			items[write] = item
			write++ // tag elements don't affect space eligibility either way
		}
	}

	// "Trailing Spaces at sequence end are discarded."
	for write > 0 && classify(items[write-1]) == Space {
		write--
	}

	return items[:write]
}
