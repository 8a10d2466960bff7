// Package introspect implements the introspection views (spec §4.G): a
// read-only index over laid-out content that answers queries and position
// lookups, plus the per-key counter state machine queries read from.
//
// introspect never imports layout — layout imports introspect one-directionally
// (it builds an Introspector from the frame tree it just produced, then hands
// it to the next layout pass). introspect instead works over a flat, already
// document-ordered list of Entry values a caller (layout, or a test) supplies;
// this keeps introspect ignorant of Frame/FrameItem's richer geometry and
// avoids the layout<->introspect cycle a concrete Frame dependency would
// create.
package introspect

import (
	"github.com/cespare/xxhash/v2"

	"typeset/content"
)

// Location is an element's stable identity within the laid-out document
// (spec §4.G: "Location: stable identity of an element in the laid-out
// document"). Disambiguators are derived purely from the hash of the
// element and a deterministic sibling index under its parent (spec §9),
// never from process-global mutable counters. The spec's notional
// hash128 is folded into a single 64-bit value here, the same width
// content.Content.Location already carries — a parallel [2]uint64 would
// just be two numbers nothing in this codebase ever compares separately.
type Location uint64

// DeriveLocation folds an element's structural hash and its index among
// siblings under parentHash into one Location, hashing the whole 24-byte
// key and its last 16 bytes separately with xxhash and XOR-folding the two
// sums.
func DeriveLocation(parentHash uint64, siblingIndex int, elemHash uint64) Location {
	var buf [24]byte
	putUint64(buf[0:8], parentHash)
	putUint64(buf[8:16], uint64(siblingIndex))
	putUint64(buf[16:24], elemHash)

	a := xxhash.Sum64(buf[:])
	b := xxhash.Sum64(buf[8:])
	return Location(a ^ (b << 1) ^ (b >> 63))
}

func putUint64(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}

// Position is where a located element landed on the page (spec §4.G:
// "location_to_position(loc) -> (page, point)").
type Position struct {
	Page int
	X, Y float64
}

// Entry is one located content node in document order, as collected from
// Tag frame items during a layout pass (spec §4.G: "a fresh Introspector
// is built from the frame tree by collecting Tag items in document
// order").
type Entry struct {
	Content  *content.Content
	Location Location
	Pos      Position
}

// Introspector is a read-only, document-ordered view over a completed (or
// in-progress) layout pass. The zero value behaves like
// Introspector::default() (spec §4.G: "during evaluation ... returns empty
// results"): every query returns no results and every lookup reports not
// found, so code that only ever sees the pre-layout Introspector does not
// need a nil check.
type Introspector struct {
	entries []Entry
	byLoc   map[Location]int
}

// Build collects entries (already in document order) into a queryable
// Introspector.
func Build(entries []Entry) *Introspector {
	ix := &Introspector{entries: entries, byLoc: make(map[Location]int, len(entries))}
	for i, e := range entries {
		ix.byLoc[e.Location] = i
	}
	return ix
}

// Query returns every entry's content selected by sel, in document order
// (spec §4.G: "query(selector) -> list<content>").
func (ix *Introspector) Query(sel Selector) []*content.Content {
	if ix == nil {
		return nil
	}
	var out []*content.Content
	for i := range ix.entries {
		if ix.matches(sel, i) {
			out = append(out, ix.entries[i].Content)
		}
	}
	return out
}

// LocationToPage resolves which page loc landed on (spec §4.G:
// "location_to_page(loc) -> usize").
func (ix *Introspector) LocationToPage(loc Location) (int, bool) {
	if ix == nil {
		return 0, false
	}
	i, ok := ix.byLoc[loc]
	if !ok {
		return 0, false
	}
	return ix.entries[i].Pos.Page, true
}

// LocationToPosition resolves loc's full page/point position (spec §4.G:
// "location_to_position(loc) -> (page, point)").
func (ix *Introspector) LocationToPosition(loc Location) (Position, bool) {
	if ix == nil {
		return Position{}, false
	}
	i, ok := ix.byLoc[loc]
	if !ok {
		return Position{}, false
	}
	return ix.entries[i].Pos, true
}

// indexOf returns loc's position in document order, for Before/After
// selector bounds.
func (ix *Introspector) indexOf(loc Location) (int, bool) {
	i, ok := ix.byLoc[loc]
	return i, ok
}

// Len reports how many elements the introspector indexes.
func (ix *Introspector) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}
