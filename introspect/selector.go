package introspect

import (
	"regexp"

	"typeset/content"
	"typeset/value"
)

// SelectorKind tags which matching strategy a Selector uses. A superset of
// style.SelectorKind (spec's supplemented query grammar, §4 "gains the
// concrete selector grammar: Elem, Label, Location, Regex, And, Or,
// Before, After"): query-time selectors need document-order awareness
// (Before/After) that a show-rule selector never does, so this is its own
// type rather than a reuse of style.Selector.
type SelectorKind int

const (
	SelectorElem SelectorKind = iota
	SelectorLabel
	SelectorLocation
	SelectorRegex
	SelectorAnd
	SelectorOr
	SelectorBefore
	SelectorAfter
)

// Selector selects a subset of an Introspector's entries (spec §4.G:
// "query(selector)").
type Selector struct {
	Kind      SelectorKind
	Elem      content.ElemKind
	Fields    map[string]value.Value // optional Elem(kind, fields) refinement
	Label     string
	Loc       Location
	Regex     *regexp.Regexp
	Operands  [2]Selector // And/Or
	Inner     *Selector   // Before/After: the selector being bounded
	Inclusive bool        // whether the boundary element itself counts
}

func Elem(kind content.ElemKind, fields map[string]value.Value) Selector {
	return Selector{Kind: SelectorElem, Elem: kind, Fields: fields}
}

func Label(label string) Selector { return Selector{Kind: SelectorLabel, Label: label} }

func AtLocation(loc Location) Selector { return Selector{Kind: SelectorLocation, Loc: loc} }

func Regex(re *regexp.Regexp) Selector { return Selector{Kind: SelectorRegex, Regex: re} }

func And(a, b Selector) Selector { return Selector{Kind: SelectorAnd, Operands: [2]Selector{a, b}} }

func Or(a, b Selector) Selector { return Selector{Kind: SelectorOr, Operands: [2]Selector{a, b}} }

// Before selects inner's matches that occur at or before loc in document
// order (at loc only when inclusive).
func Before(inner Selector, loc Location, inclusive bool) Selector {
	return Selector{Kind: SelectorBefore, Inner: &inner, Loc: loc, Inclusive: inclusive}
}

// After selects inner's matches that occur at or after loc in document
// order (at loc only when inclusive).
func After(inner Selector, loc Location, inclusive bool) Selector {
	return Selector{Kind: SelectorAfter, Inner: &inner, Loc: loc, Inclusive: inclusive}
}

// matches reports whether sel selects the entry at idx. Before/After need
// ix's document-order index, which is why matching lives on Introspector
// rather than on Selector itself (unlike style.Selector.Matches, which
// only ever needs the one node in hand).
func (ix *Introspector) matches(sel Selector, idx int) bool {
	e := ix.entries[idx]
	switch sel.Kind {
	case SelectorElem:
		if e.Content == nil || e.Content.Kind != sel.Elem {
			return false
		}
		for name, want := range sel.Fields {
			got, ok := e.Content.Field(name)
			if !ok {
				return false
			}
			gv, ok := got.(value.Value)
			if !ok || !value.Equal(gv, want) {
				return false
			}
		}
		return true
	case SelectorLabel:
		return e.Content != nil && e.Content.Label == sel.Label
	case SelectorLocation:
		return e.Location == sel.Loc
	case SelectorRegex:
		return sel.Regex != nil && e.Content != nil && sel.Regex.MatchString(content.PlainText(e.Content))
	case SelectorAnd:
		return ix.matches(sel.Operands[0], idx) && ix.matches(sel.Operands[1], idx)
	case SelectorOr:
		return ix.matches(sel.Operands[0], idx) || ix.matches(sel.Operands[1], idx)
	case SelectorBefore:
		refIdx, ok := ix.indexOf(sel.Loc)
		if !ok || sel.Inner == nil {
			return false
		}
		if sel.Inclusive {
			if idx > refIdx {
				return false
			}
		} else if idx >= refIdx {
			return false
		}
		return ix.matches(*sel.Inner, idx)
	case SelectorAfter:
		refIdx, ok := ix.indexOf(sel.Loc)
		if !ok || sel.Inner == nil {
			return false
		}
		if sel.Inclusive {
			if idx < refIdx {
				return false
			}
		} else if idx <= refIdx {
			return false
		}
		return ix.matches(*sel.Inner, idx)
	default:
		return false
	}
}

