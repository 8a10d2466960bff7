// Package style implements the cascade: style maps/chains, show-rule
// recipes, and the realization algorithm that lowers content toward
// layout primitives (spec §4.F). Selector/Rule shape adapted from the
// teacher's CSS `Selector`/`Rule` (css/types.go), translated from CSS
// element/class/pseudo matching to content elem-kind/label/regex matching.
package style

import (
	"regexp"

	"github.com/cespare/xxhash/v2"

	"typeset/content"
	"typeset/value"
)

// StyleMap is one link of property overrides, keyed by the element kind
// they apply to (0 meaning "any kind", for global properties such as
// text direction). Grounded on the teacher's `Rule.Properties` map shape
// (css/types.go), generalized from CSS property names to this domain's
// (kind, field-name) pairs.
type StyleMap struct {
	entries map[content.ElemKind]map[string]value.Value
}

// NewStyleMap returns an empty style map; Set builds it up immutably.
func NewStyleMap() *StyleMap {
	return &StyleMap{entries: map[content.ElemKind]map[string]value.Value{}}
}

// Set returns a new StyleMap with kind.field overridden to v (copy-on-write,
// matching content.Content's own mutation discipline).
func (m *StyleMap) Set(kind content.ElemKind, field string, v value.Value) *StyleMap {
	out := &StyleMap{entries: make(map[content.ElemKind]map[string]value.Value, len(m.entries))}
	for k, fields := range m.entries {
		cp := make(map[string]value.Value, len(fields))
		for f, fv := range fields {
			cp[f] = fv
		}
		out.entries[k] = cp
	}
	fields, ok := out.entries[kind]
	if !ok {
		fields = map[string]value.Value{}
		out.entries[kind] = fields
	}
	fields[field] = v
	return out
}

func (m *StyleMap) get(kind content.ElemKind, field string) (value.Value, bool) {
	if m == nil {
		return value.Value{}, false
	}
	fields, ok := m.entries[kind]
	if !ok {
		return value.Value{}, false
	}
	v, ok := fields[field]
	return v, ok
}

// Hash satisfies content.StyleSet.
func (m *StyleMap) Hash() uint64 {
	if m == nil {
		return 0
	}
	h := xxhash.New()
	for kind, fields := range m.entries {
		for field, v := range fields {
			var buf [2]byte
			buf[0] = byte(kind)
			buf[1] = byte(kind >> 8)
			h.Write(buf[:])
			h.WriteString(field)
			fh := v.Hash()
			var fb [8]byte
			for i := 0; i < 8; i++ {
				fb[i] = byte(fh >> (8 * i))
			}
			h.Write(fb[:])
		}
	}
	return h.Sum64()
}

// Merge satisfies content.StyleSet: overlays other's entries on top of m's,
// other winning on conflicts (content.Styled passes the inner wrapper's map
// as other: it is closer to the node, so its properties take precedence —
// spec §4.D invariant #2).
func (m *StyleMap) Merge(otherSet content.StyleSet) content.StyleSet {
	other, _ := otherSet.(*StyleMap)
	if other == nil {
		return m
	}
	out := &StyleMap{entries: make(map[content.ElemKind]map[string]value.Value, len(m.entries))}
	for k, fields := range m.entries {
		cp := make(map[string]value.Value, len(fields))
		for f, fv := range fields {
			cp[f] = fv
		}
		out.entries[k] = cp
	}
	for k, fields := range other.entries {
		cp, ok := out.entries[k]
		if !ok {
			cp = map[string]value.Value{}
			out.entries[k] = cp
		}
		for f, fv := range fields {
			cp[f] = fv
		}
	}
	return out
}

// Chain is a borrowed cons-list of StyleMaps (spec §4.F: "Style chain: a
// borrowed cons-list of StyleMaps. A lookup walks from innermost to
// outermost, short-circuiting on the first match").
type Chain struct {
	head    *StyleMap
	parent  *Chain
	recipes []*Recipe
}

// Root returns the empty chain.
func Root() *Chain { return nil }

// Push links m (and any recipes it carries) in front of c.
func (c *Chain) Push(m *StyleMap, recipes ...*Recipe) *Chain {
	return &Chain{head: m, parent: c, recipes: recipes}
}

// Get walks innermost-first for kind.field, falling back to the kind-0
// (global) bucket at each link before moving outward.
func (c *Chain) Get(kind content.ElemKind, field string) (value.Value, bool) {
	for link := c; link != nil; link = link.parent {
		if v, ok := link.head.get(kind, field); ok {
			return v, true
		}
		if v, ok := link.head.get(0, field); ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// Recipes returns every recipe visible from this chain, innermost first —
// the order realization must consult them in (spec §4.F step 2).
func (c *Chain) Recipes() []*Recipe {
	var out []*Recipe
	for link := c; link != nil; link = link.parent {
		out = append(out, link.recipes...)
	}
	return out
}

// SelectorKind tags which matching strategy a Selector uses.
type SelectorKind int

const (
	SelectorAuto SelectorKind = iota
	SelectorElem
	SelectorLabel
	SelectorRegex
	SelectorCustom
)

// Selector matches content nodes for a show rule (spec §4.F: "selector ∈
// {Elem(kind, fields?), Label, Regex, Custom(fn)}"). Shape adapted from the
// teacher's css.Selector (Element/Class/Pseudo/Ancestor fields), collapsed
// to a single discriminated struct since this domain has no descendant
// combinator to chain.
type Selector struct {
	Kind    SelectorKind
	Elem    content.ElemKind
	Fields  map[string]value.Value // optional Elem(kind, fields) refinement
	Label   string
	Regex   *regexp.Regexp
	Custom  func(*content.Content) bool
}

func Auto() Selector { return Selector{Kind: SelectorAuto} }

func ElemSelector(kind content.ElemKind, fields map[string]value.Value) Selector {
	return Selector{Kind: SelectorElem, Elem: kind, Fields: fields}
}

func LabelSelector(label string) Selector {
	return Selector{Kind: SelectorLabel, Label: label}
}

func RegexSelector(re *regexp.Regexp) Selector {
	return Selector{Kind: SelectorRegex, Regex: re}
}

func CustomSelector(fn func(*content.Content) bool) Selector {
	return Selector{Kind: SelectorCustom, Custom: fn}
}

// Matches reports whether sel selects c (ignoring guards — guard-gating is
// the realizer's responsibility, spec §4.F step 2/Guards).
func (sel Selector) Matches(c *content.Content) bool {
	switch sel.Kind {
	case SelectorAuto:
		return true
	case SelectorElem:
		if c.Kind != sel.Elem {
			return false
		}
		for name, want := range sel.Fields {
			got, ok := c.Field(name)
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
		return c.Label == sel.Label
	case SelectorRegex:
		// Regex selectors match text content, not element identity; the
		// realizer handles them specially (see ApplyRegexRecipe) rather than
		// through Matches, which always reports false here to keep the
		// normal per-node recipe loop from double-applying them.
		return false
	case SelectorCustom:
		return sel.Custom != nil && sel.Custom(c)
	default:
		return false
	}
}

// TransformKind tags a Recipe's effect.
type TransformKind int

const (
	TransformStyle TransformKind = iota
	TransformFunc
	TransformSymbol
)

// Transform is the effect side of a recipe (spec §4.F: "transform ∈
// {Style(set-rule), Func(content → content), Symbol}").
type Transform struct {
	Kind   TransformKind
	Style  *StyleMap
	Func   func(*content.Content) (*content.Content, error)
	Symbol string
}

func StyleTransform(m *StyleMap) Transform { return Transform{Kind: TransformStyle, Style: m} }
func FuncTransform(fn func(*content.Content) (*content.Content, error)) Transform {
	return Transform{Kind: TransformFunc, Func: fn}
}
func SymbolTransform(sym string) Transform { return Transform{Kind: TransformSymbol, Symbol: sym} }

// Recipe is a (selector, transform, ID) triple introduced by a show rule.
type Recipe struct {
	Selector  Selector
	Transform Transform
	ID        int // identity for guard comparisons; assigned by the caller
}
