// Package content implements the polymorphic content tree (spec §3, §4.D):
// the universal currency produced by evaluation and consumed by realization
// and layout. Adapted from the teacher's content.Content struct shape (a
// single large struct carrying both raw and derived state, constructed
// through a Prepare-like pipeline) — repurposed from "FB2 book state" to
// "polymorphic element node".
package content

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"typeset/syntax"
)

// ElemKind is a stable 16-bit element-kind id, assigned at registration
// time (spec §4.D: "a stable 16-bit kind id").
type ElemKind uint16

// FieldFlags marks per-field behavior bits from the element registry.
type FieldFlags uint8

const (
	FlagSettable FieldFlags = 1 << iota
	FlagFold
	FlagResolve
	FlagSynthesized
	FlagInternal
	FlagGhost
)

// FieldInfo is one entry in an element kind's static field table.
type FieldInfo struct {
	Name    string
	ID      uint16
	Default Val
	Flags   FieldFlags
}

// Val is the minimal value surface Content needs from package value,
// reproduced here as an interface to avoid a value<->content import cycle:
// package value's ContentOf requires a content.Content to satisfy
// value.Content, and content needs to store value.Value in its field map.
// value.Value satisfies this interface directly (it has Hash() and String()
// methods), so no adapter type is needed at the call site — a field set to
// a value.Value is stored as-is.
type Val interface {
	Hash() uint64
	String() string
}

// Capability flags an element kind supports; capabilities gate the
// realization algorithm (spec §4.F step list).
type Capability uint8

const (
	CapShow Capability = 1 << iota
	CapPrepare
	CapFinalize
	CapLayout
	CapLocatable
	CapLocalName
)

// ElemDef is the static registration record for an element kind (spec
// §4.D). Registered once at package init by std-library-style element
// packages (out of this spec's scope — only the protocol is specified).
type ElemDef struct {
	Kind         ElemKind
	Name         string
	Fields       []FieldInfo
	Capabilities Capability
}

var (
	registryMu sync.RWMutex
	registry   = map[ElemKind]*ElemDef{}
	byName     = map[string]*ElemDef{}
	nextKind   ElemKind = 1 // 0 is reserved for the Sequence pseudo-kind
)

// Register assigns the next available kind id to def and makes it
// queryable by name. Intended to run from package-level init() in
// element-defining packages.
func Register(name string, fields []FieldInfo, caps Capability) *ElemDef {
	registryMu.Lock()
	defer registryMu.Unlock()
	def := &ElemDef{Kind: nextKind, Name: name, Fields: fields, Capabilities: caps}
	nextKind++
	registry[def.Kind] = def
	byName[name] = def
	return def
}

func Lookup(kind ElemKind) (*ElemDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[kind]
	return d, ok
}

func LookupByName(name string) (*ElemDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := byName[name]
	return d, ok
}

// KindSequence is the pseudo-kind of a flattened sequence node.
const KindSequence ElemKind = 0

// Guard marks a recipe as already applied to a node along some realization
// path (spec §4.F: "Guard ∈ {Nth(n), Base(kind_id)}").
type Guard struct {
	Nth  int      // -1 if this is a Base guard
	Base ElemKind // meaningful only when Nth < 0
}

func NthGuard(n int) Guard        { return Guard{Nth: n} }
func BaseGuard(k ElemKind) Guard  { return Guard{Nth: -1, Base: k} }

func (g Guard) isBase() bool { return g.Nth < 0 }

// fields is a small, copy-on-write, insertion-ordered property map. Kept
// distinct from value.Dict (which is the user-facing dict type) since
// Content's field storage additionally tracks per-field flags.
type fields struct {
	keys   []string
	values map[string]Val
}

func newFields() *fields {
	return &fields{values: map[string]Val{}}
}

func (f *fields) clone() *fields {
	out := &fields{keys: append([]string(nil), f.keys...), values: make(map[string]Val, len(f.values))}
	for k, v := range f.values {
		out.values[k] = v
	}
	return out
}

func (f *fields) set(key string, v Val) *fields {
	out := f.clone()
	if _, ok := out.values[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.values[key] = v
	return out
}

func (f *fields) get(key string) (Val, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Content is the polymorphic element node (spec §3: "a polymorphic element
// packed with an elem-kind id, a property map, a span, an optional label,
// an optional location, and a guard set"). It is shared by reference and
// copy-on-write on mutation — every With*/Styled method returns a new
// *Content, never mutates the receiver.
//
// A Content node is one of two shapes:
//   - a single element: Kind != KindSequence, Children == nil
//   - a sequence: Kind == KindSequence, Children holds the flattened list
//
// A styled subtree is represented by wrapping: Styles != nil wraps Inner.
type Content struct {
	Kind     ElemKind
	Fields   *fields
	span     syntax.Span
	Label    string // "" means unlabeled
	Location uint64 // 0 means unassigned (pre-layout)
	Guards   []Guard

	Children []*Content // non-nil only for a Sequence node

	Styles StyleSet // non-nil only for a Styled wrapper
	Inner  *Content // the wrapped subtree, non-nil only alongside Styles

	prepared bool
	pristine bool // true if Finalize has not yet run

	hashCache uint64
	hashValid bool
}

// StyleSet is the minimal surface Content needs from package style's
// StyleMap to attach local styles without an import cycle (style imports
// content to match selectors against element kind/fields).
type StyleSet interface {
	Hash() uint64
	Merge(other StyleSet) StyleSet
}

// NewElem constructs a single-element content node.
func NewElem(kind ElemKind, sp syntax.Span) *Content {
	return &Content{Kind: kind, Fields: newFields(), span: sp, pristine: true}
}

// Sequence flattens its arguments: a Sequence never directly nests another
// Sequence (spec §4.D invariant #1).
func Sequence(items ...*Content) *Content {
	var flat []*Content
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Kind == KindSequence && it.Styles == nil {
			flat = append(flat, it.Children...)
		} else {
			flat = append(flat, it)
		}
	}
	return &Content{Kind: KindSequence, Children: flat, span: syntax.DetachedSpan, pristine: true}
}

// Styled attaches local styles to inner. Chaining two Styled wrappers
// merges their maps rather than nesting (spec §4.D invariant #2:
// "idempotent: chaining two styled wrappers merges their maps").
func Styled(inner *Content, styles StyleSet) *Content {
	if inner != nil && inner.Styles != nil {
		merged := styles.Merge(inner.Styles)
		return &Content{Styles: merged, Inner: inner.Inner, span: inner.span, pristine: inner.pristine}
	}
	sp := syntax.DetachedSpan
	if inner != nil {
		sp = inner.span
	}
	return &Content{Styles: styles, Inner: inner, span: sp, pristine: true}
}

// IsSequence reports whether c is a (possibly empty) flattened sequence.
func (c *Content) IsSequence() bool { return c != nil && c.Kind == KindSequence && c.Styles == nil }

// IsStyled reports whether c is a styled wrapper.
func (c *Content) IsStyled() bool { return c != nil && c.Styles != nil }

// Span is always defined, possibly detached (spec §4.D: "content.span() is
// always defined"). Also satisfies value.Content's Span() method.
func (c *Content) Span() syntax.Span {
	if c == nil {
		return syntax.DetachedSpan
	}
	return c.span
}

// Field reads a field, falling back to the element kind's registered
// default when unset.
func (c *Content) Field(name string) (Val, bool) {
	if c.Fields != nil {
		if v, ok := c.Fields.get(name); ok {
			return v, true
		}
	}
	def, ok := Lookup(c.Kind)
	if !ok {
		return nil, false
	}
	for _, f := range def.Fields {
		if f.Name == name {
			return f.Default, f.Default != nil
		}
	}
	return nil, false
}

// WithField returns a copy of c with name set to v (copy-on-write: spec
// §4.D invariant #3, "mutation always uses copy-on-write").
func (c *Content) WithField(name string, v Val) *Content {
	out := c.shallowCopy()
	if out.Fields == nil {
		out.Fields = newFields()
	}
	out.Fields = out.Fields.set(name, v)
	out.hashValid = false
	return out
}

// WithLabel returns a copy of c carrying label.
func (c *Content) WithLabel(label string) *Content {
	out := c.shallowCopy()
	out.Label = label
	out.hashValid = false
	return out
}

// WithLocation returns a copy of c carrying a resolved Location hash
// (assigned during layout, spec §4.G).
func (c *Content) WithLocation(loc uint64) *Content {
	out := c.shallowCopy()
	out.Location = loc
	return out
}

// Guarded returns a copy of c with g added to its guard set, unless g is
// already present (Guard sets are small; linear scan is intentional —
// spec §4.F guards are "a small bitset/tiny set").
func (c *Content) Guarded(g Guard) *Content {
	for _, existing := range c.Guards {
		if existing == g {
			return c
		}
	}
	out := c.shallowCopy()
	out.Guards = append(append([]Guard(nil), c.Guards...), g)
	return out
}

// HasGuard reports whether g (or, for a Base guard, any Base guard with
// the same kind) is already present.
func (c *Content) HasGuard(g Guard) bool {
	for _, existing := range c.Guards {
		if existing == g {
			return true
		}
	}
	return false
}

func (c *Content) shallowCopy() *Content {
	cp := *c
	cp.Guards = append([]Guard(nil), c.Guards...)
	return &cp
}

func (c *Content) MarkPrepared() *Content {
	out := c.shallowCopy()
	out.prepared = true
	return out
}

func (c *Content) Prepared() bool { return c.prepared }

func (c *Content) MarkFinalized() *Content {
	out := c.shallowCopy()
	out.pristine = false
	return out
}

func (c *Content) Pristine() bool { return c.pristine }

// Hash computes a stable structural hash over kind, label, fields and
// children (for a styled node: its style set and inner node); the span is
// not hashed — used both as value.Content's identity for structural equality
// and as the seed input to Location derivation (spec §9: "Disambiguators
// for Location are derived purely from the hash of the element and a
// deterministic sibling index").
func (c *Content) Hash() uint64 {
	if c.hashValid {
		return c.hashCache
	}
	h := xxhash.New()
	c.writeHash(h)
	sum := h.Sum64()
	c.hashCache = sum
	c.hashValid = true
	return sum
}

func (c *Content) writeHash(h *xxhash.Digest) {
	if c.Styles != nil {
		h.WriteString("styled")
		var buf [8]byte
		putUint64(&buf, c.Styles.Hash())
		h.Write(buf[:])
		if c.Inner != nil {
			c.Inner.writeHash(h)
		}
		return
	}
	var buf [8]byte
	putUint64(&buf, uint64(c.Kind))
	h.Write(buf[:])
	h.WriteString(c.Label)
	if c.Fields != nil {
		for _, k := range c.Fields.keys {
			h.WriteString(k)
			if v, ok := c.Fields.get(k); ok {
				putUint64(&buf, v.Hash())
				h.Write(buf[:])
			}
		}
	}
	for _, child := range c.Children {
		child.writeHash(h)
	}
}

func putUint64(buf *[8]byte, u uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
}

// String renders a debug form (not the document's text content — see
// PlainText for that).
func (c *Content) String() string {
	if c == nil {
		return "<nil content>"
	}
	if c.Styles != nil {
		return "styled(" + c.Inner.String() + ")"
	}
	if c.IsSequence() {
		var b strings.Builder
		b.WriteString("seq(")
		for i, ch := range c.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ch.String())
		}
		b.WriteString(")")
		return b.String()
	}
	def, ok := Lookup(c.Kind)
	name := "elem"
	if ok {
		name = def.Name
	}
	return name + "(...)"
}

// PlainText extracts a node's readable text, recursing through sequences
// and styled wrappers and reading a leaf's "text" field when it has one (the
// raw string for a str value), or else the content held in its "body" field
// (strong, emph and the like).
// Used for regex selector matching (package introspect) and as the text
// source for fallback layout of content with no dedicated layout rule.
func PlainText(c *Content) string {
	if c == nil {
		return ""
	}
	if c.Styles != nil {
		return PlainText(c.Inner)
	}
	if c.IsSequence() {
		var b strings.Builder
		for _, ch := range c.Children {
			b.WriteString(PlainText(ch))
		}
		return b.String()
	}
	v, ok := c.Field("text")
	if !ok {
		if body, ok := c.Field("body"); ok {
			if inner, ok := body.(*Content); ok {
				return PlainText(inner)
			}
		}
		return ""
	}
	if sv, ok := v.(interface{ AsStr() (string, bool) }); ok {
		if s, ok := sv.AsStr(); ok {
			return s
		}
	}
	return v.String()
}
