// Package value implements the tagged Value union (spec §3, §4.D): the
// dynamic runtime type every expression in the evaluator reduces to.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"typeset/syntax"
)

// Kind tags a Value's variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindAuto
	KindBool
	KindInt
	KindFloat
	KindLength
	KindRatio
	KindRelative
	KindAngle
	KindFraction
	KindColor
	KindSymbol
	KindStr
	KindBytes
	KindLabel
	KindDatetime
	KindDuration
	KindContent
	KindArray
	KindDict
	KindFunc
	KindArgs
	KindType
	KindModule
	KindPlugin
	KindDyn
)

func (k Kind) String() string {
	names := [...]string{
		"none", "auto", "bool", "int", "float", "length", "ratio", "relative",
		"angle", "fraction", "color", "symbol", "str", "bytes", "label",
		"datetime", "duration", "content", "array", "dict", "func", "args",
		"type", "module", "plugin", "dyn",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Length is an absolute measurement, stored in points (the teacher's CSS
// layer and the layout geometry types both settle on points as the
// canonical unit; conversions from other units live in eval's numeric
// literal parsing).
type Length float64

// Ratio is a fractional share, 1.0 == 100%.
type Ratio float64

// Relative combines an absolute Length with a Ratio of the containing size,
// mirroring how CSS "calc(10pt + 50%)" values compose (adapted from the
// teacher's CSS length resolution in css/types.go).
type Relative struct {
	Abs Length
	Rel Ratio
}

// Angle is stored in radians internally; String renders degrees, the
// source-level default unit.
type Angle float64

// Fraction is the "fr" unit used by grid/stack distribution.
type Fraction float64

// Color is sRGB with alpha, 0..1 per channel.
type Color struct {
	R, G, B, A float64
}

// Symbol is an interned Unicode codepoint-or-name with variant selectors
// (math/emoji symbols), kept as plain text here — the variant resolution
// table lives in the standard-library element definitions this spec keeps
// out of scope.
type Symbol string

// Label names an element for later reference by show rules and refs.
type Label string

// Func is any callable value: a native Go function or a user closure. The
// evaluator constructs the Closure variant; built-ins populate Native.
type Func struct {
	Name    string
	Native  func(args *Args) (Value, error)
	Closure *Closure
}

// Closure captures its defining scope by value (spec §4.E: "capture by
// value the set of referenced identifiers").
type Closure struct {
	Params  []Param
	Body    *syntax.Node
	Captures map[string]Value
}

type Param struct {
	Name    string
	Default Value // IsNone() when required
	Sink    bool  // "..rest"
}

// Args is the evaluated argument list passed to a call: positional values
// plus named values, each carrying the span it came from for diagnostics.
type Args struct {
	Span     syntax.Span
	Pos      []Value
	PosSpans []syntax.Span
	Named    map[string]Value
	NamedSpans map[string]syntax.Span
}

// Type names a Value's Kind as a first-class value (for `type(x)` and
// signature checks).
type Type struct {
	Kind Kind
}

// Module is the evaluated result of a file: its top-level scope plus the
// content it produced.
type Module struct {
	Name    string
	Scope   map[string]Value
	Content Value // KindContent

	// Styles carries the module's accumulated top-level style chain (the
	// set/show rules its markup established) as an opaque value, since
	// style.Chain can't be named here without value importing style, which
	// already imports value — the same any-typed indirection
	// routines.Routines.Realize uses for its chain parameter. Callers that
	// know the concrete type (package compile) assert it back to
	// *style.Chain.
	Styles any
}

// Plugin is a reference to a loaded WASM plugin; the plugin ABI itself is
// out of scope (spec §1), this is just a handle value.
type Plugin struct {
	Name string
}

// Dyn wraps an opaque, type-erased value behind a stable hash (spec §9:
// "Implement Value::Dyn as a type-erased container with a stable type tag
// and a hash method; compare via tag-then-hash-then-deep").
type Dyn struct {
	TypeTag string
	Inner   DynValue
}

// DynValue is the interface any host-defined dynamic value must satisfy.
type DynValue interface {
	Hash() uint64
	Equal(other DynValue) bool
	String() string
}

// Value is the tagged union itself. Only one field group is meaningful per
// Kind; Go has no tagged unions, so this trades a few wasted words for a
// single allocation-free value the evaluator can pass by copy.
type Value struct {
	kind Kind

	b   bool
	i   int64
	f   float64
	len Length
	rat Ratio
	rel Relative
	ang Angle
	fr  Fraction
	col Color
	str string // Str, Symbol, Label, Type-name scratch
	byt []byte

	content Content
	arr     []Value
	dict    *Dict
	fn      *Func
	args    *Args
	typ     Type
	mod     *Module
	plugin  *Plugin
	dyn     *Dyn

	span syntax.Span
}

// Content is the value-side handle onto a content tree node; the actual
// tree lives in package content. Kept as an opaque pointer here (plus a
// stable hash and span) to avoid an import cycle between value and content
// — content.Content implements this interface and wraps itself when boxed
// into a Value.
type Content interface {
	Hash() uint64
	String() string
	Span() syntax.Span
}

// Dict is an insertion-ordered string-keyed map (spec: dict values preserve
// field order for iteration and display, unlike a bare Go map).
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dict) Len() int { return len(d.keys) }

// Clone returns a shallow persistent copy: new key slice, new values map,
// same Value entries (Values are themselves immutable once constructed).
func (d *Dict) Clone() *Dict {
	out := &Dict{keys: append([]string(nil), d.keys...), values: make(map[string]Value, len(d.values))}
	for k, v := range d.values {
		out.values[k] = v
	}
	return out
}

// --- constructors ---

func None() Value { return Value{kind: KindNone} }
func Auto() Value { return Value{kind: KindAuto} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func LengthOf(l Length) Value { return Value{kind: KindLength, len: l} }
func RatioOf(r Ratio) Value   { return Value{kind: KindRatio, rat: r} }
func RelativeOf(r Relative) Value { return Value{kind: KindRelative, rel: r} }
func AngleOf(a Angle) Value   { return Value{kind: KindAngle, ang: a} }
func FractionOf(f Fraction) Value { return Value{kind: KindFraction, fr: f} }
func ColorOf(c Color) Value   { return Value{kind: KindColor, col: c} }
func SymbolOf(s Symbol) Value { return Value{kind: KindSymbol, str: string(s)} }
func Str(s string) Value      { return Value{kind: KindStr, str: s} }
func Bytes(b []byte) Value    { return Value{kind: KindBytes, byt: b} }
func LabelOf(l Label) Value   { return Value{kind: KindLabel, str: string(l)} }
func ContentOf(c Content) Value { return Value{kind: KindContent, content: c} }
func ArrayOf(vs []Value) Value  { return Value{kind: KindArray, arr: vs} }
func DictOf(d *Dict) Value      { return Value{kind: KindDict, dict: d} }
func FuncOf(f *Func) Value      { return Value{kind: KindFunc, fn: f} }
func ArgsOf(a *Args) Value      { return Value{kind: KindArgs, args: a} }
func TypeOf(k Kind) Value       { return Value{kind: KindType, typ: Type{Kind: k}} }
func ModuleOf(m *Module) Value  { return Value{kind: KindModule, mod: m} }
func PluginOf(p *Plugin) Value  { return Value{kind: KindPlugin, plugin: p} }
func DynOf(d *Dyn) Value        { return Value{kind: KindDyn, dyn: d} }

// --- accessors ---

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNone() bool { return v.kind == KindNone }
func (v Value) IsAuto() bool { return v.kind == KindAuto }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsStr() (string, bool)      { return v.str, v.kind == KindStr }
func (v Value) AsArray() ([]Value, bool)   { return v.arr, v.kind == KindArray }
func (v Value) AsDict() (*Dict, bool)      { return v.dict, v.kind == KindDict }
func (v Value) AsFunc() (*Func, bool)      { return v.fn, v.kind == KindFunc }
func (v Value) AsLength() (Length, bool)   { return v.len, v.kind == KindLength }
func (v Value) AsContent() (Content, bool) {
	if v.kind != KindContent || v.content == nil {
		return nil, false
	}
	return v.content, true
}

// Numeric reports whether v is coercible to a float64 for arithmetic, and
// returns it.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindLength:
		return float64(v.len), true
	case KindRatio:
		return float64(v.rat), true
	case KindAngle:
		return float64(v.ang), true
	case KindFraction:
		return float64(v.fr), true
	default:
		return 0, false
	}
}

// --- equality & hashing ---

// Equal implements structural equality (spec §4.D: "equality is structural").
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Int/Float compare numerically across kinds the way the source
		// language's arithmetic does (1 == 1.0).
		if af, aok := a.Numeric(); aok {
			if bf, bok := b.Numeric(); bok {
				return af == bf
			}
		}
		return false
	}
	switch a.kind {
	case KindNone, KindAuto:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindLength:
		return a.len == b.len
	case KindRatio:
		return a.rat == b.rat
	case KindRelative:
		return a.rel == b.rel
	case KindAngle:
		return a.ang == b.ang
	case KindFraction:
		return a.fr == b.fr
	case KindColor:
		return a.col == b.col
	case KindSymbol, KindStr, KindLabel:
		return a.str == b.str
	case KindBytes:
		return string(a.byt) == string(b.byt)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if a.dict.Len() != b.dict.Len() {
			return false
		}
		for _, k := range a.dict.Keys() {
			av, _ := a.dict.Get(k)
			bv, ok := b.dict.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindContent:
		return a.content.Hash() == b.content.Hash()
	case KindDyn:
		return a.dyn.TypeTag == b.dyn.TypeTag && a.dyn.Inner.Equal(b.dyn.Inner)
	case KindFunc:
		return a.fn == b.fn
	case KindType:
		return a.typ.Kind == b.typ.Kind
	default:
		return false
	}
}

// Hash computes a stable structural hash (spec §4.D, §9: "hashing is
// stable across runs; important for location derivation"). Built on
// cespare/xxhash/v2, the same library package introspect uses for
// Location, so a Value embedded in an element's fields hashes consistently
// end to end.
func Hash(v Value) uint64 {
	h := xxhash.New()
	writeHash(h, v)
	return h.Sum64()
}

// Hash is the method form, so a Value satisfies content.Val (the narrow
// Hash()/String() interface package content stores its field map as,
// without content importing value directly).
func (v Value) Hash() uint64 { return Hash(v) }

func writeHash(h *xxhash.Digest, v Value) {
	var tagBuf [1]byte
	tagBuf[0] = byte(v.kind)
	h.Write(tagBuf[:])
	switch v.kind {
	case KindNone, KindAuto:
	case KindBool:
		if v.b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KindInt:
		writeUint64(h, uint64(v.i))
	case KindFloat:
		writeUint64(h, math.Float64bits(v.f))
	case KindLength:
		writeUint64(h, math.Float64bits(float64(v.len)))
	case KindRatio:
		writeUint64(h, math.Float64bits(float64(v.rat)))
	case KindRelative:
		writeUint64(h, math.Float64bits(float64(v.rel.Abs)))
		writeUint64(h, math.Float64bits(float64(v.rel.Rel)))
	case KindAngle:
		writeUint64(h, math.Float64bits(float64(v.ang)))
	case KindFraction:
		writeUint64(h, math.Float64bits(float64(v.fr)))
	case KindColor:
		writeUint64(h, math.Float64bits(v.col.R))
		writeUint64(h, math.Float64bits(v.col.G))
		writeUint64(h, math.Float64bits(v.col.B))
		writeUint64(h, math.Float64bits(v.col.A))
	case KindSymbol, KindStr, KindLabel:
		h.WriteString(v.str)
	case KindBytes:
		h.Write(v.byt)
	case KindArray:
		for _, e := range v.arr {
			writeHash(h, e)
		}
	case KindDict:
		keys := append([]string(nil), v.dict.Keys()...)
		sort.Strings(keys) // hashing must not depend on insertion order
		for _, k := range keys {
			h.WriteString(k)
			val, _ := v.dict.Get(k)
			writeHash(h, val)
		}
	case KindContent:
		writeUint64(h, v.content.Hash())
	case KindDyn:
		h.WriteString(v.dyn.TypeTag)
		writeUint64(h, v.dyn.Inner.Hash())
	case KindType:
		tagBuf[0] = byte(v.typ.Kind)
		h.Write(tagBuf[:])
	default:
		// Func, Args, Module, Plugin: identity-only values, not meant to be
		// used as map/set keys; only the kind tag is hashed, so Hash() never
		// panics and every value of one of these kinds hashes alike (Equal
		// still compares functions by reference, matching the source
		// language's own stance).
	}
}

func writeUint64(h *xxhash.Digest, u uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	h.Write(buf[:])
}

// --- display ---

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindAuto:
		return "auto"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindLength:
		return fmt.Sprintf("%gpt", float64(v.len))
	case KindRatio:
		return fmt.Sprintf("%g%%", float64(v.rat)*100)
	case KindRelative:
		return fmt.Sprintf("%gpt + %g%%", float64(v.rel.Abs), float64(v.rel.Rel)*100)
	case KindAngle:
		return fmt.Sprintf("%gdeg", float64(v.ang)*180/math.Pi)
	case KindFraction:
		return fmt.Sprintf("%gfr", float64(v.fr))
	case KindColor:
		return fmt.Sprintf("rgba(%g, %g, %g, %g)", v.col.R, v.col.G, v.col.B, v.col.A)
	case KindSymbol, KindLabel:
		return v.str
	case KindStr:
		return strconv.Quote(v.str)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.byt))
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindDict:
		parts := make([]string, 0, v.dict.Len())
		for _, k := range v.dict.Keys() {
			val, _ := v.dict.Get(k)
			parts = append(parts, k+": "+val.String())
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindContent:
		return v.content.String()
	case KindFunc:
		if v.fn.Name != "" {
			return "<function " + v.fn.Name + ">"
		}
		return "<function>"
	case KindType:
		return "<type " + v.typ.Kind.String() + ">"
	case KindModule:
		return "<module " + v.mod.Name + ">"
	case KindPlugin:
		return "<plugin " + v.plugin.Name + ">"
	case KindDyn:
		return v.dyn.Inner.String()
	default:
		return "<value>"
	}
}
