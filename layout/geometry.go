// Package layout implements the region-based flow layout engine (spec
// §4.H): paragraph breaking, block/flow placement, pagination, and the
// Frame tree the encoders downstream consume. layout imports introspect
// (to build an Introspector from the Tag items it collects) but never the
// reverse, and imports style/routines to realize content it discovers
// mid-layout (contextual content, §4.G "iterative layout").
package layout

import "typeset/value"

// Axes generalizes over the two layout axes the way the teacher's own
// geometry types don't need to (FB2 has no page geometry) but the rest of
// the example pack's graphics code does — adopted here per SPEC_FULL §4's
// supplement from `typst-library/src/layout/*.rs`.
type Axes[T any] struct {
	X, Y T
}

// Point is a position in page space.
type Point = Axes[value.Length]

// Size is a box's extent along both axes.
type Size = Axes[value.Length]

func Pt(x, y value.Length) Point { return Point{X: x, Y: y} }

func (s Size) Add(o Size) Size { return Size{X: s.X + o.X, Y: s.Y + o.Y} }

func (s Size) Sub(o Size) Size {
	return Size{X: maxLength(s.X-o.X, 0), Y: maxLength(s.Y-o.Y, 0)}
}

func maxLength(a, b value.Length) value.Length {
	if a > b {
		return a
	}
	return b
}

// Dir is paragraph/flow reading direction.
type Dir uint8

const (
	LTR Dir = iota
	RTL
)

// Ratio expresses a fraction of an axis, 1.0 == 100% — distinct from
// value.Ratio (a user-facing property value) so layout's internal
// fraction-distribution math (stretch/shrink glue, "fr" track sizing)
// doesn't need to round-trip through the value package's tagged union.
type Ratio float64

func (r Ratio) Of(l value.Length) value.Length { return value.Length(float64(l) * float64(r)) }
