package layout

import (
	"typeset/introspect"
	"typeset/value"
)

// ItemKind tags the payload a FrameItem carries.
type ItemKind int

const (
	ItemGroup ItemKind = iota
	ItemText
	ItemShape
	ItemImage
	ItemLink
	ItemTag
)

// TextRun is a shaped, already-broken run of glyphs positioned as one
// Frame item — layout never re-shapes once placed, matching the spec's
// separation between shaping (content→glyphs) and placement (glyphs→Frame).
type TextRun struct {
	Text     string
	Font     string
	Size     value.Length
	FillRGBA uint32
}

// ShapeKind distinguishes the small set of vector primitives a Frame can
// carry (rects and lines cover the rules/borders/underlines the teacher's
// own diagram/SVG conversion code in convert/ needs; richer paths are out
// of scope per spec Non-goals on custom path drawing).
type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeLine
)

type Shape struct {
	Kind     ShapeKind
	Size     Size
	StrokeRGBA uint32
	FillRGBA   uint32
	HasFill    bool
}

type Image struct {
	Data   []byte
	Format string
	Size   Size
}

// FrameItem is one positioned element of a Frame's contents.
type FrameItem struct {
	Kind ItemKind
	Pos  Point

	// ItemGroup
	Group *Frame

	// ItemText
	Text TextRun

	// ItemShape
	Shape Shape

	// ItemImage
	Image Image

	// ItemLink: destination is either an external URL or an internal Location.
	LinkDest string
	LinkLoc  introspect.Location
	LinkSize Size

	// ItemTag: a zero-sized marker carrying introspectable content (counter
	// updates, headings, labels) through to the post-layout Introspector
	// build, per spec §4.G's "Tag" frame item.
	TagLocation introspect.Location
	TagContent  introspect.Entry
}

// Frame is the output of layout: a positioned tree of items with a fixed
// size, the unit both pagination and introspection operate over (spec
// §4.H: "Fragment is Vec<Frame>, one per region the content was laid into").
type Frame struct {
	Size  Size
	Items []FrameItem
}

func NewFrame(size Size) *Frame { return &Frame{Size: size} }

func (f *Frame) Push(pos Point, item FrameItem) {
	item.Pos = pos
	f.Items = append(f.Items, item)
}

// PushFrame embeds a child frame as an ItemGroup at pos — the standard way
// a laid-out block nests inside its parent's frame.
func (f *Frame) PushFrame(pos Point, child *Frame) {
	f.Push(pos, FrameItem{Kind: ItemGroup, Group: child})
}

func (f *Frame) PushText(pos Point, run TextRun) {
	f.Push(pos, FrameItem{Kind: ItemText, Text: run})
}

func (f *Frame) PushShape(pos Point, shape Shape) {
	f.Push(pos, FrameItem{Kind: ItemShape, Shape: shape})
}

func (f *Frame) PushTag(pos Point, loc introspect.Location, entry introspect.Entry) {
	f.Push(pos, FrameItem{Kind: ItemTag, TagLocation: loc, TagContent: entry})
}

// Translate shifts every top-level item by delta — used when a frame built
// against a provisional origin is re-anchored once its final position in
// the parent is known (column balancing, float placement).
func (f *Frame) Translate(delta Point) {
	for i := range f.Items {
		f.Items[i].Pos.X += delta.X
		f.Items[i].Pos.Y += delta.Y
	}
}

// Collect walks f and its nested groups in document order, appending an
// introspect.Entry for every ItemTag it finds with pos resolved to this
// frame's absolute coordinates. page is the 1-indexed page this frame
// belongs to, supplied by the pagination pass.
func (f *Frame) Collect(page int, origin Point, out []introspect.Entry) []introspect.Entry {
	for _, it := range f.Items {
		abs := Point{X: origin.X + it.Pos.X, Y: origin.Y + it.Pos.Y}
		switch it.Kind {
		case ItemTag:
			entry := it.TagContent
			entry.Location = it.TagLocation
			entry.Pos = introspect.Position{Page: page, X: float64(abs.X), Y: float64(abs.Y)}
			out = append(out, entry)
		case ItemGroup:
			if it.Group != nil {
				out = it.Group.Collect(page, abs, out)
			}
		}
	}
	return out
}

// Fragment is the result of laying a node into a sequence of regions: one
// Frame per region it was broken across (spec §4.H: multi-page/multi-column
// content produces one Frame per page/column it spans).
type Fragment []*Frame
