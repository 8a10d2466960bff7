// Package world defines the host collaborator interface (spec §6) the
// compile pipeline calls out through for everything environment-specific:
// reading sources, resolving packages, loading fonts and images. It also
// ships reference implementations exercised by cmd/typeset and by tests,
// grounded on the teacher's own I/O helpers (archive walking, SVG
// rasterizing, YAML config) repurposed from FB2/KFX conversion to this
// pipeline's document compilation.
package world

import (
	"time"

	"typeset/diag"
	"typeset/fileid"
)

// World is the single host-collaborator surface the rest of the pipeline
// depends on (spec §6's full seven-method trait: "library() -> &Library,
// book() -> &FontBook, source(FileId), file(FileId), font(index) ->
// Option<Font>, today(offset?), packages() -> &[(PackageSpec, ...)]").
// Implementations may be backed by a filesystem, an in-memory map (for
// tests), or a sandboxed bundle.
type World interface {
	// Library returns the builtin global bindings every evaluation starts
	// from (spec §6: "library() -> &Library // builtin globals").
	Library() *Library
	// Source returns the decoded text of a source file.
	Source(id fileid.ID) (string, *diag.FileError)
	// File returns the raw bytes of a non-source file (image, data file).
	File(id fileid.ID) ([]byte, *diag.FileError)
	// ResolvePackage locates an installed package on disk and returns its
	// root file id within the package's own virtual-path namespace.
	ResolvePackage(spec fileid.PackageSpec) (fileid.Root, *diag.FileError)
	// Fonts returns the FontBook describing every font face this World can
	// shape text with (spec §6's "book() -> &FontBook").
	Fonts() *FontBook
	// Font returns the face at the FontBook's book-wide index (spec §6:
	// "font(index) -> Option<Font> // font by book index"), the index
	// space FontBook.Add assigns faces into as they're registered.
	Font(index int) (FontFace, bool)
	// Packages lists every package this World has resolved so far (spec
	// §6: "packages() -> &[(PackageSpec, ...)] // installed packages").
	Packages() []PackageEntry
	// Today returns the compile-time clock value (spec: "a `today()`
	// clock" — fixed per-compile so repeated layout-fixed-point iterations
	// within a single compile see a consistent date).
	Today() time.Time
}

// PackageEntry pairs a resolved package's spec with the fileid.Root a
// caller can read its files through.
type PackageEntry struct {
	Spec fileid.PackageSpec
	Root fileid.Root
}

// FontBook indexes the font faces a World makes available, keyed by family
// name, and also in book-wide registration order for §6's index-based
// font() accessor. The actual glyph/shaping data is out of this spec's
// scope (§1: "Font shaping/glyph layout... only the constraint surface is
// specified") — FontBook exists so layout can ask "does this family have
// a bold variant" without the pipeline depending on a shaping library.
type FontBook struct {
	families map[string][]FontFace
	byIndex  []FontFace
}

// FontFace describes one variant of a family.
type FontFace struct {
	Family string
	Bold   bool
	Italic bool
	Data   []byte
}

func NewFontBook() *FontBook {
	return &FontBook{families: map[string][]FontFace{}}
}

func (b *FontBook) Add(face FontFace) {
	b.families[face.Family] = append(b.families[face.Family], face)
	b.byIndex = append(b.byIndex, face)
}

// Select returns the best matching face for (family, bold, italic),
// falling back to any face in the family if an exact variant match is
// unavailable, spec §4.H's "font fallback" stance.
func (b *FontBook) Select(family string, bold, italic bool) (FontFace, bool) {
	faces := b.families[family]
	if len(faces) == 0 {
		return FontFace{}, false
	}
	for _, f := range faces {
		if f.Bold == bold && f.Italic == italic {
			return f, true
		}
	}
	return faces[0], true
}

// Font returns the face registered at book index i, spec §6's
// index-addressed font() accessor.
func (b *FontBook) Font(i int) (FontFace, bool) {
	if i < 0 || i >= len(b.byIndex) {
		return FontFace{}, false
	}
	return b.byIndex[i], true
}
