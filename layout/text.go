package layout

import (
	"strings"
	"unicode"

	"typeset/value"
)

// softHyphen is the only hyphenation breakpoint this engine recognizes.
// The teacher's real hyphenator (convert/text/hyphenator.go) loads TeX
// pattern dictionaries from //go:embed dictionaries/*.gz, and its sentence
// tokenizer (content/text/sentences.go) loads trained models from
// //go:embed sentences/*.gz — neither embedded asset ships with this
// module, so paragraph breaking here only ever breaks at spaces and at
// explicit soft hyphens (U+00AD) the input already contains, rather than
// inventing pattern-matching hyphenation from scratch.
const softHyphen = '­'

// Glyph is one shaping-level unit: a rune plus its advance width at a
// given font size, the smallest piece the line breaker measures.
type Glyph struct {
	Rune    rune
	Advance value.Length
}

// Word is a run of glyphs with no break opportunity inside it except at
// soft hyphens; Breakable marks the soft-hyphen split points measured in
// glyph indices (Rust's "may break after glyph i").
type Word struct {
	Glyphs    []Glyph
	Breakable []int
}

// Shape measures text into words using metrics' fixed-width advance table,
// splitting on spaces and tracking soft-hyphen break opportunities. A real
// shaper (HarfBuzz-style) would consult font tables for kerning/ligatures;
// this module only has metrics.Advance, matching the font data actually
// available to it.
func Shape(text string, metrics Metrics, size value.Length) []Word {
	var words []Word
	var cur Word
	flush := func() {
		if len(cur.Glyphs) > 0 {
			words = append(words, cur)
			cur = Word{}
		}
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		if r == softHyphen {
			cur.Breakable = append(cur.Breakable, len(cur.Glyphs))
			continue
		}
		cur.Glyphs = append(cur.Glyphs, Glyph{Rune: r, Advance: metrics.Advance(r, size)})
	}
	flush()
	return words
}

// Metrics answers glyph advance widths. A real font backend (sfnt/opentype
// tables) is out of this module's scope; Metrics is the seam a concrete
// font loader plugs into.
type Metrics interface {
	Advance(r rune, size value.Length) value.Length
	LineHeight(size value.Length) value.Length
}

// MonoMetrics is a fixed-advance stand-in Metrics for content that carries
// no font resource (raw/code blocks, tests) — every glyph advances by a
// constant fraction of its size, which is the simplest grounded choice
// absent real font tables.
type MonoMetrics struct{ AdvanceRatio, LineHeightRatio float64 }

func (m MonoMetrics) Advance(r rune, size value.Length) value.Length {
	ratio := m.AdvanceRatio
	if ratio == 0 {
		ratio = 0.6
	}
	return value.Length(float64(size) * ratio)
}

func (m MonoMetrics) LineHeight(size value.Length) value.Length {
	ratio := m.LineHeightRatio
	if ratio == 0 {
		ratio = 1.2
	}
	return value.Length(float64(size) * ratio)
}

// wordText renders glyphs [from:to) of w back into a string.
func wordText(w Word, from, to int) string {
	var out []rune
	for i := from; i < to && i < len(w.Glyphs); i++ {
		out = append(out, w.Glyphs[i].Rune)
	}
	return string(out)
}

var spaceAdvanceRatio = 0.28

// SpaceAdvance is the width of the inter-word space glyph at size.
func SpaceAdvance(metrics Metrics, size value.Length) value.Length {
	return value.Length(float64(size) * spaceAdvanceRatio)
}

// collapseSpaces normalizes runs of whitespace to single spaces, matching
// markup text's collapsing semantics (spec §4.D) before it ever reaches the
// line breaker.
func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
