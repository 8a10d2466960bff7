package layout

import "typeset/value"

// segment is one indivisible run of glyphs in the line-breaking input: a
// whole word, or the piece of a word before/after a soft hyphen. Flattening
// words down to segments first keeps the dynamic program below working over
// one uniform list instead of having to special-case mid-word hyphen
// breaks, and a fixed hyphen glyph width is charged only when a break is
// actually taken at a Hyphenated segment.
type segment struct {
	Text        string
	Width       value.Length
	SpaceBefore bool // a real space precedes this segment (vs. continuing a hyphenated word)
	Hyphenated  bool // a soft hyphen follows this segment; breaking here adds a hyphen's width (hyphenWidthRatio)
}

// Flatten turns shaped words into the segment list BreakParagraph consumes.
func Flatten(words []Word, metrics Metrics, size value.Length) []segment {
	var segs []segment
	for wi, w := range words {
		start := 0
		breaks := append(append([]int(nil), w.Breakable...), len(w.Glyphs))
		for _, b := range breaks {
			segs = append(segs, segment{
				Text:        wordText(w, start, b),
				Width:       wordAdvance(w, start, b),
				SpaceBefore: start == 0 && wi > 0,
				Hyphenated:  b != len(w.Glyphs),
			})
			start = b
		}
	}
	return segs
}

// LineText joins the segments spanned by ln back into a string, inserting
// spaces between words and a hyphen at a taken soft-hyphen break — the
// inverse of Flatten for the span the line breaker chose.
func LineText(segs []segment, ln Line) string {
	var out []rune
	for i := ln.From; i < ln.To; i++ {
		if segs[i].SpaceBefore && i > ln.From {
			out = append(out, ' ')
		}
		out = append(out, []rune(segs[i].Text)...)
		if segs[i].Hyphenated && i == ln.To-1 && ln.Hyphenated {
			out = append(out, '-')
		}
	}
	return string(out)
}

// Line is one chosen output line: the half-open segment range [From, To)
// and whether its last segment was broken at a soft hyphen.
type Line struct {
	From, To   int
	Hyphenated bool
}

// hyphenWidthRatio sets the width charged for a hyphen glyph drawn at a taken
// soft-hyphen break, approximated as a fixed fraction of the line's glyph
// size since no real font metrics are available for the hyphen glyph
// itself.
const hyphenWidthRatio = 0.3

// BreakParagraph runs a Knuth-Plass-style dynamic program over segs,
// choosing line breaks that minimize total squared badness (how far each
// line's filled width falls short of lineWidth) summed across the whole
// paragraph, rather than greedily filling each line first-fit. This is the
// same family of algorithm the spec's inline-layout module describes,
// scaled down to this module's simpler metrics-only segment model (no
// Knuth-Plass fitness-class demerits, since the only hyphenation
// opportunities available are pre-existing soft hyphens, not a generated
// pattern dictionary).
func BreakParagraph(segs []segment, size, lineWidth value.Length) []Line {
	n := len(segs)
	if n == 0 {
		return nil
	}
	hyphenW := value.Length(float64(size) * hyphenWidthRatio)
	spaceW := value.Length(float64(size) * spaceAdvanceRatio)

	const inf = 1e18
	cost := make([]float64, n+1)
	prev := make([]int, n+1)
	for i := range cost {
		cost[i] = inf
	}
	cost[0] = 0

	for i := 0; i < n; i++ {
		if cost[i] == inf {
			continue
		}
		var width value.Length
		for j := i; j < n; j++ {
			if segs[j].SpaceBefore && j > i {
				width += spaceW
			}
			width += segs[j].Width
			lineEndsHyphenated := segs[j].Hyphenated && j < n-1
			effWidth := width
			if lineEndsHyphenated {
				effWidth += hyphenW
			}
			if effWidth > lineWidth && j > i {
				break
			}
			isLast := j == n-1
			b := lineBadness(effWidth, lineWidth)
			if isLast {
				b = 0 // final line is never penalized for being short
			}
			c := cost[i] + b
			if c < cost[j+1] {
				cost[j+1] = c
				prev[j+1] = i
			}
		}
	}

	if cost[n] == inf {
		// Degenerate case (a single segment wider than lineWidth): emit one
		// line per segment so layout still terminates.
		lines := make([]Line, n)
		for i := range lines {
			lines[i] = Line{From: i, To: i + 1, Hyphenated: segs[i].Hyphenated}
		}
		return lines
	}

	var breaks []int
	for i := n; i > 0; i = prev[i] {
		breaks = append(breaks, i)
	}
	var lines []Line
	start := 0
	for i := len(breaks) - 1; i >= 0; i-- {
		end := breaks[i]
		lines = append(lines, Line{From: start, To: end, Hyphenated: end > 0 && end <= n && segs[end-1].Hyphenated && end != n})
		start = end
	}
	return lines
}

func lineBadness(width, lineWidth value.Length) float64 {
	if lineWidth <= 0 {
		return 0
	}
	ratio := float64(lineWidth-width) / float64(lineWidth)
	if ratio < 0 {
		ratio = -ratio * 3 // overfull lines are worse than equivalently underfull ones
	}
	return ratio * ratio * 100
}

func wordAdvance(w Word, from, to int) value.Length {
	var total value.Length
	for i := from; i < to && i < len(w.Glyphs); i++ {
		total += w.Glyphs[i].Advance
	}
	return total
}
