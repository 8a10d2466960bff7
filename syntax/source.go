package syntax

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"typeset/fileid"
)

// LineIndex supports UTF-8 <-> UTF-16 <-> (line, column) conversion in
// O(log n) (spec §3), built once per parse from the line-start byte offsets.
type LineIndex struct {
	text        string
	lineStarts  []uint32 // byte offset of the start of each line; lineStarts[0] == 0
}

func NewLineIndex(text string) *LineIndex {
	starts := []uint32{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &LineIndex{text: text, lineStarts: starts}
}

// LineCol converts a byte offset to a zero-based (line, column) pair, column
// counted in UTF-16 code units (the IDE-facing convention used throughout
// the original implementation's LSP surface).
func (li *LineIndex) LineCol(offset uint32) (line, col int) {
	line = sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	lineStart := li.lineStarts[line]
	col = utf16Len(li.text[lineStart:offset])
	return line, col
}

// Offset converts a (line, col) pair (UTF-16 column) back to a byte offset.
func (li *LineIndex) Offset(line, col int) uint32 {
	if line < 0 {
		line = 0
	}
	if line >= len(li.lineStarts) {
		return uint32(len(li.text))
	}
	lineStart := li.lineStarts[line]
	lineEnd := uint32(len(li.text))
	if line+1 < len(li.lineStarts) {
		lineEnd = li.lineStarts[line+1]
	}
	return lineStart + utf16Offset(li.text[lineStart:lineEnd], col)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

func utf16Offset(s string, col int) uint32 {
	units := 0
	for i, r := range s {
		if units >= col {
			return uint32(i)
		}
		units += len(utf16.Encode([]rune{r}))
	}
	return uint32(len(s))
}

// Utf8ToUtf16 and Utf16ToUtf8 convert a byte offset to/from a UTF-16 code
// unit offset within the whole text, the other half of the conversion
// spec §3 asks for (line index handles the line-relative half above).
func (li *LineIndex) Utf8ToUtf16(offset uint32) int {
	return utf16Len(li.text[:offset])
}

func (li *LineIndex) Utf16ToUtf8(units int) uint32 {
	count := 0
	for i, r := range li.text {
		if count >= units {
			return uint32(i)
		}
		count += len(utf16.Encode([]rune{r}))
	}
	return uint32(len(li.text))
}

func (li *LineIndex) LineCount() int { return len(li.lineStarts) }

// Source bundles a file's identity with its parsed tree and line index
// (spec §3: "Source: (FileId, green_root, line_index)").
type Source struct {
	File      fileid.ID
	Text      string
	Green     *GreenNode
	Numbering NumberRange
	Lines     *LineIndex
}

// Parse builds a fresh Source for text under file, running the recursive
// descent parser (never fails — spec §4.B property #1) and the numbering
// pass.
func Parse(file fileid.ID, text string) *Source {
	green := parseSourceFile(text)
	return &Source{
		File:      file,
		Text:      text,
		Green:     green,
		Numbering: Number(green, 0),
		Lines:     NewLineIndex(text),
	}
}

// Root returns a red cursor at the root of the source's tree.
func (s *Source) Root() *Node {
	return Root(s.File, s.Green, s.Numbering)
}

// ValidUTF8Len is a defensive helper ensuring offsets never land mid-rune;
// nothing in this package calls it.
func ValidUTF8Len(s string, upTo int) int {
	for !utf8.ValidString(s[:upTo]) && upTo > 0 {
		upTo--
	}
	return upTo
}
