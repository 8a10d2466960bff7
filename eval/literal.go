package eval

import (
	"math"
	"strconv"
	"strings"

	"typeset/diag"
	"typeset/value"
)

// parseInt turns an Int leaf's exact source text into a value.Value.
func parseInt(text string) (value.Value, error) {
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, diag.Hinted("invalid integer literal %q", text)
	}
	return value.Int(i), nil
}

// parseFloat turns a Float leaf's exact source text into a value.Value.
func parseFloat(text string) (value.Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return value.Value{}, diag.Hinted("invalid float literal %q", text)
	}
	return value.Float(f), nil
}

// unitConversions maps a numeric suffix to the absolute-length points-per-
// unit it represents. Only units the lexer's scanNumber actually recognizes
// need an entry (spec §3: Length is stored internally in points).
var unitConversions = map[string]float64{
	"pt": 1,
	"in": 72,
	"cm": 72 / 2.54,
	"mm": 72 / 25.4,
	"em": 12, // no font metrics collaborator wired yet; a fixed baseline
}

// parseNumeric turns a Numeric leaf's exact source text (digits, optional
// fraction, trailing unit) into the matching tagged Value: Length for
// absolute units, Ratio for '%', Angle for 'deg'/'rad', Fraction for 'fr'.
func parseNumeric(text string) (value.Value, error) {
	i := 0
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		i++
	}
	numPart, unit := text[:i], text[i:]
	mag, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return value.Value{}, diag.Hinted("invalid numeric literal %q", text)
	}
	switch unit {
	case "%":
		return value.RatioOf(value.Ratio(mag / 100)), nil
	case "deg":
		return value.AngleOf(value.Angle(mag * math.Pi / 180)), nil
	case "rad":
		return value.AngleOf(value.Angle(mag)), nil
	case "fr":
		return value.FractionOf(value.Fraction(mag)), nil
	default:
		if perPt, ok := unitConversions[unit]; ok {
			return value.LengthOf(value.Length(mag * perPt)), nil
		}
		return value.Value{}, diag.Hinted("unknown unit %q in %q", unit, text)
	}
}

// unquoteStr strips the surrounding quotes from a Str leaf's exact source
// text and resolves backslash escapes, mirroring the pairs scanString
// accepts (any character may follow a backslash; scanString itself does no
// validation, so unescaping is lenient here too).
func unquoteStr(text string) string {
	if len(text) >= 2 && text[0] == '"' {
		text = text[1 : len(text)-1]
	}
	if !strings.ContainsRune(text, '\\') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			i++
			switch text[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(text[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
