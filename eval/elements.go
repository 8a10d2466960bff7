package eval

import "typeset/content"

// The standard element library itself is out of this module's scope (spec
// §1: "only the protocol is specified") — but the evaluator still has to
// translate markup syntax into *some* concrete content.Content nodes, since
// markup produces content (spec §4.E). This file registers the handful of
// element kinds the markup grammar can actually produce (text, paragraphs,
// headings, list/enum/term items, emphasis, raw, linebreaks, math), each
// with just enough fields for set/show rules to target them. It is a
// bootstrap vocabulary, not a standard library: no layout or show-default
// behavior lives here, only the registration record (spec §4.D ElemDef).
var (
	kindText       *content.ElemDef
	kindParagraph  *content.ElemDef
	kindHeading    *content.ElemDef
	kindListItem   *content.ElemDef
	kindEnumItem   *content.ElemDef
	kindTermItem   *content.ElemDef
	kindStrong     *content.ElemDef
	kindEmph       *content.ElemDef
	kindLinebreak  *content.ElemDef
	kindRaw        *content.ElemDef
	kindMath       *content.ElemDef
	kindContextual *content.ElemDef
)

func init() {
	kindText = content.Register("text", []content.FieldInfo{
		{Name: "text", ID: 1, Flags: content.FlagSettable},
	}, content.CapFinalize)

	kindParagraph = content.Register("par", []content.FieldInfo{
		{Name: "body", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout)

	kindHeading = content.Register("heading", []content.FieldInfo{
		{Name: "level", ID: 1, Flags: content.FlagSettable},
		{Name: "body", ID: 2, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout|content.CapLocatable)

	kindListItem = content.Register("list-item", []content.FieldInfo{
		{Name: "body", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout)

	kindEnumItem = content.Register("enum-item", []content.FieldInfo{
		{Name: "number", ID: 1, Flags: content.FlagSettable},
		{Name: "body", ID: 2, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout)

	kindTermItem = content.Register("term-item", []content.FieldInfo{
		{Name: "term", ID: 1, Flags: content.FlagSettable},
		{Name: "body", ID: 2, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout)

	kindStrong = content.Register("strong", []content.FieldInfo{
		{Name: "body", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize)

	kindEmph = content.Register("emph", []content.FieldInfo{
		{Name: "body", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize)

	kindLinebreak = content.Register("linebreak", nil, content.CapFinalize)

	kindRaw = content.Register("raw", []content.FieldInfo{
		{Name: "text", ID: 1, Flags: content.FlagSettable},
	}, content.CapFinalize|content.CapLayout)

	kindMath = content.Register("equation", []content.FieldInfo{
		{Name: "body", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow|content.CapFinalize|content.CapLayout)

	// kindContextual is eval's internal deferred-content marker for `context
	// expr` (spec §4.E: "returns a deferred element"); compile wires its Show
	// hook to Routines.EvalContextual once the realizer exists.
	kindContextual = content.Register("contextual", []content.FieldInfo{
		{Name: "fn", ID: 1, Flags: content.FlagSettable},
	}, content.CapShow)
}
