package style

import "typeset/content"

// TextOf extracts the plain text a leaf content node carries, if any — the
// hook the standard text element registers so ApplyRegexRecipe can find
// substrings to match against without style depending on a concrete text
// element type.
type TextOf func(*content.Content) (string, bool)

// MakeText rebuilds a leaf text node with new text, reusing the original's
// span/label/location (spec §4.F.2: "non-matches are preserved with copied
// modifiers (span, label, location)").
type MakeText func(original *content.Content, text string) *content.Content

// ApplyRegexRecipe walks root's textual descendants, splits each at rec's
// regex matches, and applies rec's transform to the matched substrings
// (spec §4.F.2). Non-text nodes and non-matching spans pass through
// unchanged, rebuilt via makeText so span/label/location survive the split.
func ApplyRegexRecipe(root *content.Content, rec *Recipe, textOf TextOf, makeText MakeText) (*content.Content, error) {
	if rec.Selector.Kind != SelectorRegex || rec.Selector.Regex == nil {
		return root, nil
	}
	return walkAndSplit(root, rec, textOf, makeText)
}

func walkAndSplit(node *content.Content, rec *Recipe, textOf TextOf, makeText MakeText) (*content.Content, error) {
	if node == nil {
		return nil, nil
	}

	if text, ok := textOf(node); ok {
		return splitTextNode(node, text, rec, makeText)
	}

	if node.IsSequence() {
		rebuilt := make([]*content.Content, 0, len(node.Children))
		for _, child := range node.Children {
			out, err := walkAndSplit(child, rec, textOf, makeText)
			if err != nil {
				return nil, err
			}
			if out.IsSequence() {
				rebuilt = append(rebuilt, out.Children...)
			} else {
				rebuilt = append(rebuilt, out)
			}
		}
		return content.Sequence(rebuilt...), nil
	}

	if node.IsStyled() {
		inner, err := walkAndSplit(node.Inner, rec, textOf, makeText)
		if err != nil {
			return nil, err
		}
		return content.Styled(inner, node.Styles), nil
	}

	return node, nil
}

func splitTextNode(node *content.Content, text string, rec *Recipe, makeText MakeText) (*content.Content, error) {
	locs := rec.Selector.Regex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return node, nil
	}

	var pieces []*content.Content
	cursor := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start > cursor {
			pieces = append(pieces, makeText(node, text[cursor:start]))
		}
		matched := makeText(node, text[start:end])
		transformed, err := applyTransform(matched, rec.Transform, nil)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, transformed)
		cursor = end
	}
	if cursor < len(text) {
		pieces = append(pieces, makeText(node, text[cursor:]))
	}
	return content.Sequence(pieces...), nil
}
