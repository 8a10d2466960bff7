package syntax

import "typeset/fileid"

// Reparse performs the incremental reparse described in spec §4.B:
//
//  1. Find the innermost node whose byte range fully contains the edited
//     range (FindAt, already on Node).
//  2. Re-lex/re-parse just that node's source text (with the edit applied)
//     in isolation, using the same grammar entry point appropriate to its
//     Kind.
//  3. Check whether the replacement's descendant count still fits the
//     numbering range the old node occupied (FitsRange) — if not, incremental
//     reparse cannot splice in place and the caller must fall back to a full
//     reparse of the file.
//  4. Splice the replacement into the parent chain via ReplaceChild, walking
//     up to the root and rebuilding each ancestor (persistent tree: siblings
//     are structurally shared, only the path to the edit is rebuilt).
//
// Reparse never mutates the old Source; it returns a new one, preserving the
// "Source" value's usual move-or-clone semantics (spec §3).
type EditRange struct {
	Start, End uint32 // byte range replaced in the old text
}

// ReparseResult reports whether the incremental path succeeded.
type ReparseResult struct {
	Source *Source
	Full   bool // true if a full reparse was required instead of a splice
}

// Reparse re-derives src after text[old.Start:old.End] is replaced by
// replacement, favoring an in-place splice and falling back to parsing the
// whole file only when the edit can't be contained.
func Reparse(src *Source, old EditRange, replacement string) ReparseResult {
	newText := src.Text[:old.Start] + replacement + src.Text[old.End:]

	root := src.Root()
	target := root.FindAt(old.Start)
	if target == nil || target.Parent() == nil {
		return fullReparse(src.File, newText)
	}

	// reparseable kinds are the ones with a grammar entry point that can
	// stand alone — inner markup/code constructs, not bare leaves (a Text
	// leaf split mid-token needs its containing Paragraph/CodeBlock/etc. to
	// re-tokenize correctly).
	if target.Kind().IsLeaf() {
		target = target.Parent()
	}

	oldStart, oldEnd := target.Range()
	if old.Start < oldStart || old.End > oldEnd {
		return fullReparse(src.File, newText)
	}

	relStart := old.Start - oldStart
	relEnd := old.End - oldStart
	localOld := target.Text()
	localNew := localOld[:relStart] + replacement + localOld[relEnd:]

	replacementGreen := reparseNode(target.Kind(), localNew)
	if replacementGreen == nil {
		return fullReparse(src.File, newText)
	}

	oldRange := target.NumberRange()
	if !FitsRange(oldRange, replacementGreen) {
		return fullReparse(src.File, newText)
	}

	newGreen := spliceUp(target, replacementGreen)
	return ReparseResult{
		Source: &Source{
			File:      src.File,
			Text:      newText,
			Green:     newGreen,
			Numbering: Number(newGreen, 0),
			Lines:     NewLineIndex(newText),
		},
	}
}

// reparseNode re-runs the grammar production appropriate to kind over the
// isolated local text. Only the shapes the splice algorithm is willing to
// trust are handled; anything else signals the caller to fall back.
func reparseNode(kind Kind, text string) *GreenNode {
	p := newParser(text)
	switch kind {
	case KindCodeBlock:
		if p.peekKind() != KindLeftBrace {
			return nil
		}
		return parseCodeBlock(p)
	case KindContentBlock:
		if p.peekKind() != KindLeftBracket {
			return nil
		}
		return parseContentBlock(p)
	case KindMathBlock:
		if p.peekKind() != KindDollar {
			return nil
		}
		return parseMathBlock(p)
	case KindParagraph, KindHeading, KindListItem, KindEnumItem, KindTermItem,
		KindStrong, KindEmph:
		children := parseMarkupSequence(p, stopNever)
		if len(children) == 0 {
			return nil
		}
		return NewInner(kind, children)
	default:
		return nil
	}
}

// spliceUp rebuilds the path from target up to the root, replacing target's
// green node with replacement and sharing every untouched sibling subtree.
func spliceUp(target *Node, replacement *GreenNode) *GreenNode {
	current := replacement
	node := target
	for node.Parent() != nil {
		parent := node.Parent()
		current = parent.Green().ReplaceChild(node.indexInParent, current)
		node = parent
	}
	return current
}

func fullReparse(file fileid.ID, text string) ReparseResult {
	return ReparseResult{Source: Parse(file, text), Full: true}
}
