package syntax

import "typeset/fileid"

// Node is the red (linked) view over a green tree: a cursor that knows its
// absolute byte offset, its node_number, and its parent, none of which the
// immutable green tree stores directly (spec §3: "A red (linked) view
// recomputes absolute byte offsets on demand during traversal").
//
// Node is cheap to construct and not meant to be retained across edits —
// build one per traversal, the way a zipper is used once and discarded.
type Node struct {
	green  *GreenNode
	file   fileid.ID
	offset uint32 // absolute byte offset of this node's start
	number uint32 // node_number, first number in this node's numbering range
	parent *Node
	indexInParent int
}

// Root constructs a red cursor at the root of a numbered green tree.
func Root(file fileid.ID, green *GreenNode, numbering NumberRange) *Node {
	return &Node{green: green, file: file, offset: 0, number: numbering.Start, indexInParent: -1}
}

func (n *Node) Kind() Kind      { return n.green.Kind() }
func (n *Node) Green() *GreenNode { return n.green }
func (n *Node) Offset() uint32  { return n.offset }
func (n *Node) Len() uint32     { return n.green.Len() }
func (n *Node) Range() (uint32, uint32) { return n.offset, n.offset + n.green.Len() }
func (n *Node) Text() string    { return n.green.FullText() }
func (n *Node) Parent() *Node   { return n.parent }

func (n *Node) Span() Span { return Span{File: n.file, Number: n.number} }

// Children returns red cursors for each child, with offsets and numbers
// computed relative to n.
func (n *Node) Children() []*Node {
	kids := n.green.Children()
	out := make([]*Node, len(kids))
	offset := n.offset
	number := n.number + 1
	for i, c := range kids {
		out[i] = &Node{
			green: c, file: n.file, offset: offset, number: number,
			parent: n, indexInParent: i,
		}
		offset += c.Len()
		number += c.DescendantCount()
	}
	return out
}

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	kids := n.Children()
	if i < 0 || i >= len(kids) {
		return nil
	}
	return kids[i]
}

// NumberRange returns the descendant range (as a NumberRange) this node
// occupies, used by incremental reparse to test fit.
func (n *Node) NumberRange() NumberRange {
	return NumberRange{Start: n.number, Count: n.green.DescendantCount()}
}

// FindAt returns the innermost (deepest) node whose byte range contains
// offset, descending through the red tree. Used by incremental reparse
// (spec §4.B step 1).
func (n *Node) FindAt(offset uint32) *Node {
	start, end := n.Range()
	if offset < start || offset > end {
		return nil
	}
	for _, c := range n.Children() {
		cs, ce := c.Range()
		if offset >= cs && offset <= ce {
			if found := c.FindAt(offset); found != nil {
				return found
			}
			break
		}
	}
	return n
}

// Descendants walks the subtree in pre-order, innermost last per node,
// calling visit(node) for every node including n itself. Returning false
// from visit stops the walk early (mirrors the "pull" iterator shape used by
// content flattening in package content).
func (n *Node) Descendants(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		c.Descendants(visit)
	}
}
