package syntax

import (
	"github.com/walteh/goftl/pkg/position"
)

// Checkpoint records where a top level item of the source file started, the
// serialized scanner state at that point and how far lexing of the item
// looked ahead. Incremental reparsing reuses an item only when its reach
// stays clear of every edit.
type Checkpoint struct {
	Offset  int
	Reach   int
	Context []byte
}

// Tree is the result of a parse. It owns its source and nodes and is never
// modified once returned.
type Tree struct {
	src         []byte
	root        *Node
	checkpoints []Checkpoint
}

// NewTree wraps a parsed root. checkpoints must hold one entry per child of
// root.
func NewTree(src []byte, root *Node, checkpoints []Checkpoint) *Tree {
	return &Tree{src: src, root: root, checkpoints: checkpoints}
}

func (t *Tree) Root() *Node {
	return t.root
}

// Source returns the parsed text. Callers must not modify it.
func (t *Tree) Source() []byte {
	return t.src
}

func (t *Tree) HasError() bool {
	return t.root.HasError()
}

// Checkpoints returns a copy of the per item incremental state.
func (t *Tree) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(t.checkpoints))
	copy(out, t.checkpoints)
	return out
}

// Text returns the source covered by n.
func (t *Tree) Text(n *Node) string {
	return n.Content(t.src)
}

// Leaves returns every leaf in document order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	Walk(t.root, func(n *Node) bool {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// PathAt returns the chain of nodes from the root down to the deepest
// non-empty node containing offset.
func (t *Tree) PathAt(offset int) []*Node {
	path := []*Node{t.root}
	n := t.root
	for {
		var next *Node
		for _, c := range n.children {
			if !c.span.IsEmpty() && c.span.Contains(offset) {
				next = c
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		n = next
	}
}

// Locator returns a line and column index over the tree's source.
func (t *Tree) Locator() *position.Locator {
	return position.NewLocator(t.src)
}
