package syntax

import (
	"github.com/walteh/goftl/pkg/position"
)

// Node is an immutable element of a syntax tree. Leaves carry the token text
// they were built from; branches own an ordered list of children, each with
// an optional field name. Nodes have no parent pointers, so unchanged
// subtrees can be shared between trees.
type Node struct {
	kind     Kind
	span     position.Span
	text     string
	children []*Node
	fields   []string
	named    bool
	extra    bool
	missing  bool
	hasError bool
	message  string
}

// NewLeaf builds a leaf covering span with the given source text.
func NewLeaf(kind Kind, span position.Span, text string) *Node {
	n := &Node{kind: kind, span: span, text: text}
	n.classify()
	return n
}

// NewMissing builds a zero width placeholder for a required node the input
// does not contain.
func NewMissing(kind Kind, offset int) *Node {
	n := &Node{kind: kind, span: position.NewSpan(offset, offset), missing: true, hasError: true}
	n.classify()
	return n
}

// NewErrorLeaf builds an ERROR node for input that could not be lexed at all,
// such as an unterminated comment.
func NewErrorLeaf(span position.Span, text, message string) *Node {
	n := &Node{kind: KindError, span: span, text: text, message: message}
	n.classify()
	return n
}

func (n *Node) classify() {
	if info, ok := Lookup(n.kind); ok {
		n.named = info.Named
		n.extra = info.Extra
	}
	if n.kind == KindError {
		n.hasError = true
	}
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) Span() position.Span {
	return n.span
}

// Text returns the token text of a leaf. Branches return "".
func (n *Node) Text() string {
	return n.text
}

// Content returns the source covered by n.
func (n *Node) Content(src []byte) string {
	return n.span.Text(src)
}

func (n *Node) IsNamed() bool   { return n.named }
func (n *Node) IsExtra() bool   { return n.extra }
func (n *Node) IsMissing() bool { return n.missing }
func (n *Node) IsError() bool   { return n.kind == KindError }
func (n *Node) IsLeaf() bool    { return len(n.children) == 0 }

// HasError reports whether n or any node below it is an error or a missing
// node.
func (n *Node) HasError() bool {
	return n.hasError
}

// Message explains an ERROR node; empty for other nodes.
func (n *Node) Message() string {
	return n.message
}

func (n *Node) ChildCount() int {
	return len(n.children)
}

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// FieldNameForChild returns the field of the i-th child, or "".
func (n *Node) FieldNameForChild(i int) string {
	if i < 0 || i >= len(n.fields) {
		return ""
	}
	return n.fields[i]
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// NamedChildren returns the named children, extras included.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.named {
			out = append(out, c)
		}
	}
	return out
}

// Field returns every child labeled with name, in order.
func (n *Node) Field(name string) []*Node {
	var out []*Node
	for i, c := range n.children {
		if n.fields[i] == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildByField returns the first child labeled with name.
func (n *Node) ChildByField(name string) *Node {
	for i, c := range n.children {
		if n.fields[i] == name {
			return c
		}
	}
	return nil
}

// ChildByKind returns the first direct child of kind k.
func (n *Node) ChildByKind(k Kind) *Node {
	for _, c := range n.children {
		if c.kind == k {
			return c
		}
	}
	return nil
}

// Builder assembles a branch node child by child.
type Builder struct {
	kind     Kind
	start    int
	children []*Node
	fields   []string
	message  string
}

// NewBuilder starts a branch at offset start. The start is only used when the
// branch ends up without children.
func NewBuilder(kind Kind, start int) *Builder {
	return &Builder{kind: kind, start: start}
}

func (b *Builder) Kind() Kind {
	return b.kind
}

// Add appends child under field, which may be "".
func (b *Builder) Add(field string, child *Node) *Builder {
	if child == nil {
		return b
	}
	b.children = append(b.children, child)
	b.fields = append(b.fields, field)
	return b
}

// Len returns the number of children added so far.
func (b *Builder) Len() int {
	return len(b.children)
}

// End returns the end offset of the last child, or the start offset.
func (b *Builder) End() int {
	if len(b.children) == 0 {
		return b.start
	}
	return b.children[len(b.children)-1].span.End
}

// SetMessage attaches an explanation, used for ERROR nodes.
func (b *Builder) SetMessage(msg string) *Builder {
	b.message = msg
	return b
}

func (b *Builder) Build() *Node {
	n := &Node{
		kind:     b.kind,
		children: b.children,
		fields:   b.fields,
		message:  b.message,
	}
	if len(b.children) == 0 {
		n.span = position.NewSpan(b.start, b.start)
	} else {
		n.span = position.NewSpan(b.children[0].span.Start, b.children[len(b.children)-1].span.End)
	}
	n.classify()
	for _, c := range b.children {
		if c.hasError {
			n.hasError = true
			break
		}
	}
	return n
}
