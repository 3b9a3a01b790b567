package syntax

import (
	"strings"
)

// Walk visits n and its descendants depth first in document order. When
// visit returns false the children of that node are skipped.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, visit)
	}
}

// Visitor receives enter and leave callbacks during Inspect.
type Visitor interface {
	Enter(n *Node, field string) bool
	Leave(n *Node, field string)
}

// Inspect walks n like Walk but also reports when a node is left, along with
// the field each node occupies in its parent.
func Inspect(n *Node, v Visitor) {
	inspect(n, "", v)
}

func inspect(n *Node, field string, v Visitor) {
	if n == nil {
		return
	}
	if v.Enter(n, field) {
		for i, c := range n.children {
			inspect(c, n.fields[i], v)
		}
	}
	v.Leave(n, field)
}

// SExpr renders the named structure of n in the familiar tree-sitter form,
// for example (if_stmt (if_clause condition: (identifier)) (if_close)).
// Anonymous nodes and whitespace are omitted; missing nodes are written as
// (MISSING kind).
func (n *Node) SExpr() string {
	var sb strings.Builder
	n.writeSExpr(&sb, "")
	return sb.String()
}

func (n *Node) writeSExpr(sb *strings.Builder, field string) {
	if field != "" {
		sb.WriteString(field)
		sb.WriteString(": ")
	}
	sb.WriteByte('(')
	if n.missing {
		sb.WriteString("MISSING ")
	}
	sb.WriteString(string(n.kind))
	for i, c := range n.children {
		if !c.named && !c.missing {
			continue
		}
		sb.WriteByte(' ')
		c.writeSExpr(sb, n.fields[i])
	}
	sb.WriteByte(')')
}
