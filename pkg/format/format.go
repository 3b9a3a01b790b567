// Package format re-indents the directive lines of a template according to
// how deeply they are nested in clause bodies. Lines that do not start with
// a directive are left as they are.
package format

import (
	"bytes"
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/goftl/pkg/syntax"
)

// Options controls the indentation unit.
type Options struct {
	UseTabs    bool
	IndentSize int
	// InsertFinalNewline adds a trailing newline when the source lacks one.
	InsertFinalNewline bool
}

// DefaultOptions indents with four spaces.
func DefaultOptions() Options {
	return Options{IndentSize: 4}
}

func (o Options) unit() string {
	if o.UseTabs {
		return "\t"
	}
	size := o.IndentSize
	if size <= 0 {
		size = DefaultOptions().IndentSize
	}
	return strings.Repeat(" ", size)
}

// Source formats the source of tree. A line is rewritten only when its first
// non-blank character opens or closes a directive, and that directive is
// not inside a comment. Such a line gets the leading whitespace of the line
// its top level statement starts on, one indent unit per clause body it sits
// in, and loses trailing whitespace.
func Source(ctx context.Context, tree *syntax.Tree, opts Options) []byte {
	src := tree.Source()
	unit := opts.unit()

	lines := bytes.Split(src, []byte("\n"))
	out := make([]byte, 0, len(src))

	offset := 0
	changed := 0
	for i, line := range lines {
		if i > 0 {
			out = append(out, '\n')
		}

		formatted := formatLine(tree, src, offset, line, unit)
		if !bytes.Equal(formatted, line) {
			changed++
		}
		out = append(out, formatted...)
		offset += len(line) + 1
	}

	if opts.InsertFinalNewline && len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	zerolog.Ctx(ctx).Debug().
		Int("lines", len(lines)).
		Int("changed", changed).
		Msg("formatted template")

	return out
}

func formatLine(tree *syntax.Tree, src []byte, offset int, line []byte, unit string) []byte {
	body, cr := line, false
	if n := len(body); n > 0 && body[n-1] == '\r' {
		body, cr = body[:n-1], true
	}

	trimmed := bytes.TrimLeft(body, " \t")
	if !bytes.HasPrefix(trimmed, []byte("<#")) && !bytes.HasPrefix(trimmed, []byte("</#")) {
		return line
	}
	start := offset + len(body) - len(trimmed)

	depth, top, ok := nesting(tree.Root(), start)
	if !ok {
		return line
	}

	var sb bytes.Buffer
	sb.Write(leadingSpace(src, top.Span().Start))
	for range depth {
		sb.WriteString(unit)
	}
	sb.Write(bytes.TrimRight(trimmed, " \t"))
	if cr {
		sb.WriteByte('\r')
	}
	return sb.Bytes()
}

// nesting descends to the leaf starting at offset and counts the clauses
// whose body contains it. It also returns the top level item holding the
// leaf. ok is false when the leaf is a comment or no leaf starts there.
func nesting(root *syntax.Node, offset int) (depth int, top *syntax.Node, ok bool) {
	n := root
	for !n.IsLeaf() {
		next := -1
		for i, c := range n.Children() {
			if !c.Span().IsEmpty() && c.Span().Contains(offset) {
				next = i
				break
			}
		}
		if next < 0 {
			return 0, nil, false
		}
		if strings.HasSuffix(string(n.Kind()), "_clause") && n.FieldNameForChild(next) == syntax.FieldBody {
			depth++
		}
		if n == root {
			top = n.Child(next)
		}
		n = n.Child(next)
	}
	if n.Kind() == syntax.Comment || n.Span().Start != offset {
		return 0, nil, false
	}
	return depth, top, true
}

func leadingSpace(src []byte, offset int) []byte {
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}
