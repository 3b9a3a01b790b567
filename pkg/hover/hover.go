// Package hover describes the syntax under a position: builtin names get
// their catalog entry and macro namespaces point at what defines them.
package hover

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/syntax"
)

// Info is the hover content for one leaf.
type Info struct {
	// Content is markdown.
	Content string
	Span    position.Span
	Range   position.Range
}

// At returns hover information for the leaf covering offset, or nil when
// there is nothing to say about it.
func At(ctx context.Context, tree *syntax.Tree, offset int) *Info {
	path := tree.PathAt(offset)
	leaf := path[len(path)-1]
	if !leaf.IsLeaf() || leaf.IsMissing() {
		return nil
	}

	var content string
	switch leaf.Kind() {
	case syntax.BuiltinName:
		content = describeBuiltin(leaf.Text())
	case syntax.MacroNamespace:
		content = describeNamespace(tree, leaf.Text())
	}

	zerolog.Ctx(ctx).Debug().
		Int("offset", offset).
		Str("kind", string(leaf.Kind())).
		Bool("found", content != "").
		Msg("hover")

	if content == "" {
		return nil
	}
	return &Info{
		Content: content,
		Span:    leaf.Span(),
		Range:   tree.Locator().Range(leaf.Span()),
	}
}

func describeBuiltin(name string) string {
	b, ok := syntax.LookupBuiltin(name)
	if !ok {
		return ""
	}

	cats := make([]string, len(b.Categories))
	for i, c := range b.Categories {
		cats[i] = string(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "```ftl\n?%s\n```\n\n", b.Name)
	if b.Name != name {
		fmt.Fprintf(&sb, "Alias of `?%s`. ", b.Name)
	}
	fmt.Fprintf(&sb, "Built-in for %s values.", strings.Join(cats, ", "))
	return sb.String()
}

// describeNamespace quotes the line of the first import or macro defining
// name in the same template.
func describeNamespace(tree *syntax.Tree, name string) string {
	var def *syntax.Node
	syntax.Walk(tree.Root(), func(n *syntax.Node) bool {
		if def != nil {
			return false
		}
		switch n.Kind() {
		case syntax.ImportStmt:
			if alias := n.ChildByField(syntax.FieldImportAlias); alias != nil && alias.Text() == name {
				def = n
			}
			return false
		case syntax.MacroClause:
			if m := n.ChildByField(syntax.FieldName); m != nil && m.Text() == name {
				def = n
				return false
			}
		}
		return true
	})
	if def == nil {
		return ""
	}

	loc := tree.Locator()
	line := loc.Place(def.Span().Start).Line
	text := string(tree.Source()[loc.LineStart(line):loc.LineEnd(line)])
	return fmt.Sprintf("```ftl\n%s\n```", strings.TrimSpace(text))
}
