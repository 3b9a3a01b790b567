// Package completion suggests directive names after "<#", builtin names
// after "?" and macro names after "<@".
package completion

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/walteh/goftl/pkg/syntax"
)

type ItemKind string

const (
	KindDirective ItemKind = "directive"
	KindBuiltin   ItemKind = "builtin"
	KindMacro     ItemKind = "macro"
	KindNamespace ItemKind = "namespace"
)

// Item is one suggestion. Label replaces the partial word before the
// position.
type Item struct {
	Label  string
	Kind   ItemKind
	Detail string
}

var (
	directives = []string{
		"assign", "break", "case", "default", "else", "elseif", "ftl", "function", "if",
		"import", "list", "local", "macro", "on", "return", "sep", "switch",
	}
	// directives with a closing tag
	blocks = []string{"assign", "function", "if", "list", "local", "macro", "sep", "switch"}

	builtinCategories = []syntax.Category{
		syntax.CategoryString, syntax.CategoryNumber, syntax.CategoryBoolean,
		syntax.CategorySequence, syntax.CategoryHash, syntax.CategoryExpert,
	}
)

// At returns the suggestions for offset in the source of tree, sorted by
// label. It is empty when offset does not follow a trigger.
func At(ctx context.Context, tree *syntax.Tree, offset int) []Item {
	src := tree.Source()
	if offset < 0 || offset > len(src) {
		return nil
	}

	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRune(src[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	prefix := string(src[start:offset])
	before := string(src[:start])

	var items []Item
	switch {
	case strings.HasSuffix(before, "</#"):
		items = names(blocks, KindDirective, "")
	case strings.HasSuffix(before, "<#"):
		items = names(directives, KindDirective, "")
	case strings.HasSuffix(before, "<@"):
		items = macros(tree)
	case strings.HasSuffix(before, "?"):
		items = builtins()
	}

	out := items[:0]
	for _, it := range items {
		if strings.HasPrefix(it.Label, prefix) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	zerolog.Ctx(ctx).Debug().Int("offset", offset).Str("prefix", prefix).Int("items", len(out)).Msg("completion")

	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func names(list []string, kind ItemKind, detail string) []Item {
	out := make([]Item, len(list))
	for i, n := range list {
		out[i] = Item{Label: n, Kind: kind, Detail: detail}
	}
	return out
}

func builtins() []Item {
	cats := map[string][]string{}
	for _, c := range builtinCategories {
		for _, n := range syntax.Builtins(c) {
			cats[n] = append(cats[n], string(c))
		}
	}
	out := make([]Item, 0, len(cats))
	for n, cs := range cats {
		out = append(out, Item{Label: n, Kind: KindBuiltin, Detail: strings.Join(cs, ", ")})
	}
	return out
}

// macros lists the macros defined in the template and the namespaces it
// imports.
func macros(tree *syntax.Tree) []Item {
	seen := map[string]bool{}
	var out []Item
	add := func(n *syntax.Node, kind ItemKind, detail string) {
		if n == nil || n.IsMissing() || seen[n.Text()] {
			return
		}
		seen[n.Text()] = true
		out = append(out, Item{Label: n.Text(), Kind: kind, Detail: detail})
	}

	syntax.Walk(tree.Root(), func(n *syntax.Node) bool {
		switch n.Kind() {
		case syntax.ImportStmt:
			path := ""
			if p := n.ChildByField(syntax.FieldImportPath); p != nil {
				path = tree.Text(p)
			}
			add(n.ChildByField(syntax.FieldImportAlias), KindNamespace, path)
			return false
		case syntax.MacroClause:
			add(n.ChildByField(syntax.FieldName), KindMacro, "")
		}
		return true
	})
	return out
}
