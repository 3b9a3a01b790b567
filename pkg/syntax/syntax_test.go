package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/syntax"
)

func leaf(kind syntax.Kind, start int, text string) *syntax.Node {
	return syntax.NewLeaf(kind, position.NewSpan(start, start+len(text)), text)
}

// ${a[b]}
func subscriptTree() *syntax.Tree {
	sub := syntax.NewBuilder(syntax.SubscriptExpression, 2).
		Add(syntax.FieldObject, leaf(syntax.Identifier, 2, "a")).
		Add("", leaf("[", 3, "[")).
		Add(syntax.FieldIndex, leaf(syntax.Identifier, 4, "b")).
		Add("", leaf("]", 5, "]")).
		Build()
	interp := syntax.NewBuilder(syntax.Interpolation, 0).
		Add("", leaf(syntax.InterpolationPrepend, 0, "${")).
		Add(syntax.FieldExpression, sub).
		Add("", leaf("}", 6, "}")).
		Build()
	root := syntax.NewBuilder(syntax.SourceFile, 0).Add("", interp).Build()
	return syntax.NewTree([]byte("${a[b]}"), root, nil)
}

func TestNodeFields(t *testing.T) {
	tree := subscriptTree()
	interp := tree.Root().Child(0)
	require.NotNil(t, interp)

	sub := interp.ChildByField(syntax.FieldExpression)
	require.NotNil(t, sub)
	assert.Equal(t, syntax.SubscriptExpression, sub.Kind())
	assert.Equal(t, position.NewSpan(2, 6), sub.Span())
	assert.Equal(t, "a", sub.ChildByField(syntax.FieldObject).Text())
	assert.Equal(t, "b", tree.Text(sub.ChildByField(syntax.FieldIndex)))
	assert.Len(t, sub.Field(syntax.FieldIndex), 1)
	assert.Nil(t, sub.ChildByField(syntax.FieldBody))
	assert.False(t, tree.HasError())

	assert.Equal(t, "(source_file (interpolation (interpolation_prepend) expression: (subscript_expression object: (identifier) index: (identifier))))", tree.Root().SExpr())
}

func TestLeavesCoverSource(t *testing.T) {
	tree := subscriptTree()
	var text string
	for _, l := range tree.Leaves() {
		text += tree.Text(l)
	}
	assert.Equal(t, string(tree.Source()), text)
}

func TestMissingAndErrorPropagate(t *testing.T) {
	clause := syntax.NewBuilder(syntax.IfClause, 0).
		Add("", leaf(syntax.IfBegin, 0, "<#if")).
		Add(syntax.FieldCondition, syntax.NewMissing(syntax.Identifier, 4)).
		Add("", leaf(syntax.CloseTag, 4, ">")).
		Build()
	stmt := syntax.NewBuilder(syntax.IfStmt, 0).Add("", clause).Build()

	assert.True(t, stmt.HasError())
	assert.False(t, stmt.IsError())
	cond := clause.ChildByField(syntax.FieldCondition)
	assert.True(t, cond.IsMissing())
	assert.Equal(t, 0, cond.Span().Len())
	assert.Equal(t, "(if_stmt (if_clause (if_begin) condition: (MISSING identifier) (close_tag)))", stmt.SExpr())

	errNode := syntax.NewBuilder(syntax.KindError, 0).SetMessage("unexpected").Add("", leaf(syntax.Identifier, 0, "x")).Build()
	assert.True(t, errNode.IsError())
	assert.True(t, errNode.HasError())
	assert.Equal(t, "unexpected", errNode.Message())
}

func TestDump(t *testing.T) {
	d := subscriptTree().Root().Dump(syntax.DumpOptions{})
	require.Len(t, d.Children, 1)
	interp := d.Children[0]
	assert.Equal(t, syntax.Interpolation, interp.Kind)
	require.Len(t, interp.Children, 2, "anonymous braces are dropped")
	assert.Equal(t, syntax.FieldExpression, interp.Children[1].Field)

	full := subscriptTree().Root().Dump(syntax.DumpOptions{Anonymous: true})
	assert.Len(t, full.Children[0].Children, 3)
}

func TestPathAt(t *testing.T) {
	tree := subscriptTree()
	path := tree.PathAt(4)
	kinds := make([]syntax.Kind, 0, len(path))
	for _, n := range path {
		kinds = append(kinds, n.Kind())
	}
	assert.Equal(t, []syntax.Kind{syntax.SourceFile, syntax.Interpolation, syntax.SubscriptExpression, syntax.Identifier}, kinds)
}

func TestSchema(t *testing.T) {
	assert.True(t, syntax.HasField(syntax.IfClause, syntax.FieldCondition))
	assert.True(t, syntax.HasField(syntax.ListClause, syntax.FieldInto))
	assert.False(t, syntax.HasField(syntax.IfClause, syntax.FieldInto))

	info, ok := syntax.Lookup(syntax.Comment)
	require.True(t, ok)
	assert.True(t, info.Extra)
	assert.True(t, info.Named)

	assert.False(t, syntax.Kind(",").IsNamed())
	assert.True(t, syntax.MacroNamespace.IsNamed())
	assert.Contains(t, syntax.Kinds(), syntax.UndocumentedCloseTag)
}

func TestLookupBuiltin(t *testing.T) {
	tests := []struct {
		name string
		want []syntax.Category
		ok   bool
	}{
		{name: "upper_case", want: []syntax.Category{syntax.CategoryString}, ok: true},
		{name: "upperCase", want: []syntax.Category{syntax.CategoryString}, ok: true},
		{name: "size", want: []syntax.Category{syntax.CategorySequence}, ok: true},
		{name: "keys", want: []syntax.Category{syntax.CategoryHash}, ok: true},
		{name: "then", want: []syntax.Category{syntax.CategoryBoolean}, ok: true},
		{name: "c", want: []syntax.Category{syntax.CategoryBoolean, syntax.CategoryNumber}, ok: true},
		{name: "no_such_builtin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := syntax.LookupBuiltin(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, b.Categories)
			}
		})
	}
}
