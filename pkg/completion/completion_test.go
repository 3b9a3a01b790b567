package completion_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/pkg/completion"
	"github.com/walteh/goftl/pkg/parser"
)

func labels(items []completion.Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestAt(t *testing.T) {
	tests := []struct {
		name string
		// | marks the position
		src  string
		want []string
	}{
		{
			name: "directive prefix",
			src:  "<#li|",
			want: []string{"list"},
		},
		{
			name: "closing directive",
			src:  "<#if x>y</#|",
			want: []string{"assign", "function", "if", "list", "local", "macro", "sep", "switch"},
		},
		{
			name: "builtin prefix",
			src:  "${name?upper_|}",
			want: []string{"upper_abc", "upper_case"},
		},
		{
			name: "macros and namespaces",
			src:  "<#import \"/lib.ftl\" as lib>\n<#macro card></#macro>\n<#macro cta></#macro>\n<@c|",
			want: []string{"card", "cta"},
		},
		{
			name: "no trigger",
			src:  "hello wor|",
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := strings.Index(tt.src, "|")
			src := strings.Replace(tt.src, "|", "", 1)

			tree, err := parser.Parse(ctx, []byte(src))
			require.NoError(t, err)

			assert.Equal(t, tt.want, labels(completion.At(ctx, tree, offset)))
		})
	}
}

func TestAtDetails(t *testing.T) {
	ctx := context.Background()
	src := "<#import \"/lib.ftl\" as lib>\n<#macro box></#macro>\n<@"
	tree, err := parser.Parse(ctx, []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []completion.Item{
		{Label: "box", Kind: completion.KindMacro},
		{Label: "lib", Kind: completion.KindNamespace, Detail: `"/lib.ftl"`},
	}, completion.At(ctx, tree, len(src)))

	tree, err = parser.Parse(ctx, []byte("${x?is_nan"))
	require.NoError(t, err)
	assert.Equal(t, []completion.Item{
		{Label: "is_nan", Kind: completion.KindBuiltin, Detail: "number"},
	}, completion.At(ctx, tree, 10))
}
