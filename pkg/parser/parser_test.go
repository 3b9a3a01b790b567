package parser_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/pkg/diff"
	"github.com/walteh/goftl/pkg/parser"
	"github.com/walteh/goftl/pkg/syntax"
)

func parse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := parser.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return tree
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		hasError bool
	}{
		{
			name:  "ftl parameter",
			input: `<#ftl hello="world">`,
			want:  `(source_file (ftl_stmt (ftl_begin) parameter: (ftl_parameter name: (parameter_name) value: (string_literal)) (close_tag)))`,
		},
		{
			name:  "if with keyword comparison",
			input: `<#if x gt 1>yes</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (binary_expression left: (identifier) operator: (binary_operator) right: (number)) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:  "inline assign",
			input: `<#assign x=1>`,
			want:  `(source_file (assign_stmt (assign_inline (assign_begin) assignment: (assign_expression left: (identifier) operator: (assign_operator) right: (number)) (close_tag))))`,
		},
		{
			name:  "subscript in interpolation",
			input: `${a[b]}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (subscript_expression object: (identifier) index: (identifier))))`,
		},
		{
			name:     "unclosed if",
			input:    `<#if x>`,
			want:     `(source_file (if_stmt (if_clause (if_begin) condition: (identifier) (close_tag)) (ERROR (MISSING if_close))))`,
			hasError: true,
		},
		{
			name:  "comment then text",
			input: `<#-- comment -->text`,
			want:  `(source_file (comment) (text))`,
		},
		{
			name:  "if elseif else",
			input: `<#if a>1<#elseif b>2<#else>3</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (identifier) (close_tag) body: (text)) (elseif_clause (elseif_begin) condition: (identifier) (close_tag) body: (text)) (else_clause (else_begin) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:  "list with else",
			input: `<#list xs as x>${x}<#else>none</#list>`,
			want:  `(source_file (list_stmt (list_clause (list_begin) from: (identifier) (keyword_as) into: (identifier) (close_tag) body: (interpolation (interpolation_prepend) expression: (identifier))) (else_clause (else_begin) (close_tag) body: (text)) (list_close)))`,
		},
		{
			name:  "list over hash with sep",
			input: `<#list m as k, v>${k}<#sep>, </#sep></#list>`,
			want:  `(source_file (list_stmt (list_clause (list_begin) from: (identifier) (keyword_as) into: (iterator_pair key: (identifier) value: (identifier)) (close_tag) body: (interpolation (interpolation_prepend) expression: (identifier)) body: (sep_clause (sep_begin) (close_tag) body: (text) (sep_close))) (list_close)))`,
		},
		{
			name:  "sep without close",
			input: `<#list xs as x>${x}<#sep>,</#list>`,
			want:  `(source_file (list_stmt (list_clause (list_begin) from: (identifier) (keyword_as) into: (identifier) (close_tag) body: (interpolation (interpolation_prepend) expression: (identifier)) body: (sep_clause (sep_begin) (close_tag) body: (text))) (list_close)))`,
		},
		{
			name:  "block assign",
			input: `<#assign out>hi</#assign>`,
			want:  `(source_file (assign_stmt (assign_clause (assign_begin) name: (identifier) (close_tag) body: (text)) (assign_close)))`,
		},
		{
			name:  "local into namespace",
			input: `<#local x = 1 in ns>`,
			want:  `(source_file (local_stmt (local_inline (local_begin) assignment: (assign_expression left: (identifier) operator: (assign_operator) right: (number)) (keyword_in) namespace: (identifier) (close_tag))))`,
		},
		{
			name:  "increment",
			input: `<#assign i++>`,
			want:  `(source_file (assign_stmt (assign_inline (assign_begin) assignment: (assign_expression left: (identifier) operator: (assign_operator)) (close_tag))))`,
		},
		{
			name:  "quoted assign target",
			input: `<#assign "x" = 1>`,
			want:  `(source_file (assign_stmt (assign_inline (assign_begin) assignment: (assign_expression left: (ambiguous_string_literal) operator: (assign_operator) right: (number)) (close_tag))))`,
		},
		{
			name:  "macro definition",
			input: `<#macro greet name greeting="hi">${greeting}</#macro>`,
			want:  `(source_file (macro_stmt (macro_clause (macro_begin) name: (macro_name) parameter: (parameter name: (parameter_name)) parameter: (parameter name: (parameter_name) default: (string_literal)) (close_tag) body: (interpolation (interpolation_prepend) expression: (identifier))) (macro_close)))`,
		},
		{
			name:  "function with return",
			input: `<#function twice n><#return n * 2></#function>`,
			want:  `(source_file (function_stmt (function_clause (function_begin) name: (function_name) parameter: (parameter name: (parameter_name)) (close_tag) body: (return_stmt (return_begin) value: (binary_expression left: (identifier) operator: (binary_operator) right: (number)) (close_tag))) (function_close)))`,
		},
		{
			name:  "import",
			input: `<#import "lib.ftl" as lib>`,
			want:  `(source_file (import_stmt (import_begin) import_path: (import_path) (keyword_as) import_alias: (import_alias) (close_tag)))`,
		},
		{
			name:  "switch",
			input: `<#switch x><#case 1>a<#break><#default>b</#switch>`,
			want:  `(source_file (switch_stmt (switch_clause (switch_begin) value: (identifier) (close_tag) body: (case_clause (case_begin) value: (number) (close_tag) body: (text) body: (break_stmt (break_begin) (close_tag))) body: (default_clause (default_begin) (close_tag) body: (text))) (switch_close)))`,
		},
		{
			name:  "switch on",
			input: `<#switch x><#on 1, 2>a</#switch>`,
			want:  `(source_file (switch_stmt (switch_clause (switch_begin) value: (identifier) (close_tag) body: (on_clause (on_begin) value: (number) value: (number) (close_tag) body: (text))) (switch_close)))`,
		},
		{
			name:  "self closing macro call",
			input: `<@my.lib.m x=1 y="a"/>`,
			want:  `(source_file (macro_expansion (macro_call_begin) namespace: (macro_namespace) member: (identifier) member: (identifier) argument: (named_argument name: (parameter_name) value: (number)) argument: (named_argument name: (parameter_name) value: (string_literal)) (macro_call_end)))`,
		},
		{
			name:  "macro call with body",
			input: `<@box>inside</@box>`,
			want:  `(source_file (macro_expansion (macro_call_begin) namespace: (macro_namespace) (close_tag) body: (text) (macro_close_tag)))`,
		},
		{
			name:  "positional macro arguments",
			input: `<@m a b/>`,
			want:  `(source_file (macro_expansion (macro_call_begin) namespace: (macro_namespace) argument: (identifier) argument: (identifier) (macro_call_end)))`,
		},
		{
			name:  "subscript wins over a new macro argument",
			input: `<@m a [b]/>`,
			want:  `(source_file (macro_expansion (macro_call_begin) namespace: (macro_namespace) argument: (subscript_expression object: (identifier) index: (identifier)) (macro_call_end)))`,
		},
		{
			name:  "subscript wins over an array literal",
			input: `${a [b]}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (subscript_expression object: (identifier) index: (identifier))))`,
		},
		{
			name:  "precedence",
			input: `${a + b * c}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (binary_expression left: (identifier) operator: (binary_operator) right: (binary_expression left: (identifier) operator: (binary_operator) right: (identifier)))))`,
		},
		{
			name:  "logical precedence",
			input: `${a || b && c}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (binary_expression left: (identifier) operator: (binary_operator) right: (binary_expression left: (identifier) operator: (binary_operator) right: (identifier)))))`,
		},
		{
			name:  "default value",
			input: `${x!"d"}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (default_expression operand: (identifier) operator: (default_operator) default: (string_literal))))`,
		},
		{
			name:  "existence test",
			input: `${x??}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (default_expression operand: (identifier) operator: (default_operator))))`,
		},
		{
			name:  "builtin on member",
			input: `${user.name?upper_case}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (builtin_expression object: (member_expression object: (identifier) property: (identifier)) builtin: (builtin_name))))`,
		},
		{
			name:  "builtin with arguments",
			input: `${s?truncate(5)}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (builtin_expression object: (identifier) builtin: (builtin_name) arguments: (argument_list argument: (number)))))`,
		},
		{
			name:  "call",
			input: `${f(1, 2)}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (call_expression function: (identifier) arguments: (argument_list argument: (number) argument: (number)))))`,
		},
		{
			name:  "negation",
			input: `${-x}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (unary_expression operator: (negation_operator) operand: (identifier))))`,
		},
		{
			name:  "open range",
			input: `${1..}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (range_expression left: (number) operator: (range_operator))))`,
		},
		{
			name:  "list over range",
			input: `<#list 1..3 as i>${i}</#list>`,
			want:  `(source_file (list_stmt (list_clause (list_begin) from: (range_expression left: (number) operator: (range_operator) right: (number)) (keyword_as) into: (identifier) (close_tag) body: (interpolation (interpolation_prepend) expression: (identifier))) (list_close)))`,
		},
		{
			name:  "hash and sequence literals",
			input: `${{"a": [1, true]}}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (object pair: (pair key: (string_literal) value: (array element: (number) element: (boolean_true))))))`,
		},
		{
			name:  "greater than inside parentheses",
			input: `<#if (a > b)>t</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (parenthesized_expression expression: (binary_expression left: (identifier) operator: (greater_than_operator) right: (identifier))) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:  "greater than in interpolation",
			input: `${a >= b}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (binary_expression left: (identifier) operator: (greater_than_equal_operator) right: (identifier))))`,
		},
		{
			name:  "equality",
			input: `<#if a == b>t</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (binary_expression left: (identifier) operator: (equal_operator) right: (identifier)) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:  "deprecated single equals",
			input: `<#if a = b>t</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (binary_expression left: (identifier) operator: (deprecated_equal_operator) right: (identifier)) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:  "undocumented self close",
			input: `<#assign x = 1/>`,
			want:  `(source_file (assign_stmt (assign_inline (assign_begin) assignment: (assign_expression left: (identifier) operator: (assign_operator) right: (number)) (undocumented_close_tag))))`,
		},
		{
			name:     "self close not allowed on if",
			input:    `<#if x/>`,
			want:     `(source_file (if_stmt (if_clause (if_begin) condition: (identifier) (ERROR (undocumented_close_tag))) (ERROR (MISSING if_close))))`,
			hasError: true,
		},
		{
			name:     "junk in header",
			input:    `<#if x y z>t</#if>`,
			want:     `(source_file (if_stmt (if_clause (if_begin) condition: (identifier) (ERROR (identifier) (identifier)) (close_tag) body: (text)) (if_close)))`,
			hasError: true,
		},
		{
			name:     "inner block closed by outer",
			input:    `<#list xs as x><#if x></#list>`,
			want:     `(source_file (list_stmt (list_clause (list_begin) from: (identifier) (keyword_as) into: (identifier) (close_tag) body: (if_stmt (if_clause (if_begin) condition: (identifier) (close_tag)) (MISSING if_close))) (list_close)))`,
			hasError: true,
		},
		{
			name:     "stray close",
			input:    `a</#if>b`,
			want:     `(source_file (text) (ERROR) (text))`,
			hasError: true,
		},
		{
			name:     "stray else",
			input:    `<#else>x`,
			want:     `(source_file (ERROR (else_begin) (close_tag)) (text))`,
			hasError: true,
		},
		{
			name:     "unknown directive",
			input:    `<#foo bar>`,
			want:     `(source_file (ERROR (ERROR) (identifier) (close_tag)))`,
			hasError: true,
		},
		{
			name:     "unterminated comment",
			input:    `x<#-- oops`,
			want:     `(source_file (text) (ERROR))`,
			hasError: true,
		},
		{
			name:     "missing interpolation operand",
			input:    `${}`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (MISSING identifier)))`,
			hasError: true,
		},
		{
			name:     "unclosed interpolation",
			input:    `${a<#if b></#if>`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (identifier) (MISSING })) (if_stmt (if_clause (if_begin) condition: (identifier) (close_tag)) (if_close)))`,
			hasError: true,
		},
		{
			name:  "in with member operand",
			input: `<#if a.b in y>x</#if>`,
			want:  `(source_file (if_stmt (if_clause (if_begin) condition: (binary_expression left: (member_expression object: (identifier) property: (identifier)) operator: (keyword_in) right: (identifier)) (close_tag) body: (text)) (if_close)))`,
		},
		{
			name:     "in needs a variable operand",
			input:    `<#if 1 in y>x</#if>`,
			want:     `(source_file (if_stmt (if_clause (if_begin) condition: (number) (ERROR (identifier) (identifier)) (close_tag) body: (text)) (if_close)))`,
			hasError: true,
		},
		{
			name:  "array trailing comma",
			input: `${[1,]}`,
			want:  `(source_file (interpolation (interpolation_prepend) expression: (array element: (number))))`,
		},
		{
			name:     "array missing comma",
			input:    `${[1 2]}`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (array element: (number) (MISSING ,) element: (number))))`,
			hasError: true,
		},
		{
			name:     "array of commas",
			input:    `${[,,,]}`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (array (ERROR) (ERROR) (ERROR))))`,
			hasError: true,
		},
		{
			name:     "arguments missing comma",
			input:    `${f(a b)}`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (call_expression function: (identifier) arguments: (argument_list argument: (identifier) (MISSING ,) argument: (identifier)))))`,
			hasError: true,
		},
		{
			name:     "argument list of a comma",
			input:    `${f(,)}`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (call_expression function: (identifier) arguments: (argument_list (ERROR)))))`,
			hasError: true,
		},
		{
			name:     "object missing comma",
			input:    `${ {"a":1 "b":2} }`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (object pair: (pair key: (string_literal) value: (number)) (MISSING ,) pair: (pair key: (string_literal) value: (number)))))`,
			hasError: true,
		},
		{
			name:     "object of a comma",
			input:    `${ {,} }`,
			want:     `(source_file (interpolation (interpolation_prepend) expression: (object (ERROR))))`,
			hasError: true,
		},
		{
			name:     "macro parameters with doubled comma",
			input:    `<#macro m a,,b></#macro>`,
			want:     `(source_file (macro_stmt (macro_clause (macro_begin) name: (macro_name) parameter: (parameter name: (parameter_name)) (ERROR) parameter: (parameter name: (parameter_name)) (close_tag)) (macro_close)))`,
			hasError: true,
		},
		{
			name:  "macro parameters with commas",
			input: `<#macro m a, b></#macro>`,
			want:  `(source_file (macro_stmt (macro_clause (macro_begin) name: (macro_name) parameter: (parameter name: (parameter_name)) parameter: (parameter name: (parameter_name)) (close_tag)) (macro_close)))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.input)
			assert.Equal(t, tt.want, tree.Root().SExpr())
			assert.Equal(t, tt.hasError, tree.HasError())
		})
	}
}

var corpus = []string{
	``,
	`plain text only`,
	`<#ftl encoding="UTF-8" strip_whitespace=true>`,
	`Hello ${user.name!"guest"}!`,
	`<#if a>1<#elseif b>2<#else>3</#if>`,
	`<#list items as item>${item?index}: ${item}<#sep>, </#sep><#else>empty</#list>`,
	`<#macro card title body="">  <h1>${title}</h1>${body}</#macro><@card title="x"/>`,
	`<#function f a b=2><#return a + b></#function>${f(1)}`,
	`<#switch x><#case 1>one<#break><#on 2, 3>few<#default>many</#switch>`,
	`<#assign seq = [1, 2, 3] hash = {"a": 1, "b": [true, false]}>`,
	`<#-- a comment --><#if (a > b && c >= d) || !e>t</#if>`,
	`<#import "/lib/util.ftl" as u><@u.box a b>in</@u.box>`,
	`<#if x`,
	`<#if x y z>t`,
	`${a + }`,
	`</#list>${`,
	`<#list xs as>`,
	`<@m x=/>`,
	`<#assign>`,
	`x<#-- never closed`,
	`<#if "bad \q escape">x</#if>`,
	`<#if (a>x</#if>after`,
	`${'unterminated`,
	`<#if a></#list></#if>`,
	"<#if a>\n\t<#list xs as x>\n\t\t${x}\n\t</#list>\n</#if>\n",
}

func TestLeavesCoverEveryByte(t *testing.T) {
	for _, src := range corpus {
		t.Run(src, func(t *testing.T) {
			tree := parse(t, src)

			var sb strings.Builder
			end := 0
			for _, leaf := range tree.Leaves() {
				require.Equal(t, end, leaf.Span().Start, "leaf %s starts at %d", leaf.Kind(), leaf.Span().Start)
				end = leaf.Span().End
				sb.WriteString(tree.Text(leaf))
			}
			assert.Equal(t, src, sb.String())
			assert.Equal(t, len(src), tree.Root().Span().End)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	for _, src := range corpus {
		t.Run(src, func(t *testing.T) {
			a := parse(t, src)
			b := parse(t, src)
			require.Empty(t, diff.Trees(a, b))
		})
	}
}

func TestFieldsAreDeclared(t *testing.T) {
	for _, src := range corpus {
		t.Run(src, func(t *testing.T) {
			tree := parse(t, src)
			syntax.Walk(tree.Root(), func(n *syntax.Node) bool {
				for i := 0; i < n.ChildCount(); i++ {
					field := n.FieldNameForChild(i)
					if field == "" {
						continue
					}
					assert.True(t, syntax.HasField(n.Kind(), field), "%s has no field %q", n.Kind(), field)
				}
				return true
			})
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "end of input",
			input: `<#if x>`,
			want:  []string{"unexpected end of input, expected </#if>"},
		},
		{
			name:  "unterminated comment",
			input: `<#-- x`,
			want:  []string{"unterminated comment"},
		},
		{
			name:  "stray close",
			input: `</#list>`,
			want:  []string{"unexpected </#list>"},
		},
		{
			name:  "sep outside list",
			input: `<#sep>`,
			want:  []string{"<#sep> must be inside <#list>"},
		},
		{
			name:  "branch after else",
			input: `<#if a>1<#else>2<#elseif b>3</#if>`,
			want:  []string{"no branch may follow <#else>"},
		},
		{
			name:  "ftl value",
			input: `<#ftl x=a>`,
			want:  []string{"ftl parameter values must be literals"},
		},
		{
			name:  "bad escape",
			input: `${"\q"}`,
			want:  []string{`invalid escape sequence`},
		},
		{
			name:  "leading comma",
			input: `${[,1]}`,
			want:  []string{`unexpected ",", expected an expression`},
		},
		{
			name:  "doubled parameter comma",
			input: `<#macro m a,,b></#macro>`,
			want:  []string{`unexpected ",", expected a parameter name`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.input)
			var got []string
			syntax.Walk(tree.Root(), func(n *syntax.Node) bool {
				if n.IsError() && n.Message() != "" {
					got = append(got, n.Message())
				}
				return true
			})
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Contains(t, got[i], tt.want[i])
			}
		})
	}
}

func TestParenthesesDoNotLeakIntoContent(t *testing.T) {
	tree := parse(t, `<#if (a>x</#if>after`)
	require.True(t, tree.HasError())

	root := tree.Root()
	require.Equal(t, 2, root.ChildCount())

	stmt := root.Child(0)
	require.Equal(t, syntax.IfStmt, stmt.Kind())
	closeTag := stmt.ChildByKind(syntax.IfClose)
	require.NotNil(t, closeTag)
	assert.False(t, closeTag.IsMissing())

	last := root.Child(1)
	assert.Equal(t, syntax.Text, last.Kind())
	assert.Equal(t, "after", last.Text())
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := parser.Parse(context.Background(), []byte{'a', 0xff, 'b'})
	require.ErrorIs(t, err, parser.ErrInvalidUTF8)
}

func TestParseHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parser.Parse(ctx, []byte(`text`))
	require.ErrorIs(t, err, context.Canceled)
}
