package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/pkg/lexer"
	"github.com/walteh/goftl/pkg/scanner"
	"github.com/walteh/goftl/pkg/token"
)

type lexed struct {
	Kind token.Kind
	Text string
}

func lexAllContent(input string) []lexed {
	cur := scanner.NewCursor([]byte(input), 0)
	var out []lexed
	for {
		tok := lexer.Content(cur)
		if tok.Kind == token.EOF {
			return out
		}
		out = append(out, lexed{tok.Kind, tok.Text})
	}
}

func TestContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []lexed
	}{
		{
			name:     "plain text",
			input:    "hello world",
			expected: []lexed{{token.Text, "hello world"}},
		},
		{
			name:     "lone syntax characters are text",
			input:    "a < b $ c </ d <x",
			expected: []lexed{{token.Text, "a < b $ c </ d <x"}},
		},
		{
			name:  "interpolation start",
			input: "hi ${",
			expected: []lexed{
				{token.Text, "hi "},
				{token.InterpolationStart, "${"},
			},
		},
		{
			name:  "directive begin and close",
			input: "<#if</#if >",
			expected: []lexed{
				{token.IfBegin, "<#if"},
				{token.IfClose, "</#if >"},
			},
		},
		{
			name:     "keyword must end at a word boundary",
			input:    "<#iffy",
			expected: []lexed{{token.UnknownBegin, "<#iffy"}},
		},
		{
			name:     "camel case elseif",
			input:    "<#elseIf",
			expected: []lexed{{token.ElseIfBegin, "<#elseIf"}},
		},
		{
			name:     "unknown close",
			input:    "</#items>",
			expected: []lexed{{token.UnknownClose, "</#items>"}},
		},
		{
			name:     "close without bracket",
			input:    "</#if",
			expected: []lexed{{token.Invalid, "</#if"}},
		},
		{
			name:  "macro call and close",
			input: "<@my.macro></@my.macro>",
			expected: []lexed{
				{token.MacroCallStart, "<@"},
				{token.Text, "my.macro>"},
				{token.MacroCallClose, "</@my.macro>"},
			},
		},
		{
			name:     "anonymous macro close",
			input:    "</@>",
			expected: []lexed{{token.MacroCallClose, "</@>"}},
		},
		{
			name:     "unterminated comment runs to the end",
			input:    "<#-- open\nstill open",
			expected: []lexed{{token.Invalid, "<#-- open\nstill open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lexAllContent(tt.input))
		})
	}
}

func lexAllExpression(input string, valid token.KindSet) []lexed {
	cur := scanner.NewCursor([]byte(input), 0)
	var out []lexed
	for {
		scanner.SkipSpace(cur)
		tok := lexer.Expression(cur, valid)
		if tok.Kind == token.EOF {
			return out
		}
		out = append(out, lexed{tok.Kind, tok.Text})
	}
}

func TestExpression(t *testing.T) {
	allKeywords := token.NewKindSet(token.KwAs, token.KwIn, token.KwGt, token.KwGte, token.KwLt, token.KwLte, token.KwTrue, token.KwFalse)

	tests := []struct {
		name     string
		input    string
		valid    token.KindSet
		expected []lexed
	}{
		{
			name:  "identifiers and members",
			input: "user.name",
			expected: []lexed{
				{token.Identifier, "user"},
				{token.Dot, "."},
				{token.Identifier, "name"},
			},
		},
		{
			name:     "escaped identifier characters",
			input:    `data\-id`,
			expected: []lexed{{token.Identifier, `data\-id`}},
		},
		{
			name:  "keywords only when expected",
			input: "x gt 1",
			valid: allKeywords,
			expected: []lexed{
				{token.Identifier, "x"},
				{token.KwGt, "gt"},
				{token.Number, "1"},
			},
		},
		{
			name:  "keywords as identifiers otherwise",
			input: "x gt 1",
			expected: []lexed{
				{token.Identifier, "x"},
				{token.Identifier, "gt"},
				{token.Number, "1"},
			},
		},
		{
			name:  "numbers",
			input: "1_000 3.14 1e10 2.5E-3 0xFF 0b1010 0o17",
			expected: []lexed{
				{token.Number, "1_000"},
				{token.Number, "3.14"},
				{token.Number, "1e10"},
				{token.Number, "2.5E-3"},
				{token.Number, "0xFF"},
				{token.Number, "0b1010"},
				{token.Number, "0o17"},
			},
		},
		{
			name:  "range is not a fraction",
			input: "1..5",
			expected: []lexed{
				{token.Number, "1"},
				{token.Range, ".."},
				{token.Number, "5"},
			},
		},
		{
			name:  "strings",
			input: `"a\"b" 'c' r"\n"`,
			expected: []lexed{
				{token.String, `"a\"b"`},
				{token.String, `'c'`},
				{token.String, `r"\n"`},
			},
		},
		{
			name:     "unterminated string",
			input:    `"abc`,
			expected: []lexed{{token.Invalid, `"abc`}},
		},
		{
			name:  "longest match operators",
			input: "a??!==..<..*/>",
			expected: []lexed{
				{token.Identifier, "a"},
				{token.DoubleQuestion, "??"},
				{token.StrictNotEqual, "!=="},
				{token.RangeExclusive, "..<"},
				{token.RangeLength, "..*"},
				{token.SelfClose, "/>"},
			},
		},
		{
			name:  "builtin",
			input: "x?upper_case",
			expected: []lexed{
				{token.Identifier, "x"},
				{token.Question, "?"},
				{token.Identifier, "upper_case"},
			},
		},
		{
			name:     "stray character",
			input:    "#",
			expected: []lexed{{token.Invalid, "#"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lexAllExpression(tt.input, tt.valid))
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		want    string
		wantErr bool
	}{
		{name: "double quoted", literal: `"world"`, want: "world"},
		{name: "single quoted", literal: `'it\'s'`, want: "it's"},
		{name: "named escapes", literal: `"a\nb\tc\\d"`, want: "a\nb\tc\\d"},
		{name: "ftl escapes", literal: `"\l\g\a\{"`, want: "<>&{"},
		{name: "octal", literal: `"\101"`, want: "A"},
		{name: "hex", literal: `"\x41"`, want: "A"},
		{name: "unicode", literal: `"\u00e9"`, want: "é"},
		{name: "braced unicode", literal: `"\u{1F600}"`, want: "😀"},
		{name: "line continuation", literal: "\"a\\\nb\"", want: "ab"},
		{name: "raw", literal: `r"\n"`, want: `\n`},
		{name: "invalid escape", literal: `"\q"`, wantErr: true},
		{name: "braced out of range", literal: `"\u{110000}"`, wantErr: true},
		{name: "malformed", literal: `"abc`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lexer.Unquote(tt.literal)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnquoteEscapeErrorOffset(t *testing.T) {
	_, err := lexer.Unquote(`"ok\q"`)
	require.Error(t, err)

	var escErr *lexer.EscapeError
	require.ErrorAs(t, err, &escErr)
	assert.Equal(t, `\q`, escErr.Sequence)
	assert.Equal(t, 3, escErr.Offset)
}
