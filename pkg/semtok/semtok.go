// Package semtok classifies the leaves of a syntax tree for highlighting and
// encodes them in the relative form editors consume.
package semtok

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/syntax"
)

type class struct {
	typ TokenType
	mod Modifier
}

var classes = map[syntax.Kind]class{
	syntax.Comment: {typ: TokenComment},

	syntax.FunctionName: {typ: TokenCall},
	syntax.BuiltinName:  {typ: TokenCall},
	syntax.MacroName:    {typ: TokenCall},

	syntax.FunctionBegin: {typ: TokenKeyword},
	syntax.FunctionClose: {typ: TokenKeyword},
	syntax.KeywordAs:     {typ: TokenKeyword},
	syntax.KeywordIn:     {typ: TokenKeyword},
	syntax.AssignBegin:   {typ: TokenKeyword},
	syntax.AssignClose:   {typ: TokenKeyword},
	syntax.LocalBegin:    {typ: TokenKeyword},
	syntax.LocalClose:    {typ: TokenKeyword},
	syntax.FtlBegin:      {typ: TokenKeyword},
	syntax.IfBegin:       {typ: TokenKeyword},
	syntax.ElseBegin:     {typ: TokenKeyword},
	syntax.ElseifBegin:   {typ: TokenKeyword},
	syntax.IfClose:       {typ: TokenKeyword},
	syntax.ImportBegin:   {typ: TokenKeyword},
	syntax.CloseTag:      {typ: TokenKeyword},
	syntax.ListBegin:     {typ: TokenKeyword},
	syntax.ListClose:     {typ: TokenKeyword},
	syntax.SepBegin:      {typ: TokenKeyword},
	syntax.SepClose:      {typ: TokenKeyword},
	syntax.SwitchBegin:   {typ: TokenKeyword},
	syntax.SwitchClose:   {typ: TokenKeyword},
	syntax.BreakBegin:    {typ: TokenKeyword},
	syntax.OnBegin:       {typ: TokenKeyword},
	syntax.CaseBegin:     {typ: TokenKeyword},
	syntax.DefaultBegin:  {typ: TokenKeyword},
	syntax.ReturnBegin:   {typ: TokenKeyword},

	syntax.UndocumentedCloseTag: {typ: TokenKeyword, mod: ModifierDeprecated},

	syntax.MacroBegin:           {typ: TokenMacro},
	syntax.MacroClose:           {typ: TokenMacro},
	syntax.MacroCloseTag:        {typ: TokenMacro},
	syntax.MacroCallBegin:       {typ: TokenMacro},
	syntax.MacroCallEnd:         {typ: TokenMacro},
	syntax.InterpolationPrepend: {typ: TokenMacro},

	syntax.ImportAlias:    {typ: TokenNamespace},
	syntax.MacroNamespace: {typ: TokenNamespace},

	syntax.Number: {typ: TokenNumber},

	syntax.EqualOperator:            {typ: TokenOperator},
	syntax.AssignOperator:           {typ: TokenOperator},
	syntax.BinaryOperator:           {typ: TokenOperator},
	syntax.DefaultOperator:          {typ: TokenOperator},
	syntax.NegationOperator:         {typ: TokenOperator},
	syntax.GreaterThanOperator:      {typ: TokenOperator},
	syntax.GreaterThanEqualOperator: {typ: TokenOperator},
	syntax.RangeOperator:            {typ: TokenOperator},
	syntax.DeprecatedEqualOperator:  {typ: TokenOperator, mod: ModifierDeprecated},

	syntax.ParameterName: {typ: TokenParameter},
	syntax.Identifier:    {typ: TokenVariable},

	syntax.StringLiteral:          {typ: TokenString},
	syntax.ImportPath:             {typ: TokenString},
	syntax.AmbiguousStringLiteral: {typ: TokenString},

	syntax.BooleanTrue:  {typ: TokenBoolean, mod: ModifierReadonly},
	syntax.BooleanFalse: {typ: TokenBoolean, mod: ModifierReadonly},
}

// Classify reports the highlighting class of leaves of kind k.
func Classify(k syntax.Kind) (TokenType, Modifier, bool) {
	c, ok := classes[k]
	return c.typ, c.mod, ok
}

// Tokens returns the highlighted tokens of tree in document order. Missing
// leaves are skipped, and a token crossing line breaks is split into one
// token per line.
func Tokens(ctx context.Context, tree *syntax.Tree) []Token {
	loc := tree.Locator()

	var out []Token
	for _, leaf := range tree.Leaves() {
		if leaf.IsMissing() || leaf.Span().IsEmpty() {
			continue
		}
		c, ok := classes[leaf.Kind()]
		if !ok {
			continue
		}
		out = appendLines(out, loc, leaf.Span(), c)
	}

	zerolog.Ctx(ctx).Debug().Int("tokens", len(out)).Msg("classified leaves")

	return out
}

func appendLines(out []Token, loc *position.Locator, span position.Span, c class) []Token {
	first, last := loc.Place(span.Start).Line, loc.Place(span.End).Line
	for line := first; line <= last; line++ {
		seg := position.NewSpan(max(span.Start, loc.LineStart(line)), min(span.End, loc.LineEnd(line)))
		if seg.IsEmpty() {
			continue
		}
		out = append(out, Token{Type: c.typ, Modifier: c.mod, Span: seg, Range: loc.Range(seg)})
	}
	return out
}

// Encode packs tokens as five integers each: line delta, start delta (from
// the previous token's start when on the same line), length, type and
// modifier bits. Positions are counted in grapheme columns.
func Encode(tokens []Token) []uint32 {
	out := make([]uint32, 0, len(tokens)*5)
	var prev position.Place
	for _, tok := range tokens {
		start := tok.Range.Start
		deltaStart := start.Character
		if start.Line == prev.Line {
			deltaStart -= prev.Character
		}
		out = append(out,
			uint32(start.Line-prev.Line),
			uint32(deltaStart),
			uint32(tok.Range.End.Character-start.Character),
			uint32(tok.Type),
			uint32(tok.Modifier),
		)
		prev = start
	}
	return out
}
