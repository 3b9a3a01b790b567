// Package lexer holds the ordinary, context free token rules of FTL: text
// runs, directive keywords, identifiers, numbers, strings and punctuation.
// The parser consults it whenever the context-sensitive scanner declines.
package lexer

import (
	"regexp"
	"unicode"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/scanner"
	"github.com/walteh/goftl/pkg/token"
)

var beginKeywords = map[string]token.Kind{
	"ftl":      token.FtlBegin,
	"assign":   token.AssignBegin,
	"local":    token.LocalBegin,
	"if":       token.IfBegin,
	"elseif":   token.ElseIfBegin,
	"elseIf":   token.ElseIfBegin,
	"else":     token.ElseBegin,
	"list":     token.ListBegin,
	"sep":      token.SepBegin,
	"macro":    token.MacroBegin,
	"function": token.FunctionBegin,
	"return":   token.ReturnBegin,
	"import":   token.ImportBegin,
	"switch":   token.SwitchBegin,
	"case":     token.CaseBegin,
	"on":       token.OnBegin,
	"default":  token.DefaultBegin,
	"break":    token.BreakBegin,
}

var closeKeywords = map[string]token.Kind{
	"assign":   token.AssignClose,
	"local":    token.LocalClose,
	"if":       token.IfClose,
	"list":     token.ListClose,
	"sep":      token.SepClose,
	"macro":    token.MacroClose,
	"function": token.FunctionClose,
	"switch":   token.SwitchClose,
}

var keywords = map[string]token.Kind{
	"as":    token.KwAs,
	"in":    token.KwIn,
	"gt":    token.KwGt,
	"gte":   token.KwGte,
	"lt":    token.KwLt,
	"lte":   token.KwLte,
	"true":  token.KwTrue,
	"false": token.KwFalse,
}

// longest first
var punctuation = []struct {
	text string
	kind token.Kind
}{
	{"!==", token.StrictNotEqual},
	{"..<", token.RangeExclusive},
	{"..!", token.RangeBang},
	{"..*", token.RangeLength},
	{"??", token.DoubleQuestion},
	{"!=", token.NotEqual},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"<=", token.LessEqual},
	{">=", token.GreaterThanEqual},
	{"==", token.Equal},
	{"/>", token.SelfClose},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"++", token.Increment},
	{"--", token.Decrement},
	{"..", token.Range},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{":", token.Colon},
	{".", token.Dot},
	{"?", token.Question},
	{"!", token.Bang},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"|", token.Pipe},
	{"^", token.Caret},
	{"&", token.Amp},
	{"<", token.Less},
	{"=", token.Assign},
	{">", token.GreaterThan},
	{"(", token.OpenParen},
	{")", token.CloseParen},
}

var numberPattern = regexp.MustCompile(`^(?:0[xX][0-9a-fA-F_]+|0[bB][01_]+|0[oO][0-7_]+|[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][+-]?[0-9][0-9_]*)?)`)

func emit(cur *scanner.Cursor, kind token.Kind, start int) token.Token {
	span := position.NewSpan(start, cur.Pos())
	return token.Token{Kind: kind, Span: span, Text: span.Text(cur.Source())}
}

// AtContentBoundary reports whether cur sits on the start of a content level
// construct: a directive, a directive close, a macro call or a macro close.
// Expressions never legitimately contain these, so they are safe places to
// stop error recovery.
func AtContentBoundary(cur *scanner.Cursor) bool {
	return cur.HasPrefix("<#") || cur.HasPrefix("</#") || cur.HasPrefix("<@") || cur.HasPrefix("</@")
}

func atTextStop(cur *scanner.Cursor) bool {
	if cur.Peek() == '$' {
		return cur.PeekAt(1) == '{'
	}
	return cur.Peek() == '<' && AtContentBoundary(cur)
}

// Content lexes one token outside of directives and interpolations. Only
// "<#", "</#", "<@", "</@" and "${" are syntax; everything else is text.
// Comments are the scanner's job; an opening "<#--" that reaches this point
// was never closed and is returned as an Invalid token covering the rest of
// the input.
func Content(cur *scanner.Cursor) token.Token {
	start := cur.Pos()
	if cur.EOF() {
		return emit(cur, token.EOF, start)
	}

	switch {
	case cur.HasPrefix("${"):
		cur.Advance(2)
		return emit(cur, token.InterpolationStart, start)
	case cur.HasPrefix("<#--"):
		cur.Advance(len(cur.Source()) - start)
		return emit(cur, token.Invalid, start)
	case cur.HasPrefix("</#"):
		return closeTag(cur, start)
	case cur.HasPrefix("<#"):
		cur.Advance(2)
		name := scanName(cur)
		kind, ok := beginKeywords[name]
		if !ok {
			kind = token.UnknownBegin
		}
		return emit(cur, kind, start)
	case cur.HasPrefix("</@"):
		return macroCloseTag(cur, start)
	case cur.HasPrefix("<@"):
		cur.Advance(2)
		return emit(cur, token.MacroCallStart, start)
	}

	for !cur.EOF() {
		cur.Advance(1)
		if atTextStop(cur) {
			break
		}
	}
	return emit(cur, token.Text, start)
}

func scanName(cur *scanner.Cursor) string {
	start := cur.Pos()
	for {
		r, size := cur.PeekRune()
		if size == 0 || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			break
		}
		cur.Advance(size)
	}
	return string(cur.Source()[start:cur.Pos()])
}

// closeTag lexes "</#name" ws* ">" as one token.
func closeTag(cur *scanner.Cursor, start int) token.Token {
	cur.Advance(3)
	name := scanName(cur)
	scanner.SkipSpace(cur)
	if !cur.Match('>') {
		return emit(cur, token.Invalid, start)
	}
	kind, ok := closeKeywords[name]
	if !ok {
		kind = token.UnknownClose
	}
	return emit(cur, kind, start)
}

// macroCloseTag lexes "</@" [name(.name)*] ws* ">" as one token.
func macroCloseTag(cur *scanner.Cursor, start int) token.Token {
	cur.Advance(3)
	for {
		if scanIdentifier(cur) == 0 {
			break
		}
		if cur.Peek() != '.' {
			break
		}
		cur.Advance(1)
	}
	scanner.SkipSpace(cur)
	if !cur.Match('>') {
		return emit(cur, token.Invalid, start)
	}
	return emit(cur, token.MacroCallClose, start)
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$' || r == '@'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isIdentEscape(b byte) bool {
	switch b {
	case '-', '.', ':', '#':
		return true
	}
	return false
}

// scanIdentifier consumes an identifier and returns its length in bytes.
// A backslash escapes the reserved characters - . : and #.
func scanIdentifier(cur *scanner.Cursor) int {
	start := cur.Pos()
	for {
		if cur.Peek() == '\\' && isIdentEscape(cur.PeekAt(1)) {
			cur.Advance(2)
			continue
		}
		r, size := cur.PeekRune()
		if size == 0 {
			break
		}
		if cur.Pos() == start && !isIdentStart(r) {
			break
		}
		if !isIdentPart(r) {
			break
		}
		cur.Advance(size)
	}
	return cur.Pos() - start
}

// Expression lexes one token inside a directive header, an interpolation or
// a macro call. Leading whitespace must already be consumed. Keyword kinds
// are produced only when valid includes them; otherwise the word is an
// Identifier.
func Expression(cur *scanner.Cursor, valid token.KindSet) token.Token {
	start := cur.Pos()
	if cur.EOF() {
		return emit(cur, token.EOF, start)
	}

	b := cur.Peek()
	switch {
	case b == '<' && cur.HasPrefix("<#--"):
		// a comment the scanner could not close
		cur.Advance(len(cur.Source()) - start)
		return emit(cur, token.Invalid, start)
	case (b == 'r') && (cur.PeekAt(1) == '"' || cur.PeekAt(1) == '\''):
		cur.Advance(1)
		return scanString(cur, start, true)
	case b == '"' || b == '\'':
		return scanString(cur, start, false)
	case b >= '0' && b <= '9':
		return scanNumber(cur, start)
	}

	if scanIdentifier(cur) > 0 {
		tok := emit(cur, token.Identifier, start)
		if kw, ok := keywords[tok.Text]; ok && valid.Has(kw) {
			tok.Kind = kw
		}
		return tok
	}

	for _, p := range punctuation {
		if cur.MatchString(p.text) {
			return emit(cur, p.kind, start)
		}
	}

	_, size := cur.PeekRune()
	cur.Advance(size)
	return emit(cur, token.Invalid, start)
}

func scanNumber(cur *scanner.Cursor, start int) token.Token {
	loc := numberPattern.FindIndex(cur.Source()[start:])
	n := 1
	if loc != nil {
		n = loc[1]
	}
	// the match ended because of the byte after it
	cur.PeekAt(n)
	cur.Advance(n)
	return emit(cur, token.Number, start)
}

// scanString consumes a quoted literal. Escapes are only skipped here; their
// validity is checked by Unquote. An unterminated string is Invalid and runs
// to the end of input.
func scanString(cur *scanner.Cursor, start int, raw bool) token.Token {
	quote := cur.Peek()
	cur.Advance(1)
	for !cur.EOF() {
		c := cur.Peek()
		switch {
		case c == quote:
			cur.Advance(1)
			return emit(cur, token.String, start)
		case c == '\\' && !raw:
			cur.Advance(2)
		default:
			cur.Advance(1)
		}
	}
	return emit(cur, token.Invalid, start)
}
