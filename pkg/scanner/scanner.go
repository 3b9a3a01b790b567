// Package scanner implements the context-sensitive part of FTL lexing.
//
// A handful of characters cannot be classified without knowing what the
// parser is willing to accept next:
//
//	>   closes a directive at parenthesis depth 0, otherwise it is the
//	    greater-than operator (or >=)
//	=   is "==" when equality is expected, a deprecated single "=" equality
//	    when that is expected, otherwise the plain assignment "="
//	( ) only counted when the grammar expects them, so depth tracks real
//	    expression nesting
//
// The parser passes the set of acceptable kinds on every call. When no rule
// applies Scan reports false and the generic lexer takes over at the same
// position.
package scanner

import (
	"encoding/binary"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/token"
)

// ContextSize is the length of a serialized Context.
const ContextSize = 12

// Context is the scanner state that survives between tokens. It is a plain
// value; copying it snapshots the scanner.
type Context struct {
	ParenthesisDepth uint64
	// InComment is set only while a comment scan is in progress.
	InComment bool
}

func New() *Context {
	return &Context{}
}

func (c *Context) Reset() {
	*c = Context{}
}

// Serialize encodes the context into a fixed size buffer.
func (c *Context) Serialize() []byte {
	buf := make([]byte, ContextSize)
	binary.LittleEndian.PutUint64(buf[0:8], c.ParenthesisDepth)
	if c.InComment {
		buf[8] = 1
	}
	return buf
}

// Restore loads a buffer produced by Serialize. A buffer of any other size
// resets the context to its zero state; stale incremental state is treated
// as no history at all.
func (c *Context) Restore(buf []byte) {
	if len(buf) != ContextSize {
		c.Reset()
		return
	}
	c.ParenthesisDepth = binary.LittleEndian.Uint64(buf[0:8])
	c.InComment = buf[8] != 0
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// SkipSpace advances cur past whitespace.
func SkipSpace(cur *Cursor) {
	for !cur.EOF() && isSpace(cur.Peek()) {
		cur.Advance(1)
	}
}

// Scan tries to produce one context-sensitive token at cur, accepting only
// kinds in valid. Leading whitespace is skipped and excluded from the token.
// On failure cur is restored to where it started.
func (c *Context) Scan(cur *Cursor, valid token.KindSet) (token.Token, bool) {
	start := cur.Pos()
	SkipSpace(cur)
	if cur.EOF() {
		cur.SetPos(start)
		return token.Token{}, false
	}

	tokStart := cur.Pos()
	kind, ok := c.recognize(cur, valid)
	if !ok {
		cur.SetPos(start)
		return token.Token{}, false
	}

	span := position.NewSpan(tokStart, cur.Pos())
	return token.Token{Kind: kind, Span: span, Text: span.Text(cur.Source())}, true
}

func (c *Context) recognize(cur *Cursor, valid token.KindSet) (token.Kind, bool) {
	switch cur.Peek() {
	case '<':
		return c.scanFTLSpecial(cur)
	case '(':
		if !valid.Has(token.OpenParen) {
			return 0, false
		}
		c.ParenthesisDepth++
		cur.Advance(1)
		return token.OpenParen, true
	case ')':
		if !valid.Has(token.CloseParen) {
			return 0, false
		}
		if c.ParenthesisDepth > 0 {
			c.ParenthesisDepth--
		}
		cur.Advance(1)
		return token.CloseParen, true
	case '>':
		// inside parentheses a '>' can never close the directive
		if valid.Has(token.DirectiveCloseTag) && c.ParenthesisDepth == 0 {
			cur.Advance(1)
			return token.DirectiveCloseTag, true
		}
		if valid.Has(token.GreaterThan) {
			cur.Advance(1)
			if cur.Match('=') {
				return token.GreaterThanEqual, true
			}
			return token.GreaterThan, true
		}
	case '=':
		cur.Advance(1)
		if cur.Peek() == '=' && valid.Has(token.Equal) {
			cur.Advance(1)
			return token.Equal, true
		}
		if valid.Has(token.DeprecatedEqual) {
			return token.DeprecatedEqual, true
		}
	}
	return 0, false
}

// scanFTLSpecial handles "<#--" comments. Any other '<' is left to the
// generic lexer.
func (c *Context) scanFTLSpecial(cur *Cursor) (token.Kind, bool) {
	cur.Advance(1) // '<'
	if cur.Peek() != '#' {
		return 0, false
	}
	cur.Advance(1)
	if cur.Peek() != '-' {
		return 0, false
	}
	return c.scanComment(cur)
}

func (c *Context) scanComment(cur *Cursor) (token.Kind, bool) {
	if !cur.MatchString("--") {
		return 0, false
	}
	c.InComment = true
	defer func() { c.InComment = false }()

	dashes := 0
	for !cur.EOF() {
		b := cur.Peek()
		cur.Advance(1)
		switch {
		case b == '-':
			dashes++
		case b == '>' && dashes >= 2:
			return token.Comment, true
		default:
			dashes = 0
		}
	}
	// unterminated
	return 0, false
}
