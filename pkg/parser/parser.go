// Package parser turns FTL source into a syntax.Tree.
//
// Parsing is recursive descent. At every decision point the parser hands the
// set of token kinds it can accept to the scanner, which resolves the
// characters whose meaning depends on that set ('>', '=', parentheses) and
// otherwise defers to the context free rules of package lexer. Malformed input
// never aborts the parse: unexpected tokens are collected into ERROR nodes and
// required tokens that are absent become zero width missing nodes.
package parser

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/lexer"
	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/scanner"
	"github.com/walteh/goftl/pkg/syntax"
	"github.com/walteh/goftl/pkg/token"
)

var ErrInvalidUTF8 = errors.Base("input is not valid UTF-8")

// Parse builds a syntax tree for text. Syntax errors are reported inside the
// tree; the returned error is non-nil only when text is not valid UTF-8 or
// ctx is canceled.
func Parse(ctx context.Context, text []byte) (*syntax.Tree, error) {
	if !utf8.Valid(text) {
		return nil, errors.Errorf("parsing: %w", ErrInvalidUTF8)
	}

	zerolog.Ctx(ctx).Debug().Int("bytes", len(text)).Msg("parsing template")

	p := newParser(ctx, text)
	root, checkpoints, err := p.parseFile(nil, nil)
	if err != nil {
		return nil, err
	}
	return syntax.NewTree(text, root, checkpoints), nil
}

type parser struct {
	ctx  context.Context
	src  []byte
	pos  int
	scan scanner.Context

	// furthest byte inspected while parsing the current top level item
	reach int

	frames []frame
	la     *lookahead
}

func newParser(ctx context.Context, src []byte) *parser {
	return &parser{ctx: ctx, src: src}
}

// lookahead is a token that has been lexed but not yet consumed, along with
// the whitespace and comments in front of it and the scanner state after it.
type lookahead struct {
	pos   int
	valid token.KindSet
	tok   token.Token

	trivia []*syntax.Node
	scan   scanner.Context

	// boundary is set when lexing stopped in front of a content construct
	// ("<#", "</#", "<@", "</@"). tok is then a zero width EOF.
	boundary bool
}

func (la *lookahead) is(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if la.tok.Kind == k {
			return true
		}
	}
	return false
}

// atEnd reports whether la stops every expression: end of input or the start
// of content.
func (la *lookahead) atEnd() bool {
	return la.tok.Kind == token.EOF
}

func (p *parser) touch(reach int) {
	if reach > p.reach {
		p.reach = reach
	}
}

// expression mode

// alwaysValid is merged into every expression mode request so that
// parentheses are always counted by the scanner.
var alwaysValid = token.NewKindSet(token.OpenParen, token.CloseParen)

func (p *parser) peek(valid token.KindSet) *lookahead {
	valid = valid.Union(alwaysValid)
	if p.la != nil && p.la.pos == p.pos && p.la.valid == valid {
		return p.la
	}
	p.la = p.lex(p.pos, p.scan, valid)
	return p.la
}

// peekAfter lexes the token following la without consuming anything.
func (p *parser) peekAfter(la *lookahead, valid token.KindSet) *lookahead {
	return p.lex(la.tok.Span.End, la.scan, valid.Union(alwaysValid))
}

func (p *parser) lex(pos int, sc scanner.Context, valid token.KindSet) *lookahead {
	cur := scanner.NewCursor(p.src, pos)
	la := &lookahead{pos: pos, valid: valid}
	la.trivia = p.scanTrivia(cur, &sc)

	switch {
	case lexer.AtContentBoundary(cur) && !cur.HasPrefix("<#--"):
		la.boundary = true
		la.tok = token.Token{Kind: token.EOF, Span: position.NewSpan(cur.Pos(), cur.Pos())}
	default:
		if tok, ok := sc.Scan(cur, valid); ok {
			la.tok = tok
		} else {
			la.tok = lexer.Expression(cur, valid)
		}
	}
	la.scan = sc
	p.touch(cur.Reach())
	return la
}

// scanTrivia consumes whitespace and complete comments at cur.
func (p *parser) scanTrivia(cur *scanner.Cursor, sc *scanner.Context) []*syntax.Node {
	var out []*syntax.Node
	for {
		start := cur.Pos()
		scanner.SkipSpace(cur)
		if cur.Pos() > start {
			span := position.NewSpan(start, cur.Pos())
			out = append(out, syntax.NewLeaf(syntax.Whitespace, span, span.Text(p.src)))
		}
		if !cur.HasPrefix("<#--") {
			return out
		}
		tok, ok := sc.Scan(cur, token.KindSet{})
		if !ok || tok.Kind != token.Comment {
			return out
		}
		out = append(out, syntax.NewLeaf(syntax.Comment, tok.Span, tok.Text))
	}
}

// flush moves the trivia in front of la, the current lookahead, into b.
func (p *parser) flush(b *syntax.Builder, la *lookahead) {
	if len(la.trivia) == 0 {
		return
	}
	for _, n := range la.trivia {
		b.Add("", n)
	}
	p.pos = la.trivia[len(la.trivia)-1].Span().End
	la.trivia = nil
	la.pos = p.pos
}

// take consumes la, adding its trivia and then the token itself to b as a
// leaf of the given kind.
func (p *parser) take(b *syntax.Builder, field string, kind syntax.Kind, la *lookahead) *syntax.Node {
	p.flush(b, la)
	n := syntax.NewLeaf(kind, la.tok.Span, la.tok.Text)
	b.Add(field, n)
	p.commit(la)
	return n
}

// takeLeaf consumes la and returns its token as a leaf. Trivia in front of
// it goes to outer.
func (p *parser) takeLeaf(outer *syntax.Builder, kind syntax.Kind, la *lookahead) *syntax.Node {
	p.flush(outer, la)
	n := syntax.NewLeaf(kind, la.tok.Span, la.tok.Text)
	p.commit(la)
	return n
}

func (p *parser) commit(la *lookahead) {
	p.pos = la.tok.Span.End
	p.scan = la.scan
	p.la = nil
}

// missing returns a zero width node at the current position.
func (p *parser) missing(kind syntax.Kind) *syntax.Node {
	return syntax.NewMissing(kind, p.pos)
}

// leafKind is the node kind a token gets when it shows up somewhere the
// grammar has no specific role for it, such as inside an ERROR node.
func leafKind(tok token.Token) syntax.Kind {
	switch tok.Kind {
	case token.Identifier, token.KwAs, token.KwIn, token.KwGt, token.KwGte, token.KwLt, token.KwLte:
		return syntax.Identifier
	case token.Number:
		return syntax.Number
	case token.String:
		return syntax.StringLiteral
	case token.KwTrue:
		return syntax.BooleanTrue
	case token.KwFalse:
		return syntax.BooleanFalse
	case token.Comment:
		return syntax.Comment
	case token.Text:
		return syntax.Text
	case token.DirectiveCloseTag:
		return syntax.CloseTag
	case token.DeprecatedEqual:
		return syntax.DeprecatedEqualOperator
	case token.Invalid:
		return syntax.KindError
	}
	return syntax.Kind(tok.Text)
}

// recover collects tokens into an ERROR node, added to b, until one of stops,
// the start of content or the end of input. Parentheses keep being counted
// so a '>' inside them is skipped rather than treated as a directive close.
func (p *parser) recover(b *syntax.Builder, stops token.KindSet, msg string) bool {
	valid := stops
	eb := syntax.NewBuilder(syntax.KindError, p.pos).SetMessage(msg)
	first := true
	for {
		la := p.peek(valid)
		if la.atEnd() || stops.Has(la.tok.Kind) {
			if la.atEnd() {
				p.resetDepth()
			}
			break
		}
		if first {
			p.flush(b, la)
			first = false
		}
		p.take(eb, "", leafKind(la.tok), la)
	}
	if eb.Len() == 0 {
		return false
	}
	b.Add("", eb.Build())
	zerolog.Ctx(p.ctx).Trace().Int("offset", eb.End()).Str("reason", msg).Msg("recovered from syntax error")
	return true
}

// resetDepth drops parenthesis state left behind by an unbalanced header;
// parentheses never span content.
func (p *parser) resetDepth() {
	if p.scan.ParenthesisDepth != 0 {
		p.scan.ParenthesisDepth = 0
		p.la = nil
	}
}

// content mode

func (p *parser) peekContent() token.Token {
	cur := scanner.NewCursor(p.src, p.pos)
	var tok token.Token
	if cur.HasPrefix("<#--") {
		sc := p.scan
		if t, ok := sc.Scan(cur, token.KindSet{}); ok {
			tok = t
		}
	}
	if tok.Kind != token.Comment {
		cur.SetPos(p.pos)
		tok = lexer.Content(cur)
	}
	p.touch(cur.Reach())
	return tok
}

func (p *parser) takeContent(tok token.Token) {
	p.pos = tok.Span.End
	p.la = nil
}

// parseFile parses top level items. When reuse is non-empty those items were
// carried over from a previous tree and parsing resumes after them.
func (p *parser) parseFile(reuse []*syntax.Node, reuseCheckpoints []syntax.Checkpoint) (*syntax.Node, []syntax.Checkpoint, error) {
	b := syntax.NewBuilder(syntax.SourceFile, 0)
	checkpoints := make([]syntax.Checkpoint, 0, len(reuse))
	for i, n := range reuse {
		b.Add("", n)
		checkpoints = append(checkpoints, reuseCheckpoints[i])
	}

	for {
		if err := p.ctx.Err(); err != nil {
			return nil, nil, errors.Errorf("parsing: %w", err)
		}

		p.la = nil
		p.reach = p.pos
		cp := syntax.Checkpoint{Offset: p.pos, Context: p.scan.Serialize()}

		tok := p.peekContent()
		if tok.Kind == token.EOF {
			break
		}
		b.Add("", p.parseItem(tok))

		cp.Reach = p.reach
		checkpoints = append(checkpoints, cp)
	}

	return b.Build(), checkpoints, nil
}
