package parser

import (
	"fmt"

	"github.com/walteh/goftl/pkg/lexer"
	"github.com/walteh/goftl/pkg/syntax"
	"github.com/walteh/goftl/pkg/token"
)

// exprMode carries the restrictions of the surrounding construct into an
// expression.
type exprMode struct {
	// inTag is set inside a directive or macro call header, where a '>' at
	// parenthesis depth 0 closes the tag.
	inTag bool
	// noIn keeps "in" from being an operator; the assign and local headers
	// use it to introduce a namespace.
	noIn bool
	// noDeprecatedEqual makes a single '=' end the expression, where it
	// would otherwise be read as the legacy equality operator.
	noDeprecatedEqual bool
}

// nested returns the mode for a bracketed sub expression, where the
// restrictions of the header no longer apply.
func (m exprMode) nested() exprMode {
	return exprMode{inTag: m.inTag}
}

type binaryOp struct {
	prec int
	kind syntax.Kind
}

const (
	precOr = iota + 1
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precRange
	precAdditive
	precMultiplicative
)

var binaryOps = map[token.Kind]binaryOp{
	token.OrOr:             {precOr, syntax.BinaryOperator},
	token.AndAnd:           {precAnd, syntax.BinaryOperator},
	token.Pipe:             {precBitOr, syntax.BinaryOperator},
	token.Caret:            {precBitXor, syntax.BinaryOperator},
	token.Amp:              {precBitAnd, syntax.BinaryOperator},
	token.Equal:            {precEquality, syntax.EqualOperator},
	token.DeprecatedEqual:  {precEquality, syntax.DeprecatedEqualOperator},
	token.NotEqual:         {precEquality, syntax.BinaryOperator},
	token.StrictNotEqual:   {precEquality, syntax.BinaryOperator},
	token.KwGt:             {precRelational, syntax.BinaryOperator},
	token.KwGte:            {precRelational, syntax.BinaryOperator},
	token.KwLt:             {precRelational, syntax.BinaryOperator},
	token.KwLte:            {precRelational, syntax.BinaryOperator},
	token.GreaterThan:      {precRelational, syntax.GreaterThanOperator},
	token.GreaterThanEqual: {precRelational, syntax.GreaterThanEqualOperator},
	token.Less:             {precRelational, syntax.BinaryOperator},
	token.LessEqual:        {precRelational, syntax.BinaryOperator},
	token.KwIn:             {precRelational, syntax.KeywordIn},
	token.Range:            {precRange, syntax.RangeOperator},
	token.RangeExclusive:   {precRange, syntax.RangeOperator},
	token.RangeBang:        {precRange, syntax.RangeOperator},
	token.RangeLength:      {precRange, syntax.RangeOperator},
	token.Plus:             {precAdditive, syntax.BinaryOperator},
	token.Minus:            {precAdditive, syntax.BinaryOperator},
	token.Star:             {precMultiplicative, syntax.BinaryOperator},
	token.Slash:            {precMultiplicative, syntax.BinaryOperator},
	token.Percent:          {precMultiplicative, syntax.BinaryOperator},
}

func (m exprMode) operators() token.KindSet {
	var s token.KindSet
	for k := range binaryOps {
		s = s.With(k)
	}
	if m.inTag {
		s = s.With(token.DirectiveCloseTag)
	}
	if m.noIn {
		s = s.Without(token.KwIn)
	}
	if m.noDeprecatedEqual {
		s = s.Without(token.DeprecatedEqual)
	}
	return s
}

// closers are tokens that end an operand list; meeting one where an operand
// is required yields a missing node instead of an error.
var closers = token.NewKindSet(
	token.EOF, token.DirectiveCloseTag, token.SelfClose, token.RBrace, token.RBracket,
	token.CloseParen, token.Comma, token.Colon,
)

var literalKeywords = token.NewKindSet(token.KwTrue, token.KwFalse)

// operand is the request used where an operand may start. Inside a tag the
// close must still be recognized so that a missing operand does not swallow
// it.
func (m exprMode) operand() token.KindSet {
	if m.inTag {
		return literalKeywords.With(token.DirectiveCloseTag)
	}
	return literalKeywords
}

func startsOperand(la *lookahead) bool {
	switch la.tok.Kind {
	case token.Identifier, token.Number, token.String, token.KwTrue, token.KwFalse,
		token.OpenParen, token.LBracket, token.LBrace, token.Bang, token.Minus, token.Plus,
		token.Invalid:
		return true
	}
	return false
}

// parseExpression parses a full expression. Trivia in front of it is added
// to outer.
func (p *parser) parseExpression(outer *syntax.Builder, m exprMode) *syntax.Node {
	return p.parseBinary(outer, precOr, m)
}

// canContinueIn reports whether left may be the left operand of "in".
func canContinueIn(left *syntax.Node) bool {
	switch left.Kind() {
	case syntax.Identifier, syntax.MemberExpression, syntax.SubscriptExpression:
		return !left.IsMissing()
	}
	return false
}

func (p *parser) parseBinary(outer *syntax.Builder, minPrec int, m exprMode) *syntax.Node {
	left := p.parseDefault(outer, m)
	for {
		la := p.peek(m.operators())
		op, ok := binaryOps[la.tok.Kind]
		if !ok || op.prec < minPrec {
			return left
		}
		if la.is(token.KwIn) && !canContinueIn(left) {
			return left
		}

		kind := syntax.BinaryExpression
		if op.prec == precRange {
			kind = syntax.RangeExpression
		}
		b := syntax.NewBuilder(kind, left.Span().Start).Add(syntax.FieldLeft, left)
		p.take(b, syntax.FieldOperator, op.kind, la)

		if op.prec == precRange {
			// the upper bound of a range may be left open: 1..
			next := p.peek(m.operators().With(token.KwAs).Union(m.operand()))
			if !startsOperand(next) {
				left = b.Build()
				continue
			}
		}
		b.Add(syntax.FieldRight, p.parseBinary(b, op.prec+1, m))
		left = b.Build()
	}
}

// parseDefault handles the postfix default operators: a??, a! and a!b.
func (p *parser) parseDefault(outer *syntax.Builder, m exprMode) *syntax.Node {
	operand := p.parseUnary(outer, m)
	for {
		la := p.peek(m.operators())
		if !la.is(token.DoubleQuestion, token.Bang) {
			return operand
		}
		b := syntax.NewBuilder(syntax.DefaultExpression, operand.Span().Start).Add(syntax.FieldOperand, operand)
		p.take(b, syntax.FieldOperator, syntax.DefaultOperator, la)
		if la.is(token.Bang) {
			next := p.peek(m.operators().Union(m.operand()))
			if startsOperand(next) && !next.is(token.Bang, token.Minus, token.Plus) {
				b.Add(syntax.FieldDefault, p.parsePostfix(b, m))
			}
		}
		operand = b.Build()
	}
}

func (p *parser) parseUnary(outer *syntax.Builder, m exprMode) *syntax.Node {
	la := p.peek(m.operand())
	if !la.is(token.Bang, token.Minus, token.Plus) {
		return p.parsePostfix(outer, m)
	}
	p.flush(outer, la)
	b := syntax.NewBuilder(syntax.UnaryExpression, p.pos)
	p.take(b, syntax.FieldOperator, syntax.NegationOperator, la)
	b.Add(syntax.FieldOperand, p.parseUnary(b, m))
	return b.Build()
}

// parsePostfix parses a primary followed by any number of member accesses,
// subscripts, calls and builtins. Continuations are taken greedily across
// whitespace, so "a [b]" is always a subscript of a, never a followed by an
// array literal.
func (p *parser) parsePostfix(outer *syntax.Builder, m exprMode) *syntax.Node {
	x := p.parsePrimary(outer, m)
	if x.IsMissing() {
		return x
	}
	for {
		la := p.peek(m.operators())
		switch {
		case la.is(token.Dot):
			b := syntax.NewBuilder(syntax.MemberExpression, x.Span().Start).Add(syntax.FieldObject, x)
			p.take(b, "", ".", la)
			prop := p.peek(token.KindSet{})
			if prop.is(token.Identifier, token.Star) {
				p.take(b, syntax.FieldProperty, syntax.Identifier, prop)
			} else {
				b.Add(syntax.FieldProperty, p.missing(syntax.Identifier))
			}
			x = b.Build()

		case la.is(token.LBracket):
			b := syntax.NewBuilder(syntax.SubscriptExpression, x.Span().Start).Add(syntax.FieldObject, x)
			p.take(b, "", "[", la)
			b.Add(syntax.FieldIndex, p.parseExpression(b, m.nested()))
			p.expect(b, "]", token.RBracket)
			x = b.Build()

		case la.is(token.OpenParen):
			b := syntax.NewBuilder(syntax.CallExpression, x.Span().Start).Add(syntax.FieldFunction, x)
			b.Add(syntax.FieldArguments, p.parseArgumentList(b, m))
			x = b.Build()

		case la.is(token.Question):
			b := syntax.NewBuilder(syntax.BuiltinExpression, x.Span().Start).Add(syntax.FieldObject, x)
			p.take(b, "", "?", la)
			name := p.peek(literalKeywords)
			if name.is(token.Identifier) && len(name.trivia) == 0 {
				p.take(b, syntax.FieldBuiltin, syntax.BuiltinName, name)
			} else {
				b.Add(syntax.FieldBuiltin, p.missing(syntax.BuiltinName))
			}
			if args := p.peek(m.operators()); args.is(token.OpenParen) && len(args.trivia) == 0 {
				b.Add(syntax.FieldArguments, p.parseArgumentList(b, m))
			}
			x = b.Build()

		default:
			return x
		}
	}
}

// expect consumes a token of kind tk as an anonymous leaf, or adds a missing
// one.
func (p *parser) expect(b *syntax.Builder, kind syntax.Kind, tk token.Kind) bool {
	la := p.peek(token.NewKindSet(tk))
	if la.is(tk) {
		p.take(b, "", kind, la)
		return true
	}
	b.Add("", p.missing(kind))
	return false
}

func (p *parser) parseArgumentList(outer *syntax.Builder, m exprMode) *syntax.Node {
	la := p.peek(token.KindSet{})
	p.flush(outer, la)
	b := syntax.NewBuilder(syntax.ArgumentList, p.pos)
	p.take(b, "", "(", la)
	p.parseSequence(b, m, syntax.FieldArgument, ")", token.CloseParen, func() *syntax.Node {
		return p.parseExpression(b, m.nested())
	})
	return b.Build()
}

// parseSequence parses comma separated items up to and including the closing
// token. A trailing comma is accepted. Two items with nothing between them
// get a missing comma; a comma that follows no item is an ERROR.
func (p *parser) parseSequence(b *syntax.Builder, m exprMode, field string, closeKind syntax.Kind, closeTok token.Kind, item func() *syntax.Node) {
	afterItem := false
	for {
		la := p.peek(m.operand().With(closeTok))
		switch {
		case la.is(closeTok):
			p.take(b, "", closeKind, la)
			return
		case la.is(token.Comma):
			if !afterItem {
				b.Add("", p.strayComma(b, la, "an expression"))
				continue
			}
			p.take(b, "", ",", la)
			afterItem = false
		case startsOperand(la):
			if afterItem {
				b.Add("", p.missing(","))
			}
			b.Add(field, item())
			afterItem = true
		default:
			b.Add("", p.missing(closeKind))
			return
		}
	}
}

// strayComma consumes a comma that separates nothing and returns it wrapped
// in an ERROR node. Trivia in front of it goes to outer.
func (p *parser) strayComma(outer *syntax.Builder, la *lookahead, expected string) *syntax.Node {
	p.flush(outer, la)
	eb := syntax.NewBuilder(syntax.KindError, p.pos).SetMessage(fmt.Sprintf("unexpected \",\", expected %s", expected))
	p.take(eb, "", ",", la)
	return eb.Build()
}

func (p *parser) parsePrimary(outer *syntax.Builder, m exprMode) *syntax.Node {
	la := p.peek(m.operand())
	switch la.tok.Kind {
	case token.Identifier:
		return p.takeLeaf(outer, syntax.Identifier, la)
	case token.Number:
		return p.takeLeaf(outer, syntax.Number, la)
	case token.String:
		return p.parseString(outer, syntax.StringLiteral, la)
	case token.KwTrue:
		return p.takeLeaf(outer, syntax.BooleanTrue, la)
	case token.KwFalse:
		return p.takeLeaf(outer, syntax.BooleanFalse, la)
	case token.Invalid:
		p.flush(outer, la)
		p.commit(la)
		return syntax.NewErrorLeaf(la.tok.Span, la.tok.Text, invalidMessage(la.tok))

	case token.OpenParen:
		p.flush(outer, la)
		b := syntax.NewBuilder(syntax.ParenthesizedExpression, p.pos)
		p.take(b, "", "(", la)
		b.Add(syntax.FieldExpression, p.parseExpression(b, m.nested()))
		p.expect(b, ")", token.CloseParen)
		return b.Build()

	case token.LBracket:
		p.flush(outer, la)
		b := syntax.NewBuilder(syntax.Array, p.pos)
		p.take(b, "", "[", la)
		p.parseSequence(b, m, syntax.FieldElement, "]", token.RBracket, func() *syntax.Node {
			return p.parseExpression(b, m.nested())
		})
		return b.Build()

	case token.LBrace:
		p.flush(outer, la)
		b := syntax.NewBuilder(syntax.Object, p.pos)
		p.take(b, "", "{", la)
		p.parseSequence(b, m, syntax.FieldPair, "}", token.RBrace, func() *syntax.Node {
			return p.parsePair(b, m.nested())
		})
		return b.Build()
	}

	if la.atEnd() || closers.Has(la.tok.Kind) {
		return p.missing(syntax.Identifier)
	}

	// a lone token that cannot start an operand
	p.flush(outer, la)
	eb := syntax.NewBuilder(syntax.KindError, p.pos).SetMessage(fmt.Sprintf("unexpected %q, expected an expression", la.tok.Text))
	p.take(eb, "", leafKind(la.tok), la)
	return eb.Build()
}

func (p *parser) parsePair(outer *syntax.Builder, m exprMode) *syntax.Node {
	key := p.parseExpression(outer, m)
	b := syntax.NewBuilder(syntax.Pair, key.Span().Start).Add(syntax.FieldKey, key)
	p.expect(b, ":", token.Colon)
	b.Add(syntax.FieldValue, p.parseExpression(b, m))
	return b.Build()
}

// parseString takes a string literal, wrapping it in an ERROR node when its
// escapes do not decode.
func (p *parser) parseString(outer *syntax.Builder, kind syntax.Kind, la *lookahead) *syntax.Node {
	n := p.takeLeaf(outer, kind, la)
	if _, err := lexer.Unquote(la.tok.Text); err != nil {
		return syntax.NewBuilder(syntax.KindError, n.Span().Start).SetMessage(err.Error()).Add("", n).Build()
	}
	return n
}

func invalidMessage(tok token.Token) string {
	switch {
	case len(tok.Text) >= 4 && tok.Text[:4] == "<#--":
		return "unterminated comment"
	case len(tok.Text) > 0 && (tok.Text[0] == '"' || tok.Text[0] == '\''):
		return "unterminated string literal"
	case len(tok.Text) > 1 && tok.Text[0] == 'r' && (tok.Text[1] == '"' || tok.Text[1] == '\''):
		return "unterminated string literal"
	case len(tok.Text) >= 2 && tok.Text[:2] == "</":
		return fmt.Sprintf("close tag %q is missing '>'", tok.Text)
	}
	return fmt.Sprintf("unexpected character %q", tok.Text)
}
