package parser

import (
	"fmt"

	"github.com/walteh/goftl/pkg/syntax"
	"github.com/walteh/goftl/pkg/token"
)

// frame is an open block. Its close tag, and for branching blocks the
// branch tags it accepts, end the body currently being parsed.
type frame struct {
	kind    syntax.Kind
	close   token.Kind
	closed  bool // false for case, on and default, which end implicitly
	accepts token.KindSet
}

func (p *parser) push(f frame) {
	p.frames = append(p.frames, f)
}

func (p *parser) pop() {
	p.frames = p.frames[:len(p.frames)-1]
}

func (p *parser) top() frame {
	if len(p.frames) == 0 {
		return frame{}
	}
	return p.frames[len(p.frames)-1]
}

func (p *parser) inside(kind syntax.Kind) bool {
	for _, f := range p.frames {
		if f.kind == kind {
			return true
		}
	}
	return false
}

// endsBody reports whether tok ends the body being parsed: a close tag of
// any open block, or a branch of the innermost one. Close tags that match
// nothing open are left to parseItem as errors.
func (p *parser) endsBody(tok token.Token) bool {
	if tok.Kind.IsClose() || tok.Kind == token.MacroCallClose {
		for _, f := range p.frames {
			if f.closed && f.close == tok.Kind {
				return true
			}
		}
		return false
	}
	return p.top().accepts.Has(tok.Kind)
}

// parseBody adds content items to b as body children until a token ends
// the body, and returns that token unconsumed.
func (p *parser) parseBody(b *syntax.Builder) token.Token {
	for {
		tok := p.peekContent()
		if tok.Kind == token.EOF || p.endsBody(tok) {
			return tok
		}
		b.Add(syntax.FieldBody, p.parseItem(tok))
	}
}

// closeBlock consumes stop when it is the close tag the block expects.
// Otherwise the close is missing; at end of input it is additionally
// wrapped in an ERROR node naming what was expected.
func (p *parser) closeBlock(b *syntax.Builder, kind syntax.Kind, want token.Kind, stop token.Token, optional bool) {
	switch {
	case stop.Kind == want:
		p.contentLeaf(b, kind, stop)
	case optional:
	case stop.Kind == token.EOF:
		eb := syntax.NewBuilder(syntax.KindError, p.pos).
			SetMessage(fmt.Sprintf("unexpected end of input, expected %s", want))
		eb.Add("", p.missing(kind))
		b.Add("", eb.Build())
	default:
		b.Add("", p.missing(kind))
	}
}

// contentLeaf consumes a content level token as a leaf of b.
func (p *parser) contentLeaf(b *syntax.Builder, kind syntax.Kind, tok token.Token) {
	p.takeContent(tok)
	b.Add("", syntax.NewLeaf(kind, tok.Span, tok.Text))
}

var tagEnd = token.NewKindSet(token.DirectiveCloseTag, token.SelfClose)

var tagMode = exprMode{inTag: true}

// expectClose ends a directive header. selfClose allows the undocumented
// "/>" form.
func (p *parser) expectClose(b *syntax.Builder, selfClose bool) {
	defer p.resetDepth()

	la := p.peek(tagEnd)
	if !la.atEnd() && !la.is(token.DirectiveCloseTag, token.SelfClose) {
		p.recover(b, tagEnd, "unexpected tokens in directive")
		la = p.peek(tagEnd)
	}

	switch {
	case la.is(token.DirectiveCloseTag):
		p.take(b, "", syntax.CloseTag, la)
	case la.is(token.SelfClose) && selfClose:
		p.take(b, "", syntax.UndocumentedCloseTag, la)
	case la.is(token.SelfClose):
		p.flush(b, la)
		eb := syntax.NewBuilder(syntax.KindError, p.pos).SetMessage("this directive cannot be closed with '/>'")
		p.take(eb, "", syntax.UndocumentedCloseTag, la)
		b.Add("", eb.Build())
	default:
		b.Add("", p.missing(syntax.CloseTag))
	}
}

// parseItem parses one content level construct starting with tok.
func (p *parser) parseItem(tok token.Token) *syntax.Node {
	switch tok.Kind {
	case token.Text:
		p.takeContent(tok)
		return syntax.NewLeaf(syntax.Text, tok.Span, tok.Text)
	case token.Comment:
		p.takeContent(tok)
		return syntax.NewLeaf(syntax.Comment, tok.Span, tok.Text)
	case token.InterpolationStart:
		return p.parseInterpolation(tok)
	case token.MacroCallStart:
		return p.parseMacroCall(tok)
	case token.FtlBegin:
		return p.parseFtl(tok)
	case token.AssignBegin:
		return p.parseAssign(tok, assignKinds)
	case token.LocalBegin:
		return p.parseAssign(tok, localKinds)
	case token.IfBegin:
		return p.parseIf(tok)
	case token.ListBegin:
		return p.parseList(tok)
	case token.MacroBegin:
		return p.parseCallable(tok, macroKinds)
	case token.FunctionBegin:
		return p.parseCallable(tok, functionKinds)
	case token.ReturnBegin:
		return p.parseReturn(tok)
	case token.ImportBegin:
		return p.parseImport(tok)
	case token.SwitchBegin:
		return p.parseSwitch(tok)
	case token.BreakBegin:
		b := syntax.NewBuilder(syntax.BreakStmt, tok.Span.Start)
		p.contentLeaf(b, syntax.BreakBegin, tok)
		p.expectClose(b, true)
		return b.Build()

	case token.SepBegin:
		if p.inside(syntax.ListStmt) {
			return p.parseSep(tok)
		}
		return p.parseStray(tok, syntax.SepBegin, "<#sep> must be inside <#list>")
	case token.CaseBegin:
		if p.top().kind == syntax.SwitchStmt {
			return p.parseCase(tok, syntax.CaseClause, syntax.CaseBegin)
		}
		return p.parseStray(tok, syntax.CaseBegin, "<#case> must be inside <#switch>")
	case token.OnBegin:
		if p.top().kind == syntax.SwitchStmt {
			return p.parseCase(tok, syntax.OnClause, syntax.OnBegin)
		}
		return p.parseStray(tok, syntax.OnBegin, "<#on> must be inside <#switch>")
	case token.DefaultBegin:
		if p.top().kind == syntax.SwitchStmt {
			return p.parseCase(tok, syntax.DefaultClause, syntax.DefaultBegin)
		}
		return p.parseStray(tok, syntax.DefaultBegin, "<#default> must be inside <#switch>")
	case token.ElseIfBegin:
		return p.parseStray(tok, syntax.ElseifBegin, "<#elseif> must be inside <#if>")
	case token.ElseBegin:
		return p.parseStray(tok, syntax.ElseBegin, "<#else> must be inside <#if> or <#list>")
	case token.UnknownBegin:
		return p.parseStray(tok, "", fmt.Sprintf("unknown directive %s", tok.Text))

	case token.Invalid:
		p.takeContent(tok)
		return syntax.NewErrorLeaf(tok.Span, tok.Text, invalidMessage(tok))
	}

	// a close tag with no open block to match
	p.takeContent(tok)
	return syntax.NewErrorLeaf(tok.Span, tok.Text, fmt.Sprintf("unexpected %s", tok.Text))
}

// parseStray wraps a directive that is not allowed where it appears,
// together with the rest of its header, in an ERROR node.
func (p *parser) parseStray(tok token.Token, kind syntax.Kind, msg string) *syntax.Node {
	eb := syntax.NewBuilder(syntax.KindError, tok.Span.Start).SetMessage(msg)
	if kind == "" {
		p.takeContent(tok)
		eb.Add("", syntax.NewErrorLeaf(tok.Span, tok.Text, msg))
	} else {
		p.contentLeaf(eb, kind, tok)
	}
	for {
		la := p.peek(tagEnd)
		if la.atEnd() {
			break
		}
		if la.is(token.DirectiveCloseTag) {
			p.take(eb, "", syntax.CloseTag, la)
			break
		}
		if la.is(token.SelfClose) {
			p.take(eb, "", syntax.UndocumentedCloseTag, la)
			break
		}
		p.take(eb, "", leafKind(la.tok), la)
	}
	p.resetDepth()
	return eb.Build()
}

func (p *parser) parseInterpolation(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.Interpolation, tok.Span.Start)
	p.contentLeaf(b, syntax.InterpolationPrepend, tok)
	b.Add(syntax.FieldExpression, p.parseExpression(b, exprMode{}))

	end := token.NewKindSet(token.RBrace)
	la := p.peek(end)
	if !la.atEnd() && !la.is(token.RBrace) {
		p.recover(b, end, "unexpected tokens in interpolation")
		la = p.peek(end)
	}
	if la.is(token.RBrace) {
		p.take(b, "", "}", la)
	} else {
		b.Add("", p.missing("}"))
	}
	p.resetDepth()
	return b.Build()
}

func isLiteral(n *syntax.Node) bool {
	switch n.Kind() {
	case syntax.StringLiteral, syntax.Number, syntax.BooleanTrue, syntax.BooleanFalse:
		return true
	case syntax.KindError:
		// a string with bad escapes, already reported
		return n.ChildCount() == 1 && n.Child(0).Kind() == syntax.StringLiteral
	}
	return n.IsMissing()
}

func wrapError(n *syntax.Node, msg string) *syntax.Node {
	return syntax.NewBuilder(syntax.KindError, n.Span().Start).SetMessage(msg).Add("", n).Build()
}

// parseFtl parses <#ftl name=literal ...>.
func (p *parser) parseFtl(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.FtlStmt, tok.Span.Start)
	p.contentLeaf(b, syntax.FtlBegin, tok)
	for {
		la := p.peek(tagEnd)
		if !la.is(token.Identifier) {
			break
		}
		p.flush(b, la)
		pb := syntax.NewBuilder(syntax.FtlParameter, p.pos)
		p.take(pb, syntax.FieldName, syntax.ParameterName, la)
		p.expect(pb, "=", token.Assign)
		v := p.parseExpression(pb, exprMode{inTag: true, noDeprecatedEqual: true})
		if !isLiteral(v) {
			v = wrapError(v, "ftl parameter values must be literals")
		}
		pb.Add(syntax.FieldValue, v)
		b.Add(syntax.FieldParameter, pb.Build())
	}
	p.expectClose(b, true)
	return b.Build()
}

type assignKindSet struct {
	stmt, inline, clause syntax.Kind
	begin, close         syntax.Kind
	closeTok             token.Kind
}

var (
	assignKinds = assignKindSet{syntax.AssignStmt, syntax.AssignInline, syntax.AssignClause, syntax.AssignBegin, syntax.AssignClose, token.AssignClose}
	localKinds  = assignKindSet{syntax.LocalStmt, syntax.LocalInline, syntax.LocalClause, syntax.LocalBegin, syntax.LocalClose, token.LocalClose}
)

var assignOps = token.NewKindSet(
	token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign,
	token.PercentAssign, token.Increment, token.Decrement,
)

var headerWithIn = tagEnd.With(token.KwIn)

// parseAssign handles <#assign> and <#local>. "name>" and "name in ns>"
// open the block form capturing the body; anything else is the inline form.
func (p *parser) parseAssign(tok token.Token, k assignKindSet) *syntax.Node {
	stmt := syntax.NewBuilder(k.stmt, tok.Span.Start)
	p.takeContent(tok)
	begin := syntax.NewLeaf(k.begin, tok.Span, tok.Text)

	block := false
	if la := p.peek(tagEnd); la.is(token.Identifier, token.String) {
		block = p.peekAfter(la, headerWithIn).is(token.DirectiveCloseTag, token.KwIn)
	}

	if !block {
		b := syntax.NewBuilder(k.inline, tok.Span.Start).Add("", begin)
		count := 0
		for {
			la := p.peek(headerWithIn)
			if la.is(token.Comma) && count > 0 {
				p.take(b, "", ",", la)
				continue
			}
			if !la.is(token.Identifier, token.String) {
				break
			}
			b.Add(syntax.FieldAssignment, p.parseAssignment(b, la))
			count++
		}
		if count == 0 {
			b.Add(syntax.FieldAssignment, p.missing(syntax.AssignExpression))
		}
		p.parseNamespace(b)
		p.expectClose(b, true)
		return stmt.Add("", b.Build()).Build()
	}

	clause := syntax.NewBuilder(k.clause, tok.Span.Start).Add("", begin)
	clause.Add(syntax.FieldName, p.parseAssignTarget(clause, p.peek(tagEnd)))
	p.parseNamespace(clause)
	p.expectClose(clause, false)

	p.push(frame{kind: k.stmt, close: k.closeTok, closed: true})
	stop := p.parseBody(clause)
	p.pop()

	stmt.Add("", clause.Build())
	p.closeBlock(stmt, k.close, k.closeTok, stop, false)
	return stmt.Build()
}

func (p *parser) parseNamespace(b *syntax.Builder) {
	la := p.peek(headerWithIn)
	if !la.is(token.KwIn) {
		return
	}
	p.take(b, "", syntax.KeywordIn, la)
	b.Add(syntax.FieldNamespace, p.parseExpression(b, exprMode{inTag: true, noIn: true}))
}

// parseAssignTarget takes the variable name. A quoted name is kept but
// flagged as ambiguous.
func (p *parser) parseAssignTarget(outer *syntax.Builder, la *lookahead) *syntax.Node {
	if la.is(token.String) {
		return p.parseString(outer, syntax.AmbiguousStringLiteral, la)
	}
	return p.takeLeaf(outer, syntax.Identifier, la)
}

func (p *parser) parseAssignment(outer *syntax.Builder, la *lookahead) *syntax.Node {
	left := p.parseAssignTarget(outer, la)
	b := syntax.NewBuilder(syntax.AssignExpression, left.Span().Start).Add(syntax.FieldLeft, left)

	op := p.peek(tagEnd)
	switch {
	case op.is(token.Increment, token.Decrement):
		p.take(b, syntax.FieldOperator, syntax.AssignOperator, op)
	case assignOps.Has(op.tok.Kind):
		p.take(b, syntax.FieldOperator, syntax.AssignOperator, op)
		b.Add(syntax.FieldRight, p.parseExpression(b, exprMode{inTag: true, noIn: true, noDeprecatedEqual: true}))
	default:
		b.Add(syntax.FieldOperator, p.missing(syntax.AssignOperator))
	}
	return b.Build()
}

func (p *parser) parseIf(tok token.Token) *syntax.Node {
	stmt := syntax.NewBuilder(syntax.IfStmt, tok.Span.Start)

	p.push(frame{
		kind:    syntax.IfStmt,
		close:   token.IfClose,
		closed:  true,
		accepts: token.NewKindSet(token.ElseIfBegin, token.ElseBegin),
	})
	clause, stop := p.parseBranch(tok, syntax.IfClause, syntax.IfBegin, true)
	stmt.Add("", clause)

	seenElse := false
	for stop.Kind == token.ElseIfBegin || stop.Kind == token.ElseBegin {
		var n *syntax.Node
		isElse := stop.Kind == token.ElseBegin
		if isElse {
			n, stop = p.parseBranch(stop, syntax.ElseClause, syntax.ElseBegin, false)
		} else {
			n, stop = p.parseBranch(stop, syntax.ElseifClause, syntax.ElseifBegin, true)
		}
		if seenElse {
			n = wrapError(n, "no branch may follow <#else>")
		}
		seenElse = seenElse || isElse
		stmt.Add("", n)
	}
	p.pop()

	p.closeBlock(stmt, syntax.IfClose, token.IfClose, stop, false)
	return stmt.Build()
}

// parseBranch parses one clause of a branching block: its header, with a
// condition when cond is set, and its body.
func (p *parser) parseBranch(tok token.Token, kind, begin syntax.Kind, cond bool) (*syntax.Node, token.Token) {
	b := syntax.NewBuilder(kind, tok.Span.Start)
	p.contentLeaf(b, begin, tok)
	if cond {
		b.Add(syntax.FieldCondition, p.parseExpression(b, tagMode))
	}
	p.expectClose(b, false)
	stop := p.parseBody(b)
	return b.Build(), stop
}

func (p *parser) parseList(tok token.Token) *syntax.Node {
	stmt := syntax.NewBuilder(syntax.ListStmt, tok.Span.Start)
	clause := syntax.NewBuilder(syntax.ListClause, tok.Span.Start)
	p.contentLeaf(clause, syntax.ListBegin, tok)

	clause.Add(syntax.FieldFrom, p.parseExpression(clause, tagMode))

	if la := p.peek(tagEnd.With(token.KwAs)); la.is(token.KwAs) {
		p.take(clause, "", syntax.KeywordAs, la)
	} else {
		clause.Add("", p.missing(syntax.KeywordAs))
	}
	clause.Add(syntax.FieldInto, p.parseLoopVariables(clause))
	p.expectClose(clause, false)

	p.push(frame{
		kind:    syntax.ListStmt,
		close:   token.ListClose,
		closed:  true,
		accepts: token.NewKindSet(token.ElseBegin),
	})
	stop := p.parseBody(clause)
	stmt.Add("", clause.Build())
	if stop.Kind == token.ElseBegin {
		var n *syntax.Node
		n, stop = p.parseBranch(stop, syntax.ElseClause, syntax.ElseBegin, false)
		stmt.Add("", n)
	}
	p.pop()

	p.closeBlock(stmt, syntax.ListClose, token.ListClose, stop, false)
	return stmt.Build()
}

// parseLoopVariables parses "item" or "key, value".
func (p *parser) parseLoopVariables(outer *syntax.Builder) *syntax.Node {
	la := p.peek(tagEnd)
	if !la.is(token.Identifier) {
		return p.missing(syntax.Identifier)
	}
	first := p.takeLeaf(outer, syntax.Identifier, la)

	comma := p.peek(tagEnd)
	if !comma.is(token.Comma) {
		return first
	}
	b := syntax.NewBuilder(syntax.IteratorPair, first.Span().Start).Add(syntax.FieldKey, first)
	p.take(b, "", ",", comma)
	if v := p.peek(tagEnd); v.is(token.Identifier) {
		p.take(b, syntax.FieldValue, syntax.Identifier, v)
	} else {
		b.Add(syntax.FieldValue, p.missing(syntax.Identifier))
	}
	return b.Build()
}

// parseSep parses <#sep>. Its close tag is optional: the body otherwise runs
// to the end of the enclosing list item.
func (p *parser) parseSep(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.SepClause, tok.Span.Start)
	p.contentLeaf(b, syntax.SepBegin, tok)
	p.expectClose(b, false)

	p.push(frame{
		kind:    syntax.SepClause,
		close:   token.SepClose,
		closed:  true,
		accepts: token.NewKindSet(token.ElseBegin),
	})
	stop := p.parseBody(b)
	p.pop()

	p.closeBlock(b, syntax.SepClose, token.SepClose, stop, true)
	return b.Build()
}

type callableKindSet struct {
	stmt, clause      syntax.Kind
	begin, name, close syntax.Kind
	closeTok          token.Kind
}

var (
	macroKinds    = callableKindSet{syntax.MacroStmt, syntax.MacroClause, syntax.MacroBegin, syntax.MacroName, syntax.MacroClose, token.MacroClose}
	functionKinds = callableKindSet{syntax.FunctionStmt, syntax.FunctionClause, syntax.FunctionBegin, syntax.FunctionName, syntax.FunctionClose, token.FunctionClose}
)

// parseCallable handles <#macro> and <#function> definitions.
func (p *parser) parseCallable(tok token.Token, k callableKindSet) *syntax.Node {
	stmt := syntax.NewBuilder(k.stmt, tok.Span.Start)
	clause := syntax.NewBuilder(k.clause, tok.Span.Start)
	p.contentLeaf(clause, k.begin, tok)

	if la := p.peek(tagEnd); la.is(token.Identifier) {
		p.take(clause, syntax.FieldName, k.name, la)
	} else {
		clause.Add(syntax.FieldName, p.missing(k.name))
	}

	afterParam := false
	for {
		la := p.peek(tagEnd)
		if la.is(token.Comma) {
			if afterParam {
				p.take(clause, "", ",", la)
			} else {
				clause.Add("", p.strayComma(clause, la, "a parameter name"))
			}
			afterParam = false
			continue
		}
		if !la.is(token.Identifier) {
			break
		}
		p.flush(clause, la)
		pb := syntax.NewBuilder(syntax.Parameter, p.pos)
		p.take(pb, syntax.FieldName, syntax.ParameterName, la)
		if eq := p.peek(tagEnd); eq.is(token.Assign) {
			p.take(pb, "", "=", eq)
			pb.Add(syntax.FieldDefault, p.parseExpression(pb, exprMode{inTag: true, noDeprecatedEqual: true}))
		}
		clause.Add(syntax.FieldParameter, pb.Build())
		afterParam = true
	}
	p.expectClose(clause, false)

	p.push(frame{kind: k.stmt, close: k.closeTok, closed: true})
	stop := p.parseBody(clause)
	p.pop()

	stmt.Add("", clause.Build())
	p.closeBlock(stmt, k.close, k.closeTok, stop, false)
	return stmt.Build()
}

func (p *parser) parseReturn(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.ReturnStmt, tok.Span.Start)
	p.contentLeaf(b, syntax.ReturnBegin, tok)
	if la := p.peek(tagEnd); !la.atEnd() && !la.is(token.DirectiveCloseTag, token.SelfClose) {
		b.Add(syntax.FieldValue, p.parseExpression(b, tagMode))
	}
	p.expectClose(b, true)
	return b.Build()
}

// parseImport parses <#import "path" as alias>.
func (p *parser) parseImport(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.ImportStmt, tok.Span.Start)
	p.contentLeaf(b, syntax.ImportBegin, tok)

	if la := p.peek(tagEnd); la.is(token.String) {
		b.Add(syntax.FieldImportPath, p.parseString(b, syntax.ImportPath, la))
	} else {
		b.Add(syntax.FieldImportPath, p.missing(syntax.ImportPath))
	}
	if la := p.peek(tagEnd.With(token.KwAs)); la.is(token.KwAs) {
		p.take(b, "", syntax.KeywordAs, la)
	} else {
		b.Add("", p.missing(syntax.KeywordAs))
	}
	if la := p.peek(tagEnd); la.is(token.Identifier) {
		p.take(b, syntax.FieldImportAlias, syntax.ImportAlias, la)
	} else {
		b.Add(syntax.FieldImportAlias, p.missing(syntax.ImportAlias))
	}
	p.expectClose(b, true)
	return b.Build()
}

func (p *parser) parseSwitch(tok token.Token) *syntax.Node {
	stmt := syntax.NewBuilder(syntax.SwitchStmt, tok.Span.Start)
	clause := syntax.NewBuilder(syntax.SwitchClause, tok.Span.Start)
	p.contentLeaf(clause, syntax.SwitchBegin, tok)
	clause.Add(syntax.FieldValue, p.parseExpression(clause, tagMode))
	p.expectClose(clause, false)

	p.push(frame{kind: syntax.SwitchStmt, close: token.SwitchClose, closed: true})
	stop := p.parseBody(clause)
	p.pop()

	stmt.Add("", clause.Build())
	p.closeBlock(stmt, syntax.SwitchClose, token.SwitchClose, stop, false)
	return stmt.Build()
}

var switchBranches = token.NewKindSet(token.CaseBegin, token.OnBegin, token.DefaultBegin)

// parseCase parses a case, on or default clause. Its body runs until the
// next branch or the end of the switch.
func (p *parser) parseCase(tok token.Token, kind, begin syntax.Kind) *syntax.Node {
	b := syntax.NewBuilder(kind, tok.Span.Start)
	p.contentLeaf(b, begin, tok)

	switch kind {
	case syntax.CaseClause:
		b.Add(syntax.FieldValue, p.parseExpression(b, tagMode))
	case syntax.OnClause:
		b.Add(syntax.FieldValue, p.parseExpression(b, tagMode))
		for {
			la := p.peek(tagEnd)
			if !la.is(token.Comma) {
				break
			}
			p.take(b, "", ",", la)
			b.Add(syntax.FieldValue, p.parseExpression(b, tagMode))
		}
	}
	p.expectClose(b, false)

	p.push(frame{kind: kind, accepts: switchBranches})
	p.parseBody(b)
	p.pop()
	return b.Build()
}

// parseMacroCall parses <@name args/> and <@name args>body</@name>.
func (p *parser) parseMacroCall(tok token.Token) *syntax.Node {
	b := syntax.NewBuilder(syntax.MacroExpansion, tok.Span.Start)
	p.contentLeaf(b, syntax.MacroCallBegin, tok)

	// the name is glued to "<@" and its dots
	if la := p.peek(tagEnd); la.is(token.Identifier) && len(la.trivia) == 0 {
		p.take(b, syntax.FieldNamespace, syntax.MacroNamespace, la)
		for {
			dot := p.peek(tagEnd)
			if !dot.is(token.Dot) || len(dot.trivia) > 0 {
				break
			}
			member := p.peekAfter(dot, tagEnd)
			if !member.is(token.Identifier) || len(member.trivia) > 0 {
				break
			}
			p.take(b, "", ".", dot)
			p.take(b, syntax.FieldMember, syntax.Identifier, p.peek(tagEnd))
		}
	} else {
		b.Add(syntax.FieldNamespace, p.missing(syntax.MacroNamespace))
	}

	argMode := exprMode{inTag: true, noDeprecatedEqual: true}
args:
	for {
		la := p.peek(tagEnd)
		switch {
		case la.atEnd() || la.is(token.DirectiveCloseTag, token.SelfClose):
			break args
		case la.is(token.Comma):
			p.take(b, "", ",", la)
		case la.is(token.Identifier) && p.peekAfter(la, tagEnd).is(token.Assign):
			p.flush(b, la)
			nb := syntax.NewBuilder(syntax.NamedArgument, p.pos)
			p.take(nb, syntax.FieldName, syntax.ParameterName, la)
			p.expect(nb, "=", token.Assign)
			nb.Add(syntax.FieldValue, p.parseExpression(nb, argMode))
			b.Add(syntax.FieldArgument, nb.Build())
		case startsOperand(la):
			b.Add(syntax.FieldArgument, p.parseExpression(b, argMode))
		default:
			p.recover(b, tagEnd, "unexpected tokens in macro call")
		}
	}

	la := p.peek(tagEnd)
	switch {
	case la.is(token.SelfClose):
		p.take(b, "", syntax.MacroCallEnd, la)
		p.resetDepth()
	case la.is(token.DirectiveCloseTag):
		p.take(b, "", syntax.CloseTag, la)
		p.resetDepth()
		p.push(frame{kind: syntax.MacroExpansion, close: token.MacroCallClose, closed: true})
		stop := p.parseBody(b)
		p.pop()
		p.closeBlock(b, syntax.MacroCloseTag, token.MacroCallClose, stop, false)
	default:
		b.Add("", p.missing(syntax.MacroCallEnd))
		p.resetDepth()
	}
	return b.Build()
}
