// Package token defines the lexical vocabulary shared by the scanner, the
// lexer and the parser.
package token

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/walteh/goftl/pkg/position"
)

// Kind identifies a lexical token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Whitespace

	// content level
	Text
	Comment
	InterpolationStart // ${
	MacroCallStart     // <@
	MacroCallClose     // </@name> or </@>

	// directive begin keywords, "<#name"
	FtlBegin
	AssignBegin
	LocalBegin
	IfBegin
	ElseIfBegin
	ElseBegin
	ListBegin
	SepBegin
	MacroBegin
	FunctionBegin
	ReturnBegin
	ImportBegin
	SwitchBegin
	CaseBegin
	OnBegin
	DefaultBegin
	BreakBegin
	UnknownBegin

	// directive close tags, "</#name>"
	AssignClose
	LocalClose
	IfClose
	ListClose
	SepClose
	MacroClose
	FunctionClose
	SwitchClose
	UnknownClose

	// context sensitive, produced by the scanner only when expected
	DirectiveCloseTag // > ending a directive
	GreaterThan       // >
	GreaterThanEqual  // >=
	OpenParen         // (
	CloseParen        // )
	Equal             // ==
	DeprecatedEqual   // = used as equality

	Identifier
	Number
	String

	// keywords, produced only when expected, otherwise Identifier
	KwAs
	KwIn
	KwGt
	KwGte
	KwLt
	KwLte
	KwTrue
	KwFalse

	LBrace         // {
	RBrace         // }
	LBracket       // [
	RBracket       // ]
	Comma          // ,
	Colon          // :
	Dot            // .
	Question       // ?
	DoubleQuestion // ??
	Bang           // !
	NotEqual       // !=
	StrictNotEqual // !==
	Plus           // +
	Minus          // -
	Star           // *
	Slash          // /
	Percent        // %
	AndAnd         // &&
	OrOr           // ||
	Pipe           // |
	Caret          // ^
	Amp            // &
	Less           // <
	LessEqual      // <=
	SelfClose      // />
	Assign         // =
	PlusAssign     // +=
	MinusAssign    // -=
	StarAssign     // *=
	SlashAssign    // /=
	PercentAssign  // %=
	Increment      // ++
	Decrement      // --
	Range          // ..
	RangeExclusive // ..<
	RangeBang      // ..!
	RangeLength    // ..*

	kindCount
)

var kindNames = [...]string{
	Invalid:            "Invalid",
	EOF:                "EOF",
	Whitespace:         "Whitespace",
	Text:               "Text",
	Comment:            "Comment",
	InterpolationStart: "${",
	MacroCallStart:     "<@",
	MacroCallClose:     "</@>",
	FtlBegin:           "<#ftl",
	AssignBegin:        "<#assign",
	LocalBegin:         "<#local",
	IfBegin:            "<#if",
	ElseIfBegin:        "<#elseif",
	ElseBegin:          "<#else",
	ListBegin:          "<#list",
	SepBegin:           "<#sep",
	MacroBegin:         "<#macro",
	FunctionBegin:      "<#function",
	ReturnBegin:        "<#return",
	ImportBegin:        "<#import",
	SwitchBegin:        "<#switch",
	CaseBegin:          "<#case",
	OnBegin:            "<#on",
	DefaultBegin:       "<#default",
	BreakBegin:         "<#break",
	UnknownBegin:       "<#?",
	AssignClose:        "</#assign>",
	LocalClose:         "</#local>",
	IfClose:            "</#if>",
	ListClose:          "</#list>",
	SepClose:           "</#sep>",
	MacroClose:         "</#macro>",
	FunctionClose:      "</#function>",
	SwitchClose:        "</#switch>",
	UnknownClose:       "</#?>",
	DirectiveCloseTag:  "DirectiveCloseTag",
	GreaterThan:        ">",
	GreaterThanEqual:   ">=",
	OpenParen:          "(",
	CloseParen:         ")",
	Equal:              "==",
	DeprecatedEqual:    "DeprecatedEqual",
	Identifier:         "Identifier",
	Number:             "Number",
	String:             "String",
	KwAs:               "as",
	KwIn:               "in",
	KwGt:               "gt",
	KwGte:              "gte",
	KwLt:               "lt",
	KwLte:              "lte",
	KwTrue:             "true",
	KwFalse:            "false",
	LBrace:             "{",
	RBrace:             "}",
	LBracket:           "[",
	RBracket:           "]",
	Comma:              ",",
	Colon:              ":",
	Dot:                ".",
	Question:           "?",
	DoubleQuestion:     "??",
	Bang:               "!",
	NotEqual:           "!=",
	StrictNotEqual:     "!==",
	Plus:               "+",
	Minus:              "-",
	Star:               "*",
	Slash:              "/",
	Percent:            "%",
	AndAnd:             "&&",
	OrOr:               "||",
	Pipe:               "|",
	Caret:              "^",
	Amp:                "&",
	Less:               "<",
	LessEqual:          "<=",
	SelfClose:          "/>",
	Assign:             "=",
	PlusAssign:         "+=",
	MinusAssign:        "-=",
	StarAssign:         "*=",
	SlashAssign:        "/=",
	PercentAssign:      "%=",
	Increment:          "++",
	Decrement:          "--",
	Range:              "..",
	RangeExclusive:     "..<",
	RangeBang:          "..!",
	RangeLength:        "..*",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsBegin reports whether k opens a directive ("<#name").
func (k Kind) IsBegin() bool {
	return k >= FtlBegin && k <= UnknownBegin
}

// IsClose reports whether k is a directive close tag ("</#name>").
func (k Kind) IsClose() bool {
	return k >= AssignClose && k <= UnknownClose
}

// Token is a single lexeme with its byte span in the document.
type Token struct {
	Kind Kind
	Span position.Span
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("%s%s %q", t.Kind, t.Span, t.Text)
}

// KindSet is the set of token kinds the parser accepts at a decision point.
type KindSet [2]uint64

func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

func (s KindSet) Has(k Kind) bool {
	return s[k/64]&(1<<(k%64)) != 0
}

func (s KindSet) With(kinds ...Kind) KindSet {
	for _, k := range kinds {
		s[k/64] |= 1 << (k % 64)
	}
	return s
}

func (s KindSet) Without(kinds ...Kind) KindSet {
	for _, k := range kinds {
		s[k/64] &^= 1 << (k % 64)
	}
	return s
}

func (s KindSet) Union(o KindSet) KindSet {
	return KindSet{s[0] | o[0], s[1] | o[1]}
}

func (s KindSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1])
}

func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < kindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, " ") + "}"
}
