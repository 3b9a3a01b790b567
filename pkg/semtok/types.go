package semtok

import (
	"strings"

	"github.com/walteh/goftl/pkg/position"
)

// TokenType is the highlighting class of a token. The values index Legend.
type TokenType uint32

const (
	TokenBoolean TokenType = iota
	TokenCall
	TokenComment
	TokenDecorator
	TokenFunction
	TokenKeyword
	TokenMacro
	TokenNamespace
	TokenNumber
	TokenOperator
	TokenParameter
	TokenString
	TokenVariable
)

var tokenNames = [...]string{
	TokenBoolean:   "variable",
	TokenCall:      "interface",
	TokenComment:   "comment",
	TokenDecorator: "decorator",
	TokenFunction:  "function",
	TokenKeyword:   "keyword",
	TokenMacro:     "macro",
	TokenNamespace: "namespace",
	TokenNumber:    "number",
	TokenOperator:  "operator",
	TokenParameter: "parameter",
	TokenString:    "string",
	TokenVariable:  "variable",
}

// String returns the standard editor token type t is reported as.
func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

// Modifier is a bit set of token modifiers.
type Modifier uint32

const (
	ModifierDeprecated Modifier = 1 << iota
	ModifierReadonly
)

var modifierNames = []string{"deprecated", "readonly"}

func (m Modifier) String() string {
	var names []string
	for i, name := range modifierNames {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// Legend lists the token type and modifier names in index order.
func Legend() (types, modifiers []string) {
	return append([]string(nil), tokenNames[:]...), append([]string(nil), modifierNames...)
}

// Token is one highlighted run. It never spans lines.
type Token struct {
	Type     TokenType
	Modifier Modifier
	Span     position.Span
	Range    position.Range
}
