package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"
)

var (
	// StringBodyRules splits the inside of a quoted literal into plain runs
	// and escape sequences.
	StringBodyRules = lexer.Rules{
		"Root": {
			{Name: "Octal", Pattern: `\\[0-7]{1,3}`, Action: nil},
			{Name: "Hex", Pattern: `\\x[0-9a-fA-F]{2}`, Action: nil},
			{Name: "UnicodeBraced", Pattern: `\\u\{[0-9a-fA-F]+\}`, Action: nil},
			{Name: "Unicode", Pattern: `\\u[0-9a-fA-F]{4}`, Action: nil},
			{Name: "Continuation", Pattern: `\\\r?\n`, Action: nil},
			{Name: "Named", Pattern: `\\[ntrbfv\\"'{}=<>$lga]`, Action: nil},
			{Name: "BadEscape", Pattern: `\\(?s:.)?`, Action: nil},
			{Name: "Chars", Pattern: `[^\\]+`, Action: nil},
		},
	}

	stringBodyLexer = lexer.MustStateful(StringBodyRules)
	stringBodySyms  = stringBodyLexer.Symbols()
)

var namedEscapes = map[byte]string{
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'b':  "\b",
	'f':  "\f",
	'v':  "\v",
	'\\': "\\",
	'"':  "\"",
	'\'': "'",
	'{':  "{",
	'}':  "}",
	'=':  "=",
	'<':  "<",
	'>':  ">",
	'$':  "$",
	'l':  "<",
	'g':  ">",
	'a':  "&",
}

// EscapeError reports an invalid escape sequence inside a string literal.
type EscapeError struct {
	Sequence string
	// Offset is relative to the start of the literal, quotes included.
	Offset int
}

func (e *EscapeError) Error() string {
	return "invalid escape sequence " + strconv.Quote(e.Sequence) + " at offset " + strconv.Itoa(e.Offset)
}

// Unquote decodes a string literal as written in the source, including its
// quotes and an optional r prefix for raw strings.
func Unquote(literal string) (string, error) {
	raw := strings.HasPrefix(literal, "r")
	body := literal
	if raw {
		body = body[1:]
	}
	if len(body) < 2 || (body[0] != '"' && body[0] != '\'') || body[len(body)-1] != body[0] {
		return "", errors.Errorf("malformed string literal %q", literal)
	}
	prefix := len(literal) - len(body) + 1
	body = body[1 : len(body)-1]
	if raw {
		return body, nil
	}

	lex, err := stringBodyLexer.LexString("", body)
	if err != nil {
		return "", errors.Errorf("lexing string literal: %w", err)
	}

	var sb strings.Builder
	for {
		tok, err := lex.Next()
		if err != nil {
			return "", errors.Errorf("lexing string literal: %w", err)
		}
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case stringBodySyms["Chars"]:
			sb.WriteString(tok.Value)
		case stringBodySyms["Named"]:
			sb.WriteString(namedEscapes[tok.Value[1]])
		case stringBodySyms["Continuation"]:
		case stringBodySyms["Octal"]:
			n, _ := strconv.ParseUint(tok.Value[1:], 8, 32)
			sb.WriteRune(rune(n))
		case stringBodySyms["Hex"]:
			n, _ := strconv.ParseUint(tok.Value[2:], 16, 32)
			sb.WriteRune(rune(n))
		case stringBodySyms["Unicode"]:
			n, _ := strconv.ParseUint(tok.Value[2:], 16, 32)
			sb.WriteRune(rune(n))
		case stringBodySyms["UnicodeBraced"]:
			digits := tok.Value[3 : len(tok.Value)-1]
			n, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", &EscapeError{Sequence: tok.Value, Offset: prefix + tok.Pos.Offset}
			}
			sb.WriteRune(rune(n))
		default:
			return "", &EscapeError{Sequence: tok.Value, Offset: prefix + tok.Pos.Offset}
		}
	}
	return sb.String(), nil
}
