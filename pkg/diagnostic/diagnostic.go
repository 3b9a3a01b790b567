// Package diagnostic reports the problems recorded in a syntax tree, and a
// handful of discouraged but valid constructs, as HCL diagnostics.
package diagnostic

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/position"
	"github.com/walteh/goftl/pkg/syntax"
)

// Code identifies the kind of problem a diagnostic reports.
type Code string

const (
	CodeMissing                 Code = "missing_node"
	CodeUnexpected              Code = "unexpected_input"
	CodeBackslashedIdentifier   Code = "identifier_has_backslash"
	CodeAmbiguousStringLiteral  Code = "ambiguous_string_literal"
	CodeDeprecatedEqualOperator Code = "deprecated_equal_operator"
	CodeUndocumentedCloseTag    Code = "undocumented_close_tag"
	CodeDeprecatedListBreak     Code = "deprecated_list_break"
	CodeUnexpectedBreak         Code = "unexpected_break_stmt"
	CodeUnknownBuiltin          Code = "unknown_builtin"
)

// Severity refines hcl's two levels. Informational diagnostics are carried
// as hcl warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Extra is stored in hcl.Diagnostic.Extra for every diagnostic produced here.
type Extra struct {
	Code     Code
	Severity Severity
}

// ExtraOf returns the Extra of d, if it has one.
func ExtraOf(d *hcl.Diagnostic) (Extra, bool) {
	e, ok := d.Extra.(Extra)
	return e, ok
}

type scenario struct {
	code     Code
	severity Severity
	summary  string
	detail   string
}

var (
	backslashedIdentifier = scenario{
		code:     CodeBackslashedIdentifier,
		severity: SeverityInfo,
		summary:  "Identifier contains escaped characters",
		detail:   "Identifiers containing reserved characters must escape them with a backslash, which hurts readability. Consider renaming.",
	}
	ambiguousStringLiteral = scenario{
		code:     CodeAmbiguousStringLiteral,
		severity: SeverityWarning,
		summary:  "String literal used as a variable name",
		detail:   "A quoted name is valid in <#assign> and <#local> but is easy to misread. Use a plain identifier.",
	}
	deprecatedEqualOperator = scenario{
		code:     CodeDeprecatedEqualOperator,
		severity: SeverityWarning,
		summary:  "Deprecated '=' comparison",
		detail:   "Use '==' to compare values. A single '=' as equality is deprecated.",
	}
	undocumentedCloseTag = scenario{
		code:     CodeUndocumentedCloseTag,
		severity: SeverityWarning,
		summary:  "Undocumented '/>' close tag",
		detail:   "Directives without a body should be closed with '>'.",
	}
	deprecatedListBreak = scenario{
		code:     CodeDeprecatedListBreak,
		severity: SeverityWarning,
		summary:  "<#break> inside <#list>",
		detail:   "<#break> in a list interferes with <#sep> and ?has_next. Filter the sequence with ?take_while instead.",
	}
	unexpectedBreak = scenario{
		code:     CodeUnexpectedBreak,
		severity: SeverityError,
		summary:  "<#break> outside of <#list> or <#switch>",
		detail:   "The <#break> directive can only be used within <#list> or <#switch> blocks.",
	}
)

type generator struct {
	filename string
	tree     *syntax.Tree
	loc      *position.Locator
	diags    hcl.Diagnostics
	// enclosing list and switch statements
	scope []syntax.Kind
}

// Generate walks tree and reports, in document order, every error and
// missing node along with the discouraged constructs it contains. filename
// only labels the diagnostic ranges.
func Generate(ctx context.Context, filename string, tree *syntax.Tree) hcl.Diagnostics {
	g := &generator{filename: filename, tree: tree, loc: tree.Locator()}
	syntax.Inspect(tree.Root(), g)

	zerolog.Ctx(ctx).Debug().
		Str("file", filename).
		Int("diagnostics", len(g.diags)).
		Bool("errors", g.diags.HasErrors()).
		Msg("generated diagnostics")

	return g.diags
}

func (g *generator) rangeOf(n *syntax.Node) *hcl.Range {
	span := n.Span()
	start, end := g.loc.Place(span.Start), g.loc.Place(span.End)
	return &hcl.Range{
		Filename: g.filename,
		Start:    hcl.Pos{Line: start.Line + 1, Column: start.Character + 1, Byte: span.Start},
		End:      hcl.Pos{Line: end.Line + 1, Column: end.Character + 1, Byte: span.End},
	}
}

func (g *generator) add(n *syntax.Node, sev Severity, code Code, summary, detail string) {
	hsev := hcl.DiagWarning
	if sev == SeverityError {
		hsev = hcl.DiagError
	}
	g.diags = append(g.diags, &hcl.Diagnostic{
		Severity: hsev,
		Summary:  summary,
		Detail:   detail,
		Subject:  g.rangeOf(n),
		Extra:    Extra{Code: code, Severity: sev},
	})
}

func (g *generator) report(n *syntax.Node, s scenario) {
	g.add(n, s.severity, s.code, s.summary, s.detail)
}

func (g *generator) Enter(n *syntax.Node, _ string) bool {
	if n.IsMissing() {
		g.add(n, SeverityError, CodeMissing, fmt.Sprintf("Missing %s here", n.Kind()), "")
		return false
	}

	if n.IsError() {
		text := g.tree.Text(n)
		summary := fmt.Sprintf("Unexpected %q", text)
		detail := n.Message()
		if detail != "" && text == "" {
			summary, detail = detail, ""
		}
		g.add(n, SeverityError, CodeUnexpected, summary, detail)
		// nested errors and missing nodes are part of the same problem
		return false
	}

	switch n.Kind() {
	case syntax.Identifier:
		if strings.Contains(n.Text(), `\`) {
			g.report(n, backslashedIdentifier)
		}
	case syntax.AmbiguousStringLiteral:
		g.report(n, ambiguousStringLiteral)
	case syntax.DeprecatedEqualOperator:
		g.report(n, deprecatedEqualOperator)
	case syntax.UndocumentedCloseTag:
		g.report(n, undocumentedCloseTag)
	case syntax.BuiltinName:
		if _, ok := syntax.LookupBuiltin(n.Text()); !ok {
			g.add(n, SeverityWarning, CodeUnknownBuiltin, fmt.Sprintf("Unknown builtin ?%s", n.Text()), "")
		}
	case syntax.ListStmt, syntax.SwitchStmt:
		g.scope = append(g.scope, n.Kind())
	case syntax.BreakStmt:
		switch {
		case len(g.scope) == 0:
			g.report(n, unexpectedBreak)
		case g.scope[len(g.scope)-1] == syntax.ListStmt:
			g.report(n, deprecatedListBreak)
		}
	}
	return true
}

func (g *generator) Leave(n *syntax.Node, _ string) {
	switch n.Kind() {
	case syntax.ListStmt, syntax.SwitchStmt:
		g.scope = g.scope[:len(g.scope)-1]
	}
}

// Write renders diags with hcl's text writer, quoting the offending lines
// from sources, which maps file names to their content.
func Write(w io.Writer, sources map[string][]byte, diags hcl.Diagnostics, width uint, color bool) error {
	files := make(map[string]*hcl.File, len(sources))
	for name, src := range sources {
		files[name] = &hcl.File{Bytes: src}
	}
	if err := hcl.NewDiagnosticTextWriter(w, files, width, color).WriteDiagnostics(diags); err != nil {
		return errors.Errorf("writing diagnostics: %w", err)
	}
	return nil
}
