// Package diff renders readable differences for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"

	"github.com/walteh/goftl/pkg/syntax"
)

// Values pretty prints both values, exported fields only, and returns a line
// diff of the two. It is empty when they print the same.
func Values[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)

	d := diff.Diff(printer.Sprint(got), printer.Sprint(want))
	if d == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nto turn GOT into WANT:\n\n")
	sb.WriteString("add:    +\n")
	sb.WriteString("remove: -\n\n")
	sb.WriteString(d)
	return sb.String()
}

// Trees compares two syntax trees down to every leaf, whitespace included.
func Trees(want, got *syntax.Tree) string {
	opts := syntax.DumpOptions{Anonymous: true, Whitespace: true}
	if d := Values(want.Root().Dump(opts), got.Root().Dump(opts)); d != "" {
		return d
	}
	return Values(want.Checkpoints(), got.Checkpoints())
}
