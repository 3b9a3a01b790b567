package tokens

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/parser"
	"github.com/walteh/goftl/pkg/semtok"
	"github.com/walteh/goftl/pkg/syntax"
)

type Handler struct {
	Fs         afero.Fs
	Whitespace bool
	// Semantic lists highlighting tokens instead of leaves.
	Semantic bool
}

func NewTokensCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "list the leaves of a template with their positions",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.Whitespace, "whitespace", false, "include whitespace inside directives")
	cmd.Flags().BoolVar(&me.Semantic, "semantic", false, "list highlighting classes instead of leaves")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file string) error {
	src, err := afero.ReadFile(me.Fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}
	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", file, err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if me.Semantic {
		for _, tok := range semtok.Tokens(ctx, tree) {
			mod := tok.Modifier.String()
			if mod == "" {
				mod = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%q\n", tok.Range.Start, tok.Type, mod, tok.Span.Text(src))
		}
	} else {
		me.writeLeaves(tw, tree)
	}
	if err := tw.Flush(); err != nil {
		return errors.Errorf("writing tokens: %w", err)
	}
	return nil
}

func (me *Handler) writeLeaves(w io.Writer, tree *syntax.Tree) {
	loc := tree.Locator()
	for _, leaf := range tree.Leaves() {
		if leaf.Kind() == syntax.Whitespace && !me.Whitespace {
			continue
		}
		kind := string(leaf.Kind())
		if leaf.IsMissing() {
			kind = "MISSING " + kind
		}
		fmt.Fprintf(w, "%s\t%s\t%q\n", loc.Place(leaf.Span().Start), kind, tree.Text(leaf))
	}
}
