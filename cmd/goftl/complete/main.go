package complete

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/completion"
	"github.com/walteh/goftl/pkg/parser"
	"github.com/walteh/goftl/pkg/position"
)

type Handler struct {
	Fs afero.Fs
}

func NewCompleteCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "complete [file] [line:column]",
		Short: "list completions for a position",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file, at string) error {
	line, col, ok := strings.Cut(at, ":")
	l, lerr := strconv.Atoi(line)
	c, cerr := strconv.Atoi(col)
	if !ok || lerr != nil || cerr != nil || l < 1 || c < 1 {
		return errors.Errorf("position %q is not a one-based line:column", at)
	}

	src, err := afero.ReadFile(me.Fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}
	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", file, err)
	}

	offset, err := tree.Locator().Offset(position.Place{Line: l - 1, Character: c - 1})
	if err != nil {
		return errors.Errorf("locating %s in %s: %w", at, file, err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range completion.At(ctx, tree, offset) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Label, item.Kind, item.Detail)
	}
	if err := tw.Flush(); err != nil {
		return errors.Errorf("writing completions: %w", err)
	}
	return nil
}
