package hover

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/hover"
	"github.com/walteh/goftl/pkg/parser"
	"github.com/walteh/goftl/pkg/position"
)

type Handler struct {
	Fs afero.Fs
}

func NewHoverCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "hover [file] [line:column]",
		Short: "describe the builtin or macro namespace at a position",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
	}

	return cmd
}

// parsePlace reads a one-based "line:column".
func parsePlace(s string) (position.Place, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return position.Place{}, errors.Errorf("position %q is not line:column", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return position.Place{}, errors.Errorf("invalid line in %q", s)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return position.Place{}, errors.Errorf("invalid column in %q", s)
	}
	return position.Place{Line: l - 1, Character: c - 1}, nil
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file, at string) error {
	place, err := parsePlace(at)
	if err != nil {
		return err
	}

	src, err := afero.ReadFile(me.Fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}
	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", file, err)
	}

	offset, err := tree.Locator().Offset(place)
	if err != nil {
		return errors.Errorf("locating %s in %s: %w", at, file, err)
	}

	info := hover.At(ctx, tree, offset)
	if info == nil {
		return nil
	}
	if _, err := fmt.Fprintf(out, "%s-%s\n%s\n", info.Range.Start, info.Range.End, info.Content); err != nil {
		return errors.Errorf("writing hover: %w", err)
	}
	return nil
}
