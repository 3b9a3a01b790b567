package check

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/goftl/pkg/diagnostic"
	"github.com/walteh/goftl/pkg/finder"
	"github.com/walteh/goftl/pkg/parser"
)

var ErrFailed = errors.Base("check failed")

type Handler struct {
	Fs afero.Fs
	// Width wraps diagnostic details; zero disables wrapping.
	Width uint
	Color bool
	// Strict fails on warnings too.
	Strict bool
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "check [file|dir|glob]...",
		Short: "report syntax errors and discouraged constructs",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().UintVar(&me.Width, "width", 100, "wrap diagnostic details at this width")
	cmd.Flags().BoolVar(&me.Color, "color", false, "colorize the report")
	cmd.Flags().BoolVar(&me.Strict, "strict", false, "fail on warnings as well as errors")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, args []string) error {
	files, errs := finder.New(me.Fs).Find(ctx, args)

	sources := map[string][]byte{}
	var diags hcl.Diagnostics
	for _, file := range files {
		src, err := afero.ReadFile(me.Fs, file)
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("reading %s: %w", file, err))
			continue
		}
		tree, err := parser.Parse(ctx, src)
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("parsing %s: %w", file, err))
			continue
		}
		sources[file] = src
		diags = append(diags, diagnostic.Generate(ctx, file, tree)...)
	}

	if err := diagnostic.Write(out, sources, diags, me.Width, me.Color); err != nil {
		return multierr.Append(errs, err)
	}

	var nerr, nwarn int
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			nerr++
		} else {
			nwarn++
		}
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(sources)).Int("errors", nerr).Int("warnings", nwarn).Msg("checked templates")

	if _, err := fmt.Fprintf(out, "%d files, %d errors, %d warnings\n", len(sources), nerr, nwarn); err != nil {
		errs = multierr.Append(errs, errors.Errorf("writing summary: %w", err))
	}

	if nerr > 0 || (me.Strict && nwarn > 0) {
		errs = multierr.Append(errs, errors.Errorf("%w: %d errors, %d warnings", ErrFailed, nerr, nwarn))
	}
	return errs
}
