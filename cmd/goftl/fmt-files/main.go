package fmt_files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/goftl/pkg/finder"
	"github.com/walteh/goftl/pkg/format"
	"github.com/walteh/goftl/pkg/parser"
)

type Handler struct {
	Fs afero.Fs
	// Write rewrites files in place instead of printing them.
	Write bool
	// List prints the names of files whose formatting differs.
	List bool
	// Indent overrides .editorconfig: "tab" or a number of spaces.
	Indent string
}

func NewFmtCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "fmt [file|dir|glob]...",
		Short: "re-indent directives by their nesting",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().BoolVarP(&me.Write, "write", "w", false, "write the result back to the source file")
	cmd.Flags().BoolVarP(&me.List, "list", "l", false, "list files whose formatting differs")
	cmd.Flags().StringVar(&me.Indent, "indent", "", "indent unit, \"tab\" or a number of spaces (default from .editorconfig)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args)
	}

	return cmd
}

func (me *Handler) options(file string) (format.Options, error) {
	opts, err := format.LoadOptions(me.Fs, file)
	if err != nil {
		return opts, err
	}
	switch me.Indent {
	case "":
	case "tab":
		opts.UseTabs = true
	default:
		n, err := strconv.Atoi(me.Indent)
		if err != nil || n <= 0 {
			return opts, errors.Errorf("invalid indent %q", me.Indent)
		}
		opts.UseTabs = false
		opts.IndentSize = n
	}
	return opts, nil
}

func (me *Handler) Run(ctx context.Context, out io.Writer, args []string) error {
	files, errs := finder.New(me.Fs).Find(ctx, args)

	for _, file := range files {
		if err := me.formatFile(ctx, out, file); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (me *Handler) formatFile(ctx context.Context, out io.Writer, file string) error {
	opts, err := me.options(file)
	if err != nil {
		return errors.Errorf("configuring %s: %w", file, err)
	}

	src, err := afero.ReadFile(me.Fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}
	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", file, err)
	}

	formatted := format.Source(ctx, tree, opts)
	changed := !bytes.Equal(src, formatted)

	zerolog.Ctx(ctx).Debug().Str("file", file).Bool("changed", changed).Msg("formatted template")

	if me.List && changed {
		if _, err := fmt.Fprintln(out, file); err != nil {
			return errors.Errorf("writing file name: %w", err)
		}
	}
	if me.Write {
		if !changed {
			return nil
		}
		info, err := me.Fs.Stat(file)
		if err != nil {
			return errors.Errorf("reading %s: %w", file, err)
		}
		if err := afero.WriteFile(me.Fs, file, formatted, info.Mode().Perm()); err != nil {
			return errors.Errorf("writing %s: %w", file, err)
		}
		return nil
	}
	if !me.List {
		if _, err := out.Write(formatted); err != nil {
			return errors.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}
