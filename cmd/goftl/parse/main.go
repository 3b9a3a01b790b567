package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/walteh/goftl/pkg/finder"
	"github.com/walteh/goftl/pkg/parser"
	"github.com/walteh/goftl/pkg/syntax"
)

const (
	OutputSExpr = "sexpr"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type Handler struct {
	Fs         afero.Fs
	Output     string
	Anonymous  bool
	Whitespace bool
}

func NewParseCommand() *cobra.Command {
	me := &Handler{Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "parse [file|dir|glob]...",
		Short: "print the syntax tree of templates",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVarP(&me.Output, "output", "o", OutputSExpr, "tree format: sexpr, json or yaml")
	cmd.Flags().BoolVar(&me.Anonymous, "anonymous", false, "include punctuation leaves in json and yaml output")
	cmd.Flags().BoolVar(&me.Whitespace, "whitespace", false, "include whitespace leaves in json and yaml output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args)
	}

	return cmd
}

type fileTree struct {
	File     string       `json:"file" yaml:"file"`
	HasError bool         `json:"has_error" yaml:"has_error"`
	Tree     *syntax.Dump `json:"tree" yaml:"tree"`
}

func (me *Handler) Run(ctx context.Context, out io.Writer, args []string) error {
	switch me.Output {
	case OutputSExpr, OutputJSON, OutputYAML:
	default:
		return errors.Errorf("unknown output format %q", me.Output)
	}

	files, errs := finder.New(me.Fs).Find(ctx, args)

	opts := syntax.DumpOptions{Anonymous: me.Anonymous, Whitespace: me.Whitespace}
	var trees []fileTree
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
		zerolog.Ctx(ctx).Debug().Str("file", file).Bool("has_error", tree.HasError()).Msg("parsed template")

		if me.Output == OutputSExpr {
			if _, err := fmt.Fprintf(out, "%s\n%s\n", file, tree.Root().SExpr()); err != nil {
				return errors.Errorf("writing tree: %w", err)
			}
			continue
		}
		trees = append(trees, fileTree{File: file, HasError: tree.HasError(), Tree: tree.Root().Dump(opts)})
	}

	switch me.Output {
	case OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(trees); err != nil {
			errs = multierr.Append(errs, errors.Errorf("encoding json: %w", err))
		}
	case OutputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(trees); err != nil {
			errs = multierr.Append(errs, errors.Errorf("encoding yaml: %w", err))
		}
		if err := enc.Close(); err != nil {
			errs = multierr.Append(errs, errors.Errorf("closing yaml encoder: %w", err))
		}
	}

	return errs
}
