package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/cmd/goftl/check"
	"github.com/walteh/goftl/cmd/goftl/complete"
	fmt_files "github.com/walteh/goftl/cmd/goftl/fmt-files"
	"github.com/walteh/goftl/cmd/goftl/hover"
	"github.com/walteh/goftl/cmd/goftl/parse"
	"github.com/walteh/goftl/cmd/goftl/tokens"
	logging "github.com/walteh/goftl/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "goftl",
		Short: "Parse, check and format FreeMarker templates",
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "debug", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := logging.NewLogger(os.Stderr, logging.LoggerOptions{
			Level: level,
			Color: isatty.IsTerminal(os.Stderr.Fd()),
			RunID: uuid.NewString(),
		})
		cmd.SetContext(logger.WithContext(cmd.Context()))
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:    "raw-version",
		Hidden: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(rootCmd.Version)
		},
	})

	rootCmd.AddCommand(parse.NewParseCommand())
	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(fmt_files.NewFmtCommand())
	rootCmd.AddCommand(tokens.NewTokensCommand())
	rootCmd.AddCommand(hover.NewHoverCommand())
	rootCmd.AddCommand(complete.NewCompleteCommand())

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("goftl: %w", err)
	}

	return nil
}
