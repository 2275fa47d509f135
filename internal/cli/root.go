// Package cli implements the provtab command line.
//
// Every command opens the workbook named by the environment (STORE_DRIVER,
// SQLITE_PATH, DATABASE_URL, ...), runs one operation and closes it again.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Lookup resolves configuration variables. Nil reads the environment.
	Lookup config.LookupFunc
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the provtab CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provtab",
		Short: "provtab - provenance workbook tools",
		Long:  "Configure, seed and edit a provenance workbook from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewConfigureCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewSheetsCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewWorkflowsCommand(opts))
	cmd.AddCommand(NewLayersCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

// openApp loads configuration and opens the workbook.
func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*application.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Lookup != nil {
		cfg, err = config.LoadFrom(opts.Lookup)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logging.Setup(logOut, level, cfg.Logging.Format)

	app, err := application.New(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open workbook", err)
	}
	return app, nil
}

// withApp runs fn against an opened workbook.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, app *application.App, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	if actor := os.Getenv("USER"); actor != "" {
		ctx = core.ContextWithActor(ctx, actor)
	}
	return fn(ctx, app, newFormatter(cmd, opts))
}
