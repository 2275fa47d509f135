package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
)

// NewConfigureCommand creates the configure command.
func NewConfigureCommand(rootOpts *RootOptions) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create missing sheets and refresh column rules",
		Long: `Run the configuration pass: create every registered sheet the workbook
lacks, style its header and store the validation rule of each column.

With --layer only the sheets of that layer are configured; the layer must
be enabled first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				return runConfigure(ctx, app, out, layer)
			})
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "configure only this layer")
	return cmd
}

func runConfigure(ctx context.Context, app *application.App, out *OutputFormatter, layer string) error {
	rec := &edit.Recorder{}
	ctx = edit.ContextWithNotifier(ctx, rec)

	var (
		report edit.Report
		err    error
	)
	if layer != "" {
		report, err = app.Orchestrator.ConfigureLayer(ctx, core.Layer(layer))
	} else {
		report, err = app.Orchestrator.Configure(ctx)
	}
	if err != nil {
		return out.Fail("configure", err)
	}

	return out.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Configured %d sheet(s), %d column rule(s)\n", len(report.Configured), report.Rules)
		if len(report.Created) > 0 {
			fmt.Fprintf(w, "  created: %s\n", strings.Join(report.Created, ", "))
		}
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "  skipped %s.%s: source %s missing\n", s.Sheet, s.Column, s.Source)
		}
		for _, alert := range rec.Alerts() {
			fmt.Fprintf(w, "  ! %s\n", alert)
		}
	})
}
