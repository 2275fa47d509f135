package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var configure bool

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a YAML seed file into the workbook",
		Long: `Append the rows, workflow templates and layer switches of a seed file.

Missing sheets are created from their registered layout. With --configure
the configuration pass runs afterwards so list columns pick up the new rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				report, err := app.Seed(ctx, args[0])
				if err != nil {
					return out.Fail("seed", err)
				}
				out.VerboseLog("seeded %s", args[0])
				if configure {
					if _, err := app.Orchestrator.Configure(ctx); err != nil {
						return out.Fail("configure", err)
					}
				}
				return out.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Seeded %d row(s), %d workflow(s), %d layer switch(es)\n",
						report.Rows, report.Workflows, report.Layers)
					for _, name := range report.Created {
						fmt.Fprintf(w, "  created %s\n", name)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&configure, "configure", false, "run the configuration pass after seeding")
	return cmd
}
