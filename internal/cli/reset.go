package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every sheet and property of the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return WrapExitError(ExitCommandError, "reset deletes the whole workbook; pass --yes to confirm", nil)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				res, err := app.Reset().ResetAll(ctx)
				if err != nil {
					return out.Fail("reset", err)
				}
				return out.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Dropped %d sheet(s)\n", len(res.Dropped))
				})
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
