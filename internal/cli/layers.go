package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/core"
)

// NewLayersCommand creates the layers command group.
func NewLayersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "List and switch provenance layers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List layers and whether they are on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				statuses, err := app.Orchestrator.LayerStatuses(ctx)
				if err != nil {
					return out.Fail("list layers", err)
				}
				return out.Success(statuses, func(w io.Writer) {
					for _, s := range statuses {
						state := "off"
						if s.Enabled {
							state = "on"
						}
						fmt.Fprintf(w, "%-12s %-3s %v\n", s.Layer, state, s.Sheets)
					}
				})
			})
		},
	})
	cmd.AddCommand(newLayerSwitchCommand(rootOpts, "enable", true))
	cmd.AddCommand(newLayerSwitchCommand(rootOpts, "disable", false))
	return cmd
}

func newLayerSwitchCommand(rootOpts *RootOptions, verb string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <layer>",
		Short: verb + " a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer := core.Layer(args[0])
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				var err error
				if on {
					err = app.Orchestrator.EnableLayer(ctx, layer)
				} else {
					err = app.Orchestrator.DisableLayer(ctx, layer)
				}
				if err != nil {
					return out.Fail(verb+" layer", err)
				}
				return out.Success(map[string]any{"layer": layer, "enabled": on}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Layer %s %sd\n", layer, verb)
				})
			})
		},
	}
}
