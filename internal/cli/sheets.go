package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/core"
)

// SheetInfo describes a registered sheet and its state in the store.
type SheetInfo struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Layer   core.Layer `json:"layer"`
	Present bool       `json:"present"`
	Rows    int        `json:"rows"`
}

// NewSheetsCommand creates the sheets command.
func NewSheetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List registered sheets and their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				infos, err := listSheets(ctx, app.Store)
				if err != nil {
					return out.Fail("sheets", err)
				}
				return out.Success(infos, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SHEET\tLAYER\tROWS")
					for _, s := range infos {
						rows := "-"
						if s.Present {
							rows = fmt.Sprint(s.Rows)
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Layer, rows)
					}
					tw.Flush()
				})
			})
		},
	}
}

func listSheets(ctx context.Context, store core.Store) ([]SheetInfo, error) {
	var out []SheetInfo
	for _, def := range core.All() {
		info := SheetInfo{Key: def.Info.Key, Label: def.Info.Label, Layer: def.Info.Layer}
		t, err := store.Table(ctx, def.Info.Key)
		switch {
		case errors.Is(err, core.ErrTableNotFound):
		case err != nil:
			return nil, err
		default:
			info.Present = true
			if info.Rows, err = t.LastRow(ctx); err != nil {
				return nil, err
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules <sheet>",
		Short: "Show the validation rule stored on each column of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				rules, err := app.Orchestrator.SheetRules(ctx, args[0])
				if err != nil {
					return out.Fail("rules", err)
				}
				return out.Success(rules, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "COLUMN\tTYPE\tRULE")
					for _, r := range rules {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Column, r.Type, describeRule(r.Rule))
					}
					tw.Flush()
				})
			})
		},
	}
}

func describeRule(r *core.ColumnRule) string {
	switch {
	case r == nil:
		return "-"
	case len(r.Allowed) > 0:
		return fmt.Sprintf("one of %d value(s)", len(r.Allowed))
	case r.Min != nil:
		return fmt.Sprintf(">= %g", *r.Min)
	default:
		return core.FieldTypeName(r.Type)
	}
}
