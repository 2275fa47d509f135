package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/edit"
)

// EditResult is the outcome of one edit and what it told the operator.
type EditResult struct {
	Outcome       edit.Outcome        `json:"outcome"`
	Notifications []edit.Notification `json:"notifications"`
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <sheet> <row> <column> <value>",
		Short: "Write a cell and run the edit pass for it",
		Long: `Write value into the named column of a data row (1 is the first row
below the header), then react to the edit the way the workbook host does:
restyle the row, validate the value and scaffold or instantiate mini tables.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := strconv.Atoi(args[1])
			if err != nil || row < 1 {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid row %q", args[1]), err)
			}
			ev := edit.Event{Sheet: args[0], Row: row, Column: args[2], Value: args[3]}

			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				return runEdit(ctx, app, out, ev)
			})
		},
	}
}

func runEdit(ctx context.Context, app *application.App, out *OutputFormatter, ev edit.Event) error {
	if err := edit.WriteCell(ctx, app.Store, ev); err != nil {
		return out.Fail("edit", err)
	}

	rec := &edit.Recorder{}
	outcome, err := app.Orchestrator.HandleEdit(edit.ContextWithNotifier(ctx, rec), ev)
	if err != nil {
		return out.Fail("edit", err)
	}

	result := EditResult{Outcome: outcome, Notifications: rec.Notifications()}
	if result.Notifications == nil {
		result.Notifications = []edit.Notification{}
	}
	return out.Success(result, func(w io.Writer) {
		switch {
		case outcome.Ignored != "":
			fmt.Fprintf(w, "- %s row %d: ignored (%s)\n", ev.Sheet, ev.Row, outcome.Ignored)
		case outcome.Action != edit.ActionNone:
			fmt.Fprintf(w, "✓ %s row %d: %s group %s (%d row(s))\n", ev.Sheet, ev.Row, outcome.Action, outcome.GroupID, outcome.Rows)
		default:
			fmt.Fprintf(w, "✓ %s row %d: %d style change(s)\n", ev.Sheet, ev.Row, len(outcome.Styles))
		}
		for _, alert := range rec.Alerts() {
			fmt.Fprintf(w, "  ! %s\n", alert)
		}
	})
}
