package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/audit"
)

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		action string
		sheet  string
		since  time.Duration
		limit  int
		asCSV  bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the workbook audit journal, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				f := audit.Filter{Action: audit.Action(action), Sheet: sheet, Limit: limit}
				if since > 0 {
					f.Since = time.Now().Add(-since)
				}
				entries, err := app.Journal.List(ctx, f)
				if err != nil {
					return out.Fail("audit", err)
				}
				if entries == nil {
					entries = []audit.Entry{}
				}
				if asCSV {
					return audit.WriteCSV(out.Writer, entries)
				}
				return out.Success(entries, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "TIME\tACTION\tSEVERITY\tSHEET\tROW\tACTOR\tDETAIL")
					for _, e := range entries {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
							e.CreatedAt.Local().Format(time.DateTime),
							e.Action, e.Severity, dash(e.Sheet), dash(rowLabel(e.Row)), dash(e.Actor), describeEntry(e))
					}
					tw.Flush()
				})
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "only entries of this action (edit, configure, reset, ...)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "only entries on this sheet")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", audit.DefaultLimit, "maximum number of entries")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}

func describeEntry(e audit.Entry) string {
	var s string
	switch {
	case e.Action == audit.ActionEdit:
		s = fmt.Sprintf("%s=%q %s", e.Column, e.Value, e.Outcome)
	case e.Detail != "":
		s = e.Detail
	}
	if e.Error != "" {
		s += " error: " + e.Error
	}
	return s
}

func rowLabel(row int) string {
	if row == 0 {
		return ""
	}
	return fmt.Sprint(row)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
