package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/upload"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <sheet> <file>",
		Short: "Append the rows of a CSV file to a sheet",
		Long: `Append the rows of a CSV file to a sheet.

The header row is located among the first rows of the file and matched to
sheet columns by name. Rows that break a column rule are skipped and
listed. Every appended row is handled as an edit, so it is scaffolded or
expanded into workflow rows. Use - to read the file from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, path := args[0], args[1]

			in := cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "open "+path, err)
				}
				defer f.Close()
				in = f
			}

			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				res, err := app.Import(ctx, sheet, in, dryRun)
				if err != nil {
					return out.Fail("import", err)
				}
				return out.Success(res, func(w io.Writer) { printImport(w, res) })
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and preview without writing")
	return cmd
}

func printImport(w io.Writer, res upload.Result) {
	s := res.Summary
	if res.DryRun {
		fmt.Fprintf(w, "Preview of %s: %d row(s), %d valid, %d invalid\n", res.Sheet, s.TotalRows, s.ValidRows, s.ErrorRows)
	} else {
		fmt.Fprintf(w, "✓ Imported %d row(s) into %s", res.Appended, res.Sheet)
		if res.Appended > 0 {
			fmt.Fprintf(w, " (rows %d-%d)", res.FirstRow, res.LastRow)
		}
		fmt.Fprintf(w, ", %d scaffolded, %d workflow(s) instantiated\n", res.Scaffolded, res.Instantiated)
	}
	fmt.Fprintf(w, "  columns: %s\n", strings.Join(res.Mapped, ", "))
	if len(res.Unknown) > 0 {
		fmt.Fprintf(w, "  ignored unknown columns: %s\n", strings.Join(res.Unknown, ", "))
	}
	if len(res.Generated) > 0 {
		fmt.Fprintf(w, "  ignored generated columns: %s\n", strings.Join(res.Generated, ", "))
	}
	for _, e := range res.ErrorSamples {
		fmt.Fprintf(w, "  ✗ line %d: %s\n", e.Line, strings.Join(e.Errors, "; "))
	}
	if more := s.ErrorRows - len(res.ErrorSamples); more > 0 {
		fmt.Fprintf(w, "  ... and %d more invalid row(s)\n", more)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "  ! row %d (line %d): %s [%s]\n", f.Row, f.Line, f.Reason, f.Code)
	}
}
