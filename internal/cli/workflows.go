package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/minitable"
)

// NewWorkflowsCommand creates the workflows command group.
func NewWorkflowsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List, show and create reporting workflow templates",
	}
	cmd.AddCommand(newWorkflowsListCommand(rootOpts))
	cmd.AddCommand(newWorkflowsShowCommand(rootOpts))
	cmd.AddCommand(newWorkflowsCreateCommand(rootOpts))
	return cmd
}

func newWorkflowsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				templates, err := app.Orchestrator.Workflows(ctx)
				if err != nil {
					return out.Fail("list workflows", err)
				}
				if templates == nil {
					templates = []minitable.Template{}
				}
				return out.Success(templates, func(w io.Writer) {
					if len(templates) == 0 {
						fmt.Fprintln(w, "No workflow templates")
						return
					}
					for _, tpl := range templates {
						fmt.Fprintf(w, "%s (%d step(s), rows %d-%d)\n", tpl.Name, len(tpl.Steps), tpl.Rows.Start, tpl.Rows.End)
					}
				})
			})
		},
	}
}

func newWorkflowsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the steps of a workflow template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				steps, err := app.Orchestrator.Workflow(ctx, args[0])
				if err != nil {
					return out.Fail("show workflow", err)
				}
				return out.Success(steps, func(w io.Writer) {
					fmt.Fprintln(w, args[0])
					for _, s := range steps {
						fmt.Fprintf(w, "  %s. %s\n", s.Number, s.ProcessType)
					}
				})
			})
		},
	}
}

func newWorkflowsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var rawSteps []string

	cmd := &cobra.Command{
		Use:   "create <name> --step <number>:<processType> ...",
		Short: "Append a workflow template",
		Example: `  provtab workflows create anneal --step 1:mix --step 2:heat --step 3:cool
  provtab workflows create wash --step 1:rinse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(rawSteps)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --step", err)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, app *application.App, out *OutputFormatter) error {
				id, err := app.Orchestrator.CreateWorkflow(ctx, args[0], steps)
				if err != nil {
					return out.Fail("create workflow", err)
				}
				tpl := minitable.Template{Name: strings.TrimSpace(args[0]), GroupID: id, Steps: steps}
				return out.Success(tpl, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Created workflow %s with %d step(s) (group %s)\n", tpl.Name, len(steps), id)
				})
			})
		},
	}

	cmd.Flags().StringArrayVar(&rawSteps, "step", nil, "step as number:processType (repeatable)")
	return cmd
}

// parseSteps parses "number:processType" pairs. A bare process type takes
// its position as the step number.
func parseSteps(raw []string) ([]minitable.Step, error) {
	steps := make([]minitable.Step, 0, len(raw))
	for i, r := range raw {
		number, processType, ok := strings.Cut(r, ":")
		if !ok {
			number, processType = fmt.Sprint(i+1), r
		}
		number, processType = strings.TrimSpace(number), strings.TrimSpace(processType)
		if processType == "" {
			return nil, fmt.Errorf("step %q has no process type", r)
		}
		steps = append(steps, minitable.Step{Number: number, ProcessType: processType})
	}
	return steps, nil
}
