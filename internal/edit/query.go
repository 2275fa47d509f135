package edit

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/minitable"
)

// Workflows lists the reporting workflow templates.
func (o *Orchestrator) Workflows(ctx context.Context) ([]minitable.Template, error) {
	t, err := o.store.Table(ctx, sheets.WorkflowTemplates)
	if err != nil {
		return nil, err
	}
	return minitable.Templates(ctx, t)
}

// Workflow resolves the steps of the named workflow.
func (o *Orchestrator) Workflow(ctx context.Context, name string) ([]minitable.Step, error) {
	t, err := o.store.Table(ctx, sheets.WorkflowTemplates)
	if err != nil {
		return nil, err
	}
	return minitable.ResolveWorkflow(ctx, t, name)
}

// CreateWorkflow appends a workflow template and returns its group id.
// The templates sheet must exist; Configure creates it.
func (o *Orchestrator) CreateWorkflow(ctx context.Context, name string, steps []minitable.Step) (id string, err error) {
	if err := o.gate.Acquire(ctx); err != nil {
		return "", err
	}
	defer o.gate.Release()
	defer func() {
		o.record(ctx, audit.Entry{
			Action:  audit.ActionWorkflowCreate,
			Sheet:   sheets.WorkflowTemplates,
			GroupID: id,
			Rows:    len(steps),
			Detail:  name,
		}, err)
	}()

	t, err := o.store.Table(ctx, sheets.WorkflowTemplates)
	if err != nil {
		return "", err
	}
	id, err = minitable.CreateTemplate(ctx, t, name, steps)
	if err != nil {
		return "", err
	}
	o.log(ctx).Info("workflow template created", "workflow", name, "steps", len(steps), "group_id", id)
	return id, nil
}

// ColumnRuleView is the stored rule of one sheet column.
type ColumnRuleView struct {
	Column string           `json:"column"`
	Type   string           `json:"type"`
	Rule   *core.ColumnRule `json:"rule,omitempty"`
}

// SheetRules returns the rule stored on each column of a registered sheet.
// Columns without a rule have a nil Rule.
func (o *Orchestrator) SheetRules(ctx context.Context, sheet string) ([]ColumnRuleView, error) {
	def, ok := core.Get(sheet)
	if !ok {
		return nil, fmt.Errorf("%q: %w", sheet, core.ErrUnknownSheet)
	}
	t, err := o.store.Table(ctx, def.Info.Key)
	if err != nil {
		return nil, err
	}
	header, err := t.Header(ctx)
	if err != nil {
		return nil, err
	}
	idx := core.MakeHeaderIndex(header)

	out := make([]ColumnRuleView, 0, len(def.Columns))
	for _, col := range def.Columns {
		view := ColumnRuleView{Column: col.Name, Type: core.FieldTypeName(col.Type)}
		pos, ok := idx.Position(col.Name)
		if ok {
			rule, found, err := t.ColumnRule(ctx, pos)
			if err != nil {
				return nil, err
			}
			if found {
				view.Rule = &rule
			}
		}
		out = append(out, view)
	}
	return out, nil
}
