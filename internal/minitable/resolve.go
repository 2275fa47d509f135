package minitable

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
)

// Step is one (step number, process type) pair of a reporting workflow.
type Step struct {
	Number      string `json:"stepNumber" yaml:"stepNumber"`
	ProcessType string `json:"processType" yaml:"processType"`
}

// Template is a reporting workflow stored in the templates table.
type Template struct {
	Name    string   `json:"name"`
	GroupID string   `json:"groupId"`
	Rows    Interval `json:"rows"`
	Steps   []Step   `json:"steps"`
}

// templateColumns are the 0-based positions of the template table columns.
type templateColumns struct {
	name, groupID, flag, step, processType int
}

func resolveTemplateColumns(g grid) (templateColumns, error) {
	var (
		c   templateColumns
		err error
	)
	for _, f := range []struct {
		dst  *int
		name string
	}{
		{&c.name, sheets.ColWorkflowName},
		{&c.groupID, sheets.ColGroupID},
		{&c.flag, sheets.ColHeaderFlag},
		{&c.step, sheets.ColStepNumber},
		{&c.processType, sheets.ColProcessType},
	} {
		if *f.dst, err = g.col(f.name); err != nil {
			return templateColumns{}, err
		}
	}
	return c, nil
}

// ResolveWorkflow returns the ordered steps of the named workflow.
//
// The first row whose name equals name starts the run; its group id is
// looked up in the group index and the run ends at the last row carrying
// that id. The name must identify a single group: the same name under two
// group ids is ErrDuplicateWorkflow.
func ResolveWorkflow(ctx context.Context, t core.Table, name string) ([]Step, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrWorkflowNotFound)
	}

	g, err := readGrid(ctx, t)
	if err != nil {
		return nil, err
	}
	cols, err := resolveTemplateColumns(g)
	if err != nil {
		return nil, err
	}

	start := -1
	for i, row := range g.rows {
		if core.CellAt(row, cols.name) != name {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if core.CellAt(row, cols.groupID) != core.CellAt(g.rows[start], cols.groupID) {
			return nil, fmt.Errorf("%w: %q in rows %d and %d", ErrDuplicateWorkflow, name, start+1, i+1)
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %q", ErrWorkflowNotFound, name)
	}

	end := start
	if id := core.CellAt(g.rows[start], cols.groupID); id != "" {
		idx, err := BuildGroupIndex(column(g.rows, cols.groupID))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
		iv, _ := idx.Extent(id)
		end = iv.End - 1
	}

	steps := make([]Step, 0, end-start+1)
	for _, row := range g.rows[start : end+1] {
		steps = append(steps, Step{
			Number:      core.CellAt(row, cols.step),
			ProcessType: core.CellAt(row, cols.processType),
		})
	}
	return steps, nil
}

// Templates lists every workflow in the templates table, in row order.
func Templates(ctx context.Context, t core.Table) ([]Template, error) {
	g, err := readGrid(ctx, t)
	if err != nil {
		return nil, err
	}
	cols, err := resolveTemplateColumns(g)
	if err != nil {
		return nil, err
	}
	idx, err := BuildGroupIndex(column(g.rows, cols.groupID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), err)
	}

	var out []Template
	for _, iv := range idx.Intervals() {
		first := g.rows[iv.Start-1]
		tpl := Template{
			Name:    core.CellAt(first, cols.name),
			GroupID: iv.GroupID,
			Rows:    iv,
		}
		for _, row := range g.rows[iv.Start-1 : iv.End] {
			tpl.Steps = append(tpl.Steps, Step{
				Number:      core.CellAt(row, cols.step),
				ProcessType: core.CellAt(row, cols.processType),
			})
		}
		out = append(out, tpl)
	}
	return out, nil
}

// CreateTemplate appends a workflow to the templates table and returns its
// group id. The name goes on the header row only; rows 2..n are styled as
// generated.
func CreateTemplate(ctx context.Context, t core.Table, name string, steps []Step) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(steps) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoSteps, name)
	}

	g, err := readGrid(ctx, t)
	if err != nil {
		return "", err
	}
	cols, err := resolveTemplateColumns(g)
	if err != nil {
		return "", err
	}
	for i, row := range g.rows {
		if core.CellAt(row, cols.name) == name {
			return "", fmt.Errorf("%w: %q already defined in row %d", ErrDuplicateWorkflow, name, i+1)
		}
	}

	id := NewGroupID()
	block := make([][]string, len(steps))
	for i, s := range steps {
		row := make([]string, g.cols)
		row[cols.groupID] = id
		row[cols.flag] = core.FlagFalse
		if i == 0 {
			row[cols.flag] = core.FlagTrue
			row[cols.name] = name
		}
		row[cols.step] = s.Number
		row[cols.processType] = s.ProcessType
		block[i] = row
	}

	first := len(g.rows) + 1
	r := core.RowRange(first, len(block), g.cols)
	if err := r.Validate(); err != nil {
		return "", err
	}
	if err := t.SetValues(ctx, r, block); err != nil {
		return "", fmt.Errorf("%s: write template %q: %w", t.Name(), name, err)
	}

	if len(steps) > 1 {
		generated := core.RowRange(first+1, len(steps)-1, g.cols)
		if err := t.SetStyle(ctx, generated, core.StyleGenerated); err != nil {
			return "", fmt.Errorf("%s: style template %q: %w", t.Name(), name, err)
		}
	}
	return id, nil
}
