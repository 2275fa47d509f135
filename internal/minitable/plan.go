package minitable

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/core"
)

// Columns holds the 1-based positions a plan writes to. StepNumber and
// ProcessType are zero on sheets without workflow steps.
type Columns struct {
	GroupID     int
	HeaderFlag  int
	StepNumber  int
	ProcessType int
	Width       int
}

// ColumnsFor resolves the plan columns of a sheet from its header row.
func ColumnsFor(header []string, def core.SheetDefinition, stepColumn, processTypeColumn string) (Columns, error) {
	idx := core.MakeHeaderIndex(header)
	var (
		c   Columns
		err error
	)
	if c.GroupID, err = idx.MustPosition(def.Info.Key, def.KeyColumn); err != nil {
		return Columns{}, err
	}
	if c.HeaderFlag, err = idx.MustPosition(def.Info.Key, def.HeaderFlagColumn); err != nil {
		return Columns{}, err
	}
	if stepColumn != "" {
		if c.StepNumber, err = idx.MustPosition(def.Info.Key, stepColumn); err != nil {
			return Columns{}, err
		}
	}
	if processTypeColumn != "" {
		if c.ProcessType, err = idx.MustPosition(def.Info.Key, processTypeColumn); err != nil {
			return Columns{}, err
		}
	}
	c.Width = len(header)
	return c, nil
}

// ColumnWrite is one column of values written from the anchor row down.
type ColumnWrite struct {
	Col    int
	Values []string
}

// WritePlan is the computed effect of creating or expanding a mini table.
// It holds no store handle; ApplyPlan performs it.
type WritePlan struct {
	AnchorRow int
	GroupID   string
	KeyCol    int
	Rows      int
	Writes    []ColumnWrite

	// Generated covers rows 2..n of the block. Nil for a single-row block.
	Generated *core.Range
}

// Inserts returns the number of rows inserted below the anchor.
func (p WritePlan) Inserts() int { return p.Rows - 1 }

// PlanInstance computes the rows of a reporting workflow instance anchored
// at the edited row: one shared id, TRUE on the first row only, one step
// per row, and de-emphasis for rows 2..n.
func PlanInstance(anchorRow int, cols Columns, steps []Step, newID string) (WritePlan, error) {
	if err := checkPlan(anchorRow, cols, newID); err != nil {
		return WritePlan{}, err
	}
	if len(steps) == 0 {
		return WritePlan{}, ErrNoSteps
	}
	if cols.StepNumber < 1 || cols.ProcessType < 1 {
		return WritePlan{}, fmt.Errorf("instance plan: step columns: %w", core.ErrColumnNotFound)
	}

	n := len(steps)
	ids := make([]string, n)
	flags := make([]string, n)
	numbers := make([]string, n)
	types := make([]string, n)
	for i, s := range steps {
		ids[i] = newID
		flags[i] = core.FlagFalse
		numbers[i] = s.Number
		types[i] = s.ProcessType
	}
	flags[0] = core.FlagTrue

	plan := WritePlan{
		AnchorRow: anchorRow,
		GroupID:   newID,
		KeyCol:    cols.GroupID,
		Rows:      n,
		Writes: []ColumnWrite{
			{Col: cols.GroupID, Values: ids},
			{Col: cols.HeaderFlag, Values: flags},
			{Col: cols.StepNumber, Values: numbers},
			{Col: cols.ProcessType, Values: types},
		},
	}
	if n > 1 {
		plan.Generated = &core.Range{Row: anchorRow + 1, Col: 1, NumRows: n - 1, NumCols: cols.Width}
	}
	return plan, nil
}

// PlanScaffold computes a single-row group for a new row.
func PlanScaffold(row int, cols Columns, newID string) (WritePlan, error) {
	if err := checkPlan(row, cols, newID); err != nil {
		return WritePlan{}, err
	}
	return WritePlan{
		AnchorRow: row,
		GroupID:   newID,
		KeyCol:    cols.GroupID,
		Rows:      1,
		Writes: []ColumnWrite{
			{Col: cols.GroupID, Values: []string{newID}},
			{Col: cols.HeaderFlag, Values: []string{core.FlagTrue}},
		},
	}, nil
}

func checkPlan(row int, cols Columns, newID string) error {
	if newID == "" {
		return errors.New("plan: empty group id")
	}
	if row < 1 {
		return fmt.Errorf("plan: anchor row %d: %w", row, core.ErrRangeOutOfBounds)
	}
	if cols.GroupID < 1 || cols.HeaderFlag < 1 || cols.Width < 1 {
		return fmt.Errorf("plan: group columns: %w", core.ErrColumnNotFound)
	}
	return nil
}

// ApplyPlan performs a plan in order: refuse an id already in the table,
// insert rows below the anchor, write values column by column, then style
// the generated rows. Every range is validated before it is written.
//
// There is no rollback; a failure part way leaves the rows written so far.
func ApplyPlan(ctx context.Context, t core.Table, plan WritePlan) error {
	if err := checkUnused(ctx, t, plan.KeyCol, plan.GroupID); err != nil {
		return err
	}

	if n := plan.Inserts(); n > 0 {
		if err := t.InsertRowsAfter(ctx, plan.AnchorRow, n); err != nil {
			return fmt.Errorf("%s: insert %d rows after %d: %w", t.Name(), n, plan.AnchorRow, err)
		}
	}

	for _, w := range plan.Writes {
		r := core.Range{Row: plan.AnchorRow, Col: w.Col, NumRows: len(w.Values), NumCols: 1}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s: column %d: %w", t.Name(), w.Col, err)
		}
		if err := t.SetValues(ctx, r, vertical(w.Values)); err != nil {
			return fmt.Errorf("%s: write column %d: %w", t.Name(), w.Col, err)
		}
	}

	if plan.Generated != nil {
		if err := plan.Generated.Validate(); err != nil {
			return fmt.Errorf("%s: generated rows: %w", t.Name(), err)
		}
		if err := t.SetStyle(ctx, *plan.Generated, core.StyleGenerated); err != nil {
			return fmt.Errorf("%s: style generated rows: %w", t.Name(), err)
		}
	}
	return nil
}

// checkUnused rejects a group id that already appears in the key column.
func checkUnused(ctx context.Context, t core.Table, keyCol int, id string) error {
	last, err := t.LastRow(ctx)
	if err != nil {
		return fmt.Errorf("%s: last row: %w", t.Name(), err)
	}
	if last < 1 {
		return nil
	}
	ids, err := t.Values(ctx, core.Range{Row: 1, Col: keyCol, NumRows: last, NumCols: 1})
	if err != nil {
		return fmt.Errorf("%s: read group ids: %w", t.Name(), err)
	}
	for i, row := range ids {
		if core.CellAt(row, 0) == id {
			return fmt.Errorf("%w: %s already used in row %d", ErrGroupReused, id, i+1)
		}
	}
	return nil
}

func vertical(values []string) [][]string {
	out := make([][]string, len(values))
	for i, v := range values {
		out[i] = []string{v}
	}
	return out
}
