package memory

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/core"
)

// table is the state of one grid. rows[0] is data row 1.
type table struct {
	header      []string
	headerStyle core.Style
	rows        [][]string
	styles      [][]core.Style
	rules       map[int]core.ColumnRule
}

// lastRow is the last data row holding a non-blank cell.
func (t *table) lastRow() int {
	for i := len(t.rows) - 1; i >= 0; i-- {
		for _, v := range t.rows[i] {
			if v != "" {
				return i + 1
			}
		}
	}
	return 0
}

// lastColumn is the last column with a header or a non-blank cell.
func (t *table) lastColumn() int {
	last := 0
	for i, h := range t.header {
		if h != "" {
			last = i + 1
		}
	}
	for _, row := range t.rows {
		for i := len(row) - 1; i >= last; i-- {
			if row[i] != "" {
				last = i + 1
				break
			}
		}
	}
	return last
}

func (t *table) cell(row, col int) string {
	if row-1 >= len(t.rows) {
		return ""
	}
	r := t.rows[row-1]
	if col-1 >= len(r) {
		return ""
	}
	return r[col-1]
}

func (t *table) style(row, col int) core.Style {
	if row-1 >= len(t.styles) {
		return core.StyleDefault
	}
	r := t.styles[row-1]
	if col-1 >= len(r) {
		return core.StyleDefault
	}
	return r[col-1].Normalize()
}

func (t *table) growRows(n int) {
	for len(t.rows) < n {
		t.rows = append(t.rows, nil)
	}
}

func (t *table) growStyles(n int) {
	for len(t.styles) < n {
		t.styles = append(t.styles, nil)
	}
}

// handle is the core.Table view of a named table. Every call re-resolves
// the name so a dropped table reports ErrTableNotFound.
type handle struct {
	store *Store
	name  string
}

func (h *handle) Name() string { return h.name }

func (h *handle) Header(_ context.Context) ([]string, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), t.header...), nil
}

func (h *handle) LastRow(_ context.Context) (int, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return 0, err
	}
	return t.lastRow(), nil
}

func (h *handle) LastColumn(_ context.Context) (int, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return 0, err
	}
	return t.lastColumn(), nil
}

func (h *handle) Values(_ context.Context, r core.Range) ([][]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return nil, err
	}
	out := make([][]string, r.NumRows)
	for i := range out {
		out[i] = make([]string, r.NumCols)
		for j := range out[i] {
			out[i][j] = t.cell(r.Row+i, r.Col+j)
		}
	}
	return out, nil
}

func (h *handle) SetValues(ctx context.Context, r core.Range, values [][]string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := checkShape(r, values); err != nil {
		return err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return err
	}
	t.growRows(r.LastRow())
	for i, vals := range values {
		row := t.rows[r.Row-1+i]
		for len(row) < r.LastCol() {
			row = append(row, "")
		}
		copy(row[r.Col-1:], vals)
		t.rows[r.Row-1+i] = row
	}
	h.store.stats.ValueWrites++
	return h.store.commit(ctx)
}

func (h *handle) Styles(_ context.Context, r core.Range) ([][]core.Style, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return nil, err
	}
	out := make([][]core.Style, r.NumRows)
	for i := range out {
		out[i] = make([]core.Style, r.NumCols)
		for j := range out[i] {
			out[i][j] = t.style(r.Row+i, r.Col+j)
		}
	}
	return out, nil
}

func (h *handle) SetStyle(ctx context.Context, r core.Range, s core.Style) error {
	if err := r.Validate(); err != nil {
		return err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return err
	}
	t.growStyles(r.LastRow())
	for i := r.Row - 1; i < r.LastRow(); i++ {
		row := t.styles[i]
		for len(row) < r.LastCol() {
			row = append(row, core.StyleDefault)
		}
		for j := r.Col - 1; j < r.LastCol(); j++ {
			row[j] = s.Normalize()
		}
		t.styles[i] = row
	}
	h.store.stats.StyleWrites++
	return h.store.commit(ctx)
}

func (h *handle) SetHeaderStyle(ctx context.Context, s core.Style) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return err
	}
	t.headerStyle = s.Normalize()
	h.store.stats.StyleWrites++
	return h.store.commit(ctx)
}

// HeaderStyle returns the style of the header row. Not part of core.Table.
func (h *handle) HeaderStyle() core.Style {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return core.StyleDefault
	}
	return t.headerStyle.Normalize()
}

func (h *handle) InsertRowsAfter(ctx context.Context, row, n int) error {
	if n <= 0 {
		return fmt.Errorf("insert %d rows: %w", n, core.ErrEmptyRange)
	}
	if row < 0 {
		return fmt.Errorf("insert after row %d: %w", row, core.ErrRangeOutOfBounds)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return err
	}
	if row < len(t.rows) {
		blank := make([][]string, n)
		t.rows = append(t.rows[:row], append(blank, t.rows[row:]...)...)
	}
	if row < len(t.styles) {
		blank := make([][]core.Style, n)
		t.styles = append(t.styles[:row], append(blank, t.styles[row:]...)...)
	}
	h.store.stats.RowInserts++
	return h.store.commit(ctx)
}

func (h *handle) ColumnRule(_ context.Context, col int) (core.ColumnRule, bool, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return core.ColumnRule{}, false, err
	}
	rule, ok := t.rules[col]
	return rule, ok, nil
}

func (h *handle) SetColumnRule(ctx context.Context, col int, rule core.ColumnRule) error {
	if col < 1 {
		return fmt.Errorf("column %d: %w", col, core.ErrRangeOutOfBounds)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	t, err := h.store.lookup(h.name)
	if err != nil {
		return err
	}
	t.rules[col] = rule
	h.store.stats.RuleWrites++
	return h.store.commit(ctx)
}

func checkShape(r core.Range, values [][]string) error {
	if len(values) != r.NumRows {
		return fmt.Errorf("%w: %d rows for %d", core.ErrShapeMismatch, len(values), r.NumRows)
	}
	for i, row := range values {
		if len(row) != r.NumCols {
			return fmt.Errorf("%w: row %d has %d cells for %d", core.ErrShapeMismatch, i+1, len(row), r.NumCols)
		}
	}
	return nil
}
