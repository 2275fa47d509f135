package minitable

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/core"
)

// grid is one read of a table: its header index and every data row.
type grid struct {
	name string
	idx  core.HeaderIndex
	rows [][]string
	cols int
}

func readGrid(ctx context.Context, t core.Table) (grid, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return grid{}, fmt.Errorf("%s: read header: %w", t.Name(), err)
	}
	g := grid{name: t.Name(), idx: core.MakeHeaderIndex(header)}

	lastRow, err := t.LastRow(ctx)
	if err != nil {
		return grid{}, fmt.Errorf("%s: last row: %w", t.Name(), err)
	}
	lastCol, err := t.LastColumn(ctx)
	if err != nil {
		return grid{}, fmt.Errorf("%s: last column: %w", t.Name(), err)
	}
	g.cols = max(lastCol, len(header))

	if lastRow > 0 && g.cols > 0 {
		g.rows, err = t.Values(ctx, core.RowRange(1, lastRow, g.cols))
		if err != nil {
			return grid{}, fmt.Errorf("%s: read rows: %w", t.Name(), err)
		}
	}
	return g, nil
}

// col returns the 0-based index of a named column.
func (g grid) col(name string) (int, error) {
	pos, err := g.idx.MustPosition(g.name, name)
	if err != nil {
		return 0, err
	}
	return pos - 1, nil
}

// ReadGroupIndex builds the group index of a table from its key column.
func ReadGroupIndex(ctx context.Context, t core.Table, keyColumn string) (GroupIndex, error) {
	g, err := readGrid(ctx, t)
	if err != nil {
		return GroupIndex{}, err
	}
	key, err := g.col(keyColumn)
	if err != nil {
		return GroupIndex{}, err
	}
	idx, err := BuildGroupIndex(column(g.rows, key))
	if err != nil {
		return GroupIndex{}, fmt.Errorf("%s: %w", t.Name(), err)
	}
	return idx, nil
}
