// Package lists builds allowed-value lists for column validation.
//
// A list is a projection of one column of a source table, filtered by an
// equality or inequality predicate on another column. Lists drawn from a
// reference table become enumerated constraints; lists drawn from a live
// entity table become foreign-key constraints ("only in-house materials").
//
// The builder never deduplicates and preserves source row order. A source
// table that does not exist yet is reported with an error wrapping
// core.ErrTableNotFound so the configuration pass can skip the constraint
// and carry on.
package lists

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/core"
)

// Source names the table and columns a list is drawn from.
type Source struct {
	Table         string `json:"table" yaml:"table"`
	FilterColumn  string `json:"filterColumn" yaml:"filterColumn"`
	FilterValue   string `json:"filterValue" yaml:"filterValue"`
	Equals        bool   `json:"equals" yaml:"equals"`
	ProjectColumn string `json:"projectColumn" yaml:"projectColumn"`
}

func (s Source) String() string {
	op := "!="
	if s.Equals {
		op = "=="
	}
	return fmt.Sprintf("%s.%s where %s %s %q", s.Table, s.ProjectColumn, s.FilterColumn, op, s.FilterValue)
}

// FilterColumn scans rows and returns row[projectCol] for every row where
// (row[filterCol] == value) == equals. Indexes are 0-based; cells beyond the
// end of a short row read as blank.
func FilterColumn(rows [][]string, filterCol int, value string, equals bool, projectCol int) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if (core.CellAt(row, filterCol) == value) == equals {
			out = append(out, core.CellAt(row, projectCol))
		}
	}
	return out
}

// Build reads every data row of the source table and applies FilterColumn.
func Build(ctx context.Context, store core.Store, src Source) ([]string, error) {
	table, err := store.Table(ctx, src.Table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", src, err)
	}

	header, err := table.Header(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: read header: %w", src, err)
	}
	idx := core.MakeHeaderIndex(header)

	filterPos, err := idx.MustPosition(src.Table, src.FilterColumn)
	if err != nil {
		return nil, err
	}
	projectPos, err := idx.MustPosition(src.Table, src.ProjectColumn)
	if err != nil {
		return nil, err
	}

	rows, err := readAll(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", src, err)
	}

	return FilterColumn(rows, filterPos-1, src.FilterValue, src.Equals, projectPos-1), nil
}

// readAll returns every data row of table, or nil for an empty table.
func readAll(ctx context.Context, table core.Table) ([][]string, error) {
	lastRow, err := table.LastRow(ctx)
	if err != nil {
		return nil, err
	}
	lastCol, err := table.LastColumn(ctx)
	if err != nil {
		return nil, err
	}
	if lastRow < 1 || lastCol < 1 {
		return nil, nil
	}
	return table.Values(ctx, core.RowRange(1, lastRow, lastCol))
}

// Unique drops blank and repeated values, keeping the first occurrence.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
