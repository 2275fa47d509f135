package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/provtab/internal/core"
)

type table struct {
	pool *pgxpool.Pool
	name string
}

var _ core.Table = (*table)(nil)

func (t *table) Name() string { return t.name }

func (t *table) Header(ctx context.Context) ([]string, error) {
	var header []string
	err := t.pool.QueryRow(ctx, `SELECT header FROM wb_tables WHERE name = $1`, t.name).Scan(&header)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", t.name, core.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", t.name, err)
	}
	return header, nil
}

// LastRow returns the last row holding a non-blank value.
func (t *table) LastRow(ctx context.Context) (int, error) {
	if err := tableExists(ctx, t.pool, t.name); err != nil {
		return 0, err
	}
	var last int
	err := t.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(row_num), 0) FROM wb_cells
		WHERE table_name = $1 AND value <> ''`, t.name).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("%s: last row: %w", t.name, err)
	}
	return last, nil
}

// LastColumn returns the last header column or non-blank value column.
func (t *table) LastColumn(ctx context.Context) (int, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return 0, err
	}
	var last int
	err = t.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(col_num), 0) FROM wb_cells
		WHERE table_name = $1 AND value <> ''`, t.name).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("%s: last column: %w", t.name, err)
	}
	return max(last, len(header)), nil
}

func (t *table) Values(ctx context.Context, r core.Range) ([][]string, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	if err := tableExists(ctx, t.pool, t.name); err != nil {
		return nil, err
	}

	out := make([][]string, r.NumRows)
	for i := range out {
		out[i] = make([]string, r.NumCols)
	}

	rows, err := t.pool.Query(ctx, `
		SELECT row_num, col_num, value FROM wb_cells
		WHERE table_name = $1 AND row_num BETWEEN $2 AND $3 AND col_num BETWEEN $4 AND $5`,
		t.name, r.Row, r.LastRow(), r.Col, r.LastCol())
	if err != nil {
		return nil, fmt.Errorf("%s: read values: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, col int
		var v string
		if err := rows.Scan(&row, &col, &v); err != nil {
			return nil, fmt.Errorf("%s: scan value: %w", t.name, err)
		}
		out[row-r.Row][col-r.Col] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: read values: %w", t.name, err)
	}
	return out, nil
}

func (t *table) SetValues(ctx context.Context, r core.Range, values [][]string) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	if len(values) != r.NumRows {
		return fmt.Errorf("%s: %w: %d rows for %d", t.name, core.ErrShapeMismatch, len(values), r.NumRows)
	}
	for i, row := range values {
		if len(row) != r.NumCols {
			return fmt.Errorf("%s: %w: row %d has %d cells for %d", t.name, core.ErrShapeMismatch, i, len(row), r.NumCols)
		}
	}

	return t.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, row := range values {
			for j, v := range row {
				batch.Queue(`
					INSERT INTO wb_cells (table_name, row_num, col_num, value) VALUES ($1, $2, $3, $4)
					ON CONFLICT (table_name, row_num, col_num) DO UPDATE SET value = EXCLUDED.value`,
					t.name, r.Row+i, r.Col+j, v)
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%s: write values: %w", t.name, err)
		}
		return nil
	})
}

func (t *table) Styles(ctx context.Context, r core.Range) ([][]core.Style, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	if err := tableExists(ctx, t.pool, t.name); err != nil {
		return nil, err
	}

	out := make([][]core.Style, r.NumRows)
	for i := range out {
		out[i] = make([]core.Style, r.NumCols)
		for j := range out[i] {
			out[i][j] = core.StyleDefault
		}
	}

	rows, err := t.pool.Query(ctx, `
		SELECT row_num, col_num, background, font_color FROM wb_cells
		WHERE table_name = $1 AND row_num BETWEEN $2 AND $3 AND col_num BETWEEN $4 AND $5`,
		t.name, r.Row, r.LastRow(), r.Col, r.LastCol())
	if err != nil {
		return nil, fmt.Errorf("%s: read styles: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, col int
		var s core.Style
		if err := rows.Scan(&row, &col, &s.Background, &s.FontColor); err != nil {
			return nil, fmt.Errorf("%s: scan style: %w", t.name, err)
		}
		out[row-r.Row][col-r.Col] = s.Normalize()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: read styles: %w", t.name, err)
	}
	return out, nil
}

func (t *table) SetStyle(ctx context.Context, r core.Range, s core.Style) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	s = s.Normalize()

	return t.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO wb_cells (table_name, row_num, col_num, background, font_color)
			SELECT $1, rn, cn, $6, $7
			FROM generate_series($2::int, $3::int) AS rn, generate_series($4::int, $5::int) AS cn
			ON CONFLICT (table_name, row_num, col_num)
			DO UPDATE SET background = EXCLUDED.background, font_color = EXCLUDED.font_color`,
			t.name, r.Row, r.LastRow(), r.Col, r.LastCol(), s.Background, s.FontColor)
		if err != nil {
			return fmt.Errorf("%s: write styles: %w", t.name, err)
		}
		return nil
	})
}

func (t *table) SetHeaderStyle(ctx context.Context, s core.Style) error {
	tag, err := t.pool.Exec(ctx,
		`UPDATE wb_tables SET header_background = $2, header_font_color = $3 WHERE name = $1`,
		t.name, s.Background, s.FontColor)
	if err != nil {
		return fmt.Errorf("%s: header style: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", t.name, core.ErrTableNotFound)
	}
	return nil
}

// InsertRowsAfter shifts rows below row down by n. Rows move through
// negative numbers first so the primary key never collides mid-update.
func (t *table) InsertRowsAfter(ctx context.Context, row, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s: insert %d rows: %w", t.name, n, core.ErrEmptyRange)
	}
	if row < 0 {
		return fmt.Errorf("%s: insert after %d: %w", t.name, row, core.ErrRangeOutOfBounds)
	}

	return t.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE wb_cells SET row_num = -(row_num + $3) WHERE table_name = $1 AND row_num > $2`,
			t.name, row, n); err != nil {
			return fmt.Errorf("%s: shift rows: %w", t.name, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE wb_cells SET row_num = -row_num WHERE table_name = $1 AND row_num < 0`,
			t.name); err != nil {
			return fmt.Errorf("%s: shift rows: %w", t.name, err)
		}
		return nil
	})
}

func (t *table) ColumnRule(ctx context.Context, col int) (core.ColumnRule, bool, error) {
	var raw []byte
	err := t.pool.QueryRow(ctx,
		`SELECT rule FROM wb_rules WHERE table_name = $1 AND col_num = $2`, t.name, col).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ColumnRule{}, false, nil
	}
	if err != nil {
		return core.ColumnRule{}, false, fmt.Errorf("%s: rule %d: %w", t.name, col, err)
	}
	var rule core.ColumnRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return core.ColumnRule{}, false, fmt.Errorf("%s: decode rule %d: %w", t.name, col, err)
	}
	return rule, true, nil
}

func (t *table) SetColumnRule(ctx context.Context, col int, rule core.ColumnRule) error {
	if col < 1 {
		return fmt.Errorf("%s: column %d: %w", t.name, col, core.ErrRangeOutOfBounds)
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("%s: encode rule: %w", t.name, err)
	}
	return t.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO wb_rules (table_name, col_num, rule) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (table_name, col_num) DO UPDATE SET rule = EXCLUDED.rule, updated_at = now()`,
			t.name, col, string(data))
		if err != nil {
			return fmt.Errorf("%s: write rule %d: %w", t.name, col, err)
		}
		return nil
	})
}

// inTx runs fn in a transaction after checking the table exists.
func (t *table) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", t.name, err)
	}
	defer tx.Rollback(ctx)

	if err := tableExists(ctx, tx, t.name); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
