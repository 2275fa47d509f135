package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS wb_audit_log (
	id         UUID PRIMARY KEY,
	action     TEXT NOT NULL,
	severity   TEXT NOT NULL,
	sheet      TEXT NOT NULL DEFAULT '',
	row_num    INT  NOT NULL DEFAULT 0,
	col_name   TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL DEFAULT '',
	group_id   TEXT NOT NULL DEFAULT '',
	rows       INT  NOT NULL DEFAULT 0,
	detail     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS wb_audit_log_created_at ON wb_audit_log (created_at DESC);
`

// Postgres is a journal in the workbook's PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the audit table if needed.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO wb_audit_log (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, string(e.Action), string(e.Severity), e.Sheet, e.Row, e.Column, e.Value, e.Outcome,
		e.GroupID, e.Rows, e.Detail, e.Error, e.Actor, e.IPAddress, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Action != "" {
		where = append(where, "action = "+arg(string(f.Action)))
	}
	if f.Sheet != "" {
		where = append(where, "sheet = "+arg(f.Sheet))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= "+arg(f.Since))
	}

	q := `SELECT id::text, action, severity, sheet, row_num, col_name, value, outcome,
		group_id, rows, detail, error, actor, ip_address, created_at FROM wb_audit_log`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC LIMIT ` + arg(f.limit())

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e                Entry
			action, severity string
		)
		err := row.Scan(&e.ID, &action, &severity, &e.Sheet, &e.Row, &e.Column, &e.Value, &e.Outcome,
			&e.GroupID, &e.Rows, &e.Detail, &e.Error, &e.Actor, &e.IPAddress, &e.CreatedAt)
		e.Action, e.Severity = Action(action), Severity(severity)
		return e, err
	})
}

func (p *Postgres) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM wb_audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Journal = (*Postgres)(nil)
