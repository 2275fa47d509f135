package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const sqlSchema = `CREATE TABLE IF NOT EXISTS audit_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	severity   TEXT NOT NULL,
	sheet      TEXT NOT NULL DEFAULT '',
	row_num    INTEGER NOT NULL DEFAULT 0,
	col_name   TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL DEFAULT '',
	group_id   TEXT NOT NULL DEFAULT '',
	rows       INTEGER NOT NULL DEFAULT 0,
	detail     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_created ON audit_log (created_at)`

const entryColumns = `id, action, severity, sheet, row_num, col_name, value, outcome,
	group_id, rows, detail, error, actor, ip_address, created_at`

// SQL is a journal in a database/sql database, used with the SQLite store.
// Times are stored as Unix nanoseconds.
type SQL struct {
	db *sql.DB
}

// NewSQL creates the audit table if needed.
func NewSQL(ctx context.Context, db *sql.DB) (*SQL, error) {
	for _, stmt := range strings.Split(sqlSchema, ";") {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create audit table: %w", err)
		}
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), string(e.Severity), e.Sheet, e.Row, e.Column, e.Value, e.Outcome,
		e.GroupID, e.Rows, e.Detail, e.Error, e.Actor, e.IPAddress, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.Sheet != "" {
		where = append(where, "sheet = ?")
		args = append(args, f.Sheet)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}

	q := `SELECT ` + entryColumns + ` FROM audit_log`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e                Entry
			action, severity string
			created          int64
		)
		if err := rows.Scan(&e.ID, &action, &severity, &e.Sheet, &e.Row, &e.Column, &e.Value, &e.Outcome,
			&e.GroupID, &e.Rows, &e.Detail, &e.Error, &e.Actor, &e.IPAddress, &created); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action, e.Severity = Action(action), Severity(severity)
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQL) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ Journal = (*SQL)(nil)
