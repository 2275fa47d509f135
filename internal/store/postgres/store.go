// Package postgres stores the workbook in PostgreSQL.
//
// Cells are stored sparsely, one row per written cell, keyed by
// (table, row, column). Blank cells with default styling may be absent.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/provtab/internal/core"
)

// Store is a core.Store and core.Properties backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ core.Store      = (*Store)(nil)
	_ core.Properties = (*Store)(nil)
)

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// Connect parses url, opens a pool and pings it.
func Connect(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// New applies the schema and returns a store over pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool returns the connection pool the store runs on.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Table returns a handle to the named table.
func (s *Store) Table(ctx context.Context, name string) (core.Table, error) {
	if err := s.exists(ctx, name); err != nil {
		return nil, err
	}
	return &table{pool: s.pool, name: name}, nil
}

// CreateTable creates a table with the given header.
func (s *Store) CreateTable(ctx context.Context, name string, header []string) (core.Table, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO wb_tables (name, header) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, header)
	if err != nil {
		return nil, fmt.Errorf("%s: create: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: %w", name, core.ErrTableExists)
	}
	return &table{pool: s.pool, name: name}, nil
}

// Tables lists table names in creation order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM wb_tables ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// DropTable removes a table with its cells and rules.
func (s *Store) DropTable(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wb_tables WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("%s: drop: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", name, core.ErrTableNotFound)
	}
	return nil
}

// Get returns a property value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM wb_properties WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get property %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes a property value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wb_properties (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every property.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM wb_properties`); err != nil {
		return fmt.Errorf("delete properties: %w", err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, name string) error {
	return tableExists(ctx, s.pool, name)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tableExists(ctx context.Context, q querier, name string) error {
	var ok bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wb_tables WHERE name = $1)`, name).Scan(&ok); err != nil {
		return fmt.Errorf("%s: lookup: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", name, core.ErrTableNotFound)
	}
	return nil
}
