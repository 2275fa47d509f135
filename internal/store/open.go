// Package store opens the workbook store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/store/memory"
	"github.com/JonMunkholm/provtab/internal/store/postgres"
	"github.com/JonMunkholm/provtab/internal/store/sqlite"
)

// Backend is a workbook store together with its property store.
type Backend interface {
	core.Store
	core.Properties
}

// Handle is an opened backend and the audit journal living beside it.
type Handle struct {
	Backend Backend
	Journal audit.Journal
	close   func()
}

// Close releases the backend. It is safe to call more than once.
func (h *Handle) Close() {
	if h.close != nil {
		h.close()
		h.close = nil
	}
}

// Open returns the backend named by cfg.Driver. The journal is stored in
// the same database, or kept in memory for the memory driver.
func Open(ctx context.Context, cfg config.StoreConfig) (*Handle, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		slog.Warn("using in-memory store, workbook is lost on exit")
		return &Handle{Backend: memory.New(), Journal: audit.NewMemory(0)}, nil

	case config.DriverSQLite:
		s, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		closeFn := func() {
			if err := s.Close(); err != nil {
				slog.Error("close sqlite store", "error", err)
			}
		}
		j, err := audit.NewSQL(ctx, s.DB())
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("opened sqlite store", "path", s.Path())
		return &Handle{Backend: s, Journal: j, close: closeFn}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.URL, postgres.PoolOptions{
			MaxConns: int32(cfg.MaxConns),
			MinConns: int32(cfg.MinConns),
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		s, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		j, err := audit.NewPostgres(ctx, s.Pool())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		slog.Info("connected to postgres store", "max_conns", cfg.MaxConns)
		return &Handle{Backend: s, Journal: j, close: pool.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
