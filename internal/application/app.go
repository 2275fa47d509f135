// Package application assembles the workbook components from configuration.
// The HTTP server and the provtab CLI share it so both run the same store,
// palette, gate and metrics.
package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/provtab/internal/admin"
	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/metrics"
	"github.com/JonMunkholm/provtab/internal/store"
	"github.com/JonMunkholm/provtab/internal/upload"
	"github.com/JonMunkholm/provtab/internal/workbook"
)

// App is a wired workbook.
type App struct {
	Config       *config.Config
	Store        store.Backend
	Journal      audit.Journal
	Orchestrator *edit.Orchestrator
	Registry     *prometheus.Registry

	handle *store.Handle
}

// Option adjusts the orchestrator an App builds.
type Option = edit.Option

// New opens the configured store and builds the orchestrator over it.
// Close releases the store.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	palette, err := workbook.LoadPalette(cfg.Workbook.PaletteFile)
	if err != nil {
		return nil, err
	}

	h, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	base := []Option{
		edit.WithGate(core.NewEditGate(core.DefaultEditSlots, cfg.Edit.MaxWait)),
		edit.WithPalette(palette),
		edit.WithMetrics(metrics.New(reg)),
		edit.WithJournal(h.Journal),
	}
	orch := edit.New(h.Backend, h.Backend, append(base, opts...)...)

	return &App{
		Config:       cfg,
		Store:        h.Backend,
		Journal:      h.Journal,
		Orchestrator: orch,
		Registry:     reg,
		handle:       h,
	}, nil
}

// MetricsHandler serves the App's registry.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Reset returns the reset operation, sharing the orchestrator's gate.
func (a *App) Reset() *admin.Reset {
	return &admin.Reset{Store: a.Store, Props: a.Store, Gate: a.Orchestrator.Gate(), Journal: a.Journal}
}

// Seed applies a seed file. The pass holds the edit gate.
func (a *App) Seed(ctx context.Context, path string) (workbook.SeedReport, error) {
	seed, err := workbook.LoadSeed(path)
	if err != nil {
		return workbook.SeedReport{}, err
	}

	gate := a.Orchestrator.Gate()
	if err := gate.Acquire(ctx); err != nil {
		return workbook.SeedReport{}, err
	}
	defer gate.Release()

	report, err := workbook.Apply(ctx, a.Store, a.Store, seed)
	entry := audit.Entry{
		Action: audit.ActionSeed,
		Rows:   report.Rows,
		Detail: fmt.Sprintf("%s created=%d workflows=%d", path, len(report.Created), report.Workflows),
	}
	if err != nil {
		err = fmt.Errorf("seed %s: %w", path, err)
		entry.Error = err.Error()
		audit.Log(ctx, a.Journal, entry)
		return report, err
	}
	audit.Log(ctx, a.Journal, entry)
	slog.Info("seed applied",
		"path", path,
		"created", len(report.Created),
		"rows", report.Rows,
		"workflows", report.Workflows,
	)
	return report, nil
}

// Import appends the rows of a CSV file to sheet within the configured
// import limits.
func (a *App) Import(ctx context.Context, sheet string, r io.Reader, dryRun bool) (upload.Result, error) {
	return upload.New(a.Store, a.Orchestrator).Import(ctx, sheet, r, upload.Options{
		DryRun:   dryRun,
		MaxBytes: a.Config.Import.MaxBytes,
		MaxRows:  a.Config.Import.MaxRows,
	})
}

// SeedIfEmpty applies the configured seed file when the store has no tables.
// It reports whether a seed was applied.
func (a *App) SeedIfEmpty(ctx context.Context) (bool, error) {
	path := a.Config.Workbook.SeedFile
	if path == "" {
		return false, nil
	}
	tables, err := a.Store.Tables(ctx)
	if err != nil {
		return false, err
	}
	if len(tables) > 0 {
		slog.Debug("store not empty, skipping seed", "tables", len(tables))
		return false, nil
	}
	if _, err := a.Seed(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

// StartPruner prunes the journal with the configured retention until ctx
// is done. It blocks; run it in a goroutine.
func (a *App) StartPruner(ctx context.Context) {
	audit.StartPruner(ctx, a.Journal, audit.PruneConfig{
		Retention: a.Config.Audit.Retention,
		Interval:  a.Config.Audit.PruneInterval,
	})
}

// Close releases the store.
func (a *App) Close() {
	if a.handle != nil {
		a.handle.Close()
	}
}
