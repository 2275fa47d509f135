package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/provtab/internal/application"
	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/logging"
	"github.com/JonMunkholm/provtab/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"edit_max_wait", cfg.Edit.MaxWait,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_retention", cfg.Audit.Retention,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()
	app, err := application.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to open workbook", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("sheets registered", "count", core.SheetCount(), "layers", len(edit.Layers())+1)

	if seeded, err := app.SeedIfEmpty(ctx); err != nil {
		slog.Error("failed to seed workbook", "error", err)
		os.Exit(1)
	} else if seeded {
		if _, err := app.Orchestrator.Configure(ctx); err != nil {
			slog.Error("failed to configure seeded workbook", "error", err)
			os.Exit(1)
		}
	}

	pruneCtx, stopPruner := context.WithCancel(ctx)
	defer stopPruner()
	go app.StartPruner(pruneCtx)

	server := web.NewServer(web.Deps{
		Store:        app.Store,
		Orchestrator: app.Orchestrator,
		Metrics:      app.MetricsHandler(),
		Journal:      app.Journal,
	}, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stopPruner()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let an in-flight edit pass finish before the store closes
		gate := app.Orchestrator.Gate()
		if status := gate.Status(); status.Active > 0 {
			slog.Info("waiting for edit pass to complete", "active", status.Active)
			if err := gate.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("edit pass did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
