package audit

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig holds the retention policy of a journal.
type PruneConfig struct {
	Retention time.Duration // Entries older than this are deleted (default: 90 days)
	Interval  time.Duration // How often to prune (default: 24h)
}

const (
	defaultRetention     = 90 * 24 * time.Hour
	defaultPruneInterval = 24 * time.Hour
)

// StartPruner prunes j immediately, then every Interval, until ctx is done.
// Failures are logged; the pruner keeps running.
func StartPruner(ctx context.Context, j Journal, cfg PruneConfig) {
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPruneInterval
	}
	slog.Info("audit pruner started", "retention", cfg.Retention, "interval", cfg.Interval)

	runPrune(ctx, j, cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("audit pruner stopped")
			return
		case <-ticker.C:
			runPrune(ctx, j, cfg.Retention)
		}
	}
}

func runPrune(ctx context.Context, j Journal, retention time.Duration) {
	start := time.Now()
	n, err := j.Prune(ctx, start.Add(-retention))
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return
	}
	slog.Info("audit entries pruned",
		"entries_pruned", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
