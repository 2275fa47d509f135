// Package admin provides administrative operations on the workbook store.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
)

// ResetTimeout is the maximum duration for a workbook reset.
const ResetTimeout = 30 * time.Second

// Reset clears a workbook: every table and every property.
type Reset struct {
	Store core.Store
	Props core.Properties
	// Gate, when set, keeps the reset from interleaving with an edit pass.
	Gate *core.EditGate
	// Journal, when set, records the reset. The journal itself is kept.
	Journal audit.Journal
}

// ResetResult lists what a reset removed.
type ResetResult struct {
	Dropped []string `json:"dropped"`
}

type resetFn func(ctx context.Context) error

// ResetAll drops all tables and clears the property store.
// This is a destructive operation - use with caution.
func (r *Reset) ResetAll(ctx context.Context) (ResetResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	if r.Gate != nil {
		if err := r.Gate.Acquire(ctx); err != nil {
			return ResetResult{}, err
		}
		defer r.Gate.Release()
	}

	names, err := r.Store.Tables(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("reset: %w", err)
	}

	resets := make([]resetFn, 0, len(names)+1)
	for _, name := range names {
		resets = append(resets, func(ctx context.Context) error {
			return r.Store.DropTable(ctx, name)
		})
	}
	resets = append(resets, r.Props.DeleteAll)

	if err := runResets(ctx, resets); err != nil {
		err = fmt.Errorf("reset: %w", err)
		audit.Log(ctx, r.Journal, audit.Entry{Action: audit.ActionReset, Error: err.Error()})
		return ResetResult{}, err
	}

	slog.Info("workbook reset", "tables", len(names))
	audit.Log(ctx, r.Journal, audit.Entry{
		Action: audit.ActionReset,
		Rows:   len(names),
		Detail: strings.Join(names, ","),
	})
	return ResetResult{Dropped: names}, nil
}

func runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
