package edit

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/lists"
	"github.com/JonMunkholm/provtab/internal/rules"
)

// Skip is a list constraint left unset because its source table is missing.
type Skip struct {
	Sheet  string `json:"sheet"`
	Column string `json:"column"`
	Source string `json:"source"`
}

// Report summarizes a configuration pass.
type Report struct {
	Created    []string `json:"created,omitempty"`
	Configured []string `json:"configured"`
	Rules      int      `json:"rules"`
	Skipped    []Skip   `json:"skipped,omitempty"`
}

func (r *Report) merge(other Report) {
	r.Created = append(r.Created, other.Created...)
	r.Configured = append(r.Configured, other.Configured...)
	r.Rules += other.Rules
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Configure creates missing sheets and attaches column rules for every
// sheet of an enabled layer, in registration order. It can be re-run; a
// list whose source table is missing is skipped and picked up next time.
func (o *Orchestrator) Configure(ctx context.Context) (report Report, err error) {
	if err := o.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer o.gate.Release()
	defer func() { o.recordConfigure(ctx, "", report, err) }()

	for _, def := range core.All() {
		on, err := o.LayerEnabled(ctx, def.Info.Layer)
		if err != nil {
			o.metrics.ConfigureRun(false)
			return report, err
		}
		if !on {
			o.log(ctx).Debug("sheet skipped, layer disabled", "sheet", def.Info.Key, "layer", def.Info.Layer)
			continue
		}
		r, err := o.configureSheet(ctx, def)
		report.merge(r)
		if err != nil {
			o.metrics.ConfigureRun(false)
			return report, err
		}
	}

	o.metrics.ConfigureRun(true)
	o.log(ctx).Info("workbook configured",
		"sheets", len(report.Configured),
		"created", len(report.Created),
		"rules", report.Rules,
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func (o *Orchestrator) recordConfigure(ctx context.Context, layer core.Layer, r Report, err error) {
	detail := fmt.Sprintf("configured=%d created=%d rules=%d skipped=%d",
		len(r.Configured), len(r.Created), r.Rules, len(r.Skipped))
	if layer != "" {
		detail = "layer=" + string(layer) + " " + detail
	}
	o.record(ctx, audit.Entry{Action: audit.ActionConfigure, Rows: len(r.Created), Detail: detail}, err)
}

// ConfigureLayer configures the sheets of one layer. Configuring a disabled
// layer alerts the operator and changes nothing.
func (o *Orchestrator) ConfigureLayer(ctx context.Context, layer core.Layer) (Report, error) {
	if err := checkLayer(layer); err != nil {
		return Report{}, err
	}
	on, err := o.LayerEnabled(ctx, layer)
	if err != nil {
		return Report{}, err
	}
	if !on {
		err := fmt.Errorf("%w: %s", ErrLayerDisabled, layer)
		notifierFor(ctx, o.notifier).Alert(ctx,
			fmt.Sprintf("The %s layer is disabled. Enable it before configuring its sheets.", layer))
		return Report{}, err
	}

	if err := o.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer o.gate.Release()

	var report Report
	for _, def := range core.ByLayer(layer) {
		r, err := o.configureSheet(ctx, def)
		report.merge(r)
		if err != nil {
			o.metrics.ConfigureRun(false)
			o.recordConfigure(ctx, layer, report, err)
			return report, err
		}
	}
	o.metrics.ConfigureRun(true)
	o.recordConfigure(ctx, layer, report, nil)
	return report, nil
}

func (o *Orchestrator) configureSheet(ctx context.Context, def core.SheetDefinition) (Report, error) {
	logger := o.log(ctx).With("sheet", def.Info.Key)
	report := Report{Configured: []string{def.Info.Key}}

	t, err := o.store.Table(ctx, def.Info.Key)
	switch {
	case errors.Is(err, core.ErrTableNotFound):
		t, err = o.store.CreateTable(ctx, def.Info.Key, def.Header())
		if err != nil {
			return report, fmt.Errorf("create %s: %w", def.Info.Key, err)
		}
		if err := t.SetHeaderStyle(ctx, core.StyleHeader); err != nil {
			return report, fmt.Errorf("style header of %s: %w", def.Info.Key, err)
		}
		report.Created = append(report.Created, def.Info.Key)
		logger.Info("sheet created")
	case err != nil:
		return report, err
	}

	header, err := t.Header(ctx)
	if err != nil {
		return report, fmt.Errorf("%s: read header: %w", def.Info.Key, err)
	}
	idx, err := core.ValidateHeader(header, def)
	if err != nil {
		return report, err
	}

	reg := rules.ForSheet(def)
	for _, col := range def.Columns {
		pos, _ := idx.Position(col.Name)
		d := reg.Classify(rules.NewContextKey(col.Name))

		var allowed []string
		if d.Source != nil {
			values, err := lists.Build(ctx, o.store, *d.Source)
			if errors.Is(err, core.ErrTableNotFound) {
				logger.Warn("list source missing, constraint skipped",
					"column", col.Name, "source", d.Source.String(), "error", err)
				o.metrics.SoftSkip(def.Info.Key, d.Source.Table)
				report.Skipped = append(report.Skipped, Skip{Sheet: def.Info.Key, Column: col.Name, Source: d.Source.String()})
				continue
			}
			if err != nil {
				return report, fmt.Errorf("%s.%s: %w", def.Info.Key, col.Name, err)
			}
			allowed = lists.Unique(values)
		}

		if err := t.SetColumnRule(ctx, pos, d.Rule(allowed)); err != nil {
			return report, fmt.Errorf("%s.%s: set rule: %w", def.Info.Key, col.Name, err)
		}
		report.Rules++
	}
	return report, nil
}
