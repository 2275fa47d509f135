// Package metrics exposes Prometheus collectors for the edit orchestrator.
//
// All methods are safe on a nil *Metrics so components can run without a
// registry (tests, the CLI).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provtab"

// Edit outcomes used as the "outcome" label.
const (
	OutcomeIgnored      = "ignored"
	OutcomeFormatted    = "formatted"
	OutcomeScaffolded   = "scaffolded"
	OutcomeInstantiated = "instantiated"
	OutcomeFailed       = "failed"
)

// Metrics holds the collectors. Create with New.
type Metrics struct {
	edits          *prometheus.CounterVec
	editDuration   *prometheus.HistogramVec
	scaffolds      *prometheus.CounterVec
	instantiations *prometheus.CounterVec
	instanceRows   prometheus.Histogram
	styleWrites    *prometheus.CounterVec
	invalidValues  *prometheus.CounterVec
	softSkips      *prometheus.CounterVec
	configureRuns  *prometheus.CounterVec
	imports        *prometheus.CounterVec
	importRows     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Edit events processed, by sheet and outcome.",
		}, []string{"sheet", "outcome"}),
		editDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edit_duration_seconds",
			Help:      "Time spent handling one edit event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sheet"}),
		scaffolds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scaffolds_total",
			Help:      "Single-row mini tables created for new rows.",
		}, []string{"sheet"}),
		instantiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_instantiations_total",
			Help:      "Reporting workflows expanded into workflow management rows.",
		}, []string{"workflow"}),
		instanceRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_instance_rows",
			Help:      "Rows written per workflow instantiation.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}),
		styleWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "style_writes_total",
			Help:      "Cells restyled by the visibility pass.",
		}, []string{"sheet"}),
		invalidValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_values_total",
			Help:      "Edited values that failed their column rule.",
		}, []string{"sheet", "column"}),
		softSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_soft_skips_total",
			Help:      "List constraints skipped because the source table was missing.",
		}, []string{"sheet", "source"}),
		configureRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configure_runs_total",
			Help:      "Configuration passes, by result.",
		}, []string{"result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "CSV imports, by sheet and result.",
		}, []string{"sheet", "result"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "CSV data rows seen by imports, by sheet and status.",
		}, []string{"sheet", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.edits, m.editDuration, m.scaffolds, m.instantiations, m.instanceRows,
			m.styleWrites, m.invalidValues, m.softSkips, m.configureRuns,
			m.imports, m.importRows,
		)
	}
	return m
}

// ObserveEdit records one handled edit.
func (m *Metrics) ObserveEdit(sheet, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(sheet, outcome).Inc()
	m.editDuration.WithLabelValues(sheet).Observe(d.Seconds())
}

// Scaffolded records a new single-row group.
func (m *Metrics) Scaffolded(sheet string) {
	if m == nil {
		return
	}
	m.scaffolds.WithLabelValues(sheet).Inc()
}

// Instantiated records a workflow expansion of rows rows.
func (m *Metrics) Instantiated(workflow string, rows int) {
	if m == nil {
		return
	}
	m.instantiations.WithLabelValues(workflow).Inc()
	m.instanceRows.Observe(float64(rows))
}

// StylesWritten adds n restyled cells.
func (m *Metrics) StylesWritten(sheet string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.styleWrites.WithLabelValues(sheet).Add(float64(n))
}

// InvalidValue records a rule violation.
func (m *Metrics) InvalidValue(sheet, column string) {
	if m == nil {
		return
	}
	m.invalidValues.WithLabelValues(sheet, column).Inc()
}

// SoftSkip records a list constraint skipped for a missing source table.
func (m *Metrics) SoftSkip(sheet, source string) {
	if m == nil {
		return
	}
	m.softSkips.WithLabelValues(sheet, source).Inc()
}

// ConfigureRun records a configuration pass.
func (m *Metrics) ConfigureRun(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.configureRuns.WithLabelValues(result).Inc()
}

// Import records a CSV import that appended appended rows and skipped
// invalid ones.
func (m *Metrics) Import(sheet string, appended, invalid int, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.imports.WithLabelValues(sheet, result).Inc()
	if appended > 0 {
		m.importRows.WithLabelValues(sheet, "appended").Add(float64(appended))
	}
	if invalid > 0 {
		m.importRows.WithLabelValues(sheet, "invalid").Add(float64(invalid))
	}
}
