// Package edit reacts to cell edits and runs the configuration pass.
//
// Each edit is handled in two phases. Decide computes the row's new styles,
// validates the value and picks a structural action (none, scaffold a
// single-row mini table, or instantiate a reporting workflow). apply then
// performs the writes in order. Edits are serialized through a core.EditGate
// so two passes never interleave on the store.
package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/logging"
	"github.com/JonMunkholm/provtab/internal/metrics"
	"github.com/JonMunkholm/provtab/internal/minitable"
	"github.com/JonMunkholm/provtab/internal/rules"
)

// ErrAlreadyInstantiated is returned when a workflow reference is changed on
// a row whose workflow rows already exist.
var ErrAlreadyInstantiated = errors.New("workflow already instantiated")

const instantiateTitle = "Creating workflow"

// Outcome reports what an edit changed.
type Outcome struct {
	Sheet   string        `json:"sheet"`
	Row     int           `json:"row"`
	Action  Action        `json:"action"`
	Ignored string        `json:"ignored,omitempty"`
	Styles  []StyleChange `json:"styles,omitempty"`
	Invalid string        `json:"invalid,omitempty"`
	GroupID string        `json:"groupId,omitempty"`
	Rows    int           `json:"rows,omitempty"`
}

// Orchestrator owns no workbook state; every pass re-reads the store.
type Orchestrator struct {
	store    core.Store
	props    core.Properties
	notifier core.Notifier
	palette  core.Palette
	gate     *core.EditGate
	metrics  *metrics.Metrics
	journal  audit.Journal
	logger   *slog.Logger
	newID    func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets the operator notifier. Defaults to LogNotifier.
func WithNotifier(n core.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithPalette sets the palette used to resolve style names to colors.
func WithPalette(p core.Palette) Option {
	return func(o *Orchestrator) { o.palette = p }
}

// WithGate sets the gate serializing passes.
func WithGate(g *core.EditGate) Option {
	return func(o *Orchestrator) { o.gate = g }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithJournal records every pass that changes the workbook in j.
func WithJournal(j audit.Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithLogger sets the base logger. Without it, loggers come from the
// request context.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithIDGenerator replaces the group id generator.
func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// New creates an orchestrator over a store and its property store.
func New(store core.Store, props core.Properties, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		props:    props,
		notifier: LogNotifier{},
		palette:  core.DefaultPalette(),
		newID:    minitable.NewGroupID,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.gate == nil {
		o.gate = core.NewEditGate(core.DefaultEditSlots, core.DefaultEditWait)
	}
	return o
}

// Gate returns the gate serializing passes.
func (o *Orchestrator) Gate() *core.EditGate { return o.gate }

// Palette returns the palette styles are resolved with.
func (o *Orchestrator) Palette() core.Palette { return o.palette }

// Metrics returns the metrics sink. It may be nil; its methods accept that.
func (o *Orchestrator) Metrics() *metrics.Metrics { return o.metrics }

// Journal returns the audit journal, nil when none is set.
func (o *Orchestrator) Journal() audit.Journal { return o.journal }

// record journals an operation; the journal's failures are only logged.
func (o *Orchestrator) record(ctx context.Context, e audit.Entry, err error) {
	if err != nil {
		e.Error = err.Error()
	}
	audit.Log(ctx, o.journal, e)
}

func (o *Orchestrator) log(ctx context.Context) *slog.Logger {
	l := o.logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	if actor := core.ActorFromContext(ctx); actor != "" {
		l = l.With("actor", actor)
	}
	return l
}

// HandleEdit runs one orchestration pass for an edit.
// Edits on unknown sheets, header rows and disabled layers are ignored.
func (o *Orchestrator) HandleEdit(ctx context.Context, ev Event) (Outcome, error) {
	start := time.Now()
	out := Outcome{Sheet: ev.Sheet, Row: ev.Row, Action: ActionNone}

	if err := o.gate.Acquire(ctx); err != nil {
		return out, err
	}
	defer o.gate.Release()

	out, err := o.handle(ctx, ev, out)

	result := metrics.OutcomeIgnored
	switch {
	case err != nil:
		result = metrics.OutcomeFailed
	case out.Action == ActionScaffold:
		result = metrics.OutcomeScaffolded
	case out.Action == ActionInstantiate:
		result = metrics.OutcomeInstantiated
	case len(out.Styles) > 0:
		result = metrics.OutcomeFormatted
	}
	o.metrics.ObserveEdit(ev.Sheet, result, time.Since(start))
	if out.Ignored == "" {
		o.record(ctx, audit.Entry{
			Action:  audit.ActionEdit,
			Sheet:   ev.Sheet,
			Row:     ev.Row,
			Column:  ev.Column,
			Value:   ev.Value,
			Outcome: string(out.Action),
			GroupID: out.GroupID,
			Rows:    out.Rows,
			Detail:  out.Invalid,
		}, err)
	}
	return out, err
}

func (o *Orchestrator) handle(ctx context.Context, ev Event, out Outcome) (Outcome, error) {
	logger := o.log(ctx).With("sheet", ev.Sheet, "row", ev.Row, "column", ev.Column)

	def, ok := core.Get(ev.Sheet)
	if !ok {
		out.Ignored = "unregistered sheet"
		return out, nil
	}
	if ev.Row < 1 {
		out.Ignored = "header row"
		return out, nil
	}
	enabled, err := o.LayerEnabled(ctx, def.Info.Layer)
	if err != nil {
		return out, err
	}
	if !enabled {
		logger.Debug("edit ignored, layer disabled", "layer", def.Info.Layer)
		out.Ignored = fmt.Sprintf("layer %s disabled", def.Info.Layer)
		return out, nil
	}

	t, err := o.store.Table(ctx, def.Info.Key)
	if err != nil {
		return out, err
	}
	st, err := readRow(ctx, t, def, ev)
	if err != nil {
		return out, err
	}

	dec := Decide(rules.ForSheet(def), st)
	logger.Debug("edit decided", "action", dec.Action, "styles", len(dec.Styles))

	return o.apply(ctx, t, st, dec, out)
}

// readRow reads the header, values, styles and edited column rule of the row.
func readRow(ctx context.Context, t core.Table, def core.SheetDefinition, ev Event) (RowState, error) {
	st := RowState{Def: def, Event: ev}

	header, err := t.Header(ctx)
	if err != nil {
		return st, fmt.Errorf("%s: read header: %w", t.Name(), err)
	}
	st.Header = header
	if len(header) == 0 {
		return st, nil
	}

	r := core.RowRange(ev.Row, 1, len(header))
	values, err := t.Values(ctx, r)
	if err != nil {
		return st, fmt.Errorf("%s: read row %d: %w", t.Name(), ev.Row, err)
	}
	styles, err := t.Styles(ctx, r)
	if err != nil {
		return st, fmt.Errorf("%s: read styles of row %d: %w", t.Name(), ev.Row, err)
	}
	if len(values) > 0 {
		st.Values = values[0]
	}
	if len(styles) > 0 {
		st.Styles = styles[0]
	}

	if pos, ok := core.MakeHeaderIndex(header).Position(ev.Column); ok {
		rule, found, err := t.ColumnRule(ctx, pos)
		if err != nil {
			return st, fmt.Errorf("%s: rule of %s: %w", t.Name(), ev.Column, err)
		}
		if found {
			st.Rule = &rule
		}
	}
	return st, nil
}

// apply performs a decision: styles, then the validation alert, then the
// structural action.
func (o *Orchestrator) apply(ctx context.Context, t core.Table, st RowState, dec Decision, out Outcome) (Outcome, error) {
	notifier := notifierFor(ctx, o.notifier)

	for _, sc := range dec.Styles {
		if err := sc.Range.Validate(); err != nil {
			return out, fmt.Errorf("%s: style row %d: %w", t.Name(), st.Event.Row, err)
		}
		if err := t.SetStyle(ctx, sc.Range, sc.Style); err != nil {
			return out, fmt.Errorf("%s: style row %d: %w", t.Name(), st.Event.Row, err)
		}
		sc.Background = o.palette.Hex(sc.Style.Background)
		sc.FontColor = o.palette.Hex(sc.Style.FontColor)
		out.Styles = append(out.Styles, sc)
		o.metrics.StylesWritten(t.Name(), sc.Range.NumCols)
	}

	if dec.Invalid != nil {
		out.Invalid = dec.Invalid.Error()
		o.metrics.InvalidValue(t.Name(), st.Event.Column)
		notifier.Alert(ctx, fmt.Sprintf("%s (row %d): %s", t.Name(), st.Event.Row, dec.Invalid))
	}

	switch dec.Action {
	case ActionInstantiate:
		return o.instantiate(ctx, t, st, dec, out, notifier)
	case ActionScaffold:
		return o.scaffold(ctx, t, st, out)
	}
	return out, nil
}

func (o *Orchestrator) scaffold(ctx context.Context, t core.Table, st RowState, out Outcome) (Outcome, error) {
	cols, err := minitable.ColumnsFor(st.Header, st.Def, "", "")
	if err != nil {
		return out, err
	}
	plan, err := minitable.PlanScaffold(st.Event.Row, cols, o.newID())
	if err != nil {
		return out, err
	}
	if err := minitable.ApplyPlan(ctx, t, plan); err != nil {
		return out, err
	}

	out.Action = ActionScaffold
	out.GroupID = plan.GroupID
	out.Rows = plan.Rows
	o.metrics.Scaffolded(t.Name())
	o.log(ctx).Info("row scaffolded", "sheet", t.Name(), "row", st.Event.Row, "group_id", plan.GroupID)
	return out, nil
}

// instantiate expands a reporting workflow below the edited row. The
// blocking notice is always dismissed; a failure is also alerted.
func (o *Orchestrator) instantiate(ctx context.Context, t core.Table, st RowState, dec Decision, out Outcome, notifier core.Notifier) (res Outcome, err error) {
	notifier.ShowBlocking(ctx, fmt.Sprintf("Adding the steps of %q...", dec.Workflow), instantiateTitle)
	defer func() {
		notifier.DismissBlocking(ctx, instantiateTitle)
		if err != nil && core.IsUserFacing(err) {
			notifier.Alert(ctx, core.FormatUserError(err))
		}
	}()

	if dec.GroupID != "" {
		idx, err := minitable.ReadGroupIndex(ctx, t, st.Def.KeyColumn)
		if err != nil {
			return out, err
		}
		if iv, ok := idx.Extent(dec.GroupID); ok && iv.Len() > 1 {
			if prev, ok := o.restoreReference(ctx, t, st, iv); ok {
				return out, fmt.Errorf("%w: row %d already holds rows %d-%d of %q, reference restored",
					ErrAlreadyInstantiated, st.Event.Row, iv.Start, iv.End, prev)
			}
			notifier.Alert(ctx, fmt.Sprintf("Row %d now names %q, but rows %d-%d still hold the steps of the earlier workflow.",
				st.Event.Row, dec.Workflow, iv.Start, iv.End))
			return out, fmt.Errorf("%w: row %d already holds rows %d-%d", ErrAlreadyInstantiated, st.Event.Row, iv.Start, iv.End)
		}
	}

	templates, err := o.store.Table(ctx, sheets.WorkflowTemplates)
	if err != nil {
		return out, err
	}
	steps, err := minitable.ResolveWorkflow(ctx, templates, dec.Workflow)
	if err != nil {
		return out, err
	}

	cols, err := minitable.ColumnsFor(st.Header, st.Def, sheets.ColStepNumber, sheets.ColProcessType)
	if err != nil {
		return out, err
	}
	plan, err := minitable.PlanInstance(st.Event.Row, cols, steps, o.newID())
	if err != nil {
		return out, err
	}
	if err := minitable.ApplyPlan(ctx, t, plan); err != nil {
		return out, err
	}

	out.Action = ActionInstantiate
	out.GroupID = plan.GroupID
	out.Rows = plan.Rows
	o.metrics.Instantiated(dec.Workflow, plan.Rows)
	o.log(ctx).Info("workflow instantiated",
		"workflow", dec.Workflow,
		"row", st.Event.Row,
		"steps", plan.Rows,
		"group_id", plan.GroupID,
	)
	return out, nil
}

// restoreReference writes back the name of the workflow an instance was
// built from, after a rejected change of its reference. The name is found
// by matching the instance's steps against the templates; with no single
// match the cell is left as typed and ok is false.
func (o *Orchestrator) restoreReference(ctx context.Context, t core.Table, st RowState, iv minitable.Interval) (name string, ok bool) {
	idx := core.MakeHeaderIndex(st.Header)
	stepPos, ok1 := idx.Position(sheets.ColStepNumber)
	typePos, ok2 := idx.Position(sheets.ColProcessType)
	refPos, ok3 := idx.Position(sheets.ColWorkflowReference)
	if !ok1 || !ok2 || !ok3 {
		return "", false
	}

	rows, err := t.Values(ctx, core.RowRange(iv.Start, iv.Len(), len(st.Header)))
	if err != nil {
		o.log(ctx).Warn("read instance rows", "group_id", iv.GroupID, "error", err)
		return "", false
	}
	steps := make([]minitable.Step, len(rows))
	for i, row := range rows {
		steps[i] = minitable.Step{Number: core.CellAt(row, stepPos-1), ProcessType: core.CellAt(row, typePos-1)}
	}

	templates, err := o.Workflows(ctx)
	if err != nil {
		o.log(ctx).Warn("list templates", "error", err)
		return "", false
	}
	for _, tpl := range templates {
		if !slices.Equal(tpl.Steps, steps) {
			continue
		}
		if name != "" {
			return "", false
		}
		name = tpl.Name
	}
	if name == "" {
		return "", false
	}

	if err := t.SetValues(ctx, core.Cell(st.Event.Row, refPos), [][]string{{name}}); err != nil {
		o.log(ctx).Warn("restore workflow reference", "row", st.Event.Row, "error", err)
		return "", false
	}
	return name, true
}
