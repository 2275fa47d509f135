package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/logging"
)

// Options tunes one import.
type Options struct {
	// DryRun validates and previews without writing.
	DryRun bool
	// MaxBytes bounds the file size. Zero means no bound.
	MaxBytes int64
	// MaxRows bounds the number of data rows. Zero means no bound.
	MaxRows int
}

// FailedRow is an appended row whose edit pass failed. The row's values
// are kept in the sheet.
type FailedRow struct {
	Line   int    `json:"line"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// Result reports an import.
type Result struct {
	Preview
	DryRun       bool        `json:"dryRun"`
	Appended     int         `json:"appended"`
	FirstRow     int         `json:"firstRow,omitempty"`
	LastRow      int         `json:"lastRow,omitempty"`
	Scaffolded   int         `json:"scaffolded"`
	Instantiated int         `json:"instantiated"`
	Failed       []FailedRow `json:"failed,omitempty"`
}

// Importer appends CSV rows to sheets through the edit orchestrator.
type Importer struct {
	store core.Store
	orch  *edit.Orchestrator
}

// New returns an importer writing to store. Edit passes, the gate, the
// journal and metrics are taken from orch.
func New(store core.Store, orch *edit.Orchestrator) *Importer {
	return &Importer{store: store, orch: orch}
}

// Import reads CSV from r into sheet. Rows that break a column rule are
// skipped and reported in the preview; the others are appended below the
// last row and each is handled as an edit of its first filled column, or of
// its workflow reference when it has one.
func (im *Importer) Import(ctx context.Context, sheet string, r io.Reader, opts Options) (res Result, err error) {
	start := time.Now()
	log := logging.FromContext(ctx).With("sheet", sheet, "dry_run", opts.DryRun)

	def, ok := core.Get(sheet)
	if !ok {
		return res, fmt.Errorf("%q: %w", sheet, core.ErrUnknownSheet)
	}
	on, err := im.orch.LayerEnabled(ctx, def.Info.Layer)
	if err != nil {
		return res, err
	}
	if !on {
		return res, fmt.Errorf("%w: %s", edit.ErrLayerDisabled, def.Info.Layer)
	}

	f, err := Parse(NewReader(r, opts.MaxBytes), def, opts.MaxRows)
	if err != nil {
		return res, err
	}
	a, err := analyze(ctx, im.orch, f, start)
	if err != nil {
		return res, err
	}
	res.Preview = a.preview
	res.DryRun = opts.DryRun
	if opts.DryRun {
		log.Info("import previewed", "rows", res.Summary.TotalRows, "invalid", res.Summary.ErrorRows)
		return res, nil
	}

	defer func() {
		im.orch.Metrics().Import(sheet, res.Appended, res.Summary.ErrorRows, err == nil)
		entry := audit.Entry{
			Action: audit.ActionImport,
			Sheet:  sheet,
			Row:    res.FirstRow,
			Rows:   res.Appended,
			Detail: fmt.Sprintf("valid=%d invalid=%d scaffolded=%d instantiated=%d failed=%d",
				res.Summary.ValidRows, res.Summary.ErrorRows, res.Scaffolded, res.Instantiated, len(res.Failed)),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		audit.Log(ctx, im.orch.Journal(), entry)
	}()

	if len(a.valid) == 0 {
		return res, nil
	}
	if err := im.appendRows(ctx, f, a.valid, &res); err != nil {
		return res, err
	}
	if err := im.runEdits(ctx, def, f, a.valid, &res); err != nil {
		return res, err
	}

	log.Info("import complete",
		"appended", res.Appended,
		"invalid", res.Summary.ErrorRows,
		"scaffolded", res.Scaffolded,
		"instantiated", res.Instantiated,
		"failed", len(res.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	return res, nil
}

// appendRows writes the records below the sheet's last row in one block,
// holding the edit gate so no pass sees a half-written block.
func (im *Importer) appendRows(ctx context.Context, f *File, recs []Record, res *Result) error {
	gate := im.orch.Gate()
	if err := gate.Acquire(ctx); err != nil {
		return err
	}
	defer gate.Release()

	t, err := im.store.Table(ctx, f.Sheet)
	if err != nil {
		return err
	}
	header, err := t.Header(ctx)
	if err != nil {
		return err
	}
	idx := core.MakeHeaderIndex(header)
	positions := make([]int, len(f.Mapped))
	for i, c := range f.Mapped {
		if positions[i], err = idx.MustPosition(t.Name(), c.Name); err != nil {
			return err
		}
	}
	last, err := t.LastRow(ctx)
	if err != nil {
		return err
	}

	block := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(header))
		for j, c := range f.Mapped {
			row[positions[j]-1] = core.CellAt(rec.Cells, c.Index)
		}
		block[i] = row
	}
	if err := t.SetValues(ctx, core.RowRange(last+1, len(block), len(header)), block); err != nil {
		return fmt.Errorf("append %d rows: %w", len(block), err)
	}

	res.Appended = len(block)
	res.FirstRow = last + 1
	res.LastRow = last + len(block)
	return nil
}

// runEdits handles each appended row as an operator edit. Instantiated
// workflows insert rows, shifting the rows below them.
func (im *Importer) runEdits(ctx context.Context, def core.SheetDefinition, f *File, recs []Record, res *Result) error {
	shift := 0
	for i, rec := range recs {
		column, value := trigger(def, f, rec)
		if column == "" {
			continue
		}
		row := res.FirstRow + i + shift
		out, err := im.orch.HandleEdit(ctx, edit.Event{Sheet: def.Info.Key, Row: row, Column: column, Value: value})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			res.Failed = append(res.Failed, FailedRow{
				Line:   rec.Line,
				Row:    row,
				Reason: err.Error(),
				Code:   core.MapError(err).Code,
			})
			continue
		}
		switch out.Action {
		case edit.ActionScaffold:
			res.Scaffolded++
		case edit.ActionInstantiate:
			res.Instantiated++
			shift += out.Rows - 1
		}
	}
	res.LastRow += shift
	return nil
}

// trigger picks the column an imported row is reported as edited on.
func trigger(def core.SheetDefinition, f *File, rec Record) (column, value string) {
	if _, ok := def.Column(sheets.ColWorkflowReference); ok {
		if v := f.Value(rec, sheets.ColWorkflowReference); v != "" {
			return sheets.ColWorkflowReference, v
		}
	}
	for _, c := range f.Mapped {
		if v := core.CellAt(rec.Cells, c.Index); v != "" {
			return c.Name, v
		}
	}
	return "", ""
}
