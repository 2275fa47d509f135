package edit

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/minitable"
	"github.com/JonMunkholm/provtab/internal/store/memory"
)

func TestCreateWorkflow_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := New(s, s, WithNotifier(&Recorder{}))

	if _, err := o.CreateWorkflow(ctx, "w1", []minitable.Step{{Number: "1", ProcessType: "p1"}}); !errors.Is(err, core.ErrTableNotFound) {
		t.Fatalf("CreateWorkflow() before configure error = %v, want ErrTableNotFound", err)
	}

	if _, err := o.Configure(ctx); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	steps := []minitable.Step{{Number: "1", ProcessType: "p1"}, {Number: "2", ProcessType: "p2"}}
	id, err := o.CreateWorkflow(ctx, "w1", steps)
	if err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}
	if id == "" {
		t.Error("CreateWorkflow() returned empty group id")
	}

	got, err := o.Workflow(ctx, "w1")
	if err != nil {
		t.Fatalf("Workflow() error = %v", err)
	}
	if !reflect.DeepEqual(got, steps) {
		t.Errorf("Workflow() = %v, want %v", got, steps)
	}

	all, err := o.Workflows(ctx)
	if err != nil {
		t.Fatalf("Workflows() error = %v", err)
	}
	if len(all) != 1 || all[0].Name != "w1" || all[0].GroupID != id {
		t.Errorf("Workflows() = %+v, want one template w1/%s", all, id)
	}

	if _, err := o.CreateWorkflow(ctx, "w1", steps); !errors.Is(err, minitable.ErrDuplicateWorkflow) {
		t.Errorf("CreateWorkflow() duplicate error = %v, want ErrDuplicateWorkflow", err)
	}
}

func TestSheetRules(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := New(s, s, WithNotifier(&Recorder{}))

	if _, err := o.SheetRules(ctx, "invoices"); !errors.Is(err, core.ErrUnknownSheet) {
		t.Errorf("SheetRules(invoices) error = %v, want ErrUnknownSheet", err)
	}
	if _, err := o.SheetRules(ctx, sheets.Materials); !errors.Is(err, core.ErrTableNotFound) {
		t.Errorf("SheetRules() before configure error = %v, want ErrTableNotFound", err)
	}

	if _, err := o.Configure(ctx); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	views, err := o.SheetRules(ctx, sheets.Materials)
	if err != nil {
		t.Fatalf("SheetRules() error = %v", err)
	}
	def, _ := core.Get(sheets.Materials)
	if len(views) != len(def.Columns) {
		t.Fatalf("SheetRules() returned %d columns, want %d", len(views), len(def.Columns))
	}
	for _, v := range views {
		if v.Rule == nil {
			t.Errorf("column %s has no rule after configure", v.Column)
		}
		if v.Column == sheets.ColRegistrationType && v.Type != "enum" {
			t.Errorf("registrationType type = %q, want enum", v.Type)
		}
	}
}

func TestWriteCell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev := Event{Sheet: sheets.Materials, Row: 2, Column: sheets.ColQuantity, Value: "7"}
	if err := WriteCell(ctx, f.store, ev); err != nil {
		t.Fatalf("WriteCell() error = %v", err)
	}
	if got := f.row(t, sheets.Materials, 2)[8]; got != "7" {
		t.Errorf("quantity = %q, want 7", got)
	}

	ev.Column = "color"
	if err := WriteCell(ctx, f.store, ev); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("WriteCell(unknown column) error = %v, want ErrColumnNotFound", err)
	}
	ev.Sheet = "ghost"
	if err := WriteCell(ctx, f.store, ev); !errors.Is(err, core.ErrTableNotFound) {
		t.Errorf("WriteCell(unknown sheet) error = %v, want ErrTableNotFound", err)
	}
}
