package edit

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/rules"
)

var coreSheets = []string{
	sheets.Concepts, sheets.Processes, sheets.Materials, sheets.WorkflowTemplates, sheets.WorkflowManagement,
}

func TestConfigure_CreatesCoreSheets(t *testing.T) {
	f := newBareFixture(t)
	ctx := context.Background()

	report, err := f.orch.Configure(ctx)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if !reflect.DeepEqual(report.Created, coreSheets) {
		t.Errorf("Created = %v, want %v", report.Created, coreSheets)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", report.Skipped)
	}

	wantRules := 0
	for _, key := range coreSheets {
		def, _ := core.Get(key)
		wantRules += len(def.Columns)
	}
	if report.Rules != wantRules {
		t.Errorf("Rules = %d, want %d", report.Rules, wantRules)
	}

	tables, _ := f.store.Tables(ctx)
	if !reflect.DeepEqual(tables, coreSheets) {
		t.Errorf("Tables() = %v, want %v", tables, coreSheets)
	}

	tbl := f.table(t, sheets.Materials)
	def, _ := core.Get(sheets.Materials)
	header, _ := tbl.Header(ctx)
	if !reflect.DeepEqual(header, def.Header()) {
		t.Errorf("Header() = %v, want %v", header, def.Header())
	}
	rule, ok, err := tbl.ColumnRule(ctx, 9)
	if err != nil || !ok {
		t.Fatalf("ColumnRule(quantity) = %v, %v", ok, err)
	}
	if rule.Type != core.FieldNumeric || rule.Min == nil || *rule.Min != 0 {
		t.Errorf("quantity rule = %+v, want numeric with min 0", rule)
	}
}

// Configure walks sheets in registration order, so a list source registered
// after its user would leave the user's constraint unset on a fresh workbook.
func TestRegistrationOrder_ListSourcesFirst(t *testing.T) {
	position := make(map[string]int)
	for i, def := range core.All() {
		position[def.Info.Key] = i
	}
	for i, def := range core.All() {
		reg := rules.ForSheet(def)
		for _, col := range def.Columns {
			d := reg.Classify(rules.NewContextKey(col.Name))
			if d.Source == nil || d.Source.Table == def.Info.Key {
				continue
			}
			src, ok := position[d.Source.Table]
			if !ok {
				t.Errorf("%s.%s: source %s is not registered", def.Info.Key, col.Name, d.Source.Table)
				continue
			}
			if src > i {
				t.Errorf("%s.%s: source %s registered after its user", def.Info.Key, col.Name, d.Source.Table)
			}
		}
	}
}

func TestConfigure_FirstPassSetsEveryRule(t *testing.T) {
	f := newBareFixture(t)
	ctx := context.Background()

	first, err := f.orch.Configure(ctx)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	second, err := f.orch.Configure(ctx)
	if err != nil {
		t.Fatalf("second Configure() error = %v", err)
	}
	if len(first.Skipped) != 0 {
		t.Errorf("first pass Skipped = %v, want none", first.Skipped)
	}
	if first.Rules != second.Rules {
		t.Errorf("first pass Rules = %d, second = %d; want equal", first.Rules, second.Rules)
	}
}

func TestConfigure_IsRerunnableAndRefreshesLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.set(t, sheets.Concepts, 1, map[string]string{sheets.ColConceptType: sheets.ConceptUnit, sheets.ColLabel: "mg"})
	f.set(t, sheets.Concepts, 2, map[string]string{sheets.ColConceptType: sheets.ConceptUnit, sheets.ColLabel: "mL"})
	f.set(t, sheets.Concepts, 3, map[string]string{sheets.ColConceptType: sheets.ConceptUnit, sheets.ColLabel: "mg"})
	f.set(t, sheets.Concepts, 4, map[string]string{sheets.ColConceptType: sheets.ConceptInstrument, sheets.ColLabel: "oven"})

	report, err := f.orch.Configure(ctx)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if len(report.Created) != 0 {
		t.Errorf("Created = %v, want none on a second run", report.Created)
	}

	rule, _, _ := f.table(t, sheets.Materials).ColumnRule(ctx, 10)
	if want := []string{"mg", "mL"}; !reflect.DeepEqual(rule.Allowed, want) {
		t.Errorf("unit Allowed = %v, want %v", rule.Allowed, want)
	}
}

func TestConfigure_DiscriminantRuleListsValues(t *testing.T) {
	f := newFixture(t)

	rule, ok, err := f.table(t, sheets.WorkflowManagement).ColumnRule(context.Background(), 3)
	if err != nil || !ok {
		t.Fatalf("ColumnRule(rowType) = %v, %v", ok, err)
	}
	if rule.Type != core.FieldEnum || !reflect.DeepEqual(rule.Allowed, sheets.RowTypes) {
		t.Errorf("rowType rule = %+v, want enum of %v", rule, sheets.RowTypes)
	}
}

func TestConfigureLayer_DisabledLayerAlertsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, _ := f.store.Tables(ctx)

	_, err := f.orch.ConfigureLayer(ctx, core.LayerActivities)
	if !errors.Is(err, ErrLayerDisabled) {
		t.Fatalf("ConfigureLayer() error = %v, want ErrLayerDisabled", err)
	}
	if got := f.rec.Alerts(); len(got) != 1 {
		t.Errorf("alerts = %v, want one", got)
	}
	if after, _ := f.store.Tables(ctx); !reflect.DeepEqual(after, before) {
		t.Errorf("Tables() = %v, want unchanged %v", after, before)
	}
	if got := core.MapError(err).Code; got != "EDIT001" {
		t.Errorf("MapError code = %q, want EDIT001", got)
	}
}

func TestConfigureLayer_SoftSkipsMissingSources(t *testing.T) {
	f := newBareFixture(t)
	ctx := context.Background()
	if err := f.orch.EnableLayer(ctx, core.LayerActivities); err != nil {
		t.Fatalf("EnableLayer() error = %v", err)
	}

	report, err := f.orch.ConfigureLayer(ctx, core.LayerActivities)
	if err != nil {
		t.Fatalf("ConfigureLayer() error = %v", err)
	}
	if !reflect.DeepEqual(report.Created, []string{sheets.ProcessExecution}) {
		t.Errorf("Created = %v", report.Created)
	}
	var skipped []string
	for _, s := range report.Skipped {
		skipped = append(skipped, s.Column)
	}
	want := []string{sheets.ColProcessReference, sheets.ColInputMaterial, sheets.ColOutputMaterial}
	if !reflect.DeepEqual(skipped, want) {
		t.Errorf("skipped columns = %v, want %v", skipped, want)
	}

	if _, err := f.orch.Configure(ctx); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	report, err = f.orch.ConfigureLayer(ctx, core.LayerActivities)
	if err != nil {
		t.Fatalf("second ConfigureLayer() error = %v", err)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none once the sources exist", report.Skipped)
	}
}

func TestLayers(t *testing.T) {
	f := newBareFixture(t)
	ctx := context.Background()

	if got := Layers(); !reflect.DeepEqual(got, []core.Layer{core.LayerActivities}) {
		t.Errorf("Layers() = %v", got)
	}

	tests := []struct {
		name    string
		run     func() error
		want    bool
		wantErr error
	}{
		{"disabled by default", func() error { return nil }, false, nil},
		{"enable", func() error { return f.orch.EnableLayer(ctx, core.LayerActivities) }, true, nil},
		{"disable", func() error { return f.orch.DisableLayer(ctx, core.LayerActivities) }, false, nil},
		{"unknown layer", func() error { return f.orch.EnableLayer(ctx, "bogus") }, false, ErrUnknownLayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			got, err := f.orch.LayerEnabled(ctx, core.LayerActivities)
			if err != nil {
				t.Fatalf("LayerEnabled() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LayerEnabled() = %v, want %v", got, tt.want)
			}
		})
	}

	if v, ok, _ := f.store.Get(ctx, LayerProperty(core.LayerActivities)); !ok || v != "false" {
		t.Errorf("property = %q, %v; want false", v, ok)
	}
	if on, _ := f.orch.LayerEnabled(ctx, core.LayerCore); !on {
		t.Error("core layer reported disabled")
	}
	if err := f.orch.DisableLayer(ctx, core.LayerCore); !errors.Is(err, ErrCoreLayer) {
		t.Errorf("DisableLayer(core) error = %v, want ErrCoreLayer", err)
	}

	statuses, err := f.orch.LayerStatuses(ctx)
	if err != nil {
		t.Fatalf("LayerStatuses() error = %v", err)
	}
	if len(statuses) != 2 || statuses[0].Layer != core.LayerCore || statuses[1].Sheets[0] != sheets.ProcessExecution {
		t.Errorf("LayerStatuses() = %+v", statuses)
	}
}
