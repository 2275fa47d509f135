package minitable

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/store/memory"
)

var templateHeader = []string{
	sheets.ColGroupID, sheets.ColHeaderFlag, sheets.ColWorkflowName, sheets.ColStepNumber, sheets.ColProcessType,
}

// newTemplates creates a workflowTemplates table holding rows.
func newTemplates(t *testing.T, rows [][]string) (*memory.Store, core.Table) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	tbl, err := s.CreateTable(ctx, sheets.WorkflowTemplates, templateHeader)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if len(rows) > 0 {
		if err := tbl.SetValues(ctx, core.RowRange(1, len(rows), len(templateHeader)), rows); err != nil {
			t.Fatalf("SetValues: %v", err)
		}
	}
	return s, tbl
}

// ----------------------------------------------------------------------------
// GroupIndex
// ----------------------------------------------------------------------------

func TestBuildGroupIndex(t *testing.T) {
	idx, err := BuildGroupIndex([]string{"g1", "g1", "", "g1", "g2", "", "g3"})
	if err != nil {
		t.Fatalf("BuildGroupIndex() error = %v", err)
	}

	want := []Interval{
		{GroupID: "g1", Start: 1, End: 4},
		{GroupID: "g2", Start: 5, End: 5},
		{GroupID: "g3", Start: 7, End: 7},
	}
	if got := idx.Intervals(); !reflect.DeepEqual(got, want) {
		t.Errorf("Intervals() = %v, want %v", got, want)
	}
	if iv, _ := idx.Extent("g1"); iv.Len() != 4 {
		t.Errorf("Extent(g1).Len() = %d, want 4", iv.Len())
	}
	if idx.Contains("g9") {
		t.Error("Contains(g9) = true, want false")
	}
}

func TestBuildGroupIndex_ReuseIsAnError(t *testing.T) {
	_, err := BuildGroupIndex([]string{"g1", "g2", "g1"})
	if !errors.Is(err, ErrGroupReused) {
		t.Errorf("BuildGroupIndex() error = %v, want ErrGroupReused", err)
	}
}

// ----------------------------------------------------------------------------
// ResolveWorkflow
// ----------------------------------------------------------------------------

func TestResolveWorkflow(t *testing.T) {
	_, tbl := newTemplates(t, [][]string{
		{"g1", "TRUE", "w1", "1", "A"},
		{"g1", "FALSE", "w1", "2", "B"},
		{"g2", "TRUE", "w2", "1", "C"},
	})

	tests := []struct {
		name string
		want []Step
	}{
		{"w1", []Step{{"1", "A"}, {"2", "B"}}},
		{"w2", []Step{{"1", "C"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWorkflow(context.Background(), tbl, tt.name)
			if err != nil {
				t.Fatalf("ResolveWorkflow(%q) error = %v", tt.name, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveWorkflow(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolveWorkflow_ExtentFollowsLastGroupID(t *testing.T) {
	// Name only on the header row; a blank row inside the run still belongs to it.
	_, tbl := newTemplates(t, [][]string{
		{"g1", "TRUE", "anneal", "1", "mix"},
		{"g1", "FALSE", "", "2", "heat"},
		{"", "", "", "", ""},
		{"g1", "FALSE", "", "3", "cool"},
		{"g2", "TRUE", "other", "1", "x"},
	})

	got, err := ResolveWorkflow(context.Background(), tbl, "anneal")
	if err != nil {
		t.Fatalf("ResolveWorkflow() error = %v", err)
	}
	want := []Step{{"1", "mix"}, {"2", "heat"}, {"", ""}, {"3", "cool"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveWorkflow() = %v, want %v", got, want)
	}
}

func TestResolveWorkflow_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		query   string
		wantErr error
	}{
		{
			name:    "unknown name",
			rows:    [][]string{{"g1", "TRUE", "w1", "1", "A"}},
			query:   "w9",
			wantErr: ErrWorkflowNotFound,
		},
		{
			name:    "empty name",
			rows:    [][]string{{"g1", "TRUE", "", "1", "A"}},
			query:   " ",
			wantErr: ErrWorkflowNotFound,
		},
		{
			name:    "empty table",
			query:   "w1",
			wantErr: ErrWorkflowNotFound,
		},
		{
			name: "same name under two groups",
			rows: [][]string{
				{"g1", "TRUE", "w1", "1", "A"},
				{"g2", "TRUE", "w1", "1", "B"},
			},
			query:   "w1",
			wantErr: ErrDuplicateWorkflow,
		},
		{
			name: "interleaved group id",
			rows: [][]string{
				{"g1", "TRUE", "w1", "1", "A"},
				{"g2", "TRUE", "w2", "1", "B"},
				{"g1", "FALSE", "", "2", "C"},
			},
			query:   "w1",
			wantErr: ErrGroupReused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tbl := newTemplates(t, tt.rows)
			_, err := ResolveWorkflow(context.Background(), tbl, tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveWorkflow(%q) error = %v, want %v", tt.query, err, tt.wantErr)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// PlanInstance / ApplyPlan
// ----------------------------------------------------------------------------

var managementHeader = []string{
	sheets.ColGroupID, sheets.ColHeaderFlag, sheets.ColRowType, sheets.ColWorkflowReference,
	sheets.ColStepNumber, sheets.ColProcessType, sheets.ColNotes,
}

var managementCols = Columns{GroupID: 1, HeaderFlag: 2, StepNumber: 5, ProcessType: 6, Width: 7}

func TestPlanInstance_ThreeSteps(t *testing.T) {
	steps := []Step{{"1", "mix"}, {"2", "heat"}, {"3", "cool"}}

	plan, err := PlanInstance(4, managementCols, steps, "new-id")
	if err != nil {
		t.Fatalf("PlanInstance() error = %v", err)
	}

	if plan.Rows != 3 || plan.Inserts() != 2 {
		t.Errorf("Rows/Inserts = %d/%d, want 3/2", plan.Rows, plan.Inserts())
	}

	writes := make(map[int][]string)
	for _, w := range plan.Writes {
		writes[w.Col] = w.Values
	}
	if got := writes[1]; !reflect.DeepEqual(got, []string{"new-id", "new-id", "new-id"}) {
		t.Errorf("group ids = %v, want one shared id", got)
	}
	if got := writes[2]; !reflect.DeepEqual(got, []string{"TRUE", "FALSE", "FALSE"}) {
		t.Errorf("header flags = %v, want [TRUE FALSE FALSE]", got)
	}
	if got := writes[5]; !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("step numbers = %v", got)
	}
	if got := writes[6]; !reflect.DeepEqual(got, []string{"mix", "heat", "cool"}) {
		t.Errorf("process types = %v", got)
	}

	want := core.Range{Row: 5, Col: 1, NumRows: 2, NumCols: 7}
	if plan.Generated == nil || *plan.Generated != want {
		t.Errorf("Generated = %v, want %v", plan.Generated, want)
	}
}

func TestPlanInstance_OneStepHasNoGeneratedRange(t *testing.T) {
	plan, err := PlanInstance(2, managementCols, []Step{{"1", "mix"}}, "id")
	if err != nil {
		t.Fatalf("PlanInstance() error = %v", err)
	}
	if plan.Generated != nil {
		t.Errorf("Generated = %v, want nil", plan.Generated)
	}
	if plan.Inserts() != 0 {
		t.Errorf("Inserts() = %d, want 0", plan.Inserts())
	}
}

func TestPlanInstance_Rejects(t *testing.T) {
	steps := []Step{{"1", "mix"}}
	tests := []struct {
		name    string
		anchor  int
		cols    Columns
		steps   []Step
		id      string
		wantErr error
	}{
		{"no steps", 1, managementCols, nil, "id", ErrNoSteps},
		{"header row anchor", 0, managementCols, steps, "id", core.ErrRangeOutOfBounds},
		{"missing step columns", 1, Columns{GroupID: 1, HeaderFlag: 2, Width: 2}, steps, "id", core.ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanInstance(tt.anchor, tt.cols, tt.steps, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PlanInstance() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := PlanInstance(1, managementCols, steps, ""); err == nil {
		t.Error("PlanInstance() with empty id = nil error, want error")
	}
}

func newManagement(t *testing.T, rows [][]string) (*memory.Store, core.Table) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	tbl, err := s.CreateTable(ctx, sheets.WorkflowManagement, managementHeader)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := tbl.SetValues(ctx, core.RowRange(1, len(rows), len(managementHeader)), rows); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	return s, tbl
}

func TestApplyPlan_ThreeSteps(t *testing.T) {
	ctx := context.Background()
	s, tbl := newManagement(t, [][]string{
		{"", "", "process specification", "anneal", "", "", "anchor"},
		{"g0", "TRUE", "workflow", "later", "", "", "below"},
	})
	before := s.Stats()

	plan, err := PlanInstance(1, managementCols, []Step{{"1", "mix"}, {"2", "heat"}, {"3", "cool"}}, NewGroupID())
	if err != nil {
		t.Fatalf("PlanInstance() error = %v", err)
	}
	if err := ApplyPlan(ctx, tbl, plan); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	got, err := tbl.Values(ctx, core.RowRange(1, 4, 7))
	if err != nil {
		t.Fatalf("Values: %v", err)
	}

	headers := 0
	for i := 0; i < 3; i++ {
		if got[i][0] != plan.GroupID {
			t.Errorf("row %d group id = %q, want %q", i+1, got[i][0], plan.GroupID)
		}
		if got[i][1] == core.FlagTrue {
			headers++
		}
	}
	if headers != 1 || got[0][1] != core.FlagTrue {
		t.Errorf("header flags = %q %q %q, want only the first TRUE", got[0][1], got[1][1], got[2][1])
	}
	if got[0][6] != "anchor" || got[3][6] != "below" {
		t.Errorf("anchor/below rows = %q/%q, want untouched and shifted", got[0][6], got[3][6])
	}

	styles, err := tbl.Styles(ctx, core.RowRange(1, 4, 7))
	if err != nil {
		t.Fatalf("Styles: %v", err)
	}
	for col := 0; col < 7; col++ {
		if styles[0][col] != core.StyleDefault {
			t.Errorf("anchor row col %d style = %v, want default", col+1, styles[0][col])
		}
		for _, r := range []int{1, 2} {
			if styles[r][col] != core.StyleGenerated {
				t.Errorf("row %d col %d style = %v, want generated", r+1, col+1, styles[r][col])
			}
		}
		if styles[3][col] != core.StyleDefault {
			t.Errorf("shifted row col %d style = %v, want default", col+1, styles[3][col])
		}
	}

	after := s.Stats()
	if d := after.StyleWrites - before.StyleWrites; d != 1 {
		t.Errorf("style writes = %d, want 1", d)
	}
	if d := after.RowInserts - before.RowInserts; d != 1 {
		t.Errorf("row inserts = %d, want 1", d)
	}
}

func TestApplyPlan_OneStep(t *testing.T) {
	ctx := context.Background()
	s, tbl := newManagement(t, [][]string{
		{"", "", "process specification", "single", "", "", "anchor"},
		{"g0", "TRUE", "workflow", "next", "", "", "below"},
	})
	before := s.Stats()

	plan, err := PlanInstance(1, managementCols, []Step{{"1", "mix"}}, "fresh")
	if err != nil {
		t.Fatalf("PlanInstance() error = %v", err)
	}
	if err := ApplyPlan(ctx, tbl, plan); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	after := s.Stats()
	if d := after.StyleWrites - before.StyleWrites; d != 0 {
		t.Errorf("style writes = %d, want 0", d)
	}
	if d := after.RowInserts - before.RowInserts; d != 0 {
		t.Errorf("row inserts = %d, want 0", d)
	}

	got, err := tbl.Values(ctx, core.RowRange(1, 2, 7))
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	want := [][]string{
		{"fresh", "TRUE", "process specification", "single", "1", "mix", "anchor"},
		{"g0", "TRUE", "workflow", "next", "", "", "below"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestApplyPlan_RefusesUsedID(t *testing.T) {
	ctx := context.Background()
	s, tbl := newManagement(t, [][]string{
		{"taken", "TRUE", "workflow", "w", "", "", ""},
		{"", "", "process specification", "x", "", "", ""},
	})
	before := s.Stats()

	plan, err := PlanScaffold(2, managementCols, "taken")
	if err != nil {
		t.Fatalf("PlanScaffold() error = %v", err)
	}
	if err := ApplyPlan(ctx, tbl, plan); !errors.Is(err, ErrGroupReused) {
		t.Errorf("ApplyPlan() error = %v, want ErrGroupReused", err)
	}
	if s.Stats() != before {
		t.Errorf("stats changed after refused plan: %+v -> %+v", before, s.Stats())
	}
}

func TestPlanScaffold(t *testing.T) {
	ctx := context.Background()
	_, tbl := newManagement(t, [][]string{{"", "", "workflow", "new", "", "", ""}})

	plan, err := PlanScaffold(1, managementCols, "gid")
	if err != nil {
		t.Fatalf("PlanScaffold() error = %v", err)
	}
	if plan.Generated != nil || plan.Rows != 1 {
		t.Errorf("plan = %+v, want single row without styling", plan)
	}
	if err := ApplyPlan(ctx, tbl, plan); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}
	got, _ := tbl.Values(ctx, core.RowRange(1, 1, 2))
	if !reflect.DeepEqual(got, [][]string{{"gid", "TRUE"}}) {
		t.Errorf("scaffolded cells = %v, want [[gid TRUE]]", got)
	}
}

func TestColumnsFor(t *testing.T) {
	def, ok := core.Get(sheets.ProcessExecution)
	if !ok {
		t.Fatal("processExecution not registered")
	}
	cols, err := ColumnsFor(def.Header(), def, "", "")
	if err != nil {
		t.Fatalf("ColumnsFor() error = %v", err)
	}
	if cols.GroupID != 3 || cols.HeaderFlag != 4 || cols.Width != len(def.Columns) {
		t.Errorf("ColumnsFor() = %+v, want group id in column 3", cols)
	}

	mgmt, _ := core.Get(sheets.WorkflowManagement)
	if _, err := ColumnsFor(mgmt.Header(), mgmt, "missing", ""); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("ColumnsFor(missing) error = %v, want ErrColumnNotFound", err)
	}
}

// ----------------------------------------------------------------------------
// CreateTemplate / Templates
// ----------------------------------------------------------------------------

func TestCreateTemplate_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, tbl := newTemplates(t, nil)

	steps := []Step{{"1", "mix"}, {"2", "heat"}, {"3", "cool"}}
	id, err := CreateTemplate(ctx, tbl, "anneal", steps)
	if err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if _, err := CreateTemplate(ctx, tbl, "wash", []Step{{"1", "rinse"}}); err != nil {
		t.Fatalf("CreateTemplate(wash) error = %v", err)
	}

	got, err := ResolveWorkflow(ctx, tbl, "anneal")
	if err != nil {
		t.Fatalf("ResolveWorkflow() error = %v", err)
	}
	if !reflect.DeepEqual(got, steps) {
		t.Errorf("ResolveWorkflow() = %v, want %v", got, steps)
	}

	tpls, err := Templates(ctx, tbl)
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	if len(tpls) != 2 || tpls[0].Name != "anneal" || tpls[0].GroupID != id || tpls[1].Name != "wash" {
		t.Errorf("Templates() = %+v", tpls)
	}
	if tpls[1].Rows != (Interval{GroupID: tpls[1].GroupID, Start: 4, End: 4}) {
		t.Errorf("wash rows = %+v, want row 4", tpls[1].Rows)
	}

	styles, _ := tbl.Styles(ctx, core.RowRange(1, 4, len(templateHeader)))
	if styles[0][0] != core.StyleDefault || styles[1][0] != core.StyleGenerated || styles[3][0] != core.StyleDefault {
		t.Errorf("template styles = %v", styles)
	}
}

func TestCreateTemplate_Rejects(t *testing.T) {
	ctx := context.Background()
	_, tbl := newTemplates(t, [][]string{{"g1", "TRUE", "anneal", "1", "mix"}})

	if _, err := CreateTemplate(ctx, tbl, "anneal", []Step{{"1", "x"}}); !errors.Is(err, ErrDuplicateWorkflow) {
		t.Errorf("duplicate name error = %v, want ErrDuplicateWorkflow", err)
	}
	if _, err := CreateTemplate(ctx, tbl, "empty", nil); !errors.Is(err, ErrNoSteps) {
		t.Errorf("no steps error = %v, want ErrNoSteps", err)
	}
	if _, err := CreateTemplate(ctx, tbl, "  ", []Step{{"1", "x"}}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
}
