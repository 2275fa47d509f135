package rules

import (
	"reflect"
	"testing"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
)

func TestNewContextKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  ContextKey
	}{
		{[]string{"supplier", "purchased"}, "supplier purchased"},
		{[]string{"supplier", ""}, "supplier"},
		{[]string{"", "purchased"}, "purchased"},
		{[]string{" supplier ", " in-house "}, "supplier in-house"},
		{[]string{"workflowReference", "process specification"}, "workflowReference process specification"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := NewContextKey(tt.parts...); got != tt.want {
			t.Errorf("NewContextKey(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestRegistry_ClassifyExactOrDefault(t *testing.T) {
	def := Descriptor{Kind: core.FieldText, HelpText: "fallback"}
	r := NewRegistry(core.FamilyMaterial, def)

	purchased := Descriptor{Kind: core.FieldText, HelpText: "supplier"}
	r.Register(Case{Column: "supplier", Subcase: "purchased"}, purchased)

	if got := r.Classify("supplier purchased"); !reflect.DeepEqual(got, purchased) {
		t.Errorf("Classify(registered) = %+v, want %+v", got, purchased)
	}

	// Order matters and there is no partial matching.
	for _, key := range []ContextKey{"purchased supplier", "supplier", "supplier  purchased", "Supplier purchased", ""} {
		if got := r.Classify(key); !reflect.DeepEqual(got, r.Classify(DefaultKey)) {
			t.Errorf("Classify(%q) = %+v, want default", key, got)
		}
	}

	if _, ok := r.Lookup("supplier"); ok {
		t.Error("Lookup(unregistered) ok = true, want false")
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	tests := []struct {
		name string
		c    Case
	}{
		{"duplicate", Case{Column: "quantity"}},
		{"default key", Case{Column: "none"}},
		{"empty", Case{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(core.FamilyMaterial, none)
			r.Register(Case{Column: "quantity"}, none)

			defer func() {
				if recover() == nil {
					t.Errorf("Register(%v) did not panic", tt.c)
				}
			}()
			r.Register(tt.c, none)
		})
	}
}

func TestRegistry_Missing(t *testing.T) {
	r := NewRegistry(core.FamilyMaterial, none)
	r.Register(Case{Column: "unit"}, none)

	missing := r.Missing([]Case{{Column: "unit"}, {Column: "unti"}})
	if len(missing) != 1 || missing[0].Column != "unti" {
		t.Errorf("Missing() = %v, want [unti]", missing)
	}
}

// Every declared case of every family must have its own descriptor, so no
// real context silently falls through to "none".
func TestBuiltinCoverage(t *testing.T) {
	for _, family := range []core.Family{core.FamilyConcept, core.FamilyMaterial, core.FamilyWorkflow} {
		t.Run(string(family), func(t *testing.T) {
			r := ForFamily(family)
			if r == nil {
				t.Fatalf("ForFamily(%s) = nil", family)
			}
			cases := CasesFor(family)
			if len(cases) == 0 {
				t.Fatalf("CasesFor(%s) is empty", family)
			}
			if missing := r.Missing(cases); len(missing) > 0 {
				t.Errorf("unregistered cases: %v", missing)
			}
		})
	}
}

// Registered keys classify to their own descriptor; keys outside the
// declared cases are not registered at all.
func TestBuiltinNoStrayKeys(t *testing.T) {
	for _, family := range []core.Family{core.FamilyConcept, core.FamilyMaterial, core.FamilyWorkflow} {
		r := ForFamily(family)
		declared := make(map[ContextKey]bool)
		for _, c := range CasesFor(family) {
			declared[c.Key()] = true
		}
		for _, key := range r.Keys() {
			if key == DefaultKey {
				continue
			}
			if !declared[key] {
				t.Errorf("%s: key %q is registered but not declared", family, key)
			}
			want, _ := r.Lookup(key)
			if got := r.Classify(key); !reflect.DeepEqual(got, want) {
				t.Errorf("%s: Classify(%q) differs from registered descriptor", family, key)
			}
		}
	}
}

func TestMaterialVisibility(t *testing.T) {
	r := ForFamily(core.FamilyMaterial)

	tests := []struct {
		column, subcase string
		wantHidden      bool
	}{
		{sheets.ColSupplier, sheets.RegistrationPurchased, false},
		{sheets.ColSupplier, sheets.RegistrationInHouse, true},
		{sheets.ColCatalogNumber, sheets.RegistrationInHouse, true},
		{sheets.ColSynthesisProcess, sheets.RegistrationInHouse, false},
		{sheets.ColSynthesisProcess, sheets.RegistrationPurchased, true},
		{sheets.ColQuantity, sheets.RegistrationPurchased, false},
		{sheets.ColSupplier, "", false},
		{sheets.ColSupplier, "borrowed", false}, // unknown subcase: default, visible
	}

	for _, tt := range tests {
		got := r.Classify(NewContextKey(tt.column, tt.subcase)).Hidden()
		if got != tt.wantHidden {
			t.Errorf("Hidden(%s %s) = %v, want %v", tt.column, tt.subcase, got, tt.wantHidden)
		}
	}
}

func TestProcessSpecificationDrawsTemplateNames(t *testing.T) {
	d := ForFamily(core.FamilyWorkflow).Classify(
		NewContextKey(sheets.ColWorkflowReference, sheets.RowTypeProcessSpecification))

	if d.Kind != core.FieldList || d.Source == nil {
		t.Fatalf("descriptor = %+v, want list with source", d)
	}
	if d.Source.Table != sheets.WorkflowTemplates || d.Source.ProjectColumn != sheets.ColWorkflowName {
		t.Errorf("Source = %v, want workflowTemplates.workflowName", d.Source)
	}
	if !d.Source.Equals || d.Source.FilterValue != core.FlagTrue {
		t.Errorf("Source = %v, want header rows only", d.Source)
	}
}

func TestDescriptor_Rule(t *testing.T) {
	zero := 0.0
	static := Descriptor{Kind: core.FieldEnum, Allowed: []string{"a", "b"}, Min: &zero, HelpText: "h", OntologyTerm: "o"}
	rule := static.Rule([]string{"ignored"})
	if !reflect.DeepEqual(rule.Allowed, []string{"a", "b"}) {
		t.Errorf("static Rule().Allowed = %v, want [a b]", rule.Allowed)
	}
	if rule.Min == nil || *rule.Min != 0 || rule.HelpText != "h" || rule.OntologyTerm != "o" {
		t.Errorf("Rule() = %+v, fields not carried over", rule)
	}

	sourced := ForFamily(core.FamilyMaterial).Classify(NewContextKey(sheets.ColUnit))
	rule = sourced.Rule([]string{"mg", "mL"})
	if rule.Type != core.FieldList || !reflect.DeepEqual(rule.Allowed, []string{"mg", "mL"}) {
		t.Errorf("sourced Rule() = %+v, want list [mg mL]", rule)
	}
}
