package rules

import (
	"fmt"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
)

// Declared cases per family: every column of every sheet in the family,
// once at column level and once per value of the sheet's closed
// discriminant. Sheets whose discriminant is an open list (processes) only
// declare column-level cases.
var (
	ConceptCases  = casesFor(sheets.Concepts, sheets.ConceptTypes)
	MaterialCases = casesFor(sheets.Materials, sheets.RegistrationTypes)
	WorkflowCases = mergeCases(
		casesFor(sheets.Processes, nil),
		casesFor(sheets.WorkflowTemplates, nil),
		casesFor(sheets.WorkflowManagement, sheets.RowTypes),
		casesFor(sheets.ProcessExecution, sheets.ExecutionTypes),
	)
)

// CasesFor returns the declared cases of a family.
func CasesFor(family core.Family) []Case {
	switch family {
	case core.FamilyConcept:
		return ConceptCases
	case core.FamilyMaterial:
		return MaterialCases
	case core.FamilyWorkflow:
		return WorkflowCases
	default:
		return nil
	}
}

func casesFor(sheet string, subcases []string) []Case {
	def, ok := core.Get(sheet)
	if !ok {
		panic(fmt.Sprintf("rules: sheet %s is not registered", sheet))
	}
	var cases []Case
	for _, col := range def.Header() {
		cases = append(cases, Case{Column: col})
		for _, s := range subcases {
			cases = append(cases, Case{Column: col, Subcase: s})
		}
	}
	return cases
}

func mergeCases(groups ...[]Case) []Case {
	seen := make(map[Case]bool)
	var out []Case
	for _, g := range groups {
		for _, c := range g {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// everyCase prepends the column-level case to a subcase list.
func everyCase(subcases []string) []string {
	return append([]string{""}, subcases...)
}
