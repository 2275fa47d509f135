package rules

import (
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/lists"
)

var builtin = map[core.Family]*Registry{
	core.FamilyConcept:  conceptRegistry(),
	core.FamilyMaterial: materialRegistry(),
	core.FamilyWorkflow: workflowRegistry(),
}

// ForFamily returns the built-in registry of a family, or nil.
func ForFamily(family core.Family) *Registry {
	return builtin[family]
}

// ForSheet returns the registry that classifies a sheet's cells.
func ForSheet(def core.SheetDefinition) *Registry {
	return ForFamily(def.Info.Family)
}

var none = Descriptor{Kind: core.FieldText}

var (
	generatedID = Descriptor{
		Kind:     core.FieldText,
		HelpText: "Generated group id linking the rows of one entry. Do not edit.",
	}
	generatedFlag = Descriptor{
		Kind:     core.FieldBool,
		HelpText: "TRUE on the first row of an entry. Generated, do not edit.",
	}
	notes = Descriptor{Kind: core.FieldText, HelpText: "Free text notes."}

	stepNumber = Descriptor{
		Kind:     core.FieldNumeric,
		Min:      floatPtr(1),
		HelpText: "Position of the step within the workflow, starting at 1.",
	}
)

// conceptList draws the labels of one concept type from the concepts sheet.
func conceptList(conceptType, help, term string) Descriptor {
	return Descriptor{
		Kind: core.FieldList,
		Source: &lists.Source{
			Table:         sheets.Concepts,
			FilterColumn:  sheets.ColConceptType,
			FilterValue:   conceptType,
			Equals:        true,
			ProjectColumn: sheets.ColLabel,
		},
		HelpText:     help,
		OntologyTerm: term,
	}
}

// nonBlank draws every non-empty value of a column.
func nonBlank(table, column, help, term string) Descriptor {
	return Descriptor{
		Kind: core.FieldList,
		Source: &lists.Source{
			Table:         table,
			FilterColumn:  column,
			FilterValue:   "",
			Equals:        false,
			ProjectColumn: column,
		},
		HelpText:     help,
		OntologyTerm: term,
	}
}

func hidden(d Descriptor) Descriptor {
	d.Visibility = Hidden
	return d
}

func floatPtr(f float64) *float64 { return &f }

func conceptRegistry() *Registry {
	r := NewRegistry(core.FamilyConcept, none)
	all := everyCase(sheets.ConceptTypes)

	r.on(sheets.ColConceptType, Descriptor{
		Kind:     core.FieldEnum,
		Allowed:  sheets.ConceptTypes,
		HelpText: "Vocabulary the concept belongs to.",
	}, all...)
	r.on(sheets.ColLabel, Descriptor{
		Kind:         core.FieldText,
		HelpText:     "Preferred label, offered in drop-downs of the other sheets.",
		OntologyTerm: "skos:prefLabel",
	}, all...)
	r.on(sheets.ColOntologyTerm, Descriptor{
		Kind:     core.FieldText,
		HelpText: "CURIE of the matching ontology class, e.g. OBI:0000070.",
	}, all...)

	unit := Descriptor{
		Kind:         core.FieldText,
		HelpText:     "Symbol of the unit, e.g. mg or mL.",
		OntologyTerm: "UO:0000000",
	}
	r.on(sheets.ColUnit, unit, "", sheets.ConceptUnit)
	r.on(sheets.ColUnit, hidden(unit), sheets.ConceptProcessType, sheets.ConceptInstrument, sheets.ConceptMaterialClass)

	r.on(sheets.ColDefinition, Descriptor{
		Kind:         core.FieldText,
		HelpText:     "Textual definition.",
		OntologyTerm: "IAO:0000115",
	}, all...)

	return r
}

func materialRegistry() *Registry {
	r := NewRegistry(core.FamilyMaterial, none)
	all := everyCase(sheets.RegistrationTypes)
	inHouse, purchased := sheets.RegistrationInHouse, sheets.RegistrationPurchased

	r.on(sheets.ColGroupID, generatedID, all...)
	r.on(sheets.ColHeaderFlag, generatedFlag, all...)
	r.on(sheets.ColRegistrationType, Descriptor{
		Kind:     core.FieldEnum,
		Allowed:  sheets.RegistrationTypes,
		HelpText: "in-house for materials made in the lab, purchased for bought materials.",
	}, all...)
	r.on(sheets.ColMaterialName, Descriptor{
		Kind:         core.FieldText,
		HelpText:     "Unique name of the material.",
		OntologyTerm: "CHEBI:24431",
	}, all...)

	supplier := Descriptor{
		Kind:         core.FieldText,
		HelpText:     "Company the material was bought from.",
		OntologyTerm: "OBI:0000835",
	}
	r.on(sheets.ColSupplier, supplier, "", purchased)
	r.on(sheets.ColSupplier, hidden(supplier), inHouse)

	catalog := Descriptor{Kind: core.FieldText, HelpText: "Supplier catalog number."}
	r.on(sheets.ColCatalogNumber, catalog, "", purchased)
	r.on(sheets.ColCatalogNumber, hidden(catalog), inHouse)

	synthesis := nonBlank(sheets.Processes, sheets.ColProcessName,
		"Process that produced the material.", "OBI:0000011")
	r.on(sheets.ColSynthesisProcess, synthesis, "", inHouse)
	r.on(sheets.ColSynthesisProcess, hidden(synthesis), purchased)

	parent := Descriptor{
		Kind: core.FieldList,
		Source: &lists.Source{
			Table:         sheets.Materials,
			FilterColumn:  sheets.ColRegistrationType,
			FilterValue:   inHouse,
			Equals:        true,
			ProjectColumn: sheets.ColMaterialName,
		},
		HelpText:     "In-house material this one was derived from.",
		OntologyTerm: "RO:0001000",
	}
	r.on(sheets.ColParentMaterial, parent, "", inHouse)
	r.on(sheets.ColParentMaterial, hidden(parent), purchased)

	r.on(sheets.ColQuantity, Descriptor{
		Kind:         core.FieldNumeric,
		Min:          floatPtr(0),
		HelpText:     "Amount registered, in the selected unit.",
		OntologyTerm: "PATO:0000070",
	}, all...)
	r.on(sheets.ColUnit, conceptList(sheets.ConceptUnit, "Unit of the quantity.", "UO:0000000"), all...)

	return r
}

func workflowRegistry() *Registry {
	r := NewRegistry(core.FamilyWorkflow, none)

	// Columns shared by the workflow sheets.
	processType := conceptList(sheets.ConceptProcessType, "Kind of process.", "OBI:0000011")
	r.on(sheets.ColGroupID, generatedID)
	r.on(sheets.ColHeaderFlag, generatedFlag)
	r.on(sheets.ColProcessType, processType)
	r.on(sheets.ColStepNumber, stepNumber)
	r.on(sheets.ColNotes, notes)

	// processes
	r.on(sheets.ColProcessName, Descriptor{
		Kind:     core.FieldText,
		HelpText: "Unique name of the process.",
	})
	r.on(sheets.ColInstrument, conceptList(sheets.ConceptInstrument, "Instrument used.", "OBI:0000968"))
	r.on(sheets.ColDescription, Descriptor{Kind: core.FieldText, HelpText: "What the process does."})

	// workflowTemplates
	r.on(sheets.ColWorkflowName, Descriptor{
		Kind:     core.FieldText,
		HelpText: "Unique name of the reporting workflow.",
	})

	// workflowManagement
	rowType := Descriptor{
		Kind:     core.FieldEnum,
		Allowed:  sheets.RowTypes,
		HelpText: "What this row records.",
	}
	reference := Descriptor{
		Kind:     core.FieldText,
		HelpText: "Workflow name, or the template or material this row refers to.",
	}
	templateName := Descriptor{
		Kind: core.FieldList,
		Source: &lists.Source{
			Table:         sheets.WorkflowTemplates,
			FilterColumn:  sheets.ColHeaderFlag,
			FilterValue:   core.FlagTrue,
			Equals:        true,
			ProjectColumn: sheets.ColWorkflowName,
		},
		HelpText: "Reporting workflow to instantiate. Selecting one inserts its steps.",
	}
	materialRef := nonBlank(sheets.Materials, sheets.ColMaterialName, "Material used by the workflow.", "CHEBI:24431")

	r.on(sheets.ColRowType, rowType, everyCase(sheets.RowTypes)...)
	r.on(sheets.ColWorkflowReference, reference, "", sheets.RowTypeWorkflow)
	r.on(sheets.ColWorkflowReference, templateName, sheets.RowTypeProcessSpecification)
	r.on(sheets.ColWorkflowReference, materialRef, sheets.RowTypeMaterialSpecification)

	for _, rt := range sheets.RowTypes {
		r.on(sheets.ColGroupID, generatedID, rt)
		r.on(sheets.ColHeaderFlag, generatedFlag, rt)
		r.on(sheets.ColNotes, notes, rt)
	}
	r.on(sheets.ColStepNumber, hidden(stepNumber), sheets.RowTypeWorkflow)
	r.on(sheets.ColStepNumber, stepNumber, sheets.RowTypeProcessSpecification, sheets.RowTypeMaterialSpecification)
	r.on(sheets.ColProcessType, hidden(processType), sheets.RowTypeWorkflow, sheets.RowTypeMaterialSpecification)
	r.on(sheets.ColProcessType, processType, sheets.RowTypeProcessSpecification)

	// processExecution
	planned, performed := sheets.ExecutionPlanned, sheets.ExecutionPerformed
	executionDate := Descriptor{
		Kind:     core.FieldDate,
		HelpText: "Date the process was run or is planned for.",
	}
	operator := Descriptor{Kind: core.FieldText, HelpText: "Person who ran the process."}
	processRef := nonBlank(sheets.Processes, sheets.ColProcessName, "Process that was executed.", "OBI:0000011")
	input := nonBlank(sheets.Materials, sheets.ColMaterialName, "Material consumed.", "RO:0002233")
	output := nonBlank(sheets.Materials, sheets.ColMaterialName, "Material produced.", "RO:0002234")

	r.on(sheets.ColExecutionDate, executionDate, everyCase(sheets.ExecutionTypes)...)
	r.on(sheets.ColOperator, operator, "", performed)
	r.on(sheets.ColOperator, hidden(operator), planned)
	r.on(sheets.ColExecutionType, Descriptor{
		Kind:     core.FieldEnum,
		Allowed:  sheets.ExecutionTypes,
		HelpText: "planned for scheduled runs, performed once the run happened.",
	}, everyCase(sheets.ExecutionTypes)...)
	r.on(sheets.ColProcessReference, processRef, everyCase(sheets.ExecutionTypes)...)
	r.on(sheets.ColInputMaterial, input, everyCase(sheets.ExecutionTypes)...)
	r.on(sheets.ColOutputMaterial, output, "", performed)
	r.on(sheets.ColOutputMaterial, hidden(output), planned)

	for _, et := range sheets.ExecutionTypes {
		r.on(sheets.ColGroupID, generatedID, et)
		r.on(sheets.ColHeaderFlag, generatedFlag, et)
		r.on(sheets.ColNotes, notes, et)
	}

	return r
}
