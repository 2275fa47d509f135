package sheets

import "github.com/JonMunkholm/provtab/internal/core"

// Concept sheet columns.
const (
	ColConceptType  = "conceptType"
	ColLabel        = "label"
	ColOntologyTerm = "ontologyTerm"
	ColUnit         = "unit"
	ColDefinition   = "definition"
)

// Concept types. Rows of the concepts sheet with these types feed the
// controlled vocabularies of the other sheets.
const (
	ConceptUnit          = "unit"
	ConceptProcessType   = "processType"
	ConceptInstrument    = "instrument"
	ConceptMaterialClass = "materialClass"
)

// ConceptTypes lists every concept type in display order.
var ConceptTypes = []string{ConceptUnit, ConceptProcessType, ConceptInstrument, ConceptMaterialClass}

func registerConcepts() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    Concepts,
			Family: core.FamilyConcept,
			Label:  "Concepts",
		},
		Columns: []core.ColumnSpec{
			{Name: ColConceptType, Type: core.FieldEnum, EnumValues: ConceptTypes},
			{Name: ColLabel, Type: core.FieldText},
			{Name: ColOntologyTerm, Type: core.FieldText},
			{Name: ColUnit, Type: core.FieldText},
			{Name: ColDefinition, Type: core.FieldText},
		},
		Discriminant: ColConceptType,
		Special:      true,
	})
}
