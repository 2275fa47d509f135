package sheets

import "github.com/JonMunkholm/provtab/internal/core"

// Material sheet columns.
const (
	ColRegistrationType = "registrationType"
	ColSupplier         = "supplier"
	ColCatalogNumber    = "catalogNumber"
	ColSynthesisProcess = "synthesisProcess"
	ColParentMaterial   = "parentMaterial"
	ColQuantity         = "quantity"
)

// Registration types.
const (
	RegistrationInHouse   = "in-house"
	RegistrationPurchased = "purchased"
)

// RegistrationTypes lists the allowed registrationType values.
var RegistrationTypes = []string{RegistrationInHouse, RegistrationPurchased}

func registerMaterials() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    Materials,
			Family: core.FamilyMaterial,
			Label:  "Materials",
		},
		Columns: []core.ColumnSpec{
			{Name: ColGroupID, Type: core.FieldText, Generated: true},
			{Name: ColHeaderFlag, Type: core.FieldBool, Generated: true},
			{Name: ColRegistrationType, Type: core.FieldEnum, EnumValues: RegistrationTypes},
			{Name: ColMaterialName, Type: core.FieldText},
			{Name: ColSupplier, Type: core.FieldText},
			{Name: ColCatalogNumber, Type: core.FieldText},
			{Name: ColSynthesisProcess, Type: core.FieldList},
			{Name: ColParentMaterial, Type: core.FieldList},
			{Name: ColQuantity, Type: core.FieldNumeric},
			{Name: ColUnit, Type: core.FieldList},
		},
		Discriminant:     ColRegistrationType,
		KeyColumn:        ColGroupID,
		HeaderFlagColumn: ColHeaderFlag,
	})
}
