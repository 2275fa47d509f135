// Package core provides the workbook model and store contracts for provenance sheets.
//
// The package holds no transport or storage code. Hosts (the HTTP server, the
// CLI, tests) hand an implementation of [Store] to the engine packages, which
// re-read everything they need on every operation.
//
// # Sheet Registry
//
// Sheets are registered at init time using [Register]. Each [SheetDefinition]
// describes the column layout of one table and the columns the engine keys on:
//
//	core.Register(SheetDefinition{
//	    Info: SheetInfo{Key: "processes", Family: FamilyWorkflow, Label: "Processes"},
//	    Columns: []ColumnSpec{
//	        {Name: "groupId", Generated: true},
//	        {Name: "isMiniTableHeader", Type: FieldBool, Generated: true},
//	        {Name: "processType", Type: FieldEnum, EnumValues: processTypes},
//	    },
//	    Discriminant:     "processType",
//	    KeyColumn:        "groupId",
//	    HeaderFlagColumn: "isMiniTableHeader",
//	})
//
// Registration order is the configuration order.
//
// # Cells and Ranges
//
// A [Table] is a grid of string cells. Row 1 is the first data row below the
// header; columns are 1-based positions resolved by name through a
// [HeaderIndex]. Writers validate a [Range] before issuing a write so a
// zero-length range never reaches a backend.
//
// Styles carry palette names, not colors. A [Palette] resolves names to hex
// values at render time.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - WB001-WB006: Workbook and store errors
//   - RULE001-RULE004: Column rule violations
//   - WF001-WF006: Workflow template errors
//   - EDIT001-EDIT007: Edit pass and layer errors
//   - IMP001-IMP006: CSV import errors
//   - REQ001: Malformed requests
package core
