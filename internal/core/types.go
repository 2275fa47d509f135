// Package core provides the workbook model and store contracts for provenance sheets.
// This package has no transport dependencies and can be used by any host.
package core

import (
	"context"
	"fmt"
)

// Family groups sheets that share one classification namespace.
type Family string

const (
	FamilyConcept  Family = "concept"
	FamilyMaterial Family = "material"
	FamilyWorkflow Family = "workflow"
)

// Layer is an optional provenance layer that can be switched on per workbook.
// Sheets in LayerCore are always active.
type Layer string

const (
	LayerCore       Layer = "core"
	LayerActivities Layer = "activities"
)

// FieldType represents the expected data type for a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
	FieldList // allowed values come from another table at configuration time
)

// ColumnSpec describes a single sheet column.
type ColumnSpec struct {
	Name       string    // Header name (matched case-insensitively)
	Type       FieldType // Expected data type
	EnumValues []string  // Valid values for FieldEnum
	Generated  bool      // Written by the engine, not by the operator
}

// SheetInfo contains display information about a sheet.
type SheetInfo struct {
	Key    string // Table name in the store: "materials"
	Family Family // Classification namespace
	Label  string // Display name: "Materials"
	Layer  Layer  // Provenance layer the sheet belongs to
}

// SheetDefinition contains everything the engine needs to know about a sheet.
type SheetDefinition struct {
	Info    SheetInfo
	Columns []ColumnSpec

	// Discriminant names the column whose value selects the classification
	// subcase for a row. Empty when rows are not discriminated.
	Discriminant string

	// KeyColumn names the group id column. An empty key cell on an edited
	// row means the row has not been scaffolded into a mini-table yet.
	KeyColumn string

	// HeaderFlagColumn names the isMiniTableHeader column.
	HeaderFlagColumn string

	// Special sheets never receive mini-table scaffolding on edit.
	Special bool
}

// Header returns the column names in sheet order.
func (d SheetDefinition) Header() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the spec for the named column.
func (d SheetDefinition) Column(name string) (ColumnSpec, bool) {
	for _, c := range d.Columns {
		if equalFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// HasMiniTables reports whether rows of this sheet carry group ids.
func (d SheetDefinition) HasMiniTables() bool {
	return d.KeyColumn != "" && d.HeaderFlagColumn != ""
}

// Header flag values written into HeaderFlagColumn.
const (
	FlagTrue  = "TRUE"
	FlagFalse = "FALSE"
)

// Range addresses a rectangular block of data cells. Row 1 is the first
// data row below the header; Col 1 is the first column.
type Range struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	NumRows int `json:"numRows"`
	NumCols int `json:"numCols"`
}

// Cell returns the single-cell range at (row, col).
func Cell(row, col int) Range {
	return Range{Row: row, Col: col, NumRows: 1, NumCols: 1}
}

// RowRange returns the range covering columns 1..width of a block of rows.
func RowRange(row, numRows, width int) Range {
	return Range{Row: row, Col: 1, NumRows: numRows, NumCols: width}
}

// LastRow returns the last row covered by the range.
func (r Range) LastRow() int { return r.Row + r.NumRows - 1 }

// LastCol returns the last column covered by the range.
func (r Range) LastCol() int { return r.Col + r.NumCols - 1 }

// Validate rejects ranges that would address no cells or cells outside the grid.
// Writers call it before issuing a write.
func (r Range) Validate() error {
	if r.NumRows <= 0 || r.NumCols <= 0 {
		return fmt.Errorf("%w: %d rows x %d cols", ErrEmptyRange, r.NumRows, r.NumCols)
	}
	if r.Row < 1 || r.Col < 1 {
		return fmt.Errorf("%w: origin (%d,%d)", ErrRangeOutOfBounds, r.Row, r.Col)
	}
	return nil
}

// Style is the visual formatting of a cell, expressed as palette color names.
type Style struct {
	Background string `json:"background,omitempty"`
	FontColor  string `json:"fontColor,omitempty"`
}

// Named styles used by the rule logic.
var (
	StyleDefault   = Style{Background: ColorDefault, FontColor: ColorDefaultText}
	StyleHidden    = Style{Background: ColorHidden, FontColor: ColorHiddenText}
	StyleGenerated = Style{Background: ColorGenerated, FontColor: ColorGeneratedText}
	StyleHeader    = Style{Background: ColorHeader, FontColor: ColorHeaderText}
)

// Normalize maps the zero Style to StyleDefault so unset and default cells compare equal.
func (s Style) Normalize() Style {
	if s == (Style{}) {
		return StyleDefault
	}
	return s
}

// ColumnRule is the storable validation constraint attached to a column.
type ColumnRule struct {
	Type         FieldType `json:"type"`
	Allowed      []string  `json:"allowed,omitempty"`
	Min          *float64  `json:"min,omitempty"`
	Max          *float64  `json:"max,omitempty"`
	HelpText     string    `json:"helpText,omitempty"`
	OntologyTerm string    `json:"ontologyTerm,omitempty"`
}

// Store is the tabular data store. It owns all persisted workbook state.
type Store interface {
	// Table returns the named table or an error wrapping ErrTableNotFound.
	Table(ctx context.Context, name string) (Table, error)
	// CreateTable creates a table with the given header row.
	// Returns ErrTableExists if the name is taken.
	CreateTable(ctx context.Context, name string, header []string) (Table, error)
	// Tables lists table names in creation order.
	Tables(ctx context.Context) ([]string, error)
	// DropTable removes a table and everything attached to it.
	DropTable(ctx context.Context, name string) error
}

// Table is one named grid in the store. Reads outside the populated area
// return blank cells; writes grow the grid.
type Table interface {
	Name() string
	Header(ctx context.Context) ([]string, error)
	LastRow(ctx context.Context) (int, error)
	LastColumn(ctx context.Context) (int, error)
	Values(ctx context.Context, r Range) ([][]string, error)
	SetValues(ctx context.Context, r Range, values [][]string) error
	Styles(ctx context.Context, r Range) ([][]Style, error)
	SetStyle(ctx context.Context, r Range, s Style) error
	SetHeaderStyle(ctx context.Context, s Style) error
	// InsertRowsAfter shifts rows below row down by n, leaving n blank rows.
	InsertRowsAfter(ctx context.Context, row, n int) error
	ColumnRule(ctx context.Context, col int) (ColumnRule, bool, error)
	SetColumnRule(ctx context.Context, col int, rule ColumnRule) error
}

// Properties persists cross-session workbook settings.
type Properties interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	DeleteAll(ctx context.Context) error
}

// Notifier presents messages to the operator. Calls are fire-and-forget.
type Notifier interface {
	ShowBlocking(ctx context.Context, text, title string)
	DismissBlocking(ctx context.Context, title string)
	Alert(ctx context.Context, text string)
}
