package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCell(t *testing.T) {
	zero := 0.0
	hundred := 100.0

	tests := []struct {
		name    string
		value   string
		rule    ColumnRule
		wantErr string // substring, empty means valid
	}{
		{name: "empty always valid", value: "", rule: ColumnRule{Type: FieldNumeric}},
		{name: "text accepts anything", value: "anything", rule: ColumnRule{Type: FieldText}},
		{name: "numeric ok", value: "12.5", rule: ColumnRule{Type: FieldNumeric}},
		{name: "numeric invalid", value: "12 g", rule: ColumnRule{Type: FieldNumeric}, wantErr: "invalid number"},
		{name: "numeric below min", value: "-1", rule: ColumnRule{Type: FieldNumeric, Min: &zero}, wantErr: "at least 0"},
		{name: "numeric above max", value: "101", rule: ColumnRule{Type: FieldNumeric, Max: &hundred}, wantErr: "at most 100"},
		{name: "numeric on bound", value: "0", rule: ColumnRule{Type: FieldNumeric, Min: &zero}},
		{name: "date ok", value: "2024-05-01", rule: ColumnRule{Type: FieldDate}},
		{name: "date invalid", value: "soon", rule: ColumnRule{Type: FieldDate}, wantErr: "invalid date"},
		{name: "bool ok", value: "TRUE", rule: ColumnRule{Type: FieldBool}},
		{name: "bool invalid", value: "perhaps", rule: ColumnRule{Type: FieldBool}, wantErr: "must be TRUE/FALSE"},
		{name: "enum ok case-insensitive", value: "In-House", rule: ColumnRule{Type: FieldEnum, Allowed: []string{"in-house", "purchased"}}},
		{name: "enum rejected", value: "borrowed", rule: ColumnRule{Type: FieldEnum, Allowed: []string{"in-house", "purchased"}}, wantErr: "invalid enum"},
		{name: "list with no values accepts anything", value: "x", rule: ColumnRule{Type: FieldList}},
		{name: "list rejected", value: "y", rule: ColumnRule{Type: FieldList, Allowed: []string{"x"}}, wantErr: "one of: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCell(tt.value, tt.rule)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateCell(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateCell(%q) = nil, want error containing %q", tt.value, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateCell(%q) = %q, want substring %q", tt.value, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateHeader(t *testing.T) {
	def := testSheet("materials", FamilyMaterial)

	idx, err := ValidateHeader([]string{"groupId", "isMiniTableHeader", "kind", "extra"}, def)
	if err != nil {
		t.Fatalf("ValidateHeader() error = %v", err)
	}
	if pos, _ := idx.Position("kind"); pos != 3 {
		t.Errorf("Position(kind) = %d, want 3", pos)
	}

	_, err = ValidateHeader([]string{"groupId"}, def)
	if err == nil {
		t.Fatal("ValidateHeader() with missing columns = nil, want error")
	}
	if !strings.Contains(err.Error(), "isMiniTableHeader, kind") {
		t.Errorf("error = %q, want both missing columns listed", err.Error())
	}
	if MapError(err).Code != "WB003" {
		t.Errorf("MapError code = %q, want WB003", MapError(err).Code)
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError{Field: "quantity", Value: "-1", Message: "must be at least 0"}
	if err.Error() != "quantity: must be at least 0" {
		t.Errorf("Error() = %q", err.Error())
	}
	var target ValidationError
	if !errors.As(error(err), &target) {
		t.Error("errors.As failed for ValidationError")
	}
}

func TestRange_Validate(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want error
	}{
		{name: "single cell", r: Cell(1, 1)},
		{name: "block", r: RowRange(3, 2, 5)},
		{name: "zero rows", r: RowRange(3, 0, 5), want: ErrEmptyRange},
		{name: "negative cols", r: Range{Row: 1, Col: 1, NumRows: 1, NumCols: -1}, want: ErrEmptyRange},
		{name: "row zero is the header", r: Range{Row: 0, Col: 1, NumRows: 1, NumCols: 1}, want: ErrRangeOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRange_Bounds(t *testing.T) {
	r := RowRange(4, 3, 6)
	if r.LastRow() != 6 || r.LastCol() != 6 {
		t.Errorf("LastRow/LastCol = %d/%d, want 6/6", r.LastRow(), r.LastCol())
	}
}

func TestStyle_Normalize(t *testing.T) {
	if got := (Style{}).Normalize(); got != StyleDefault {
		t.Errorf("zero Style normalizes to %v, want StyleDefault", got)
	}
	if got := StyleHidden.Normalize(); got != StyleHidden {
		t.Errorf("StyleHidden normalizes to %v", got)
	}
}
