package core

// validation.go checks edited cell values against the rule stored on their column.
//
// Rules are attached to columns by the configuration pass. When an operator
// edits a cell, the orchestrator validates the new value and alerts on a
// violation; the value itself is kept (the store is the source of truth and
// the operator decides whether to correct it).

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a cell.
type ValidationError struct {
	Field   string // Column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateCell validates a single cell value against a column rule.
// Empty values are always valid.
func ValidateCell(value string, rule ColumnRule) error {
	value = CleanCell(value)
	if value == "" {
		return nil
	}

	switch rule.Type {
	case FieldNumeric:
		f, ok := ParseFloat(value)
		if !ok {
			return fmt.Errorf("invalid number format")
		}
		if rule.Min != nil && f < *rule.Min {
			return fmt.Errorf("invalid number: must be at least %g", *rule.Min)
		}
		if rule.Max != nil && f > *rule.Max {
			return fmt.Errorf("invalid number: must be at most %g", *rule.Max)
		}
	case FieldDate:
		if !ParseDate(value).Valid {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD or similar)")
		}
	case FieldBool:
		if !ParseBool(value).Valid {
			return fmt.Errorf("must be TRUE/FALSE, yes/no, or 1/0")
		}
	case FieldEnum, FieldList:
		if len(rule.Allowed) > 0 {
			for _, ev := range rule.Allowed {
				if strings.EqualFold(ev, value) {
					return nil
				}
			}
			return fmt.Errorf("invalid enum: value must be one of: %s", strings.Join(rule.Allowed, ", "))
		}
	}
	return nil
}

// ValidateHeader checks that every column of def is present in header.
// Returns the header index or an error listing the missing columns.
func ValidateHeader(header []string, def SheetDefinition) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, col := range def.Columns {
		if _, ok := idx.Position(col.Name); !ok {
			missing = append(missing, col.Name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("sheet %s: missing required column: %s", def.Info.Key, strings.Join(missing, ", "))
	}

	return idx, nil
}

func columnNotFound(table, name string) error {
	return fmt.Errorf("%s.%s: %w", table, name, ErrColumnNotFound)
}

// FieldTypeName returns a human-readable name for a field type.
func FieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	case FieldList:
		return "list"
	default:
		return "value"
	}
}
