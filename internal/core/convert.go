package core

// convert.go parses operator-entered cell text into typed values.
//
// Sheets are edited by hand, so parsing is forgiving:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Thousands separators and unit-free decimals in quantities
//   - Various boolean representations (TRUE/FALSE, yes/no, 1/0)
//   - Formula prefixes (="value") and stray quotes
//
// All parse functions return pgtype values with Valid=false for empty or
// invalid input, so callers can test validity without a second error value.

import (
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers and decimals. Scientific notation is rejected because
// pgtype.Numeric.Scan does not accept it.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// HeaderIndex maps column names (lowercase) to their 0-based position in the header row.
type HeaderIndex map[string]int

// ParseDate converts a string to pgtype.Date.
// Supports multiple date formats and handles 2-digit years with pivot.
func ParseDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// ParseNumeric converts a string to pgtype.Numeric.
// Thousands separators are dropped; "(1.5)" is read as -1.5.
func ParseNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}

	return n
}

// ParseFloat converts a string to float64 using ParseNumeric.
// The second return value is false for empty or invalid input.
func ParseFloat(s string) (float64, bool) {
	n := ParseNumeric(s)
	if !n.Valid {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// ParseBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ParseBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// IsHeaderFlag reports whether a header flag cell marks a mini-table header.
func IsHeaderFlag(s string) bool {
	b := ParseBool(s)
	return b.Valid && b.Bool
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. On duplicate names the
// first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; seen {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Position returns the 1-based column position of name, as used by Range.
func (h HeaderIndex) Position(name string) (int, bool) {
	i, ok := h[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, false
	}
	return i + 1, true
}

// MustPosition is Position that reports a missing column as an error wrapping ErrColumnNotFound.
func (h HeaderIndex) MustPosition(table, name string) (int, error) {
	pos, ok := h.Position(name)
	if !ok {
		return 0, columnNotFound(table, name)
	}
	return pos, nil
}

// CleanCell removes common artifacts from a cell value:
// - Trims whitespace
// - Removes formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// CellAt returns row[i] cleaned, or "" when the row is too short.
func CellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
