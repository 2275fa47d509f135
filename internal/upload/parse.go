// Package upload imports CSV files into workbook sheets.
//
// An import parses the file, finds its header row, maps CSV columns to
// sheet columns by name and validates every row against the rules stored
// on the sheet. Valid rows are appended below the sheet's last row and each
// one is run through the edit orchestrator, so imported rows are scaffolded
// (or expanded into workflow rows) exactly as if an operator had typed
// them. A dry run stops after validation and returns the preview.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/provtab/internal/core"
)

var (
	ErrEmptyFile      = errors.New("empty file")
	ErrHeaderNotFound = errors.New("header not found")
	ErrNoDataRows     = errors.New("no data rows after header")
	ErrTooLarge       = errors.New("file too large")
	ErrTooManyRows    = errors.New("too many rows")
	ErrMalformed      = errors.New("parse csv")
)

// MaxHeaderSearchRows is how many leading rows are scanned for the header.
const MaxHeaderSearchRows = 20

// Record is one non-empty data row of the file.
type Record struct {
	Line  int      // 1-based line in the file
	Cells []string // raw CSV fields
}

// Column maps a CSV column to a sheet column.
type Column struct {
	Name  string `json:"name"`  // sheet column name
	Index int    `json:"index"` // 0-based CSV field index
}

// File is a parsed CSV file matched against a sheet.
type File struct {
	Sheet      string
	HeaderLine int
	// Mapped lists the CSV columns that name an operator column, in CSV order.
	Mapped []Column
	// Generated lists CSV columns naming engine-written columns; their
	// values are ignored.
	Generated []string
	// Unknown lists CSV headers that match no sheet column.
	Unknown []string
	Records []Record
}

// Value returns the cleaned cell of rec under the sheet column name.
func (f *File) Value(rec Record, name string) string {
	for _, c := range f.Mapped {
		if strings.EqualFold(c.Name, name) {
			return core.CellAt(rec.Cells, c.Index)
		}
	}
	return ""
}

// Parse reads CSV from r and matches its header against def. maxRows
// bounds the number of data rows; zero means no bound.
func Parse(r io.Reader, def core.SheetDefinition, maxRows int) (*File, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	f := &File{Sheet: def.Info.Key}
	rows := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rows++
		line, _ := cr.FieldPos(0)

		if f.HeaderLine == 0 {
			if rows > MaxHeaderSearchRows {
				return nil, headerNotFound(def)
			}
			if matchHeader(f, row, def) {
				f.HeaderLine = line
			}
			continue
		}
		if isEmptyRow(row) {
			continue
		}
		if maxRows > 0 && len(f.Records) == maxRows {
			return nil, fmt.Errorf("%w: limit is %d data rows", ErrTooManyRows, maxRows)
		}
		f.Records = append(f.Records, Record{Line: line, Cells: row})
	}

	switch {
	case rows == 0:
		return nil, ErrEmptyFile
	case f.HeaderLine == 0:
		return nil, headerNotFound(def)
	case len(f.Records) == 0:
		return nil, ErrNoDataRows
	}
	return f, nil
}

// matchHeader fills f's column mapping from row when row names at least one
// operator column of def.
func matchHeader(f *File, row []string, def core.SheetDefinition) bool {
	var (
		mapped    []Column
		generated []string
		unknown   []string
		seen      = make(map[string]bool)
	)
	for i, cell := range row {
		name := core.CleanCell(cell)
		if name == "" {
			continue
		}
		spec, ok := def.Column(name)
		switch {
		case !ok:
			unknown = append(unknown, name)
		case spec.Generated:
			generated = append(generated, spec.Name)
		case seen[strings.ToLower(spec.Name)]:
			// First occurrence wins, as in core.MakeHeaderIndex.
		default:
			seen[strings.ToLower(spec.Name)] = true
			mapped = append(mapped, Column{Name: spec.Name, Index: i})
		}
	}
	if len(mapped) == 0 {
		return false
	}
	f.Mapped, f.Generated, f.Unknown = mapped, generated, unknown
	return true
}

func headerNotFound(def core.SheetDefinition) error {
	var names []string
	for _, c := range def.Columns {
		if !c.Generated {
			names = append(names, c.Name)
		}
	}
	return fmt.Errorf("%w in the first %d rows (expected any of: %s)",
		ErrHeaderNotFound, MaxHeaderSearchRows, strings.Join(names, ", "))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
