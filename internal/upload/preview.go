package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
)

// Sample limits
const (
	maxRowSamples   = 10
	maxErrorSamples = 20
)

// Summary counts the data rows of a file.
type Summary struct {
	TotalRows int `json:"totalRows"`
	ValidRows int `json:"validRows"`
	ErrorRows int `json:"errorRows"`
}

// RowPreview is a valid row as it will be written.
type RowPreview struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// ErrorPreview is a row that breaks a column rule. It is skipped on import.
type ErrorPreview struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
	Errors []string          `json:"errors"`
}

// Preview is the read-only analysis of a file against a sheet.
type Preview struct {
	Sheet            string         `json:"sheet"`
	Summary          Summary        `json:"summary"`
	Mapped           []string       `json:"mapped"`
	Generated        []string       `json:"generated,omitempty"`
	Unknown          []string       `json:"unknown,omitempty"`
	RowSamples       []RowPreview   `json:"rowSamples"`
	ErrorSamples     []ErrorPreview `json:"errorSamples"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// RuleSource returns the stored rules of a sheet. *edit.Orchestrator
// implements it.
type RuleSource interface {
	SheetRules(ctx context.Context, sheet string) ([]edit.ColumnRuleView, error)
}

// analysis is a preview plus the records that passed validation.
type analysis struct {
	preview Preview
	valid   []Record
}

// Analyze validates every record of f against the rules stored on its
// sheet. It writes nothing.
func Analyze(ctx context.Context, rules RuleSource, f *File) (Preview, error) {
	a, err := analyze(ctx, rules, f, time.Now())
	return a.preview, err
}

func analyze(ctx context.Context, rules RuleSource, f *File, start time.Time) (analysis, error) {
	views, err := rules.SheetRules(ctx, f.Sheet)
	if err != nil {
		return analysis{}, err
	}
	byName := make(map[string]*core.ColumnRule, len(views))
	for _, v := range views {
		byName[strings.ToLower(v.Column)] = v.Rule
	}

	a := analysis{preview: Preview{
		Sheet:        f.Sheet,
		Summary:      Summary{TotalRows: len(f.Records)},
		Generated:    f.Generated,
		Unknown:      f.Unknown,
		RowSamples:   []RowPreview{},
		ErrorSamples: []ErrorPreview{},
	}}
	for _, c := range f.Mapped {
		a.preview.Mapped = append(a.preview.Mapped, c.Name)
	}

	for i, rec := range f.Records {
		if i%100 == 0 && ctx.Err() != nil {
			return analysis{}, ctx.Err()
		}

		values := make(map[string]string, len(f.Mapped))
		var errs []string
		for _, c := range f.Mapped {
			v := core.CellAt(rec.Cells, c.Index)
			values[c.Name] = v
			rule := byName[strings.ToLower(c.Name)]
			if rule == nil {
				continue
			}
			if err := core.ValidateCell(v, *rule); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", c.Name, err))
			}
		}

		if len(errs) > 0 {
			a.preview.Summary.ErrorRows++
			if len(a.preview.ErrorSamples) < maxErrorSamples {
				a.preview.ErrorSamples = append(a.preview.ErrorSamples, ErrorPreview{Line: rec.Line, Values: values, Errors: errs})
			}
			continue
		}
		a.preview.Summary.ValidRows++
		a.valid = append(a.valid, rec)
		if len(a.preview.RowSamples) < maxRowSamples {
			a.preview.RowSamples = append(a.preview.RowSamples, RowPreview{Line: rec.Line, Values: values})
		}
	}

	a.preview.ProcessingTimeMs = time.Since(start).Milliseconds()
	return a, nil
}
