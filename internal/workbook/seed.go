// Package workbook loads seed workbooks and palettes from YAML files.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/minitable"
)

// Seed is the content of a seed file.
//
//	layers:
//	  activities: true
//	sheets:
//	  - name: concepts
//	    rows:
//	      - {conceptType: unit, label: mg}
//	workflows:
//	  - name: w1
//	    steps:
//	      - {stepNumber: "1", processType: p1}
type Seed struct {
	Layers    map[string]bool `yaml:"layers"`
	Sheets    []SheetSeed     `yaml:"sheets"`
	Workflows []WorkflowSeed  `yaml:"workflows"`
}

// SheetSeed appends rows to one sheet. Rows are keyed by column name;
// columns a row omits stay blank.
type SheetSeed struct {
	Name string              `yaml:"name"`
	Rows []map[string]string `yaml:"rows"`
}

// WorkflowSeed is a reporting workflow template.
type WorkflowSeed struct {
	Name  string           `yaml:"name"`
	Steps []minitable.Step `yaml:"steps"`
}

// SeedReport summarizes what Apply wrote.
type SeedReport struct {
	Created   []string `json:"created,omitempty"`
	Rows      int      `json:"rows"`
	Workflows int      `json:"workflows"`
	Layers    int      `json:"layers"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	seed := &Seed{}
	if err := decodeStrict(data, seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// Apply writes the seed into the store. Sheets are created from their
// registered layout when missing; rows are appended below existing data.
func Apply(ctx context.Context, store core.Store, props core.Properties, seed *Seed) (SeedReport, error) {
	var report SeedReport

	for name, on := range seed.Layers {
		if core.Layer(name) == core.LayerCore {
			continue
		}
		if err := checkLayer(core.Layer(name)); err != nil {
			return report, err
		}
		if err := props.Set(ctx, edit.LayerProperty(core.Layer(name)), strconv.FormatBool(on)); err != nil {
			return report, fmt.Errorf("seed layer %s: %w", name, err)
		}
		report.Layers++
	}

	for _, s := range seed.Sheets {
		t, created, err := ensureTable(ctx, store, s.Name)
		if err != nil {
			return report, err
		}
		if created {
			report.Created = append(report.Created, s.Name)
		}
		n, err := appendRows(ctx, t, s.Rows)
		if err != nil {
			return report, err
		}
		report.Rows += n
	}

	if len(seed.Workflows) > 0 {
		t, created, err := ensureTable(ctx, store, sheets.WorkflowTemplates)
		if err != nil {
			return report, err
		}
		if created {
			report.Created = append(report.Created, sheets.WorkflowTemplates)
		}
		for _, w := range seed.Workflows {
			if _, err := minitable.CreateTemplate(ctx, t, w.Name, w.Steps); err != nil {
				return report, fmt.Errorf("seed workflow %q: %w", w.Name, err)
			}
			report.Workflows++
		}
	}

	return report, nil
}

func checkLayer(layer core.Layer) error {
	for _, l := range edit.Layers() {
		if l == layer {
			return nil
		}
	}
	return fmt.Errorf("seed layer %q: %w", layer, edit.ErrUnknownLayer)
}

// ensureTable returns the named table, creating registered sheets on demand.
func ensureTable(ctx context.Context, store core.Store, name string) (core.Table, bool, error) {
	t, err := store.Table(ctx, name)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, core.ErrTableNotFound) {
		return nil, false, err
	}
	def, ok := core.Get(name)
	if !ok {
		return nil, false, fmt.Errorf("seed sheet %q: %w", name, core.ErrUnknownSheet)
	}
	t, err = store.CreateTable(ctx, name, def.Header())
	if err != nil {
		return nil, false, err
	}
	if err := t.SetHeaderStyle(ctx, core.StyleHeader); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func appendRows(ctx context.Context, t core.Table, rows []map[string]string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	header, err := t.Header(ctx)
	if err != nil {
		return 0, err
	}
	idx := core.MakeHeaderIndex(header)

	block := make([][]string, len(rows))
	for i, row := range rows {
		out := make([]string, len(header))
		for name, v := range row {
			pos, err := idx.MustPosition(t.Name(), name)
			if err != nil {
				return 0, fmt.Errorf("seed row %d: %w", i+1, err)
			}
			out[pos-1] = v
		}
		block[i] = out
	}

	last, err := t.LastRow(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.SetValues(ctx, core.RowRange(last+1, len(block), len(header)), block); err != nil {
		return 0, fmt.Errorf("%s: seed rows: %w", t.Name(), err)
	}
	return len(block), nil
}
