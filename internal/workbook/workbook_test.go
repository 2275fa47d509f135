package workbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/minitable"
	"github.com/JonMunkholm/provtab/internal/store/memory"
)

const seedYAML = `
layers:
  activities: true
sheets:
  - name: concepts
    rows:
      - {conceptType: unit, label: mg}
      - {conceptType: processType, label: p1}
      - {conceptType: processType, label: p2}
workflows:
  - name: w1
    steps:
      - {stepNumber: "1", processType: p1}
      - {stepNumber: "2", processType: p2}
`

func TestApply_Seed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	seed, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	report, err := Apply(ctx, s, s, seed)
	require.NoError(t, err)
	assert.Equal(t, []string{sheets.Concepts, sheets.WorkflowTemplates}, report.Created)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.Workflows)
	assert.Equal(t, 1, report.Layers)

	v, ok, err := s.Get(ctx, edit.LayerProperty(core.LayerActivities))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	concepts, err := s.Table(ctx, sheets.Concepts)
	require.NoError(t, err)
	values, err := concepts.Values(ctx, core.RowRange(1, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"unit", "mg"}, {"processType", "p1"}, {"processType", "p2"}}, values)

	templates, err := s.Table(ctx, sheets.WorkflowTemplates)
	require.NoError(t, err)
	steps, err := minitable.ResolveWorkflow(ctx, templates, "w1")
	require.NoError(t, err)
	assert.Equal(t, []minitable.Step{{Number: "1", ProcessType: "p1"}, {Number: "2", ProcessType: "p2"}}, steps)
}

func TestApply_AppendsBelowExistingRows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	seed, err := ParseSeed([]byte(`
sheets:
  - name: concepts
    rows:
      - {label: first}
`))
	require.NoError(t, err)

	_, err = Apply(ctx, s, s, seed)
	require.NoError(t, err)
	report, err := Apply(ctx, s, s, seed)
	require.NoError(t, err)
	assert.Empty(t, report.Created)

	concepts, err := s.Table(ctx, sheets.Concepts)
	require.NoError(t, err)
	last, err := concepts.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, last)
}

func TestApply_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "unknown sheet",
			yaml:    "sheets:\n  - name: invoices\n    rows:\n      - {a: b}\n",
			wantErr: core.ErrUnknownSheet,
		},
		{
			name:    "unknown column",
			yaml:    "sheets:\n  - name: concepts\n    rows:\n      - {colour: red}\n",
			wantErr: core.ErrColumnNotFound,
		},
		{
			name:    "unknown layer",
			yaml:    "layers:\n  billing: true\n",
			wantErr: edit.ErrUnknownLayer,
		},
		{
			name:    "empty workflow",
			yaml:    "workflows:\n  - name: w1\n",
			wantErr: minitable.ErrNoSteps,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			seed, err := ParseSeed([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Apply(context.Background(), s, s, seed)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseSeed_UnknownField(t *testing.T) {
	_, err := ParseSeed([]byte("sheetz: []\n"))
	assert.Error(t, err)
}

func TestLoadSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, seed.Sheets, 1)
	assert.Len(t, seed.Workflows, 1)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadPalette(t *testing.T) {
	p, err := LoadPalette("")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultPalette(), p)

	p, err = ParsePalette([]byte(`hidden: "#cccccc"`))
	require.NoError(t, err)
	assert.Equal(t, "#cccccc", p.Hex(core.ColorHidden))
	assert.Equal(t, core.DefaultPalette().Hex(core.ColorGenerated), p.Hex(core.ColorGenerated))

	_, err = ParsePalette([]byte(`hidden: grey`))
	assert.ErrorContains(t, err, "invalid palette")

	p, err = ParsePalette(nil)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultPalette(), p)
}
