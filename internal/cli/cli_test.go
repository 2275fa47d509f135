package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/minitable"
)

// workbook runs commands against one sqlite file so state carries over.
type workbook struct {
	lookup config.LookupFunc
}

func newWorkbook(t *testing.T) workbook {
	t.Helper()
	return workbook{lookup: config.MapLookup(map[string]string{
		"STORE_DRIVER": config.DriverSQLite,
		"SQLITE_PATH":  filepath.Join(t.TempDir(), "wb.db"),
	})}
}

func (w workbook) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(&RootOptions{Lookup: w.lookup})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func (w workbook) json(t *testing.T, args ...string) CLIResponse {
	t.Helper()
	out, _ := w.run(t, append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestConfigureCommand(t *testing.T) {
	wb := newWorkbook(t)

	out, err := wb.run(t, "configure")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configured")
	assert.Contains(t, out, "materials")

	out, err = wb.run(t, "sheets")
	require.NoError(t, err)
	assert.Contains(t, out, "workflowTemplates")
}

func TestConfigureCommand_DisabledLayer(t *testing.T) {
	wb := newWorkbook(t)

	out, err := wb.run(t, "configure", "--layer", "activities")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "EDIT001")

	_, err = wb.run(t, "layers", "enable", "activities")
	require.NoError(t, err)
	out, err = wb.run(t, "configure", "--layer", "activities")
	require.NoError(t, err)
	assert.Contains(t, out, "processExecution")
}

func TestWorkflowCommands(t *testing.T) {
	wb := newWorkbook(t)
	_, err := wb.run(t, "configure")
	require.NoError(t, err)

	out, err := wb.run(t, "workflows", "create", "anneal", "--step", "1:mix", "--step", "2:heat")
	require.NoError(t, err)
	assert.Contains(t, out, "Created workflow anneal with 2 step(s)")

	_, err = wb.run(t, "workflows", "create", "anneal", "--step", "1:mix")
	assert.Error(t, err)

	resp := wb.json(t, "workflows", "show", "anneal")
	require.Equal(t, "ok", resp.Status)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var steps []minitable.Step
	require.NoError(t, json.Unmarshal(raw, &steps))
	assert.Equal(t, []minitable.Step{{Number: "1", ProcessType: "mix"}, {Number: "2", ProcessType: "heat"}}, steps)

	resp = wb.json(t, "workflows", "show", "missing")
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "WF001", resp.Error.Code)
}

func TestEditCommand_InstantiatesWorkflow(t *testing.T) {
	wb := newWorkbook(t)
	_, err := wb.run(t, "configure")
	require.NoError(t, err)
	_, err = wb.run(t, "workflows", "create", "anneal", "--step", "mix", "--step", "heat", "--step", "cool")
	require.NoError(t, err)

	out, err := wb.run(t, "edit", "workflowManagement", "1", "rowType", "process specification")
	require.NoError(t, err)
	assert.Contains(t, out, "scaffold group")

	resp := wb.json(t, "edit", "workflowManagement", "1", "workflowReference", "anneal")
	require.Equal(t, "ok", resp.Status, resp.Error)
	data := resp.Data.(map[string]any)
	outcome := data["outcome"].(map[string]any)
	assert.Equal(t, "instantiate", outcome["action"])
	assert.EqualValues(t, 3, outcome["rows"])

	out, err = wb.run(t, "sheets")
	require.NoError(t, err)
	assert.Regexp(t, `workflowManagement\s+core\s+3`, out)
}

func TestEditCommand_Errors(t *testing.T) {
	wb := newWorkbook(t)

	_, err := wb.run(t, "edit", "materials", "zero", "quantity", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := wb.run(t, "edit", "materials", "1", "quantity", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "WB001")
}

func TestSeedAndRulesCommands(t *testing.T) {
	wb := newWorkbook(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
sheets:
  - name: concepts
    rows:
      - {conceptType: unit, label: mg}
      - {conceptType: unit, label: mL}
`), 0o600))

	out, err := wb.run(t, "seed", seed, "--configure")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 row(s)")

	out, err = wb.run(t, "rules", "materials")
	require.NoError(t, err)
	assert.Regexp(t, `unit\s+list\s+one of 2 value\(s\)`, out)
}

func TestLayersAndReset(t *testing.T) {
	wb := newWorkbook(t)
	_, err := wb.run(t, "configure")
	require.NoError(t, err)

	out, err := wb.run(t, "layers", "disable", "core")
	require.Error(t, err)
	assert.Contains(t, out, "EDIT007")

	out, err = wb.run(t, "layers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "activities")

	_, err = wb.run(t, "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = wb.run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Dropped 5 sheet(s)")
}

func TestAuditCommand(t *testing.T) {
	t.Setenv("USER", "ana")
	wb := newWorkbook(t)
	_, err := wb.run(t, "configure")
	require.NoError(t, err)
	_, err = wb.run(t, "layers", "enable", "activities")
	require.NoError(t, err)

	out, err := wb.run(t, "audit", "--action", "layer_enable")
	require.NoError(t, err)
	assert.Contains(t, out, "layer_enable")
	assert.Contains(t, out, "activities")
	assert.Contains(t, out, "ana")
	assert.NotContains(t, out, "configure")

	resp := wb.json(t, "audit")
	assert.Equal(t, "ok", resp.Status)
	entries, ok := resp.Data.([]any)
	require.True(t, ok, "data = %T", resp.Data)
	assert.Len(t, entries, 2)

	out, err = wb.run(t, "audit", "--csv", "--limit", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "id,created_at,action"), out)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestImportCommand(t *testing.T) {
	wb := newWorkbook(t)
	_, err := wb.run(t, "configure")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "materials.csv")
	csv := "registrationType,materialName,quantity,vendor\n" +
		"purchased,copper sulfate,5,acme\n" +
		"purchased,ethanol,lots,acme\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	out, err := wb.run(t, "import", "materials", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Preview of materials: 2 row(s), 1 valid, 1 invalid")
	assert.Contains(t, out, "ignored unknown columns: vendor")
	assert.Contains(t, out, "line 3: quantity: invalid number")

	out, err = wb.run(t, "import", "materials", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Imported 1 row(s) into materials (rows 1-1), 1 scaffolded")

	// "-" reads stdin.
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(&RootOptions{Lookup: wb.lookup})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("materialName\nzinc\n"))
	cmd.SetArgs([]string{"--format", "json", "import", "materials", "-"})
	require.NoError(t, cmd.Execute())
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data = %T", resp.Data)
	assert.EqualValues(t, 2, data["firstRow"])

	_, err = wb.run(t, "import", "materials", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = wb.run(t, "import", "materials", writeCSV(t, "materialName\n"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "IMP003")
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInvalidFormat(t *testing.T) {
	wb := newWorkbook(t)
	_, err := wb.run(t, "--format", "xml", "sheets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps([]string{"1:mix", "heat", " 3 : cool "})
	require.NoError(t, err)
	assert.Equal(t, []minitable.Step{
		{Number: "1", ProcessType: "mix"},
		{Number: "2", ProcessType: "heat"},
		{Number: "3", ProcessType: "cool"},
	}, steps)

	_, err = parseSteps([]string{"1:"})
	assert.Error(t, err)
}
