package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const tinyScenario = `
name: tiny
description: "Two linked areas"
dataset:
  areas:
    - { key: a, lat: 1, lng: 2 }
    - { key: b, lat: 1, lng: 3 }
  clusters:
    - { key: pair, memberAreaKeys: [a, b] }
  adjacency:
    a: [b]
    b: [a]
assertions:
  - type: ok
    ok: true
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.NotNil(t, resp.Data.Scenarios)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios)
	require.NoError(t, err, stdout)

	for _, name := range []string{
		"clean_graph", "asymmetric_edge", "disconnected_island", "cross_cluster_edge",
		"complete_square", "one_way_edge", "isolated_area", "adjacent_clusters",
	} {
		assert.Contains(t, stdout, "✓ "+name)
	}
	assert.Contains(t, stdout, "Test Summary: 8 passed, 0 failed, 8 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios, "--filter", "asym*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "asymmetric_edge", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.Len(t, resp.Data.Scenarios[0].Hash, 64)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	writeScenario(t, scenarios, "tiny.yaml", tinyScenario)

	stdout, _, err := execute(t, "test", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ tiny (golden updated)")

	golden := filepath.Join(root, "golden", "tiny.golden")
	require.FileExists(t, golden)

	stdout, _, err = execute(t, "test", scenarios)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ tiny\n")

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	stdout, _, err = execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTestCommandFailingScenario(t *testing.T) {
	scenarios := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, scenarios, "wrong.yaml", `
name: wrong
description: "Expects a failure that does not happen"
dataset:
  areas: [{ key: a }]
  clusters: [{ key: only, memberAreaKeys: [a] }]
assertions:
  - type: ok
    ok: false
`)
	writeScenario(t, scenarios, "broken.yaml", "name: broken\n")

	stdout, _, err := execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, "Expected: ok=false")
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
	assert.Contains(t, stdout, "Test Summary: 0 passed, 2 failed, 2 total")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", tinyScenario)
	writeScenario(t, dir, "b.yml", tinyScenario)
	writeScenario(t, dir, "notes.txt", "ignored")
	writeScenario(t, filepath.Join(dir, "nested"), "c.yaml", tinyScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
