package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and pins its
// report against testdata/golden.
//
// To regenerate golden files after an intended report change:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenarios found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors: %v", result.Errors)
			assert.Equal(t, max(scenario.Repeat, 1), result.Runs)
		})
	}
}

func TestRunWithGolden_InlineScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/clean_graph.yaml")
	require.NoError(t, err)

	first, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	second, err := RunWithGolden(t, scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash, "separate harness runs must agree")
	assert.Equal(t, first.Data, second.Data)
}
