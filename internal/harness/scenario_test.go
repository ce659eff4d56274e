package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: tiny
description: "Two linked areas"
repeat: 2
dataset:
  areas:
    - { key: a, lat: 1, lng: 2 }
    - { key: b }
  adjacency:
    a: [b]
    b: [a]
thresholds:
  minClusters: 0
  maxComponents: 1
assertions:
  - type: ok
    ok: true
  - type: metric
    path: metrics.areas
    equals: 2
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "tiny", s.Name)
	assert.Equal(t, "Two linked areas", s.Description)
	assert.Equal(t, 2, s.Repeat)
	assert.Nil(t, s.Dataset.Clusters)
	assert.Equal(t, 0, s.Thresholds["minClusters"])
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertOK, s.Assertions[0].Type)
	require.NotNil(t, s.Assertions[0].OK)
	assert.True(t, *s.Assertions[0].OK)
	assert.Equal(t, "metrics.areas", s.Assertions[1].Path)
	assert.Equal(t, 2, s.Assertions[1].Equals)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nflow: []\nassertions: [{type: ok, ok: true}]\n",
			wantErr: "field flow not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nassertions: [{type: ok, ok: true}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nassertions: [{type: ok, ok: true}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: y\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "negative repeat",
			yaml:    "name: x\ndescription: y\nrepeat: -1\nassertions: [{type: ok, ok: true}]\n",
			wantErr: "repeat must not be negative",
		},
		{
			name:    "negative small component max",
			yaml:    "name: x\ndescription: y\nsmall_component_max: -3\nassertions: [{type: ok, ok: true}]\n",
			wantErr: "small_component_max must not be negative",
		},
		{
			name:    "missing type",
			yaml:    "name: x\ndescription: y\nassertions: [{ok: true}]\n",
			wantErr: "assertion type is required",
		},
		{
			name:    "unknown type",
			yaml:    "name: x\ndescription: y\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "ok without value",
			yaml:    "name: x\ndescription: y\nassertions: [{type: ok}]\n",
			wantErr: "requires 'ok' field",
		},
		{
			name:    "failure_count without count",
			yaml:    "name: x\ndescription: y\nassertions: [{type: failure_count}]\n",
			wantErr: "requires 'count' field",
		},
		{
			name:    "failure_contains without text",
			yaml:    "name: x\ndescription: y\nassertions: [{type: failure_contains}]\n",
			wantErr: "requires 'text' field",
		},
		{
			name:    "warning without code",
			yaml:    "name: x\ndescription: y\nassertions: [{type: warning, count: 1}]\n",
			wantErr: "requires 'code' field",
		},
		{
			name:    "metric without path",
			yaml:    "name: x\ndescription: y\nassertions: [{type: metric, equals: 1}]\n",
			wantErr: "requires 'path' field",
		},
		{
			name:    "metric without equals",
			yaml:    "name: x\ndescription: y\nassertions: [{type: metric, path: metrics.areas}]\n",
			wantErr: "requires 'equals' field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDatasetInputs(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	in, err := s.Dataset.Inputs()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"a","lat":1,"lng":2},{"key":"b"}]`, string(in.Areas))
	assert.Equal(t, "[]", string(in.Clusters))
	assert.JSONEq(t, `{"a":["b"],"b":["a"]}`, string(in.Adjacency))

	empty, err := Dataset{}.Inputs()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty.Areas))
	assert.Equal(t, "[]", string(empty.Clusters))
	assert.Equal(t, "{}", string(empty.Adjacency))
}
