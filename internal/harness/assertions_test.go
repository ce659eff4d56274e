package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/report"
)

func fixtureResult(t *testing.T) *Result {
	t.Helper()
	r := &report.Report{
		OK:       false,
		Failures: []string{"maxComponents: 2 connected component(s), allowed at most 1"},
		Warnings: []dataset.Warning{
			{Source: "adjacency", Index: -1, Key: "a", Code: "W007", Message: "self-reference removed"},
			{Source: "adjacency", Index: -1, Key: "b", Code: "W007", Message: "self-reference removed"},
		},
	}
	data, err := json.Marshal(map[string]any{
		"ok": false,
		"metrics": map[string]any{
			"areas":      4,
			"components": map[string]any{"count": 2, "smallest": [][]string{{"c", "d"}}},
			"clusterCoverage": map[string]any{
				"island": 0.5,
			},
		},
	})
	require.NoError(t, err)
	return &Result{Report: r, Data: data}
}

func TestEvaluate(t *testing.T) {
	result := fixtureResult(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"ok matches", Assertion{Type: AssertOK, OK: boolPtr(false)}, ""},
		{"ok mismatch", Assertion{Type: AssertOK, OK: boolPtr(true)}, "ok=true"},
		{"failure count matches", Assertion{Type: AssertFailureCount, Count: intPtr(1)}, ""},
		{"failure count mismatch", Assertion{Type: AssertFailureCount, Count: intPtr(0)}, "0 failure(s)"},
		{"failure contains", Assertion{Type: AssertFailureContains, Text: "maxComponents"}, ""},
		{"failure missing", Assertion{Type: AssertFailureContains, Text: "minClusters"}, "no such failure"},
		{"warning present", Assertion{Type: AssertWarning, Code: "W007"}, ""},
		{"warning count", Assertion{Type: AssertWarning, Code: "W007", Count: intPtr(2)}, ""},
		{"warning count mismatch", Assertion{Type: AssertWarning, Code: "W007", Count: intPtr(1)}, "1 warning(s) W007"},
		{"warning absent", Assertion{Type: AssertWarning, Code: "W001"}, "a warning W001"},
		{"warning absent with zero count", Assertion{Type: AssertWarning, Code: "W001", Count: intPtr(0)}, ""},
		{"metric int", Assertion{Type: AssertMetric, Path: "metrics.areas", Equals: 4}, ""},
		{"metric float", Assertion{Type: AssertMetric, Path: "metrics.clusterCoverage.island", Equals: 0.5}, ""},
		{"metric nested list", Assertion{Type: AssertMetric, Path: "metrics.components.smallest",
			Equals: []any{[]any{"c", "d"}}}, ""},
		{"metric array index", Assertion{Type: AssertMetric, Path: "metrics.components.smallest.0.1", Equals: "d"}, ""},
		{"metric mismatch", Assertion{Type: AssertMetric, Path: "metrics.areas", Equals: 5}, "metrics.areas = 5"},
		{"metric missing key", Assertion{Type: AssertMetric, Path: "metrics.nope", Equals: 1}, `no key "nope"`},
		{"unknown type", Assertion{Type: "trace_contains"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluate(result, tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertionErrorIncludesGateFailures(t *testing.T) {
	err := evaluate(fixtureResult(t), Assertion{Type: AssertOK, OK: boolPtr(true)})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertOK, ae.Type)
	assert.Contains(t, err.Error(), "Gate failures:")
	assert.Contains(t, err.Error(), "[1] maxComponents")
}

func TestLookup(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"b":[10,{"c":"x"}]},"n":null}`), &doc))

	tests := []struct {
		path    string
		want    any
		wantErr string
	}{
		{path: "a.b.0", want: float64(10)},
		{path: "a.b.1.c", want: "x"},
		{path: "n", want: nil},
		{path: "a.z", wantErr: `no key "z"`},
		{path: "a.b.2", wantErr: `no index "2" in array of 2`},
		{path: "a.b.x", wantErr: `no index "x"`},
		{path: "a.b.0.deeper", wantErr: "cannot descend into float64"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := lookup(doc, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
