package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/testutil/fixtures"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// sourceArgs returns the three dataset flags for src.
func sourceArgs(src dataset.Sources) []string {
	return []string{
		"--areas", src.AreasPath,
		"--clusters", src.ClustersPath,
		"--adjacency", src.AdjacencyPath,
	}
}

func validateArgs(src dataset.Sources, extra ...string) []string {
	return append(append([]string{"validate"}, sourceArgs(src)...), extra...)
}

// asymmetricGraph has a single one-way edge b → c.
var asymmetricGraph = fixtures.Dataset{
	Areas:     `[{"key": "a", "lat": 0, "lng": 0}, {"key": "b", "lat": 0, "lng": 1}, {"key": "c", "lat": 0, "lng": 2}]`,
	Clusters:  `[{"key": "line", "memberAreaKeys": ["a", "b", "c"]}]`,
	Adjacency: `{"a": ["b"], "b": ["a", "c"], "c": []}`,
}
