// Package fixtures writes small dataset files into temporary directories
// for tests.
package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/geocheck/internal/dataset"
)

// Dataset is the raw JSON of the three input files.
type Dataset struct {
	Areas     string
	Clusters  string
	Adjacency string
}

// WriteDataset writes d into a fresh temporary directory and returns the
// sources pointing at it. Empty fields are written as an empty array or
// object so every source exists.
func WriteDataset(t *testing.T, d Dataset) dataset.Sources {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content, empty string) string {
		if content == "" {
			content = empty
		}
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	return dataset.Sources{
		AreasPath:     write("areas.json", d.Areas, "[]"),
		ClustersPath:  write("clusters.json", d.Clusters, "[]"),
		AdjacencyPath: write("adjacency.json", d.Adjacency, "{}"),
	}
}

// CleanGraph is a small valid dataset: two clusters of two areas, all
// located, with symmetric adjacency and one cross-cluster edge.
var CleanGraph = Dataset{
	Areas: `[
		{"key": "a", "lat": -33.87, "lng": 151.21, "clusterKey": "north"},
		{"key": "b", "lat": -33.88, "lng": 151.22, "clusterKey": "north"},
		{"key": "c", "lat": -33.90, "lng": 151.20, "clusterKey": "south"},
		{"key": "d", "lat": -33.91, "lng": 151.19, "clusterKey": "south"}
	]`,
	Clusters: `[
		{"key": "north", "memberAreaKeys": ["a", "b"]},
		{"key": "south", "memberAreaKeys": ["c", "d"]}
	]`,
	Adjacency: `{
		"a": ["b"],
		"b": ["a", "c"],
		"c": ["b", "d"],
		"d": ["c"]
	}`,
}
