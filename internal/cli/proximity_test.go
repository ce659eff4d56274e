package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/proximity"
	"github.com/roach88/geocheck/internal/testutil/fixtures"
)

var meridian = fixtures.Dataset{
	Areas: `[
		{"key": "p0", "lat": 0, "lng": 0},
		{"key": "p1", "lat": 1, "lng": 0},
		{"key": "p2", "lat": 2, "lng": 0},
		{"key": "nowhere"}
	]`,
}

func TestProximityToStdout(t *testing.T) {
	src := fixtures.WriteDataset(t, meridian)

	stdout, _, err := execute(t, "proximity", "--areas", src.AreasPath, "--k", "2")
	require.NoError(t, err)

	var entries []proximity.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 3, "areas without coordinates are excluded")
	assert.Equal(t, "p0", entries[0].AreaKey)
	assert.Equal(t, []proximity.Neighbor{{Key: "p1", DistanceKm: 111.2}, {Key: "p2", DistanceKm: 222.4}}, entries[0].Neighbors)
	assert.Equal(t, []proximity.Neighbor{{Key: "p0", DistanceKm: 111.2}, {Key: "p2", DistanceKm: 111.2}}, entries[1].Neighbors)
}

func TestProximityToFile(t *testing.T) {
	src := fixtures.WriteDataset(t, meridian)
	out := filepath.Join(t.TempDir(), "proximity.json")

	stdout, _, err := execute(t, append([]string{"proximity", "--k", "1", "--out", out}, sourceArgs(src)...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote 3 proximity entries (k=1)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var entries []proximity.Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	for _, e := range entries {
		assert.Len(t, e.Neighbors, 1)
	}

	// Same input, same bytes.
	again := filepath.Join(t.TempDir(), "again.json")
	_, _, err = execute(t, append([]string{"proximity", "--k", "1", "--out", again}, sourceArgs(src)...)...)
	require.NoError(t, err)
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(second))
}

func TestProximityJSON(t *testing.T) {
	src := fixtures.WriteDataset(t, meridian)
	out := filepath.Join(t.TempDir(), "proximity.json")

	stdout, _, err := execute(t, "proximity", "--areas", src.AreasPath, "--out", out, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   ProximityResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Entries)
	assert.Equal(t, proximity.DefaultK, resp.Data.K)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestProximityJSONToStdout(t *testing.T) {
	src := fixtures.WriteDataset(t, meridian)

	stdout, _, err := execute(t, "proximity", "--areas", src.AreasPath, "--k", "1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   ProximityResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Entries)
	assert.Equal(t, 1, resp.Data.K)
	assert.Empty(t, resp.Data.Path)
	assert.Len(t, resp.Data.Hash, 64)

	var entries []proximity.Entry
	require.NoError(t, json.Unmarshal(resp.Data.Graph, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, []proximity.Neighbor{{Key: "p1", DistanceKm: 111.2}}, entries[0].Neighbors)
}

func TestProximityErrors(t *testing.T) {
	src := fixtures.WriteDataset(t, meridian)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero k", []string{"proximity", "--areas", src.AreasPath, "--k", "0"}, "--k must be positive"},
		{"clusters without adjacency", []string{"proximity", "--areas", src.AreasPath, "--clusters", src.ClustersPath}, "must be given together"},
		{"missing areas flag", []string{"proximity"}, dataset.ErrCodeMissingSource},
		{"areas not found", []string{"proximity", "--areas", filepath.Join(t.TempDir(), "none.json")}, dataset.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, tt.want)
		})
	}
}
