package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, areas, clusters, adjacency string) (*Result, error) {
	t.Helper()
	return Parse(context.Background(), Inputs{
		Areas:     []byte(areas),
		Clusters:  []byte(clusters),
		Adjacency: []byte(adjacency),
	})
}

func warningCodes(ws []Warning) []string {
	codes := make([]string, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

func TestParseCanonicalizesKeys(t *testing.T) {
	res, err := parse(t,
		`[{"key": " Bondi ", "lat": -33.89, "lng": 151.27, "clusterKey": "EAST"}]`,
		`[{"key": "East", "memberAreaKeys": ["BONDI"]}]`,
		`{"Bondi": ["Bronte", "bronte "]}`,
	)
	require.NoError(t, err)

	snap := res.Snapshot
	require.Contains(t, snap.Areas, "bondi")
	assert.Equal(t, "east", snap.Areas["bondi"].ClusterKey)
	require.NotNil(t, snap.Areas["bondi"].Point)
	assert.Equal(t, -33.89, snap.Areas["bondi"].Point.Lat)

	require.Len(t, snap.Clusters, 1)
	assert.Equal(t, "east", snap.Clusters[0].Key)
	assert.Equal(t, []string{"bondi"}, snap.Clusters[0].MemberAreaKeys)

	assert.Equal(t, []string{"bronte"}, snap.Adjacency["bondi"])
	assert.Equal(t, []string{WarnDuplicateNeighbor}, warningCodes(res.Warnings))
}

func TestParseSkipsMalformedAreaRecords(t *testing.T) {
	res, err := parse(t,
		`[
			{"key": "a", "lat": 1, "lng": 2},
			{"lat": 1, "lng": 2},
			{"key": "   "},
			"not-an-object",
			{"key": "b", "lat": "north"},
			{"key": "c", "lat": 1},
			{"key": "d", "lat": 95, "lng": 0},
			{"key": "e"}
		]`,
		`[]`,
		`{}`,
	)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "c", "d", "e"}, res.Snapshot.AreaKeys())
	assert.NotNil(t, res.Snapshot.Areas["a"].Point)
	assert.Nil(t, res.Snapshot.Areas["c"].Point, "partial coordinates are treated as absent")
	assert.Nil(t, res.Snapshot.Areas["d"].Point, "out-of-range coordinates are dropped")
	assert.Nil(t, res.Snapshot.Areas["e"].Point)

	assert.Equal(t, []string{
		WarnMissingKey,
		WarnMissingKey,
		WarnMalformedRecord,
		WarnMalformedRecord,
		WarnPartialCoords,
		WarnCoordsOutOfRange,
	}, warningCodes(res.Warnings))
	assert.Equal(t, 1, res.Warnings[0].Index)
	assert.Equal(t, "d", res.Warnings[5].Key)
}

func TestParseDuplicateAreaKeyIsFatal(t *testing.T) {
	_, err := parse(t, `[{"key": "a"}, {"key": " A "}]`, `[]`, `{}`)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeDuplicateArea, loadErr.Code)
	assert.Equal(t, SourceAreas, loadErr.Source)
	assert.Contains(t, loadErr.Message, `"a"`)
}

func TestParseDuplicateClusterKeyIsFatal(t *testing.T) {
	_, err := parse(t, `[]`,
		`[{"key": "metro", "children": [{"key": "west"}]}, {"key": "WEST"}]`,
		`{}`)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeDuplicateGroup, loadErr.Code)
}

func TestParseMalformedSourcesAreFatal(t *testing.T) {
	tests := []struct {
		name      string
		areas     string
		clusters  string
		adjacency string
		source    string
	}{
		{"areas not json", `{`, `[]`, `{}`, SourceAreas},
		{"areas is object", `{"a": 1}`, `[]`, `{}`, SourceAreas},
		{"areas is null", `null`, `[]`, `{}`, SourceAreas},
		{"clusters is string", `[]`, `"x"`, `{}`, SourceClusters},
		{"adjacency is array", `[]`, `[]`, `[]`, SourceAdjacency},
		{"adjacency is null", `[]`, `[]`, `null`, SourceAdjacency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.areas, tt.clusters, tt.adjacency)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, ErrCodeMalformed, loadErr.Code)
			assert.Equal(t, tt.source, loadErr.Source)
		})
	}
}

func TestParseClusterTree(t *testing.T) {
	res, err := parse(t, `[]`, `[
		{"key": "metro", "memberAreaKeys": ["cbd"], "children": [
			{"key": "west", "memberAreaKeys": ["a", "b", "A"]},
			{"memberAreaKeys": ["lost"]},
			{"key": "south", "children": [{"key": "deep", "memberAreaKeys": ["z"]}]}
		]}
	]`, `{}`)
	require.NoError(t, err)

	require.Len(t, res.Snapshot.Clusters, 1)
	metro := res.Snapshot.Clusters[0]
	assert.Equal(t, []string{"cbd"}, metro.MemberAreaKeys)
	require.Len(t, metro.Children, 2)
	assert.Equal(t, "west", metro.Children[0].Key)
	assert.Equal(t, []string{"a", "b"}, metro.Children[0].MemberAreaKeys)
	assert.Equal(t, "deep", metro.Children[1].Children[0].Key)

	assert.Equal(t, []string{WarnDuplicateMember, WarnMissingKey}, warningCodes(res.Warnings))

	total, leaves := res.Snapshot.ClusterCount()
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, leaves)
}

func TestParseAdjacencyNormalization(t *testing.T) {
	res, err := parse(t, `[]`, `[]`, `{
		"b": ["c", "a", "B", "a"],
		"B ": ["d"],
		"": ["x"],
		"e": "f",
		"g": []
	}`)
	require.NoError(t, err)

	adj := res.Snapshot.Adjacency
	assert.Equal(t, []string{"a", "c", "d"}, adj["b"])
	assert.Equal(t, []string{}, adj["g"])
	assert.NotContains(t, adj, "e")
	assert.NotContains(t, adj, "")

	assert.ElementsMatch(t, []string{
		WarnMissingKey,
		WarnKeyCollision,
		WarnSelfReference,
		WarnDuplicateNeighbor,
		WarnMalformedRecord,
	}, warningCodes(res.Warnings))
}

func TestParseClusterCrossChecks(t *testing.T) {
	res, err := parse(t,
		`[
			{"key": "a", "clusterKey": "west"},
			{"key": "b", "clusterKey": "nowhere"},
			{"key": "c", "clusterKey": "east"}
		]`,
		`[{"key": "west", "memberAreaKeys": ["c"]}, {"key": "east", "memberAreaKeys": ["c"]}]`,
		`{}`,
	)
	require.NoError(t, err)

	assert.Equal(t, "", res.Snapshot.Areas["b"].ClusterKey, "unknown cluster reference is cleared")
	assert.Equal(t, []string{WarnMultipleClusters, WarnUnknownCluster, WarnClusterMismatch}, warningCodes(res.Warnings))
	assert.Equal(t, "east", res.Snapshot.AreaToCluster()["c"])
}

func TestParseRecordsInputDigests(t *testing.T) {
	res, err := parse(t, `[]`, `[]`, `{}`)
	require.NoError(t, err)
	require.Len(t, res.Inputs, 3)
	assert.Equal(t, SourceAreas, res.Inputs[0].Name)
	// sha256("[]")
	assert.Equal(t, "4f53cda18c2baa0c0354bb5f9a3ecbe5ed12ab4d8e11ba873c2f11161202b945", res.Inputs[0].SHA256)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	src := Sources{
		AreasPath:     write("areas.json", `[{"key": "a"}]`),
		ClustersPath:  write("clusters.json", `[{"key": "c", "memberAreaKeys": ["a"]}]`),
		AdjacencyPath: write("adjacency.json", `{"a": []}`),
	}

	res, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Snapshot.AreaKeys())
	assert.Equal(t, "areas:areas.json", res.Inputs[0].Name)
	assert.Equal(t, "adjacency:adjacency.json", res.Inputs[2].Name)
}

func TestLoadMissingSources(t *testing.T) {
	dir := t.TempDir()
	areas := filepath.Join(dir, "areas.json")
	require.NoError(t, os.WriteFile(areas, []byte(`[]`), 0o644))

	t.Run("file not found", func(t *testing.T) {
		_, err := Load(context.Background(), Sources{
			AreasPath:     areas,
			ClustersPath:  filepath.Join(dir, "missing.json"),
			AdjacencyPath: areas,
		})
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
		assert.Equal(t, SourceClusters, loadErr.Source)
	})

	t.Run("path not provided", func(t *testing.T) {
		_, err := Load(context.Background(), Sources{AreasPath: areas})
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, ErrCodeMissingSource, loadErr.Code)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, Sources{AreasPath: areas, ClustersPath: areas, AdjacencyPath: areas})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadAreas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suburbs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"key": "a", "lat": 1, "lng": 2}, {"key": "b"}]`), 0o644))

	res, err := LoadAreas(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Snapshot.AreaKeys())
	assert.Empty(t, res.Snapshot.Clusters)
	assert.Empty(t, res.Snapshot.Adjacency)
	assert.Equal(t, "areas:suburbs.json", res.Inputs[0].Name)
	assert.Equal(t, SourceClusters, res.Inputs[1].Name)

	_, err = LoadAreas(context.Background(), "")
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeMissingSource, loadErr.Code)
}
