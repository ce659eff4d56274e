package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/geocheck/internal/geo"
)

// Sources names the three input files. All are required.
type Sources struct {
	AreasPath     string
	ClustersPath  string
	AdjacencyPath string
}

// Inputs holds the raw bytes of the three sources.
type Inputs struct {
	Areas     []byte
	Clusters  []byte
	Adjacency []byte
}

// InputDigest identifies an input by name and content hash.
type InputDigest struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Result contains the loaded snapshot and everything collected on the way.
type Result struct {
	Snapshot *geo.Snapshot
	Warnings []Warning
	Inputs   []InputDigest // one per source, in areas/clusters/adjacency order
}

// Load reads and parses the three sources from disk.
//
// A missing or unreadable source is a fatal *LoadError. See Parse for the
// record-level policy.
func Load(ctx context.Context, src Sources) (*Result, error) {
	paths := []struct {
		source string
		path   string
	}{
		{SourceAreas, src.AreasPath},
		{SourceClusters, src.ClustersPath},
		{SourceAdjacency, src.AdjacencyPath},
	}

	raw := make([][]byte, len(paths))
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readSource(p.source, p.path)
		if err != nil {
			return nil, err
		}
		raw[i] = data
		slog.Debug("source read", "source", p.source, "path", p.path, "bytes", len(data))
	}

	result, err := Parse(ctx, Inputs{Areas: raw[0], Clusters: raw[1], Adjacency: raw[2]})
	if err != nil {
		return nil, err
	}

	// Report file base names rather than full paths so the digest list does
	// not change when the same inputs are checked out elsewhere.
	for i, p := range paths {
		result.Inputs[i].Name = p.source + ":" + filepath.Base(p.path)
	}
	return result, nil
}

// LoadAreas reads only the areas source; clusters and adjacency load as
// empty. It serves callers that need coordinates but no graph, such as
// the proximity builder.
func LoadAreas(ctx context.Context, path string) (*Result, error) {
	data, err := readSource(SourceAreas, path)
	if err != nil {
		return nil, err
	}
	result, err := Parse(ctx, Inputs{Areas: data, Clusters: []byte("[]"), Adjacency: []byte("{}")})
	if err != nil {
		return nil, err
	}
	result.Inputs[0].Name = SourceAreas + ":" + filepath.Base(path)
	return result, nil
}

// Parse builds a snapshot from raw source bytes.
//
// Individual malformed records are skipped and reported as warnings;
// everything else is loaded. Warnings are logged at Warn level as well as
// returned.
func Parse(ctx context.Context, in Inputs) (*Result, error) {
	b := &builder{}

	areaRecs, err := decodeAreas(in.Areas, b)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clusterRecs, err := decodeClusters(in.Clusters, b)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adj, err := decodeAdjacency(in.Adjacency, b)
	if err != nil {
		return nil, err
	}

	snap, err := b.assemble(areaRecs, clusterRecs, adj)
	if err != nil {
		return nil, err
	}

	for _, w := range b.warnings {
		slog.Warn("record skipped or repaired",
			"source", w.Source,
			"index", w.Index,
			"key", w.Key,
			"code", w.Code,
			"message", w.Message,
		)
	}

	return &Result{
		Snapshot: snap,
		Warnings: b.warnings,
		Inputs: []InputDigest{
			{Name: SourceAreas, SHA256: digest(in.Areas)},
			{Name: SourceClusters, SHA256: digest(in.Clusters)},
			{Name: SourceAdjacency, SHA256: digest(in.Adjacency)},
		},
	}, nil
}

func readSource(source, path string) ([]byte, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeMissingSource, Source: source, Message: "no path provided"}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Source: source, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Source: source, Message: fmt.Sprintf("reading %s", path), Err: err}
	}
	return data, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// builder accumulates warnings while the sources are decoded and assembled.
type builder struct {
	warnings []Warning
}

func (b *builder) warn(source string, index int, key, code, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{
		Source:  source,
		Index:   index,
		Key:     key,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// assemble cross-checks the decoded record sets and builds the snapshot.
func (b *builder) assemble(areas []geo.Area, clusters []*geo.Cluster, adj geo.Adjacency) (*geo.Snapshot, error) {
	snap := &geo.Snapshot{
		Areas:     make(map[string]geo.Area, len(areas)),
		Clusters:  clusters,
		Adjacency: adj,
	}
	for _, a := range areas {
		snap.Areas[a.Key] = a
	}

	// Cluster keys must be unique across the whole forest.
	clusterKeys := make(map[string]bool)
	var dupCluster string
	memberOf := make(map[string]string)
	snap.Walk(func(c *geo.Cluster, _ int) {
		if clusterKeys[c.Key] && dupCluster == "" {
			dupCluster = c.Key
		}
		clusterKeys[c.Key] = true
		for _, m := range c.MemberAreaKeys {
			if prev, ok := memberOf[m]; ok && prev != c.Key {
				b.warn(SourceClusters, -1, m, WarnMultipleClusters,
					"member of both %q and %q; using %q", prev, c.Key, prev)
				continue
			}
			memberOf[m] = c.Key
		}
	})
	if dupCluster != "" {
		return nil, &LoadError{
			Code:    ErrCodeDuplicateGroup,
			Source:  SourceClusters,
			Message: fmt.Sprintf("duplicate cluster key %q", dupCluster),
		}
	}

	for i, a := range areas {
		if a.ClusterKey == "" {
			continue
		}
		if !clusterKeys[a.ClusterKey] {
			b.warn(SourceAreas, i, a.Key, WarnUnknownCluster, "clusterKey %q does not name a cluster; ignored", a.ClusterKey)
			a.ClusterKey = ""
			snap.Areas[a.Key] = a
			continue
		}
		if m, ok := memberOf[a.Key]; ok && m != a.ClusterKey {
			b.warn(SourceAreas, i, a.Key, WarnClusterMismatch,
				"clusterKey %q disagrees with membership of %q; using %q", a.ClusterKey, m, a.ClusterKey)
		}
	}

	return snap, nil
}
