package analysis

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/geocheck/internal/geo"
)

// Options configures Run.
type Options struct {
	// SmallComponentMax bounds the size of components listed in
	// Components.Smallest. Zero selects DefaultSmallComponentMax.
	SmallComponentMax int

	// Repair requests a symmetric copy of the adjacency relation.
	Repair bool
}

// Metrics holds every analyzer result for one snapshot.
type Metrics struct {
	Areas           int     `json:"areas"`
	AreasWithCoords int     `json:"areasWithCoords"`
	CoordsCoverage  float64 `json:"coordsCoveragePct"`
	Clusters        int     `json:"clusters"`
	LeafClusters    int     `json:"leafClusters"`

	Symmetry          Symmetry   `json:"symmetry"`
	Components        Components `json:"components"`
	CrossClusterEdges int        `json:"crossClusterEdges"`

	ClusterCoverage      map[string]float64 `json:"clusterCoverage"`
	HierarchicalCoverage map[string]float64 `json:"hierarchicalCoverage"`

	// UnknownAdjacencyKeys lists adjacency sources and targets that are not
	// areas. UnknownMemberKeys lists cluster members that are not areas.
	UnknownAdjacencyKeys []string `json:"unknownAdjacencyKeys"`
	UnknownMemberKeys    []string `json:"unknownMemberKeys"`

	// Repair is set only when Options.Repair is true.
	Repair *Repair `json:"-"`

	// Durations records how long each analyzer took, keyed by name.
	Durations map[string]time.Duration `json:"-"`
}

// Run executes all analyzers concurrently over snap.
//
// snap is read-only for the duration of the call. Each analyzer writes
// only its own fields of the result, so no synchronization beyond the
// errgroup wait is needed. The only error Run can return is ctx's.
func Run(ctx context.Context, snap *geo.Snapshot, opts Options) (*Metrics, error) {
	m := &Metrics{Areas: len(snap.Areas)}
	m.Clusters, m.LeafClusters = snap.ClusterCount()

	universe := snap.NodeUniverse()
	areaToCluster := knownAreaClusters(snap)

	tasks := []task{
		{"symmetry", func() { m.Symmetry = AnalyzeSymmetry(snap.Adjacency) }},
		{"components", func() { m.Components = AnalyzeComponents(universe, snap.Adjacency, opts.SmallComponentMax) }},
		{"coverage", func() {
			m.AreasWithCoords, m.CoordsCoverage = CoordsCoverage(snap.Areas)
			m.ClusterCoverage = ClusterCoverage(snap.Clusters, snap.Areas)
			m.HierarchicalCoverage = Rollup(snap.Clusters, snap.Areas)
		}},
		{"crossEdges", func() { m.CrossClusterEdges = CountCrossEdges(snap.Adjacency, areaToCluster) }},
		{"unknownKeys", func() { m.UnknownAdjacencyKeys, m.UnknownMemberKeys = unknownKeys(snap) }},
	}
	if opts.Repair {
		tasks = append(tasks, task{"repair", func() {
			r := RepairSymmetry(snap.Adjacency)
			m.Repair = &r
		}})
	}

	durations := make([]time.Duration, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			t.fn()
			durations[i] = time.Since(start)
			slog.Debug("analyzer finished", "analyzer", t.name, "duration", durations[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.Durations = make(map[string]time.Duration, len(tasks))
	for i, t := range tasks {
		m.Durations[t.name] = durations[i]
	}
	return m, nil
}

// task is one analyzer run by Run.
type task struct {
	name string
	fn   func()
}

// knownAreaClusters maps each known area to its cluster, dropping member
// keys that are not areas.
func knownAreaClusters(snap *geo.Snapshot) map[string]string {
	all := snap.AreaToCluster()
	out := make(map[string]string, len(all))
	for k, c := range all {
		if _, ok := snap.Areas[k]; ok {
			out[k] = c
		}
	}
	return out
}

func unknownKeys(snap *geo.Snapshot) (adjacency, members []string) {
	adjSet := make(map[string]struct{})
	for k, ns := range snap.Adjacency {
		if _, ok := snap.Areas[k]; !ok {
			adjSet[k] = struct{}{}
		}
		for _, n := range ns {
			if _, ok := snap.Areas[n]; !ok {
				adjSet[n] = struct{}{}
			}
		}
	}
	memberSet := make(map[string]struct{})
	snap.Walk(func(c *geo.Cluster, _ int) {
		for _, k := range c.MemberAreaKeys {
			if _, ok := snap.Areas[k]; !ok {
				memberSet[k] = struct{}{}
			}
		}
	})
	return sortedSet(adjSet), sortedSet(memberSet)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
