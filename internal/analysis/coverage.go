package analysis

import (
	"github.com/roach88/geocheck/internal/geo"
)

// LeafCoverage returns the fraction of c's own members whose area has
// valid coordinates. A cluster with no members has coverage 0. Members
// that are not known areas count as lacking coordinates.
func LeafCoverage(c *geo.Cluster, areas map[string]geo.Area) float64 {
	if len(c.MemberAreaKeys) == 0 {
		return 0
	}
	with := 0
	for _, k := range c.MemberAreaKeys {
		if a, ok := areas[k]; ok && a.HasCoords() {
			with++
		}
	}
	return float64(with) / float64(len(c.MemberAreaKeys))
}

// Rollup computes hierarchical coverage for every cluster in the forest.
//
// A leaf's coverage is its LeafCoverage. An internal node's coverage is the
// weighted mean of its children's coverage, each child weighted by its own
// member count, or 1 when the child lists no members. Members listed
// directly on an internal node contribute one extra term, their
// LeafCoverage weighted by their count.
//
// The traversal is an iterative post-order walk: every child is finished
// before its parent is computed.
func Rollup(forest []*geo.Cluster, areas map[string]geo.Area) map[string]float64 {
	out := make(map[string]float64)

	type frame struct {
		c        *geo.Cluster
		expanded bool
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{c: forest[i]})
	}

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]

		if f.c.IsLeaf() {
			stack = stack[:top]
			out[f.c.Key] = LeafCoverage(f.c, areas)
			continue
		}
		if !f.expanded {
			stack[top].expanded = true
			for i := len(f.c.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{c: f.c.Children[i]})
			}
			continue
		}

		stack = stack[:top]
		var sum, weight float64
		for _, child := range f.c.Children {
			w := childWeight(child)
			sum += out[child.Key] * w
			weight += w
		}
		if n := len(f.c.MemberAreaKeys); n > 0 {
			sum += LeafCoverage(f.c, areas) * float64(n)
			weight += float64(n)
		}
		out[f.c.Key] = sum / weight
	}
	return out
}

// ClusterCoverage returns LeafCoverage for every cluster in the forest,
// computed over each cluster's own member list only.
func ClusterCoverage(forest []*geo.Cluster, areas map[string]geo.Area) map[string]float64 {
	snap := geo.Snapshot{Clusters: forest}
	out := make(map[string]float64)
	snap.Walk(func(c *geo.Cluster, _ int) {
		out[c.Key] = LeafCoverage(c, areas)
	})
	return out
}

// CoordsCoverage returns how many areas have coordinates and that count as
// a percentage (0–100) of all areas. No areas yields 0%.
func CoordsCoverage(areas map[string]geo.Area) (withCoords int, pct float64) {
	for _, a := range areas {
		if a.HasCoords() {
			withCoords++
		}
	}
	if len(areas) == 0 {
		return 0, 0
	}
	return withCoords, 100 * float64(withCoords) / float64(len(areas))
}

func childWeight(c *geo.Cluster) float64 {
	if n := len(c.MemberAreaKeys); n > 0 {
		return float64(n)
	}
	return 1
}
