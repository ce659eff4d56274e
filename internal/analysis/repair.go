package analysis

import (
	"sort"

	"github.com/roach88/geocheck/internal/geo"
)

// Repair is the result of RepairSymmetry.
type Repair struct {
	// AddedEdgeCount is the number of directed edges present in Fixed but
	// not in the original relation.
	AddedEdgeCount int `json:"addedEdgeCount"`

	// Fixed is a new, fully symmetric adjacency relation.
	Fixed geo.Adjacency `json:"fixedAdjacency"`
}

// RepairSymmetry builds a symmetric copy of adj.
//
// For every edge a → b present in either direction, both a → b and b → a
// appear in the output. Self-loops are removed and neighbour lists are
// deduplicated and sorted. Keys whose lists are empty are kept so that the
// repaired file covers the same key set as the original.
//
// adj is never modified. The repaired relation is an output artifact only;
// validation always reports on the original data.
func RepairSymmetry(adj geo.Adjacency) Repair {
	original := edgeSet(adj)

	sets := make(map[string]map[string]struct{}, len(adj))
	link := func(from, to string) {
		if sets[from] == nil {
			sets[from] = make(map[string]struct{})
		}
		sets[from][to] = struct{}{}
	}
	for k := range adj {
		if sets[k] == nil {
			sets[k] = make(map[string]struct{})
		}
	}
	for e := range original {
		link(e.From, e.To)
		link(e.To, e.From)
	}

	fixed := make(geo.Adjacency, len(sets))
	total := 0
	for k, set := range sets {
		ns := make([]string, 0, len(set))
		for n := range set {
			ns = append(ns, n)
		}
		sort.Strings(ns)
		fixed[k] = ns
		total += len(ns)
	}

	return Repair{
		AddedEdgeCount: total - len(original),
		Fixed:          fixed,
	}
}
