package analysis

import (
	"sort"

	"github.com/roach88/geocheck/internal/geo"
)

// DefaultSmallComponentMax is the largest component size reported as a
// small island.
const DefaultSmallComponentMax = 20

// Components is the result of AnalyzeComponents.
type Components struct {
	Count        int     `json:"count"`
	LargestSize  int     `json:"largestSize"`
	LargestRatio float64 `json:"largestRatio"`

	// Groups holds every component, members sorted ascending, ordered by
	// size descending (ties by first member).
	Groups [][]string `json:"-"`

	// Sizes mirrors Groups.
	Sizes []int `json:"sizes"`

	// Smallest lists the components whose size is at most the configured
	// maximum, ordered by size ascending (ties by first member). A unique
	// largest component is never listed; tied largest ones are. Isolated
	// nodes and small islands usually mean an area is missing from the
	// adjacency table.
	Smallest [][]string `json:"smallest"`
}

// AnalyzeComponents partitions universe into connected components of the
// undirected projection of adj.
//
// Both a → b and b → a are added for every directed edge, so an asymmetric
// relation is not artificially fragmented. Edges touching keys outside the
// universe are ignored. Traversal is an explicit-stack DFS so memory use is
// bounded by the graph size, not the call stack.
//
// smallMax <= 0 selects DefaultSmallComponentMax.
func AnalyzeComponents(universe []string, adj geo.Adjacency, smallMax int) Components {
	if smallMax <= 0 {
		smallMax = DefaultSmallComponentMax
	}

	inUniverse := make(map[string]bool, len(universe))
	for _, n := range universe {
		inUniverse[n] = true
	}

	undirected := make(map[string][]string, len(universe))
	for from, ns := range adj {
		if !inUniverse[from] {
			continue
		}
		for _, to := range ns {
			if to == from || !inUniverse[to] {
				continue
			}
			undirected[from] = append(undirected[from], to)
			undirected[to] = append(undirected[to], from)
		}
	}

	// Start traversals in ascending key order so Groups is deterministic
	// before the final sort.
	nodes := append([]string(nil), universe...)
	sort.Strings(nodes)

	visited := make(map[string]bool, len(nodes))
	var groups [][]string
	for _, start := range nodes {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []string{start}
		var group []string
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			group = append(group, n)
			for _, m := range undirected[n] {
				if !visited[m] {
					visited[m] = true
					stack = append(stack, m)
				}
			}
		}
		sort.Strings(group)
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	result := Components{
		Count:        len(groups),
		LargestRatio: 1.0,
		Groups:       groups,
		Sizes:        make([]int, len(groups)),
		Smallest:     [][]string{},
	}
	for i, g := range groups {
		result.Sizes[i] = len(g)
	}
	if len(groups) > 0 {
		result.LargestSize = len(groups[0])
		result.LargestRatio = float64(result.LargestSize) / float64(len(nodes))
	}

	// Only a unique largest component is left out. When the largest size
	// is shared, no component is the main graph and all of them are listed.
	skip := 0
	if len(groups) == 1 || (len(groups) > 1 && len(groups[1]) < len(groups[0])) {
		skip = 1
	}
	for _, g := range groups[skip:] {
		if len(g) <= smallMax {
			result.Smallest = append(result.Smallest, g)
		}
	}
	sort.SliceStable(result.Smallest, func(i, j int) bool {
		return len(result.Smallest[i]) < len(result.Smallest[j])
	})
	return result
}
