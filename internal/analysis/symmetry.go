package analysis

import (
	"math"
	"sort"

	"github.com/roach88/geocheck/internal/geo"
)

// DirectedEdge is a single from → to adjacency entry.
type DirectedEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Symmetry is the result of AnalyzeSymmetry.
type Symmetry struct {
	DirectedEdgeCount int `json:"directedEdgeCount"`

	// UndirectedEdgeCount is round(DirectedEdgeCount / 2). It is exact only
	// for a fully symmetric relation; AsymmetricEdges shows how far off it is.
	UndirectedEdgeCount int `json:"undirectedEdgeCount"`

	// AsymmetricEdges lists every a → b without a matching b → a,
	// sorted by (From, To). Never nil.
	AsymmetricEdges []DirectedEdge `json:"asymmetricEdges"`
}

// AnalyzeSymmetry classifies every directed edge as reciprocal or not.
//
// The adjacency relation is expected to be normalized (no self-loops, no
// duplicate neighbours), as produced by the dataset loader.
func AnalyzeSymmetry(adj geo.Adjacency) Symmetry {
	edges := edgeSet(adj)

	result := Symmetry{AsymmetricEdges: []DirectedEdge{}}
	for e := range edges {
		result.DirectedEdgeCount++
		if _, ok := edges[DirectedEdge{From: e.To, To: e.From}]; !ok {
			result.AsymmetricEdges = append(result.AsymmetricEdges, e)
		}
	}
	result.UndirectedEdgeCount = int(math.Round(float64(result.DirectedEdgeCount) / 2))

	sortEdges(result.AsymmetricEdges)
	return result
}

// edgeSet collects the distinct directed edges of adj, ignoring self-loops.
func edgeSet(adj geo.Adjacency) map[DirectedEdge]struct{} {
	edges := make(map[DirectedEdge]struct{})
	for from, ns := range adj {
		for _, to := range ns {
			if from == to {
				continue
			}
			edges[DirectedEdge{From: from, To: to}] = struct{}{}
		}
	}
	return edges
}

func sortEdges(edges []DirectedEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}
