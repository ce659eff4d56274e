package analysis

import "github.com/roach88/geocheck/internal/geo"

// CountCrossEdges counts the undirected edges whose two endpoints are known
// areas in different clusters.
//
// Every directed edge is first deduplicated into its canonical undirected
// form. The set is keyed by the edge value rather than its "a|b" string so
// keys containing the separator cannot collide. Edges with an endpoint
// missing from areaToCluster (not an area, or an area with no cluster) are
// excluded from this count only; they still count towards the symmetry
// totals.
func CountCrossEdges(adj geo.Adjacency, areaToCluster map[string]string) int {
	seen := make(map[geo.UndirectedEdge]struct{})
	cross := 0
	for from, ns := range adj {
		for _, to := range ns {
			if from == to {
				continue
			}
			e := geo.NewUndirectedEdge(from, to)
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}

			ca, okA := areaToCluster[e.A]
			cb, okB := areaToCluster[e.B]
			if okA && okB && ca != cb {
				cross++
			}
		}
	}
	return cross
}
