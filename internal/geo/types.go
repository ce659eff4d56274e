package geo

import "sort"

// Area is a single geographic unit (e.g. a suburb).
type Area struct {
	Key        string `json:"key"`
	Point      *Point `json:"point,omitempty"` // nil when coordinates are absent or invalid
	ClusterKey string `json:"cluster_key,omitempty"`
}

// HasCoords reports whether the area carries a valid coordinate.
func (a Area) HasCoords() bool {
	return a.Point != nil
}

// Cluster is a named grouping of areas. Clusters form a forest.
//
// A cluster with Children is an internal node; its own MemberAreaKeys, if
// any, are leaf-level members layered under it. Coverage for internal
// nodes is always derived, never stored.
type Cluster struct {
	Key            string     `json:"key"`
	MemberAreaKeys []string   `json:"member_area_keys,omitempty"`
	Children       []*Cluster `json:"children,omitempty"`
}

// IsLeaf reports whether the cluster has no children.
func (c *Cluster) IsLeaf() bool {
	return len(c.Children) == 0
}

// Adjacency is the directed "is-neighbour-of" relation: key → neighbour keys.
// It is not assumed symmetric.
type Adjacency map[string][]string

// SortedKeys returns the source keys in ascending order.
func (adj Adjacency) SortedKeys() []string {
	keys := make([]string, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the directed edge from → to exists.
func (adj Adjacency) Has(from, to string) bool {
	for _, n := range adj[from] {
		if n == to {
			return true
		}
	}
	return false
}

// UndirectedEdge is an edge canonicalized as (min, max) under
// lexicographic order of canonical keys.
type UndirectedEdge struct {
	A string
	B string
}

// NewUndirectedEdge returns the canonical undirected form of a–b.
func NewUndirectedEdge(a, b string) UndirectedEdge {
	if b < a {
		a, b = b, a
	}
	return UndirectedEdge{A: a, B: b}
}

// String returns the set key for the edge, "a|b".
func (e UndirectedEdge) String() string {
	return e.A + "|" + e.B
}
