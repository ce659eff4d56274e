package geo

import "sort"

// Snapshot is an immutable, per-invocation view of a dataset.
//
// It is constructed once by the loader and then only read. Analyzers may
// share a Snapshot across goroutines without locking.
type Snapshot struct {
	Areas     map[string]Area
	Clusters  []*Cluster // roots of the cluster forest
	Adjacency Adjacency
}

// AreaKeys returns all area keys in ascending order.
func (s *Snapshot) AreaKeys() []string {
	keys := make([]string, 0, len(s.Areas))
	for k := range s.Areas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Walk visits every cluster in the forest in pre-order, roots in input
// order. Iterative so that deep hierarchies cannot exhaust the stack.
func (s *Snapshot) Walk(fn func(c *Cluster, depth int)) {
	type frame struct {
		c     *Cluster
		depth int
	}
	stack := make([]frame, 0, len(s.Clusters))
	for i := len(s.Clusters) - 1; i >= 0; i-- {
		stack = append(stack, frame{s.Clusters[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.c, f.depth)
		for i := len(f.c.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.c.Children[i], f.depth + 1})
		}
	}
}

// ClusterCount returns the total number of clusters and the number of
// leaf clusters in the forest.
func (s *Snapshot) ClusterCount() (total, leaves int) {
	s.Walk(func(c *Cluster, _ int) {
		total++
		if c.IsLeaf() {
			leaves++
		}
	})
	return total, leaves
}

// AreaToCluster maps every area key to its cluster key.
//
// An area's own ClusterKey takes precedence; otherwise the cluster whose
// MemberAreaKeys lists it is used. Areas with no cluster are omitted.
// Member keys that are not areas are also mapped so callers can decide
// how to treat them.
func (s *Snapshot) AreaToCluster() map[string]string {
	out := make(map[string]string, len(s.Areas))
	s.Walk(func(c *Cluster, _ int) {
		for _, k := range c.MemberAreaKeys {
			if _, ok := out[k]; !ok {
				out[k] = c.Key
			}
		}
	})
	for k, a := range s.Areas {
		if a.ClusterKey != "" {
			out[k] = a.ClusterKey
		}
	}
	return out
}

// NodeUniverse returns the sorted union of every area key appearing in
// Areas, cluster member lists, adjacency sources and adjacency targets.
// Cluster keys themselves are not nodes.
func (s *Snapshot) NodeUniverse() []string {
	seen := make(map[string]struct{}, len(s.Areas))
	for k := range s.Areas {
		seen[k] = struct{}{}
	}
	s.Walk(func(c *Cluster, _ int) {
		for _, k := range c.MemberAreaKeys {
			seen[k] = struct{}{}
		}
	})
	for k, ns := range s.Adjacency {
		seen[k] = struct{}{}
		for _, n := range ns {
			seen[n] = struct{}{}
		}
	}

	nodes := make([]string, 0, len(seen))
	for k := range seen {
		nodes = append(nodes, k)
	}
	sort.Strings(nodes)
	return nodes
}
