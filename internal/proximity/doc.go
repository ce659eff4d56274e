// Package proximity builds a k-nearest-neighbour graph over areas using
// great-circle (Haversine) distance.
//
// The computation is all-pairs, O(n²), which is acceptable for a few
// thousand areas. The outer loop over source areas is split across
// goroutines; every source's neighbour list is computed independently and
// stored by index, so the result does not depend on scheduling.
//
// Areas without coordinates are excluded both as sources and as targets.
package proximity
