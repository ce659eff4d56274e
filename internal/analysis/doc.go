// Package analysis computes the structural metrics of a geo.Snapshot.
//
// Each analyzer is a pure function over read-only inputs:
//   - AnalyzeSymmetry / RepairSymmetry: reciprocal-edge classification and repair
//   - AnalyzeComponents: connected components of the undirected projection
//   - LeafCoverage / Rollup / CoordsCoverage: coordinate coverage per cluster
//   - CountCrossEdges: undirected edges spanning two clusters
//
// Run executes the analyzers concurrently over one snapshot. None of them
// mutates its input, so no locking is needed; each goroutine writes only its
// own field of the Metrics result.
package analysis
