// Package dataset loads the three input record sets (areas, clusters,
// adjacency) into an immutable geo.Snapshot.
//
// Loading follows a two-tier error policy:
//   - Source-level problems (missing file, unparseable JSON, wrong top-level
//     shape, duplicate area or cluster keys) are fatal and returned as *LoadError.
//   - Record-level problems (an area with no key, partial coordinates, a
//     self-referencing neighbour) are skipped and collected as Warnings so the
//     rest of the pipeline still runs on the remaining data.
//
// Every key is canonicalized with geo.CanonicalKey at this boundary; no other
// package re-checks key shape or field presence.
package dataset
