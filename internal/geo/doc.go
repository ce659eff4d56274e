// Package geo provides the canonical in-memory model for a geographic
// dataset: areas, the cluster forest, and the directed adjacency relation.
//
// This package contains types and pure helpers only. All other internal
// packages import geo; geo imports nothing internal.
//
// Key design constraints:
//   - Every key is canonical (trimmed, case-folded, NFC) before it enters a Snapshot
//   - A Snapshot is immutable once built and is safe to share across goroutines
//   - Coordinates are all-or-nothing: an Area either has a valid Point or none
package geo
