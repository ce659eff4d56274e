// Package harness runs YAML validation scenarios end to end.
//
// A scenario carries a small dataset, optional thresholds and assertions
// on the resulting report. The harness parses the dataset, runs the
// pipeline with a deterministic clock and an in-memory history store, and
// evaluates the assertions.
//
// # Scenario Format
//
//	name: asymmetric_edge
//	description: "A one-way edge fails requireSymmetry"
//	repeat: 2
//	dataset:
//	  areas:
//	    - { key: a, lat: 0, lng: 0 }
//	    - { key: b, lat: 0, lng: 1 }
//	  clusters:
//	    - { key: all, memberAreaKeys: [a, b] }
//	  adjacency:
//	    a: [b]
//	thresholds:
//	  requireSymmetry: true
//	assertions:
//	  - type: ok
//	    ok: false
//	  - type: failure_contains
//	    text: requireSymmetry
//	  - type: metric
//	    path: metrics.symmetry.directedEdgeCount
//	    equals: 1
//
// Dataset sections are plain YAML; they are re-encoded as JSON before
// loading, so they follow the same input shapes as the CLI. Thresholds
// use the keys of a threshold file and are checked against the same
// schema.
//
// # Assertion Types
//
//   - ok: the gate outcome equals ok
//   - failure_count: exactly count failures
//   - failure_contains: some failure message contains text
//   - warning: a warning with code exists (exactly count of them, if set)
//   - metric: the report value at a dotted path equals equals
//
// # Determinism
//
// With repeat > 1 the scenario is run that many times against the same
// history store; every run must produce the same report hash and be
// recognised as unchanged. Golden files under testdata/golden pin the
// full report bytes.
package harness
