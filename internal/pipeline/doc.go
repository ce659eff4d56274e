// Package pipeline runs one validation pass:
// Load → Analyze → Gate → Write → (History).
//
// There is no retry state. A failed load aborts before analysis and no
// report is written. Gate failures are not errors; they are reported in
// the result and mapped to an exit code by the caller.
package pipeline
