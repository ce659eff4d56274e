// Package gate evaluates computed metrics against configured thresholds.
//
// Every rule is evaluated on every run; a failing rule never hides a later
// one, so a single CI run reports every violation at once.
//
// Upper-bound thresholds use Limit, which is either a finite integer or
// Unbounded. Unbounded serializes as the string "Infinity" and is never
// exceeded.
package gate
