// Package store keeps the run history of geocheck in SQLite.
//
// Each validation run appends one row holding the report's content hash,
// the gate outcome and the failure list. Comparing a new hash with the
// latest row tells CI whether the report changed since the previous run.
//
// # Ordering
//
// Runs are ordered by seq, a per-database counter assigned on insert.
// created_at is informational only; wall clocks are not trusted for order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Failure lists are stored as canonical JSON from the report package, so
// equal lists are always stored as equal text.
package store
