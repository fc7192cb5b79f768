// Package store provides SQLite-backed durable storage for plan
// snapshots and scheduling runs.
//
// Snapshots are content-addressed: the row key is the SHA-256 hash of
// the snapshot's canonical JSON form, so identical plans dedupe and a
// run record is permanently tied to the exact input it was computed
// from. Saving a snapshot that already exists is a silent no-op.
//
// Runs are append-only. A run row records the snapshot hash, the
// scheduling mode, the planning horizon, and the full schedule result
// as JSON. Runs are never updated in place; a replan writes a new row.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: run rows must reference a stored snapshot
package store
