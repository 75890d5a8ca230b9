// Package pebblestore wraps a Pebble database with the durability policy
// and the small helper surface the activity recorder needs.
//
// # Overview
//
// The recorder treats Pebble as a local embedded KV store: activity events
// are upserted under volume-scoped keys, and a secondary index maps event
// identifiers to primary keys. This package does not know about those
// keyspaces; it only provides:
//
//   - Open/Close with an explicit fsync policy (FsyncMode)
//   - batch creation and commit honoring that policy
//   - point Set/Get/Delete helpers routed through batches
//   - raw iterator access for range scans
//
// # Durability
//
// FsyncModeAlways is the recorder default. A cursor checkpoint is only
// written after events are durably recorded, so the store must not
// acknowledge a commit that could be lost on power failure. Tests and
// bulk backfills may use FsyncModeInterval or FsyncModeNever to trade
// durability for throughput.
//
// # Metrics
//
// A MetricsHook observes read and batch-commit sizes and latencies.
// The hook is optional; NoopMetrics is installed when absent.
package pebblestore
