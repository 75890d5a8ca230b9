// Package recorder persists normalized activity events in an embedded
// Pebble store, deduplicating on event id.
//
// # Overview
//
// The recorder is the ingestion end of the pipeline. Events arrive
// either directly from a running collector (integrated mode) or from a
// batch log written earlier (decoupled mode); both paths funnel into
// Store.Ingest, whose contract is an upsert: re-ingesting an event
// already recorded changes nothing and is counted as a duplicate, which
// is what absorbs the collector's crash-replay of its last batch.
//
// # Keyspace
//
//	act/<label>/<usn BE8>   event body (JSON)
//	idx/<event-id>          primary key for the event id
//	meta/<label>            per-volume ingest summary (JSON)
//
// The big-endian USN suffix makes a prefix scan over act/<label>/ yield
// events in journal order. The id index exists because the same volume
// GUID can surface under a different drive letter: the event id stays
// stable while the primary key would not, and the index catches that
// form of redelivery too.
//
// # Durability
//
// Ingest commits one batch per call under the store's fsync policy
// (always, by default). The collector checkpoints its cursor only after
// Ingest returns, so an acknowledged batch must already be on disk.
package recorder
