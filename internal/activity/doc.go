// Package activity defines the normalized file-activity event and the
// mapping from raw journal records onto it.
//
// # Overview
//
// Raw journal records are platform-shaped: reference numbers, a reason
// bitmask, FILETIME timestamps. Downstream consumers get a closed,
// versioned schema instead. Event is that schema; Normalizer is the
// pure mapping; nothing platform-specific leaks past it.
//
// Every event carries a deterministic EventID derived from the volume
// GUID and the record's USN. The recorder deduplicates on it, which is
// what makes crash-replay of the last batch harmless: the collector
// checkpoints its cursor only after events are durably recorded, so a
// crash between those two steps redelivers a batch the recorder has
// already absorbed.
//
// # Batch log
//
// In decoupled operation events travel between the collect and record
// commands as a JSONL file, one event per line. EncodeLine and ReadLog
// implement that format. A null "path" means resolution failed at
// normalization time: identity is trustworthy, location is not.
package activity
