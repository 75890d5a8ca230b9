// Package collector drives the read/normalize/record/checkpoint loop.
//
// # Overview
//
// One Collector owns a set of volumes. Each volume runs an independent,
// strictly sequential state machine:
//
//	Idle -> Reading -> (Recovering)? -> Normalizing -> Recording
//	     -> Checkpointing -> Sleeping -> Reading ...
//
// terminating in Stopped when the configured duration elapses, the
// context is canceled, a fatal error occurs, or (drain mode) the volume
// catches up with its journal head. Volumes proceed concurrently but
// never share mutable state beyond the state snapshot, which is guarded
// by one mutex and written by one volume at a time.
//
// # Delivery guarantee
//
// The cursor is checkpointed only after the sink accepts the whole
// batch. A crash between those steps replays the batch on restart; the
// recorder's id-based upsert absorbs the replay. Within one journal
// identity the checkpointed cursor never regresses; the only position
// resets are rotation recoveries, each logged exactly once.
//
// # Error policy
//
// Rotation is expected and always recovered, retried at most once per
// read attempt. Malformed records, filter failures, and sink append
// failures are policy-gated: logged and skipped under continue-on-error,
// otherwise the volume aborts with ErrAborted. Everything else (volume
// gone, access denied, state write failure) aborts the volume; other
// volumes keep running and all errors surface joined from Run.
package collector
