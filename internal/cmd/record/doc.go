// Package recordrun exposes the shared Run entrypoint behind the CLI
// record command: it replays batch output logs produced by a collect
// run into the recorder store, deduplicating by event id so replaying
// the same log twice is harmless.
package recordrun
