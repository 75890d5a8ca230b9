// Package journal reads raw change records from a volume's USN change
// journal and classifies the failure modes the collector must react to.
//
// # Overview
//
// A change journal is a circular, size-bounded log the filesystem keeps
// per volume. Every file mutation appends a record carrying the file's
// reference number, its parent, a reason bitmask, and the USN (update
// sequence number) at which the record was written. USNs increase
// monotonically for the lifetime of one journal identity; when the
// journal is deleted and recreated its JournalID changes and old USNs
// become meaningless.
//
// Because the log is circular, a cursor held across a long pause can be
// overwritten. Reading from such a cursor fails with a distinct error,
// surfaced here as ErrRotated so callers can re-anchor at the journal's
// lowest retained USN instead of treating it as an I/O fault.
//
// # API sketch
//
//	r, err := journal.OpenVolume("C:")
//	info, err := r.Info(ctx)
//	cur := journal.Cursor{JournalID: info.JournalID, NextUSN: info.FirstUSN}
//	batch, err := r.Read(ctx, cur, 1<<20)
//	// batch.Records, batch.NextCursor
//
// OpenVolume and the ioctl plumbing are Windows-only; on other platforms
// they return ErrUnsupported. Record parsing (DecodeReadBuffer) and the
// Reason bitmask are portable and fully testable everywhere, and the
// journaltest package provides a scripted in-memory journal for driving
// the collector through rotation and recovery scenarios.
package journal
