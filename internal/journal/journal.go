package journal

import (
	"context"
	"time"
)

// Cursor is a resume position within one volume's change journal.
// NextUSN is only meaningful together with the JournalID it was read
// under; a mismatch means the journal was recreated and the position
// must be discarded.
type Cursor struct {
	JournalID uint64
	NextUSN   int64
}

// Record is one raw entry read from the journal. Records are transient:
// they live for one collection batch and are never persisted verbatim.
type Record struct {
	FileReference   uint64
	ParentReference uint64
	USN             int64
	Timestamp       time.Time
	Reason          Reason
	SourceInfo      uint32
	SecurityID      uint32
	Attributes      uint32
	Name            string
}

// Info describes a journal's current identity and extent.
type Info struct {
	JournalID uint64
	// FirstUSN is the lowest USN still retained in the circular buffer.
	// Rotation recovery re-anchors here.
	FirstUSN int64
	// NextUSN is the head: the USN the next written record will receive.
	NextUSN     int64
	MaxUSN      int64
	MaximumSize uint64
}

// Batch is the outcome of one read call. NextCursor is valid even when
// Records is empty (caught up to the head) and, on a corrupt-record
// error, still points past the returned chunk so the caller can skip
// the damaged region under its error policy.
type Batch struct {
	Records    []Record
	NextCursor Cursor
}

// Reader is the journal access surface the collector drives. Implemented
// by VolumeReader on Windows and by journaltest.Sim in tests.
type Reader interface {
	// Info queries the journal's current identity and extent.
	Info(ctx context.Context) (Info, error)
	// Read returns records at or after cur.NextUSN, up to roughly
	// maxBytes of raw journal data. An empty batch is a normal outcome.
	// Returns ErrRotated when cur has been overwritten or cur.JournalID
	// no longer matches the live journal.
	Read(ctx context.Context, cur Cursor, maxBytes int) (Batch, error)
	Close() error
}
