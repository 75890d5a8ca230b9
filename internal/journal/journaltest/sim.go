// Package journaltest provides a scripted in-memory change journal for
// exercising collector behavior that is awkward to produce on a real
// volume: rotation, journal recreation, corrupt batches, and injected
// read failures.
package journaltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ubc-systopia/usntap/internal/journal"
)

// usnStride spaces the USNs Append assigns, approximating the byte
// lengths real records occupy in the journal stream.
const usnStride = 96

// Sim is an in-memory journal implementing journal.Reader. The zero
// value is not usable; construct with NewSim.
type Sim struct {
	mu        sync.Mutex
	journalID uint64
	firstUSN  int64
	nextUSN   int64
	records   []journal.Record
	paths     map[uint64]string
	pending   []error
	now       time.Time
	batchCap  int

	ReadCalls int
	InfoCalls int
	Closed    bool
}

var _ journal.Reader = (*Sim)(nil)

func NewSim(journalID uint64) *Sim {
	return &Sim{
		journalID: journalID,
		firstUSN:  usnStride,
		nextUSN:   usnStride,
		paths:     make(map[uint64]string),
		now:       time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
	}
}

// SetBatchCap limits how many records one Read returns. Zero means
// unlimited.
func (s *Sim) SetBatchCap(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCap = n
}

// Append adds a record at the journal head and returns its USN.
func (s *Sim) Append(name string, fileRef, parentRef uint64, reason journal.Reason) int64 {
	return s.AppendRecord(journal.Record{
		Name:            name,
		FileReference:   fileRef,
		ParentReference: parentRef,
		Reason:          reason,
	})
}

// AppendRecord adds a record verbatim, assigning a USN and timestamp
// when the record carries none. Useful for injecting malformed records.
func (s *Sim) AppendRecord(rec journal.Record) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.USN == 0 {
		rec.USN = s.nextUSN
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now
		s.now = s.now.Add(time.Second)
	}
	if rec.USN >= s.nextUSN {
		s.nextUSN = rec.USN + usnStride
	}
	s.records = append(s.records, rec)
	return rec.USN
}

// Rotate drops the oldest n records, advancing the lowest retained USN
// the way circular overwrite does.
func (s *Sim) Rotate(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.records) {
		n = len(s.records)
	}
	s.records = s.records[n:]
	if len(s.records) > 0 {
		s.firstUSN = s.records[0].USN
	} else {
		s.firstUSN = s.nextUSN
	}
}

// Recreate replaces the journal with a fresh, empty one under a new
// identity. USNs keep increasing across the boundary, as on a real
// volume.
func (s *Sim) Recreate(newID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journalID = newID
	s.records = nil
	s.firstUSN = s.nextUSN
}

// FailReads queues errors to be returned by upcoming Read calls, in
// order, before normal behavior resumes.
func (s *Sim) FailReads(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, errs...)
}

// SetPath registers a display path for a file reference, making Sim
// usable as a path resolver.
func (s *Sim) SetPath(fileRef uint64, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[fileRef] = path
}

// Resolve maps a file reference to its registered path.
func (s *Sim) Resolve(fileRef uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.paths[fileRef]
	return p, ok
}

func (s *Sim) Info(ctx context.Context) (journal.Info, error) {
	if err := ctx.Err(); err != nil {
		return journal.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InfoCalls++
	return journal.Info{
		JournalID:   s.journalID,
		FirstUSN:    s.firstUSN,
		NextUSN:     s.nextUSN,
		MaxUSN:      1 << 60,
		MaximumSize: 32 << 20,
	}, nil
}

func (s *Sim) Read(ctx context.Context, cur journal.Cursor, maxBytes int) (journal.Batch, error) {
	if err := ctx.Err(); err != nil {
		return journal.Batch{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReadCalls++

	if len(s.pending) > 0 {
		err := s.pending[0]
		s.pending = s.pending[1:]
		return journal.Batch{}, err
	}
	if cur.JournalID != s.journalID {
		return journal.Batch{}, fmt.Errorf("sim: journal id %d is stale: %w", cur.JournalID, journal.ErrRotated)
	}
	if cur.NextUSN < s.firstUSN {
		return journal.Batch{}, fmt.Errorf("sim: usn %d below first retained %d: %w", cur.NextUSN, s.firstUSN, journal.ErrRotated)
	}

	var matched []journal.Record
	for _, rec := range s.records {
		if rec.USN >= cur.NextUSN {
			matched = append(matched, rec)
		}
	}

	out := matched
	next := s.nextUSN
	if s.batchCap > 0 && len(matched) > s.batchCap {
		out = matched[:s.batchCap]
		next = matched[s.batchCap].USN
	}
	return journal.Batch{
		Records:    append([]journal.Record(nil), out...),
		NextCursor: journal.Cursor{JournalID: s.journalID, NextUSN: next},
	}, nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
