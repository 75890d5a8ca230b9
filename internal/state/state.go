// Package state persists the collector's per-volume journal cursors.
// The state file is the sole source of truth for where collection
// resumes after a restart; losing it is safe (the journal is re-read
// from its lowest retained position) but writing it non-atomically is
// not, so saves go through a temp-file rename.
package state

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ubc-systopia/usntap/internal/journal"
)

// CurrentSchemaVersion identifies the state-file layout. Files carrying
// any other version are ignored at load time and rebuilt from a fresh
// journal query.
const CurrentSchemaVersion = 1

// Snapshot is the durable form of every volume cursor plus the identity
// of the collector instance that wrote it.
type Snapshot struct {
	SchemaVersion int               `json:"schema_version"`
	ProviderID    string            `json:"provider_id"`
	LastUSN       map[string]int64  `json:"last_usn_positions"`
	JournalIDs    map[string]string `json:"journal_ids"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewSnapshot creates an empty snapshot with a fresh provider identity.
func NewSnapshot() Snapshot {
	return Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		ProviderID:    uuid.NewString(),
		LastUSN:       make(map[string]int64),
		JournalIDs:    make(map[string]string),
	}
}

// Cursor returns the stored cursor for a volume label. ok is false when
// the label is absent or its journal id does not parse.
func (s Snapshot) Cursor(label string) (journal.Cursor, bool) {
	usn, haveUSN := s.LastUSN[label]
	idText, haveID := s.JournalIDs[label]
	if !haveUSN || !haveID {
		return journal.Cursor{}, false
	}
	id, err := strconv.ParseUint(idText, 16, 64)
	if err != nil {
		return journal.Cursor{}, false
	}
	return journal.Cursor{JournalID: id, NextUSN: usn}, true
}

// SetCursor records a volume's cursor. Journal ids are stored as hex
// text: they exceed the integer range JSON tooling handles losslessly.
func (s *Snapshot) SetCursor(label string, cur journal.Cursor) {
	if s.LastUSN == nil {
		s.LastUSN = make(map[string]int64)
	}
	if s.JournalIDs == nil {
		s.JournalIDs = make(map[string]string)
	}
	s.LastUSN[label] = cur.NextUSN
	s.JournalIDs[label] = fmt.Sprintf("%016x", cur.JournalID)
}
