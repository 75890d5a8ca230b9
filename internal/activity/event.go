package activity

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"time"
)

// SchemaVersion identifies the event shape. Bump on any change to
// Event's serialized fields.
const SchemaVersion = 1

// Op is one normalized operation tag. The set is closed; raw reason
// bits that express none of these produce an event with no tags rather
// than a new tag.
type Op string

const (
	OpCreate          Op = "create"
	OpDataWrite       Op = "data-write"
	OpRenameFrom      Op = "rename-from"
	OpRenameTo        Op = "rename-to"
	OpDelete          Op = "delete"
	OpSecurityChange  Op = "security-change"
	OpAttributeChange Op = "attribute-change"
)

// Event is the normalized unit handed downstream. Immutable once
// created. Field order here fixes the JSON key order in batch logs.
type Event struct {
	EventID         string    `json:"event_id"`
	Volume          string    `json:"volume"`
	FileReference   uint64    `json:"file_reference"`
	ParentReference uint64    `json:"parent_reference"`
	Name            string    `json:"name"`
	Path            *string   `json:"path"`
	Ops             []Op      `json:"operation_tags"`
	USN             int64     `json:"sequence_number"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventID derives the deterministic idempotency key for one journal
// position: FNV-1a over the volume GUID and the big-endian USN. The
// volume GUID rather than the drive letter keeps the key stable across
// letter reassignment.
func EventID(volumeGUID string, usn int64) string {
	h := fnv.New64a()
	io.WriteString(h, volumeGUID)
	h.Write([]byte{0})
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(usn))
	h.Write(b[:])
	return fmt.Sprintf("%016x", h.Sum64())
}
