package activity

import (
	"errors"
	"fmt"

	"github.com/ubc-systopia/usntap/internal/journal"
	"github.com/ubc-systopia/usntap/internal/volume"
)

// ErrMalformed reports a record whose fields cannot be normalized.
// Policy for it lives with the caller: skipped under continue-on-error,
// fatal otherwise.
var ErrMalformed = errors.New("activity: malformed record")

// Resolver resolves a file reference number to a display path.
// Resolution is best effort; ok=false never fails normalization.
type Resolver interface {
	Resolve(fileRef uint64) (string, bool)
}

// Normalizer maps raw records from one volume onto the event schema.
type Normalizer struct {
	vol      volume.Identity
	resolver Resolver
}

// NewNormalizer builds a normalizer for one volume. resolver may be nil
// when no path resolution is available; events then carry a null path.
func NewNormalizer(vol volume.Identity, resolver Resolver) *Normalizer {
	return &Normalizer{vol: vol, resolver: resolver}
}

// Normalize converts one raw record into an event. A record with a
// negative USN or no identity at all (zero file reference and empty
// name) is malformed.
func (n *Normalizer) Normalize(rec journal.Record) (Event, error) {
	if rec.USN < 0 {
		return Event{}, fmt.Errorf("usn %d: %w", rec.USN, ErrMalformed)
	}
	if rec.FileReference == 0 && rec.Name == "" {
		return Event{}, fmt.Errorf("record at usn %d has no file identity: %w", rec.USN, ErrMalformed)
	}

	var path *string
	if n.resolver != nil {
		if p, ok := n.resolver.Resolve(rec.FileReference); ok {
			path = &p
		}
	}

	return Event{
		EventID:         EventID(n.vol.GUID, rec.USN),
		Volume:          n.vol.Label,
		FileReference:   rec.FileReference,
		ParentReference: rec.ParentReference,
		Name:            rec.Name,
		Path:            path,
		Ops:             opsFromReason(rec.Reason),
		USN:             rec.USN,
		Timestamp:       rec.Timestamp,
	}, nil
}

// opMap pairs each tag with the reason bits that imply it, in the
// canonical tag order events use.
var opMap = []struct {
	op   Op
	bits journal.Reason
}{
	{OpCreate, journal.ReasonFileCreate},
	{OpDataWrite, journal.ReasonDataOverwrite | journal.ReasonDataExtend | journal.ReasonDataTruncation |
		journal.ReasonNamedDataOverwrite | journal.ReasonNamedDataExtend | journal.ReasonNamedDataTruncate},
	{OpRenameFrom, journal.ReasonRenameOldName},
	{OpRenameTo, journal.ReasonRenameNewName},
	{OpDelete, journal.ReasonFileDelete},
	{OpSecurityChange, journal.ReasonSecurityChange},
	{OpAttributeChange, journal.ReasonBasicInfoChange | journal.ReasonEAChange},
}

func opsFromReason(r journal.Reason) []Op {
	ops := make([]Op, 0, 4)
	for _, m := range opMap {
		if r&m.bits != 0 {
			ops = append(ops, m.op)
		}
	}
	return ops
}
