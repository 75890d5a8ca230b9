package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubc-systopia/usntap/internal/journal"
	"github.com/ubc-systopia/usntap/internal/volume"
)

type mapResolver map[uint64]string

func (m mapResolver) Resolve(ref uint64) (string, bool) {
	p, ok := m[ref]
	return p, ok
}

func testVolume() volume.Identity {
	return volume.Identity{GUID: "volume-C:", Label: "C:"}
}

func TestNormalizeTagMapping(t *testing.T) {
	ts := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	n := NewNormalizer(testVolume(), nil)

	cases := []struct {
		name   string
		reason journal.Reason
		want   []Op
	}{
		{"create", journal.ReasonFileCreate | journal.ReasonClose, []Op{OpCreate}},
		{"write", journal.ReasonDataExtend | journal.ReasonClose, []Op{OpDataWrite}},
		{"overwrite", journal.ReasonDataOverwrite, []Op{OpDataWrite}},
		{"rename-both", journal.ReasonRenameOldName | journal.ReasonRenameNewName, []Op{OpRenameFrom, OpRenameTo}},
		{"delete", journal.ReasonFileDelete | journal.ReasonClose, []Op{OpDelete}},
		{"security", journal.ReasonSecurityChange, []Op{OpSecurityChange}},
		{"attributes", journal.ReasonBasicInfoChange, []Op{OpAttributeChange}},
		{"ea", journal.ReasonEAChange, []Op{OpAttributeChange}},
		{"close-only", journal.ReasonClose, []Op{}},
		{"create-and-write", journal.ReasonFileCreate | journal.ReasonDataExtend, []Op{OpCreate, OpDataWrite}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := n.Normalize(journal.Record{
				FileReference: 42, ParentReference: 7,
				USN: 1000, Timestamp: ts, Reason: tc.reason, Name: "f.txt",
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ev.Ops)
			assert.NotNil(t, ev.Ops)
		})
	}
}

func TestNormalizeCarriesIdentity(t *testing.T) {
	ts := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	resolver := mapResolver{42: `C:\work\f.txt`}
	n := NewNormalizer(testVolume(), resolver)

	ev, err := n.Normalize(journal.Record{
		FileReference: 42, ParentReference: 7,
		USN: 1000, Timestamp: ts,
		Reason: journal.ReasonFileCreate, Name: "f.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, EventID("volume-C:", 1000), ev.EventID)
	assert.Equal(t, "C:", ev.Volume)
	assert.Equal(t, uint64(42), ev.FileReference)
	assert.Equal(t, uint64(7), ev.ParentReference)
	assert.Equal(t, "f.txt", ev.Name)
	require.NotNil(t, ev.Path)
	assert.Equal(t, `C:\work\f.txt`, *ev.Path)
	assert.Equal(t, int64(1000), ev.USN)
	assert.Equal(t, ts, ev.Timestamp)
}

func TestNormalizeUnresolvedPathIsNull(t *testing.T) {
	n := NewNormalizer(testVolume(), mapResolver{})
	ev, err := n.Normalize(journal.Record{
		FileReference: 9, USN: 50, Timestamp: time.Now(),
		Reason: journal.ReasonFileDelete, Name: "gone.tmp",
	})
	require.NoError(t, err)
	assert.Nil(t, ev.Path)
	assert.Equal(t, "gone.tmp", ev.Name)
}

func TestNormalizeMalformed(t *testing.T) {
	n := NewNormalizer(testVolume(), nil)

	_, err := n.Normalize(journal.Record{FileReference: 1, USN: -4, Name: "x"})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = n.Normalize(journal.Record{USN: 10})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEventID(t *testing.T) {
	a := EventID("volume-C:", 4096)
	assert.Equal(t, a, EventID("volume-C:", 4096))
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, EventID("volume-C:", 4097))
	assert.NotEqual(t, a, EventID("volume-D:", 4096))

	// Pinned: recorder keys and batch logs depend on this value never
	// changing for a given volume + USN.
	assert.Equal(t, "c4450386c31caafd", a)
}

func TestEventIDBoundaryInputs(t *testing.T) {
	assert.NotEqual(t, EventID("", 0), EventID("", 1))
	assert.Len(t, EventID("", 0), 16)
}
