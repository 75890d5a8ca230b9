package journal

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
	"unicode/utf16"
)

func timeToFiletime(t time.Time) int64 {
	return t.UnixNano()/100 + filetimeEpochDelta
}

// encodeRecordV2 builds one wire-format record, padded to an 8-byte
// boundary the way the journal emits them.
func encodeRecordV2(t *testing.T, rec Record) []byte {
	t.Helper()
	units := utf16.Encode([]rune(rec.Name))
	nameLen := len(units) * 2
	length := recordFixedSize + nameLen
	if pad := length % 8; pad != 0 {
		length += 8 - pad
	}
	b := make([]byte, length)
	binary.LittleEndian.PutUint32(b[0:], uint32(length))
	binary.LittleEndian.PutUint16(b[4:], recordMajorVersion)
	binary.LittleEndian.PutUint16(b[6:], 0)
	binary.LittleEndian.PutUint64(b[8:], rec.FileReference)
	binary.LittleEndian.PutUint64(b[16:], rec.ParentReference)
	binary.LittleEndian.PutUint64(b[24:], uint64(rec.USN))
	binary.LittleEndian.PutUint64(b[32:], uint64(timeToFiletime(rec.Timestamp)))
	binary.LittleEndian.PutUint32(b[40:], uint32(rec.Reason))
	binary.LittleEndian.PutUint32(b[44:], rec.SourceInfo)
	binary.LittleEndian.PutUint32(b[48:], rec.SecurityID)
	binary.LittleEndian.PutUint32(b[52:], rec.Attributes)
	binary.LittleEndian.PutUint16(b[56:], uint16(nameLen))
	binary.LittleEndian.PutUint16(b[58:], recordFixedSize)
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[recordFixedSize+2*i:], u)
	}
	return b
}

func encodeReadBuffer(t *testing.T, next int64, recs ...Record) []byte {
	t.Helper()
	buf := make([]byte, readBufferHeaderSize)
	binary.LittleEndian.PutUint64(buf, uint64(next))
	for _, rec := range recs {
		buf = append(buf, encodeRecordV2(t, rec)...)
	}
	return buf
}

func TestDecodeReadBuffer(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 500000000, time.UTC)
	in := []Record{
		{
			FileReference:   0x0001000000004a21,
			ParentReference: 0x0002000000000005,
			USN:             4096,
			Timestamp:       ts,
			Reason:          ReasonFileCreate | ReasonClose,
			Attributes:      0x20,
			Name:            "report.docx",
		},
		{
			FileReference:   0x0001000000004a22,
			ParentReference: 0x0002000000000005,
			USN:             4192,
			Timestamp:       ts.Add(time.Second),
			Reason:          ReasonDataExtend,
			Name:            "données.txt",
		},
	}
	buf := encodeReadBuffer(t, 4288, in...)

	next, got, err := DecodeReadBuffer(buf)
	if err != nil {
		t.Fatalf("DecodeReadBuffer: %v", err)
	}
	if next != 4288 {
		t.Fatalf("next: got %d, want 4288", next)
	}
	if len(got) != len(in) {
		t.Fatalf("records: got %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestDecodeEmptyBuffer(t *testing.T) {
	buf := encodeReadBuffer(t, 9000)
	next, recs, err := DecodeReadBuffer(buf)
	if err != nil {
		t.Fatalf("DecodeReadBuffer: %v", err)
	}
	if next != 9000 || len(recs) != 0 {
		t.Fatalf("got next=%d records=%d, want next=9000 records=0", next, len(recs))
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, _, err := DecodeReadBuffer([]byte{1, 2, 3}); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("short buffer: got %v, want ErrCorruptRecord", err)
	}
}

func TestDecodeBadRecordLength(t *testing.T) {
	good := Record{FileReference: 1, USN: 100, Timestamp: time.Unix(1700000000, 0).UTC(), Reason: ReasonFileCreate, Name: "a"}
	buf := encodeReadBuffer(t, 500, good)
	// Append a record claiming a length past the end of the buffer.
	bad := make([]byte, recordFixedSize)
	binary.LittleEndian.PutUint32(bad[0:], 4096)
	binary.LittleEndian.PutUint16(bad[4:], recordMajorVersion)
	buf = append(buf, bad...)

	next, recs, err := DecodeReadBuffer(buf)
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("got %v, want ErrCorruptRecord", err)
	}
	if len(recs) != 1 || recs[0].Name != "a" {
		t.Fatalf("records before damage: got %+v, want the one good record", recs)
	}
	if next != 500 {
		t.Fatalf("next after damage: got %d, want 500", next)
	}
}

func TestDecodeSkipsUnknownVersion(t *testing.T) {
	good := Record{FileReference: 2, USN: 200, Timestamp: time.Unix(1700000000, 0).UTC(), Reason: ReasonFileDelete, Name: "b"}
	v9 := encodeRecordV2(t, Record{FileReference: 3, USN: 300, Timestamp: time.Unix(1700000000, 0).UTC(), Name: "c"})
	binary.LittleEndian.PutUint16(v9[4:], 9)

	buf := encodeReadBuffer(t, 400)
	buf = append(buf, v9...)
	buf = append(buf, encodeRecordV2(t, good)...)

	_, recs, err := DecodeReadBuffer(buf)
	if err != nil {
		t.Fatalf("DecodeReadBuffer: %v", err)
	}
	if len(recs) != 1 || recs[0].FileReference != 2 {
		t.Fatalf("got %+v, want only the v2 record", recs)
	}
}

func TestDecodeBadNameBounds(t *testing.T) {
	rec := encodeRecordV2(t, Record{FileReference: 4, USN: 400, Timestamp: time.Unix(1700000000, 0).UTC(), Name: "x"})
	// Point the name past the end of the record.
	binary.LittleEndian.PutUint16(rec[58:], uint16(len(rec)))
	binary.LittleEndian.PutUint16(rec[56:], 8)

	buf := encodeReadBuffer(t, 600)
	buf = append(buf, rec...)
	if _, _, err := DecodeReadBuffer(buf); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("got %v, want ErrCorruptRecord", err)
	}
}

func TestFiletimeRoundTrip(t *testing.T) {
	want := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	if got := filetimeToTime(timeToFiletime(want)); !got.Equal(want) {
		t.Fatalf("round trip: got %v, want %v", got, want)
	}
	// FILETIME epoch itself.
	if got := filetimeToTime(0); got.Year() != 1601 {
		t.Fatalf("filetime zero: got %v, want year 1601", got)
	}
}

func TestReasonNames(t *testing.T) {
	r := ReasonFileCreate | ReasonRenameNewName | ReasonClose
	got := r.String()
	want := "file-create|rename-new-name|close"
	if got != want {
		t.Fatalf("String: got %q, want %q", got, want)
	}
	if Reason(0).String() != "none" {
		t.Fatalf("zero reason: got %q, want none", Reason(0).String())
	}
	if !r.Has(ReasonClose) || r.Has(ReasonFileDelete) {
		t.Fatalf("Has misreported membership for %v", r)
	}
}
