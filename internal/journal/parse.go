package journal

import (
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf16"
)

// Read-call output layout: an 8-byte USN (the position to resume from)
// followed by zero or more records. Each record:
//
//	offset 0   RecordLength      uint32  total, including name + padding
//	offset 4   MajorVersion      uint16  2
//	offset 6   MinorVersion      uint16
//	offset 8   FileReference     uint64
//	offset 16  ParentReference   uint64
//	offset 24  USN               int64
//	offset 32  Timestamp         int64   FILETIME
//	offset 40  Reason            uint32
//	offset 44  SourceInfo        uint32
//	offset 48  SecurityID        uint32
//	offset 52  FileAttributes    uint32
//	offset 56  FileNameLength    uint16  bytes
//	offset 58  FileNameOffset    uint16  from record start
//	offset 60  FileName          UTF-16LE, padded to an 8-byte boundary
const (
	readBufferHeaderSize = 8
	recordFixedSize      = 60
	recordMajorVersion   = 2
)

// filetimeEpochDelta is the count of 100ns intervals between the
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

func filetimeToTime(ft int64) time.Time {
	return time.Unix(0, (ft-filetimeEpochDelta)*100).UTC()
}

// DecodeReadBuffer decodes the output of one journal read call. The
// returned USN is the resume position reported by the journal and is
// valid even when no records follow (caught up to the head).
//
// On framing damage the records decoded so far are returned together
// with an error wrapping ErrCorruptRecord; the resume USN still points
// past the whole chunk, so a caller that elects to continue skips the
// damaged region rather than re-reading it forever. Well-framed records
// with an unrecognized major version are skipped.
func DecodeReadBuffer(buf []byte) (int64, []Record, error) {
	if len(buf) < readBufferHeaderSize {
		return 0, nil, fmt.Errorf("journal: short read buffer (%d bytes): %w", len(buf), ErrCorruptRecord)
	}
	next := int64(binary.LittleEndian.Uint64(buf))

	var records []Record
	off := readBufferHeaderSize
	for off < len(buf) {
		if len(buf)-off < recordFixedSize {
			return next, records, fmt.Errorf("journal: truncated record at offset %d: %w", off, ErrCorruptRecord)
		}
		length := int(binary.LittleEndian.Uint32(buf[off:]))
		if length < recordFixedSize || length%8 != 0 || off+length > len(buf) {
			return next, records, fmt.Errorf("journal: bad record length %d at offset %d: %w", length, off, ErrCorruptRecord)
		}
		if binary.LittleEndian.Uint16(buf[off+4:]) != recordMajorVersion {
			off += length
			continue
		}
		rec, err := decodeRecordV2(buf[off : off+length])
		if err != nil {
			return next, records, fmt.Errorf("journal: record at offset %d: %w", off, err)
		}
		records = append(records, rec)
		off += length
	}
	return next, records, nil
}

func decodeRecordV2(b []byte) (Record, error) {
	nameLen := int(binary.LittleEndian.Uint16(b[56:]))
	nameOff := int(binary.LittleEndian.Uint16(b[58:]))
	if nameOff < recordFixedSize || nameLen%2 != 0 || nameOff+nameLen > len(b) {
		return Record{}, fmt.Errorf("name bounds offset=%d length=%d: %w", nameOff, nameLen, ErrCorruptRecord)
	}
	units := make([]uint16, nameLen/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[nameOff+2*i:])
	}
	return Record{
		FileReference:   binary.LittleEndian.Uint64(b[8:]),
		ParentReference: binary.LittleEndian.Uint64(b[16:]),
		USN:             int64(binary.LittleEndian.Uint64(b[24:])),
		Timestamp:       filetimeToTime(int64(binary.LittleEndian.Uint64(b[32:]))),
		Reason:          Reason(binary.LittleEndian.Uint32(b[40:])),
		SourceInfo:      binary.LittleEndian.Uint32(b[44:]),
		SecurityID:      binary.LittleEndian.Uint32(b[48:]),
		Attributes:      binary.LittleEndian.Uint32(b[52:]),
		Name:            string(utf16.Decode(units)),
	}, nil
}
