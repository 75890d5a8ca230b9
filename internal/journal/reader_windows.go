//go:build windows

package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	fsctlQueryUSNJournal  = 0x000900f4
	fsctlReadUSNJournal   = 0x000900bb
	fsctlCreateUSNJournal = 0x000900e7

	// Geometry used when a volume has no active journal and one is
	// created on first use. Matches common fsutil defaults.
	createMaximumSize     = 32 << 20
	createAllocationDelta = 4 << 20

	minReadBuffer = 4 << 10
	maxReadBuffer = 4 << 20
)

// usnJournalData is USN_JOURNAL_DATA_V0.
type usnJournalData struct {
	JournalID       uint64
	FirstUSN        int64
	NextUSN         int64
	LowestValidUSN  int64
	MaxUSN          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// readUSNJournalData is READ_USN_JOURNAL_DATA_V0.
type readUSNJournalData struct {
	StartUSN          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	JournalID         uint64
}

// createUSNJournalData is CREATE_USN_JOURNAL_DATA.
type createUSNJournalData struct {
	MaximumSize     uint64
	AllocationDelta uint64
}

// fileIDDescriptor is FILE_ID_DESCRIPTOR with the file-reference arm of
// the union. The union is GUID-sized, hence the trailing padding.
type fileIDDescriptor struct {
	Size   uint32
	Type   uint32
	FileID uint64
	_      [8]byte
}

var procOpenFileByID = windows.NewLazySystemDLL("kernel32.dll").NewProc("OpenFileById")

// VolumeReader reads a single volume's change journal through the
// journal ioctls. Safe for use by one goroutine at a time; the collector
// runs one reader per volume loop.
type VolumeReader struct {
	label  string
	handle windows.Handle
}

// OpenVolume opens the journal device for a volume label such as "C:".
// Requires privileges sufficient to open \\.\C: for read.
func OpenVolume(label string) (*VolumeReader, error) {
	path, err := windows.UTF16PtrFromString(`\\.\` + strings.TrimSuffix(label, `\`))
	if err != nil {
		return nil, fmt.Errorf("journal: volume label %q: %w", label, err)
	}
	h, err := windows.CreateFile(
		path,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: open volume %s: %w", label, err)
	}
	return &VolumeReader{label: label, handle: h}, nil
}

// Info queries the journal's identity and extent, creating the journal
// first when the volume has none.
func (r *VolumeReader) Info(ctx context.Context) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	data, err := r.query()
	if errors.Is(err, ErrNotActive) {
		if cerr := r.create(); cerr != nil {
			return Info{}, cerr
		}
		data, err = r.query()
	}
	if err != nil {
		return Info{}, err
	}
	return Info{
		JournalID:   data.JournalID,
		FirstUSN:    data.FirstUSN,
		NextUSN:     data.NextUSN,
		MaxUSN:      data.MaxUSN,
		MaximumSize: data.MaximumSize,
	}, nil
}

func (r *VolumeReader) query() (usnJournalData, error) {
	var data usnJournalData
	var n uint32
	err := windows.DeviceIoControl(
		r.handle,
		fsctlQueryUSNJournal,
		nil, 0,
		(*byte)(unsafe.Pointer(&data)), uint32(unsafe.Sizeof(data)),
		&n, nil,
	)
	if err != nil {
		return usnJournalData{}, r.classify("query journal", err)
	}
	return data, nil
}

func (r *VolumeReader) create() error {
	in := createUSNJournalData{
		MaximumSize:     createMaximumSize,
		AllocationDelta: createAllocationDelta,
	}
	var n uint32
	err := windows.DeviceIoControl(
		r.handle,
		fsctlCreateUSNJournal,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		nil, 0,
		&n, nil,
	)
	if err != nil {
		return r.classify("create journal", err)
	}
	return nil
}

// Read returns records at or after cur.NextUSN. The call does not block
// waiting for new records; an empty batch means the cursor is caught up.
func (r *VolumeReader) Read(ctx context.Context, cur Cursor, maxBytes int) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if maxBytes < minReadBuffer {
		maxBytes = minReadBuffer
	}
	if maxBytes > maxReadBuffer {
		maxBytes = maxReadBuffer
	}

	in := readUSNJournalData{
		StartUSN:   cur.NextUSN,
		ReasonMask: 0xFFFFFFFF,
		JournalID:  cur.JournalID,
	}
	buf := make([]byte, maxBytes)
	var n uint32
	err := windows.DeviceIoControl(
		r.handle,
		fsctlReadUSNJournal,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&n, nil,
	)
	if err != nil {
		return Batch{}, r.classify("read journal", err)
	}

	next, records, perr := DecodeReadBuffer(buf[:n])
	return Batch{
		Records:    records,
		NextCursor: Cursor{JournalID: cur.JournalID, NextUSN: next},
	}, perr
}

// Resolve maps a file reference number to a display path by opening the
// file by id relative to the volume handle. Best effort: files already
// deleted or renamed away resolve to ok=false.
func (r *VolumeReader) Resolve(fileRef uint64) (string, bool) {
	desc := fileIDDescriptor{
		Size:   uint32(unsafe.Sizeof(fileIDDescriptor{})),
		Type:   0, // FileIdType
		FileID: fileRef,
	}
	h, _, _ := procOpenFileByID.Call(
		uintptr(r.handle),
		uintptr(unsafe.Pointer(&desc)),
		uintptr(windows.FILE_READ_ATTRIBUTES),
		uintptr(windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE),
		0,
		uintptr(windows.FILE_FLAG_BACKUP_SEMANTICS),
	)
	handle := windows.Handle(h)
	if handle == windows.InvalidHandle {
		return "", false
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetFinalPathNameByHandle(handle, &buf[0], uint32(len(buf)), 0)
	if err != nil || n == 0 || int(n) > len(buf) {
		return "", false
	}
	path := windows.UTF16ToString(buf[:n])
	path = strings.TrimPrefix(path, `\\?\`)
	return path, true
}

// Close releases the volume handle.
func (r *VolumeReader) Close() error {
	if r.handle == windows.InvalidHandle {
		return nil
	}
	err := windows.CloseHandle(r.handle)
	r.handle = windows.InvalidHandle
	return err
}

// classify maps journal errnos onto the package's sentinel errors so the
// collector never has to inspect OS codes. ERROR_JOURNAL_ENTRY_DELETED
// covers both an overwritten USN and a stale JournalID.
func (r *VolumeReader) classify(op string, err error) error {
	var errno windows.Errno
	if errors.As(err, &errno) {
		switch errno {
		case windows.ERROR_JOURNAL_ENTRY_DELETED:
			return fmt.Errorf("journal: %s %s: %w", op, r.label, ErrRotated)
		case windows.ERROR_JOURNAL_NOT_ACTIVE, windows.ERROR_JOURNAL_DELETE_IN_PROGRESS:
			return fmt.Errorf("journal: %s %s: %w", op, r.label, ErrNotActive)
		}
	}
	return fmt.Errorf("journal: %s %s: %w", op, r.label, err)
}
