package journal

import "errors"

var (
	// ErrRotated reports that the requested USN has been overwritten by
	// the circular buffer, or that the cursor's JournalID no longer
	// matches the live journal. Recoverable: re-anchor at Info().FirstUSN.
	ErrRotated = errors.New("journal: cursor position rotated out of the journal")

	// ErrNotActive reports that the volume has no active change journal.
	ErrNotActive = errors.New("journal: change journal not active on volume")

	// ErrCorruptRecord reports a record that could not be decoded. The
	// batch returned alongside it holds everything parsed before the
	// damage and a cursor past the damaged region.
	ErrCorruptRecord = errors.New("journal: corrupt record")

	// ErrUnsupported is returned on platforms without change journals.
	ErrUnsupported = errors.New("journal: change journals are not supported on this platform")
)
