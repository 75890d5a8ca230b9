//go:build !windows

package journal

import "context"

// VolumeReader is only functional on Windows. The stub keeps the rest
// of the module compiling everywhere; collection commands report
// ErrUnsupported at startup on other platforms.
type VolumeReader struct{}

func OpenVolume(label string) (*VolumeReader, error) {
	return nil, ErrUnsupported
}

func (r *VolumeReader) Info(ctx context.Context) (Info, error) {
	return Info{}, ErrUnsupported
}

func (r *VolumeReader) Read(ctx context.Context, cur Cursor, maxBytes int) (Batch, error) {
	return Batch{}, ErrUnsupported
}

func (r *VolumeReader) Resolve(fileRef uint64) (string, bool) {
	return "", false
}

func (r *VolumeReader) Close() error {
	return nil
}
