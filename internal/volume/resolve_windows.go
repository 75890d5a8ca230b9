//go:build windows

package volume

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

// Resolve maps a canonical label to the volume's GUID identity via the
// mount manager. The GUID survives drive-letter reassignment, so state
// keyed by it stays valid when letters move.
func Resolve(label string) (Identity, error) {
	canonical, err := NormalizeLabel(label)
	if err != nil {
		return Identity{}, err
	}
	mount, err := windows.UTF16PtrFromString(canonical + `\`)
	if err != nil {
		return Identity{}, fmt.Errorf("volume: mount point %q: %w", canonical, err)
	}
	buf := make([]uint16, 64)
	if err := windows.GetVolumeNameForVolumeMountPoint(mount, &buf[0], uint32(len(buf))); err != nil {
		return Identity{}, fmt.Errorf("volume: resolve %s: %w", canonical, err)
	}
	// \\?\Volume{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}\ -> the braced GUID.
	name := windows.UTF16ToString(buf)
	guid := strings.TrimSuffix(strings.TrimPrefix(name, `\\?\Volume`), `\`)
	if guid == "" {
		guid = name
	}
	return Identity{GUID: guid, Label: canonical}, nil
}
