//go:build !windows

package volume

// Resolve synthesizes a deterministic identity from the label. Only the
// journal reader is platform-gated; letting resolution succeed keeps
// the record and status commands usable everywhere.
func Resolve(label string) (Identity, error) {
	canonical, err := NormalizeLabel(label)
	if err != nil {
		return Identity{}, err
	}
	return Identity{GUID: "volume-" + canonical, Label: canonical}, nil
}
