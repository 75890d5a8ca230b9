// Package volume resolves the stable identity of the volumes the
// collector watches. Identities are resolved once at startup and never
// mutated afterwards.
package volume

import (
	"fmt"
	"strings"
)

// Identity is a stable identifier for one storage volume: the platform
// volume GUID plus the human label (drive letter) used in state files,
// logs, and event output.
type Identity struct {
	GUID  string
	Label string
}

func (id Identity) String() string {
	return id.Label
}

// ParseList splits and normalizes a comma-separated volume list such as
// "C:,d,E:\" into canonical labels ("C:", "D:", "E:"). Duplicates are
// collapsed; an empty list or an unparseable entry is an error.
func ParseList(list string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, err := NormalizeLabel(part)
		if err != nil {
			return nil, err
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("volume: empty volume list %q", list)
	}
	return out, nil
}

// NormalizeLabel canonicalizes a single drive label: "c", "C:", and
// "C:\" all become "C:".
func NormalizeLabel(s string) (string, error) {
	t := strings.TrimRight(strings.TrimSpace(s), `\/`)
	t = strings.TrimSuffix(t, ":")
	if len(t) != 1 {
		return "", fmt.Errorf("volume: invalid volume label %q", s)
	}
	c := t[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return "", fmt.Errorf("volume: invalid volume label %q", s)
	}
	return string(c) + ":", nil
}
