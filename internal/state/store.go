package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store reads and writes the state file at one path. Single-writer: the
// orchestrator guarantees one owner per volume set, so Store does no
// locking of its own.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (st *Store) Path() string {
	return st.path
}

// Load reads the snapshot. A missing, unparseable, or wrong-version
// file yields ok=false and no error: the caller starts from a fresh
// journal query. Only real I/O failures (e.g. permissions) are errors.
func (st *Store) Load() (Snapshot, bool, error) {
	b, err := os.ReadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("state: read %s: %w", st.path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, nil
	}
	if snap.SchemaVersion != CurrentSchemaVersion || snap.ProviderID == "" {
		return Snapshot{}, false, nil
	}
	if snap.LastUSN == nil {
		snap.LastUSN = make(map[string]int64)
	}
	if snap.JournalIDs == nil {
		snap.JournalIDs = make(map[string]string)
	}
	return snap, true, nil
}

// Save writes the snapshot atomically: temp file in the target
// directory, fsync, rename over the canonical path. A crash mid-save
// leaves either the old state or the new, never a truncated file.
func (st *Store) Save(snap Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode snapshot: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("state: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		return fmt.Errorf("state: replace %s: %w", st.path, err)
	}
	syncDir(dir)
	return nil
}

// Reset discards any existing state file.
func (st *Store) Reset() error {
	err := os.Remove(st.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("state: remove %s: %w", st.path, err)
	}
	return nil
}

// syncDir makes the rename durable on filesystems that need it. Not
// every platform supports fsync on directories, so failures are
// ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
