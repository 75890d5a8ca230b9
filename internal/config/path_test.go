package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataDirXDGOverride(t *testing.T) {
	original := os.Getenv("XDG_DATA_HOME")
	os.Setenv("XDG_DATA_HOME", "/custom/data")
	t.Cleanup(func() {
		if original != "" {
			os.Setenv("XDG_DATA_HOME", original)
		} else {
			os.Unsetenv("XDG_DATA_HOME")
		}
	})

	if got := DefaultDataDir(); got != "/custom/data/usntap" {
		t.Fatalf("XDG override: %q", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	originalHome := os.Getenv("HOME")
	originalProfile := os.Getenv("USERPROFILE")
	os.Unsetenv("HOME")
	os.Unsetenv("USERPROFILE")
	t.Cleanup(func() {
		if originalHome != "" {
			os.Setenv("HOME", originalHome)
		}
		if originalProfile != "" {
			os.Setenv("USERPROFILE", originalProfile)
		}
	})

	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("no-home fallback: %q", got)
	}
}

func TestDefaultPathsHangOffDataDir(t *testing.T) {
	dataDir := DefaultDataDir()
	if got := DefaultStatePath(); got != filepath.Join(dataDir, "usn_state.json") {
		t.Fatalf("state path: %q", got)
	}
	if got := DefaultOutputDir(); got != filepath.Join(dataDir, "activity") {
		t.Fatalf("output dir: %q", got)
	}
}

func TestIsDir(t *testing.T) {
	if !isDir(".") {
		t.Fatalf("current directory should be a dir")
	}
	if isDir("/non/existent/path/that/does/not/exist") {
		t.Fatalf("missing path should not be a dir")
	}
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if isDir(file) {
		t.Fatalf("regular file should not be a dir")
	}
}
