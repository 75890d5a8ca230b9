package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the default data directory based on the host OS.
// It prefers standard locations when available and falls back to a dotdir
// in the user's home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "usntap")
	}

	// Windows: %USERPROFILE%/AppData/Local/usntap
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "usntap")
	}

	// Common Linux/Unix system dir
	if isDir("/var/lib") {
		return "/var/lib/usntap"
	}

	// macOS: ~/Library/Application Support/usntap
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "usntap")
	}

	// Fallback: ~/.usntap
	return filepath.Join(homeDir, ".usntap")
}

// DefaultStatePath returns the default cursor state file location.
func DefaultStatePath() string {
	return filepath.Join(DefaultDataDir(), "usn_state.json")
}

// DefaultOutputDir returns the default directory for batch output logs.
func DefaultOutputDir() string {
	return filepath.Join(DefaultDataDir(), "activity")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
