package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Interval != "30s" {
		t.Fatalf("default interval: %q", cfg.Interval)
	}
	if cfg.MaxBatchBytes != 512<<10 {
		t.Fatalf("default max batch bytes: %d", cfg.MaxBatchBytes)
	}
	if len(cfg.Volumes) != 0 {
		t.Fatalf("volumes must have no default, got %v", cfg.Volumes)
	}
	if filepath.Base(cfg.StatePath) != "usn_state.json" {
		t.Fatalf("default state path: %q", cfg.StatePath)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("default log settings: %+v", cfg.Log)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "usntap.json")
	data := []byte(`{"volumes":["C:","D:"],"interval":"5s","drain":true,"log":{"level":"debug"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Volumes) != 2 || cfg.Volumes[0] != "C:" {
		t.Fatalf("volumes: %v", cfg.Volumes)
	}
	if cfg.Interval != "5s" {
		t.Fatalf("interval: %q", cfg.Interval)
	}
	if !cfg.Drain {
		t.Fatalf("expected drain set")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level: %q", cfg.Log.Level)
	}
	// Fields the file omits keep their defaults.
	if cfg.MaxBatchBytes != 512<<10 {
		t.Fatalf("max batch bytes lost its default: %d", cfg.MaxBatchBytes)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "usntap.yaml")
	data := []byte("volumes:\n  - \"C:\"\ninterval: 2m\ncontinueOnError: true\nlog:\n  format: json\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Volumes) != 1 || cfg.Volumes[0] != "C:" {
		t.Fatalf("volumes: %v", cfg.Volumes)
	}
	if cfg.Interval != "2m" {
		t.Fatalf("interval: %q", cfg.Interval)
	}
	if !cfg.ContinueOnError {
		t.Fatalf("expected continueOnError set")
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("log format: %q", cfg.Log.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interval != "30s" {
		t.Fatalf("expected defaults, got interval %q", cfg.Interval)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("USNTAP_VOLUMES", "C:, D:")
	os.Setenv("USNTAP_INTERVAL", "10s")
	os.Setenv("USNTAP_DRAIN", "true")
	os.Setenv("USNTAP_MAX_BATCH_BYTES", "65536")
	os.Setenv("USNTAP_LOG_LEVEL", "warn")
	t.Cleanup(func() {
		os.Unsetenv("USNTAP_VOLUMES")
		os.Unsetenv("USNTAP_INTERVAL")
		os.Unsetenv("USNTAP_DRAIN")
		os.Unsetenv("USNTAP_MAX_BATCH_BYTES")
		os.Unsetenv("USNTAP_LOG_LEVEL")
	})
	FromEnv(&cfg)
	if len(cfg.Volumes) != 2 || cfg.Volumes[1] != "D:" {
		t.Fatalf("env volumes: %v", cfg.Volumes)
	}
	if cfg.Interval != "10s" {
		t.Fatalf("env interval: %q", cfg.Interval)
	}
	if !cfg.Drain {
		t.Fatalf("env drain")
	}
	if cfg.MaxBatchBytes != 65536 {
		t.Fatalf("env max batch bytes: %d", cfg.MaxBatchBytes)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("env log level: %q", cfg.Log.Level)
	}
}

func TestPollInterval(t *testing.T) {
	cfg := Config{Interval: "45s"}
	d, err := cfg.PollInterval()
	if err != nil || d != 45*time.Second {
		t.Fatalf("interval: %v %v", d, err)
	}
	cfg.Interval = ""
	if d, _ := cfg.PollInterval(); d != 30*time.Second {
		t.Fatalf("empty interval fallback: %v", d)
	}
	// Bare integers are seconds.
	cfg.Interval = "10"
	if d, _ := cfg.PollInterval(); d != 10*time.Second {
		t.Fatalf("bare interval: %v", d)
	}
}

func TestRunDuration(t *testing.T) {
	cfg := Config{}
	if d, err := cfg.RunDuration(); err != nil || d != 0 {
		t.Fatalf("empty duration: %v %v", d, err)
	}
	cfg.Duration = "90m"
	if d, _ := cfg.RunDuration(); d != 90*time.Minute {
		t.Fatalf("duration: %v", d)
	}
	// Bare integers are hours.
	cfg.Duration = "2"
	if d, _ := cfg.RunDuration(); d != 2*time.Hour {
		t.Fatalf("bare duration: %v", d)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	cfg.Interval = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected interval error")
	} else if !errors.Is(err, ErrInvalid) {
		t.Fatalf("validation errors must wrap ErrInvalid: %v", err)
	}
	cfg = Default()
	cfg.Duration = "-1h"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative duration error")
	}
	cfg = Default()
	cfg.MaxBatchBytes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative batch bytes error")
	}
}
