package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid tags configuration errors so the CLI can map them onto a
// distinct exit code.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration loaded from file/env. Volumes
// has no default: the set of volumes to watch is always supplied by the
// operator.
type Config struct {
	Volumes         []string  `json:"volumes" yaml:"volumes"`
	StatePath       string    `json:"statePath" yaml:"statePath"`
	OutputDir       string    `json:"outputDir" yaml:"outputDir"`
	DataDir         string    `json:"dataDir" yaml:"dataDir"`
	Interval        string    `json:"interval" yaml:"interval"`
	Duration        string    `json:"duration" yaml:"duration"`
	MaxBatchBytes   int       `json:"maxBatchBytes" yaml:"maxBatchBytes"`
	Filter          string    `json:"filter" yaml:"filter"`
	Drain           bool      `json:"drain" yaml:"drain"`
	ContinueOnError bool      `json:"continueOnError" yaml:"continueOnError"`
	Log             LogConfig `json:"log" yaml:"log"`
}

// LogConfig carries the logger settings in their declarative string
// form; validation happens when the logger is built.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		StatePath:     DefaultStatePath(),
		OutputDir:     DefaultOutputDir(),
		DataDir:       DefaultDataDir(),
		Interval:      "30s",
		MaxBatchBytes: 512 << 10,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension),
// layered over defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// PollInterval parses Interval; empty falls back to 30s. A bare
// integer means seconds.
func (c Config) PollInterval() (time.Duration, error) {
	if c.Interval == "" {
		return 30 * time.Second, nil
	}
	return parseSpan(c.Interval, time.Second)
}

// RunDuration parses Duration; empty means unbounded. A bare integer
// means hours.
func (c Config) RunDuration() (time.Duration, error) {
	if c.Duration == "" {
		return 0, nil
	}
	return parseSpan(c.Duration, time.Hour)
}

func parseSpan(s string, unit time.Duration) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the fields that parse lazily. Volume labels and the
// filter expression are validated where they are consumed.
func (c Config) Validate() error {
	iv, err := c.PollInterval()
	if err != nil {
		return fmt.Errorf("%w: interval: %v", ErrInvalid, err)
	}
	if iv < 0 {
		return fmt.Errorf("%w: interval %s is negative", ErrInvalid, c.Interval)
	}
	d, err := c.RunDuration()
	if err != nil {
		return fmt.Errorf("%w: duration: %v", ErrInvalid, err)
	}
	if d < 0 {
		return fmt.Errorf("%w: duration %s is negative", ErrInvalid, c.Duration)
	}
	if c.MaxBatchBytes < 0 {
		return fmt.Errorf("%w: maxBatchBytes %d is negative", ErrInvalid, c.MaxBatchBytes)
	}
	return nil
}
