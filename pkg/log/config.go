package log

import (
	"fmt"
	"strings"
)

// Config declaratively describes a logger for ApplyConfig.
type Config struct {
	// Level is one of debug|info|warn|error (default info).
	Level string
	// Format is text|json (default text).
	Format string
	// FilePath, when set, adds a file output alongside the console.
	FilePath string
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// ApplyConfig builds a Logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	var formatter Formatter
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter), WithOutput(NewConsoleOutput())}
	if cfg.FilePath != "" {
		fo, err := NewFileOutput(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithOutput(fo))
	}
	return NewLogger(opts...), nil
}
