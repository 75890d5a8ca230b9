package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays USNTAP_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("USNTAP_VOLUMES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Volumes = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Volumes = append(cfg.Volumes, p)
			}
		}
	}
	if v := os.Getenv("USNTAP_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("USNTAP_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("USNTAP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("USNTAP_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("USNTAP_DURATION"); v != "" {
		cfg.Duration = v
	}
	if v := os.Getenv("USNTAP_MAX_BATCH_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxBatchBytes = n
		}
	}
	if v := os.Getenv("USNTAP_FILTER"); v != "" {
		cfg.Filter = v
	}
	if v := os.Getenv("USNTAP_DRAIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Drain = b
		}
	}
	if v := os.Getenv("USNTAP_CONTINUE_ON_ERROR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ContinueOnError = b
		}
	}
	if v := os.Getenv("USNTAP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("USNTAP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("USNTAP_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
