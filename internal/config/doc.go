// Package config provides loading and environment overlay for collector
// configuration. It exposes a Default() baseline, file loading for JSON
// and YAML, and a USNTAP_* environment overlay applied on top. Command
// line flags bind last, so precedence is flags > env > file > defaults.
//
// Example:
//
//	cfg, err := config.Load("/etc/usntap.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
