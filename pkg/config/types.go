package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent provtag configuration stored as
// config.toml in the .provtag/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Log      LogConfig      `toml:"log"`
	Storage  StorageConfig  `toml:"storage"`
	API      APIConfig      `toml:"api"`
}

// PipelineConfig holds dataset pipeline defaults. Comma-separated list
// values keep the TOML surface flat and match the CLI flag syntax.
type PipelineConfig struct {
	Strict      bool   `toml:"strict,omitempty"`
	MaxFileSize int64  `toml:"max_file_size,omitempty"`
	Origins     string `toml:"origins,omitempty"`
	Exclude     string `toml:"exclude,omitempty"`
	OutputDir   string `toml:"output_dir,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level,omitempty"`
}

// StorageConfig holds run index settings. An empty sqlite_path disables
// run recording.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// SplitList parses a comma-separated config value into trimmed segments.
func SplitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"pipeline.strict": {
		get: func(c *Config) string { return strconv.FormatBool(c.Pipeline.Strict) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.strict: %w", err)
			}
			c.Pipeline.Strict = b
			return nil
		},
	},
	"pipeline.max_file_size": {
		get: func(c *Config) string {
			if c.Pipeline.MaxFileSize == 0 {
				return ""
			}
			return strconv.FormatInt(c.Pipeline.MaxFileSize, 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.max_file_size: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("pipeline.max_file_size must not be negative")
			}
			c.Pipeline.MaxFileSize = n
			return nil
		},
	},
	"pipeline.origins": {
		get: func(c *Config) string { return c.Pipeline.Origins },
		set: func(c *Config, v string) error { c.Pipeline.Origins = v; return nil },
	},
	"pipeline.exclude": {
		get: func(c *Config) string { return c.Pipeline.Exclude },
		set: func(c *Config, v string) error { c.Pipeline.Exclude = v; return nil },
	},
	"pipeline.output_dir": {
		get: func(c *Config) string { return c.Pipeline.OutputDir },
		set: func(c *Config, v string) error { c.Pipeline.OutputDir = v; return nil },
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error {
			switch v {
			case "quiet", "info", "debug":
				c.Log.Level = v
				return nil
			}
			return fmt.Errorf("invalid value for log.level: %q (want quiet, info, or debug)", v)
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
}
