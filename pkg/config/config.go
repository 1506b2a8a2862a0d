// Package config manages the persistent provtag configuration: a
// config.toml in the resolved .provtag/ directory, layered under
// environment variables and CLI flags via viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/provtagio/provtag/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer reads and writes config.toml in the resolved .provtag/ directory.
type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewConfiger resolves the target .provtag/ directory. If overrideDir is
// non-empty, it is used instead of the default resolution order.
func NewConfiger(overrideDir string) (*Configer, error) {
	cfger := &Configer{ddm: dotdir.NewManager()}

	target, err := cfger.ddm.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfger.targetPath = path

	return cfger, nil
}

// GetTarget returns the resolved config.toml path.
func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml. A missing file
// yields NewDefaultConfig() so callers always receive a fully-populated
// Config; fields set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	cfg := NewDefaultConfig()

	if c.targetPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Version > CurrentV {
		return nil, fmt.Errorf("config version %d is newer than supported version %d", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// SaveConfig persists the configuration to config.toml.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if c.targetPath == "" {
		return errors.New("no .provtag directory resolved")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Get returns the string form of a dotted config key.
func (c *Configer) Get(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return info.get(cfg), nil
}

// Set updates a dotted config key and persists the result.
func (c *Configer) Set(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := info.set(cfg, value); err != nil {
		return err
	}
	return c.SaveConfig(cfg)
}

// ValidConfigKeys returns the sorted list of all supported configuration
// key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidConfigKey returns true if the given key is a supported
// configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}
