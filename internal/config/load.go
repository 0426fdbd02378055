package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads, defaults, overrides from the environment and validates
// the configuration at path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Facts.Directory) && cfg.Facts.Directory != "" {
		cfg.Facts.Directory = filepath.Join(filepath.Dir(path), cfg.Facts.Directory)
	}
	return cfg, nil
}

// LoadFromBytes parses and validates configuration data.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	cfg.SSH.KeyDir = expandHome(cfg.SSH.KeyDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// DefaultKeyDir returns ~/.ssh with the home directory resolved.
func DefaultKeyDir() string {
	return expandHome(defaultKeyDir())
}

func defaultKeyDir() string {
	return filepath.Join("~", ".ssh")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
