// Package config loads railguard's configuration file.
//
// Configuration lives in config.toml inside the config directory. The file is
// optional: a missing file yields the defaults, so a fresh install works
// without any setup step.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// DefaultUpgradeURL is the release endpoint polled for new versions.
const DefaultUpgradeURL = "https://releases.railguard.dev"

// Config holds the user-tunable settings.
type Config struct {
	// FailOpen controls what happens when the authorization service is
	// unreachable: allow the tool invocation (true) or block it (false).
	FailOpen bool `toml:"fail_open"`
	// AutoUpgrade enables the silent background version poll that runs
	// alongside hook callbacks.
	AutoUpgrade bool `toml:"auto_upgrade"`
	// UpgradeURL is the base URL serving release.json and binaries.
	UpgradeURL string `toml:"upgrade_url"`
	// TeamURL is the authorization endpoint tool invocations are reported
	// to. Empty means no remote policy: every invocation is allowed.
	TeamURL string `toml:"team_url"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		AutoUpgrade: true,
		UpgradeURL:  DefaultUpgradeURL,
	}
}

// Load reads config.toml from configDir. A missing file is not an error; the
// defaults are returned. A file that exists but cannot be parsed is an error,
// so a typo never silently reverts the user to defaults.
func Load(configDir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(configDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.UpgradeURL == "" {
		cfg.UpgradeURL = DefaultUpgradeURL
	}
	return cfg, nil
}

// Save writes the configuration to config.toml in configDir, creating the
// directory if needed.
func Save(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
