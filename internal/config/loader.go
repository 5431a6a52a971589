package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.flowcore/config.json
// Project: .flowcore/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".flowcore", "config.json")
	projectPath := filepath.Join(".flowcore", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config. Missing files are silently skipped. Malformed JSON returns an
// error. Scalar sections merge field-wise: only set (non-zero) fields
// override; the agents map merges by role key.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Enabled decodes through a pointer so an omitted archive section leaves
	// the base value alone.
	var loaded struct {
		Runner RunnerConfig             `json:"runner"`
		Retry  RetryConfig              `json:"retry"`
		Agents map[string]AgentDefaults `json:"agents"`
		Archive struct {
			Enabled *bool  `json:"enabled"`
			Path    string `json:"path"`
		} `json:"archive"`
	}
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Runner.ConcurrencyLimit > 0 {
		base.Runner.ConcurrencyLimit = loaded.Runner.ConcurrencyLimit
	}
	if loaded.Runner.InvokeTimeoutSec > 0 {
		base.Runner.InvokeTimeoutSec = loaded.Runner.InvokeTimeoutSec
	}

	if loaded.Retry.InitialIntervalMS > 0 {
		base.Retry.InitialIntervalMS = loaded.Retry.InitialIntervalMS
	}
	if loaded.Retry.MaxIntervalSec > 0 {
		base.Retry.MaxIntervalSec = loaded.Retry.MaxIntervalSec
	}
	if loaded.Retry.Multiplier > 0 {
		base.Retry.Multiplier = loaded.Retry.Multiplier
	}
	if loaded.Retry.RandomizationFactor > 0 {
		base.Retry.RandomizationFactor = loaded.Retry.RandomizationFactor
	}

	for role, defaults := range loaded.Agents {
		base.Agents[role] = defaults
	}

	if loaded.Archive.Path != "" {
		base.Archive.Path = loaded.Archive.Path
	}
	if loaded.Archive.Enabled != nil {
		base.Archive.Enabled = *loaded.Archive.Enabled
	}

	return nil
}
