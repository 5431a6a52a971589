package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Save persists the configuration to a JSON file.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// InvokeTimeout returns the per-invocation deadline as a duration.
func (c *Config) InvokeTimeout() time.Duration {
	return time.Duration(c.Runner.InvokeTimeoutSec) * time.Second
}

// RetryInitialInterval returns the first backoff interval as a duration.
func (c *Config) RetryInitialInterval() time.Duration {
	return time.Duration(c.Retry.InitialIntervalMS) * time.Millisecond
}

// RetryMaxInterval returns the backoff ceiling as a duration.
func (c *Config) RetryMaxInterval() time.Duration {
	return time.Duration(c.Retry.MaxIntervalSec) * time.Second
}
