package config

// RunnerConfig tunes the scheduler.
type RunnerConfig struct {
	ConcurrencyLimit int `json:"concurrency_limit,omitempty"` // max tasks in flight per wave
	InvokeTimeoutSec int `json:"invoke_timeout_sec,omitempty"` // per-invocation deadline
}

// RetryConfig tunes the exponential backoff between retry attempts.
type RetryConfig struct {
	InitialIntervalMS   int     `json:"initial_interval_ms,omitempty"`
	MaxIntervalSec      int     `json:"max_interval_sec,omitempty"`
	Multiplier          float64 `json:"multiplier,omitempty"`
	RandomizationFactor float64 `json:"randomization_factor,omitempty"`
}

// AgentDefaults defines per-role defaults applied to agents that leave the
// corresponding field empty.
type AgentDefaults struct {
	Model        string  `json:"model,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// ArchiveConfig controls the execution archive.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // SQLite database path
}

// Config is the top-level configuration.
type Config struct {
	Runner  RunnerConfig             `json:"runner"`
	Retry   RetryConfig              `json:"retry"`
	Agents  map[string]AgentDefaults `json:"agents"` // keyed by role
	Archive ArchiveConfig            `json:"archive"`
}
