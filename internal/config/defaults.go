package config

// DefaultConfig returns the default configuration with built-in role defaults.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			ConcurrencyLimit: 4,
			InvokeTimeoutSec: 60,
		},
		Retry: RetryConfig{
			InitialIntervalMS:   100,
			MaxIntervalSec:      10,
			Multiplier:          2.0,
			RandomizationFactor: 0.5,
		},
		Agents: map[string]AgentDefaults{
			"researcher": {
				SystemPrompt: "You gather and summarize information relevant to the task.",
				Temperature:  0.7,
			},
			"analyst": {
				SystemPrompt: "You analyze inputs and extract structured findings.",
				Temperature:  0.3,
			},
			"executor": {
				SystemPrompt: "You carry out the task exactly as described.",
				Temperature:  0.2,
			},
			"reviewer": {
				SystemPrompt: "You review upstream outputs for correctness and completeness.",
				Temperature:  0.3,
			},
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    ".flowcore/flowcore.db",
		},
	}
}
