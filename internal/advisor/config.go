package advisor

import "time"

// Config holds curriculum analysis settings.
type Config struct {
	// DemoMode skips the LLM entirely and always serves the fallback.
	DemoMode bool `toml:"demo_mode" yaml:"demo_mode"`

	MaxTokens   int           `toml:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `toml:"temperature" yaml:"temperature"`
	Timeout     time.Duration `toml:"timeout" yaml:"timeout"`

	// RatePerMinute caps LLM analyses across the process; requests over the
	// budget are served the fallback. Zero disables the cap.
	RatePerMinute float64 `toml:"rate_per_minute" yaml:"rate_per_minute"`
	Burst         int     `toml:"burst" yaml:"burst"`
}

// DefaultConfig returns sensible defaults for curriculum analysis.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     2048,
		Temperature:   0.3,
		Timeout:       45 * time.Second,
		RatePerMinute: 30,
		Burst:         5,
	}
}
