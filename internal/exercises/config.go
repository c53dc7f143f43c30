package exercises

import "time"

// Config holds exercise generation settings.
type Config struct {
	DemoMode     bool          `toml:"demo_mode" yaml:"demo_mode"`
	QuestionsMin int           `toml:"questions_min" yaml:"questions_min"`
	QuestionsMax int           `toml:"questions_max" yaml:"questions_max"`
	MaxTokens    int           `toml:"max_tokens" yaml:"max_tokens"`
	Temperature  float64       `toml:"temperature" yaml:"temperature"`
	Timeout      time.Duration `toml:"timeout" yaml:"timeout"`
}

// DefaultConfig returns sensible defaults for exercise generation.
func DefaultConfig() Config {
	return Config{
		QuestionsMin: 3,
		QuestionsMax: 6,
		MaxTokens:    1024,
		Temperature:  0.5,
		Timeout:      30 * time.Second,
	}
}
