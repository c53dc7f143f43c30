package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects and configures the LLM vendor.
type Config struct {
	// Provider is one of anthropic, openai, gemini, openrouter or mock.
	Provider string `toml:"provider" yaml:"provider"`

	Anthropic  AnthropicConfig  `toml:"anthropic" yaml:"anthropic"`
	OpenAI     OpenAIConfig     `toml:"openai" yaml:"openai"`
	Gemini     GeminiConfig     `toml:"gemini" yaml:"gemini"`
	OpenRouter OpenRouterConfig `toml:"openrouter" yaml:"openrouter"`
	Retry      RetryConfig      `toml:"retry" yaml:"retry"`

	// Timeout bounds one Generate call including retries. Callers may set
	// a tighter deadline on the context.
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey string `toml:"api_key" yaml:"api_key"`
	Model  string `toml:"model" yaml:"model"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key" yaml:"api_key"`
	Model   string `toml:"model" yaml:"model"`
	BaseURL string `toml:"base_url" yaml:"base_url"` // any OpenAI-compatible endpoint
}

type GeminiConfig struct {
	APIKey  string `toml:"api_key" yaml:"api_key"`
	Model   string `toml:"model" yaml:"model"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

type OpenRouterConfig struct {
	APIKey  string `toml:"api_key" yaml:"api_key"`
	Model   string `toml:"model" yaml:"model"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts" yaml:"max_attempts"`
	InitialWait time.Duration `toml:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `toml:"max_wait" yaml:"max_wait"`
	Multiplier  float64       `toml:"multiplier" yaml:"multiplier"`
}

// DefaultConfig targets gpt-4o-mini, which the curriculum prompts were
// tuned on.
func DefaultConfig() Config {
	return Config{
		Provider:   "openai",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings maps MIXINGO_* variables onto Config. Unparseable numbers
// and durations are ignored, leaving the previous value.
var envBindings = map[string]func(*Config, string){
	"MIXINGO_LLM_PROVIDER":       func(c *Config, v string) { c.Provider = strings.ToLower(v) },
	"MIXINGO_ANTHROPIC_API_KEY":  func(c *Config, v string) { c.Anthropic.APIKey = v },
	"MIXINGO_ANTHROPIC_MODEL":    func(c *Config, v string) { c.Anthropic.Model = v },
	"MIXINGO_OPENAI_API_KEY":     func(c *Config, v string) { c.OpenAI.APIKey = v },
	"MIXINGO_OPENAI_MODEL":       func(c *Config, v string) { c.OpenAI.Model = v },
	"MIXINGO_OPENAI_BASE_URL":    func(c *Config, v string) { c.OpenAI.BaseURL = v },
	"MIXINGO_GEMINI_API_KEY":     func(c *Config, v string) { c.Gemini.APIKey = v },
	"MIXINGO_GEMINI_MODEL":       func(c *Config, v string) { c.Gemini.Model = v },
	"MIXINGO_OPENROUTER_API_KEY": func(c *Config, v string) { c.OpenRouter.APIKey = v },
	"MIXINGO_OPENROUTER_MODEL":   func(c *Config, v string) { c.OpenRouter.Model = v },
	"MIXINGO_LLM_TIMEOUT": func(c *Config, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	},
	"MIXINGO_LLM_MAX_ATTEMPTS": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = n
		}
	},
}

// ApplyEnv overlays the MIXINGO_* LLM variables that are set onto cfg.
func ApplyEnv(cfg *Config) {
	for name, set := range envBindings {
		if v := os.Getenv(name); v != "" {
			set(cfg, v)
		}
	}
}

// vendorKeys are the conventional key variables, probed in this order
// when nothing explicit is configured.
var vendorKeys = []struct{ env, provider string }{
	{"OPENAI_API_KEY", "openai"},
	{"GEMINI_API_KEY", "gemini"},
	{"ANTHROPIC_API_KEY", "anthropic"},
	{"OPENROUTER_API_KEY", "openrouter"},
}

// DiscoverConfig returns a default Config for the first vendor key found
// in the environment.
func DiscoverConfig() (Config, bool) {
	for _, vk := range vendorKeys {
		if key := os.Getenv(vk.env); key != "" {
			cfg := DefaultConfig()
			cfg.Provider = vk.provider
			cfg.setKey(key)
			return cfg, true
		}
	}
	return Config{}, false
}

func (c *Config) setKey(key string) {
	switch c.Provider {
	case "anthropic":
		c.Anthropic.APIKey = key
	case "openai":
		c.OpenAI.APIKey = key
	case "gemini":
		c.Gemini.APIKey = key
	case "openrouter":
		c.OpenRouter.APIKey = key
	}
}

func (c Config) apiKey() string {
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.APIKey
	case "openai":
		return c.OpenAI.APIKey
	case "gemini":
		return c.Gemini.APIKey
	case "openrouter":
		return c.OpenRouter.APIKey
	}
	return ""
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case "mock":
		return nil
	case "anthropic", "openai", "gemini", "openrouter":
		if c.apiKey() == "" {
			return fmt.Errorf("MIXINGO_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
