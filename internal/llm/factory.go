package llm

import (
	"context"
	"fmt"

	"github.com/mixingo/mixingo/internal/store"
)

// NewProvider builds the vendor client named by cfg.Provider and decorates
// it: caller -> retry (bounded by cfg.Timeout) -> event logging -> vendor,
// so every attempt is recorded. events may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	retry := WithRetry(WithLogging(base, cfg.Provider, events), cfg.Retry).(*RetryProvider)
	retry.timeout = cfg.Timeout
	return retry, nil
}

// ResolveConfig applies MIXINGO_* overrides to base. If that leaves no
// usable provider, the conventional vendor key variables are probed;
// base's retry and timeout settings carry over.
func ResolveConfig(base Config) (Config, error) {
	cfg := base
	ApplyEnv(&cfg)
	if cfg.Validate() == nil {
		return cfg, nil
	}

	discovered, ok := DiscoverConfig()
	if !ok {
		return Config{}, &ErrNotConfigured{Reason: "no API key found (set OPENAI_API_KEY or MIXINGO_LLM_PROVIDER)"}
	}
	discovered.Retry = cfg.Retry
	discovered.Timeout = cfg.Timeout
	return discovered, nil
}
