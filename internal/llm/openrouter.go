package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// Attribution headers shown on the OpenRouter dashboard.
	openRouterTitle   = "Mixingo"
	openRouterReferer = "https://mixingo.app"
)

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	inner := newOpenAICompatible(
		OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: baseURL},
		map[string]string{"X-Title": openRouterTitle, "HTTP-Referer": openRouterReferer},
	)
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
