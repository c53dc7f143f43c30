package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"answer":"la"}`), Usage: Usage{InputTokens: 10, OutputTokens: 4}},
		MockResponse{Content: json.RawMessage(`{"answer":"le"}`)},
	)

	first, err := mock.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"la"}`, string(first.Content))
	assert.Equal(t, 10, first.Usage.InputTokens)
	assert.Equal(t, StopEnd, first.StopReason)

	second, err := mock.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"le"}`, string(second.Content))

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
	assert.Equal(t, 3, mock.CallCount())
}

func TestMockProvider_RecordsRequests(t *testing.T) {
	mock := NewMockProvider()
	_, ok := mock.LastRequest()
	assert.False(t, ok)

	_, _ = mock.Generate(context.Background(), Request{System: "tutor", MaxTokens: 256})
	_, _ = mock.Generate(context.Background(), Request{System: "advisor", Temperature: 0.3})

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "tutor", reqs[0].System)

	last, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "advisor", last.System)
	assert.Equal(t, 0.3, last.Temperature)

	reqs[0].System = "changed"
	assert.Equal(t, "tutor", mock.Requests()[0].System)
}

func TestMockProvider_ConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: time.Second}})
	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, time.Second, rl.RetryAfter)
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockProvider_Strict(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("```json\n{\"question\":\"___ maison\",\"options\":[\"le\",\"la\"],\"correct_answer\":\"la\",\"severity\":1}\n```")},
		MockResponse{Content: json.RawMessage(`{"question":"___ maison"}`)},
	)
	mock.Strict = true
	req := Request{Schema: itemSchema()}

	resp, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, json.Valid(resp.Content), "fence should be stripped")

	_, err = mock.Generate(context.Background(), req)
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Empty(t, RequestIDFrom(ctx))

	ctx = WithRequestID(WithPurpose(ctx, PurposeExerciseGen), "req-42")
	assert.Equal(t, "exercise-gen", PurposeFrom(ctx))
	assert.Equal(t, "req-42", RequestIDFrom(ctx))
}

func TestFinish(t *testing.T) {
	t.Run("free text passes through", func(t *testing.T) {
		resp, err := finish(Request{}, "Bonjour", Usage{InputTokens: 3, OutputTokens: 2}, "m", StopEnd)
		require.NoError(t, err)
		assert.Equal(t, "Bonjour", string(resp.Content))
		assert.Equal(t, 5, resp.Usage.TotalTokens)
	})

	t.Run("provider total kept", func(t *testing.T) {
		resp, err := finish(Request{}, "x", Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 9}, "m", StopEnd)
		require.NoError(t, err)
		assert.Equal(t, 9, resp.Usage.TotalTokens)
	})

	t.Run("truncated structured output", func(t *testing.T) {
		_, err := finish(Request{Schema: itemSchema()}, `{"question":"___ mai`, Usage{}, "m", StopMaxTokens)
		var maxTok *ErrMaxTokensExceeded
		require.ErrorAs(t, err, &maxTok)
		assert.Equal(t, `{"question":"___ mai`, string(maxTok.Content))
	})

	t.Run("truncated free text is fine", func(t *testing.T) {
		resp, err := finish(Request{}, "Bonj", Usage{}, "m", StopMaxTokens)
		require.NoError(t, err)
		assert.Equal(t, StopMaxTokens, resp.StopReason)
	})
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name, fallback, want string
	}{
		{"claude-haiku", "", "claude-haiku-4-5-20251001"},
		{"claude-sonnet", "", "claude-sonnet-4-5-20250929"},
		{"gemini-flash", "", "gemini-2.5-flash"},
		{"gpt-4o-mini", "", "gpt-4o-mini"},
		{"", "gemini-flash", "gemini-2.5-flash"},
		{"", "gpt-4o-mini", "gpt-4o-mini"},
		{"claude-sonnet-4-5-20250929", "claude-haiku", "claude-sonnet-4-5-20250929"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveModel(tt.name, tt.fallback), "resolveModel(%q, %q)", tt.name, tt.fallback)
	}
}

func TestClassifyStatus(t *testing.T) {
	cause := errors.New("upstream")
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{429, func(t *testing.T, err error) { var e *ErrRateLimit; assert.ErrorAs(t, err, &e) }},
		{401, func(t *testing.T, err error) { var e *ErrNotConfigured; assert.ErrorAs(t, err, &e) }},
		{403, func(t *testing.T, err error) { var e *ErrNotConfigured; assert.ErrorAs(t, err, &e) }},
		{400, func(t *testing.T, err error) {
			var e *ErrRequestRejected
			require.ErrorAs(t, err, &e)
			assert.Equal(t, 400, e.Status)
		}},
		{404, func(t *testing.T, err error) { var e *ErrRequestRejected; assert.ErrorAs(t, err, &e) }},
		{500, func(t *testing.T, err error) { var e *ErrProviderUnavailable; assert.ErrorAs(t, err, &e) }},
		{503, func(t *testing.T, err error) { var e *ErrProviderUnavailable; assert.ErrorAs(t, err, &e) }},
		{0, func(t *testing.T, err error) { var e *ErrProviderUnavailable; assert.ErrorAs(t, err, &e) }},
	}
	for _, tt := range tests {
		err := classifyStatus(tt.status, cause)
		tt.check(t, err)
		assert.ErrorIs(t, err, cause, "status %d should wrap the cause", tt.status)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "sk-or"}}, false},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "cohere"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
