package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mixingo/mixingo/internal/store"
)

// LoggingProvider records every call, failed or not, as an
// llm_request_events row and a slog line.
type LoggingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	logger   *slog.Logger
}

// WithLogging wraps p. provider names the vendor ("openai", "gemini", ...)
// in recorded events. repo may be nil, leaving only the slog line.
func WithLogging(p Provider, provider string, repo store.EventRepo) Provider {
	return &LoggingProvider{
		inner:    p,
		provider: provider,
		repo:     repo,
		logger:   slog.Default().With("component", "llm"),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		RequestID:   RequestIDFrom(ctx),
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   latency,
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.StopReason = resp.StopReason
		data.ResponseBody = string(resp.Content)
	}

	attrs := []any{
		"purpose", data.Purpose,
		"model", data.Model,
		"latency_ms", latency,
	}
	if data.RequestID != "" {
		attrs = append(attrs, "request_id", data.RequestID)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			data.ResponseBody = string(invalid.Content)
		}
		l.logger.WarnContext(ctx, "llm request failed", append(attrs, "error", err)...)
	} else {
		l.logger.DebugContext(ctx, "llm request",
			append(attrs, "input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)...)
	}

	if l.repo != nil {
		if logErr := l.repo.AppendLLMRequest(ctx, data); logErr != nil {
			l.logger.WarnContext(ctx, "record llm event", "error", logErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders req the way `mixingo llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
