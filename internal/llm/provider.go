package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured JSON from a prompt. Implementations wrap a
// vendor SDK; decorators add retry and event logging.
type Provider interface {
	// Generate sends req and returns the model's output. When req.Schema is
	// set the output has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request is a single-turn prompt: a system prompt, one or more messages
// and an optional output schema.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the provider's native structured output mode. Nil
	// means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response holds the model's output.
type Response struct {
	// Content is validated JSON when the request carried a schema, raw
	// text otherwise.
	Content json.RawMessage

	Usage      Usage
	Model      string // model that actually served the request
	StopReason string // StopEnd or StopMaxTokens
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish builds the Response every provider returns. Structured output cut
// off by the token limit is reported as ErrMaxTokensExceeded, which is not
// retried, rather than as a schema failure, which is.
func finish(req Request, text string, usage Usage, model, stop string) (*Response, error) {
	if stop == StopMaxTokens && req.Schema != nil {
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
	}
	content, err := structured(req.Schema, text)
	if err != nil {
		return nil, err
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}
