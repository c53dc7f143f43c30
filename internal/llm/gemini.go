package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API. Structured output goes through
// ResponseSchema, which accepts only an OpenAPI subset of JSON Schema, so
// the definition is converted and the full schema is still validated locally.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, "gemini-flash")}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, geminiError(err)
	}

	stop := StopEnd
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		stop = StopMaxTokens
	}
	var usage Usage
	if md := result.UsageMetadata; md != nil {
		usage = Usage{
			InputTokens:  int(md.PromptTokenCount),
			OutputTokens: int(md.CandidatesTokenCount),
			TotalTokens:  int(md.TotalTokenCount),
		}
	}
	model := p.model
	if result.ModelVersion != "" {
		model = result.ModelVersion
	}
	return finish(req, result.Text(), usage, model, stop)
}

func (p *GeminiProvider) ModelID() string { return p.model }

// geminiSchema converts a JSON Schema definition to genai.Schema. Integer
// enums (severity 0..2) become Minimum/Maximum since Gemini enums are
// string-only. Unsupported keywords such as additionalProperties are dropped.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		s.Type = geminiType(t)
	}
	s.Description, _ = def["description"].(string)

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if pd, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(pd)
			}
		}
		s.PropertyOrdering = propertyOrder(def, props)
	}
	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}

	if enums, ok := def["enum"].([]any); ok {
		var lo, hi float64
		numeric := false
		for _, e := range enums {
			if str, ok := e.(string); ok {
				s.Enum = append(s.Enum, str)
				continue
			}
			if n, ok := toFloat(e); ok {
				if !numeric || n < lo {
					lo = n
				}
				if !numeric || n > hi {
					hi = n
				}
				numeric = true
			}
		}
		if numeric {
			s.Minimum, s.Maximum = genai.Ptr(lo), genai.Ptr(hi)
		}
	}
	if n, ok := toFloat(def["minimum"]); ok {
		s.Minimum = genai.Ptr(n)
	}
	if n, ok := toFloat(def["maximum"]); ok {
		s.Maximum = genai.Ptr(n)
	}
	if n, ok := toFloat(def["minItems"]); ok {
		s.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := toFloat(def["maxItems"]); ok {
		s.MaxItems = genai.Ptr(int64(n))
	}
	return s
}

// propertyOrder lists required properties in declaration order, then the
// rest alphabetically. Gemini emits fields in this order.
func propertyOrder(def map[string]any, props map[string]any) []string {
	seen := make(map[string]bool, len(props))
	var order []string
	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok && !seen[name] {
				if _, declared := props[name]; declared {
					order = append(order, name)
					seen[name] = true
				}
			}
		}
	}
	var rest []string
	for name := range props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
