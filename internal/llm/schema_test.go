package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// itemSchema is a single quiz item with a severity tag, enough to exercise
// required fields, arrays, and integer enums.
func itemSchema() *Schema {
	return &Schema{
		Name: "quiz-item",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{"type": "string"},
				"options": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 2,
				},
				"correct_answer": map[string]any{"type": "string"},
				"severity":       map[string]any{"type": "integer", "enum": []any{0, 1, 2}},
				"feedback":       map[string]any{"type": "string"},
			},
			"required":             []any{"question", "options", "correct_answer"},
			"additionalProperties": false,
		},
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"question":"___ maison","options":["le","la"],"correct_answer":"la","severity":2,"feedback":"Maison is feminine."}`, false},
		{"optional fields omitted", `{"question":"___ livre","options":["le","la"],"correct_answer":"le"}`, false},
		{"missing required", `{"question":"___ maison","options":["le","la"]}`, true},
		{"wrong type", `{"question":7,"options":["le","la"],"correct_answer":"la"}`, true},
		{"too few options", `{"question":"___ maison","options":["la"],"correct_answer":"la"}`, true},
		{"severity out of enum", `{"question":"q","options":["a","b"],"correct_answer":"a","severity":3}`, true},
		{"unknown field", `{"question":"q","options":["a","b"],"correct_answer":"a","hint":"x"}`, true},
		{"malformed JSON", `{"question":`, true},
		{"empty", ``, true},
	}
	schema := itemSchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invalid *ErrInvalidResponse
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.raw, string(invalid.Content))
		})
	}
}

func TestSchemaValidate_NilSchemaAcceptsAnything(t *testing.T) {
	var s *Schema
	assert.NoError(t, s.Validate(json.RawMessage(`not json`)))
}

func TestSchemaValidate_CompiledOnce(t *testing.T) {
	s := itemSchema()
	require.NoError(t, s.Validate(json.RawMessage(`{"question":"q","options":["a","b"],"correct_answer":"a"}`)))
	first := s.compiled
	require.NotNil(t, first)

	require.Error(t, s.Validate(json.RawMessage(`{}`)))
	assert.Same(t, first, s.compiled)
}

func TestSchemaValidate_BadDefinition(t *testing.T) {
	s := &Schema{Name: "broken", Definition: map[string]any{"type": 12}}
	err := s.Validate(json.RawMessage(`{}`))
	var invalid *ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), `compile schema "broken"`)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in), "input %q", tt.in)
	}
}

func TestStructured(t *testing.T) {
	raw, err := structured(nil, "plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(raw))

	raw, err = structured(itemSchema(), "```json\n{\"question\":\"q\",\"options\":[\"a\",\"b\"],\"correct_answer\":\"b\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"q","options":["a","b"],"correct_answer":"b"}`, string(raw))
}
