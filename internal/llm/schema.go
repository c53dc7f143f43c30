package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON Schema a structured response must satisfy. Declare
// schemas as package-level pointers; the compiled form is cached on first
// use.
type Schema struct {
	// Name is kebab-case, e.g. "curriculum-transfer-map". Providers use it
	// as the schema or tool name.
	Name        string
	Description string
	Definition  map[string]any

	once       sync.Once
	compiled   *jsonschema.Schema
	compileErr error
}

// Validate checks raw against the schema. A nil schema accepts anything.
// Failures are *ErrInvalidResponse.
func (s *Schema) Validate(raw json.RawMessage) error {
	if s == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := s.compile()
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("compile schema %q: %w", s.Name, err)}
	}
	if err := compiled.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema %q: %w", s.Name, err)}
	}
	return nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		// Round-trip through JSON so Go literals ([]any of ints and so on)
		// reach the compiler as plain JSON values.
		def, err := json.Marshal(s.Definition)
		if err != nil {
			s.compileErr = fmt.Errorf("marshal definition: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
		if err != nil {
			s.compileErr = fmt.Errorf("parse definition: %w", err)
			return
		}

		url := "mem://schemas/" + s.Name + ".json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, doc); err != nil {
			s.compileErr = err
			return
		}
		s.compiled, s.compileErr = c.Compile(url)
	})
	return s.compiled, s.compileErr
}

// structured turns model text into response content. With a schema, a
// surrounding markdown code fence is dropped and the JSON is validated.
func structured(schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		return json.RawMessage(text), nil
	}
	raw := json.RawMessage(stripCodeFence(text))
	if err := schema.Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
