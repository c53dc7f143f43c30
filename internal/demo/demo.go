// Package demo serves the canned payloads used when the LLM is off or fails.
package demo

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/*.json
var files embed.FS

// Payload names.
const (
	ProfileFile   = "profile.json"
	CTMFile       = "ctm.json"
	ExercisesFile = "exercises.json"
)

// Raw returns a fresh copy of the named payload.
func Raw(name string) (json.RawMessage, error) {
	b, err := files.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("demo payload %q: %w", name, err)
	}
	return json.RawMessage(b), nil
}

// Decode unmarshals the named payload into v, rejecting unknown fields so
// the embedded files cannot drift from the Go types.
func Decode(name string, v any) error {
	raw, err := Raw(name)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode demo payload %q: %w", name, err)
	}
	return nil
}

// Profile returns the demo learner profile.
func Profile() json.RawMessage { return mustRaw(ProfileFile) }

// CTM returns the demo curriculum transfer map.
func CTM() json.RawMessage { return mustRaw(CTMFile) }

// Exercises returns the demo exercise set.
func Exercises() json.RawMessage { return mustRaw(ExercisesFile) }

func mustRaw(name string) json.RawMessage {
	raw, err := Raw(name)
	if err != nil {
		panic(err)
	}
	return raw
}
