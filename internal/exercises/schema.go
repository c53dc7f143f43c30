package exercises

import "github.com/mixingo/mixingo/internal/llm"

// SetSchema defines the JSON schema for a generated exercise set.
var SetSchema = &llm.Schema{
	Name:        "exercise-set",
	Description: "A micro explanation followed by multiple-choice practice questions for one module",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"micro_explanation": map[string]any{
				"type":        "string",
				"description": "2-4 sentence explanation of the concept, written for an adult beginner",
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The prompt shown to the learner",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "2-4 answer choices",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "Must be exactly one of the options",
						},
						"feedback": map[string]any{
							"type":        "string",
							"description": "One sentence explaining the correct answer",
						},
					},
					"required":             []any{"question", "options", "correct_answer", "feedback"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"micro_explanation", "questions"},
		"additionalProperties": false,
	},
}
