package advisor

import "github.com/mixingo/mixingo/internal/llm"

func insightList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type":        "string",
					"description": "Learning area: vocabulary, pronunciation, grammar, pragmatics or script",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "One sentence naming the concrete feature",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence between 0.0 and 1.0",
				},
			},
			"required":             []any{"type", "description", "confidence"},
			"additionalProperties": false,
		},
	}
}

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

// CTMSchema defines the JSON schema for the curriculum transfer map.
var CTMSchema = &llm.Schema{
	Name:        "curriculum-transfer-map",
	Description: "Personalised curriculum plan derived from a learner's language background and warm-up signals",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"transfer_advantages": insightList("Features of known languages that make the target easier"),
			"interference_risks":  insightList("Features of known languages likely to cause mistakes"),
			"pronunciation_risks": insightList("Sounds of the target language likely to be hard"),
			"recommended_order":   stringList("Module IDs in the order they should be studied"),
			"modules_to_skip":     stringList("Module IDs the learner can skip"),
			"redundancy_removed_percent": map[string]any{
				"type":        "number",
				"description": "Share of the standard course removed as redundant, 0-100",
			},
			"explainability": stringList("Exactly three short bullet points explaining the plan"),
			"next_best_exercises": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"skill":      map[string]any{"type": "string"},
						"prompt":     map[string]any{"type": "string"},
						"answer_key": map[string]any{"type": "string"},
					},
					"required":             []any{"skill", "prompt", "answer_key"},
					"additionalProperties": false,
				},
			},
			"heatmap": map[string]any{
				"type":        "array",
				"description": "One entry per module",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"module_id": map[string]any{"type": "string"},
						"area":      map[string]any{"type": "string"},
						"severity": map[string]any{
							"type": "integer",
							"enum": []any{0, 1, 2},
						},
					},
					"required":             []any{"module_id", "area", "severity"},
					"additionalProperties": false,
				},
			},
		},
		"required": []any{
			"transfer_advantages", "interference_risks", "pronunciation_risks",
			"recommended_order", "modules_to_skip", "redundancy_removed_percent",
			"explainability", "next_best_exercises", "heatmap",
		},
		"additionalProperties": false,
	},
}
