package advisor

import "github.com/mixingo/mixingo/internal/heatmap"

// Insight is one observation about how the learner's languages interact
// with the target language.
type Insight struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// NextExercise is a short drill the advisor suggests doing next.
type NextExercise struct {
	Skill     string `json:"skill"`
	Prompt    string `json:"prompt"`
	AnswerKey string `json:"answer_key"`
}

// CTM is the curriculum transfer map: the personalised plan returned to
// the frontend after the warm-up.
type CTM struct {
	TransferAdvantages       []Insight      `json:"transfer_advantages"`
	InterferenceRisks        []Insight      `json:"interference_risks"`
	PronunciationRisks       []Insight      `json:"pronunciation_risks"`
	RecommendedOrder         []string       `json:"recommended_order"`
	ModulesToSkip            []string       `json:"modules_to_skip"`
	RedundancyRemovedPercent float64        `json:"redundancy_removed_percent"`
	Explainability           []string       `json:"explainability"`
	NextBestExercises        []NextExercise `json:"next_best_exercises"`
	Heatmap                  []heatmap.Item `json:"heatmap"`
}

// Outcome tells which path produced a Result.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
)

// Result is the advisor's answer. A degraded result carries the canned
// demo plan with a heatmap computed from the learner's own signals; Reason
// says why the model's answer was not used.
type Result struct {
	Outcome Outcome
	CTM     CTM
	Reason  string
}

// Degraded reports whether the result came from the fallback path.
func (r Result) Degraded() bool { return r.Outcome == OutcomeDegraded }
