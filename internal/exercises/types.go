package exercises

// Question is one multiple-choice item.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Feedback      string   `json:"feedback,omitempty"`
}

// Set is a short practice set for one module.
type Set struct {
	ModuleID         string     `json:"module_id"`
	MicroExplanation string     `json:"micro_explanation"`
	Questions        []Question `json:"questions"`

	// Degraded marks the canned demo set served in place of a generated one.
	Degraded bool `json:"-"`
}
