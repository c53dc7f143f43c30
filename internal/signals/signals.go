// Package signals turns warm-up quiz answers into aggregate performance
// signals. Everything here is pure: no I/O, no shared state.
package signals

const (
	// Placeholder proxies reported for an empty answer list.
	emptyConfidence        = 0.5
	emptyScriptFamiliarity = 0.5

	// Placeholder proxies reported for any non-empty answer list. They are
	// not derived from the answers yet.
	defaultConfidence        = 0.7
	defaultScriptFamiliarity = 0.6
)

// Answer is one warm-up quiz response.
type Answer struct {
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	TimeTaken  float64 `json:"time_taken"` // seconds
	Correct    bool    `json:"correct"`
	Category   string  `json:"category"`
}

// Summary holds the signals derived from one warm-up submission.
type Summary struct {
	AccuracyRate      float64        `json:"accuracy_rate"`
	AvgResponseTime   float64        `json:"avg_response_time"`
	ErrorDistribution map[string]int `json:"error_distribution"`
	ConfidenceProxies float64        `json:"confidence_proxies"`
	ScriptFamiliarity float64        `json:"script_familiarity"`
}

// Compute aggregates answers into a Summary.
//
// An empty list yields zero accuracy and timing with both proxies at 0.5.
// Otherwise accuracy is the fraction correct and the response time is the
// plain mean of TimeTaken (no clamping). Incorrect answers are counted per
// category string exactly as given; categories without errors are absent
// from ErrorDistribution.
func Compute(answers []Answer) Summary {
	if len(answers) == 0 {
		return Summary{
			ErrorDistribution: map[string]int{},
			ConfidenceProxies: emptyConfidence,
			ScriptFamiliarity: emptyScriptFamiliarity,
		}
	}

	var correct int
	var totalTime float64
	errs := make(map[string]int)
	for _, a := range answers {
		totalTime += a.TimeTaken
		if a.Correct {
			correct++
			continue
		}
		errs[a.Category]++
	}

	n := float64(len(answers))
	return Summary{
		AccuracyRate:      float64(correct) / n,
		AvgResponseTime:   totalTime / n,
		ErrorDistribution: errs,
		ConfidenceProxies: defaultConfidence,
		ScriptFamiliarity: defaultScriptFamiliarity,
	}
}

// ErrorCount returns the number of incorrect answers recorded for category.
func (s Summary) ErrorCount(category string) int {
	return s.ErrorDistribution[category]
}

// TotalErrors returns the number of incorrect answers across all categories.
func (s Summary) TotalErrors() int {
	var n int
	for _, c := range s.ErrorDistribution {
		n += c
	}
	return n
}
