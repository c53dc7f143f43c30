package exercises

import (
	"fmt"
	"strings"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
)

const systemPrompt = `You are a friendly language tutor writing short practice drills for adult learners. Keep explanations plain and concrete, and make every question answerable from the explanation.`

func buildUserMessage(m curriculum.Module, profile curriculum.Profile, summary *signals.Summary, cfg Config) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Module: %s (%s)\n", m.Name, m.ID))
	b.WriteString(fmt.Sprintf("Area: %s\n", m.Area))
	b.WriteString(fmt.Sprintf("Learner: %s speaker learning %s\n", profile.NativeLanguage, profile.TargetLanguage))

	if summary != nil {
		b.WriteString(fmt.Sprintf("Warm-up accuracy: %.0f%%\n", summary.AccuracyRate*100))
		b.WriteString(fmt.Sprintf("Warm-up errors in %s: %d\n", m.Area, summary.ErrorCount(string(m.Area))))
	}

	b.WriteString(fmt.Sprintf(`
Instructions:
1. Write a micro explanation of the module's key idea in 2-4 sentences.
2. Write %d to %d multiple-choice questions that practise it.
3. Each question has 2-4 options and exactly one correct answer, copied verbatim into correct_answer.
4. Give one sentence of feedback per question.`, cfg.QuestionsMin, cfg.QuestionsMax))

	if summary != nil && summary.ErrorCount(string(m.Area)) > 0 {
		b.WriteString("\n5. The learner struggled with this area in the warm-up. Start with easier items.")
	}

	return b.String()
}
