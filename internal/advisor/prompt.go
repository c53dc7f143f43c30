package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
)

func buildSystemPrompt(catalog *curriculum.Catalog) string {
	var b strings.Builder

	b.WriteString(`You are a curriculum optimizer for multilingual language learners. Given the learner's native language, target language, other known languages and warm-up performance signals, produce a personalised curriculum transfer map.

Use only these modules (ID and area):
`)
	for _, m := range catalog.Modules() {
		b.WriteString(fmt.Sprintf("%s (%s)\n", m.ID, m.Area))
	}

	b.WriteString(`
The heatmap has one entry per module. Severity reflects performance in the module's area:
- 0 = low risk: few or no errors in that area.
- 1 = medium risk: some errors, needs practice.
- 2 = high risk: many errors, address first.

Be realistic. Base skip decisions and ordering on the warm-up signals and on what the known languages already cover. Explainability must be exactly three short bullet points.`)

	return b.String()
}

func buildUserMessage(summary signals.Summary, profile curriculum.Profile) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Native language: %s\n", profile.NativeLanguage))
	b.WriteString(fmt.Sprintf("Target language: %s\n", profile.TargetLanguage))
	b.WriteString(fmt.Sprintf("Known languages: %s\n", strings.Join(profile.KnownLanguages, ", ")))

	sig, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		sig = []byte("{}")
	}
	b.WriteString("Warm-up signals:\n")
	b.Write(sig)
	b.WriteString("\n")

	return b.String()
}
