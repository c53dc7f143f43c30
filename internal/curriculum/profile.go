package curriculum

// Profile is a learner's language background.
type Profile struct {
	NativeLanguage string   `json:"native_language"`
	TargetLanguage string   `json:"target_language"`
	KnownLanguages []string `json:"known_languages"`
}

// DefaultProfile is assigned to every warm-up session until onboarding
// collects a real one.
func DefaultProfile() Profile {
	return Profile{
		NativeLanguage: "English",
		TargetLanguage: "French",
		KnownLanguages: []string{"English", "Mandarin", "Cantonese"},
	}
}
