package llm

// modelAliases maps the short names accepted in configuration to vendor
// model IDs. Anything else is passed through, so full IDs always work.
var modelAliases = map[string]string{
	"claude-haiku":      "claude-haiku-4-5-20251001",
	"claude-sonnet":     "claude-sonnet-4-5-20250929",
	"gemini-flash":      "gemini-2.5-flash",
	"gemini-flash-lite": "gemini-2.5-flash-lite",
	"gemini-pro":        "gemini-2.5-pro",
}

// resolveModel returns the vendor ID for name, or for fallback when name
// is empty.
func resolveModel(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}
