package curriculum

import "fmt"

// Area is a subject-matter tag shared by one or more modules.
type Area string

const (
	AreaVocabulary    Area = "vocabulary"
	AreaPronunciation Area = "pronunciation"
	AreaGrammar       Area = "grammar"
	AreaPragmatics    Area = "pragmatics"
	AreaScript        Area = "script"
)

// AllAreas returns all areas in display order.
func AllAreas() []Area {
	return []Area{
		AreaVocabulary,
		AreaPronunciation,
		AreaGrammar,
		AreaPragmatics,
		AreaScript,
	}
}

// Valid reports whether a is one of the known areas.
func (a Area) Valid() bool {
	switch a {
	case AreaVocabulary, AreaPronunciation, AreaGrammar, AreaPragmatics, AreaScript:
		return true
	default:
		return false
	}
}

// Module is one unit of the language curriculum.
type Module struct {
	ID   string `json:"id" toml:"id" yaml:"id"`
	Name string `json:"name" toml:"name" yaml:"name"`
	Area Area   `json:"area" toml:"area" yaml:"area"`
}

// Catalog is an ordered, read-only list of modules. Order is significant:
// it is the default recommended order and the heatmap iteration order.
type Catalog struct {
	modules []Module
	byID    map[string]int
}

// NewCatalog builds a catalog from modules, rejecting empty input, blank or
// duplicate IDs, and unknown areas.
func NewCatalog(modules []Module) (*Catalog, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("catalog has no modules")
	}

	c := &Catalog{
		modules: make([]Module, len(modules)),
		byID:    make(map[string]int, len(modules)),
	}
	copy(c.modules, modules)

	for i, m := range c.modules {
		if m.ID == "" {
			return nil, fmt.Errorf("module %d: empty id", i)
		}
		if !m.Area.Valid() {
			return nil, fmt.Errorf("module %q: unknown area %q", m.ID, m.Area)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		c.byID[m.ID] = i
	}
	return c, nil
}

// Modules returns the catalog entries in order. The slice is a copy.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.modules)
}

// Module looks up a module by ID. A missing ID is not an error.
func (c *Catalog) Module(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

// IDs returns the module IDs in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.modules))
	for i, m := range c.modules {
		ids[i] = m.ID
	}
	return ids
}

// defaultModules is the built-in English → French curriculum.
var defaultModules = []Module{
	{ID: "M01_FamiliarPhrases", Name: "Everyday Greetings & Politeness", Area: AreaVocabulary},
	{ID: "M02_Cognates", Name: "English-French Cognates", Area: AreaVocabulary},
	{ID: "M03_Pronunciation", Name: "Nasal Vowels & Liaison", Area: AreaPronunciation},
	{ID: "M04_WordOrder", Name: "Basic Sentence Structure (SVO)", Area: AreaGrammar},
	{ID: "M05_Gender", Name: "Noun Genders", Area: AreaGrammar},
	{ID: "M06_VerbConjugation", Name: "Present Tense Regular Verbs", Area: AreaGrammar},
	{ID: "M07_CommonExpressions", Name: "Idioms & Politeness Levels", Area: AreaPragmatics},
	{ID: "M08_Reading", Name: "Familiar Script & Accents", Area: AreaScript},
}

// std is the package-level default catalog, built once at init.
var std = mustCatalog(defaultModules)

func mustCatalog(modules []Module) *Catalog {
	c, err := NewCatalog(modules)
	if err != nil {
		panic(fmt.Sprintf("curriculum: invalid built-in catalog: %v", err))
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return std
}

// Modules returns the built-in catalog entries in order.
func Modules() []Module {
	return std.Modules()
}

// GetModule looks up a module in the built-in catalog.
func GetModule(id string) (Module, bool) {
	return std.Module(id)
}
