// Package exercises generates module practice sets.
package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/demo"
	"github.com/mixingo/mixingo/internal/llm"
	"github.com/mixingo/mixingo/internal/signals"
)

// ErrUnknownModule is returned when the module ID is not in the catalog.
var ErrUnknownModule = errors.New("unknown module")

// Generator produces exercise sets, falling back to the demo set when the
// model is unavailable.
type Generator struct {
	provider llm.Provider
	catalog  *curriculum.Catalog
	profile  curriculum.Profile
	cfg      Config
	logger   *slog.Logger
}

// NewGenerator creates a generator. provider may be nil.
func NewGenerator(provider llm.Provider, catalog *curriculum.Catalog, cfg Config) *Generator {
	if catalog == nil {
		catalog = curriculum.Default()
	}
	return &Generator{
		provider: provider,
		catalog:  catalog,
		profile:  curriculum.DefaultProfile(),
		cfg:      cfg,
		logger:   slog.Default().With("component", "exercises"),
	}
}

// Generate returns a practice set for moduleID. summary is optional and
// personalises the prompt. Only an unknown module is an error.
func (g *Generator) Generate(ctx context.Context, moduleID string, summary *signals.Summary) (*Set, error) {
	m, ok := g.catalog.Module(moduleID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}

	if g.cfg.DemoMode || g.provider == nil {
		return Fallback(moduleID), nil
	}

	set, err := g.generate(ctx, m, summary)
	if err != nil {
		g.logger.WarnContext(ctx, "exercise generation degraded", "module", moduleID, "error", err)
		return Fallback(moduleID), nil
	}
	return set, nil
}

type setOutput struct {
	MicroExplanation string     `json:"micro_explanation"`
	Questions        []Question `json:"questions"`
}

func (g *Generator) generate(ctx context.Context, m curriculum.Module, summary *signals.Summary) (*Set, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExerciseGen)
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(m, g.profile, summary, g.cfg)},
		},
		Schema:      SetSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("exercise generation: %w", err)
	}

	var out setOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse exercise response: %w", err)
	}
	if err := validate(out.Questions); err != nil {
		return nil, err
	}

	return &Set{
		ModuleID:         m.ID,
		MicroExplanation: out.MicroExplanation,
		Questions:        out.Questions,
	}, nil
}

func validate(qs []Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("exercise set has no questions")
	}
	for i, q := range qs {
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: need at least 2 options", i+1)
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("question %d: correct answer %q is not an option", i+1, q.CorrectAnswer)
		}
	}
	return nil
}

// Fallback returns the demo exercise set labelled with moduleID.
func Fallback(moduleID string) *Set {
	var s Set
	if err := demo.Decode(demo.ExercisesFile, &s); err != nil {
		panic(err)
	}
	s.ModuleID = moduleID
	s.Degraded = true
	return &s
}
