// Package advisor turns warm-up signals and a language profile into a
// curriculum transfer map, falling back to a canned plan with a locally
// derived heatmap whenever the model cannot be used.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/demo"
	"github.com/mixingo/mixingo/internal/heatmap"
	"github.com/mixingo/mixingo/internal/llm"
	"github.com/mixingo/mixingo/internal/signals"
)

// Fallback reasons reported in Result.Reason.
const (
	ReasonDemoMode      = "demo mode"
	ReasonNotConfigured = "llm not configured"
	ReasonRateLimited   = "analysis rate limit reached"
	ReasonInvalid       = "invalid model response"
	ReasonProvider      = "provider error"
)

// Advisor produces curriculum transfer maps.
type Advisor struct {
	provider llm.Provider
	catalog  *curriculum.Catalog
	cfg      Config
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates an advisor. provider may be nil, in which case every
// analysis takes the fallback path.
func New(provider llm.Provider, catalog *curriculum.Catalog, cfg Config) *Advisor {
	if catalog == nil {
		catalog = curriculum.Default()
	}
	a := &Advisor{
		provider: provider,
		catalog:  catalog,
		cfg:      cfg,
		logger:   slog.Default().With("component", "advisor"),
	}
	if cfg.RatePerMinute > 0 {
		burst := max(cfg.Burst, 1)
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), burst)
	}
	return a
}

// Analyze never fails: any problem with the model yields a degraded result.
func (a *Advisor) Analyze(ctx context.Context, summary signals.Summary, profile curriculum.Profile) Result {
	switch {
	case a.cfg.DemoMode:
		return a.degraded(summary, ReasonDemoMode)
	case a.provider == nil:
		return a.degraded(summary, ReasonNotConfigured)
	case a.limiter != nil && !a.limiter.Allow():
		return a.degraded(summary, ReasonRateLimited)
	}

	ctm, err := a.generate(ctx, summary, profile)
	if err != nil {
		reason := ReasonProvider
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) {
			reason = ReasonInvalid
		}
		var nc *llm.ErrNotConfigured
		if errors.As(err, &nc) {
			reason = ReasonNotConfigured
		}
		a.logger.WarnContext(ctx, "curriculum analysis degraded", "reason", reason, "error", err)
		return a.degraded(summary, reason)
	}

	return Result{Outcome: OutcomeSuccess, CTM: *ctm}
}

func (a *Advisor) generate(ctx context.Context, summary signals.Summary, profile curriculum.Profile) (*CTM, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCTMAnalyze)
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: buildSystemPrompt(a.catalog),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(summary, profile)},
		},
		Schema:      CTMSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}

	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("curriculum analysis: %w", err)
	}

	var out CTM
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("parse CTM: %w", err)}
	}
	if err := a.check(&out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	return &out, nil
}

// check rejects answers that reference modules outside the catalog, and
// heatmaps that are not one item per catalog module in catalog order.
func (a *Advisor) check(c *CTM) error {
	known := func(id string) bool {
		_, ok := a.catalog.Module(id)
		return ok
	}
	for _, id := range c.RecommendedOrder {
		if !known(id) {
			return fmt.Errorf("recommended_order: unknown module %q", id)
		}
	}
	for _, id := range c.ModulesToSkip {
		if !known(id) {
			return fmt.Errorf("modules_to_skip: unknown module %q", id)
		}
	}

	modules := a.catalog.Modules()
	if len(c.Heatmap) != len(modules) {
		return fmt.Errorf("heatmap: %d items for %d modules", len(c.Heatmap), len(modules))
	}
	for i, m := range modules {
		it := c.Heatmap[i]
		if it.ModuleID != m.ID {
			return fmt.Errorf("heatmap[%d]: module %q, want %q", i, it.ModuleID, m.ID)
		}
		if it.Area != m.Area {
			return fmt.Errorf("heatmap[%d]: area %q for %s, want %q", i, it.Area, m.ID, m.Area)
		}
	}
	return nil
}

// degraded builds the fallback: the canned demo plan with its heatmap
// replaced by one derived from the learner's signals.
func (a *Advisor) degraded(summary signals.Summary, reason string) Result {
	return Result{
		Outcome: OutcomeDegraded,
		CTM:     Fallback(a.catalog, summary),
		Reason:  reason,
	}
}

// Fallback returns the demo CTM with a heatmap derived from summary. Module
// lists are narrowed to the catalog; if none of the canned order survives,
// the catalog order is used.
func Fallback(catalog *curriculum.Catalog, summary signals.Summary) CTM {
	var c CTM
	if err := demo.Decode(demo.CTMFile, &c); err != nil {
		// The payload is embedded and covered by tests.
		panic(err)
	}
	c.RecommendedOrder = inCatalog(catalog, c.RecommendedOrder)
	c.ModulesToSkip = inCatalog(catalog, c.ModulesToSkip)
	if len(c.RecommendedOrder) == 0 {
		c.RecommendedOrder = catalog.IDs()
	}
	c.Heatmap = heatmap.Derive(catalog, summary)
	return c
}

func inCatalog(catalog *curriculum.Catalog, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := catalog.Module(id); ok {
			out = append(out, id)
		}
	}
	return out
}
