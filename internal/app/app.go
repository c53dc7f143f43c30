// Package app wires configuration into a running service: store, session
// backend, LLM provider, advisor, exercise generator and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mixingo/mixingo/internal/advisor"
	"github.com/mixingo/mixingo/internal/config"
	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/exercises"
	"github.com/mixingo/mixingo/internal/llm"
	"github.com/mixingo/mixingo/internal/server"
	"github.com/mixingo/mixingo/internal/session"
	"github.com/mixingo/mixingo/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 15 * time.Second

// App holds the long-lived dependencies of the service.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *store.Store
	Sessions  session.Store
	Catalog   *curriculum.Catalog
	Provider  llm.Provider // nil when no LLM is configured
	Advisor   *advisor.Advisor
	Exercises *exercises.Generator

	limiter *server.RateLimiter
}

// New builds the service. The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := curriculum.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := OpenStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	sessions, err := OpenSessions(ctx, cfg.Session, st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open %s session store: %w", cfg.Session.Backend, err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Sessions: sessions,
		Catalog:  catalog,
	}

	provider, err := newProvider(ctx, cfg, st.EventRepo(), logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Provider = provider
	a.Advisor = advisor.New(provider, catalog, cfg.Advisor)
	a.Exercises = exercises.NewGenerator(provider, catalog, cfg.Exercises)

	if cfg.RateLimit.RPS > 0 {
		a.limiter = server.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	logger.Info("service ready",
		"env", cfg.Env,
		"modules", catalog.Len(),
		"sessions", cfg.Session.Backend,
		"llm", provider != nil,
		"demo_mode", cfg.DemoMode)
	return a, nil
}

// newProvider returns nil without error when no LLM is configured or demo
// mode is on; the advisor and generator then serve their fallbacks.
func newProvider(ctx context.Context, cfg *config.Config, events store.EventRepo, logger *slog.Logger) (llm.Provider, error) {
	if cfg.DemoMode {
		logger.Info("demo mode enabled, LLM calls disabled")
		return nil, nil
	}

	llmCfg, err := llm.ResolveConfig(cfg.LLM)
	var notConfigured *llm.ErrNotConfigured
	if errors.As(err, &notConfigured) {
		logger.Warn("LLM provider not configured, AI features will use demo fallbacks", "reason", notConfigured.Reason)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, llmCfg, events)
	if err != nil {
		return nil, fmt.Errorf("build LLM provider: %w", err)
	}
	return provider, nil
}

// OpenStore opens the SQLite event store at path, or at the default
// location when path is empty.
func OpenStore(path string) (*store.Store, error) {
	path, err := store.ResolvePath(path)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// OpenSessions selects the session backend. The sqlite backend shares st;
// the others are opened by session.Open.
func OpenSessions(ctx context.Context, cfg session.Config, st *store.Store) (session.Store, error) {
	if cfg.Backend == session.BackendSQLite {
		if st == nil {
			return nil, fmt.Errorf("sqlite session backend needs an open store")
		}
		return st.SessionRepo(), nil
	}
	return session.Open(ctx, cfg)
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	api := server.NewAPI(a.Catalog, a.Sessions, a.Advisor, a.Exercises, a.Logger)
	return server.NewMux(api, a.limiter, a.Config.CORSOrigins, a.Logger)
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (a *App) Serve(ctx context.Context) error {
	srv := server.New(a.Config.Addr, a.Handler(), a.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the session backend and the store.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	var errs []error
	if a.Sessions != nil {
		errs = append(errs, a.Sessions.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// NewLogger returns a text logger for local development and a JSON logger
// everywhere else.
func NewLogger(env string, w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if env == "" || env == "local" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
