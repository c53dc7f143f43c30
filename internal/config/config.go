// Package config assembles service settings from defaults, an optional
// config file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mixingo/mixingo/internal/advisor"
	"github.com/mixingo/mixingo/internal/exercises"
	"github.com/mixingo/mixingo/internal/llm"
	"github.com/mixingo/mixingo/internal/session"
)

// Config is the full service configuration.
type Config struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Env      string `toml:"env" yaml:"env"`
	DemoMode bool   `toml:"demo_mode" yaml:"demo_mode"`

	// CatalogPath optionally replaces the built-in module catalog.
	CatalogPath string `toml:"catalog" yaml:"catalog"`

	// DBPath is the SQLite file holding LLM request events and, with the
	// sqlite session backend, sessions.
	DBPath string `toml:"db" yaml:"db"`

	Session   session.Config   `toml:"session" yaml:"session"`
	LLM       llm.Config       `toml:"llm" yaml:"llm"`
	Advisor   advisor.Config   `toml:"advisor" yaml:"advisor"`
	Exercises exercises.Config `toml:"exercises" yaml:"exercises"`
	RateLimit RateLimitConfig  `toml:"rate_limit" yaml:"rate_limit"`

	// CORSOrigins are the browser origins allowed to call the API. A "*"
	// entry admits any origin, without credentials.
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

// RateLimitConfig bounds requests per client IP. RPS of zero disables it.
type RateLimitConfig struct {
	RPS   float64 `toml:"rps" yaml:"rps"`
	Burst int     `toml:"burst" yaml:"burst"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8000",
		Env:         "local",
		Session:     session.DefaultConfig(),
		LLM:         llm.DefaultConfig(),
		Advisor:     advisor.DefaultConfig(),
		Exercises:   exercises.DefaultConfig(),
		RateLimit:   RateLimitConfig{RPS: 10, Burst: 20},
		CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
	}
}

// IsLocal reports whether the service runs in a developer environment.
func (c Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

// Load builds the configuration. A missing .env file is ignored; path may
// be empty, otherwise it names a .toml, .yaml or .yml file that overlays
// the defaults before the environment is applied.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported format (want .toml, .yaml or .yml)", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Addr = normalizeAddr(port)
	}
	if addr := env("MIXINGO_ADDR"); addr != "" {
		cfg.Addr = normalizeAddr(addr)
	}
	if v := env("MIXINGO_ENV"); v != "" {
		cfg.Env = v
	}
	if v := env("MIXINGO_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := env("MIXINGO_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := env("MIXINGO_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = strings.ToLower(v)
	}
	if v := env("MIXINGO_REDIS_ADDR"); v != "" {
		cfg.Session.RedisAddr = v
	}
	if v := env("MIXINGO_REDIS_PASSWORD"); v != "" {
		cfg.Session.RedisPassword = v
	}
	if v := env("MIXINGO_PG_DSN"); v != "" {
		cfg.Session.PostgresDSN = v
	}
	if v := env("MIXINGO_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var errs []error
	if v := env("DEMO_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		errs = append(errs, envErr("DEMO_MODE", err))
		cfg.DemoMode = b
	}
	if v := env("MIXINGO_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("MIXINGO_REDIS_DB", err))
		cfg.Session.RedisDB = n
	}
	if v := env("MIXINGO_SESSION_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("MIXINGO_SESSION_CAPACITY", err))
		cfg.Session.Capacity = n
	}
	if v := env("MIXINGO_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		errs = append(errs, envErr("MIXINGO_SESSION_TTL", err))
		cfg.Session.TTL = d
	}
	if v := env("MIXINGO_RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, envErr("MIXINGO_RATE_RPS", err))
		cfg.RateLimit.RPS = f
	}
	if v := env("MIXINGO_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("MIXINGO_RATE_BURST", err))
		cfg.RateLimit.Burst = n
	}

	// Demo mode is a single switch for every LLM consumer.
	if cfg.DemoMode {
		cfg.Advisor.DemoMode = true
		cfg.Exercises.DemoMode = true
	}

	return errors.Join(errs...)
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	switch c.Session.Backend {
	case session.BackendMemory:
		if c.Session.Capacity <= 0 {
			return fmt.Errorf("session capacity must be positive, got %d", c.Session.Capacity)
		}
	case session.BackendSQLite:
	case session.BackendRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("redis session backend requires MIXINGO_REDIS_ADDR")
		}
	case session.BackendPostgres:
		if c.Session.PostgresDSN == "" {
			return fmt.Errorf("postgres session backend requires MIXINGO_PG_DSN")
		}
	default:
		return fmt.Errorf("unknown session backend %q (want memory, sqlite, redis or postgres)", c.Session.Backend)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session ttl must not be negative, got %s", c.Session.TTL)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate limit rps must not be negative, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	if c.Exercises.QuestionsMin < 1 || c.Exercises.QuestionsMax < c.Exercises.QuestionsMin {
		return fmt.Errorf("exercise question range %d..%d is invalid", c.Exercises.QuestionsMin, c.Exercises.QuestionsMax)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}

func normalizeAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}
