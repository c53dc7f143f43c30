// Package session keeps per-learner warm-up state between the submit,
// analyze and exercise calls.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
)

// ErrNotFound is returned by Get when no session exists for the user.
var ErrNotFound = errors.New("session not found")

// Session is the state recorded for one learner.
type Session struct {
	UserID  string             `json:"user_id"`
	Profile curriculum.Profile `json:"profile"`
	Signals signals.Summary    `json:"signals"`
	Answers []signals.Answer   `json:"answers"`

	// CTM is the last curriculum transfer map served to this learner, kept
	// as raw JSON so the store stays independent of the advisor.
	CTM json.RawMessage `json:"ctm,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sessions keyed by user ID. Put replaces any existing
// session for the same user.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Close() error
}

// Backend names accepted by Open and the configuration layer.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects and tunes a session backend.
type Config struct {
	Backend string `toml:"backend" yaml:"backend"`

	// Capacity bounds the in-memory backend. Oldest sessions are evicted first.
	Capacity int `toml:"capacity" yaml:"capacity"`

	// TTL expires idle sessions in the memory and redis backends. Zero keeps
	// them forever (memory backend still honours Capacity).
	TTL time.Duration `toml:"ttl" yaml:"ttl"`

	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`

	PostgresDSN string `toml:"postgres_dsn" yaml:"postgres_dsn"`
}

// DefaultConfig returns an in-memory store sized for a single instance.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendMemory,
		Capacity: 10_000,
		TTL:      24 * time.Hour,
	}
}

// clone returns a deep copy so callers never share slices with the store.
func clone(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Profile.KnownLanguages = append([]string(nil), s.Profile.KnownLanguages...)
	out.Answers = append([]signals.Answer(nil), s.Answers...)
	if s.Signals.ErrorDistribution != nil {
		out.Signals.ErrorDistribution = make(map[string]int, len(s.Signals.ErrorDistribution))
		for k, v := range s.Signals.ErrorDistribution {
			out.Signals.ErrorDistribution[k] = v
		}
	}
	if s.CTM != nil {
		out.CTM = append(json.RawMessage(nil), s.CTM...)
	}
	return &out
}
