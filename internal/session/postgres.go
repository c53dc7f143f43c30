package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps one jsonb row per learner.
type PostgresStore struct {
	db *sql.DB

	mu    sync.Mutex
	ready bool
}

// OpenPostgres opens dsn with the pgx driver, checks connectivity and
// creates the session table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	p, err := connectPostgres(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func connectPostgres(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := NewPostgresStore(db)
	if err := p.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return p, nil
}

// NewPostgresStore wraps an existing connection pool. The table is created
// on first use; a failed attempt is retried by the next call.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) ensureSchema(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS warmup_sessions (
  user_id TEXT PRIMARY KEY,
  data JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return err
	}
	p.ready = true
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, userID string) (*Session, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM warmup_sessions WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", userID, err)
	}
	return &s, nil
}

func (p *PostgresStore) Put(ctx context.Context, s *Session) error {
	if s == nil || s.UserID == "" {
		return fmt.Errorf("put session: user id is required")
	}
	if err := p.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	stored := clone(s)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
INSERT INTO warmup_sessions (user_id, data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		stored.UserID, raw, stored.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
