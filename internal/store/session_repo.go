package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/mixingo/mixingo/internal/session"
)

// SessionRepo implements session.Store on the sessions table.
type SessionRepo struct {
	db *sql.DB
}

var _ session.Store = (*SessionRepo)(nil)

func (r *SessionRepo) Get(ctx context.Context, userID string) (*session.Session, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("user_id", "profile", "signals", "answers", "ctm", "updated_at").
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var (
		s                         session.Session
		profile, signals, answers string
		ctm                       sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&s.UserID, &profile, &signals, &answers, &ctm, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	if err := json.Unmarshal([]byte(profile), &s.Profile); err != nil {
		return nil, fmt.Errorf("decode session profile: %w", err)
	}
	if err := json.Unmarshal([]byte(signals), &s.Signals); err != nil {
		return nil, fmt.Errorf("decode session signals: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("decode session answers: %w", err)
	}
	if ctm.Valid && ctm.String != "" {
		s.CTM = json.RawMessage(ctm.String)
	}
	return &s, nil
}

func (r *SessionRepo) Put(ctx context.Context, s *session.Session) error {
	if s == nil || s.UserID == "" {
		return fmt.Errorf("put session: user id is required")
	}

	profile, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}
	signals, err := json.Marshal(s.Signals)
	if err != nil {
		return fmt.Errorf("encode session signals: %w", err)
	}
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode session answers: %w", err)
	}
	var ctm sql.NullString
	if len(s.CTM) > 0 {
		ctm = sql.NullString{String: string(s.CTM), Valid: true}
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sessionsTable).
		Columns("user_id", "profile", "signals", "answers", "ctm", "updated_at").
		Values(s.UserID, string(profile), string(signals), string(answers), ctm, updated).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the connection.
func (r *SessionRepo) Close() error { return nil }
