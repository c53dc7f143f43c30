package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "modernc.org/sqlite"
)

// Store is the SQLite database behind the event log and the sqlite session
// backend. It holds one connection: SQLite serializes writers anyway, and
// per-connection pragmas stay in force.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// pragmas tune SQLite for one server process with short transactions.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
}

// Open connects to the database at dsn and migrates it to the current
// schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(ctx, drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	seq, err := newSequenceCounter(ctx, db)
	if err != nil {
		drv.Close()
		return nil, err
	}
	return &Store{db: db, drv: drv, seq: seq}, nil
}

// DB exposes the connection for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, seq: s.seq}
}

func (s *Store) SessionRepo() *SessionRepo {
	return &SessionRepo{db: s.db}
}

// ResolvePath picks the database file: path if set, else $MIXINGO_DB, else
// mixingo/mixingo.db under $XDG_DATA_HOME (~/.local/share by default). The
// parent directory is created. SQLite URIs ("file:...", ":memory:") are
// returned untouched.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv("MIXINGO_DB")
	}
	if path == "" {
		data := os.Getenv("XDG_DATA_HOME")
		if data == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			data = filepath.Join(home, ".local", "share")
		}
		path = filepath.Join(data, "mixingo", "mixingo.db")
	}
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return path, nil
}
