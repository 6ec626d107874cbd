package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for the lookup history.
type Store struct {
	db *sql.DB
}

// Open initializes a SQLite database and runs minimal schema setup.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	schema := `
CREATE TABLE IF NOT EXISTS lookups (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  network     TEXT NOT NULL,
  group_id    TEXT NOT NULL,
  command     TEXT NOT NULL,
  tier        TEXT NOT NULL,
  outcome     TEXT NOT NULL,
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS lookups_created_at ON lookups (created_at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Lookup is one recorded group query. Tier is empty when no tier answered.
type Lookup struct {
	ID        int64
	Network   string
	GroupID   string
	Command   string
	Tier      string
	Outcome   string
	CreatedAt time.Time
}

// InsertLookup appends a lookup to the history.
func (s *Store) InsertLookup(ctx context.Context, l Lookup) error {
	if l.Network == "" || l.Command == "" || l.Outcome == "" {
		return errors.New("network, command, and outcome are required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO lookups (network, group_id, command, tier, outcome, created_at)
VALUES (?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP));
`, l.Network, l.GroupID, l.Command, l.Tier, l.Outcome, nullTime(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert lookup: %w", err)
	}
	return nil
}

// RecentLookups returns up to limit lookups, newest first.
func (s *Store) RecentLookups(ctx context.Context, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, network, group_id, command, tier, outcome, created_at
FROM lookups ORDER BY created_at DESC, id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer rows.Close()

	var out []Lookup
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.Network, &l.GroupID, &l.Command, &l.Tier, &l.Outcome, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
