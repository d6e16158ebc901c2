// Package scorestore persists per-mode best scores and leaderboards in a
// local SQLite file.
package scorestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	tetris "github.com/jauhararifin/tetris-engine"
)

const DefaultLimit = 10

var ErrEmptyName = errors.New("player name cannot be empty")

const schema = `
CREATE TABLE IF NOT EXISTS best (
	mode  TEXT PRIMARY KEY,
	score INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	mode       TEXT NOT NULL,
	name       TEXT NOT NULL,
	score      INTEGER NOT NULL,
	lines      INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_mode_score ON entries (mode, score DESC);
`

// Entry is one finished game on a leaderboard.
type Entry struct {
	Mode  tetris.Mode
	Name  string
	Score int
	Lines int
	At    time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file and its directory when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open score store: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate score store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Best returns the best score recorded for mode, or zero.
func (s *Store) Best(ctx context.Context, mode tetris.Mode) (int, error) {
	var best int
	err := s.db.QueryRowContext(ctx, `SELECT score FROM best WHERE mode = ?`, mode.String()).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query best score: %w", err)
	}
	return best, nil
}

// SaveBest records score as the best for mode unless a higher one exists.
func (s *Store) SaveBest(ctx context.Context, mode tetris.Mode, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO best (mode, score) VALUES (?, ?)
		ON CONFLICT (mode) DO UPDATE SET score = MAX(score, excluded.score)`,
		mode.String(), score)
	if err != nil {
		return fmt.Errorf("save best score: %w", err)
	}
	return nil
}

// Record adds a finished game to the leaderboard of its mode and promotes
// it to best score when it beats the current one.
func (s *Store) Record(ctx context.Context, e Entry) error {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	at := e.At
	if at.IsZero() {
		at = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (mode, name, score, lines, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Mode.String(), name, e.Score, e.Lines, at.UnixNano()); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO best (mode, score) VALUES (?, ?)
		ON CONFLICT (mode) DO UPDATE SET score = MAX(score, excluded.score)`,
		e.Mode.String(), e.Score); err != nil {
		return fmt.Errorf("update best score: %w", err)
	}
	return tx.Commit()
}

// Leaderboard lists the top entries of mode, highest score first. Ties go
// to the earlier game.
func (s *Store) Leaderboard(ctx context.Context, mode tetris.Mode, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, score, lines, created_at FROM entries
		WHERE mode = ?
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT ?`, mode.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{Mode: mode}
		var at int64
		if err := rows.Scan(&e.Name, &e.Score, &e.Lines, &at); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
