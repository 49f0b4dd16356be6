// Package history persists evaluated program text and outcomes per session
// in a SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded evaluation.
type Entry struct {
	ID        int64
	Session   string
	Source    string
	Outcome   string // "ok" or the condition rendering
	CreatedAt time.Time
}

// Store is a SQLite-backed evaluation log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS evaluations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session    TEXT NOT NULL,
		source     TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating evaluations table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Append records one evaluation.
func (s *Store) Append(session, source, outcome string) error {
	_, err := s.db.Exec(
		`INSERT INTO evaluations (session, source, outcome) VALUES (?, ?, ?)`,
		session, source, outcome)
	if err != nil {
		return fmt.Errorf("recording evaluation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for session, newest first.
func (s *Store) Recent(session string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session, source, outcome, created_at
		 FROM evaluations WHERE session = ?
		 ORDER BY id DESC LIMIT ?`,
		session, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Session, &e.Source, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sources returns the most recent distinct source lines across all
// sessions, oldest first, suitable for seeding a line editor.
func (s *Store) Sources(limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT source FROM evaluations
		 GROUP BY source ORDER BY MAX(id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var newest []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		newest = append(newest, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse to oldest-first for editor seeding.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
