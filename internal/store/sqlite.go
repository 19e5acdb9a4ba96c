package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSnapshot persists a Store as rows of a single facts table. It is the
// snapshot backend for paths ending in .db, .sqlite or .sqlite3.
type SQLiteSnapshot struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a snapshot database at path with WAL
// mode enabled and the schema migrated.
func OpenSQLite(path string) (*SQLiteSnapshot, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrSnapshot, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrSnapshot, err)
	}
	s := &SQLiteSnapshot{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSnapshot) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *SQLiteSnapshot) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrSnapshot, err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS facts (
  category  TEXT NOT NULL,
  key       TEXT NOT NULL,
  value     TEXT NOT NULL,
  PRIMARY KEY (category, key, value)
);

CREATE TABLE IF NOT EXISTS metadata (
  key    TEXT PRIMARY KEY,
  value  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facts_value ON facts(value);
`

// Write replaces the stored facts with the content of st in one transaction
// and records its fingerprint.
func (s *SQLiteSnapshot) Write(st *Store) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrSnapshot, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facts"); err != nil {
		return fmt.Errorf("%w: clear facts: %v", ErrSnapshot, err)
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO facts (category, key, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrSnapshot, err)
	}
	defer stmt.Close()

	var insertErr error
	st.Walk(func(category, key, value string) {
		if insertErr != nil {
			return
		}
		if _, err := stmt.Exec(category, key, value); err != nil {
			insertErr = fmt.Errorf("%w: insert fact %s/%s: %v", ErrSnapshot, category, key, err)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	for k, v := range map[string]string{
		"fingerprint": st.Fingerprint(),
		"saved_at":    time.Now().UTC().Format(time.RFC3339),
	} {
		if _, err := tx.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("%w: set metadata %s: %v", ErrSnapshot, k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrSnapshot, err)
	}
	return nil
}

// Read loads every fact into a new open Store.
func (s *SQLiteSnapshot) Read() (*Store, error) {
	rows, err := s.db.Query("SELECT category, key, value FROM facts")
	if err != nil {
		return nil, fmt.Errorf("%w: query facts: %v", ErrSnapshot, err)
	}
	defer rows.Close()

	st := New()
	for rows.Next() {
		var category, key, value string
		if err := rows.Scan(&category, &key, &value); err != nil {
			return nil, fmt.Errorf("%w: scan fact: %v", ErrSnapshot, err)
		}
		st.Put(category, key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrSnapshot, err)
	}
	return st, nil
}

// Metadata returns a metadata value, or "" when unset.
func (s *SQLiteSnapshot) Metadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: metadata %s: %v", ErrSnapshot, key, err)
	}
	return value, nil
}
