package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/notepdf/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fingerprints (
	path         TEXT PRIMARY KEY,
	hash         TEXT NOT NULL,
	converted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists fingerprints one row at a time, so an update costs
// the same regardless of how many notes are tracked.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// A file that is not a usable database is reported as apperr.ErrCacheCorrupt.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w: %w", apperr.ErrCacheCorrupt, err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w: %w", apperr.ErrCacheCorrupt, err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Get returns the fingerprint recorded for path.
func (s *SQLiteStore) Get(path string) (string, bool) {
	var h string
	err := s.conn.QueryRow(`SELECT hash FROM fingerprints WHERE path = ?`, path).Scan(&h)
	if err != nil {
		// Not found and read errors both mean "convert again".
		return "", false
	}
	return h, true
}

// Put upserts the fingerprint for path.
func (s *SQLiteStore) Put(path, hash string) error {
	_, err := s.conn.Exec(`
		INSERT INTO fingerprints (path, hash, converted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash         = excluded.hash,
			converted_at = excluded.converted_at
	`, path, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache: upsert %s: %w", path, err)
	}
	return nil
}

// Len returns the number of tracked notes, or 0 if the count fails.
func (s *SQLiteStore) Len() int {
	var n int
	if err := s.conn.QueryRow(`SELECT count(*) FROM fingerprints`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
