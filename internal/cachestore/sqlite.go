package cachestore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const slotSchemaSQL = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Provider backed by a single SQLite database file.
// This is the default backend.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the slot database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cachestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cachestore: ping: %w", err)
	}
	if _, err := conn.Exec(slotSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cachestore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Get returns the value for (userID, slot), or nil when absent.
func (s *SQLite) Get(userID, slot string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRow(`SELECT value FROM slots WHERE key = ?`, Key(userID, slot)).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cachestore: get: %w", err)
	}
	return value, nil
}

// Set stores value under (userID, slot).
func (s *SQLite) Set(userID, slot string, value []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, Key(userID, slot), value)
	if err != nil {
		return fmt.Errorf("cachestore: set: %w", err)
	}
	return nil
}

// Delete removes (userID, slot).
func (s *SQLite) Delete(userID, slot string) error {
	if _, err := s.conn.Exec(`DELETE FROM slots WHERE key = ?`, Key(userID, slot)); err != nil {
		return fmt.Errorf("cachestore: delete: %w", err)
	}
	return nil
}

// ClearUser removes every slot belonging to userID.
func (s *SQLite) ClearUser(userID string) error {
	return s.clearPrefix(UserPrefix(userID))
}

// ClearAll removes every daybook key.
func (s *SQLite) ClearAll() error {
	return s.clearPrefix(KeyPrefix)
}

func (s *SQLite) clearPrefix(prefix string) error {
	// User ids and slot names never contain LIKE metacharacters, so a plain
	// prefix pattern is safe here.
	if _, err := s.conn.Exec(`DELETE FROM slots WHERE key LIKE ? || '%'`, prefix); err != nil {
		return fmt.Errorf("cachestore: clear %q: %w", prefix, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

var _ Provider = (*SQLite)(nil)
