package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SqliteSink stores the snapshot in a single SQLite database.
//
// Tables:
//
//	tables(name, payload)  PRIMARY KEY (name), payload is snappy-compressed JSON
//
// The database is opened on first use, so an unreadable file surfaces as a
// Load error rather than a construction error.
type SqliteSink struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
}

func NewSqliteSink(dbPath string) *SqliteSink {
	return &SqliteSink{path: dbPath}
}

func (s *SqliteSink) openLocked() error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS tables (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *SqliteSink) closeLocked() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SqliteSink) Load() ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err := s.openLocked(); err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	rows, err := s.db.Query("SELECT name, payload FROM tables ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()
	var tables []json.RawMessage
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		payload, err := decodePayload(name, raw)
		if err != nil {
			return nil, err
		}
		tables = append(tables, payload)
	}
	return tables, rows.Err()
}

func (s *SqliteSink) Save(tables []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM tables"); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	for _, t := range tables {
		if _, err := tx.Exec("INSERT INTO tables (name, payload) VALUES (?, ?)", t.Name, encodePayload(t.Payload)); err != nil {
			return fmt.Errorf("snapshot: save table %q: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

func (s *SqliteSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	if _, err := s.db.Exec("DELETE FROM tables"); err != nil {
		return fmt.Errorf("snapshot: reset: %w", err)
	}
	return nil
}

// Quarantine closes the database and moves its file aside. The next call
// reopens a fresh database at the original path.
func (s *SqliteSink) Quarantine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return "", fmt.Errorf("snapshot: close %s: %w", s.path, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		os.Remove(s.path + suffix)
	}
	return quarantine(s.path)
}

func (s *SqliteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}
