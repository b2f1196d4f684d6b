package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONFileSink stores the snapshot as a single JSON array on disk.
//
// Layout:
//
//	dir/
//	  data.json                  # [table, table, ...]
//	  data.json.corrupt-<uuid>   # quarantined snapshots
//
// Save writes a temporary file in dir and renames it over data.json, so a
// crash mid-save leaves the previous snapshot intact.
type JSONFileSink struct {
	mu  sync.Mutex
	dir string
}

func NewJSONFileSink(dir string) *JSONFileSink {
	return &JSONFileSink{dir: dir}
}

// Path returns the location of the snapshot file.
func (s *JSONFileSink) Path() string {
	return filepath.Join(s.dir, "data.json")
}

func (s *JSONFileSink) Load() ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("snapshot: read %s: %w", s.Path(), err)
	}
	var tables []json.RawMessage
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", s.Path(), err)
	}
	return tables, nil
}

func (s *JSONFileSink) Save(tables []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads := make([]json.RawMessage, len(tables))
	for i, t := range tables {
		payloads[i] = t.Payload
	}
	b, err := json.Marshal(payloads)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return s.writeFile(b)
}

func (s *JSONFileSink) writeFile(b []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "data.json.*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Reset removes data.json, recreates dir if needed and writes an empty
// snapshot. Quarantined files in dir are kept.
func (s *JSONFileSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		// A directory named data.json, for one.
		if err := os.RemoveAll(s.Path()); err != nil {
			return fmt.Errorf("snapshot: reset: %w", err)
		}
	}
	return s.writeFile([]byte("[]"))
}

func (s *JSONFileSink) Quarantine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return quarantine(s.Path())
}

func (s *JSONFileSink) Close() error {
	return nil
}
