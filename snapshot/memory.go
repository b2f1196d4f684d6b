package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// MemorySink keeps the snapshot in memory. Data is lost on restart.
// Safe for concurrent use.
type MemorySink struct {
	mu          sync.Mutex
	tables      []Entry
	saved       bool
	quarantined [][]Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func cloneEntries(src []Entry) []Entry {
	dst := make([]Entry, len(src))
	for i, e := range src {
		dst[i] = Entry{Name: e.Name, Payload: bytes.Clone(e.Payload)}
	}
	return dst
}

func (m *MemorySink) Load() ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNoSnapshot
	}
	tables := make([]json.RawMessage, len(m.tables))
	for i, e := range m.tables {
		tables[i] = bytes.Clone(e.Payload)
	}
	return tables, nil
}

func (m *MemorySink) Save(tables []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = cloneEntries(tables)
	m.saved = true
	return nil
}

func (m *MemorySink) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = nil
	m.saved = true
	return nil
}

func (m *MemorySink) Quarantine() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return "", nil
	}
	m.quarantined = append(m.quarantined, m.tables)
	m.tables = nil
	m.saved = false
	return fmt.Sprintf("memory:quarantine/%d", len(m.quarantined)), nil
}

// Quarantined returns the number of snapshots moved aside so far.
func (m *MemorySink) Quarantined() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quarantined)
}

func (m *MemorySink) Close() error {
	return nil
}
