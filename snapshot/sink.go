// Package snapshot persists the whole database as one snapshot: one table
// payload per table, written wholesale and read wholesale.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// ErrNoSnapshot is returned by Sink.Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("snapshot: no snapshot")

// Entry is one table in a snapshot. Payload is the table's JSON definition,
// including its documents.
type Entry struct {
	Name    string
	Payload json.RawMessage
}

// Sink is the interface that all snapshot backends implement.
type Sink interface {
	// Load returns every table payload in the current snapshot.
	Load() ([]json.RawMessage, error)

	// Save replaces the snapshot with tables.
	Save(tables []Entry) error

	// Reset discards the snapshot and leaves an empty one in its place.
	Reset() error

	// Quarantine moves the current snapshot aside and returns where it went.
	// It returns "" if there was nothing to move.
	Quarantine() (string, error)

	// Close releases any handle held by the sink.
	Close() error
}

// quarantine renames path to a unique sibling.
func quarantine(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	target := fmt.Sprintf("%s.corrupt-%s", path, uuid.NewString())
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("snapshot: quarantine %s: %w", path, err)
	}
	return target, nil
}

// Binary backends store payloads snappy-compressed.

func encodePayload(p json.RawMessage) []byte {
	return snappy.Encode(nil, p)
}

func decodePayload(name string, b []byte) (json.RawMessage, error) {
	p, err := snappy.Decode(nil, b)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode table %q: %w", name, err)
	}
	return json.RawMessage(p), nil
}
