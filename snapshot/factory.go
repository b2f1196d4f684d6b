package snapshot

import (
	"fmt"
	"path/filepath"
)

// New creates a Sink based on the backend name.
//
// Supported backends:
//
//	"json"   - JSON array in dir/data.json (default)
//	"sqlite" - SQLite database at dir/laws.db
//	"bolt"   - Bolt database at dir/laws.bolt
//	"memory" - In-memory (ephemeral, for testing)
func New(backend, dir string) (Sink, error) {
	switch backend {
	case "json", "":
		return NewJSONFileSink(dir), nil
	case "sqlite":
		return NewSqliteSink(filepath.Join(dir, "laws.db")), nil
	case "bolt":
		return NewBoltSink(filepath.Join(dir, "laws.bolt")), nil
	case "memory":
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %q (supported: json, sqlite, bolt, memory)", backend)
	}
}
