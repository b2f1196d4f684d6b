package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var tablesBucket = []byte("tables")

// BoltSink stores the snapshot in a Bolt database: one bucket, keyed by table
// name, each value a snappy-compressed table payload. A save swaps the whole
// bucket inside one write transaction.
type BoltSink struct {
	mu   sync.Mutex
	path string
	bdb  *bbolt.DB
}

func NewBoltSink(path string) *BoltSink {
	return &BoltSink{path: path}
}

func (s *BoltSink) openLocked() error {
	if s.bdb != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	bdb, err := bbolt.Open(s.path, 0o644, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return err
	}
	s.bdb = bdb
	return nil
}

func (s *BoltSink) closeLocked() error {
	if s.bdb == nil {
		return nil
	}
	err := s.bdb.Close()
	s.bdb = nil
	return err
}

func (s *BoltSink) Load() ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err := s.openLocked(); err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	var tables []json.RawMessage
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tablesBucket)
		if b == nil {
			return ErrNoSnapshot
		}
		return b.ForEach(func(k, v []byte) error {
			payload, err := decodePayload(string(k), v)
			if err != nil {
				return err
			}
			tables = append(tables, payload)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *BoltSink) Save(tables []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := recreateBucket(tx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if err := b.Put([]byte(t.Name), encodePayload(t.Payload)); err != nil {
				return fmt.Errorf("snapshot: save table %q: %w", t.Name, err)
			}
		}
		return nil
	})
}

func recreateBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(tablesBucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	b, err := tx.CreateBucket(tablesBucket)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return b, nil
}

func (s *BoltSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		_, err := recreateBucket(tx)
		return err
	})
}

// Quarantine closes the database and moves its file aside.
func (s *BoltSink) Quarantine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return "", fmt.Errorf("snapshot: close %s: %w", s.path, err)
	}
	return quarantine(s.path)
}

func (s *BoltSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}
