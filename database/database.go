// Package database holds the named tables of one process and persists them as
// a single snapshot.
//
// Locks are taken outer to inner: the table map here, then a table's partition
// map, then one partition. No operation takes a coarser lock while holding a
// finer one.
package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/stevemurr/laws/dberr"
	"github.com/stevemurr/laws/snapshot"
	"github.com/stevemurr/laws/table"
)

// Database is safe for concurrent use.
type Database struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	saveMu sync.Mutex
	sink   snapshot.Sink
	logger *slog.Logger
}

// Listing is the result of ReadDB.
type Listing struct {
	Tables []string `json:"tables"`
}

func newDatabase(opts Options) *Database {
	return &Database{
		tables: make(map[string]*table.Table),
		sink:   opts.Sink,
		logger: opts.Logger,
	}
}

// Load builds a Database from the snapshot in opts.Sink.
//
// A missing snapshot cold starts. A snapshot that cannot be read, parsed or
// turned into tables is handled per opts.Recovery; only RecoverFail, or a
// quarantine that cannot move the snapshot aside, returns an error.
func Load(opts Options) (*Database, error) {
	opts.validate()
	db := newDatabase(opts)
	start := time.Now()

	payloads, err := opts.Sink.Load()
	if err == nil {
		err = db.build(payloads)
	}
	switch {
	case err == nil:
		db.logger.Info("snapshot loaded",
			"tables", len(db.tables),
			"duration", time.Since(start),
		)
		return db, nil
	case errors.Is(err, snapshot.ErrNoSnapshot):
		db.logger.Info("no snapshot found, starting empty")
		db.coldStart()
		return db, nil
	}

	db.logger.Error("snapshot could not be loaded",
		"recovery", opts.Recovery.String(),
		"error", err,
	)
	switch opts.Recovery {
	case RecoverFail:
		return nil, fmt.Errorf("database: load snapshot: %w", err)
	case RecoverQuarantine:
		where, qerr := opts.Sink.Quarantine()
		if qerr != nil {
			return nil, fmt.Errorf("database: quarantine snapshot: %w (load error: %v)", qerr, err)
		}
		db.logger.Warn("snapshot quarantined", "path", where)
	}
	db.tables = make(map[string]*table.Table)
	db.coldStart()
	return db, nil
}

// ColdStart discards whatever snapshot opts.Sink holds and returns an empty Database.
func ColdStart(opts Options) *Database {
	opts.validate()
	db := newDatabase(opts)
	db.coldStart()
	return db
}

func (db *Database) coldStart() {
	if err := db.sink.Reset(); err != nil {
		db.logger.Error("cold start could not reset snapshot", "error", err)
		return
	}
	db.logger.Warn("cold start: database is empty")
}

func (db *Database) build(payloads []json.RawMessage) error {
	for i, raw := range payloads {
		v, err := table.DecodeJSON(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		t, err := table.New(v, db.logger)
		if err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		if _, dup := db.tables[t.Name()]; dup {
			db.logger.Warn("duplicate table in snapshot, keeping the later one", "table", t.Name())
		}
		db.tables[t.Name()] = t
	}
	return nil
}

// ReadDB lists the table names, sorted.
func (db *Database) ReadDB() Listing {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return Listing{Tables: names}
}

// CreateTable builds a table from a table-definition payload and adds it,
// replacing any table with the same name.
func (db *Database) CreateTable(payload any) error {
	t, err := table.New(payload, db.logger)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[t.Name()]; exists {
		db.logger.Warn("replacing existing table", "table", t.Name())
	}
	db.tables[t.Name()] = t
	return nil
}

// ReadTable returns the definition and documents of the named table.
func (db *Database) ReadTable(name string) (table.Definition, error) {
	var def table.Definition
	err := db.withTable(name, func(t *table.Table) error {
		def = t.Snapshot()
		return nil
	})
	return def, err
}

// DeleteTable removes the named table.
func (db *Database) DeleteTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[name]; !ok {
		return dberr.TableNotFound(name)
	}
	delete(db.tables, name)
	return nil
}

func (db *Database) CreateDocument(name string, payload any) error {
	return db.withTable(name, func(t *table.Table) error {
		return t.Create(payload)
	})
}

// ReadDocument returns the matching document, or nil if there is none.
func (db *Database) ReadDocument(name string, payload any) (table.Document, error) {
	var doc table.Document
	err := db.withTable(name, func(t *table.Table) error {
		var err error
		doc, err = t.Read(payload)
		return err
	})
	return doc, err
}

func (db *Database) UpdateDocument(name string, payload any) error {
	return db.withTable(name, func(t *table.Table) error {
		return t.Update(payload)
	})
}

func (db *Database) DeleteDocument(name string, payload any) error {
	return db.withTable(name, func(t *table.Table) error {
		return t.Delete(payload)
	})
}

func (db *Database) withTable(name string, fn func(*table.Table) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return dberr.TableNotFound(name)
	}
	return fn(t)
}

// Save overwrites the snapshot with the current tables. Concurrent calls are
// serialized. Each partition is captured under its own read lock, so the
// snapshot is consistent per partition, not across the whole database.
func (db *Database) Save() error {
	db.saveMu.Lock()
	defer db.saveMu.Unlock()
	start := time.Now()

	entries, docs, err := db.collect()
	if err != nil {
		return err
	}
	if err := db.sink.Save(entries); err != nil {
		db.logger.Error("snapshot save failed", "error", err)
		return fmt.Errorf("database: save: %w", err)
	}
	db.logger.Info("snapshot saved",
		"tables", len(entries),
		"documents", docs,
		"duration", time.Since(start),
	)
	return nil
}

func (db *Database) collect() ([]snapshot.Entry, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]snapshot.Entry, 0, len(names))
	docs := 0
	for _, name := range names {
		def := db.tables[name].Snapshot()
		b, err := json.Marshal(def)
		if err != nil {
			return nil, 0, fmt.Errorf("database: encode table %q: %w", name, err)
		}
		entries = append(entries, snapshot.Entry{Name: name, Payload: b})
		docs += len(def.Data)
	}
	return entries, docs, nil
}

// Close releases the snapshot sink. It does not save.
func (db *Database) Close() error {
	return db.sink.Close()
}
