// Package table implements one named collection of documents, organized by a
// declared partition key and sort key.
//
// Documents live in a two-level ordered structure: partition value -> sort
// value -> document. The partition map and each partition carry their own
// read/write lock, so writers to distinct partitions never contend.
package table

import (
	"log/slog"

	"github.com/stevemurr/laws/dberr"
	"github.com/stevemurr/laws/keys"
	"github.com/stevemurr/laws/validation"
)

// Document is a JSON object as produced by encoding/json.
type Document = map[string]any

// Definition is the table-definition payload accepted by create_table. It is
// also the shape of one snapshot element and of a read_table result.
type Definition struct {
	TableName  string         `json:"table_name"`
	PrimaryKey keys.Key       `json:"primary_key"`
	SortKey    keys.Key       `json:"sort_key"`
	Schema     map[string]any `json:"schema,omitempty"`
	Data       []Document     `json:"data"`
}

// Table is safe for concurrent use.
type Table struct {
	name    string
	primary keys.Key
	sort    keys.Key
	schema  map[string]any
	data    store
}

// New builds a table from a table-definition payload.
//
// table_name, primary_key and sort_key are required. An optional data array is
// bulk-loaded, the last document for a (partition, sort) pair winning. If any
// document fails to load the table is still returned, empty, and the failure is
// logged.
func New(payload any, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validation.RequireStrings(payload, "table_name"); err != nil {
		return nil, err
	}
	if err := validation.RequireKeys(payload, "primary_key", "sort_key"); err != nil {
		return nil, err
	}
	info := payload.(map[string]any)

	primary, err := parseKey(info["primary_key"])
	if err != nil {
		return nil, err
	}
	sort, err := parseKey(info["sort_key"])
	if err != nil {
		return nil, err
	}

	t := &Table{
		name:    info["table_name"].(string),
		primary: primary,
		sort:    sort,
	}
	if raw, ok := info["schema"]; ok && raw != nil {
		schema, ok := raw.(map[string]any)
		if !ok {
			return nil, dberr.BadInput("schema field must be an object")
		}
		t.schema = schema
	}

	t.data = newStore(primary, sort)
	if raw, ok := info["data"]; ok {
		if err := t.load(raw); err != nil {
			logger.Warn("bulk load discarded, table starts empty",
				"table", t.name,
				"error", err,
			)
			t.data = newStore(primary, sort)
		}
	}
	return t, nil
}

func parseKey(raw any) (keys.Key, error) {
	desc := raw.(map[string]any)
	dt, err := keys.ParseDatatype(desc["datatype"].(string))
	if err != nil {
		return keys.Key{}, err
	}
	return keys.Key{Name: desc["name"].(string), Datatype: dt}, nil
}

func (t *Table) load(raw any) error {
	docs, ok := raw.([]any)
	if !ok {
		return dberr.BadInput("data must be a valid JSON array")
	}
	for _, doc := range docs {
		if err := t.Create(doc); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// PrimaryKey returns the partition key descriptor.
func (t *Table) PrimaryKey() keys.Key { return t.primary }

// SortKey returns the sort key descriptor.
func (t *Table) SortKey() keys.Key { return t.sort }

// Create stores doc under its partition and sort values, replacing any
// document already stored there.
func (t *Table) Create(doc any) error {
	return t.data.write(doc, true, func(Document) (Document, error) {
		obj := doc.(Document)
		if err := validation.Document(t.schema, obj); err != nil {
			return nil, err
		}
		return cloneDocument(obj), nil
	})
}

// Read returns the document stored at the partition and sort values carried
// by query, or nil if there is none.
func (t *Table) Read(query any) (Document, error) {
	var out Document
	err := t.data.read(query, func(doc Document) {
		out = cloneDocument(doc)
	})
	return out, err
}

// Update shallow-merges the top-level fields of patch into the stored
// document. If no document is stored at the patch's keys, patch is stored as is.
func (t *Table) Update(patch any) error {
	return t.data.write(patch, true, func(cur Document) (Document, error) {
		merged := cloneDocument(cur)
		if merged == nil {
			merged = make(Document, len(patch.(Document)))
		}
		for k, v := range patch.(Document) {
			merged[k] = cloneValue(v)
		}
		if err := validation.Document(t.schema, merged); err != nil {
			return nil, err
		}
		return merged, nil
	})
}

// Delete removes the document at the keys carried by query. Deleting a
// missing document is not an error.
func (t *Table) Delete(query any) error {
	return t.data.write(query, false, func(Document) (Document, error) {
		return nil, nil
	})
}

// Snapshot returns the table definition with every stored document, ordered
// by partition value and then sort value. Partitions are visited one at a
// time, so concurrent writers may be reflected in some partitions and not others.
func (t *Table) Snapshot() Definition {
	def := Definition{
		TableName:  t.name,
		PrimaryKey: t.primary,
		SortKey:    t.sort,
		Schema:     t.schema,
		Data:       []Document{},
	}
	t.data.scan(func(doc Document) {
		def.Data = append(def.Data, cloneDocument(doc))
	})
	return def
}
