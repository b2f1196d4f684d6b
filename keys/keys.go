// Package keys implements the typed key model: the closed set of key datatypes,
// the key descriptors a table declares for its partition and sort roles, and
// extraction of typed key values from JSON documents.
package keys

import (
	"encoding/json"
	"fmt"

	"github.com/stevemurr/laws/dberr"
)

// Datatype is the declared type of every value of one key role.
type Datatype uint8

const (
	Null Datatype = iota
	Boolean
	SignedInt
	UnsignedInt
	Float
	String
)

var datatypeNames = [...]string{
	Null:        "Null",
	Boolean:     "Boolean",
	SignedInt:   "SignedInt",
	UnsignedInt: "UnsignedInt",
	Float:       "Float",
	String:      "String",
}

// String returns the wire name of d.
func (d Datatype) String() string {
	if int(d) < len(datatypeNames) {
		return datatypeNames[d]
	}
	return fmt.Sprintf("Datatype(%d)", uint8(d))
}

// Tag returns the numeric tag of d.
func (d Datatype) Tag() uint8 {
	return uint8(d)
}

// FromTag maps a numeric tag back to its datatype. Unknown tags map to Null.
func FromTag(n uint8) Datatype {
	if int(n) < len(datatypeNames) {
		return Datatype(n)
	}
	return Null
}

// ParseDatatype maps a wire name to its datatype.
func ParseDatatype(s string) (Datatype, error) {
	for i, name := range datatypeNames {
		if name == s {
			return Datatype(i), nil
		}
	}
	return Null, dberr.BadInput("unknown key datatype %q", s)
}

func (d Datatype) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Datatype) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return dberr.BadInput("datatype must be a string")
	}
	parsed, err := ParseDatatype(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Key names a document field and the datatype its values must have.
type Key struct {
	Name     string   `json:"name"`
	Datatype Datatype `json:"datatype"`
}

// Extract returns the typed value of key k in doc.
//
// doc must be a JSON object (map[string]any). A Null key tolerates an absent
// field. For every other datatype an absent field and a field of the wrong JSON
// type are both reported as dberr.ErrMissingFields.
func Extract[T any](k Key, c Codec[T], doc any) (T, error) {
	var zero T
	if k.Datatype != c.Datatype {
		panic(fmt.Sprintf("keys: %s codec used for %s key %q", c.Datatype, k.Datatype, k.Name))
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return zero, dberr.BadInput("payload must be a valid JSON object")
	}
	if c.Datatype == Null {
		return zero, nil
	}
	if raw, ok := obj[k.Name]; ok {
		if v, ok := c.decode(raw); ok {
			return v, nil
		}
	}
	return zero, dberr.MissingFields("field %s must exist and be of type %s", k.Name, c.Datatype)
}
