package table

import (
	"encoding/json"
	"io"
)

// DecodeJSON reads one JSON value from r, keeping numbers as json.Number so
// 64-bit integer keys survive exactly.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
