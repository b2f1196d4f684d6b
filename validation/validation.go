// Package validation provides the input-shape checks shared by table and
// database operations, and validation of documents against an optional
// per-table JSON Schema.
package validation

import (
	"github.com/stevemurr/laws/dberr"
)

// RequireStrings checks that payload is a JSON object carrying every field as a string.
// An absent or null field is dberr.ErrMissingFields; a non-string one is dberr.ErrBadInput.
func RequireStrings(payload any, fields ...string) error {
	obj, ok := payload.(map[string]any)
	if !ok {
		return dberr.BadInput("payload must be a valid JSON object")
	}
	return requireStrings(obj, "", fields)
}

// RequireKeys checks that payload carries every field as a key descriptor
// object of the form {"name": string, "datatype": string}.
func RequireKeys(payload any, fields ...string) error {
	obj, ok := payload.(map[string]any)
	if !ok {
		return dberr.BadInput("payload must be a valid JSON object")
	}
	for _, field := range fields {
		raw := obj[field]
		if raw == nil {
			return dberr.MissingFields("%s field is missing or null", field)
		}
		desc, ok := raw.(map[string]any)
		if !ok {
			return dberr.BadInput("%s field must be an object with name and datatype", field)
		}
		if err := requireStrings(desc, field+".", []string{"name", "datatype"}); err != nil {
			return err
		}
	}
	return nil
}

func requireStrings(obj map[string]any, prefix string, fields []string) error {
	for _, field := range fields {
		raw := obj[field]
		if raw == nil {
			return dberr.MissingFields("%s%s field is missing or null", prefix, field)
		}
		if _, ok := raw.(string); !ok {
			return dberr.BadInput("%s%s field must be a string", prefix, field)
		}
	}
	return nil
}
