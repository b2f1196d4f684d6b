package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/stevemurr/laws/dberr"
)

// Document checks doc against a JSON Schema (draft-07 subset) and reports
// violations as dberr.ErrBadInput. A nil schema accepts every document.
//
// Supported keywords: type, properties, required, additionalProperties, items,
// enum, minLength, maxLength, minimum, maximum.
func Document(schema map[string]any, doc map[string]any) error {
	if schema == nil {
		return nil
	}
	if err := checkValue(schema, doc, "$"); err != nil {
		return dberr.BadInput("schema validation failed: %v", err)
	}
	return nil
}

func checkValue(schema map[string]any, value any, path string) error {
	if ts, ok := schema["type"].(string); ok {
		if !typeMatches(ts, value) {
			return fmt.Errorf("%s: expected type %q, got %q", path, ts, jsonType(value))
		}
	}
	if allowed, ok := schema["enum"].([]any); ok {
		found := false
		for _, a := range allowed {
			if sameValue(a, value) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: value not in enum %v", path, allowed)
		}
	}

	switch v := value.(type) {
	case map[string]any:
		return checkObject(schema, v, path)
	case []any:
		if items, ok := schema["items"].(map[string]any); ok {
			for i, elem := range v {
				if err := checkValue(items, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case string:
		if n, ok := number(schema["minLength"]); ok && float64(len(v)) < n {
			return fmt.Errorf("%s: string length %d is less than minLength %v", path, len(v), n)
		}
		if n, ok := number(schema["maxLength"]); ok && float64(len(v)) > n {
			return fmt.Errorf("%s: string length %d is greater than maxLength %v", path, len(v), n)
		}
	default:
		if f, ok := number(value); ok {
			if n, ok := number(schema["minimum"]); ok && f < n {
				return fmt.Errorf("%s: %v is less than minimum %v", path, f, n)
			}
			if n, ok := number(schema["maximum"]); ok && f > n {
				return fmt.Errorf("%s: %v is greater than maximum %v", path, f, n)
			}
		}
	}
	return nil
}

func checkObject(schema map[string]any, obj map[string]any, path string) error {
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					return fmt.Errorf("%s: missing required field %q", path, field)
				}
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for field, ps := range props {
		val, exists := obj[field]
		sub, ok := ps.(map[string]any)
		if !exists || !ok {
			continue
		}
		if err := checkValue(sub, val, path+"."+field); err != nil {
			return err
		}
	}

	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		var extra []string
		for field := range obj {
			if _, defined := props[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			return fmt.Errorf("%s: additional properties not allowed: %s", path, strings.Join(extra, ", "))
		}
	}
	return nil
}

func typeMatches(expected string, value any) bool {
	actual := jsonType(value)
	switch {
	case actual == expected:
		return true
	case expected == "number" && actual == "integer":
		return true
	case expected == "integer" && actual == "number":
		f, _ := number(value)
		return f == float64(int64(f))
	}
	return false
}

func jsonType(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if strings.ContainsAny(string(n), ".eE") {
			return "number"
		}
		return "integer"
	case float64:
		return "number"
	case int, int64, uint64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// sameValue compares two decoded JSON values, treating numbers by value so
// json.Number("1") matches float64(1).
func sameValue(a, b any) bool {
	fa, aok := number(a)
	fb, bok := number(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
