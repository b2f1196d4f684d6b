package validation_test

import (
	"errors"
	"testing"

	"github.com/stevemurr/laws/dberr"
	"github.com/stevemurr/laws/validation"
)

func TestRequireStrings(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		kind    error
	}{
		{"present", map[string]any{"table_name": "students"}, nil},
		{"absent", map[string]any{}, dberr.ErrMissingFields},
		{"null", map[string]any{"table_name": nil}, dberr.ErrMissingFields},
		{"number", map[string]any{"table_name": float64(3)}, dberr.ErrBadInput},
		{"not object", "students", dberr.ErrBadInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validation.RequireStrings(tc.payload, "table_name")
			if tc.kind == nil {
				if err != nil {
					t.Fatalf("expected pass: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestRequireKeys(t *testing.T) {
	good := map[string]any{"name": "grade", "datatype": "UnsignedInt"}
	tests := []struct {
		name    string
		payload any
		kind    error
	}{
		{"both present", map[string]any{"primary_key": good, "sort_key": good}, nil},
		{"sort key absent", map[string]any{"primary_key": good}, dberr.ErrMissingFields},
		{"key is string", map[string]any{"primary_key": "grade", "sort_key": good}, dberr.ErrBadInput},
		{"name absent", map[string]any{"primary_key": map[string]any{"datatype": "String"}, "sort_key": good}, dberr.ErrMissingFields},
		{"datatype not string", map[string]any{"primary_key": map[string]any{"name": "a", "datatype": float64(1)}, "sort_key": good}, dberr.ErrBadInput},
		{"not object", []any{}, dberr.ErrBadInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validation.RequireKeys(tc.payload, "primary_key", "sort_key")
			if tc.kind == nil {
				if err != nil {
					t.Fatalf("expected pass: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}
