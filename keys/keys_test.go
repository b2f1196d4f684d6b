package keys_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stevemurr/laws/dberr"
	"github.com/stevemurr/laws/keys"
)

func TestDatatypeNamesAndTags(t *testing.T) {
	tests := []struct {
		name string
		dt   keys.Datatype
		tag  uint8
	}{
		{"Null", keys.Null, 0},
		{"Boolean", keys.Boolean, 1},
		{"SignedInt", keys.SignedInt, 2},
		{"UnsignedInt", keys.UnsignedInt, 3},
		{"Float", keys.Float, 4},
		{"String", keys.String, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dt.String() != tc.name {
				t.Fatalf("String() = %q, want %q", tc.dt.String(), tc.name)
			}
			parsed, err := keys.ParseDatatype(tc.name)
			if err != nil || parsed != tc.dt {
				t.Fatalf("ParseDatatype(%q) = %v, %v", tc.name, parsed, err)
			}
			if tc.dt.Tag() != tc.tag {
				t.Fatalf("Tag() = %d, want %d", tc.dt.Tag(), tc.tag)
			}
			if keys.FromTag(tc.tag) != tc.dt {
				t.Fatalf("FromTag(%d) = %v", tc.tag, keys.FromTag(tc.tag))
			}
		})
	}

	if keys.FromTag(42) != keys.Null {
		t.Fatal("unknown tag should map to Null")
	}
	if _, err := keys.ParseDatatype("Decimal"); !errors.Is(err, dberr.ErrBadInput) {
		t.Fatalf("expected BadInput for unknown datatype, got %v", err)
	}
}

func TestKeyJSON(t *testing.T) {
	var k keys.Key
	if err := json.Unmarshal([]byte(`{"name":"grade","datatype":"UnsignedInt"}`), &k); err != nil {
		t.Fatal(err)
	}
	if k.Name != "grade" || k.Datatype != keys.UnsignedInt {
		t.Fatalf("unexpected key %+v", k)
	}
	b, err := json.Marshal(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"name":"grade","datatype":"UnsignedInt"}` {
		t.Fatalf("unexpected encoding %s", b)
	}
	if err := json.Unmarshal([]byte(`{"name":"grade","datatype":7}`), &k); err == nil {
		t.Fatal("expected error for numeric datatype")
	}
}

func TestExtractUnsigned(t *testing.T) {
	k := keys.Key{Name: "grade", Datatype: keys.UnsignedInt}

	tests := []struct {
		name string
		doc  any
		want uint64
		kind error
	}{
		{"json number", map[string]any{"grade": json.Number("9")}, 9, nil},
		{"max uint64", map[string]any{"grade": json.Number("18446744073709551615")}, 18446744073709551615, nil},
		{"float64 whole", map[string]any{"grade": float64(12)}, 12, nil},
		{"negative", map[string]any{"grade": json.Number("-1")}, 0, dberr.ErrMissingFields},
		{"fraction", map[string]any{"grade": json.Number("9.5")}, 0, dberr.ErrMissingFields},
		{"string", map[string]any{"grade": "9"}, 0, dberr.ErrMissingFields},
		{"absent", map[string]any{"id": json.Number("1")}, 0, dberr.ErrMissingFields},
		{"not object", []any{json.Number("9")}, 0, dberr.ErrBadInput},
		{"nil", nil, 0, dberr.ErrBadInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := keys.Extract(k, keys.UnsignedIntCodec, tc.doc)
			if tc.kind != nil {
				if !errors.Is(err, tc.kind) {
					t.Fatalf("expected %v, got %v", tc.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExtractOtherDatatypes(t *testing.T) {
	doc := map[string]any{
		"flag":  true,
		"delta": json.Number("-40"),
		"score": json.Number("2.5"),
		"name":  "amy",
	}

	if v, err := keys.Extract(keys.Key{Name: "flag", Datatype: keys.Boolean}, keys.BooleanCodec, doc); err != nil || !v {
		t.Fatalf("boolean: %v, %v", v, err)
	}
	if v, err := keys.Extract(keys.Key{Name: "delta", Datatype: keys.SignedInt}, keys.SignedIntCodec, doc); err != nil || v != -40 {
		t.Fatalf("signed: %v, %v", v, err)
	}
	if v, err := keys.Extract(keys.Key{Name: "score", Datatype: keys.Float}, keys.FloatCodec, doc); err != nil || v != 2.5 {
		t.Fatalf("float: %v, %v", v, err)
	}
	if v, err := keys.Extract(keys.Key{Name: "name", Datatype: keys.String}, keys.StringCodec, doc); err != nil || v != "amy" {
		t.Fatalf("string: %v, %v", v, err)
	}
	if _, err := keys.Extract(keys.Key{Name: "missing", Datatype: keys.Null}, keys.NullCodec, doc); err != nil {
		t.Fatalf("null key should tolerate absence: %v", err)
	}
	if _, err := keys.Extract(keys.Key{Name: "name", Datatype: keys.Boolean}, keys.BooleanCodec, doc); !errors.Is(err, dberr.ErrMissingFields) {
		t.Fatalf("expected MissingFields for type mismatch, got %v", err)
	}
	if _, err := keys.Extract(keys.Key{Name: "score", Datatype: keys.SignedInt}, keys.SignedIntCodec, doc); !errors.Is(err, dberr.ErrMissingFields) {
		t.Fatalf("expected MissingFields for fractional signed key, got %v", err)
	}
}

func TestExtractCodecMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched codec")
		}
	}()
	keys.Extract(keys.Key{Name: "x", Datatype: keys.String}, keys.SignedIntCodec, map[string]any{"x": "a"})
}

func TestCodecOrdering(t *testing.T) {
	if !keys.BooleanCodec.Less(false, true) || keys.BooleanCodec.Less(true, false) {
		t.Fatal("expected false < true")
	}
	if !keys.SignedIntCodec.Less(-3, 2) {
		t.Fatal("expected -3 < 2")
	}
	if !keys.StringCodec.Less("a", "b") {
		t.Fatal("expected a < b")
	}
	if keys.NullCodec.Compare(struct{}{}, struct{}{}) != 0 {
		t.Fatal("null values are equal")
	}
}
