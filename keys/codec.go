package keys

import (
	"cmp"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Codec decodes and orders the values of one datatype. A table holds one
// codec per key role, so values of different datatypes are never compared.
type Codec[T any] struct {
	Datatype Datatype
	Compare  func(a, b T) int
	decode   func(v any) (T, bool)
}

// Less reports whether a sorts before b.
func (c Codec[T]) Less(a, b T) bool {
	return c.Compare(a, b) < 0
}

// Decode converts a decoded JSON value to T, reporting whether it has the right type.
func (c Codec[T]) Decode(v any) (T, bool) {
	return c.decode(v)
}

var (
	NullCodec = Codec[struct{}]{
		Datatype: Null,
		Compare:  func(struct{}, struct{}) int { return 0 },
		decode:   func(any) (struct{}, bool) { return struct{}{}, true },
	}
	BooleanCodec = Codec[bool]{
		Datatype: Boolean,
		Compare:  compareBool,
		decode: func(v any) (bool, bool) {
			b, ok := v.(bool)
			return b, ok
		},
	}
	SignedIntCodec = Codec[int64]{
		Datatype: SignedInt,
		Compare:  cmp.Compare[int64],
		decode:   decodeSigned,
	}
	UnsignedIntCodec = Codec[uint64]{
		Datatype: UnsignedInt,
		Compare:  cmp.Compare[uint64],
		decode:   decodeUnsigned,
	}
	FloatCodec = Codec[float64]{
		Datatype: Float,
		Compare:  cmp.Compare[float64],
		decode:   decodeFloat,
	}
	StringCodec = Codec[string]{
		Datatype: String,
		Compare:  strings.Compare,
		decode: func(v any) (string, bool) {
			s, ok := v.(string)
			return s, ok
		},
	}
)

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Documents decoded with json.Decoder.UseNumber carry json.Number; documents
// built in Go carry float64 or native integers.

func decodeSigned(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func decodeUnsigned(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(string(n), 10, 64)
		return u, err == nil
	case float64:
		if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func decodeFloat(v any) (float64, bool) {
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
