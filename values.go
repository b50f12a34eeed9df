package dlcheck

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// TypeName names the runtime type of a decoded value the way violation
// messages present it: string, number, boolean, object, array or null.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any, []map[string]any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// FormatValue renders a value for inclusion in a message.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case *regexp.Regexp:
		return t.String()
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, len(t))
		for i := range t {
			parts[i] = FormatValue(t[i])
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// asSequence returns the elements of an array value. Decoders produce []any;
// records built in Go often carry []map[string]any instead.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			if m != nil {
				out[i] = m
			}
		}
		return out, true
	}
	return nil, false
}

// toFloat converts any numeric representation produced by JSON/YAML decoders
// or Go literals into float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// isWholeNumber mirrors Number.isInteger: finite and without a fractional part.
func isWholeNumber(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return math.Trunc(f) == f
}

// equalValue compares decoded values; numbers compare by value regardless of
// their Go representation.
func equalValue(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA || okB {
		return okA && okB && fa == fb
	}
	return reflect.DeepEqual(a, b)
}
