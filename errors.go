package dlcheck

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnknownEvent     = "unknown_event"
	CodeMissingRecord    = "missing_record"
	CodeRequired         = "required"
	CodeUnknownKey       = "unknown_key"
	CodeInvalidType      = "invalid_type"
	CodeConstMismatch    = "const_mismatch"
	CodeInvalidEnum      = "invalid_enum"
	CodePattern          = "pattern"
	CodeLengthOutOfRange = "length_out_of_range"
	CodeRangeOutOfBounds = "range_out_of_bounds"
	CodeArraySize        = "array_size_out_of_range"
	CodeItemRequired     = "array_item_required"
	CodeSchemaTooDeep    = "schema_too_deep"
)

// Issue represents a single violation.
type Issue struct {
	Path    string `json:"path"` // Dotted path (for example: ecommerce.items[2].price).
	Code    string `json:"code"` // One of the codes listed above.
	Message string `json:"message"`
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
}

// Issues is a collection of violations that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at ecommerce.currency
		path := it.Path
		if path == "" {
			path = "<root>"
		}
		fmt.Fprintf(b, "%s at %s", it.Code, path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

var (
	// ErrInvalidSchema marks a malformed schema definition.
	ErrInvalidSchema = errors.New("dlcheck: invalid schema")
	// ErrSchemaTooDeep marks a schema nested deeper than the registration limit,
	// which is also how cyclic Object references surface.
	ErrSchemaTooDeep = errors.New("dlcheck: schema too deep")
	// ErrUnknownEvent is returned by lookups for unregistered event names.
	ErrUnknownEvent = errors.New("dlcheck: unknown event")
)

// SchemaError reports a programmer error found while registering a schema.
type SchemaError struct {
	Event string
	Path  string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema %q: %v", e.Event, e.Err)
	}
	return fmt.Sprintf("schema %q at %s: %v", e.Event, e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
