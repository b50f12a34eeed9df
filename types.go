package dlcheck

// SpecKind identifies a FieldSpec variant.
type SpecKind int

const (
	SpecPrimitive SpecKind = iota
	SpecObject
	SpecArray
)

func (k SpecKind) String() string {
	switch k {
	case SpecPrimitive:
		return "primitive"
	case SpecObject:
		return "object"
	case SpecArray:
		return "array"
	default:
		return "unknown"
	}
}

// PrimitiveType is the expected runtime type of a primitive field.
type PrimitiveType string

const (
	TypeString  PrimitiveType = "string"
	TypeNumber  PrimitiveType = "number"
	TypeInteger PrimitiveType = "integer" // whole numbers only; 4.0 passes, 4.5 fails.
	TypeBoolean PrimitiveType = "boolean"
)

// Valid reports whether t is one of the known primitive types.
func (t PrimitiveType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean:
		return true
	}
	return false
}

// DefaultMaxDepth bounds object nesting during validation and registration.
const DefaultMaxDepth = 32

// ValidateOpt bundles validation options.
type ValidateOpt struct {
	// MaxDepth limits object nesting below the record root. Zero selects DefaultMaxDepth.
	MaxDepth int
}

func (o ValidateOpt) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Ptr returns a pointer to v. It keeps hand-authored schema literals short.
func Ptr[T any](v T) *T { return &v }
