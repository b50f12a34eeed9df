package dlcheck

import "regexp"

// FieldSpec is the contract for one field. It is implemented by *Primitive,
// *Object and *Array only.
type FieldSpec interface {
	Kind() SpecKind
	isFieldSpec()
}

// Primitive constrains a scalar field. Nil pointers and empty slices disable
// the corresponding check.
type Primitive struct {
	Type PrimitiveType

	// Const is compared for exact equality when HasConst is set, so that a
	// const of null can be expressed.
	Const    any
	HasConst bool
	Enum     []any

	Pattern *regexp.Regexp // applied to string values only

	// MinLength and MaxLength count Unicode code points, not UTF-16 code
	// units: an emoji outside the BMP has length 1.
	MinLength *int
	MaxLength *int
	Minimum   *float64 // inclusive
	Maximum   *float64 // inclusive

	// Optional is documentation; presence is governed by the enclosing Required list.
	Optional bool
}

func (*Primitive) Kind() SpecKind { return SpecPrimitive }
func (*Primitive) isFieldSpec()   {}

// Object constrains a nested mapping. It has the same shape as EventSchema.
type Object struct {
	Required     []string
	Fields       map[string]FieldSpec
	AllowUnknown bool
	Optional     bool
}

func (*Object) Kind() SpecKind { return SpecObject }
func (*Object) isFieldSpec()   {}

// Array constrains a sequence of objects.
type Array struct {
	MinItems *int
	MaxItems *int
	Items    ItemSpec
	Optional bool
}

func (*Array) Kind() SpecKind { return SpecArray }
func (*Array) isFieldSpec()   {}

// ItemSpec constrains each element of an Array. Item keys missing from Fields
// are always tolerated, regardless of the enclosing object's policy.
type ItemSpec struct {
	Required []string
	Fields   map[string]*Primitive
}

// EventSchema is the structural contract of one named event.
type EventSchema struct {
	Required     []string
	Fields       map[string]FieldSpec
	AllowUnknown bool
}

func (s *EventSchema) object() *Object {
	return &Object{Required: s.Required, Fields: s.Fields, AllowUnknown: s.AllowUnknown}
}

// MustPattern compiles a pattern for a hand-authored schema and panics on error.
func MustPattern(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }
