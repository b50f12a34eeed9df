package dlcheck

import (
	"fmt"
	"sort"
)

// MaxSchemaDepth is the deepest Object nesting accepted at registration.
const MaxSchemaDepth = DefaultMaxDepth

// Registry is an immutable mapping from event name to EventSchema. It is safe
// for concurrent use.
type Registry struct {
	schemas map[string]*EventSchema
	names   []string
}

// NewRegistry checks every schema once and returns a read-only registry.
// The input map is copied; callers must not mutate the schemas afterwards.
func NewRegistry(schemas map[string]*EventSchema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*EventSchema, len(schemas))}
	for name, s := range schemas {
		if name == "" {
			return nil, &SchemaError{Event: name, Err: fmt.Errorf("%w: empty event name", ErrInvalidSchema)}
		}
		if s == nil {
			return nil, &SchemaError{Event: name, Err: fmt.Errorf("%w: nil schema", ErrInvalidSchema)}
		}
		if err := checkObject(name, Root(), s.object(), 0); err != nil {
			return nil, err
		}
		r.schemas[name] = s
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for
// hand-authored schema constants.
func MustRegistry(schemas map[string]*EventSchema) *Registry {
	r, err := NewRegistry(schemas)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the schema registered for name.
func (r *Registry) Lookup(name string) (*EventSchema, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.schemas[name]
	return s, ok
}

// Schema is like Lookup but returns ErrUnknownEvent when name is unregistered.
func (r *Registry) Schema(name string) (*EventSchema, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return s, nil
}

// Names returns the registered event names in ascending order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}

func checkObject(event string, p PathRef, o *Object, depth int) error {
	if depth > MaxSchemaDepth {
		return &SchemaError{Event: event, Path: p.String(), Err: ErrSchemaTooDeep}
	}
	if err := checkRequired(event, p, o.Required); err != nil {
		return err
	}
	for _, k := range sortedKeys(o.Fields) {
		fp := p.Field(k)
		switch fs := o.Fields[k].(type) {
		case *Primitive:
			if err := checkPrimitive(event, fp, fs); err != nil {
				return err
			}
		case *Object:
			if fs == nil {
				return invalid(event, fp, "nil object spec")
			}
			if err := checkObject(event, fp, fs, depth+1); err != nil {
				return err
			}
		case *Array:
			if err := checkArray(event, fp, fs); err != nil {
				return err
			}
		default:
			return invalid(event, fp, fmt.Sprintf("unsupported field spec %T", fs))
		}
	}
	return nil
}

func checkArray(event string, p PathRef, a *Array) error {
	if a == nil {
		return invalid(event, p, "nil array spec")
	}
	if a.MinItems != nil && a.MaxItems != nil && *a.MinItems > *a.MaxItems {
		return invalid(event, p, "minItems greater than maxItems")
	}
	if err := checkRequired(event, p, a.Items.Required); err != nil {
		return err
	}
	for _, k := range sortedKeys(a.Items.Fields) {
		if err := checkPrimitive(event, p.Index(0).Field(k), a.Items.Fields[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkPrimitive(event string, p PathRef, s *Primitive) error {
	if s == nil {
		return invalid(event, p, "nil primitive spec")
	}
	if !s.Type.Valid() {
		return invalid(event, p, fmt.Sprintf("unknown primitive type %q", s.Type))
	}
	if s.MinLength != nil && s.MaxLength != nil && *s.MinLength > *s.MaxLength {
		return invalid(event, p, "minLength greater than maxLength")
	}
	if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
		return invalid(event, p, "minimum greater than maximum")
	}
	return nil
}

func checkRequired(event string, p PathRef, required []string) error {
	for _, name := range required {
		if name == "" {
			return invalid(event, p, "empty required field name")
		}
	}
	return nil
}

func invalid(event string, p PathRef, msg string) error {
	return &SchemaError{Event: event, Path: p.String(), Err: fmt.Errorf("%w: %s", ErrInvalidSchema, msg)}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
