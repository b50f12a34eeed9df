// Package schemafile loads a dlcheck.Registry from a YAML (or JSON) schema
// document and renders a registry back into that format.
//
// The document keys mirror the dataLayer schema registry format:
//
//	events:
//	  purchase:
//	    required: [event, ecommerce]
//	    additionalProperties: false
//	    properties:
//	      event: {type: string, const: purchase}
//	      ecommerce:
//	        type: object
//	        required: [transaction_id]
//	        properties:
//	          transaction_id: {type: string, pattern: "^[A-Z0-9_-]+$", minLength: 5}
//	          items:
//	            type: array
//	            minItems: 1
//	            itemSchema:
//	              required: [item_id]
//	              properties:
//	                item_id: {type: string}
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/source"
)

// Load reads and parses a schema file.
func Load(path string) (*dlcheck.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// LoadFS reads and parses a schema file from fsys.
func LoadFS(fsys fs.FS, path string) (*dlcheck.Registry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from a schema document. Multiple YAML documents are
// merged; an event defined twice is an error.
func Parse(data []byte) (*dlcheck.Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	schemas := map[string]*dlcheck.EventSchema{}
	docs := 0
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("schemafile: %w", err)
		}
		docs++
		root, ok := source.NormalizeYAML(node).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document %d is not a mapping", dlcheck.ErrInvalidSchema, docs)
		}
		events, ok := root["events"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document %d has no events mapping", dlcheck.ErrInvalidSchema, docs)
		}
		for _, name := range sortedKeys(events) {
			if _, dup := schemas[name]; dup {
				return nil, &dlcheck.SchemaError{Event: name, Err: fmt.Errorf("%w: defined twice", dlcheck.ErrInvalidSchema)}
			}
			p := parser{event: name}
			s, err := p.eventSchema(events[name])
			if err != nil {
				return nil, err
			}
			schemas[name] = s
		}
	}
	if docs == 0 {
		return nil, fmt.Errorf("%w: empty document", dlcheck.ErrInvalidSchema)
	}
	return dlcheck.NewRegistry(schemas)
}

type parser struct {
	event string
}

func (p parser) fail(path dlcheck.PathRef, format string, a ...any) error {
	return &dlcheck.SchemaError{
		Event: p.event,
		Path:  path.String(),
		Err:   fmt.Errorf("%w: %s", dlcheck.ErrInvalidSchema, fmt.Sprintf(format, a...)),
	}
}

var (
	objectKeys    = keySet("type", "required", "properties", "additionalProperties", "optional", "description")
	arrayKeys     = keySet("type", "minItems", "maxItems", "itemSchema", "optional", "description")
	itemKeys      = keySet("required", "properties", "description")
	primitiveKeys = keySet("type", "const", "enum", "pattern", "minLength", "maxLength", "minimum", "maximum", "optional", "description")
)

func (p parser) eventSchema(v any) (*dlcheck.EventSchema, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, p.fail(dlcheck.Root(), "event schema must be a mapping")
	}
	if t, ok := m["type"]; ok && t != "object" {
		return nil, p.fail(dlcheck.Root(), "event schema type must be object, got %v", t)
	}
	o, err := p.object(dlcheck.Root(), m)
	if err != nil {
		return nil, err
	}
	return &dlcheck.EventSchema{Required: o.Required, Fields: o.Fields, AllowUnknown: o.AllowUnknown}, nil
}

func (p parser) field(path dlcheck.PathRef, v any) (dlcheck.FieldSpec, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, p.fail(path, "field spec must be a mapping")
	}
	t, _ := m["type"].(string)
	switch t {
	case "object":
		return p.object(path, m)
	case "array":
		return p.array(path, m)
	case "":
		return nil, p.fail(path, "missing type")
	default:
		return p.primitive(path, m)
	}
}

func (p parser) object(path dlcheck.PathRef, m map[string]any) (*dlcheck.Object, error) {
	if err := p.checkKeys(path, m, objectKeys); err != nil {
		return nil, err
	}
	o := &dlcheck.Object{}
	var err error
	if o.Required, err = p.strings(path, m, "required"); err != nil {
		return nil, err
	}
	if o.AllowUnknown, err = p.boolean(path, m, "additionalProperties"); err != nil {
		return nil, err
	}
	if o.Optional, err = p.boolean(path, m, "optional"); err != nil {
		return nil, err
	}
	props, err := p.mapping(path, m, "properties")
	if err != nil {
		return nil, err
	}
	if props == nil {
		// An object without declared properties accepts any keys.
		o.AllowUnknown = true
		return o, nil
	}
	o.Fields = make(map[string]dlcheck.FieldSpec, len(props))
	for _, k := range sortedKeys(props) {
		fs, err := p.field(path.Field(k), props[k])
		if err != nil {
			return nil, err
		}
		o.Fields[k] = fs
	}
	return o, nil
}

func (p parser) array(path dlcheck.PathRef, m map[string]any) (*dlcheck.Array, error) {
	if err := p.checkKeys(path, m, arrayKeys); err != nil {
		return nil, err
	}
	a := &dlcheck.Array{}
	var err error
	if a.MinItems, err = p.intPtr(path, m, "minItems"); err != nil {
		return nil, err
	}
	if a.MaxItems, err = p.intPtr(path, m, "maxItems"); err != nil {
		return nil, err
	}
	if a.Optional, err = p.boolean(path, m, "optional"); err != nil {
		return nil, err
	}
	item, err := p.mapping(path, m, "itemSchema")
	if err != nil || item == nil {
		return a, err
	}
	ip := path.Index(0)
	if err := p.checkKeys(ip, item, itemKeys); err != nil {
		return nil, err
	}
	if a.Items.Required, err = p.strings(ip, item, "required"); err != nil {
		return nil, err
	}
	props, err := p.mapping(ip, item, "properties")
	if err != nil {
		return nil, err
	}
	if len(props) > 0 {
		a.Items.Fields = make(map[string]*dlcheck.Primitive, len(props))
	}
	for _, k := range sortedKeys(props) {
		fm, ok := props[k].(map[string]any)
		if !ok {
			return nil, p.fail(ip.Field(k), "field spec must be a mapping")
		}
		ps, err := p.primitive(ip.Field(k), fm)
		if err != nil {
			return nil, err
		}
		a.Items.Fields[k] = ps
	}
	return a, nil
}

func (p parser) primitive(path dlcheck.PathRef, m map[string]any) (*dlcheck.Primitive, error) {
	if err := p.checkKeys(path, m, primitiveKeys); err != nil {
		return nil, err
	}
	t, _ := m["type"].(string)
	s := &dlcheck.Primitive{Type: dlcheck.PrimitiveType(t)}
	if !s.Type.Valid() {
		return nil, p.fail(path, "unknown type %q", t)
	}
	if c, ok := m["const"]; ok {
		s.Const, s.HasConst = c, true
	}
	if e, ok := m["enum"]; ok {
		list, ok := e.([]any)
		if !ok || len(list) == 0 {
			return nil, p.fail(path, "enum must be a non-empty list")
		}
		s.Enum = list
	}
	if pat, ok := m["pattern"]; ok {
		expr, ok := pat.(string)
		if !ok {
			return nil, p.fail(path, "pattern must be a string")
		}
		re, err := regexp.Compile(stripSlashes(expr))
		if err != nil {
			return nil, p.fail(path, "pattern: %v", err)
		}
		s.Pattern = re
	}
	var err error
	if s.MinLength, err = p.intPtr(path, m, "minLength"); err != nil {
		return nil, err
	}
	if s.MaxLength, err = p.intPtr(path, m, "maxLength"); err != nil {
		return nil, err
	}
	if s.Minimum, err = p.floatPtr(path, m, "minimum"); err != nil {
		return nil, err
	}
	if s.Maximum, err = p.floatPtr(path, m, "maximum"); err != nil {
		return nil, err
	}
	if s.Optional, err = p.boolean(path, m, "optional"); err != nil {
		return nil, err
	}
	return s, nil
}

// stripSlashes accepts regex literals written as /expr/.
func stripSlashes(expr string) string {
	if len(expr) >= 2 && strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") {
		return expr[1 : len(expr)-1]
	}
	return expr
}

func (p parser) checkKeys(path dlcheck.PathRef, m map[string]any, allowed map[string]struct{}) error {
	for _, k := range sortedKeys(m) {
		if _, ok := allowed[k]; !ok {
			return p.fail(path, "unsupported keyword %q", k)
		}
	}
	return nil
}

func (p parser) strings(path dlcheck.PathRef, m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, p.fail(path, "%s must be a list", key)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok || s == "" {
			return nil, p.fail(path, "%s entries must be non-empty strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p parser) boolean(path dlcheck.PathRef, m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, p.fail(path, "%s must be a boolean", key)
	}
	return b, nil
}

func (p parser) mapping(path dlcheck.PathRef, m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	mm, ok := v.(map[string]any)
	if !ok {
		return nil, p.fail(path, "%s must be a mapping", key)
	}
	return mm, nil
}

func (p parser) intPtr(path dlcheck.PathRef, m map[string]any, key string) (*int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			return nil, p.fail(path, "%s must not be negative", key)
		}
		return dlcheck.Ptr(n), nil
	case float64:
		if n >= 0 && n == float64(int(n)) {
			return dlcheck.Ptr(int(n)), nil
		}
	}
	return nil, p.fail(path, "%s must be a non-negative integer", key)
}

func (p parser) floatPtr(path dlcheck.PathRef, m map[string]any, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case int:
		return dlcheck.Ptr(float64(n)), nil
	case float64:
		return dlcheck.Ptr(n), nil
	}
	return nil, p.fail(path, "%s must be a number", key)
}

func keySet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
