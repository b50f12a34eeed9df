package schemafile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	dlcheck "github.com/reoring/dlcheck"
)

// Encode renders every schema of reg as a YAML schema document accepted by Parse.
func Encode(reg *dlcheck.Registry) ([]byte, error) {
	events := make(map[string]any, reg.Len())
	for _, name := range reg.Names() {
		s, _ := reg.Lookup(name)
		events[name] = encodeObject(&dlcheck.Object{Required: s.Required, Fields: s.Fields, AllowUnknown: s.AllowUnknown}, false)
	}
	out, err := yaml.Marshal(map[string]any{"events": events})
	if err != nil {
		return nil, fmt.Errorf("schemafile: encode: %w", err)
	}
	return out, nil
}

func encodeObject(o *dlcheck.Object, typed bool) map[string]any {
	m := map[string]any{}
	if typed {
		m["type"] = "object"
	}
	if len(o.Required) > 0 {
		m["required"] = o.Required
	}
	if o.AllowUnknown {
		m["additionalProperties"] = true
	}
	if o.Optional {
		m["optional"] = true
	}
	if len(o.Fields) > 0 {
		props := make(map[string]any, len(o.Fields))
		for k, fs := range o.Fields {
			props[k] = encodeField(fs)
		}
		m["properties"] = props
	}
	return m
}

func encodeField(fs dlcheck.FieldSpec) map[string]any {
	switch t := fs.(type) {
	case *dlcheck.Object:
		return encodeObject(t, true)
	case *dlcheck.Array:
		m := map[string]any{"type": "array"}
		if t.MinItems != nil {
			m["minItems"] = *t.MinItems
		}
		if t.MaxItems != nil {
			m["maxItems"] = *t.MaxItems
		}
		if t.Optional {
			m["optional"] = true
		}
		item := map[string]any{}
		if len(t.Items.Required) > 0 {
			item["required"] = t.Items.Required
		}
		if len(t.Items.Fields) > 0 {
			props := make(map[string]any, len(t.Items.Fields))
			for k, ps := range t.Items.Fields {
				props[k] = encodePrimitive(ps)
			}
			item["properties"] = props
		}
		if len(item) > 0 {
			m["itemSchema"] = item
		}
		return m
	case *dlcheck.Primitive:
		return encodePrimitive(t)
	}
	return map[string]any{}
}

func encodePrimitive(p *dlcheck.Primitive) map[string]any {
	m := map[string]any{"type": string(p.Type)}
	if p.HasConst {
		m["const"] = p.Const
	}
	if len(p.Enum) > 0 {
		m["enum"] = p.Enum
	}
	if p.Pattern != nil {
		m["pattern"] = p.Pattern.String()
	}
	if p.MinLength != nil {
		m["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		m["maxLength"] = *p.MaxLength
	}
	if p.Minimum != nil {
		m["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		m["maximum"] = *p.Maximum
	}
	if p.Optional {
		m["optional"] = true
	}
	return m
}
