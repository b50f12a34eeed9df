package dlcheck

import js "github.com/reoring/dlcheck/jsonschema"

// JSONSchema projects the event schema into a JSON Schema document titled
// with the event name. Array items always allow additional properties.
func (s *EventSchema) JSONSchema(title string) *js.Schema {
	out := objectJSONSchema(s.object())
	out.SchemaURI = js.Draft
	out.Title = title
	return out
}

// JSONSchema exports the schema registered for name.
func (r *Registry) JSONSchema(name string) (*js.Schema, error) {
	s, err := r.Schema(name)
	if err != nil {
		return nil, err
	}
	return s.JSONSchema(name), nil
}

func objectJSONSchema(o *Object) *js.Schema {
	out := &js.Schema{
		Type:                 "object",
		Required:             append([]string(nil), o.Required...),
		AdditionalProperties: js.Bool(o.AllowUnknown),
	}
	if len(o.Fields) > 0 {
		out.Properties = make(map[string]*js.Schema, len(o.Fields))
	}
	for k, fs := range o.Fields {
		out.Properties[k] = fieldJSONSchema(fs)
	}
	return out
}

func fieldJSONSchema(fs FieldSpec) *js.Schema {
	switch t := fs.(type) {
	case *Primitive:
		return primitiveJSONSchema(t)
	case *Object:
		return objectJSONSchema(t)
	case *Array:
		item := &js.Schema{
			Type:                 "object",
			Required:             append([]string(nil), t.Items.Required...),
			AdditionalProperties: js.Bool(true),
		}
		if len(t.Items.Fields) > 0 {
			item.Properties = make(map[string]*js.Schema, len(t.Items.Fields))
		}
		for k, ps := range t.Items.Fields {
			item.Properties[k] = primitiveJSONSchema(ps)
		}
		return &js.Schema{Type: "array", MinItems: t.MinItems, MaxItems: t.MaxItems, Items: item}
	}
	return &js.Schema{}
}

func primitiveJSONSchema(p *Primitive) *js.Schema {
	out := &js.Schema{
		Type:      string(p.Type),
		Enum:      p.Enum,
		MinLength: p.MinLength,
		MaxLength: p.MaxLength,
		Minimum:   p.Minimum,
		Maximum:   p.Maximum,
	}
	if p.HasConst {
		out.Const = p.Const
	}
	if p.Pattern != nil {
		out.Pattern = p.Pattern.String()
	}
	return out
}
