package dlcheck

import (
	"sort"
	"unicode/utf8"
)

// Validate checks record against the schema registered for eventName and
// returns every violation found. It never panics or fails for malformed data:
// an unknown event, a nil record or a non-object record all degrade to
// violations inside the report.
//
// Validate does not mutate record or reg and is safe for concurrent use.
func Validate(eventName string, record any, reg *Registry, opts ...ValidateOpt) Report {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	rep := Report{Event: eventName}

	schema, ok := reg.Lookup(eventName)
	if !ok {
		rep.Violations = Issues{Root().Issue(CodeUnknownEvent, "unknown_event", "event", eventName)}
		return rep
	}
	if record == nil {
		rep.Violations = Issues{Root().Issue(CodeMissingRecord, "missing_record")}
		return rep
	}
	m, ok := record.(map[string]any)
	if !ok {
		rep.Violations = Issues{Root().Issue(CodeInvalidType, "invalid_record", "expected", "object", "got", TypeName(record))}
		return rep
	}
	if m == nil {
		rep.Violations = Issues{Root().Issue(CodeMissingRecord, "missing_record")}
		return rep
	}

	v := validator{maxDepth: opt.maxDepth()}
	v.object(Root(), m, schema.object(), 0)
	rep.Violations = v.iss
	return rep
}

// ValidateRecord validates a record against the schema named by its own
// "event" field.
func ValidateRecord(record map[string]any, reg *Registry, opts ...ValidateOpt) Report {
	if record == nil {
		return Report{Violations: Issues{Root().Issue(CodeMissingRecord, "missing_record")}}
	}
	name, _ := record["event"].(string)
	return Validate(name, record, reg, opts...)
}

// validator accumulates issues for a single Validate call.
type validator struct {
	iss      Issues
	maxDepth int
}

func (v *validator) add(it Issue) { v.iss = append(v.iss, it) }

// object applies the required-field and field-by-field checks to m.
func (v *validator) object(p PathRef, m map[string]any, o *Object, depth int) {
	if depth > v.maxDepth {
		v.add(p.Issue(CodeSchemaTooDeep, "schema_too_deep", "max", v.maxDepth))
		return
	}
	for _, name := range o.Required {
		if _, exists := m[name]; !exists {
			v.add(p.Field(name).Issue(CodeRequired, "required", "field", name))
		}
	}
	for _, k := range sortedKeys(m) {
		fp := p.Field(k)
		spec, known := o.Fields[k]
		if !known {
			if !o.AllowUnknown {
				v.add(fp.Issue(CodeUnknownKey, "unknown_key", "field", k))
			}
			continue
		}
		v.field(fp, m[k], spec, depth)
	}
}

func (v *validator) field(p PathRef, val any, spec FieldSpec, depth int) {
	switch fs := spec.(type) {
	case *Primitive:
		v.primitive(p, val, fs)
	case *Object:
		nm, ok := val.(map[string]any)
		if !ok || nm == nil {
			v.add(p.Issue(CodeInvalidType, "invalid_type", "expected", "object", "got", TypeName(val)))
			return
		}
		v.object(p, nm, fs, depth+1)
	case *Array:
		v.array(p, val, fs)
	}
}

func (v *validator) array(p PathRef, val any, a *Array) {
	arr, ok := asSequence(val)
	if !ok {
		v.add(p.Issue(CodeInvalidType, "invalid_type", "expected", "array", "got", TypeName(val)))
		return
	}
	n := len(arr)
	if a.MinItems != nil && n < *a.MinItems {
		v.add(p.Issue(CodeArraySize, "items_below_min", "len", n, "min", *a.MinItems))
	}
	if a.MaxItems != nil && n > *a.MaxItems {
		v.add(p.Issue(CodeArraySize, "items_above_max", "len", n, "max", *a.MaxItems))
	}
	for i, el := range arr {
		ip := p.Index(i)
		item, ok := el.(map[string]any)
		if !ok || item == nil {
			v.add(ip.Issue(CodeInvalidType, "item_not_object", "expected", "object", "got", TypeName(el)))
			continue
		}
		for _, name := range a.Items.Required {
			if _, exists := item[name]; !exists {
				v.add(ip.Field(name).Issue(CodeItemRequired, "array_item_required", "field", name))
			}
		}
		for _, k := range sortedKeys(item) {
			if ps, known := a.Items.Fields[k]; known {
				v.primitive(ip.Field(k), item[k], ps)
			}
		}
	}
}

// primitive type-checks val first; on mismatch the remaining checks are skipped.
// Otherwise every constraint is checked independently.
func (v *validator) primitive(p PathRef, val any, s *Primitive) {
	if !v.typeMatches(p, val, s.Type) {
		return
	}
	if s.HasConst && !equalValue(val, s.Const) {
		v.add(p.Issue(CodeConstMismatch, "const_mismatch", "want", s.Const, "value", val))
	}
	if len(s.Enum) > 0 && !containsValue(s.Enum, val) {
		v.add(p.Issue(CodeInvalidEnum, "invalid_enum", "value", val, "allowed", s.Enum))
	}
	if str, ok := val.(string); ok {
		if s.Pattern != nil && !s.Pattern.MatchString(str) {
			v.add(p.Issue(CodePattern, "pattern", "value", str, "pattern", s.Pattern.String()))
		}
		n := utf8.RuneCountInString(str)
		if s.MinLength != nil && n < *s.MinLength {
			v.add(p.Issue(CodeLengthOutOfRange, "length_below_min", "len", n, "min", *s.MinLength))
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			v.add(p.Issue(CodeLengthOutOfRange, "length_above_max", "len", n, "max", *s.MaxLength))
		}
	}
	if f, ok := toFloat(val); ok {
		if s.Minimum != nil && f < *s.Minimum {
			v.add(p.Issue(CodeRangeOutOfBounds, "range_below_min", "value", val, "min", *s.Minimum))
		}
		if s.Maximum != nil && f > *s.Maximum {
			v.add(p.Issue(CodeRangeOutOfBounds, "range_above_max", "value", val, "max", *s.Maximum))
		}
	}
}

func (v *validator) typeMatches(p PathRef, val any, want PrimitiveType) bool {
	got := TypeName(val)
	switch want {
	case TypeInteger:
		f, ok := toFloat(val)
		if ok && isWholeNumber(f) {
			return true
		}
		if ok {
			got = got + " (" + FormatValue(val) + ")"
		}
	case TypeNumber:
		if _, ok := toFloat(val); ok {
			return true
		}
	default:
		if got == string(want) {
			return true
		}
	}
	v.add(p.Issue(CodeInvalidType, "invalid_type", "expected", string(want), "got", got))
	return false
}

func containsValue(set []any, val any) bool {
	for _, e := range set {
		if equalValue(e, val) {
			return true
		}
	}
	return false
}

// SortIssues orders issues by path, then code. Validate already returns a
// deterministic order; SortIssues is for callers merging reports.
func SortIssues(iss Issues) {
	sort.SliceStable(iss, func(i, j int) bool {
		if iss[i].Path != iss[j].Path {
			return iss[i].Path < iss[j].Path
		}
		return iss[i].Code < iss[j].Code
	})
}
