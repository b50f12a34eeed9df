// Package limits checks dataLayer event records against the GA4 collection
// limits: event name length, parameter count, parameter name and value length,
// and the size of the ecommerce items array.
package limits

import (
	"sort"
	"unicode/utf8"

	dlcheck "github.com/reoring/dlcheck"
)

// Issue codes reported by Check.
const (
	CodeEventNameTooLong  = "event_name_too_long"
	CodeTooManyParams     = "too_many_params"
	CodeParamNameTooLong  = "param_name_too_long"
	CodeParamValueTooLong = "param_value_too_long"
	CodeTooManyItems      = "too_many_items"
)

// Limits holds the thresholds Check enforces. Zero fields fall back to the
// GA4 defaults.
type Limits struct {
	EventNameLength  int
	Params           int
	ParamNameLength  int
	ParamValueLength int
	Items            int
}

// Default returns the documented GA4 collection limits.
func Default() Limits {
	return Limits{
		EventNameLength:  40,
		Params:           25,
		ParamNameLength:  40,
		ParamValueLength: 100,
		Items:            200,
	}
}

func (l Limits) withDefaults() Limits {
	d := Default()
	if l.EventNameLength <= 0 {
		l.EventNameLength = d.EventNameLength
	}
	if l.Params <= 0 {
		l.Params = d.Params
	}
	if l.ParamNameLength <= 0 {
		l.ParamNameLength = d.ParamNameLength
	}
	if l.ParamValueLength <= 0 {
		l.ParamValueLength = d.ParamValueLength
	}
	if l.Items <= 0 {
		l.Items = d.Items
	}
	return l
}

// Check reports every limit the record exceeds. Records without a non-empty
// string "event" key are not events and yield no issues. When several Limits are
// given the last one wins.
func Check(record map[string]any, opts ...Limits) dlcheck.Issues {
	var l Limits
	if len(opts) > 0 {
		l = opts[len(opts)-1]
	}
	l = l.withDefaults()

	event, ok := record["event"].(string)
	if !ok || event == "" {
		return nil
	}
	root := dlcheck.Root()
	var iss dlcheck.Issues

	if utf8.RuneCountInString(event) > l.EventNameLength {
		iss = append(iss, root.Field("event").Issue(CodeEventNameTooLong, "event_name_too_long",
			"event", event, "max", l.EventNameLength))
	}
	if n := len(record) - 1; n > l.Params {
		iss = append(iss, root.Issue(CodeTooManyParams, "too_many_params",
			"event", event, "count", n, "max", l.Params))
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if utf8.RuneCountInString(k) > l.ParamNameLength {
			iss = append(iss, root.Field(k).Issue(CodeParamNameTooLong, "param_name_too_long",
				"max", l.ParamNameLength))
		}
	}
	for _, k := range keys {
		if k == "event" {
			continue
		}
		if s, ok := record[k].(string); ok && utf8.RuneCountInString(s) > l.ParamValueLength {
			iss = append(iss, root.Field(k).Issue(CodeParamValueTooLong, "param_value_too_long",
				"event", event, "max", l.ParamValueLength))
		}
	}

	if ec, ok := record["ecommerce"].(map[string]any); ok {
		if n, ok := itemCount(ec["items"]); ok && n > l.Items {
			iss = append(iss, root.Field("ecommerce").Field("items").Issue(CodeTooManyItems, "too_many_items",
				"event", event, "count", n, "max", l.Items))
		}
	}
	return iss
}

// CheckAll runs Check over records and concatenates the issues, prefixing
// each path with the record index.
func CheckAll(records []any, opts ...Limits) dlcheck.Issues {
	var out dlcheck.Issues
	for i, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		for _, it := range Check(m, opts...) {
			p := dlcheck.Root().Index(i).String()
			if it.Path != "" {
				p += "." + it.Path
			}
			it.Path = p
			out = append(out, it)
		}
	}
	return out
}

func itemCount(v any) (int, bool) {
	switch items := v.(type) {
	case []any:
		return len(items), true
	case []map[string]any:
		return len(items), true
	}
	return 0, false
}
