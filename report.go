package dlcheck

import (
	json "github.com/goccy/go-json"
)

// Report is the outcome of one Validate call: the ordered violations found.
// An empty report means the record is valid.
type Report struct {
	Event      string
	Violations Issues
}

// Valid reports whether no violation was found.
func (r Report) Valid() bool { return len(r.Violations) == 0 }

// Messages returns the violation messages in check order.
func (r Report) Messages() []string {
	out := make([]string, len(r.Violations))
	for i, it := range r.Violations {
		out[i] = it.Message
	}
	return out
}

// Err returns the violations as an error, or nil when the report is valid.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	return r.Violations
}

// Codes returns the violation codes in check order.
func (r Report) Codes() []string {
	out := make([]string, len(r.Violations))
	for i, it := range r.Violations {
		out[i] = it.Code
	}
	return out
}

type reportJSON struct {
	Event      string  `json:"event"`
	IsValid    bool    `json:"isValid"`
	Violations []Issue `json:"violations"`
}

// MarshalJSON renders {"event", "isValid", "violations"}; violations is never null.
func (r Report) MarshalJSON() ([]byte, error) {
	vs := []Issue(r.Violations)
	if vs == nil {
		vs = []Issue{}
	}
	return json.Marshal(reportJSON{Event: r.Event, IsValid: r.Valid(), Violations: vs})
}

// UnmarshalJSON restores a report rendered by MarshalJSON.
func (r *Report) UnmarshalJSON(b []byte) error {
	var rj reportJSON
	if err := json.Unmarshal(b, &rj); err != nil {
		return err
	}
	r.Event = rj.Event
	r.Violations = nil
	if len(rj.Violations) > 0 {
		r.Violations = Issues(rj.Violations)
	}
	return nil
}
