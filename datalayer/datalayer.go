// Package datalayer is an explicit, in-process dataLayer: producers Push event
// records and the layer validates them against a schema registry as they
// arrive, instead of intercepting a shared queue's push method.
package datalayer

import (
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/internal/logging"
)

// CodeNoEventFound is reported by ValidateLatest when nothing matching was pushed.
const CodeNoEventFound = "no_event_found"

// Layer is an append-only queue of event records. It is safe for concurrent use.
type Layer struct {
	mu       sync.RWMutex
	records  []map[string]any
	capacity int

	registry func() *dlcheck.Registry
	validate bool
	opt      dlcheck.ValidateOpt
	onReport func(dlcheck.Report)
	log      zerolog.Logger
}

// Option configures a Layer.
type Option func(*Layer)

// WithValidation turns validation on push on or off. It is on by default.
func WithValidation(enabled bool) Option {
	return func(l *Layer) { l.validate = enabled }
}

// WithOnReport replaces the default report hook, which logs each report.
func WithOnReport(fn func(dlcheck.Report)) Option {
	return func(l *Layer) {
		if fn != nil {
			l.onReport = fn
		}
	}
}

// WithValidateOpt sets the options passed to every validation.
func WithValidateOpt(opt dlcheck.ValidateOpt) Option {
	return func(l *Layer) { l.opt = opt }
}

// WithCapacity bounds the number of retained records; the oldest are dropped
// first. Zero keeps everything.
func WithCapacity(n int) Option {
	return func(l *Layer) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithRegistryFunc resolves the registry on every validation, for registries
// that are swapped at runtime.
func WithRegistryFunc(fn func() *dlcheck.Registry) Option {
	return func(l *Layer) {
		if fn != nil {
			l.registry = fn
		}
	}
}

// New returns an empty layer validating against reg.
func New(reg *dlcheck.Registry, opts ...Option) *Layer {
	l := &Layer{
		registry: func() *dlcheck.Registry { return reg },
		validate: true,
		log:      logging.WithComponent("datalayer"),
	}
	l.onReport = l.logReport
	for _, o := range opts {
		o(l)
	}
	return l
}

// Push appends records. When validation is enabled, each record whose
// "event" has a registered schema is validated before Push returns and its
// report handed to the report hook. Records are stored as given and never
// modified.
func (l *Layer) Push(records ...map[string]any) {
	l.mu.Lock()
	l.records = append(l.records, records...)
	if l.capacity > 0 && len(l.records) > l.capacity {
		drop := len(l.records) - l.capacity
		l.records = append([]map[string]any(nil), l.records[drop:]...)
	}
	validate := l.validate
	l.mu.Unlock()

	if !validate {
		return
	}
	reg := l.registry()
	for _, rec := range records {
		name, ok := rec["event"].(string)
		if !ok {
			continue
		}
		if _, ok := reg.Lookup(name); !ok {
			continue
		}
		l.onReport(dlcheck.Validate(name, rec, reg, l.opt))
	}
}

// Latest returns the most recently pushed record whose "event" equals eventName.
func (l *Layer) Latest(eventName string) (map[string]any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if name, _ := l.records[i]["event"].(string); name == eventName {
			return l.records[i], true
		}
	}
	return nil, false
}

// ValidateLatest validates the most recent eventName record. An unregistered
// event yields the unknown_event report; a registered event that was never
// pushed yields a single no_event_found violation.
func (l *Layer) ValidateLatest(eventName string) dlcheck.Report {
	reg := l.registry()
	if _, ok := reg.Lookup(eventName); !ok {
		return dlcheck.Validate(eventName, nil, reg, l.opt)
	}
	rec, ok := l.Latest(eventName)
	if !ok {
		return dlcheck.Report{
			Event: eventName,
			Violations: dlcheck.Issues{
				dlcheck.Root().Issue(CodeNoEventFound, "no_event_found", "event", eventName),
			},
		}
	}
	return dlcheck.Validate(eventName, rec, reg, l.opt)
}

// Len returns the number of retained records.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Events returns a snapshot of the retained records in push order.
func (l *Layer) Events() []map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]map[string]any(nil), l.records...)
}

// Reset drops every retained record.
func (l *Layer) Reset() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}

func (l *Layer) logReport(rep dlcheck.Report) {
	if rep.Valid() {
		l.log.Info().Str("event", rep.Event).Msg("dataLayer event passed validation")
		return
	}
	l.log.Warn().
		Str("event", rep.Event).
		Int("count", len(rep.Violations)).
		Strs("violations", rep.Messages()).
		Msg("dataLayer event failed validation")
}

// DebugEnabled reports whether validation should be switched on for a page:
// served from localhost or 127.0.0.1, or with debug=1 in its query string.
func DebugEnabled(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return strings.Contains(u.RawQuery, "debug=1")
}
