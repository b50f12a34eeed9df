// Package middleware holds the framework-neutral part of the HTTP adapters:
// request decoding, validation and the response shape shared by the echo and
// gin middlewares.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/source"
)

// DefaultMaxBytes caps request bodies when Config.MaxBytes is zero.
const DefaultMaxBytes = 1 << 20

// AutoEvent as the event name selects the record's own "event" field.
const AutoEvent = "auto"

// Config configures request validation.
type Config struct {
	// Registry returns the registry to validate against; it is called per request
	// so hot-reloaded registries take effect immediately.
	Registry    func() *dlcheck.Registry
	ValidateOpt dlcheck.ValidateOpt
	MaxBytes    int64
	// OnReport, when set, observes every report produced with the time spent
	// validating (metrics, logging).
	OnReport func(rep dlcheck.Report, elapsed time.Duration)
}

// DefaultConfig validates against the built-in reference registry.
func DefaultConfig() Config {
	return Config{Registry: dlcheck.Reference, MaxBytes: DefaultMaxBytes}
}

// Result is the outcome of validating one request body.
type Result struct {
	Record any
	Report dlcheck.Report
	Status int
	Err    error // set when the body could not be decoded
}

// OK reports whether the request may proceed to the handler.
func (r Result) OK() bool { return r.Err == nil && r.Report.Valid() }

// Payload is the JSON body to answer a rejected request with.
func (r Result) Payload() any {
	if r.Err != nil {
		return ErrorPayload(r.Err)
	}
	return r.Report
}

// Validate decodes a single JSON record from body and validates it as
// eventName, or as its own "event" field when eventName is empty or AutoEvent.
func (cfg Config) Validate(body io.Reader, eventName string) Result {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	rec, err := decodeBody(body, maxBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, source.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		return Result{Status: status, Err: err}
	}
	if eventName == "" || eventName == AutoEvent {
		m, _ := rec.(map[string]any)
		eventName, _ = m["event"].(string)
	}
	reg := dlcheck.Reference()
	if cfg.Registry != nil {
		reg = cfg.Registry()
	}
	start := time.Now()
	rep := dlcheck.Validate(eventName, rec, reg, cfg.ValidateOpt)
	if cfg.OnReport != nil {
		cfg.OnReport(rep, time.Since(start))
	}
	return Result{Record: rec, Report: rep, Status: StatusFor(rep)}
}

// StatusFor maps a report to an HTTP status: 200 valid, 404 unknown event,
// 422 otherwise.
func StatusFor(rep dlcheck.Report) int {
	switch {
	case rep.Valid():
		return http.StatusOK
	case rep.Violations.HasCode(dlcheck.CodeUnknownEvent):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

// ErrorPayload shapes a request error for JSON responses.
func ErrorPayload(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func decodeBody(body io.Reader, maxBytes int64) (any, error) {
	if body == nil {
		return nil, errors.New("empty request body")
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, source.ErrTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("empty request body")
	}
	return source.Decode(data)
}

type ctxKeyResult struct{}

// ContextWithResult attaches a validation Result to the context.
func ContextWithResult(ctx context.Context, r Result) context.Context {
	return context.WithValue(ctx, ctxKeyResult{}, r)
}

// ResultFromContext retrieves a Result from the context.
func ResultFromContext(ctx context.Context) (Result, bool) {
	r, ok := ctx.Value(ctxKeyResult{}).(Result)
	return r, ok
}
