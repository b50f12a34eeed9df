package middleware_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/middleware"
	"github.com/reoring/dlcheck/source"
)

const validForm = `{"event":"form_submission_success","form_id":"contact_us","form_type":"lead","form_location":"footer"}`

func TestValidate_Statuses(t *testing.T) {
	cfg := middleware.DefaultConfig()
	cases := []struct {
		name   string
		body   string
		event  string
		status int
		ok     bool
	}{
		{"valid", validForm, "form_submission_success", http.StatusOK, true},
		{"auto", validForm, middleware.AutoEvent, http.StatusOK, true},
		{"empty name uses record", validForm, "", http.StatusOK, true},
		{"invalid", `{"event":"form_submission_success"}`, "form_submission_success", http.StatusUnprocessableEntity, false},
		{"unknown", validForm, "page_view", http.StatusNotFound, false},
		{"not an object", `[1,2]`, "purchase", http.StatusUnprocessableEntity, false},
		{"bad json", `{"event":`, "purchase", http.StatusBadRequest, false},
		{"empty body", ``, "purchase", http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := cfg.Validate(strings.NewReader(tc.body), tc.event)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.ok, res.OK())
		})
	}
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := middleware.Config{MaxBytes: 8}
	res := cfg.Validate(strings.NewReader(validForm), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Status)
	assert.True(t, errors.Is(res.Err, source.ErrTooLarge))
	assert.Equal(t, map[string]any{"error": source.ErrTooLarge.Error()}, res.Payload())
}

func TestValidate_OnReportAndRegistry(t *testing.T) {
	reg := dlcheck.MustRegistry(map[string]*dlcheck.EventSchema{
		"login": {Required: []string{"event"}, AllowUnknown: true},
	})
	var seen []dlcheck.Report
	cfg := middleware.Config{
		Registry: func() *dlcheck.Registry { return reg },
		OnReport: func(r dlcheck.Report, _ time.Duration) { seen = append(seen, r) },
	}
	res := cfg.Validate(strings.NewReader(`{"event":"login"}`), "")
	require.True(t, res.OK())
	assert.Equal(t, res.Report, res.Payload())
	require.Len(t, seen, 1)
	assert.Equal(t, "login", seen[0].Event)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, middleware.StatusFor(dlcheck.Report{}))
	assert.Equal(t, http.StatusNotFound, middleware.StatusFor(dlcheck.Report{
		Violations: dlcheck.Issues{{Code: dlcheck.CodeUnknownEvent}},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, middleware.StatusFor(dlcheck.Report{
		Violations: dlcheck.Issues{{Code: dlcheck.CodeRequired}},
	}))
}
