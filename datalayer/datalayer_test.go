package datalayer_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/datalayer"
)

func form(id string) map[string]any {
	return map[string]any{
		"event":         "form_submission_success",
		"form_id":       id,
		"form_type":     "lead",
		"form_location": "footer",
	}
}

type collector struct {
	mu      sync.Mutex
	reports []dlcheck.Report
}

func (c *collector) add(r dlcheck.Report) {
	c.mu.Lock()
	c.reports = append(c.reports, r)
	c.mu.Unlock()
}

func TestPush_ValidatesRegisteredEvents(t *testing.T) {
	var c collector
	l := datalayer.New(dlcheck.Reference(), datalayer.WithOnReport(c.add))

	l.Push(
		map[string]any{"gtm.start": 1},
		map[string]any{"event": "page_view"},
		form("contact_us"),
		form("X"),
	)

	assert.Equal(t, 4, l.Len())
	require.Len(t, c.reports, 2)
	assert.True(t, c.reports[0].Valid())
	assert.False(t, c.reports[1].Valid())
	assert.Equal(t, "form_submission_success", c.reports[1].Event)
}

func TestPush_TypedItemSlice(t *testing.T) {
	var c collector
	l := datalayer.New(dlcheck.Reference(), datalayer.WithOnReport(c.add))
	l.Push(map[string]any{
		"event": "purchase",
		"ecommerce": map[string]any{
			"transaction_id": "T_12345",
			"currency":       "USD",
			"value":          10.0,
			"items": []map[string]any{
				{"item_id": "SKU1", "item_name": "Widget", "price": 10.0, "quantity": 1},
			},
		},
	})
	require.Len(t, c.reports, 1)
	assert.True(t, c.reports[0].Valid(), c.reports[0].Messages())
	assert.True(t, l.ValidateLatest("purchase").Valid())
}

func TestPush_ValidationDisabled(t *testing.T) {
	var c collector
	l := datalayer.New(dlcheck.Reference(), datalayer.WithValidation(false), datalayer.WithOnReport(c.add))
	l.Push(form("X"))
	assert.Empty(t, c.reports)
	assert.Equal(t, 1, l.Len())
}

func TestPush_DoesNotMutate(t *testing.T) {
	rec := form("X")
	rec["extra"] = []any{1, 2}
	before := fmt.Sprint(rec)
	datalayer.New(dlcheck.Reference(), datalayer.WithOnReport(func(dlcheck.Report) {})).Push(rec)
	assert.Equal(t, before, fmt.Sprint(rec))
}

func TestPush_DefaultHookLogs(t *testing.T) {
	l := datalayer.New(dlcheck.Reference())
	assert.NotPanics(t, func() { l.Push(form("X"), form("contact_us")) })
}

func TestLatest(t *testing.T) {
	l := datalayer.New(dlcheck.Reference(), datalayer.WithValidation(false))
	_, ok := l.Latest("form_submission_success")
	assert.False(t, ok)

	l.Push(form("first_form"), map[string]any{"event": "other"}, form("second_form"))
	rec, ok := l.Latest("form_submission_success")
	require.True(t, ok)
	assert.Equal(t, "second_form", rec["form_id"])
}

func TestValidateLatest(t *testing.T) {
	l := datalayer.New(dlcheck.Reference(), datalayer.WithValidation(false))

	rep := l.ValidateLatest("purchase")
	require.Len(t, rep.Violations, 1)
	assert.Equal(t, datalayer.CodeNoEventFound, rep.Violations[0].Code)
	assert.Equal(t, "no purchase event found in dataLayer", rep.Violations[0].Message)

	rep = l.ValidateLatest("page_view")
	require.Len(t, rep.Violations, 1)
	assert.Equal(t, dlcheck.CodeUnknownEvent, rep.Violations[0].Code)

	l.Push(form("ok_form"), form("Bad-Form"))
	rep = l.ValidateLatest("form_submission_success")
	require.Len(t, rep.Violations, 1)
	assert.Equal(t, "form_id", rep.Violations[0].Path)
}

func TestCapacity(t *testing.T) {
	l := datalayer.New(dlcheck.Reference(), datalayer.WithValidation(false), datalayer.WithCapacity(2))
	l.Push(form("aaa"), form("bbb"), form("ccc"))
	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "bbb", events[0]["form_id"])
	assert.Equal(t, "ccc", events[1]["form_id"])

	l.Reset()
	assert.Equal(t, 0, l.Len())
}

func TestEvents_Snapshot(t *testing.T) {
	l := datalayer.New(dlcheck.Reference(), datalayer.WithValidation(false))
	l.Push(form("aaa"))
	snap := l.Events()
	l.Push(form("bbb"))
	assert.Len(t, snap, 1)
}

func TestRegistryFunc(t *testing.T) {
	reg := dlcheck.MustRegistry(map[string]*dlcheck.EventSchema{
		"login": {Required: []string{"event", "method"}, AllowUnknown: true},
	})
	var c collector
	l := datalayer.New(nil, datalayer.WithRegistryFunc(func() *dlcheck.Registry { return reg }), datalayer.WithOnReport(c.add))
	l.Push(map[string]any{"event": "login"}, form("contact_us"))
	require.Len(t, c.reports, 1)
	assert.Equal(t, []string{dlcheck.CodeRequired}, c.reports[0].Codes())
}

func TestConcurrentPush(t *testing.T) {
	var c collector
	l := datalayer.New(dlcheck.Reference(), datalayer.WithOnReport(c.add))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Push(form("contact_us"))
				l.Latest("form_submission_success")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, l.Len())
	assert.Len(t, c.reports, 800)
}

func TestDebugEnabled(t *testing.T) {
	cases := map[string]bool{
		"http://localhost:3000/checkout":        true,
		"http://127.0.0.1/":                     true,
		"https://shop.example.com/?debug=1":     true,
		"https://shop.example.com/?a=b&debug=1": true,
		"https://shop.example.com/":             false,
		"https://shop.example.com/?debug=0":     false,
		"https://localhost.example.com/":        false,
		"::not a url":                           false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, datalayer.DebugEnabled(raw), raw)
	}
}
