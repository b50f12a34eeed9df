package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dlcheck "github.com/reoring/dlcheck"
)

const oneEvent = `events:
  sign_up:
    required: [event]
    properties:
      event: {type: string, const: sign_up}
`

const twoEvents = oneEvent + `  login:
    properties:
      event: {type: string, const: login}
`

func writeSchema(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestNewReloader_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	writeSchema(t, path, oneEvent)

	r, err := NewReloader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"sign_up"}, r.Registry().Names())
	assert.Equal(t, path, r.Path())
}

func TestNewReloader_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	writeSchema(t, path, "events:\n  x: {properties: {a: {type: date}}}\n")
	_, err := NewReloader(path)
	require.ErrorIs(t, err, dlcheck.ErrInvalidSchema)
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	writeSchema(t, path, oneEvent)
	r, err := NewReloader(path)
	require.NoError(t, err)
	defer r.Close()

	var calls, failures int
	r.OnReload = func(reg *dlcheck.Registry, err error) {
		calls++
		if err != nil {
			failures++
			assert.Nil(t, reg)
		}
	}

	writeSchema(t, path, "not: [valid")
	require.Error(t, r.Reload())
	assert.Equal(t, []string{"sign_up"}, r.Registry().Names())

	writeSchema(t, path, twoEvents)
	require.NoError(t, r.Reload())
	assert.Equal(t, []string{"login", "sign_up"}, r.Registry().Names())
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, failures)
}

func TestRun_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	writeSchema(t, path, oneEvent)
	r, err := NewReloader(path)
	require.NoError(t, err)
	r.Debounce = 10 * time.Millisecond

	var reloads atomic.Int32
	r.OnReload = func(*dlcheck.Registry, error) { reloads.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	writeSchema(t, path, twoEvents)
	require.Eventually(t, func() bool {
		return r.Registry().Len() == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
