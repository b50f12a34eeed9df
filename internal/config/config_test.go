package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dlcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 32, cfg.Validation.MaxDepth)
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
schema:
  file: schemas.yaml
  watch: true
kafka:
  brokers: [k1:9092, k2:9092]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "schemas.yaml", cfg.Schema.File)
	assert.True(t, cfg.Schema.Watch)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "datalayer-events", cfg.Kafka.Topic)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "log:\n  level: debug\nhttp:\n  addr: \":9000\"\n")
	t.Setenv("DLCHECK_LOG_LEVEL", "warn")
	t.Setenv("DLCHECK_KAFKA_BROKERS", "a:1, b:2,")
	t.Setenv("DLCHECK_MAX_DEPTH", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Validation.MaxDepth)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "log: [unclosed"))
		require.Error(t, err)
	})
	t.Run("bad depth env", func(t *testing.T) {
		t.Setenv("DLCHECK_MAX_DEPTH", "deep")
		_, err := Load("")
		require.ErrorContains(t, err, "DLCHECK_MAX_DEPTH")
	})
	t.Run("watch without file", func(t *testing.T) {
		t.Setenv("DLCHECK_WATCH", "true")
		_, err := Load("")
		require.ErrorContains(t, err, "schema watch requires a schema file")
	})
	t.Run("bad format", func(t *testing.T) {
		t.Setenv("DLCHECK_LOG_FORMAT", "xml")
		_, err := Load("")
		require.ErrorContains(t, err, "log format")
	})
}
