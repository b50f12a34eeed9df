package source_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/dlcheck/source"
)

func TestDecode_KeepsNumbers(t *testing.T) {
	v, err := source.Decode([]byte(`{"value":79.99,"quantity":1}`))
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, json.Number("79.99"), m["value"])
	assert.Equal(t, json.Number("1"), m["quantity"])
}

func TestDecode_TrailingData(t *testing.T) {
	_, err := source.Decode([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestRecords_JSONArrayAndObject(t *testing.T) {
	recs, err := source.Records(strings.NewReader(`[{"event":"a"},{"event":"b"},3]`), source.FormatJSON)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "b", recs[1].(map[string]any)["event"])
	assert.Equal(t, json.Number("3"), recs[2])

	recs, err = source.Records(strings.NewReader(`{"event":"a"}`), source.FormatJSON)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestRecords_NDJSON(t *testing.T) {
	in := "{\"event\":\"a\"}\n\n  {\"event\":\"b\"}\n"
	recs, err := source.Records(strings.NewReader(in), source.FormatNDJSON)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	_, err = source.Records(strings.NewReader("{\"event\":\"a\"}\n{oops\n"), source.FormatNDJSON)
	require.ErrorContains(t, err, "line 2")
}

func TestRecords_YAML(t *testing.T) {
	in := `event: purchase
ecommerce:
  value: 10
  items:
    - item_id: SKU1
      quantity: 2
---
- event: a
- event: b
`
	recs, err := source.Records(strings.NewReader(in), source.FormatYAML)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	ec := recs[0].(map[string]any)["ecommerce"].(map[string]any)
	assert.Equal(t, 10, ec["value"])
	item := ec["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "SKU1", item["item_id"])
}

func TestRecords_MaxBytes(t *testing.T) {
	_, err := source.Records(strings.NewReader(`{"event":"purchase"}`), source.FormatJSON, source.Options{MaxBytes: 5})
	require.ErrorIs(t, err, source.ErrTooLarge)
}

func TestFormatFromPathAndParse(t *testing.T) {
	assert.Equal(t, source.FormatNDJSON, source.FormatFromPath("events.jsonl"))
	assert.Equal(t, source.FormatYAML, source.FormatFromPath("events.YML"))
	assert.Equal(t, source.FormatJSON, source.FormatFromPath("events"))

	f, err := source.ParseFormat("ndjson")
	require.NoError(t, err)
	assert.Equal(t, "ndjson", f.String())
	_, err = source.ParseFormat("xml")
	require.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "events.ndjson")
	require.NoError(t, os.WriteFile(p, []byte("{\"event\":\"a\"}\n{\"event\":\"b\"}\n"), 0o644))
	recs, err := source.ReadFile(p)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = source.ReadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestNormalizeYAML_NonStringKeys(t *testing.T) {
	v := source.NormalizeYAML(map[any]any{1: "one", "k": []any{map[any]any{"x": true}}})
	m := v.(map[string]any)
	assert.Equal(t, "one", m["1"])
	assert.Equal(t, true, m["k"].([]any)[0].(map[string]any)["x"])
}
