package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/schemafile"
)

const (
	validPurchase = `{"event":"purchase","ecommerce":{"transaction_id":"T_12345","value":79.99,"currency":"USD",` +
		`"items":[{"item_id":"SKU1","item_name":"Widget","price":79.99,"quantity":1}]}}`
	invalidPurchase = `{"event":"purchase","ecommerce":{"transaction_id":"T_12345","value":79.99,"currency":"usd",` +
		`"items":[{"item_id":"SKU1","item_name":"Widget","price":79.99,"quantity":1}]}}`
	validForm = `{"event":"form_submission_success","form_id":"contact_us","form_type":"lead","form_location":"footer"}`
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestValidate_File(t *testing.T) {
	path := writeTemp(t, "purchase.json", validPurchase)
	out, _, err := run(t, "", "validate", "purchase", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS purchase "+path+"[0]")
	assert.Contains(t, out, "1 record(s) checked: 1 valid, 0 invalid")
}

func TestValidate_StdinInvalid(t *testing.T) {
	out, _, err := run(t, invalidPurchase, "validate", "purchase")
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "FAIL purchase stdin[0] (1 violation(s))")
	assert.Contains(t, out, `  - field "ecommerce.currency" value "usd" doesn't match pattern: ^[A-Z]{3}$`)
}

func TestValidate_AutoNDJSON(t *testing.T) {
	path := writeTemp(t, "events.ndjson", validForm+"\n"+invalidPurchase+"\n"+`{"event":"page_view"}`+"\n")
	out, _, err := run(t, "", "validate", "auto", path, "--output", "json")
	require.ErrorIs(t, err, errInvalid)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var got []recordResult
	for _, l := range lines {
		var r recordResult
		require.NoError(t, json.Unmarshal([]byte(l), &r))
		got = append(got, r)
	}
	assert.True(t, got[0].IsValid)
	assert.Equal(t, "form_submission_success", got[0].Event)
	assert.Empty(t, got[0].Violations)
	assert.False(t, got[1].IsValid)
	assert.Equal(t, dlcheck.CodeUnknownEvent, got[2].Violations[0].Code)
	assert.Equal(t, path+"[2]", got[2].Source)
}

func TestValidate_JSONArrayAndYAML(t *testing.T) {
	arr := writeTemp(t, "forms.json", "["+validForm+","+validForm+"]")
	yml := writeTemp(t, "form.yaml", "event: form_submission_success\nform_id: contact_us\nform_type: lead\nform_location: footer\n")
	out, _, err := run(t, "", "validate", "form_submission_success", arr, yml)
	require.NoError(t, err)
	assert.Contains(t, out, "3 record(s) checked: 3 valid, 0 invalid")
}

func TestValidate_ForcedFormat(t *testing.T) {
	path := writeTemp(t, "events.txt", validForm+"\n"+validForm+"\n")
	out, _, err := run(t, "", "validate", "auto", "--format", "ndjson", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s) checked")
}

func TestValidate_Errors(t *testing.T) {
	_, _, err := run(t, validForm, "validate", "auto", "--output", "xml")
	require.ErrorContains(t, err, "unknown output format")

	_, _, err = run(t, "", "validate", "purchase", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, errInvalid))

	_, _, err = run(t, "{", "validate", "purchase")
	require.ErrorContains(t, err, "stdin")

	_, _, err = run(t, "", "validate")
	require.Error(t, err)
}

const nestedSchema = `events:
  nested:
    properties:
      event: {type: string}
      a:
        type: object
        properties:
          b:
            type: object
            properties:
              c: {type: string}
`

const nestedRecord = `{"event":"nested","a":{"b":{"c":"x"}}}`

func TestValidate_MaxDepthFlag(t *testing.T) {
	_, _, err := run(t, validForm, "validate", "auto", "--max-depth", "0")
	require.ErrorContains(t, err, "max depth")

	schemas := writeTemp(t, "nested.yaml", nestedSchema)
	_, _, err = run(t, nestedRecord, "validate", "nested", "--schema-file", schemas)
	require.NoError(t, err)

	out, _, err := run(t, nestedRecord, "validate", "nested", "--schema-file", schemas, "--max-depth", "1")
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, `field "a.b" exceeds maximum nesting depth: 1`)
}

func TestValidate_SchemaFile(t *testing.T) {
	schemas := writeTemp(t, "schemas.yaml", `events:
  sign_up:
    required: [event, method]
    properties:
      event: {type: string, const: sign_up}
      method: {type: string, enum: [email, google]}
`)
	out, _, err := run(t, `{"event":"sign_up","method":"fax"}`, "validate", "auto", "--schema-file", schemas)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, `value "fax" not in allowed values: email, google`)

	_, _, err = run(t, "", "validate", "auto", "--schema-file", writeTemp(t, "bad.yaml", "events: []\n"))
	require.ErrorIs(t, err, dlcheck.ErrInvalidSchema)
}

func TestValidate_ConfigFile(t *testing.T) {
	schemas := writeTemp(t, "nested.yaml", nestedSchema)
	cfg := writeTemp(t, "dlcheck.yaml", "schema:\n  file: "+schemas+"\nvalidation:\n  max_depth: 1\n")
	_, _, err := run(t, nestedRecord, "validate", "nested", "--config", cfg)
	require.ErrorIs(t, err, errInvalid)

	// flags win over the file
	_, _, err = run(t, nestedRecord, "validate", "nested", "--config", cfg, "--max-depth", "32")
	require.NoError(t, err)
}

func TestLimits(t *testing.T) {
	long := `{"event":"` + strings.Repeat("e", 41) + `"}`
	out, _, err := run(t, "["+validForm+","+long+`,{"gtm.start":1}]`, "limits")
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "stdin[1]: event name")
	assert.Contains(t, out, "1 GA4 limit violation(s) in 2 event(s)")

	out, _, err = run(t, validForm, "limits")
	require.NoError(t, err)
	assert.Contains(t, out, "all GA4 parameter limits respected (1 event(s))")

	out, _, err = run(t, validForm, "limits", "--max-params", "2", "-o", "json")
	require.ErrorIs(t, err, errInvalid)
	var r limitsResult
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &r))
	assert.Equal(t, "too_many_params", r.Issues[0].Code)
}

func TestSchemas(t *testing.T) {
	out, _, err := run(t, "", "schemas", "list")
	require.NoError(t, err)
	assert.Equal(t, "form_submission_success\npurchase\n", out)

	out, _, err = run(t, "", "schemas", "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `["form_submission_success","purchase"]`, out)

	out, _, err = run(t, "", "schemas", "export", "purchase")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Contains(t, doc["properties"], "ecommerce")

	_, _, err = run(t, "", "schemas", "export", "page_view")
	require.ErrorIs(t, err, dlcheck.ErrUnknownEvent)
}

func TestSchemasDump_RoundTrips(t *testing.T) {
	out, _, err := run(t, "", "schemas", "dump")
	require.NoError(t, err)
	reg, err := schemafile.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, dlcheck.Reference().Names(), reg.Names())
}
