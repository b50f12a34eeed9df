// Package source decodes event records from JSON, NDJSON and YAML inputs into
// the untyped shape the validator consumes (map[string]any, []any, string,
// bool, nil and json.Number).
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format identifies an input encoding.
type Format int

const (
	FormatJSON   Format = iota // single value; a top-level array is a list of records
	FormatNDJSON               // one record per line
	FormatYAML                 // one record per document; a top-level sequence is a list of records
)

func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// ParseFormat maps a user-facing name ("json", "ndjson", "jsonl", "yaml", "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatJSON, fmt.Errorf("source: unknown format %q", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ErrTooLarge is returned when an input exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("source: max bytes exceeded")

// Options bundles decoding options.
type Options struct {
	// MaxBytes caps the consumed input size; zero disables the cap.
	MaxBytes int64
}

// Decode parses a single JSON value, keeping numbers as json.Number.
func Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("source: decode json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("source: trailing data after json value")
	}
	return v, nil
}

// Records decodes every record held by r in the given format. Elements are
// returned as decoded, so non-object records reach the validator unchanged.
func Records(r io.Reader, f Format, opts ...Options) ([]any, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	data, err := readAll(r, opt.MaxBytes)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatNDJSON:
		return ndjsonRecords(data)
	case FormatYAML:
		return yamlRecords(data)
	default:
		v, err := Decode(data)
		if err != nil {
			return nil, err
		}
		if arr, ok := v.([]any); ok {
			return arr, nil
		}
		return []any{v}, nil
	}
}

// ReadFile decodes the records of a file, guessing the format from its extension.
func ReadFile(path string, opts ...Options) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Records(f, FormatFromPath(path), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func readAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func ndjsonRecords(data []byte) ([]any, error) {
	var out []any
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := Decode(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func yamlRecords(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("source: decode yaml: %w", err)
		}
		node = NormalizeYAML(node)
		if arr, ok := node.([]any); ok {
			out = append(out, arr...)
			continue
		}
		out = append(out, node)
	}
	return out, nil
}

// NormalizeYAML converts YAML-decoded values (which may contain map[any]any)
// into JSON-like values recursively. Non-string keys are rendered with fmt.
func NormalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = NormalizeYAML(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = NormalizeYAML(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = NormalizeYAML(t[i])
		}
		return arr
	default:
		return v
	}
}
