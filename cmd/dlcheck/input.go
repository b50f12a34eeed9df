package main

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/reoring/dlcheck/source"
)

// input is one decoded fixture: a file, or stdin when name is "-".
type input struct {
	name    string
	records []any
}

// inputFlags are shared by the commands that read fixtures.
type inputFlags struct {
	format   string
	output   string
	maxBytes int64
	color    bool
}

func (f *inputFlags) options() source.Options {
	return source.Options{MaxBytes: f.maxBytes}
}

// readInputs decodes every path, or stdin when paths is empty. "-" also
// names stdin. --format overrides detection by file extension.
func (a *app) readInputs(paths []string, f *inputFlags) ([]input, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	var forced *source.Format
	if f.format != "" {
		ft, err := source.ParseFormat(f.format)
		if err != nil {
			return nil, err
		}
		forced = &ft
	}
	out := make([]input, 0, len(paths))
	for _, p := range paths {
		var (
			recs []any
			err  error
		)
		switch {
		case p == "-":
			ft := source.FormatJSON
			if forced != nil {
				ft = *forced
			}
			recs, err = source.Records(a.in, ft, f.options())
			if err != nil {
				err = fmt.Errorf("stdin: %w", err)
			}
		case forced != nil:
			recs, err = readFileAs(p, *forced, f.options())
		default:
			recs, err = source.ReadFile(p, f.options())
		}
		if err != nil {
			return nil, err
		}
		out = append(out, input{name: p, records: recs})
	}
	return out, nil
}

func readFileAs(path string, ft source.Format, opt source.Options) ([]any, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	recs, err := source.Records(r, ft, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func location(name string, i int) string {
	if name == "-" {
		name = "stdin"
	}
	return fmt.Sprintf("%s[%d]", name, i)
}

func eventOf(rec any) string {
	m, _ := rec.(map[string]any)
	name, _ := m["event"].(string)
	return name
}

func writeJSONLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
