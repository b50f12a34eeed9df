package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/middleware"
)

// recordResult is the JSON line printed per record by validate --output json.
type recordResult struct {
	Source     string         `json:"source"`
	Event      string         `json:"event"`
	IsValid    bool           `json:"isValid"`
	Violations dlcheck.Issues `json:"violations"`
}

func (a *app) validateCmd() *cobra.Command {
	f := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "validate <event|auto> [files...]",
		Short: "Validate event records against a schema",
		Long: `Validate event records read from JSON (an object or an array of objects),
NDJSON (.ndjson, .jsonl) or YAML fixtures, or stdin when no file is given.

With "auto" as the event name each record is validated against the schema named
by its own "event" field. Exits with status 1 when any record is invalid.

Examples:
  dlcheck validate purchase fixtures/purchase.json
  dlcheck validate auto events.ndjson --output json
  cat event.json | dlcheck validate form_submission_success`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(args[0], args[1:], f)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "", "Input format (json, ndjson, yaml) - detected from the file extension if not specified")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", 0, "Maximum input size per file in bytes (0 = unlimited)")
	cmd.Flags().BoolVar(&f.color, "color", false, "Colorize text output")
	return cmd
}

func (a *app) runValidate(event string, paths []string, f *inputFlags) error {
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("unknown output format %q", f.output)
	}
	inputs, err := a.readInputs(paths, f)
	if err != nil {
		return err
	}
	reg := a.registry()
	total, invalid := 0, 0
	for _, in := range inputs {
		for i, rec := range in.records {
			name := event
			if name == middleware.AutoEvent {
				name = eventOf(rec)
			}
			start := time.Now()
			rep := dlcheck.Validate(name, rec, reg, a.validateOpt())
			a.metrics.ObserveValidation("cli", time.Since(start))
			a.metrics.RecordReport("cli", rep)

			total++
			if !rep.Valid() {
				invalid++
			}
			if err := a.printReport(f, location(in.name, i), rep); err != nil {
				return err
			}
		}
	}
	if f.output == "text" {
		fmt.Fprintf(a.out, "%d record(s) checked: %d valid, %d invalid\n", total, total-invalid, invalid)
	}
	if invalid > 0 {
		return errInvalid
	}
	return nil
}

func (a *app) printReport(f *inputFlags, loc string, rep dlcheck.Report) error {
	if f.output == "json" {
		vs := rep.Violations
		if vs == nil {
			vs = dlcheck.Issues{}
		}
		return writeJSONLine(a.out, recordResult{Source: loc, Event: rep.Event, IsValid: rep.Valid(), Violations: vs})
	}
	st := styler{color: f.color}
	if rep.Valid() {
		fmt.Fprintf(a.out, "%s %s %s\n", st.pass("PASS"), rep.Event, loc)
		return nil
	}
	fmt.Fprintf(a.out, "%s %s %s (%d violation(s))\n", st.fail("FAIL"), rep.Event, loc, len(rep.Violations))
	for _, m := range rep.Messages() {
		fmt.Fprintf(a.out, "  %s %s\n", st.muted("-"), m)
	}
	return nil
}
