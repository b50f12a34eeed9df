package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/limits"
)

type limitsResult struct {
	Source string         `json:"source"`
	Event  string         `json:"event"`
	Issues dlcheck.Issues `json:"issues"`
}

func (a *app) limitsCmd() *cobra.Command {
	f := &inputFlags{}
	var lim limits.Limits
	cmd := &cobra.Command{
		Use:   "limits [files...]",
		Short: "Check event records against GA4 collection limits",
		Long: `Check event records against the GA4 collection limits: event name length (40),
parameter count (25), parameter name length (40), string value length (100) and
ecommerce items (200). Records without an "event" field are skipped.
Exits with status 1 when any limit is exceeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLimits(args, f, lim)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "", "Input format (json, ndjson, yaml) - detected from the file extension if not specified")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", 0, "Maximum input size per file in bytes (0 = unlimited)")
	cmd.Flags().IntVar(&lim.EventNameLength, "max-event-name", 0, "Override the event name length limit")
	cmd.Flags().IntVar(&lim.Params, "max-params", 0, "Override the parameter count limit")
	cmd.Flags().IntVar(&lim.ParamValueLength, "max-value-length", 0, "Override the string value length limit")
	cmd.Flags().IntVar(&lim.Items, "max-items", 0, "Override the items array limit")
	return cmd
}

func (a *app) runLimits(paths []string, f *inputFlags, lim limits.Limits) error {
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("unknown output format %q", f.output)
	}
	inputs, err := a.readInputs(paths, f)
	if err != nil {
		return err
	}
	events, found := 0, 0
	for _, in := range inputs {
		for i, rec := range in.records {
			m, ok := rec.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := m["event"].(string); !ok {
				continue
			}
			events++
			iss := limits.Check(m, lim)
			a.metrics.RecordLimitIssues(iss)
			found += len(iss)

			loc := location(in.name, i)
			if f.output == "json" {
				if iss == nil {
					iss = dlcheck.Issues{}
				}
				if err := writeJSONLine(a.out, limitsResult{Source: loc, Event: eventOf(m), Issues: iss}); err != nil {
					return err
				}
				continue
			}
			for _, it := range iss {
				fmt.Fprintf(a.out, "%s: %s\n", loc, it.Message)
			}
		}
	}
	if f.output == "text" {
		if found == 0 {
			fmt.Fprintf(a.out, "all GA4 parameter limits respected (%d event(s))\n", events)
		} else {
			fmt.Fprintf(a.out, "%d GA4 limit violation(s) in %d event(s)\n", found, events)
		}
	}
	if found > 0 {
		return errInvalid
	}
	return nil
}
