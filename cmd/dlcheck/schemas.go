package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/dlcheck/schemafile"
)

func (a *app) schemasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect the schema registry",
	}
	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered event names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.registry().Names()
			if output == "json" {
				return writeJSONLine(a.out, names)
			}
			for _, n := range names {
				fmt.Fprintln(a.out, n)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	export := &cobra.Command{
		Use:   "export <event>",
		Short: "Print the JSON Schema of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.registry().JSONSchema(args[0])
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(b))
			return nil
		},
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the registry as a schema file (YAML)",
		Long: `Print the active registry in the schema file format accepted by --schema-file.
Useful as a starting point for a custom registry:

  dlcheck schemas dump > schemas.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := schemafile.Encode(a.registry())
			if err != nil {
				return err
			}
			_, err = a.out.Write(b)
			return err
		},
	}

	cmd.AddCommand(list, export, dump)
	return cmd
}
