package main

import (
	"fmt"

	"github.com/spf13/cobra"

	js "github.com/reoring/typesafe/jsonschema"
)

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <declarations.yaml> <Class>",
		Short: "Print the JSON Schema of a declared class",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(args[0])
			if err != nil {
				return err
			}
			c, err := d.Class(args[1])
			if err != nil {
				return err
			}
			out, err := js.Marshal(c.JSONSchema())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return nil
		},
	}
}
