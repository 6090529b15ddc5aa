package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ts "github.com/reoring/typesafe"
	js "github.com/reoring/typesafe/jsonschema"
)

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <declarations.yaml> <Class> <document>",
		Short: "Decode a JSON or YAML document as a declared class",
		Long: `check decodes the document (JSON, YAML or gzip-compressed JSON by file
extension) into an instance of the class, validates the canonical form against
the class's JSON Schema and prints it.

With --strict (or TYPESAFE_STRICT=true) undeclared keys and duplicate keys are
errors; otherwise they are logged and skipped.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(args[0])
			if err != nil {
				return err
			}
			c, err := d.Class(args[1])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			opts := a.decodeOptions()
			opts = append(opts, ts.WithRegistry(d.Registry))

			var r *ts.Record
			switch ext := strings.ToLower(filepath.Ext(args[2])); ext {
			case ".yaml", ".yml":
				r, err = ts.FromYAML(c, data, opts...)
			case ".gz":
				r, err = ts.FromBytesGz(c, data, opts...)
			default:
				r, err = ts.FromBytes(c, data, opts...)
			}
			if err != nil {
				return err
			}

			tree, err := r.JSON()
			if err != nil {
				return err
			}
			v, err := js.Compile(c.JSONSchema())
			if err != nil {
				return err
			}
			if err := v.Validate(tree); err != nil {
				return err
			}
			slog.Debug("document accepted", "class", c.QualName(), "file", args[2])

			if a.v.GetBool("quiet") {
				return nil
			}
			if a.v.GetString("output") == "yaml" {
				out, err := r.YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return r.Print(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("strict", false, "reject undeclared and duplicate keys")
	cmd.Flags().Bool("quiet", false, "only report errors")
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
	cmd.Flags().Int("max-depth", 0, "maximum nesting depth (0 = unlimited)")
	cmd.Flags().Int64("max-bytes", 0, "maximum input size in bytes (0 = unlimited)")
	for _, name := range []string{"strict", "quiet", "output", "max-depth", "max-bytes"} {
		_ = a.v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func (a *app) decodeOptions() []ts.FromJSONOption {
	var opts []ts.FromJSONOption
	if a.v.GetBool("strict") {
		opts = append(opts, ts.RaiseOnNotFound(), ts.OnDuplicateKey(ts.DupError))
	} else {
		opts = append(opts, ts.OnDuplicateKey(ts.DupWarn))
	}
	if n := a.v.GetInt("max-depth"); n > 0 {
		opts = append(opts, ts.MaxDepth(n))
	}
	if n := a.v.GetInt64("max-bytes"); n > 0 {
		opts = append(opts, ts.MaxBytes(n))
	}
	return opts
}

// describe formats a framework error with its path for terminal output.
func describe(err error) string {
	if e, ok := ts.AsError(err); ok && e.Path != "" {
		return fmt.Sprintf("%s [%s]", e.Error(), e.Code)
	}
	return err.Error()
}
