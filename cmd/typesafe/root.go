package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ts "github.com/reoring/typesafe"
	"github.com/reoring/typesafe/i18n"
	"github.com/reoring/typesafe/schemafile"
)

const envPrefix = "TYPESAFE"

// app carries configuration shared by every command.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "typesafe",
		Short: "Check documents against typed record declarations",
		Long: `typesafe loads enums, constrained primitives and record classes declared in
YAML and uses them to export JSON Schema or to check JSON/YAML documents.

Settings can also come from the environment: TYPESAFE_LANG, TYPESAFE_VERBOSE
and TYPESAFE_STRICT.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("lang", "en", "language of error titles (en, ja)")
	_ = a.v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = a.v.BindPFlag("lang", root.PersistentFlags().Lookup("lang"))

	root.AddCommand(a.schemaCmd(), a.checkCmd(), a.classesCmd())
	return root
}

func (a *app) setup(stderr io.Writer) error {
	level := slog.LevelInfo
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	ts.SetLogger(logger)

	switch lang := a.v.GetString("lang"); lang {
	case "en", "ja":
		i18n.SetLanguage(lang)
	default:
		return fmt.Errorf("unsupported language %q", lang)
	}
	return nil
}

// load builds the declarations file into a fresh registry.
func (a *app) load(path string) (*schemafile.Declarations, error) {
	d, err := schemafile.LoadFile(path, ts.NewRegistry())
	if err != nil {
		return nil, err
	}
	slog.Debug("declarations loaded", "module", d.Module, "classes", len(d.Classes))
	return d, nil
}

func (a *app) classesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes <declarations.yaml>",
		Short: "List declared classes and their fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range d.ClassNames() {
				c := d.Classes[name]
				fmt.Fprintln(out, c.QualName())
				for _, f := range c.Fields() {
					fmt.Fprintf(out, "  %s: %s\n", f.Name, f.Type)
				}
			}
			return nil
		},
	}
}
