package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"
	v5 "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/typesafe/internal/tree"
)

// Validator checks interchange trees against a compiled schema.
type Validator struct {
	compiled *v5.Schema
}

// Marshal encodes s as indented JSON.
func Marshal(s *Schema) ([]byte, error) {
	return j.MarshalIndent(s, "", "  ")
}

// Compile prepares s for validation under draft 2020-12.
func Compile(s *Schema) (*Validator, error) {
	if s == nil {
		return nil, errors.New("jsonschema: nil schema")
	}
	raw, err := j.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: encode: %w", err)
	}
	compiler := v5.NewCompiler()
	compiler.Draft = v5.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("jsonschema: add resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate reports every violation found in doc as one error.
func (v *Validator) Validate(doc any) error {
	err := v.compiled.Validate(tree.Plain(doc))
	if err == nil {
		return nil
	}
	var ve *v5.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var msgs []string
	var collect func(*v5.ValidationError)
	collect = func(e *v5.ValidationError) {
		if len(e.Causes) == 0 && e.Message != "" {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
		}
		for _, c := range e.Causes {
			collect(c)
		}
	}
	collect(ve)
	if len(msgs) == 0 {
		return err
	}
	return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
