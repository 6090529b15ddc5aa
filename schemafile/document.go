// Package schemafile declares enums, constrained primitives and record
// classes from a YAML document.
//
//	module: shop
//	imports: [domains]
//	enums:
//	  - name: Color
//	    members: [red, green, {name: blue, value: 3}]
//	primitives:
//	  - name: Sku
//	    base: str
//	    max_length: 16
//	    regex: "[A-Z]{3}-[0-9]{4}"
//	    mode: match
//	classes:
//	  - name: Item
//	    fields:
//	      - {name: sku, type: Sku}
//	      - {name: tags, type: "List[str]"}
//	      - {name: qty, type: int, default: 1, validate: "value > 0"}
package schemafile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the decoded declaration file.
type Document struct {
	Module     string          `yaml:"module"`
	Imports    []string        `yaml:"imports,omitempty"`
	Enums      []EnumDecl      `yaml:"enums,omitempty"`
	Primitives []PrimitiveDecl `yaml:"primitives,omitempty"`
	Classes    []ClassDecl     `yaml:"classes,omitempty"`
}

// EnumDecl declares an enum; member order is kept.
type EnumDecl struct {
	Name    string       `yaml:"name"`
	Members []MemberDecl `yaml:"members"`
}

// MemberDecl is either a bare name or {name, value}.
type MemberDecl struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value,omitempty"`
}

func (m *MemberDecl) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		m.Name = n.Value
		return nil
	}
	type plain MemberDecl
	return n.Decode((*plain)(m))
}

// PrimitiveDecl declares a constrained primitive. Base is int, float, str
// or the name of another primitive to derive from; unset keys keep the
// base's setting.
type PrimitiveDecl struct {
	Name string `yaml:"name"`
	Base string `yaml:"base"`

	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	Clamp     *bool    `yaml:"clamp,omitempty"`
	AllowNone *bool    `yaml:"allow_none,omitempty"`
	Strict    *bool    `yaml:"strict,omitempty"`

	DecimalPlaces *int     `yaml:"decimal_places,omitempty"`
	RoundOutput   *bool    `yaml:"round_output,omitempty"` // defaults to decimal_places > 0
	UseDecimal    *bool    `yaml:"use_decimal,omitempty"`
	Epsilon       *float64 `yaml:"epsilon,omitempty"`
	AllowInf      *bool    `yaml:"allow_inf,omitempty"`
	AllowNaN      *bool    `yaml:"allow_nan,omitempty"`

	MaxLength   *int    `yaml:"max_length,omitempty"`
	ExactLength *bool   `yaml:"exact_length,omitempty"`
	AllowEmpty  *bool   `yaml:"allow_empty,omitempty"`
	Trim        *bool   `yaml:"trim,omitempty"`
	Lower       *bool   `yaml:"lower,omitempty"`
	Regex       *string `yaml:"regex,omitempty"`
	Mode        string  `yaml:"mode,omitempty"` // replace, strict or match
	Replacement *string `yaml:"replacement,omitempty"`

	Default any `yaml:"default,omitempty"`
}

// ClassDecl declares a record class.
type ClassDecl struct {
	Name    string         `yaml:"name"`
	Extends string         `yaml:"extends,omitempty"`
	Fields  []FieldDecl    `yaml:"fields,omitempty"`
	Attrs   map[string]any `yaml:"attrs,omitempty"`
}

// FieldDecl declares one field. Validate holds expressions evaluated with
// value, field and type in scope.
type FieldDecl struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Default  *yaml.Node `yaml:"default,omitempty"`
	Validate Exprs      `yaml:"validate,omitempty"`
}

// Exprs accepts a single expression or a list.
type Exprs []string

func (e *Exprs) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*e = Exprs{n.Value}
		return nil
	}
	var list []string
	if err := n.Decode(&list); err != nil {
		return err
	}
	*e = list
	return nil
}

// Parse decodes a declaration document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	if doc.Module == "" {
		return nil, fmt.Errorf("schemafile: module is required")
	}
	return &doc, nil
}

// ReadFile parses the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return Parse(data)
}
