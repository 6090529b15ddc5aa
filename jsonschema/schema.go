package jsonschema

// Draft is the dialect URI written into exported root schemas.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is the subset of JSON Schema used for export. Extend it as
// projections need more keywords.
type Schema struct {
	SchemaURI   string             `json:"$schema,omitempty"`
	ID          string             `json:"$id,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`

	// Core
	Type    any    `json:"type,omitempty"` // string or []string
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`
	Enum    []any  `json:"enum,omitempty"`

	// Numbers
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Strings
	MinLength       *int   `json:"minLength,omitempty"`
	MaxLength       *int   `json:"maxLength,omitempty"`
	Pattern         string `json:"pattern,omitempty"`
	ContentEncoding string `json:"contentEncoding,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	Items       any       `json:"items,omitempty"` // *Schema or false
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`

	// Combinators
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
}

// Nullable widens s to also accept null.
func Nullable(s *Schema) *Schema {
	if s == nil {
		return &Schema{Type: "null"}
	}
	return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
}
