package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typesafe/internal/tree"
)

func TestNullable(t *testing.T) {
	assert.Equal(t, "null", Nullable(nil).Type)
	n := Nullable(&Schema{Type: "string"})
	require.Len(t, n.AnyOf, 2)
	assert.Equal(t, "null", n.AnyOf[1].Type)
}

func TestCompileAndValidate(t *testing.T) {
	_, err := Compile(nil)
	assert.Error(t, err)

	lo := 1.0
	s := &Schema{
		SchemaURI: Draft,
		Type:      "object",
		Properties: map[string]*Schema{
			"n":    {Type: "integer", Minimum: &lo},
			"tags": {Type: "array", Items: &Schema{Type: "string"}},
		},
		AdditionalProperties: false,
	}
	v, err := Compile(s)
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]any{"n": int64(2), "tags": []any{"a"}}))
	assert.NoError(t, v.Validate(tree.Object{{Key: "n", Value: int64(5)}}), "ordered trees are accepted")

	err = v.Validate(map[string]any{"n": int64(0), "tags": []any{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
	assert.Contains(t, err.Error(), "/n: ")
	assert.Contains(t, err.Error(), "/tags/0: ")
}

func TestMarshal(t *testing.T) {
	raw, err := Marshal(&Schema{Type: []string{"integer", "null"}, Items: false})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":["integer","null"],"items":false}`, string(raw))
}
