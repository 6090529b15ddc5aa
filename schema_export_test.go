package typesafe_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
	js "github.com/reoring/typesafe/jsonschema"
)

func exportClasses(t *testing.T) (*ts.Class, *ts.Class) {
	t.Helper()
	reg := ts.NewRegistry()
	sku := ts.NewStrClass("shop", "Sku", ts.StrConstraint{
		MaxLength: 6,
		Regex:     regexp.MustCompile(`[A-Z]{3}[0-9]{3}`),
		Mode:      ts.RegexMatch,
	})
	item := ts.NewClass("shop", "Item").Registry(reg).
		Field("sku", sku, "ABC123").
		Field("qty", boundedInt).
		Field("price", score).
		MustBuild()
	order := ts.NewClass("shop", "Order").Registry(reg).
		Field("status", color).
		Field("items", ts.ListOf(item)).
		Field("tags", ts.SetOf(ts.Str)).
		Field("pair", ts.TupleOf(ts.Int, ts.Str)).
		Field("notes", ts.DictOf(color, ts.Str)).
		Field("blob", ts.Bytes).
		Field("parent", ts.Optional(ts.Self)).
		MustBuild()
	return order, item
}

func TestJSONSchema_Shape(t *testing.T) {
	order, _ := exportClasses(t)
	s := order.JSONSchema()

	assert.Equal(t, js.Draft, s.SchemaURI)
	assert.Equal(t, "shop.Order", s.Title)
	assert.Equal(t, false, s.AdditionalProperties)
	assert.Empty(t, s.Required)

	assert.Equal(t, []any{"red", "green", "blue"}, s.Properties["status"].Enum)
	assert.True(t, s.Properties["tags"].UniqueItems)
	assert.Len(t, s.Properties["pair"].PrefixItems, 2)
	assert.Equal(t, false, s.Properties["pair"].Items)
	assert.Equal(t, "base64", s.Properties["blob"].ContentEncoding)
	require.NotNil(t, s.Properties["notes"].PropertyNames)
	assert.Len(t, s.Properties["notes"].PropertyNames.Enum, 3)

	items := s.Properties["items"].Items.(*js.Schema)
	require.Len(t, items.AnyOf, 2)
	assert.Equal(t, "#/$defs/shop.Item", items.AnyOf[0].Ref)
	assert.Equal(t, "#", s.Properties["parent"].AnyOf[0].AnyOf[0].Ref)

	def := s.Defs["shop.Item"]
	require.NotNil(t, def)
	assert.Equal(t, "ABC123", def.Properties["sku"].Default)
	assert.Equal(t, "^(?:[A-Z]{3}[0-9]{3})$", def.Properties["sku"].Pattern)
	assert.Equal(t, 6, *def.Properties["sku"].MaxLength)
	qty := def.Properties["qty"]
	assert.Equal(t, []string{"integer", "null"}, qty.Type)
	assert.Equal(t, 1.0, *qty.Minimum)
	assert.Equal(t, 1000.0, *qty.Maximum)
	assert.Equal(t, 10.0, *def.Properties["price"].Maximum)

	raw, err := js.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"$defs"`)
	assert.Contains(t, string(raw), `"additionalProperties": false`)
}

func TestJSONSchema_ValidatesSerialisedRecords(t *testing.T) {
	order, item := exportClasses(t)
	v, err := js.Compile(order.JSONSchema())
	require.NoError(t, err)

	r := ts.MustNew(order, ts.Kwargs{
		"status": "green",
		"items":  []any{ts.MustNew(item, ts.Kwargs{"qty": 3, "price": 2.5})},
		"tags":   []string{"a", "b"},
		"pair":   []any{1, "x"},
		"notes":  map[string]string{"red": "urgent"},
		"blob":   []byte("zz"),
	})
	r.MustSet("parent", ts.MustNew(order))
	doc, err := r.JSON()
	require.NoError(t, err)
	assert.NoError(t, v.Validate(doc))

	bad := map[string]any{
		"status": "pink",
		"items":  []any{map[string]any{"qty": 0, "sku": "abc"}},
		"extra":  true,
	}
	err = v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
	assert.Contains(t, err.Error(), "/items/0/qty")
}
