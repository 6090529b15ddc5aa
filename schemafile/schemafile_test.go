package schemafile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
	"github.com/reoring/typesafe/domains"
	"github.com/reoring/typesafe/schemafile"
)

const shopYAML = `
module: shop
imports: [domains]
enums:
  - name: Color
    members: [red, green, {name: blue, value: 3}]
primitives:
  - name: Sku
    base: str
    max_length: 8
    regex: "[A-Z]{3}-[0-9]{4}"
    mode: match
  - name: Qty
    base: int
    min: 0
    max: 100
  - name: Price
    base: float
    min: 0
    decimal_places: 2
    use_decimal: true
classes:
  - name: Item
    attrs: {kind: item}
    fields:
      - {name: sku, type: Sku}
      - {name: qty, type: Qty, default: 1}
      - {name: price, type: Price}
      - {name: color, type: Color, default: green}
      - {name: tags, type: "List[str]"}
      - {name: port, type: Port}
      - name: note
        type: Optional[str]
        validate: "value == nil || len(value) < 10"
  - name: Order
    fields:
      - {name: id, type: RandomGUID}
      - {name: items, type: "List[Item]"}
      - {name: by_sku, type: "Dict[Sku, Item]"}
      - {name: parent, type: Optional[Self]}
      - {name: audit, type: Audit}
  - name: Audit
    fields:
      - {name: who, type: str}
`

func load(t *testing.T) *schemafile.Declarations {
	t.Helper()
	d, err := schemafile.Load([]byte(shopYAML), nil)
	require.NoError(t, err)
	return d
}

func TestLoadDeclarations(t *testing.T) {
	d := load(t)
	assert.Equal(t, []string{"Item", "Order", "Audit"}, d.ClassNames())

	color := d.Enums["Color"]
	require.NotNil(t, color)
	assert.Equal(t, []string{"red", "green", "blue"}, color.Names())
	blue, err := color.Lookup(int64(3))
	require.NoError(t, err)
	assert.Equal(t, "blue", blue.Name())

	got, ok := d.Registry.Lookup("shop.Sku")
	require.True(t, ok)
	assert.Same(t, d.Primitives["Sku"], got)
	_, ok = d.Registry.Lookup("domains.Port")
	assert.True(t, ok)
}

func TestDeclaredClassBehaviour(t *testing.T) {
	d := load(t)
	item, err := d.Class("Item")
	require.NoError(t, err)

	r, err := item.New(ts.Kwargs{"sku": "ABC-1234", "price": 9.999, "tags": []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "green", r.Get("color").(ts.EnumMember).Name())
	assert.Equal(t, int64(1), r.Get("qty").(ts.IntValue).Int64())
	assert.Equal(t, 10.0, r.Get("price").(ts.FloatValue).Float64())
	assert.Equal(t, "item", r.Get("kind"))

	err = r.Set("sku", "abc")
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint), err)
	err = r.Set("qty", 101)
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint), err)
	err = r.Set("note", "far too long for this")
	require.Error(t, err)
	require.NoError(t, r.Set("note", "short"))
	require.NoError(t, r.Set("note", nil))
	assert.Equal(t, domains.Port.Zero(), r.Get("port"))
}

func TestForwardAndSelfReferences(t *testing.T) {
	d := load(t)
	order, err := d.Class("shop.Order")
	require.NoError(t, err)

	r, err := order.New()
	require.NoError(t, err)
	audit, ok := r.Get("audit").(*ts.Record)
	require.True(t, ok, "forward-declared class defaults to an instance")
	assert.Equal(t, "Audit", audit.Class().Name())
	assert.Nil(t, r.Get("parent"))

	tree := map[string]any{
		"items":  []any{map[string]any{"sku": "XYZ-0001", "qty": 3}},
		"by_sku": map[string]any{"XYZ-0001": map[string]any{"sku": "XYZ-0001"}},
		"parent": map[string]any{"audit": map[string]any{"who": "root"}},
		"audit":  map[string]any{"who": "me"},
	}
	back, err := order.FromJSON(tree)
	require.NoError(t, err)
	parent := back.Get("parent").(*ts.Record)
	assert.Equal(t, "root", parent.Get("audit").(*ts.Record).Get("who"))
	items := back.Get("items").(*ts.List)
	assert.Equal(t, 1, items.Len())
	keys := back.Get("by_sku").(*ts.Dict).Keys()
	require.Len(t, keys, 1)
	assert.IsType(t, ts.StrValue{}, keys[0])
}

func TestSchemaExportOfDeclaredClass(t *testing.T) {
	d := load(t)
	order, err := d.Class("Order")
	require.NoError(t, err)
	s := order.JSONSchema()
	assert.Contains(t, s.Defs, "shop.Item")
	assert.Contains(t, s.Defs, "shop.Audit")
}

func TestParseExpr(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"int", "int"},
		{"Dict[ Id , List[int] ]", "Dict[Id, List[int]]"},
		{"Union[str,int,Optional[shop.Item]]", "Union[str, int, Optional[shop.Item]]"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			e, err := schemafile.ParseExpr(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, e.String())
		})
	}

	for _, bad := range []string{"", "List[", "List[int", "List[int]]", "Dict[int;str]", "[int]"} {
		_, err := schemafile.ParseExpr(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, doc, want string
	}{
		{"missing module", "enums: []", "module is required"},
		{"unknown key", "module: m\nbogus: 1", "bogus"},
		{"unknown type", "module: m\nclasses:\n  - name: A\n    fields:\n      - {name: x, type: Nope}", "unknown type"},
		{"bad arity", "module: m\nclasses:\n  - name: A\n    fields:\n      - {name: x, type: 'List[int, str]'}", "takes 1"},
		{"bad regex", "module: m\nprimitives:\n  - {name: P, base: str, regex: '['}", "regex"},
		{"bad mode", "module: m\nprimitives:\n  - {name: P, base: str, mode: fuzzy}", "regex mode"},
		{"duplicate", "module: m\nenums:\n  - {name: A, members: [x]}\nclasses:\n  - {name: A}", "declared twice"},
		{"base after subclass", "module: m\nclasses:\n  - {name: B, extends: A}\n  - {name: A}", "before its subclasses"},
		{"bad import", "module: m\nimports: [nope]", "unknown import"},
		{"bad expression", "module: m\nclasses:\n  - name: A\n    fields:\n      - {name: x, type: int, validate: 'value >'}", "A.x"},
		{"bad default", "module: m\nclasses:\n  - name: A\n    fields:\n      - {name: x, type: int, default: nope}", "'x' on A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schemafile.Load([]byte(tc.doc), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDerivedPrimitive(t *testing.T) {
	doc := `
module: net
imports: [domains]
primitives:
  - {name: HighPort, base: Port, min: 1024}
`
	d, err := schemafile.Load([]byte(doc), nil)
	require.NoError(t, err)
	hp := d.Primitives["HighPort"].(*ts.IntClass)
	_, err = hp.New(80)
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint))
	_, err = hp.New(70000)
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint))
	assert.True(t, ts.IsSubtype(hp, domains.Port))
}
