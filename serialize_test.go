package typesafe_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
)

func TestSerialize_Leaves(t *testing.T) {
	reg := ts.NewRegistry()
	C := ts.NewClass("ser", "Thing").Registry(reg).MustBuild()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int kinds widen", int16(4), int64(4)},
		{"float32", float32(0.5), 0.5},
		{"nan", math.NaN(), nil},
		{"bytes", []byte("hi"), "aGk="},
		{"bounded int", boundedInt.MustNew(9), int64(9)},
		{"sanitised string", ts.SafeStr.MustNew("a b"), "a_b"},
		{"enum member", color.MustMember("blue"), "blue"},
		{"zero member", ts.EnumMember{}, nil},
		{"class reference", C, "ser.Thing"},
		{"raw slice", []int{1, 2}, []any{int64(1), int64(2)}},
		{"raw map", map[string]any{"k": []byte("x")}, map[string]any{"k": "eA=="}},
		{"unserialisable", make(chan int), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.Serialize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialize_Cycle(t *testing.T) {
	C := ts.NewClass("ser", "Loop").Registry(ts.NewRegistry()).
		Field("next", ts.Optional(ts.Self)).
		Field("any", ts.Any).
		MustBuild()
	a := ts.MustNew(C)
	b := ts.MustNew(C)
	a.MustSet("next", b)
	b.MustSet("next", a)

	_, err := a.JSON()
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeCycle, e.Code)
	assert.Equal(t, "next", e.Field)

	c := ts.MustNew(C)
	c.MustSet("any", []any{c})
	_, err = c.Bytes()
	assert.True(t, ts.IsCode(err, ts.CodeCycle))
}

func TestSerialize_SharedRecordIsNotACycle(t *testing.T) {
	reg := ts.NewRegistry()
	leaf := ts.NewClass("ser", "Leaf").Registry(reg).Field("v", ts.Int).MustBuild()
	pair := ts.NewClass("ser", "Pair").Registry(reg).
		Field("left", leaf).
		Field("right", leaf).
		MustBuild()
	shared := ts.MustNew(leaf, ts.Kwargs{"v": 1})
	p := ts.MustNew(pair, ts.Kwargs{"left": shared, "right": shared})

	out, err := p.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": int64(1)}, out["right"])
}

func deployClass(t *testing.T) (*ts.Class, *ts.Class) {
	t.Helper()
	reg := ts.NewRegistry()
	port := ts.NewIntClass("ser", "Port", ts.IntConstraint{Min: ts.Ptr[int64](1), Max: ts.Ptr[int64](65535), Default: 80})
	svc := ts.NewClass("ser", "Service").Registry(reg).
		Field("name", ts.Str).
		Field("port", port).
		MustBuild()
	deploy := ts.NewClass("ser", "Deploy").Registry(reg).
		Field("env", color).
		Field("services", ts.ListOf(svc)).
		Field("labels", ts.DictOf(ts.Str, ts.Str)).
		MustBuild()
	return deploy, svc
}

func TestFromJSON_Paths(t *testing.T) {
	deploy, _ := deployClass(t)

	_, err := ts.FromJSON(deploy, `{"services":[{"name":"a","port":80},{"name":"b","port":0}]}`)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeValueConstraint, e.Code)
	assert.Equal(t, "/services/1/port", e.Path)
	assert.Contains(t, e.Error(), "(at /services/1/port)")

	_, err = ts.FromJSON(deploy, `{"env":"pink"}`)
	e, ok = ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "/env", e.Path)
	assert.Equal(t, "env", e.Field)

	_, err = ts.FromJSON(deploy, `{"services":[{"name":1}]}`)
	e, ok = ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeFieldType, e.Code)
	assert.Equal(t, "/services/0/name", e.Path)

	_, err = ts.FromJSON(deploy, `[1,2]`)
	assert.True(t, ts.IsCode(err, ts.CodeFieldType))
}

func TestFromJSON_Options(t *testing.T) {
	deploy, _ := deployClass(t)

	r, err := ts.FromJSON(deploy, `{"env":"green","extra":true,"labels":null}`)
	require.NoError(t, err)
	assert.Equal(t, "green", r.Get("env").(ts.EnumMember).Name())
	assert.NotNil(t, r.Get("labels"), "null for a non-optional field keeps the default")

	_, err = ts.FromJSON(deploy, `{"extra":true}`, ts.RaiseOnNotFound())
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeUnknownField, e.Code)
	assert.Equal(t, "/extra", e.Path)

	_, err = ts.FromJSON(deploy, `{"services":[{"name":"a"}]}`, ts.MaxDepth(2))
	assert.True(t, ts.IsCode(err, ts.CodeLimit))
	_, err = ts.FromJSON(deploy, map[string]any{"services": []any{map[string]any{"name": "a"}}}, ts.MaxDepth(2))
	assert.True(t, ts.IsCode(err, ts.CodeLimit))
	_, err = ts.FromJSON(deploy, `{"services":[{"name":"a"}]}`, ts.MaxDepth(3))
	assert.NoError(t, err)

	_, err = ts.FromJSON(deploy, `{"env":"red"}`, ts.MaxBytes(4))
	assert.True(t, ts.IsCode(err, ts.CodeLimit))

	_, err = ts.FromJSON(deploy, `{"env":"red","env":"blue"}`, ts.OnDuplicateKey(ts.DupError))
	e, ok = ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeDuplicateKey, e.Code)
	r, err = ts.FromJSON(deploy, `{"env":"red","env":"blue"}`, ts.OnDuplicateKey(ts.DupIgnore))
	require.NoError(t, err)
	assert.Equal(t, "blue", r.Get("env").(ts.EnumMember).Name())

	_, err = ts.FromJSON(deploy, `{"env":`)
	assert.True(t, ts.IsCode(err, ts.CodeParseError))
}

func TestFromJSON_ClassReferenceRegistry(t *testing.T) {
	reg := ts.NewRegistry()
	plugin := ts.NewClass("ser", "Plugin").Registry(reg).MustBuild()
	other := ts.NewRegistry()
	alt := ts.NewClass("ser", "Plugin").Registry(other).MustBuild()
	host := ts.NewClass("ser", "Host").Registry(reg).Field("impl", ts.ClassRef(ts.Any)).MustBuild()

	r, err := ts.FromJSON(host, `{"impl":"ser.Plugin"}`)
	require.NoError(t, err)
	assert.Same(t, plugin, r.Get("impl"))

	r, err = ts.FromJSON(host, `{"impl":"ser.Plugin"}`, ts.WithRegistry(other))
	require.NoError(t, err)
	assert.Same(t, alt, r.Get("impl"))
}

func TestInterchange_Formats(t *testing.T) {
	deploy, svc := deployClass(t)
	r := ts.MustNew(deploy, ts.Kwargs{
		"env":      "blue",
		"services": []any{ts.MustNew(svc, ts.Kwargs{"name": "api", "port": 8080})},
		"labels":   map[string]string{"team": "core"},
	})

	raw, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"env":"blue","services":[{"name":"api","port":8080}],"labels":{"team":"core"}}`, string(raw))
	back, err := ts.FromBytes(deploy, raw)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))

	gz, err := r.BytesGz()
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, raw, plain, "the stream is plain gzip")
	back, err = ts.FromBytesGz(deploy, gz)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
	_, err = ts.FromBytesGz(deploy, []byte("not gzip"))
	assert.True(t, ts.IsCode(err, ts.CodeParseError))
	_, err = ts.FromBytesGz(deploy, gz, ts.MaxBytes(10))
	assert.True(t, ts.IsCode(err, ts.CodeLimit))

	y, err := r.YAML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(y), "env: blue\n"), string(y))
	back, err = ts.FromYAML(deploy, y)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	assert.Contains(t, buf.String(), "\n  \"env\": \"blue\",\n")
}

func TestInterchange_IntegralFloats(t *testing.T) {
	reg := ts.NewRegistry()
	ratio := ts.NewFloatClass("ser", "Ratio", ts.FloatConstraint{Min: ts.Ptr(0.0), Max: ts.Ptr(10.0)})
	c := ts.NewClass("ser", "Gauge").Registry(reg).
		Field("ratio", ratio).
		Field("raw", ts.Float).
		Field("by_ratio", ts.DictOf(ratio, ts.Str)).
		MustBuild()
	r := ts.MustNew(c, ts.Kwargs{
		"ratio":    2.0,
		"raw":      3.0,
		"by_ratio": map[float64]string{1.0: "one"},
	})

	raw, err := r.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ratio":2,`)

	back, err := ts.FromBytes(c, raw)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
	assert.Equal(t, ratio.MustNew(2.0), back.Get("ratio"))
	assert.Equal(t, 3.0, back.Get("raw"))
	_, ok := back.Get("by_ratio").(*ts.Dict).Get(ratio.MustNew(1.0))
	assert.True(t, ok)

	_, err = ts.FromJSON(c, map[string]any{"ratio": int64(2)})
	assert.NoError(t, err)
	_, err = ts.FromJSON(c, map[string]any{"ratio": "2"})
	assert.True(t, ts.IsCode(err, ts.CodeTypeConstraint))
}

func TestFromJSON_UnionOfRecords(t *testing.T) {
	reg := ts.NewRegistry()
	ua := ts.NewClass("ser", "UA").Registry(reg).Field("a", ts.Int).MustBuild()
	ub := ts.NewClass("ser", "UB").Registry(reg).Field("b", ts.Str).MustBuild()
	uc := ts.NewClass("ser", "UC").Registry(reg).Field("a", ts.Int).Field("c", ts.Int).MustBuild()
	holder := ts.NewClass("ser", "Holder").Registry(reg).
		Field("v", ts.Union(ua, ub, uc)).
		MustBuild()

	tests := []struct {
		name string
		in   string
		want *ts.Class
	}{
		{"first arm", `{"v":{"a":1}}`, ua},
		{"second arm", `{"v":{"b":"x"}}`, ub},
		{"superset arm", `{"v":{"a":1,"c":2}}`, uc},
		{"best cover when nothing fits strictly", `{"v":{"b":"x","extra":true}}`, ub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ts.FromJSON(holder, tt.in)
			require.NoError(t, err)
			v, ok := r.Get("v").(*ts.Record)
			require.True(t, ok)
			assert.Same(t, tt.want, v.Class())
		})
	}

	r := ts.MustNew(holder, ts.Kwargs{"v": ts.MustNew(ub, ts.Kwargs{"b": "x"})})
	first, err := r.JSON()
	require.NoError(t, err)
	back, err := ts.FromJSON(holder, first)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
	second, err := back.JSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFromYAML_Errors(t *testing.T) {
	deploy, _ := deployClass(t)
	_, err := ts.FromYAML(deploy, []byte("env: [unclosed"))
	assert.True(t, ts.IsCode(err, ts.CodeParseError))

	_, err = ts.FromYAML(deploy, []byte("services:\n  - name: a\n    port: 99999\n"))
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "/services/0/port", e.Path)
}

func TestDeserialize_Types(t *testing.T) {
	tests := []struct {
		name string
		t    ts.Type
		raw  any
		want func(t *testing.T, v any)
	}{
		{"bytes", ts.Bytes, "aGk=", func(t *testing.T, v any) { assert.Equal(t, []byte("hi"), v) }},
		{"set", ts.SetOf(ts.Int), []any{int64(1), int64(1), int64(2)}, func(t *testing.T, v any) {
			assert.Equal(t, 2, v.(*ts.Set).Len())
		}},
		{"tuple", ts.TupleOf(ts.Int, color), []any{int64(1), "red"}, func(t *testing.T, v any) {
			assert.Equal(t, color.MustMember("red"), v.(ts.Tuple).Get(1))
		}},
		{"union prefers the first fitting arm", ts.Union(boundedInt, ts.Str), int64(5), func(t *testing.T, v any) {
			assert.IsType(t, ts.IntValue{}, v)
		}},
		{"union falls through", ts.Union(boundedInt, ts.Str), "five", func(t *testing.T, v any) {
			assert.Equal(t, "five", v)
		}},
		{"bool dict keys", ts.DictOf(ts.Bool, ts.Int), map[string]any{"true": int64(1)}, func(t *testing.T, v any) {
			got, ok := v.(*ts.Dict).Get(true)
			assert.True(t, ok)
			assert.Equal(t, int64(1), got)
		}},
		{"any keeps plain trees", ts.Any, map[string]any{"a": []any{int64(1)}}, func(t *testing.T, v any) {
			assert.Equal(t, map[string]any{"a": []any{int64(1)}}, v)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ts.Deserialize(tt.t, tt.raw)
			require.NoError(t, err)
			tt.want(t, v)
		})
	}

	_, err := ts.Deserialize(ts.Bytes, "!!")
	assert.True(t, ts.IsCode(err, ts.CodeFieldType))
	_, err = ts.Deserialize(ts.TupleOf(ts.Int), []any{int64(1), int64(2)})
	assert.True(t, ts.IsCode(err, ts.CodeElementType))
	_, err = ts.Deserialize(ts.DictOf(ts.Int, ts.Str), map[string]any{"x": "y"})
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "/x", e.Path)
}
