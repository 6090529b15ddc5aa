package typesafe_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
)

var (
	color = ts.NewEnum("prop", "Color", "red", "green", "blue")
	label = ts.NewStrClass("prop", "Label", ts.StrConstraint{
		MaxLength:      16,
		TrimWhitespace: true,
		Regex:          regexp.MustCompile(`[^a-zA-Z0-9 ]`),
	})
	score = ts.NewFloatClass("prop", "Score", ts.FloatConstraint{
		Min:           ts.Ptr(0.0),
		Max:           ts.Ptr(10.0),
		DecimalPlaces: 1,
		RoundOutput:   true,
		Epsilon:       1e-9,
		AllowInt:      true,
		AllowString:   true,
	})
)

// propClass covers every declared-type family in one class.
func propClass(t *testing.T) *ts.Class {
	t.Helper()
	reg := ts.NewRegistry()
	inner := ts.NewClass("prop", "Inner").Registry(reg).
		Field("n", boundedInt).
		MustBuild()
	return ts.NewClass("prop", "Outer").Registry(reg).
		Field("flag", ts.Bool).
		Field("count", ts.Int, 3).
		Field("ratio", ts.Float).
		Field("name", ts.Str, "anon").
		Field("blob", ts.Bytes).
		Field("n", boundedInt).
		Field("score", score).
		Field("label", label).
		Field("color", color).
		Field("inner", inner).
		Field("kind", ts.ClassRef(inner)).
		Field("list", ts.ListOf(ts.Int)).
		Field("set", ts.SetOf(ts.Str)).
		Field("dict", ts.DictOf(ts.Str, ts.Float)).
		Field("pair", ts.TupleOf(ts.Int, ts.Str)).
		Field("maybe", ts.Optional(ts.Str)).
		Field("either", ts.Union(ts.Int, ts.Str)).
		Field("short", ts.Annotated(ts.Str, ts.MaxLength(4))).
		Field("next", ts.Optional(ts.Self)).
		MustBuild()
}

func TestAssignmentClosure(t *testing.T) {
	r := ts.MustNew(propClass(t))
	tests := []struct {
		field string
		value any
		ok    bool
	}{
		{"flag", true, true},
		{"flag", 1, false},
		{"count", 42, true},
		{"count", "42", false},
		{"ratio", 2, true},
		{"ratio", "x", false},
		{"n", 999, true},
		{"n", 1001, false},
		{"score", "7.25", true},
		{"score", 11, false},
		{"label", "  hello  ", true},
		{"color", "green", true},
		{"color", "purple", false},
		{"list", []int{1, 2}, true},
		{"list", []any{1, "x"}, false},
		{"pair", []any{1, "a"}, true},
		{"pair", []any{1}, false},
		{"either", "s", true},
		{"either", 1.5, false},
		{"short", "abcd", true},
		{"short", "abcde", false},
		{"maybe", "x", true},
		{"inner", map[string]any{"n": 1}, false},
	}
	for _, tt := range tests {
		before := r.Get(tt.field)
		err := r.Set(tt.field, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s = %v", tt.field, tt.value)
			continue
		}
		if assert.Error(t, err, "%s = %v", tt.field, tt.value) {
			e, _ := ts.AsError(err)
			assert.Contains(t, []string{ts.CodeFieldType, ts.CodeValueConstraint, ts.CodeTypeConstraint, ts.CodeElementType}, e.Code)
		}
		assert.Equal(t, before, r.Get(tt.field), "%s changed after a failed assignment", tt.field)
	}
}

func TestDefaultCorrectness(t *testing.T) {
	c := propClass(t)
	r := ts.MustNew(c)
	for _, f := range c.Fields() {
		assert.Equal(t, ts.Match, ts.Matches(f.Type, r.Get(f.Name)), "default of %s", f.Name)
	}
	assert.Equal(t, int64(3), r.Get("count"))
	assert.Equal(t, "anon", r.Get("name"))
	assert.Equal(t, color.MustMember("red"), r.Get("color"))
	assert.Nil(t, r.Get("next"))

	bounded := ts.Annotated(ts.Int, ts.Between{Min: 1, Max: 10})
	_, err := ts.DefaultValue(bounded)
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint), "got %v", err)

	reg := ts.NewRegistry()
	_, err = ts.NewClass("prop", "Unset").Registry(reg).Field("n", bounded).Build()
	if assert.Error(t, err) {
		e, _ := ts.AsError(err)
		assert.Equal(t, "n", e.Field)
		assert.Contains(t, e.Message, "needs an explicit default")
	}
	withDefault := ts.NewClass("prop", "Set").Registry(reg).Field("n", bounded, 5).MustBuild()
	got := ts.MustNew(withDefault).Get("n")
	assert.Equal(t, int64(5), got)
	assert.Equal(t, ts.Match, ts.Matches(bounded, got))
}

func TestNoSharedDefaults(t *testing.T) {
	c := propClass(t)
	a, b := ts.MustNew(c), ts.MustNew(c)
	for _, name := range []string{"inner", "list", "set", "dict"} {
		assert.NotSame(t, a.Get(name), b.Get(name), name)
	}
	require.NoError(t, a.Get("list").(*ts.List).Append(1))
	assert.Equal(t, 0, b.Get("list").(*ts.List).Len())
	a.Get("inner").(*ts.Record).MustSet("n", 5)
	assert.Equal(t, int64(1), b.Get("inner").(*ts.Record).Get("n").(ts.IntValue).Int64())
}

func TestRoundTrip(t *testing.T) {
	c := propClass(t)
	r := ts.MustNew(c)
	require.NoError(t, r.Update(ts.Kwargs{
		"flag":   true,
		"ratio":  0.5,
		"blob":   []byte{0, 1, 2},
		"n":      12,
		"score":  9.96,
		"label":  "Hi there!",
		"color":  "blue",
		"list":   []int{3, 1, 2},
		"set":    []string{"b", "a"},
		"dict":   map[string]float64{"pi": 3.14},
		"pair":   []any{7, "seven"},
		"maybe":  "here",
		"either": 4,
	}))
	r.Get("inner").(*ts.Record).MustSet("n", 9)
	next := ts.MustNew(c)
	next.MustSet("name", "child")
	next.MustSet("label", "kid")
	r.MustSet("next", next)

	first, err := r.JSON()
	require.NoError(t, err)
	back, err := ts.FromJSON(c, first)
	require.NoError(t, err)
	second, err := back.JSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, r.Equal(back))

	assert.Equal(t, 10.0, first["score"])
	assert.Equal(t, "Hi there_", first["label"])
	assert.Equal(t, "prop.Inner", first["kind"])
}

func TestBoundedArithmeticClosure(t *testing.T) {
	small := ts.NewIntClass("prop", "Small", ts.IntConstraint{Min: ts.Ptr[int64](-20), Max: ts.Ptr[int64](20)})
	ops := map[string]func(a, b ts.IntValue) (ts.IntValue, error){
		"+": func(a, b ts.IntValue) (ts.IntValue, error) { return a.Add(b) },
		"-": func(a, b ts.IntValue) (ts.IntValue, error) { return a.Sub(b) },
		"*": func(a, b ts.IntValue) (ts.IntValue, error) { return a.Mul(b) },
	}
	raw := map[string]func(a, b int64) int64{
		"+": func(a, b int64) int64 { return a + b },
		"-": func(a, b int64) int64 { return a - b },
		"*": func(a, b int64) int64 { return a * b },
	}
	for op, fn := range ops {
		for x := int64(-20); x <= 20; x += 3 {
			for y := int64(-20); y <= 20; y += 4 {
				got, err := fn(small.MustNew(x), small.MustNew(y))
				want := raw[op](x, y)
				if want < -20 || want > 20 {
					assert.Error(t, err, "%d %s %d", x, op, y)
					continue
				}
				require.NoError(t, err, "%d %s %d", x, op, y)
				assert.Same(t, small, got.Class())
				assert.Equal(t, want, got.Int64())
			}
		}
	}
}

func TestSanitisedStringIdempotence(t *testing.T) {
	classes := []*ts.StrClass{ts.SafeStr, label}
	inputs := []string{"plain", "  padded  ", "Hi there!", "ünïcode", "a/b\\c", "many   spaces"}
	for _, c := range classes {
		for _, s := range inputs {
			once, err := c.New(s)
			if err != nil {
				continue
			}
			twice, err := c.New(once)
			require.NoError(t, err, "%s(%q)", c.Name(), s)
			assert.Equal(t, once, twice, "%s(%q)", c.Name(), s)
		}
	}
}

func TestTypedListInvariance(t *testing.T) {
	l := ts.MustList(boundedInt, 1, 2)
	_ = l.Append(3, 2000)
	_ = l.Insert(0, 0)
	_ = l.Insert(0, 10)
	_ = l.SetAt(1, "oops")
	_ = l.Extend([]any{4, 5, -1})
	_ = l.Extend([]int{6})
	_ = l.Remove(2)
	_, _ = l.Pop()
	for _, it := range l.Items() {
		assert.Equal(t, ts.Match, ts.Matches(boundedInt, it), "%v", it)
	}
	assert.Equal(t, []int64{10, 1}, ints(l.Items()))
}

func ints(items []any) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.(ts.IntValue).Int64()
	}
	return out
}

func TestEnumEncoding(t *testing.T) {
	weekday := ts.NewEnumOf("prop", "Weekday",
		ts.EnumEntry{Name: "MON", Value: int64(1)},
		ts.EnumEntry{Name: "TUE", Value: int64(2)},
	)
	for _, e := range []*ts.Enum{color, weekday} {
		for _, m := range e.Members() {
			got, err := ts.Deserialize(e, m.Name())
			require.NoError(t, err)
			assert.Equal(t, m, got)
			wire, err := ts.Serialize(m)
			require.NoError(t, err)
			assert.Equal(t, m.Name(), wire)
		}
	}
	got, err := ts.Deserialize(weekday, int64(2))
	require.NoError(t, err)
	assert.Equal(t, "TUE", got.(ts.EnumMember).Name())
}
