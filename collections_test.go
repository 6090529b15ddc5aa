package typesafe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
)

func TestList_Mutations(t *testing.T) {
	l, err := ts.NewList(ts.Int, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "list[int] with 3 elements", l.String())
	assert.Equal(t, int64(3), l.Get(-1))

	err = l.Append(4, "five")
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeElementType, e.Code)
	assert.Equal(t, "append", e.Op)
	assert.Equal(t, 3, l.Len(), "failed append must not change the list")

	require.NoError(t, l.Insert(1, 9))
	assert.True(t, l.Equal([]int{1, 9, 2, 3}))
	require.NoError(t, l.SetAt(0, int8(7)))
	assert.Equal(t, int64(7), l.Get(0))
	for _, i := range []int{4, -5} {
		err = l.SetAt(i, 1)
		e, ok = ts.AsError(err)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, ts.CodeValueConstraint, e.Code)
		assert.Equal(t, "set", e.Op)
	}
	require.NoError(t, l.SetAt(-1, 8))
	assert.Equal(t, int64(8), l.Get(3))
	require.NoError(t, l.SetAt(-1, 3))
	assert.True(t, l.Equal([]int{7, 9, 2, 3}))
	assert.Equal(t, 2, l.Index(2))
	assert.True(t, l.Contains(3))
	assert.Error(t, l.Remove(100))
	require.NoError(t, l.Remove(9))

	last, ok := l.Pop()
	assert.True(t, ok)
	assert.Equal(t, int64(3), last)

	both, err := l.Concat([]int{5})
	require.NoError(t, err)
	assert.True(t, both.Equal([]int{7, 2, 5}))
	_, err = l.Concat([]string{"x"})
	assert.True(t, ts.IsCode(err, ts.CodeElementType))
	assert.True(t, l.Repeat(2).Equal([]int{7, 2, 7, 2}))

	l.Clear()
	_, ok = l.Pop()
	assert.False(t, ok)
}

func TestList_ConstrainedElements(t *testing.T) {
	l := ts.MustList(boundedInt)
	require.NoError(t, l.Append(5))
	assert.IsType(t, ts.IntValue{}, l.Get(0))

	err := l.Append(0)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeElementType, e.Code)
	cause, ok := ts.AsError(e.Cause)
	require.True(t, ok)
	assert.Equal(t, ts.CodeValueConstraint, cause.Code)
}

func TestList_CopyIsIndependent(t *testing.T) {
	l := ts.MustList(ts.ListOf(ts.Str), []string{"a"})
	cp := l.Copy()
	require.NoError(t, cp.Append([]string{"b"}))
	assert.Equal(t, 1, l.Len())
	assert.Same(t, l.Get(0), cp.Get(0), "Copy is shallow")
}

func TestSet_Operations(t *testing.T) {
	s := ts.MustSet(ts.Str, "a", "b", "a")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []any{"a", "b"}, s.Items())
	assert.True(t, ts.IsCode(s.Add(1), ts.CodeElementType))

	require.NoError(t, s.Update([]string{"c"}))
	err := s.Update([]any{"d", 2})
	assert.Error(t, err)
	assert.False(t, s.Contains("d"), "failed update must not add anything")

	u, err := s.Union([]string{"z"})
	require.NoError(t, err)
	assert.True(t, u.Equal([]string{"a", "b", "c", "z"}))

	i, err := s.Intersect([]string{"b", "c", "q"})
	require.NoError(t, err)
	assert.True(t, i.Equal([]string{"b", "c"}))

	d, err := s.Difference(ts.MustSet(ts.Str, "a"))
	require.NoError(t, err)
	assert.True(t, d.Equal([]string{"b", "c"}))

	x, err := s.SymmetricDifference([]string{"c", "y"})
	require.NoError(t, err)
	assert.True(t, x.Equal([]string{"a", "b", "y"}))

	assert.Error(t, s.Remove("nope"))
	require.NoError(t, s.Remove("a"))
	s.Discard("b")
	assert.Equal(t, []any{"c"}, s.Items())
}

func TestSet_BytesAndTuples(t *testing.T) {
	s := ts.MustSet(ts.Bytes, []byte("x"), []byte("x"))
	assert.Equal(t, 1, s.Len())

	pair := ts.TupleOf(ts.Int, ts.Str)
	tp := ts.MustSet(pair, []any{1, "a"}, []any{1, "a"}, []any{2, "a"})
	assert.Equal(t, 2, tp.Len())
	assert.True(t, tp.Contains([]any{2, "a"}))
}

func TestSet_FloatEpsilonMembership(t *testing.T) {
	s := ts.MustSet(score, 1.0, 2.0)
	assert.True(t, s.Equal([]float64{2.0, 1.0}))
	assert.False(t, s.Equal([]float64{1.0}))
}

func TestDict_Operations(t *testing.T) {
	d, err := ts.NewDict(ts.Str, ts.Int, map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, d.Keys())
	assert.Equal(t, "dict[str, int] with 2 entries", d.String())

	err = d.Set(1, 1)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "set key", e.Op)
	err = d.Set("c", "three")
	e, ok = ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "set value", e.Op)

	err = d.Update(map[string]any{"c": 3, "d": "x"})
	assert.Error(t, err)
	assert.False(t, d.Has("c"), "failed update must not store anything")

	merged, err := d.Merge(map[string]int{"a": 10, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(10), merged.MustGet("a"))
	assert.Equal(t, int64(1), d.MustGet("a"))

	v, err := d.PopDefault("a", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = d.PopDefault("zz", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
	_, err = d.PopDefault("zz", "five")
	assert.Error(t, err)

	assert.True(t, d.Delete("b"))
	assert.False(t, d.Delete("b"))
	assert.Equal(t, 0, d.Len())
}

func TestDict_EnumKeysAndRange(t *testing.T) {
	d := ts.MustDict(color, ts.Float, nil)
	require.NoError(t, d.Set("red", 1))
	require.NoError(t, d.Set(color.MustMember("blue"), 2.5))
	assert.True(t, d.Has("red"))
	assert.Error(t, d.Set("pink", 1.0))

	var seen []string
	d.Range(func(k, _ any) bool {
		seen = append(seen, k.(ts.EnumMember).Name())
		return true
	})
	assert.Equal(t, []string{"red", "blue"}, seen)

	out, err := d.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"red": int64(1), "blue": 2.5}, out)
}

func TestDict_IntKeysSerialiseAsStrings(t *testing.T) {
	d := ts.MustDict(ts.Int, ts.Str, map[int]string{2: "b", 10: "j"})
	out, err := d.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"2": "b", "10": "j"}, out)

	back, err := ts.Deserialize(ts.DictOf(ts.Int, ts.Str), map[string]any{"2": "b", "10": "j"})
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func TestTuple(t *testing.T) {
	pair := ts.TupleOf(ts.Int, ts.Str)
	tp, err := ts.NewTuple(pair, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, tp.Len())
	assert.Equal(t, "(1, a)", tp.String())
	assert.True(t, tp.Equal([]any{1, "a"}))

	_, err = ts.NewTuple(pair, 1)
	assert.True(t, ts.IsCode(err, ts.CodeElementType))
	_, err = ts.NewTuple(pair, "a", 1)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "init[0]", e.Op)
	_, err = ts.NewTuple(ts.Int, 1)
	assert.Error(t, err)

	items := tp.Items()
	items[0] = int64(99)
	assert.Equal(t, int64(1), tp.Get(0))
}

func TestCollections_JSON(t *testing.T) {
	l := ts.MustList(color, "red", "green")
	out, err := l.JSON()
	require.NoError(t, err)
	assert.Equal(t, []any{"red", "green"}, out)

	s := ts.MustSet(ts.Bytes, []byte("hi"))
	sj, err := s.JSON()
	require.NoError(t, err)
	assert.Equal(t, []any{"aGk="}, sj)

	v, err := ts.Serialize(ts.MustTuple(ts.TupleOf(boundedInt, ts.Str), 3, "x"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), "x"}, v)
}
