package typesafe_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/reoring/typesafe"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		v    ts.Validator
		in   any
		ok   bool
	}{
		{"min length", ts.MinLength(2), "ab", true},
		{"min length short", ts.MinLength(2), "a", false},
		{"min length runes", ts.MinLength(2), "日本", true},
		{"min length list", ts.MinLength(1), ts.MustList(ts.Int), false},
		{"min length no length", ts.MinLength(1), int64(3), false},
		{"max length", ts.MaxLength(2), ts.SafeStr.MustNew("abc"), false},
		{"max length dict", ts.MaxLength(2), ts.MustDict(ts.Str, ts.Int, map[string]int{"a": 1}), true},
		{"between", ts.Between{Min: 1, Max: 5}, boundedInt.MustNew(5), true},
		{"between low", ts.Between{Min: 1, Max: 5}, 0.5, false},
		{"between not numeric", ts.Between{Min: 1, Max: 5}, "3", false},
		{"pattern", ts.Pattern{Re: regexp.MustCompile(`^v\d+$`)}, "v12", true},
		{"pattern miss", ts.Pattern{Re: regexp.MustCompile(`^v\d+$`)}, ts.SafeStr.MustNew("x1"), false},
		{"func", ts.ValidatorFunc(func(v any, _ string, _ ts.Type) error { return nil }), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(tt.in, "f", ts.Any)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, ts.IsCode(err, ts.CodeValueConstraint), "got %v", err)
		})
	}
}

func TestExprValidator(t *testing.T) {
	_, err := ts.NewExprValidator("value >")
	assert.True(t, ts.IsCode(err, ts.CodeValueConstraint))
	_, err = ts.NewExprValidator("1 + 1")
	assert.Error(t, err, "non-boolean expressions are rejected at compile time")

	even := ts.MustExprValidator("value > 0 && value % 2 == 0")
	assert.Equal(t, "Expr(value > 0 && value % 2 == 0)", even.String())
	assert.NoError(t, even.Validate(int64(4), "n", ts.Int))
	assert.NoError(t, even.Validate(ts.SafeInt.MustNew(4), "n", ts.Int))
	assert.Error(t, even.Validate(int64(3), "n", ts.Int))

	err = even.Validate("four", "n", ts.Int)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "n", e.Field)
	assert.NotNil(t, e.Cause, "runtime failures keep the evaluator error")

	scoped := ts.MustExprValidator(`field == "n" && len(value) == 2`)
	assert.NoError(t, scoped.Validate(ts.MustList(ts.Int, 1, 2), "n", ts.Any))
	assert.Error(t, scoped.Validate(ts.MustList(ts.Int, 1, 2), "m", ts.Any))
}

func TestAnnotatedFields(t *testing.T) {
	C := ts.NewClass("val", "Order").Registry(ts.NewRegistry()).
		Field("qty", ts.Annotated(ts.Int, ts.MustExprValidator("value > 0 && value % 2 == 0")), int64(2)).
		Field("code", ts.Annotated(ts.Str, ts.MinLength(2), ts.MaxLength(4)), "ab").
		MustBuild()
	r := ts.MustNew(C)

	require.NoError(t, r.Set("qty", 8))
	err := r.Set("qty", 3)
	e, ok := ts.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ts.CodeValueConstraint, e.Code)
	assert.Equal(t, "qty", e.Field)
	assert.Equal(t, "Order", e.Class)
	assert.Equal(t, int64(8), r.Get("qty"))

	assert.True(t, ts.IsCode(r.Set("qty", "x"), ts.CodeFieldType), "the inner type is checked first")
	assert.Error(t, r.Set("code", "toolong"))
	assert.NoError(t, r.Set("code", "abcd"))

	qty, _ := C.Field("qty")
	assert.Contains(t, qty.Type.String(), "Expr(value > 0 && value % 2 == 0)")
	code, _ := C.Field("code")
	assert.Contains(t, code.Type.String(), "MinLength(2), MaxLength(4)]")
}
